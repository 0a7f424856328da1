package report_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-burn-mint/internal/adapter"
	"github.com/feral-file/ff-burn-mint/internal/config"
	"github.com/feral-file/ff-burn-mint/internal/domain"
	"github.com/feral-file/ff-burn-mint/internal/mocks"
	"github.com/feral-file/ff-burn-mint/internal/report"
	"github.com/feral-file/ff-burn-mint/internal/store"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func seedLedger(t *testing.T) store.Store {
	db, err := store.Open(config.LedgerConfig{
		Driver: config.LedgerDriverSQLite,
		Path:   filepath.Join(t.TempDir(), "ledger.db"),
	}, false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(db) })
	st := store.NewGormStore(db)

	ctx := context.Background()
	for i, id := range []string{"B1", "B2"} {
		_, err := st.InsertObligation(ctx, store.CreateObligationInput{
			BurnID:     id,
			Recipient:  "0x1111111111111111111111111111111111111111",
			BurnAmount: decimal.NewFromInt(int64(100 / (i + 1))),
			MintAmount: decimal.NewFromInt(int64(100 / (i + 1))),
			ObservedAt: now.Add(time.Duration(i) * time.Hour),
			Status:     domain.ObligationStatusPending,
		})
		require.NoError(t, err)
	}

	_, err = st.ClaimObligation(ctx, "B1", "c1", 5)
	require.NoError(t, err)
	require.NoError(t, st.MarkConfirmed(ctx, "B1", "c1", "0xfeedface00000000000000000000000000000000000000000000000000000001"))
	return st
}

func TestGenerate_WritesReport(t *testing.T) {
	ctrl := gomock.NewController(t)
	clock := mocks.NewMockClock(ctrl)
	clock.EXPECT().Now().Return(now).AnyTimes()

	st := seedLedger(t)
	outDir := filepath.Join(t.TempDir(), "out")

	gen, err := report.NewGenerator(config.ReportConfig{OutputDir: outDir, Title: "Settlement <Test>"},
		st, adapter.NewFileSystem(), adapter.NewJSON(), adapter.NewJCS(), clock)
	require.NoError(t, err)

	result, err := gen.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Obligations)

	data, err := os.ReadFile(result.JSONPath)
	require.NoError(t, err)

	sum := sha256.Sum256(data)
	assert.Equal(t, hex.EncodeToString(sum[:]), result.Digest)

	digestFile, err := os.ReadFile(filepath.Join(outDir, report.DigestFile))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(digestFile), result.Digest))

	var doc report.Document
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, now, doc.GeneratedAt)
	assert.Equal(t, int64(2), doc.Statistics.TotalRecords)
	assert.Equal(t, int64(1), doc.Statistics.Confirmed)
	assert.Equal(t, int64(1), doc.Statistics.Pending)
	assert.Equal(t, "150", doc.Statistics.TotalBurnedAmount)
	assert.Equal(t, "100", doc.Statistics.TotalMintedAmount)
	require.Len(t, doc.Obligations, 2)
	require.Len(t, doc.Wallets, 1)

	html, err := os.ReadFile(result.HTMLPath)
	require.NoError(t, err)
	assert.Contains(t, string(html), "Settlement &lt;Test&gt;")
	assert.Contains(t, string(html), result.Digest)
	assert.Contains(t, string(html), "0xfeed")
}

func TestGenerate_IsDeterministic(t *testing.T) {
	ctrl := gomock.NewController(t)
	clock := mocks.NewMockClock(ctrl)
	clock.EXPECT().Now().Return(now).AnyTimes()

	st := seedLedger(t)
	gen, err := report.NewGenerator(config.ReportConfig{OutputDir: t.TempDir()},
		st, adapter.NewFileSystem(), adapter.NewJSON(), adapter.NewJCS(), clock)
	require.NoError(t, err)

	first, err := gen.Generate(context.Background())
	require.NoError(t, err)
	second, err := gen.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first.Digest, second.Digest)
}

func TestGenerate_WriteError(t *testing.T) {
	ctrl := gomock.NewController(t)
	clock := mocks.NewMockClock(ctrl)
	clock.EXPECT().Now().Return(now).AnyTimes()
	fs := mocks.NewMockFileSystem(ctrl)
	fs.EXPECT().MkdirAll("out").Return(nil)
	fs.EXPECT().WriteFile(filepath.Join("out", report.JSONFile), gomock.Any()).Return(errors.New("disk full"))

	gen, err := report.NewGenerator(config.ReportConfig{OutputDir: "out"},
		seedLedger(t), fs, adapter.NewJSON(), adapter.NewJCS(), clock)
	require.NoError(t, err)

	_, err = gen.Generate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestGenerate_StorageError(t *testing.T) {
	ctrl := gomock.NewController(t)
	st := mocks.NewMockStore(ctrl)
	st.EXPECT().GetStatistics(gomock.Any()).Return(nil, errors.New("no such table: obligations"))

	gen, err := report.NewGenerator(config.ReportConfig{}, st, mocks.NewMockFileSystem(ctrl),
		adapter.NewJSON(), adapter.NewJCS(), mocks.NewMockClock(ctrl))
	require.NoError(t, err)

	_, err = gen.Generate(context.Background())
	require.Error(t, err)
	assert.True(t, domain.IsStorage(err))
}
