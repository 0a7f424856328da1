package burnstore

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-burn-mint/internal/config"
	"github.com/feral-file/ff-burn-mint/internal/domain"
)

const burnsDDL = `CREATE TABLE burns (
	signature TEXT PRIMARY KEY,
	burner TEXT,
	amount,
	memo TEXT,
	token TEXT,
	timestamp,
	memo_checked CHAR(1),
	created_at
)`

type burnRow struct {
	signature string
	burner    string
	amount    any
	memo      any
	timestamp any
	createdAt any
}

func createBurnStore(t *testing.T, rows []burnRow) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "burns.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(burnsDDL)
	require.NoError(t, err)

	for _, r := range rows {
		_, err := db.Exec(
			`INSERT INTO burns (signature, burner, amount, memo, token, timestamp, memo_checked, created_at)
			 VALUES (?, ?, ?, ?, NULL, ?, 'Y', ?)`,
			r.signature, r.burner, r.amount, r.memo, r.timestamp, r.createdAt)
		require.NoError(t, err)
	}

	return path
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open(config.BurnStoreConfig{Path: filepath.Join(t.TempDir(), "nope.db")})
	assert.ErrorIs(t, err, domain.ErrSourceNotFound)
}

func TestOpen_InvalidTable(t *testing.T) {
	path := createBurnStore(t, nil)
	_, err := Open(config.BurnStoreConfig{Path: path, Table: "burns; DROP TABLE burns"})
	assert.Error(t, err)
}

func TestReadAll(t *testing.T) {
	path := createBurnStore(t, []burnRow{
		{signature: "sig-c", burner: "wallet-1", amount: "420690000", memo: "gm", timestamp: "2025-01-03T00:00:00Z", createdAt: "2025-01-03 00:00:00"},
		{signature: "sig-a", burner: "wallet-1", amount: int64(500000000), timestamp: int64(1735689600), createdAt: nil},
		{signature: "sig-b", burner: "wallet-2", amount: 1.5, timestamp: nil, createdAt: "2025-01-02 00:00:00"},
		{signature: "sig-d", burner: "wallet-3", amount: "lots", timestamp: "2025-01-04T00:00:00", createdAt: nil},
		{signature: "", burner: "wallet-4", amount: "1", timestamp: "2025-01-05T00:00:00", createdAt: nil},
	})

	reader, err := Open(config.BurnStoreConfig{Path: path, Table: "burns"})
	require.NoError(t, err)
	defer reader.Close()

	records, err := reader.ReadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 4, "row without signature is skipped")

	assert.Equal(t, "sig-a", records[0].BurnID)
	assert.True(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).Equal(records[0].ObservedAt))
	assert.True(t, decimal.NewFromInt(500000000).Equal(records[0].BurnAmount))
	assert.Empty(t, records[0].DecodeError)

	assert.Equal(t, "sig-b", records[1].BurnID, "falls back to created_at")
	assert.True(t, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC).Equal(records[1].ObservedAt))
	assert.Equal(t, "1.5", records[1].BurnAmount.String())

	assert.Equal(t, "sig-c", records[2].BurnID)
	require.NotNil(t, records[2].Memo)
	assert.Equal(t, "gm", *records[2].Memo)
	assert.Nil(t, records[2].Token)

	assert.Equal(t, "sig-d", records[3].BurnID)
	assert.Contains(t, records[3].DecodeError, "invalid burn amount")
}

func TestReadByBurner(t *testing.T) {
	path := createBurnStore(t, []burnRow{
		{signature: "sig-1", burner: "wallet-1", amount: "1", timestamp: "2025-01-01 00:00:00"},
		{signature: "sig-2", burner: "wallet-1", amount: "2", timestamp: "2025-01-03 00:00:00"},
		{signature: "sig-3", burner: "wallet-1", amount: "3", timestamp: "2025-01-02 00:00:00"},
		{signature: "sig-4", burner: "wallet-2", amount: "4", timestamp: "2025-01-09 00:00:00"},
	})

	reader, err := Open(config.BurnStoreConfig{Path: path})
	require.NoError(t, err)
	defer reader.Close()

	records, err := reader.ReadByBurner(context.Background(), "wallet-1")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"sig-2", "sig-3", "sig-1"}, []string{records[0].BurnID, records[1].BurnID, records[2].BurnID})

	records, err = reader.ReadByBurner(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		want    string
		wantErr bool
	}{
		{"integer", int64(420000000), "420000000", false},
		{"text", "420690000", "420690000", false},
		{"text with spaces", " 12.5 ", "12.5", false},
		{"bytes", []byte("7"), "7", false},
		{"real", 2.25, "2.25", false},
		{"negative text", "-1", "-1", false},
		{"null", nil, "", true},
		{"garbage", "abc", "", true},
		{"unsupported", true, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)

	tests := []struct {
		name    string
		input   any
		wantErr bool
	}{
		{"unix seconds", want.Unix(), false},
		{"unix seconds text", "1741064767", false},
		{"rfc3339", "2025-03-04T05:06:07Z", false},
		{"rfc3339 offset", "2025-03-04T07:06:07+02:00", false},
		{"space separated", "2025-03-04 05:06:07", false},
		{"naive T separated", "2025-03-04T05:06:07", false},
		{"time value", want.In(time.FixedZone("x", 3600)), false},
		{"null", nil, true},
		{"empty", "", true},
		{"garbage", "yesterday", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, want.Equal(got), "got %s", got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}
