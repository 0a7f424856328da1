package pipeline_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-burn-mint/internal/adapter"
	"github.com/feral-file/ff-burn-mint/internal/chain"
	"github.com/feral-file/ff-burn-mint/internal/config"
	"github.com/feral-file/ff-burn-mint/internal/domain"
	"github.com/feral-file/ff-burn-mint/internal/minter"
	"github.com/feral-file/ff-burn-mint/internal/mocks"
	"github.com/feral-file/ff-burn-mint/internal/pipeline"
	"github.com/feral-file/ff-burn-mint/internal/reconciler"
	"github.com/feral-file/ff-burn-mint/internal/store"
)

const (
	walletA = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	walletB = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

var t0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func burns() []domain.BurnRecord {
	return []domain.BurnRecord{
		{BurnID: "B1", DepositorAddress: walletA, BurnAmount: decimal.NewFromInt(100), ObservedAt: t0},
		{BurnID: "B2", DepositorAddress: walletB, BurnAmount: decimal.NewFromInt(50), ObservedAt: t0.Add(time.Hour)},
	}
}

func executorConfig() config.ExecutorConfig {
	return config.ExecutorConfig{
		Concurrency:         1,
		QueueSize:           8,
		MaxAttempts:         3,
		MaxTotalAttempts:    6,
		BackoffInitial:      time.Millisecond,
		BackoffMax:          2 * time.Millisecond,
		BackoffMultiplier:   2,
		ConfirmTimeout:      50 * time.Millisecond,
		ConfirmPollInterval: 5 * time.Millisecond,
	}
}

type testPipeline struct {
	reader *mocks.MockBurnReader
	store  store.Store
	orch   pipeline.Orchestrator
}

func setupPipeline(t *testing.T, client chain.Client) *testPipeline {
	ctrl := gomock.NewController(t)

	db, err := store.Open(config.LedgerConfig{
		Driver: config.LedgerDriverSQLite,
		Path:   filepath.Join(t.TempDir(), "ledger.db"),
	}, false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(db) })

	clock := adapter.NewClock()
	if client == nil {
		client = chain.NewSimulateClient(clock)
	}

	tp := &testPipeline{
		reader: mocks.NewMockBurnReader(ctrl),
		store:  store.NewGormStore(db),
	}
	tp.orch = pipeline.New(pipeline.Deps{
		Store: tp.store,
		Reconciler: reconciler.New(tp.reader, tp.store, reconciler.Options{
			AddressFormat:    domain.AddressFormatEVM,
			MaxTotalAttempts: 6,
		}),
		Executor: minter.NewExecutor(executorConfig(), tp.store, client, clock, nil),
		Clock:    clock,
		JSON:     adapter.NewJSON(),
	})
	return tp
}

func TestRun_SettlesEveryBurn(t *testing.T) {
	tp := setupPipeline(t, nil)
	tp.reader.EXPECT().ReadAll(gomock.Any()).Return(burns(), nil).Times(2)
	ctx := context.Background()

	summary, err := tp.orch.Run(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, pipeline.ExitOK, summary.ExitCode)
	assert.Equal(t, 2, summary.Migration.Inserted)
	assert.Equal(t, 2, summary.Mint.Confirmed)
	assert.Equal(t, int64(2), summary.Confirmed)

	o, err := tp.store.GetObligation(ctx, "B1")
	require.NoError(t, err)
	require.NotNil(t, o.TxReference)
	assert.Equal(t, chain.SimulatedReference("B1"), *o.TxReference)

	// nothing left to do on a re-run
	again, err := tp.orch.Run(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 0, again.Migration.Inserted)
	assert.Equal(t, 0, again.Mint.Dispatched)
	assert.Equal(t, pipeline.ExitOK, again.ExitCode)

	last, err := tp.orch.LastRun(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, again.RunID, last.RunID)
	assert.Equal(t, pipeline.ModeRun, last.Mode)
}

func TestRun_RejectionExitsNonZero(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockChainClient(ctrl)
	client.EXPECT().SubmitMint(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req chain.MintRequest) (string, error) {
			if req.BurnID == "B2" {
				return "", domain.NewRejectedError("recipient blocked", errors.New("execution reverted"))
			}
			return "0xb1", nil
		}).Times(2)
	client.EXPECT().QueryConfirmation(gomock.Any(), "B1", gomock.Any()).
		Return(&chain.Confirmation{Status: chain.ConfirmationConfirmed, TxReference: "0xb1"}, nil)

	tp := setupPipeline(t, client)
	tp.reader.EXPECT().ReadAll(gomock.Any()).Return(burns(), nil)
	ctx := context.Background()

	summary, err := tp.orch.Run(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, pipeline.ExitFailed, summary.ExitCode)
	assert.Equal(t, int64(1), summary.Confirmed)
	assert.Equal(t, int64(1), summary.Failed)

	o, err := tp.store.GetObligation(ctx, "B2")
	require.NoError(t, err)
	assert.Equal(t, domain.ObligationStatusFailed, o.Status)
	require.NotNil(t, o.LastError)
	assert.Contains(t, *o.LastError, "recipient blocked")
}

func TestMigrateThenMint(t *testing.T) {
	tp := setupPipeline(t, nil)
	tp.reader.EXPECT().ReadAll(gomock.Any()).Return(burns(), nil)
	ctx := context.Background()

	migrated, err := tp.orch.Migrate(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, migrated.Mint)
	assert.Equal(t, int64(2), migrated.Pending)
	require.NotNil(t, migrated.Actionable)
	assert.Equal(t, 2, *migrated.Actionable)

	minted, err := tp.orch.Mint(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, minted.Migration)
	assert.Equal(t, int64(2), minted.Confirmed)
	assert.Equal(t, int64(0), minted.Pending)
}

func TestMigrate_RepeatWritesNothing(t *testing.T) {
	tp := setupPipeline(t, nil)
	tp.reader.EXPECT().ReadAll(gomock.Any()).Return(burns(), nil).Times(2)
	ctx := context.Background()

	first, err := tp.orch.Migrate(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 2, first.Migration.Inserted)

	before, err := tp.store.GetAllKeyValuesByPrefix(ctx, "")
	require.NoError(t, err)

	second, err := tp.orch.Migrate(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 0, second.Migration.Inserted)
	assert.Equal(t, 2, second.Migration.AlreadyPresent)

	after, err := tp.store.GetAllKeyValuesByPrefix(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, before, after)

	last, err := tp.orch.LastRun(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, first.RunID, last.RunID)
}

func TestRun_BurnerScope(t *testing.T) {
	tp := setupPipeline(t, nil)
	tp.reader.EXPECT().ReadByBurner(gomock.Any(), walletB).Return(burns()[1:], nil)
	ctx := context.Background()

	summary, err := tp.orch.Run(ctx, walletB)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Migration.Inserted)
	assert.Equal(t, int64(1), summary.Confirmed)

	o, err := tp.store.GetObligation(ctx, "B1")
	require.NoError(t, err)
	assert.Nil(t, o)
}

func TestRequeue_Validation(t *testing.T) {
	tp := setupPipeline(t, nil)
	ctx := context.Background()

	bad := burns()
	bad[1].DepositorAddress = "not-an-address"
	tp.reader.EXPECT().ReadAll(gomock.Any()).Return(bad, nil)

	migrated, err := tp.orch.Migrate(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 1, migrated.Migration.ValidationFailed)
	assert.Equal(t, pipeline.ExitFailed, migrated.ExitCode)

	// still invalid: nothing moves
	tp.reader.EXPECT().ReadAll(gomock.Any()).Return(bad, nil)
	requeued, err := tp.orch.Requeue(ctx, pipeline.RequeueOptions{FailureKind: domain.FailureKindValidation})
	require.NoError(t, err)
	require.NotNil(t, requeued.Revalidated)
	assert.Equal(t, 0, *requeued.Revalidated)
	assert.Nil(t, requeued.Requeued)

	// source corrected
	tp.reader.EXPECT().ReadAll(gomock.Any()).Return(burns(), nil)
	requeued, err = tp.orch.Requeue(ctx, pipeline.RequeueOptions{FailureKind: domain.FailureKindValidation})
	require.NoError(t, err)
	assert.Equal(t, 1, *requeued.Revalidated)

	o, err := tp.store.GetObligation(ctx, "B2")
	require.NoError(t, err)
	assert.Equal(t, domain.ObligationStatusPending, o.Status)
	assert.Equal(t, walletB, o.Recipient)
}

func TestMint_StorageErrorAborts(t *testing.T) {
	ctrl := gomock.NewController(t)
	st := mocks.NewMockStore(ctrl)
	clock := adapter.NewClock()

	st.EXPECT().ListInFlight(gomock.Any(), "").Return(nil, errors.New("disk I/O error"))
	st.EXPECT().SetKeyValue(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(2)

	orch := pipeline.New(pipeline.Deps{
		Store:    st,
		Executor: minter.NewExecutor(executorConfig(), st, mocks.NewMockChainClient(ctrl), clock, nil),
		Clock:    clock,
		JSON:     adapter.NewJSON(),
	})

	summary, err := orch.Mint(context.Background(), "")
	require.Error(t, err)
	assert.True(t, domain.IsStorage(err))
	assert.Equal(t, pipeline.ExitAborted, summary.ExitCode)
	assert.Contains(t, summary.Error, "disk I/O error")
}

func TestLastRun_Empty(t *testing.T) {
	tp := setupPipeline(t, nil)
	last, err := tp.orch.LastRun(context.Background())
	require.NoError(t, err)
	assert.Nil(t, last)
}
