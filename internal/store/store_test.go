package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-burn-mint/internal/domain"
)

// =============================================================================
// Test Data Builders
// =============================================================================

func buildTestObligation(burnID string, recipient string, amount int64, observedAt time.Time) CreateObligationInput {
	return CreateObligationInput{
		BurnID:     burnID,
		Recipient:  recipient,
		BurnAmount: decimal.NewFromInt(amount),
		MintAmount: decimal.NewFromInt(amount),
		ObservedAt: observedAt,
		Status:     domain.ObligationStatusPending,
	}
}

func stringPtr(s string) *string {
	return &s
}

const (
	walletA = "0x1111111111111111111111111111111111111111"
	walletB = "0x2222222222222222222222222222222222222222"
)

var baseTime = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// =============================================================================
// Test: InsertObligation
// =============================================================================

func testInsertObligation(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("inserts once per burn id", func(t *testing.T) {
		input := buildTestObligation("burn-insert-1", walletA, 420_690_000, baseTime)
		input.Memo = stringPtr("hello")

		inserted, err := store.InsertObligation(ctx, input)
		require.NoError(t, err)
		assert.True(t, inserted)

		inserted, err = store.InsertObligation(ctx, input)
		require.NoError(t, err)
		assert.False(t, inserted, "second insert must be a no-op")

		got, err := store.GetObligation(ctx, "burn-insert-1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, domain.ObligationStatusPending, got.Status)
		assert.True(t, decimal.NewFromInt(420_690_000).Equal(got.BurnAmount))
		assert.True(t, decimal.NewFromInt(420_690_000).Equal(got.MintAmount))
		assert.Equal(t, "hello", *got.Memo)
		assert.Equal(t, 0, got.Attempts)
		assert.True(t, baseTime.Equal(got.ObservedAt))

		events, err := store.ListEvents(ctx, "burn-insert-1")
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, domain.ObligationStatusPending, events[0].ToStatus)
	})

	t.Run("preserves fractional precision", func(t *testing.T) {
		input := buildTestObligation("burn-insert-2", walletA, 1, baseTime)
		input.MintAmount = decimal.RequireFromString("123456789012345678901234567890.123456789")

		_, err := store.InsertObligation(ctx, input)
		require.NoError(t, err)

		got, err := store.GetObligation(ctx, "burn-insert-2")
		require.NoError(t, err)
		assert.Equal(t, "123456789012345678901234567890.123456789", got.MintAmount.String())
	})

	t.Run("records validation failures", func(t *testing.T) {
		input := buildTestObligation("burn-insert-3", "bogus", 0, baseTime)
		input.Status = domain.ObligationStatusFailed
		input.FailureKind = domain.FailureKindValidation
		input.LastError = stringPtr("invalid burn amount: burn amount must be positive, got 0")

		inserted, err := store.InsertObligation(ctx, input)
		require.NoError(t, err)
		assert.True(t, inserted)

		got, err := store.GetObligation(ctx, "burn-insert-3")
		require.NoError(t, err)
		assert.Equal(t, domain.ObligationStatusFailed, got.Status)
		assert.Equal(t, domain.FailureKindValidation, got.FailureKind)
		require.NotNil(t, got.LastError)
	})

	t.Run("get missing returns nil", func(t *testing.T) {
		got, err := store.GetObligation(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("existing burn ids", func(t *testing.T) {
		existing, err := store.ExistingBurnIDs(ctx, []string{"burn-insert-1", "burn-insert-3", "nope"})
		require.NoError(t, err)
		assert.Len(t, existing, 2)
		assert.Contains(t, existing, "burn-insert-1")
		assert.NotContains(t, existing, "nope")
	})
}

// =============================================================================
// Test: listing and ordering
// =============================================================================

func testListOrdering(t *testing.T, store Store) {
	ctx := context.Background()

	// inserted out of order on purpose
	for i, offset := range []int{3, 1, 2} {
		input := buildTestObligation(fmt.Sprintf("burn-order-%d", offset), walletA, int64(100+i), baseTime.Add(time.Duration(offset)*time.Hour))
		_, err := store.InsertObligation(ctx, input)
		require.NoError(t, err)
	}
	// same timestamp as burn-order-1, ties broken by burn id
	_, err := store.InsertObligation(ctx, buildTestObligation("burn-order-0", walletB, 7, baseTime.Add(time.Hour)))
	require.NoError(t, err)

	all, err := store.ListObligations(ctx, ObligationFilter{})
	require.NoError(t, err)
	ids := make([]string, 0, len(all))
	for _, o := range all {
		ids = append(ids, o.BurnID)
	}
	assert.Equal(t, []string{"burn-order-0", "burn-order-1", "burn-order-2", "burn-order-3"}, ids)

	actionable, err := store.ListActionable(ctx, ActionableFilter{MaxTotalAttempts: 5, Recipient: walletA})
	require.NoError(t, err)
	require.Len(t, actionable, 3)
	assert.Equal(t, "burn-order-1", actionable[0].BurnID)

	limited, err := store.ListObligations(ctx, ObligationFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "burn-order-1", limited[0].BurnID)
}

// =============================================================================
// Test: claim and transitions
// =============================================================================

func testClaimLifecycle(t *testing.T, store Store) {
	ctx := context.Background()
	_, err := store.InsertObligation(ctx, buildTestObligation("burn-claim-1", walletA, 100, baseTime))
	require.NoError(t, err)

	t.Run("claim moves to submitted", func(t *testing.T) {
		claimed, err := store.ClaimObligation(ctx, "burn-claim-1", "claim-a", 5)
		require.NoError(t, err)
		assert.Equal(t, domain.ObligationStatusSubmitted, claimed.Status)
		require.NotNil(t, claimed.ClaimID)
		assert.Equal(t, "claim-a", *claimed.ClaimID)
		assert.NotNil(t, claimed.SubmittedAt)
	})

	t.Run("second claim conflicts", func(t *testing.T) {
		_, err := store.ClaimObligation(ctx, "burn-claim-1", "claim-b", 5)
		assert.ErrorIs(t, err, domain.ErrClaimConflict)
	})

	t.Run("claim of missing obligation", func(t *testing.T) {
		_, err := store.ClaimObligation(ctx, "missing", "claim-b", 5)
		assert.ErrorIs(t, err, domain.ErrObligationNotFound)
	})

	t.Run("only the holder may transition", func(t *testing.T) {
		_, err := store.IncrementAttempt(ctx, "burn-claim-1", "claim-b")
		assert.ErrorIs(t, err, domain.ErrClaimConflict)

		attempts, err := store.IncrementAttempt(ctx, "burn-claim-1", "claim-a")
		require.NoError(t, err)
		assert.Equal(t, 1, attempts)

		require.NoError(t, store.RecordTxReference(ctx, "burn-claim-1", "claim-a", "0xabc"))
		assert.ErrorIs(t, store.MarkConfirmed(ctx, "burn-claim-1", "claim-b", "0xabc"), domain.ErrClaimConflict)
	})

	t.Run("confirm clears the claim", func(t *testing.T) {
		require.NoError(t, store.MarkConfirmed(ctx, "burn-claim-1", "claim-a", "0xabc"))

		got, err := store.GetObligation(ctx, "burn-claim-1")
		require.NoError(t, err)
		assert.Equal(t, domain.ObligationStatusConfirmed, got.Status)
		assert.Nil(t, got.ClaimID)
		assert.Equal(t, "0xabc", *got.TxReference)
		assert.NotNil(t, got.ConfirmedAt)
		assert.Equal(t, 1, got.Attempts)
	})

	t.Run("confirmed obligations are never claimable again", func(t *testing.T) {
		_, err := store.ClaimObligation(ctx, "burn-claim-1", "claim-c", 100)
		assert.ErrorIs(t, err, domain.ErrClaimConflict)

		actionable, err := store.ListActionable(ctx, ActionableFilter{MaxTotalAttempts: 100})
		require.NoError(t, err)
		assert.Empty(t, actionable)
	})

	t.Run("audit trail records every transition", func(t *testing.T) {
		events, err := store.ListEvents(ctx, "burn-claim-1")
		require.NoError(t, err)
		require.Len(t, events, 5)
		assert.Equal(t, domain.ObligationStatusPending, events[0].ToStatus)
		assert.Equal(t, domain.ObligationStatusPending, events[1].FromStatus)
		assert.Equal(t, domain.ObligationStatusSubmitted, events[1].ToStatus)
		assert.Equal(t, domain.ObligationStatusConfirmed, events[4].ToStatus)
	})
}

func testConcurrentClaims(t *testing.T, store Store) {
	ctx := context.Background()
	_, err := store.InsertObligation(ctx, buildTestObligation("burn-race-1", walletA, 100, baseTime))
	require.NoError(t, err)

	const contenders = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for i := range contenders {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.ClaimObligation(ctx, "burn-race-1", fmt.Sprintf("claim-%d", i), 5)
			if err == nil {
				mu.Lock()
				winners++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, domain.ErrClaimConflict)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
}

func testFailureAndRequeue(t *testing.T, store Store) {
	ctx := context.Background()
	for _, id := range []string{"burn-fail-1", "burn-fail-2", "burn-fail-3"} {
		_, err := store.InsertObligation(ctx, buildTestObligation(id, walletA, 10, baseTime))
		require.NoError(t, err)
	}

	// burn-fail-1: rejected
	_, err := store.ClaimObligation(ctx, "burn-fail-1", "c1", 3)
	require.NoError(t, err)
	require.NoError(t, store.MarkFailed(ctx, "burn-fail-1", "c1", domain.FailureKindRejected, "execution reverted"))

	// burn-fail-2: exhausted with budget left
	_, err = store.ClaimObligation(ctx, "burn-fail-2", "c2", 3)
	require.NoError(t, err)
	_, err = store.IncrementAttempt(ctx, "burn-fail-2", "c2")
	require.NoError(t, err)
	require.NoError(t, store.MarkFailed(ctx, "burn-fail-2", "c2", domain.FailureKindExhausted, "timeout"))

	// burn-fail-3: exhausted with no budget left
	_, err = store.ClaimObligation(ctx, "burn-fail-3", "c3", 3)
	require.NoError(t, err)
	for range 3 {
		_, err = store.IncrementAttempt(ctx, "burn-fail-3", "c3")
		require.NoError(t, err)
	}
	require.NoError(t, store.MarkFailed(ctx, "burn-fail-3", "c3", domain.FailureKindExhausted, "timeout"))

	t.Run("only exhausted failures with budget are actionable", func(t *testing.T) {
		actionable, err := store.ListActionable(ctx, ActionableFilter{MaxTotalAttempts: 3})
		require.NoError(t, err)
		require.Len(t, actionable, 1)
		assert.Equal(t, "burn-fail-2", actionable[0].BurnID)

		_, err = store.ClaimObligation(ctx, "burn-fail-1", "c4", 3)
		assert.ErrorIs(t, err, domain.ErrClaimConflict)
		_, err = store.ClaimObligation(ctx, "burn-fail-3", "c4", 3)
		assert.ErrorIs(t, err, domain.ErrClaimConflict)
	})

	t.Run("requeue rejected", func(t *testing.T) {
		moved, err := store.RequeueFailed(ctx, RequeueFilter{FailureKind: domain.FailureKindRejected})
		require.NoError(t, err)
		assert.Equal(t, int64(1), moved)

		got, err := store.GetObligation(ctx, "burn-fail-1")
		require.NoError(t, err)
		assert.Equal(t, domain.ObligationStatusPending, got.Status)
		assert.Equal(t, domain.FailureKindNone, got.FailureKind)
		require.NotNil(t, got.LastError, "diagnostic is kept for audit")
	})

	t.Run("requeue single burn id", func(t *testing.T) {
		moved, err := store.RequeueFailed(ctx, RequeueFilter{BurnID: "burn-fail-3"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), moved)

		moved, err = store.RequeueFailed(ctx, RequeueFilter{BurnID: "burn-fail-3"})
		require.NoError(t, err)
		assert.Equal(t, int64(0), moved)
	})
}

func testReleaseAndReclaim(t *testing.T, store Store) {
	ctx := context.Background()
	_, err := store.InsertObligation(ctx, buildTestObligation("burn-release-1", walletA, 10, baseTime))
	require.NoError(t, err)

	_, err = store.ClaimObligation(ctx, "burn-release-1", "old", 5)
	require.NoError(t, err)

	inFlight, err := store.ListInFlight(ctx, "")
	require.NoError(t, err)
	require.Len(t, inFlight, 1)

	_, err = store.ReclaimInFlight(ctx, "burn-release-1", stringPtr("other"), "new")
	assert.ErrorIs(t, err, domain.ErrClaimConflict)

	reclaimed, err := store.ReclaimInFlight(ctx, "burn-release-1", stringPtr("old"), "new")
	require.NoError(t, err)
	assert.Equal(t, "new", *reclaimed.ClaimID)

	require.NoError(t, store.RecordAttemptError(ctx, "burn-release-1", "new", "connection reset"))
	require.NoError(t, store.ReleaseClaim(ctx, "burn-release-1", "new", "not found on chain"))

	got, err := store.GetObligation(ctx, "burn-release-1")
	require.NoError(t, err)
	assert.Equal(t, domain.ObligationStatusPending, got.Status)
	assert.Nil(t, got.ClaimID)
	assert.Equal(t, "not found on chain", *got.LastError)
}

func testReviseValidationFailure(t *testing.T, store Store) {
	ctx := context.Background()
	failed := buildTestObligation("burn-revise-1", "bad", 0, baseTime)
	failed.Status = domain.ObligationStatusFailed
	failed.FailureKind = domain.FailureKindValidation
	failed.LastError = stringPtr("invalid")
	_, err := store.InsertObligation(ctx, failed)
	require.NoError(t, err)

	fixed := buildTestObligation("burn-revise-1", walletB, 55, baseTime)
	revised, err := store.ReviseValidationFailure(ctx, fixed)
	require.NoError(t, err)
	assert.True(t, revised)

	got, err := store.GetObligation(ctx, "burn-revise-1")
	require.NoError(t, err)
	assert.Equal(t, domain.ObligationStatusPending, got.Status)
	assert.Equal(t, walletB, got.Recipient)
	assert.True(t, decimal.NewFromInt(55).Equal(got.MintAmount))
	assert.Nil(t, got.LastError)

	// not a validation failure anymore
	revised, err = store.ReviseValidationFailure(ctx, fixed)
	require.NoError(t, err)
	assert.False(t, revised)
}

func testStatistics(t *testing.T, store Store) {
	ctx := context.Background()
	_, err := store.InsertObligation(ctx, buildTestObligation("burn-stats-1", walletA, 100, baseTime))
	require.NoError(t, err)
	_, err = store.InsertObligation(ctx, buildTestObligation("burn-stats-2", walletA, 50, baseTime.Add(time.Hour)))
	require.NoError(t, err)
	_, err = store.InsertObligation(ctx, buildTestObligation("burn-stats-3", walletB, 25, baseTime.Add(2*time.Hour)))
	require.NoError(t, err)

	_, err = store.ClaimObligation(ctx, "burn-stats-1", "c1", 5)
	require.NoError(t, err)
	require.NoError(t, store.MarkConfirmed(ctx, "burn-stats-1", "c1", "0x1"))
	_, err = store.ClaimObligation(ctx, "burn-stats-3", "c3", 5)
	require.NoError(t, err)
	require.NoError(t, store.MarkFailed(ctx, "burn-stats-3", "c3", domain.FailureKindRejected, "nope"))

	stats, err := store.GetStatistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalRecords)
	assert.Equal(t, int64(2), stats.UniqueWallets)
	assert.Equal(t, int64(1), stats.Pending)
	assert.Equal(t, int64(1), stats.Confirmed)
	assert.Equal(t, int64(1), stats.Failed)
	assert.Equal(t, int64(1), stats.FailedByKind[domain.FailureKindRejected])
	assert.True(t, decimal.NewFromInt(175).Equal(stats.TotalBurnedAmount))
	assert.True(t, decimal.NewFromInt(100).Equal(stats.TotalMintedAmount))

	summaries, err := store.GetWalletSummaries(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, walletA, summaries[0].WalletAddress)
	assert.Equal(t, int64(2), summaries[0].BurnCount)
	assert.Equal(t, int64(1), summaries[0].MintCount)
	assert.True(t, decimal.NewFromInt(150).Equal(summaries[0].TotalBurned))
	assert.True(t, decimal.NewFromInt(100).Equal(summaries[0].TotalMinted))
	require.NotNil(t, summaries[0].FirstBurn)
	assert.True(t, baseTime.Equal(*summaries[0].FirstBurn))
	assert.NotNil(t, summaries[0].LastMint)
	assert.Nil(t, summaries[1].LastMint)
}

func testKeyValueStore(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("set and overwrite", func(t *testing.T) {
		require.NoError(t, store.SetKeyValue(ctx, "run:1", "first"))
		require.NoError(t, store.SetKeyValue(ctx, "run:1", "second"))

		value, err := store.GetKeyValue(ctx, "run:1")
		require.NoError(t, err)
		assert.Equal(t, "second", value)
	})

	t.Run("get non-existent key returns empty string", func(t *testing.T) {
		value, err := store.GetKeyValue(ctx, "nonexistent:key")
		require.NoError(t, err)
		assert.Equal(t, "", value)
	})

	t.Run("prefix scan", func(t *testing.T) {
		require.NoError(t, store.SetKeyValue(ctx, "run:2", "x"))
		require.NoError(t, store.SetKeyValue(ctx, "last_run", "run:2"))

		values, err := store.GetAllKeyValuesByPrefix(ctx, "run:")
		require.NoError(t, err)
		assert.Len(t, values, 2)
		assert.Equal(t, "x", values["run:2"])
	})
}

// RunStoreTests runs every ledger test against a fresh store from initDB
func RunStoreTests(t *testing.T, initDB func(t *testing.T) Store) {
	tests := []struct {
		name string
		fn   func(*testing.T, Store)
	}{
		{"InsertObligation", testInsertObligation},
		{"ListOrdering", testListOrdering},
		{"ClaimLifecycle", testClaimLifecycle},
		{"ConcurrentClaims", testConcurrentClaims},
		{"FailureAndRequeue", testFailureAndRequeue},
		{"ReleaseAndReclaim", testReleaseAndReclaim},
		{"ReviseValidationFailure", testReviseValidationFailure},
		{"Statistics", testStatistics},
		{"KeyValueStore", testKeyValueStore},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, initDB(t))
		})
	}
}
