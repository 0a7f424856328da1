package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/feral-file/ff-burn-mint/internal/domain"
	"github.com/feral-file/ff-burn-mint/internal/store/schema"
)

// Store defines the interface for ledger operations.
// Every mutation touches a single obligation row (plus its append-only audit event).
//
//go:generate mockgen -source=store.go -destination=../mocks/store.go -package=mocks -mock_names=Store=MockStore
type Store interface {
	// InsertObligation inserts a new obligation unless one already exists for the burn ID.
	// It reports whether a row was inserted.
	InsertObligation(ctx context.Context, input CreateObligationInput) (bool, error)
	// GetObligation retrieves an obligation by burn ID, nil if absent
	GetObligation(ctx context.Context, burnID string) (*schema.Obligation, error)
	// ExistingBurnIDs returns the subset of burnIDs already present in the ledger
	ExistingBurnIDs(ctx context.Context, burnIDs []string) (map[string]struct{}, error)
	// ListObligations lists obligations matching filter, oldest burn first
	ListObligations(ctx context.Context, filter ObligationFilter) ([]schema.Obligation, error)
	// ListActionable lists pending obligations and exhausted failures with budget left, oldest burn first
	ListActionable(ctx context.Context, filter ActionableFilter) ([]schema.Obligation, error)
	// ListInFlight lists obligations left submitted, oldest burn first
	ListInFlight(ctx context.Context, recipient string) ([]schema.Obligation, error)
	// ListEvents lists the audit trail of one obligation in order
	ListEvents(ctx context.Context, burnID string) ([]schema.ObligationEvent, error)

	// ClaimObligation atomically moves an actionable obligation to submitted under claimID.
	// It returns domain.ErrClaimConflict when the row is no longer actionable.
	ClaimObligation(ctx context.Context, burnID string, claimID string, maxTotalAttempts int) (*schema.Obligation, error)
	// ReclaimInFlight transfers a submitted obligation from its previous claim to claimID
	ReclaimInFlight(ctx context.Context, burnID string, previousClaimID *string, claimID string) (*schema.Obligation, error)
	// IncrementAttempt records the start of one submission attempt and returns the new total
	IncrementAttempt(ctx context.Context, burnID string, claimID string) (int, error)
	// RecordTxReference stores the chain reference of an accepted submission
	RecordTxReference(ctx context.Context, burnID string, claimID string, txRef string) error
	// RecordAttemptError stores a diagnostic without changing status
	RecordAttemptError(ctx context.Context, burnID string, claimID string, message string) error
	// MarkConfirmed moves a claimed obligation to confirmed
	MarkConfirmed(ctx context.Context, burnID string, claimID string, txRef string) error
	// MarkFailed moves a claimed obligation to failed
	MarkFailed(ctx context.Context, burnID string, claimID string, kind domain.FailureKind, message string) error
	// ReleaseClaim returns a claimed obligation to pending
	ReleaseClaim(ctx context.Context, burnID string, claimID string, message string) error

	// RequeueFailed moves failed obligations matching filter back to pending and returns how many moved
	RequeueFailed(ctx context.Context, filter RequeueFilter) (int64, error)
	// ReviseValidationFailure replaces a validation failure with a corrected pending obligation
	ReviseValidationFailure(ctx context.Context, input CreateObligationInput) (bool, error)

	// GetStatistics computes ledger totals
	GetStatistics(ctx context.Context) (*Statistics, error)
	// GetWalletSummaries computes per-recipient totals, largest burn total first
	GetWalletSummaries(ctx context.Context) ([]WalletSummary, error)

	// SetKeyValue sets a key-value pair in the key-value store
	SetKeyValue(ctx context.Context, key string, value string) error
	// GetKeyValue retrieves a value by key, empty if absent
	GetKeyValue(ctx context.Context, key string) (string, error)
	// GetAllKeyValuesByPrefix retrieves all key-value pairs with a specific prefix
	GetAllKeyValuesByPrefix(ctx context.Context, prefix string) (map[string]string, error)
}

// CreateObligationInput represents the data needed to create an obligation
type CreateObligationInput struct {
	BurnID      string
	Recipient   string
	BurnAmount  decimal.Decimal
	MintAmount  decimal.Decimal
	ObservedAt  time.Time
	Memo        *string
	Token       *string
	Status      domain.ObligationStatus // pending, or failed for validation failures
	FailureKind domain.FailureKind
	LastError   *string
}

// ObligationFilter represents filtering options for listing obligations
type ObligationFilter struct {
	Statuses    []domain.ObligationStatus
	FailureKind domain.FailureKind
	Recipient   string
	BurnIDs     []string
	Limit       int
	Offset      int
}

// ActionableFilter selects obligations the executor may claim
type ActionableFilter struct {
	MaxTotalAttempts int
	Recipient        string
	Limit            int
}

// RequeueFilter selects failed obligations to re-drive
type RequeueFilter struct {
	FailureKind domain.FailureKind // empty means rejected and exhausted
	BurnID      string
}

// Statistics represents ledger-wide totals
type Statistics struct {
	TotalRecords      int64                        `json:"total_records"`
	TotalBurnedAmount decimal.Decimal              `json:"total_burned_amount"`
	TotalMintedAmount decimal.Decimal              `json:"total_minted_amount"` // confirmed only
	UniqueWallets     int64                        `json:"unique_wallets"`
	Pending           int64                        `json:"pending"`
	Submitted         int64                        `json:"submitted"`
	Confirmed         int64                        `json:"confirmed"`
	Failed            int64                        `json:"failed"`
	FailedByKind      map[domain.FailureKind]int64 `json:"failed_by_kind"`
}

// WalletSummary represents per-recipient totals
type WalletSummary struct {
	WalletAddress string          `json:"wallet_address"`
	TotalBurned   decimal.Decimal `json:"total_burned"`
	TotalMinted   decimal.Decimal `json:"total_minted"`
	BurnCount     int64           `json:"burn_count"`
	MintCount     int64           `json:"mint_count"`
	FirstBurn     *time.Time      `json:"first_burn"`
	LastMint      *time.Time      `json:"last_mint"`
}
