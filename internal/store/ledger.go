package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/feral-file/ff-burn-mint/internal/domain"
	"github.com/feral-file/ff-burn-mint/internal/store/schema"
)

const (
	maxErrorLength  = 1024
	statsBatchSize  = 1000
	inClauseMaxSize = 500
)

type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a ledger store over an open gorm connection (SQLite or PostgreSQL)
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// truncateError limits diagnostics stored in the ledger
func truncateError(msg string) string {
	if len(msg) > maxErrorLength {
		return msg[:maxErrorLength]
	}
	return msg
}

func optionalError(msg string) *string {
	if msg == "" {
		return nil
	}
	msg = truncateError(msg)
	return &msg
}

func marshalDetails(details map[string]any) datatypes.JSON {
	if len(details) == 0 {
		return nil
	}
	data, err := json.Marshal(details)
	if err != nil {
		return nil
	}
	return datatypes.JSON(data)
}

// appendEvent writes one audit row inside the caller's transaction
func appendEvent(tx *gorm.DB, event schema.ObligationEvent) error {
	if err := tx.Create(&event).Error; err != nil {
		return fmt.Errorf("failed to append obligation event: %w", err)
	}
	return nil
}

// InsertObligation inserts a new obligation unless one already exists for the burn ID
func (s *gormStore) InsertObligation(ctx context.Context, input CreateObligationInput) (bool, error) {
	status := input.Status
	if status == "" {
		status = domain.ObligationStatusPending
	}

	obligation := schema.Obligation{
		BurnID:      input.BurnID,
		Recipient:   input.Recipient,
		BurnAmount:  input.BurnAmount,
		MintAmount:  input.MintAmount,
		ObservedAt:  input.ObservedAt.UTC(),
		Memo:        input.Memo,
		Token:       input.Token,
		Status:      status,
		FailureKind: input.FailureKind,
		LastError:   input.LastError,
	}
	if obligation.LastError != nil {
		obligation.LastError = optionalError(*obligation.LastError)
	}

	inserted := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "burn_id"}},
			DoNothing: true,
		}).Create(&obligation)
		if result.Error != nil {
			return fmt.Errorf("failed to insert obligation: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil
		}
		inserted = true

		return appendEvent(tx, schema.ObligationEvent{
			BurnID:   obligation.BurnID,
			ToStatus: obligation.Status,
			Error:    obligation.LastError,
			Details: marshalDetails(map[string]any{
				"mint_amount":  obligation.MintAmount.String(),
				"failure_kind": obligation.FailureKind,
			}),
		})
	})
	if err != nil {
		return false, err
	}

	return inserted, nil
}

// GetObligation retrieves an obligation by burn ID
func (s *gormStore) GetObligation(ctx context.Context, burnID string) (*schema.Obligation, error) {
	var obligation schema.Obligation
	err := s.db.WithContext(ctx).Where("burn_id = ?", burnID).First(&obligation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get obligation: %w", err)
	}

	return &obligation, nil
}

// ExistingBurnIDs returns the subset of burnIDs already present in the ledger
func (s *gormStore) ExistingBurnIDs(ctx context.Context, burnIDs []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{}, len(burnIDs))

	for start := 0; start < len(burnIDs); start += inClauseMaxSize {
		end := min(start+inClauseMaxSize, len(burnIDs))

		var found []string
		err := s.db.WithContext(ctx).
			Model(&schema.Obligation{}).
			Where("burn_id IN ?", burnIDs[start:end]).
			Pluck("burn_id", &found).Error
		if err != nil {
			return nil, fmt.Errorf("failed to look up existing burn ids: %w", err)
		}
		for _, id := range found {
			existing[id] = struct{}{}
		}
	}

	return existing, nil
}

func orderBySettlement(q *gorm.DB) *gorm.DB {
	return q.Order("observed_at ASC").Order("burn_id ASC")
}

// ListObligations lists obligations matching filter, oldest burn first
func (s *gormStore) ListObligations(ctx context.Context, filter ObligationFilter) ([]schema.Obligation, error) {
	q := s.db.WithContext(ctx).Model(&schema.Obligation{})

	if len(filter.Statuses) > 0 {
		q = q.Where("status IN ?", filter.Statuses)
	}
	if filter.FailureKind != domain.FailureKindNone {
		q = q.Where("failure_kind = ?", filter.FailureKind)
	}
	if filter.Recipient != "" {
		q = q.Where("recipient = ?", filter.Recipient)
	}
	if len(filter.BurnIDs) > 0 {
		q = q.Where("burn_id IN ?", filter.BurnIDs)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	var obligations []schema.Obligation
	if err := orderBySettlement(q).Find(&obligations).Error; err != nil {
		return nil, fmt.Errorf("failed to list obligations: %w", err)
	}

	return obligations, nil
}

// actionableCondition matches rows the executor may claim
const actionableCondition = "(status = ? OR (status = ? AND failure_kind = ? AND attempts < ?))"

func actionableArgs(maxTotalAttempts int) []any {
	return []any{
		domain.ObligationStatusPending,
		domain.ObligationStatusFailed,
		domain.FailureKindExhausted,
		maxTotalAttempts,
	}
}

// ListActionable lists obligations the executor may claim, oldest burn first
func (s *gormStore) ListActionable(ctx context.Context, filter ActionableFilter) ([]schema.Obligation, error) {
	q := s.db.WithContext(ctx).
		Model(&schema.Obligation{}).
		Where(actionableCondition, actionableArgs(filter.MaxTotalAttempts)...)

	if filter.Recipient != "" {
		q = q.Where("recipient = ?", filter.Recipient)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var obligations []schema.Obligation
	if err := orderBySettlement(q).Find(&obligations).Error; err != nil {
		return nil, fmt.Errorf("failed to list actionable obligations: %w", err)
	}

	return obligations, nil
}

// ListInFlight lists obligations left submitted, oldest burn first
func (s *gormStore) ListInFlight(ctx context.Context, recipient string) ([]schema.Obligation, error) {
	filter := ObligationFilter{
		Statuses:  []domain.ObligationStatus{domain.ObligationStatusSubmitted},
		Recipient: recipient,
	}
	obligations, err := s.ListObligations(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list in-flight obligations: %w", err)
	}
	return obligations, nil
}

// ListEvents lists the audit trail of one obligation in order
func (s *gormStore) ListEvents(ctx context.Context, burnID string) ([]schema.ObligationEvent, error) {
	var events []schema.ObligationEvent
	err := s.db.WithContext(ctx).
		Where("burn_id = ?", burnID).
		Order("id ASC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list obligation events: %w", err)
	}
	return events, nil
}

// transition applies updates to a single obligation row when guard still matches,
// then records the audit event. It returns domain.ErrClaimConflict when guard no longer matches.
func (s *gormStore) transition(
	ctx context.Context,
	burnID string,
	guard func(q *gorm.DB) *gorm.DB,
	updates map[string]any,
	details map[string]any,
) (*schema.Obligation, error) {
	var updated schema.Obligation

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current schema.Obligation
		if err := tx.Where("burn_id = ?", burnID).First(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrObligationNotFound
			}
			return fmt.Errorf("failed to load obligation: %w", err)
		}

		result := guard(tx.Model(&schema.Obligation{}).Where("burn_id = ?", burnID)).Updates(updates)
		if result.Error != nil {
			return fmt.Errorf("failed to update obligation: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return domain.ErrClaimConflict
		}

		if err := tx.Where("burn_id = ?", burnID).First(&updated).Error; err != nil {
			return fmt.Errorf("failed to reload obligation: %w", err)
		}

		return appendEvent(tx, schema.ObligationEvent{
			BurnID:      burnID,
			FromStatus:  current.Status,
			ToStatus:    updated.Status,
			Attempt:     updated.Attempts,
			TxReference: updated.TxReference,
			Error:       updated.LastError,
			Details:     marshalDetails(details),
		})
	})
	if err != nil {
		return nil, err
	}

	return &updated, nil
}

// heldBy restricts an update to a submitted row owned by claimID
func heldBy(claimID string) func(q *gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		return q.Where("status = ? AND claim_id = ?", domain.ObligationStatusSubmitted, claimID)
	}
}

// ClaimObligation atomically moves an actionable obligation to submitted under claimID
func (s *gormStore) ClaimObligation(ctx context.Context, burnID string, claimID string, maxTotalAttempts int) (*schema.Obligation, error) {
	now := time.Now().UTC()
	return s.transition(ctx, burnID,
		func(q *gorm.DB) *gorm.DB {
			return q.Where(actionableCondition, actionableArgs(maxTotalAttempts)...)
		},
		map[string]any{
			"status":       domain.ObligationStatusSubmitted,
			"failure_kind": domain.FailureKindNone,
			"claim_id":     claimID,
			"submitted_at": now,
		},
		map[string]any{"claim_id": claimID},
	)
}

// ReclaimInFlight transfers a submitted obligation from its previous claim to claimID
func (s *gormStore) ReclaimInFlight(ctx context.Context, burnID string, previousClaimID *string, claimID string) (*schema.Obligation, error) {
	return s.transition(ctx, burnID,
		func(q *gorm.DB) *gorm.DB {
			q = q.Where("status = ?", domain.ObligationStatusSubmitted)
			if previousClaimID == nil {
				return q.Where("claim_id IS NULL")
			}
			return q.Where("claim_id = ?", *previousClaimID)
		},
		map[string]any{"claim_id": claimID},
		map[string]any{"claim_id": claimID, "previous_claim_id": previousClaimID, "recovered": true},
	)
}

// IncrementAttempt records the start of one submission attempt and returns the new total
func (s *gormStore) IncrementAttempt(ctx context.Context, burnID string, claimID string) (int, error) {
	updated, err := s.transition(ctx, burnID, heldBy(claimID),
		map[string]any{"attempts": gorm.Expr("attempts + 1")},
		map[string]any{"claim_id": claimID, "attempt_started": true},
	)
	if err != nil {
		return 0, err
	}
	return updated.Attempts, nil
}

// RecordTxReference stores the chain reference of an accepted submission
func (s *gormStore) RecordTxReference(ctx context.Context, burnID string, claimID string, txRef string) error {
	_, err := s.transition(ctx, burnID, heldBy(claimID),
		map[string]any{"tx_reference": txRef},
		map[string]any{"claim_id": claimID},
	)
	return err
}

// RecordAttemptError stores a diagnostic without changing status
func (s *gormStore) RecordAttemptError(ctx context.Context, burnID string, claimID string, message string) error {
	_, err := s.transition(ctx, burnID, heldBy(claimID),
		map[string]any{"last_error": optionalError(message)},
		map[string]any{"claim_id": claimID},
	)
	return err
}

// MarkConfirmed moves a claimed obligation to confirmed
func (s *gormStore) MarkConfirmed(ctx context.Context, burnID string, claimID string, txRef string) error {
	now := time.Now().UTC()
	_, err := s.transition(ctx, burnID, heldBy(claimID),
		map[string]any{
			"status":       domain.ObligationStatusConfirmed,
			"failure_kind": domain.FailureKindNone,
			"tx_reference": txRef,
			"claim_id":     nil,
			"last_error":   nil,
			"confirmed_at": now,
		},
		map[string]any{"claim_id": claimID},
	)
	return err
}

// MarkFailed moves a claimed obligation to failed
func (s *gormStore) MarkFailed(ctx context.Context, burnID string, claimID string, kind domain.FailureKind, message string) error {
	_, err := s.transition(ctx, burnID, heldBy(claimID),
		map[string]any{
			"status":       domain.ObligationStatusFailed,
			"failure_kind": kind,
			"claim_id":     nil,
			"last_error":   optionalError(message),
		},
		map[string]any{"claim_id": claimID, "failure_kind": kind},
	)
	return err
}

// ReleaseClaim returns a claimed obligation to pending
func (s *gormStore) ReleaseClaim(ctx context.Context, burnID string, claimID string, message string) error {
	updates := map[string]any{
		"status":   domain.ObligationStatusPending,
		"claim_id": nil,
	}
	if message != "" {
		updates["last_error"] = optionalError(message)
	}

	_, err := s.transition(ctx, burnID, heldBy(claimID), updates,
		map[string]any{"claim_id": claimID, "released": true},
	)
	return err
}

// RequeueFailed moves failed obligations back to pending one row at a time
func (s *gormStore) RequeueFailed(ctx context.Context, filter RequeueFilter) (int64, error) {
	kinds := []domain.FailureKind{domain.FailureKindRejected, domain.FailureKindExhausted}
	if filter.FailureKind != domain.FailureKindNone {
		kinds = []domain.FailureKind{filter.FailureKind}
	}

	q := s.db.WithContext(ctx).
		Model(&schema.Obligation{}).
		Where("status = ? AND failure_kind IN ?", domain.ObligationStatusFailed, kinds)
	if filter.BurnID != "" {
		q = q.Where("burn_id = ?", filter.BurnID)
	}

	var burnIDs []string
	if err := orderBySettlement(q).Pluck("burn_id", &burnIDs).Error; err != nil {
		return 0, fmt.Errorf("failed to list failed obligations: %w", err)
	}

	var moved int64
	for _, burnID := range burnIDs {
		_, err := s.transition(ctx, burnID,
			func(q *gorm.DB) *gorm.DB {
				return q.Where("status = ? AND failure_kind IN ?", domain.ObligationStatusFailed, kinds)
			},
			map[string]any{
				"status":       domain.ObligationStatusPending,
				"failure_kind": domain.FailureKindNone,
				"claim_id":     nil,
			},
			map[string]any{"requeued": true},
		)
		if errors.Is(err, domain.ErrClaimConflict) {
			continue
		}
		if err != nil {
			return moved, err
		}
		moved++
	}

	return moved, nil
}

// ReviseValidationFailure replaces a validation failure with a corrected pending obligation
func (s *gormStore) ReviseValidationFailure(ctx context.Context, input CreateObligationInput) (bool, error) {
	_, err := s.transition(ctx, input.BurnID,
		func(q *gorm.DB) *gorm.DB {
			return q.Where("status = ? AND failure_kind = ?", domain.ObligationStatusFailed, domain.FailureKindValidation)
		},
		map[string]any{
			"recipient":    input.Recipient,
			"burn_amount":  input.BurnAmount,
			"mint_amount":  input.MintAmount,
			"observed_at":  input.ObservedAt.UTC(),
			"memo":         input.Memo,
			"token":        input.Token,
			"status":       domain.ObligationStatusPending,
			"failure_kind": domain.FailureKindNone,
			"last_error":   nil,
		},
		map[string]any{"revalidated": true, "mint_amount": input.MintAmount.String()},
	)
	if errors.Is(err, domain.ErrClaimConflict) || errors.Is(err, domain.ErrObligationNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetStatistics computes ledger totals. Amounts are summed with decimal arithmetic in process
// because they are stored as strings.
func (s *gormStore) GetStatistics(ctx context.Context) (*Statistics, error) {
	stats := &Statistics{
		TotalBurnedAmount: decimal.Zero,
		TotalMintedAmount: decimal.Zero,
		FailedByKind:      make(map[domain.FailureKind]int64),
	}
	wallets := make(map[string]struct{})

	var batch []schema.Obligation
	err := s.db.WithContext(ctx).
		Select("id", "recipient", "status", "failure_kind", "burn_amount", "mint_amount").
		FindInBatches(&batch, statsBatchSize, func(tx *gorm.DB, _ int) error {
			for _, o := range batch {
				stats.TotalRecords++
				stats.TotalBurnedAmount = stats.TotalBurnedAmount.Add(o.BurnAmount)
				if o.FailureKind != domain.FailureKindValidation {
					wallets[o.Recipient] = struct{}{}
				}

				switch o.Status {
				case domain.ObligationStatusPending:
					stats.Pending++
				case domain.ObligationStatusSubmitted:
					stats.Submitted++
				case domain.ObligationStatusConfirmed:
					stats.Confirmed++
					stats.TotalMintedAmount = stats.TotalMintedAmount.Add(o.MintAmount)
				case domain.ObligationStatusFailed:
					stats.Failed++
					stats.FailedByKind[o.FailureKind]++
				}
			}
			return nil
		}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute statistics: %w", err)
	}

	stats.UniqueWallets = int64(len(wallets))
	return stats, nil
}

// GetWalletSummaries computes per-recipient totals, largest burn total first.
// Validation failures are excluded since their recipient may be malformed.
func (s *gormStore) GetWalletSummaries(ctx context.Context) ([]WalletSummary, error) {
	byWallet := make(map[string]*WalletSummary)

	var batch []schema.Obligation
	err := s.db.WithContext(ctx).
		Where("failure_kind <> ?", domain.FailureKindValidation).
		Select("id", "recipient", "status", "burn_amount", "mint_amount", "observed_at", "confirmed_at").
		FindInBatches(&batch, statsBatchSize, func(tx *gorm.DB, _ int) error {
			for _, o := range batch {
				summary, ok := byWallet[o.Recipient]
				if !ok {
					summary = &WalletSummary{
						WalletAddress: o.Recipient,
						TotalBurned:   decimal.Zero,
						TotalMinted:   decimal.Zero,
					}
					byWallet[o.Recipient] = summary
				}

				summary.BurnCount++
				summary.TotalBurned = summary.TotalBurned.Add(o.BurnAmount)
				observed := o.ObservedAt
				if summary.FirstBurn == nil || observed.Before(*summary.FirstBurn) {
					summary.FirstBurn = &observed
				}

				if o.Status == domain.ObligationStatusConfirmed {
					summary.MintCount++
					summary.TotalMinted = summary.TotalMinted.Add(o.MintAmount)
					if o.ConfirmedAt != nil && (summary.LastMint == nil || o.ConfirmedAt.After(*summary.LastMint)) {
						confirmed := *o.ConfirmedAt
						summary.LastMint = &confirmed
					}
				}
			}
			return nil
		}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute wallet summaries: %w", err)
	}

	summaries := make([]WalletSummary, 0, len(byWallet))
	for _, summary := range byWallet {
		summaries = append(summaries, *summary)
	}
	sort.Slice(summaries, func(i, j int) bool {
		if c := summaries[i].TotalBurned.Cmp(summaries[j].TotalBurned); c != 0 {
			return c > 0
		}
		return summaries[i].WalletAddress < summaries[j].WalletAddress
	})

	return summaries, nil
}

// SetKeyValue sets a key-value pair in the key-value store
func (s *gormStore) SetKeyValue(ctx context.Context, key string, value string) error {
	kv := schema.KeyValueStore{
		Key:   key,
		Value: value,
	}

	err := s.db.WithContext(ctx).Save(&kv).Error
	if err != nil {
		return fmt.Errorf("failed to set key-value: %w", err)
	}

	return nil
}

// GetKeyValue retrieves a value by key from the key-value store
func (s *gormStore) GetKeyValue(ctx context.Context, key string) (string, error) {
	var kv schema.KeyValueStore
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&kv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get key-value: %w", err)
	}

	return kv.Value, nil
}

// GetAllKeyValuesByPrefix retrieves all key-value pairs with a specific prefix
func (s *gormStore) GetAllKeyValuesByPrefix(ctx context.Context, prefix string) (map[string]string, error) {
	var kvs []schema.KeyValueStore
	err := s.db.WithContext(ctx).Where("key LIKE ?", prefix+"%").Find(&kvs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get key-values by prefix: %w", err)
	}

	result := make(map[string]string, len(kvs))
	for _, kv := range kvs {
		result[kv.Key] = kv.Value
	}

	return result, nil
}
