package reconciler

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/feral-file/ff-burn-mint/internal/burnstore"
	"github.com/feral-file/ff-burn-mint/internal/domain"
	"github.com/feral-file/ff-burn-mint/internal/logger"
	"github.com/feral-file/ff-burn-mint/internal/store"
	"github.com/feral-file/ff-burn-mint/internal/store/schema"
)

// Options configures how burns become obligations
type Options struct {
	AddressFormat    domain.AddressFormat
	Conversion       domain.ConversionRule
	MinAmount        decimal.Decimal // valid burns below this are skipped
	MaxTotalAttempts int
}

// Result counts what one reconciliation pass did
type Result struct {
	Scanned          int `json:"scanned"`
	Inserted         int `json:"inserted"`
	ValidationFailed int `json:"validation_failed"`
	BelowMinimum     int `json:"below_minimum"`
	AlreadyPresent   int `json:"already_present"`
	Duplicates       int `json:"duplicates"`
}

// Reconciler diffs the burn store against the ledger
type Reconciler interface {
	// Reconcile inserts an obligation for every burn not yet in the ledger
	Reconcile(ctx context.Context) (*Result, error)
	// ReconcileBurner inserts the latest qualifying burn of one depositor not yet in the ledger
	ReconcileBurner(ctx context.Context, burner string) (*Result, error)
	// Revalidate re-checks validation failures against the current burn store and
	// turns the ones that now validate back into pending obligations
	Revalidate(ctx context.Context, burnID string) (int, error)
	// Pending returns the obligations requiring action, oldest burn first
	Pending(ctx context.Context, recipient string) ([]schema.Obligation, error)
}

type reconciler struct {
	reader burnstore.Reader
	store  store.Store
	opts   Options
}

// New creates a reconciler reading from reader and writing to st
func New(reader burnstore.Reader, st store.Store, opts Options) Reconciler {
	if opts.Conversion == nil {
		opts.Conversion = domain.IdentityRule{}
	}
	if opts.AddressFormat == "" {
		opts.AddressFormat = domain.AddressFormatAny
	}
	return &reconciler{reader: reader, store: st, opts: opts}
}

// outcome of one burn record
type outcome int

const (
	outcomeInserted outcome = iota
	outcomeValidationFailed
	outcomeBelowMinimum
	outcomeAlreadyPresent
)

func (r *Result) count(o outcome) {
	switch o {
	case outcomeInserted:
		r.Inserted++
	case outcomeValidationFailed:
		r.ValidationFailed++
	case outcomeBelowMinimum:
		r.BelowMinimum++
	case outcomeAlreadyPresent:
		r.AlreadyPresent++
	}
}

func (rc *reconciler) Reconcile(ctx context.Context) (*Result, error) {
	records, err := rc.reader.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read burn store: %w", err)
	}

	ids := make([]string, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.BurnID)
	}
	existing, err := rc.store.ExistingBurnIDs(ctx, ids)
	if err != nil {
		return nil, domain.NewStorageError("existing burn ids", err)
	}

	result := &Result{}
	seen := make(map[string]struct{}, len(records))

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Scanned++

		if _, dup := seen[rec.BurnID]; dup {
			result.Duplicates++
			logger.WarnCtx(ctx, "Duplicate burn id in burn store, keeping the earliest", logger.BurnID(rec.BurnID))
			continue
		}
		seen[rec.BurnID] = struct{}{}

		if _, ok := existing[rec.BurnID]; ok {
			result.AlreadyPresent++
			continue
		}

		o, err := rc.migrate(ctx, rec)
		if err != nil {
			return result, err
		}
		result.count(o)
	}

	logger.InfoCtx(ctx, "Reconciliation completed",
		zap.Int("scanned", result.Scanned),
		zap.Int("inserted", result.Inserted),
		zap.Int("validationFailed", result.ValidationFailed),
		zap.Int("belowMinimum", result.BelowMinimum),
		zap.Int("alreadyPresent", result.AlreadyPresent),
		zap.Int("duplicates", result.Duplicates))

	return result, nil
}

func (rc *reconciler) ReconcileBurner(ctx context.Context, burner string) (*Result, error) {
	records, err := rc.reader.ReadByBurner(ctx, burner)
	if err != nil {
		return nil, fmt.Errorf("failed to read burn store: %w", err)
	}

	result := &Result{}
	if len(records) == 0 {
		logger.WarnCtx(ctx, "No burn records found for burner", logger.Recipient(burner))
		return result, nil
	}

	for _, rec := range records {
		result.Scanned++

		existingObligation, err := rc.store.GetObligation(ctx, rec.BurnID)
		if err != nil {
			return result, domain.NewStorageError("get obligation", err)
		}
		if existingObligation != nil {
			result.AlreadyPresent++
			continue
		}

		o, err := rc.migrate(ctx, rec)
		if err != nil {
			return result, err
		}
		result.count(o)

		// one obligation per invocation
		if o == outcomeInserted {
			break
		}
	}

	if result.Inserted == 0 {
		logger.WarnCtx(ctx, "No qualifying burn record for burner",
			logger.Recipient(burner),
			zap.Int("scanned", result.Scanned))
	}

	return result, nil
}

// migrate validates one burn absent from the ledger and records it
func (rc *reconciler) migrate(ctx context.Context, rec domain.BurnRecord) (outcome, error) {
	input, verr := rc.buildObligation(rec)
	if verr != nil {
		return rc.recordValidationFailure(ctx, rec, verr)
	}

	if input.BurnAmount.LessThan(rc.opts.MinAmount) {
		logger.DebugCtx(ctx, "Skipping burn below minimum amount",
			logger.BurnID(rec.BurnID),
			logger.Amount("amount", rec.BurnAmount),
			logger.Amount("minimum", rc.opts.MinAmount))
		return outcomeBelowMinimum, nil
	}

	inserted, err := rc.store.InsertObligation(ctx, *input)
	if err != nil {
		return 0, domain.NewStorageError("insert obligation", err)
	}
	if !inserted {
		return outcomeAlreadyPresent, nil
	}

	logger.InfoCtx(ctx, "Obligation created",
		logger.BurnID(rec.BurnID),
		logger.Recipient(input.Recipient),
		logger.Amount("burnAmount", input.BurnAmount),
		logger.Amount("mintAmount", input.MintAmount))

	return outcomeInserted, nil
}

// buildObligation validates rec and computes its mint amount
func (rc *reconciler) buildObligation(rec domain.BurnRecord) (*store.CreateObligationInput, error) {
	if err := domain.ValidateBurnRecord(rec, rc.opts.AddressFormat); err != nil {
		return nil, err
	}

	mintAmount, err := rc.opts.Conversion.Convert(rec.BurnAmount)
	if err != nil {
		return nil, &domain.ValidationError{BurnID: rec.BurnID, Err: domain.ErrInvalidAmount, Detail: err.Error()}
	}
	if !mintAmount.IsPositive() {
		return nil, &domain.ValidationError{
			BurnID: rec.BurnID,
			Err:    domain.ErrInvalidAmount,
			Detail: fmt.Sprintf("mint amount for burn amount %s is %s under rule %s", rec.BurnAmount, mintAmount, rc.opts.Conversion.Name()),
		}
	}
	// the chain takes whole raw units
	if !mintAmount.IsInteger() {
		return nil, &domain.ValidationError{
			BurnID: rec.BurnID,
			Err:    domain.ErrInvalidAmount,
			Detail: fmt.Sprintf("mint amount %s for burn amount %s is not a whole number of units under rule %s", mintAmount, rec.BurnAmount, rc.opts.Conversion.Name()),
		}
	}

	return &store.CreateObligationInput{
		BurnID:     rec.BurnID,
		Recipient:  domain.NormalizeAddress(rc.opts.AddressFormat, rec.DepositorAddress),
		BurnAmount: rec.BurnAmount,
		MintAmount: mintAmount,
		ObservedAt: rec.ObservedAt,
		Memo:       rec.Memo,
		Token:      rec.Token,
		Status:     domain.ObligationStatusPending,
	}, nil
}

func (rc *reconciler) recordValidationFailure(ctx context.Context, rec domain.BurnRecord, verr error) (outcome, error) {
	message := verr.Error()
	inserted, err := rc.store.InsertObligation(ctx, store.CreateObligationInput{
		BurnID:      rec.BurnID,
		Recipient:   rec.DepositorAddress,
		BurnAmount:  rec.BurnAmount,
		MintAmount:  decimal.Zero,
		ObservedAt:  rec.ObservedAt,
		Memo:        rec.Memo,
		Token:       rec.Token,
		Status:      domain.ObligationStatusFailed,
		FailureKind: domain.FailureKindValidation,
		LastError:   &message,
	})
	if err != nil {
		return 0, domain.NewStorageError("insert validation failure", err)
	}
	if !inserted {
		return outcomeAlreadyPresent, nil
	}

	logger.WarnCtx(ctx, "Burn record failed validation",
		logger.BurnID(rec.BurnID),
		logger.Recipient(rec.DepositorAddress),
		zap.String("reason", message))

	return outcomeValidationFailed, nil
}

func (rc *reconciler) Revalidate(ctx context.Context, burnID string) (int, error) {
	filter := store.ObligationFilter{
		Statuses:    []domain.ObligationStatus{domain.ObligationStatusFailed},
		FailureKind: domain.FailureKindValidation,
	}
	if burnID != "" {
		filter.BurnIDs = []string{burnID}
	}

	failed, err := rc.store.ListObligations(ctx, filter)
	if err != nil {
		return 0, domain.NewStorageError("list validation failures", err)
	}
	if len(failed) == 0 {
		return 0, nil
	}

	records, err := rc.reader.ReadAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read burn store: %w", err)
	}
	byID := make(map[string]domain.BurnRecord, len(records))
	for _, rec := range records {
		if _, ok := byID[rec.BurnID]; !ok {
			byID[rec.BurnID] = rec
		}
	}

	revised := 0
	for _, o := range failed {
		rec, ok := byID[o.BurnID]
		if !ok {
			logger.WarnCtx(ctx, "Validation failure no longer in burn store", logger.BurnID(o.BurnID))
			continue
		}

		input, verr := rc.buildObligation(rec)
		if verr != nil {
			logger.InfoCtx(ctx, "Burn record still fails validation",
				logger.BurnID(o.BurnID),
				zap.String("reason", verr.Error()))
			continue
		}
		if input.BurnAmount.LessThan(rc.opts.MinAmount) {
			logger.InfoCtx(ctx, "Corrected burn record is below minimum amount", logger.BurnID(o.BurnID))
			continue
		}

		ok, err = rc.store.ReviseValidationFailure(ctx, *input)
		if err != nil {
			return revised, domain.NewStorageError("revise validation failure", err)
		}
		if ok {
			revised++
			logger.InfoCtx(ctx, "Validation failure requeued",
				logger.BurnID(o.BurnID),
				logger.Amount("mintAmount", input.MintAmount))
		}
	}

	return revised, nil
}

func (rc *reconciler) Pending(ctx context.Context, recipient string) ([]schema.Obligation, error) {
	obligations, err := rc.store.ListActionable(ctx, store.ActionableFilter{
		MaxTotalAttempts: rc.opts.MaxTotalAttempts,
		Recipient:        recipient,
	})
	if err != nil {
		return nil, domain.NewStorageError("list actionable", err)
	}
	return obligations, nil
}

