package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/feral-file/ff-burn-mint/internal/adapter"
	"github.com/feral-file/ff-burn-mint/internal/domain"
	"github.com/feral-file/ff-burn-mint/internal/logger"
	"github.com/feral-file/ff-burn-mint/internal/minter"
	"github.com/feral-file/ff-burn-mint/internal/reconciler"
	"github.com/feral-file/ff-burn-mint/internal/report"
	"github.com/feral-file/ff-burn-mint/internal/store"
	"github.com/feral-file/ff-burn-mint/internal/store/schema"
)

// Mode names one invocation of the orchestrator
type Mode string

const (
	ModeRun      Mode = "run"
	ModeMigrate  Mode = "migrate"
	ModeMint     Mode = "mint"
	ModeGenerate Mode = "generate"
	ModeRequeue  Mode = "requeue"
)

// Exit codes
const (
	ExitOK      = 0
	ExitFailed  = 1 // at least one obligation in scope is failed
	ExitAborted = 2 // storage or configuration error
)

// RunSummary is the outcome of one orchestrator invocation. It is journaled in the ledger.
type RunSummary struct {
	RunID       string             `json:"run_id"`
	Mode        Mode               `json:"mode"`
	Burner      string             `json:"burner,omitempty"`
	StartedAt   time.Time          `json:"started_at"`
	FinishedAt  time.Time          `json:"finished_at"`
	Migration   *reconciler.Result `json:"migration,omitempty"`
	Actionable  *int               `json:"actionable,omitempty"`
	Mint        *minter.Summary    `json:"mint,omitempty"`
	Requeued    *int64             `json:"requeued,omitempty"`
	Revalidated *int               `json:"revalidated,omitempty"`
	ReportDir   string             `json:"report_dir,omitempty"`
	Failed      int64              `json:"failed"`
	Pending     int64              `json:"pending"`
	InFlight    int64              `json:"in_flight"`
	Confirmed   int64              `json:"confirmed"`
	Error       string             `json:"error,omitempty"`
	ExitCode    int                `json:"exit_code"`
}

// changedLedger is false only for a clean migrate that found nothing new, so repeating it writes nothing
func (s *RunSummary) changedLedger() bool {
	if s.Mode != ModeMigrate || s.Error != "" || s.Migration == nil {
		return true
	}
	return s.Migration.Inserted > 0 || s.Migration.ValidationFailed > 0
}

// RequeueOptions selects failed obligations to move back to pending
type RequeueOptions struct {
	FailureKind domain.FailureKind // empty means every kind
	BurnID      string
}

// Orchestrator sequences the reconciler and the mint executor
type Orchestrator interface {
	// Migrate reconciles the burn store into the ledger without touching the chain
	Migrate(ctx context.Context, burner string) (*RunSummary, error)
	// Mint drains the ledger against the chain without reading the burn store
	Mint(ctx context.Context, burner string) (*RunSummary, error)
	// Run is Migrate then Mint
	Run(ctx context.Context, burner string) (*RunSummary, error)
	// Generate renders the report from ledger state
	Generate(ctx context.Context) (*RunSummary, error)
	// Requeue re-drives failed obligations
	Requeue(ctx context.Context, opts RequeueOptions) (*RunSummary, error)
	// Statistics returns ledger-wide totals
	Statistics(ctx context.Context) (*store.Statistics, error)
	// WalletSummaries returns per-recipient totals
	WalletSummaries(ctx context.Context) ([]store.WalletSummary, error)
	// Obligations lists ledger rows
	Obligations(ctx context.Context, filter store.ObligationFilter) ([]schema.Obligation, error)
	// LastRun returns the most recent journaled run, or nil
	LastRun(ctx context.Context) (*RunSummary, error)
}

// Deps are the collaborators of the orchestrator. Reconciler, Executor and Report may be nil
// when the invoked mode does not need them.
type Deps struct {
	Store      store.Store
	Reconciler reconciler.Reconciler
	Executor   minter.Executor
	Report     report.Generator
	Clock      adapter.Clock
	JSON       adapter.JSON
}

type orchestrator struct {
	Deps
}

// New creates an orchestrator
func New(deps Deps) Orchestrator {
	return &orchestrator{Deps: deps}
}

func (o *orchestrator) begin(mode Mode, burner string) *RunSummary {
	return &RunSummary{
		RunID:     ulid.Make().String(),
		Mode:      mode,
		Burner:    burner,
		StartedAt: o.Clock.Now(),
	}
}

func (o *orchestrator) Migrate(ctx context.Context, burner string) (*RunSummary, error) {
	summary := o.begin(ModeMigrate, burner)
	err := o.migrate(ctx, summary)
	return o.finish(ctx, summary, err)
}

func (o *orchestrator) Mint(ctx context.Context, burner string) (*RunSummary, error) {
	summary := o.begin(ModeMint, burner)
	err := o.mint(ctx, summary)
	return o.finish(ctx, summary, err)
}

func (o *orchestrator) Run(ctx context.Context, burner string) (*RunSummary, error) {
	summary := o.begin(ModeRun, burner)
	err := o.migrate(ctx, summary)
	if err == nil && ctx.Err() == nil {
		err = o.mint(ctx, summary)
	}
	return o.finish(ctx, summary, err)
}

func (o *orchestrator) migrate(ctx context.Context, summary *RunSummary) error {
	if o.Reconciler == nil {
		return fmt.Errorf("reconciler is not configured")
	}
	logger.InfoCtx(ctx, "Migrating burn records", logger.RunID(summary.RunID), zap.String("burner", summary.Burner))

	var (
		result *reconciler.Result
		err    error
	)
	if summary.Burner != "" {
		result, err = o.Reconciler.ReconcileBurner(ctx, summary.Burner)
	} else {
		result, err = o.Reconciler.Reconcile(ctx)
	}
	summary.Migration = result
	if err != nil {
		return err
	}

	logger.InfoCtx(ctx, "Migration completed",
		logger.RunID(summary.RunID),
		zap.Int("scanned", result.Scanned),
		zap.Int("inserted", result.Inserted),
		zap.Int("validationFailed", result.ValidationFailed),
		zap.Int("belowMinimum", result.BelowMinimum),
		zap.Int("alreadyPresent", result.AlreadyPresent))

	actionable, err := o.Reconciler.Pending(ctx, summary.Burner)
	if err != nil {
		return err
	}
	n := len(actionable)
	summary.Actionable = &n
	return nil
}

func (o *orchestrator) mint(ctx context.Context, summary *RunSummary) error {
	if o.Executor == nil {
		return fmt.Errorf("mint executor is not configured")
	}
	logger.InfoCtx(ctx, "Draining obligations", logger.RunID(summary.RunID), zap.String("burner", summary.Burner))

	result, err := o.Executor.Run(ctx, summary.Burner)
	summary.Mint = result
	if err != nil {
		return err
	}

	stats, err := o.Store.GetStatistics(ctx)
	if err != nil {
		return domain.NewStorageError("get statistics", err)
	}
	logStatistics(ctx, stats)
	return nil
}

func (o *orchestrator) Generate(ctx context.Context) (*RunSummary, error) {
	summary := o.begin(ModeGenerate, "")
	if o.Report == nil {
		return o.finish(ctx, summary, fmt.Errorf("report generator is not configured"))
	}

	result, err := o.Report.Generate(ctx)
	if result != nil {
		summary.ReportDir = result.OutputDir
	}
	return o.finish(ctx, summary, err)
}

func (o *orchestrator) Requeue(ctx context.Context, opts RequeueOptions) (*RunSummary, error) {
	summary := o.begin(ModeRequeue, "")
	err := o.requeue(ctx, summary, opts)
	return o.finish(ctx, summary, err)
}

func (o *orchestrator) requeue(ctx context.Context, summary *RunSummary, opts RequeueOptions) error {
	if opts.FailureKind != domain.FailureKindValidation {
		moved, err := o.Store.RequeueFailed(ctx, store.RequeueFilter{
			FailureKind: opts.FailureKind,
			BurnID:      opts.BurnID,
		})
		if err != nil {
			return domain.NewStorageError("requeue failed obligations", err)
		}
		summary.Requeued = &moved
	}

	// validation failures go back only when the source record now validates
	if opts.FailureKind == domain.FailureKindNone || opts.FailureKind == domain.FailureKindValidation {
		if o.Reconciler == nil {
			return fmt.Errorf("reconciler is not configured")
		}
		revised, err := o.Reconciler.Revalidate(ctx, opts.BurnID)
		if err != nil {
			return err
		}
		summary.Revalidated = &revised
	}

	logger.InfoCtx(ctx, "Requeue completed",
		logger.RunID(summary.RunID),
		zap.String("failureKind", string(opts.FailureKind)),
		zap.String("burnId", opts.BurnID))
	return nil
}

// finish records totals, the exit code and the run journal
func (o *orchestrator) finish(ctx context.Context, summary *RunSummary, runErr error) (*RunSummary, error) {
	summary.FinishedAt = o.Clock.Now()

	if runErr != nil {
		summary.Error = runErr.Error()
		summary.ExitCode = ExitAborted
		logger.ErrorCtx(ctx, runErr, logger.RunID(summary.RunID), zap.String("mode", string(summary.Mode)))
	} else if err := o.countScope(ctx, summary); err != nil {
		runErr = err
		summary.Error = err.Error()
		summary.ExitCode = ExitAborted
	} else if summary.Failed > 0 && summary.Mode != ModeGenerate && summary.Mode != ModeRequeue {
		summary.ExitCode = ExitFailed
	}

	if summary.changedLedger() {
		if err := o.journal(context.WithoutCancel(ctx), summary); err != nil {
			logger.WarnCtx(ctx, "Failed to journal run", logger.RunID(summary.RunID), zap.Error(err))
		}
	}

	logger.InfoCtx(ctx, "Run finished",
		logger.RunID(summary.RunID),
		zap.String("mode", string(summary.Mode)),
		zap.Duration("duration", summary.FinishedAt.Sub(summary.StartedAt)),
		zap.Int64("confirmed", summary.Confirmed),
		zap.Int64("failed", summary.Failed),
		zap.Int64("pending", summary.Pending),
		zap.Int64("inFlight", summary.InFlight),
		zap.Int("exitCode", summary.ExitCode))

	return summary, runErr
}

// countScope fills the ledger totals for the summary's burner, or ledger-wide without one
func (o *orchestrator) countScope(ctx context.Context, summary *RunSummary) error {
	if summary.Burner == "" {
		stats, err := o.Store.GetStatistics(ctx)
		if err != nil {
			return domain.NewStorageError("get statistics", err)
		}
		summary.Confirmed = stats.Confirmed
		summary.Failed = stats.Failed
		summary.Pending = stats.Pending
		summary.InFlight = stats.Submitted
		return nil
	}

	obligations, err := o.Store.ListObligations(ctx, store.ObligationFilter{Recipient: summary.Burner})
	if err != nil {
		return domain.NewStorageError("list obligations", err)
	}
	for _, ob := range obligations {
		switch ob.Status {
		case domain.ObligationStatusConfirmed:
			summary.Confirmed++
		case domain.ObligationStatusFailed:
			summary.Failed++
		case domain.ObligationStatusPending:
			summary.Pending++
		case domain.ObligationStatusSubmitted:
			summary.InFlight++
		}
	}
	return nil
}

func (o *orchestrator) journal(ctx context.Context, summary *RunSummary) error {
	data, err := o.JSON.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal run summary: %w", err)
	}
	if err := o.Store.SetKeyValue(ctx, domain.KV_RUN_PREFIX+summary.RunID, string(data)); err != nil {
		return err
	}
	return o.Store.SetKeyValue(ctx, domain.KV_LAST_RUN, summary.RunID)
}

func (o *orchestrator) LastRun(ctx context.Context) (*RunSummary, error) {
	runID, err := o.Store.GetKeyValue(ctx, domain.KV_LAST_RUN)
	if err != nil {
		return nil, domain.NewStorageError("get last run", err)
	}
	if runID == "" {
		return nil, nil
	}

	raw, err := o.Store.GetKeyValue(ctx, domain.KV_RUN_PREFIX+runID)
	if err != nil {
		return nil, domain.NewStorageError("get run", err)
	}
	if raw == "" {
		return nil, nil
	}

	var summary RunSummary
	if err := o.JSON.Unmarshal([]byte(raw), &summary); err != nil {
		return nil, fmt.Errorf("failed to decode run %s: %w", runID, err)
	}
	return &summary, nil
}

func (o *orchestrator) Statistics(ctx context.Context) (*store.Statistics, error) {
	stats, err := o.Store.GetStatistics(ctx)
	if err != nil {
		return nil, domain.NewStorageError("get statistics", err)
	}
	return stats, nil
}

func (o *orchestrator) WalletSummaries(ctx context.Context) ([]store.WalletSummary, error) {
	wallets, err := o.Store.GetWalletSummaries(ctx)
	if err != nil {
		return nil, domain.NewStorageError("get wallet summaries", err)
	}
	return wallets, nil
}

func (o *orchestrator) Obligations(ctx context.Context, filter store.ObligationFilter) ([]schema.Obligation, error) {
	obligations, err := o.Store.ListObligations(ctx, filter)
	if err != nil {
		return nil, domain.NewStorageError("list obligations", err)
	}
	return obligations, nil
}

func logStatistics(ctx context.Context, stats *store.Statistics) {
	logger.InfoCtx(ctx, "Ledger statistics",
		zap.Int64("totalRecords", stats.TotalRecords),
		logger.Amount("totalBurned", stats.TotalBurnedAmount),
		logger.Amount("totalMinted", stats.TotalMintedAmount),
		zap.Int64("uniqueWallets", stats.UniqueWallets),
		zap.Int64("pending", stats.Pending),
		zap.Int64("submitted", stats.Submitted),
		zap.Int64("confirmed", stats.Confirmed),
		zap.Int64("failed", stats.Failed))
}
