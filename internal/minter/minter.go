package minter

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/alitto/pond/v2"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/feral-file/ff-burn-mint/internal/adapter"
	"github.com/feral-file/ff-burn-mint/internal/chain"
	"github.com/feral-file/ff-burn-mint/internal/config"
	"github.com/feral-file/ff-burn-mint/internal/domain"
	"github.com/feral-file/ff-burn-mint/internal/logger"
	"github.com/feral-file/ff-burn-mint/internal/store"
	"github.com/feral-file/ff-burn-mint/internal/store/schema"
)

// Notifier receives terminal settlement events. Delivery is best effort.
type Notifier interface {
	PublishSettlement(ctx context.Context, event domain.SettlementEvent) error
}

// Summary counts the outcomes of one executor run
type Summary struct {
	Recovered    int                        `json:"recovered"`
	Dispatched   int                        `json:"dispatched"`
	Confirmed    int                        `json:"confirmed"`
	Failed       int                        `json:"failed"`
	InFlight     int                        `json:"in_flight"`
	Released     int                        `json:"released"`
	Skipped      int                        `json:"skipped"`
	FailedByKind map[domain.FailureKind]int `json:"failed_by_kind,omitempty"`
	Interrupted  bool                       `json:"interrupted"`
}

// Executor drains actionable obligations against the chain client
type Executor interface {
	// Run first reconciles obligations left submitted by an earlier process, then settles every
	// actionable obligation, optionally restricted to one recipient. It returns a *domain.StorageError
	// when the ledger fails; per-obligation failures are recorded and counted instead.
	Run(ctx context.Context, recipient string) (*Summary, error)
}

type executor struct {
	cfg      config.ExecutorConfig
	store    store.Store
	chain    chain.Client
	clock    adapter.Clock
	notifier Notifier
	limiter  *rate.Limiter
}

// NewExecutor creates a mint executor. notifier may be nil.
func NewExecutor(cfg config.ExecutorConfig, st store.Store, client chain.Client, clock adapter.Clock, notifier Notifier) Executor {
	limit := rate.Inf
	if cfg.MinInterval > 0 {
		limit = rate.Every(cfg.MinInterval)
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.MaxTotalAttempts < cfg.MaxAttempts {
		cfg.MaxTotalAttempts = cfg.MaxAttempts
	}

	return &executor{
		cfg:      cfg,
		store:    st,
		chain:    client,
		clock:    clock,
		notifier: notifier,
		limiter:  rate.NewLimiter(limit, 1),
	}
}

// run holds the state of one Run invocation
type run struct {
	*executor
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	summary *Summary
	err     error
}

func (e *executor) Run(ctx context.Context, recipient string) (*Summary, error) {
	summary := &Summary{FailedByKind: make(map[domain.FailureKind]int)}
	if ctx.Err() != nil {
		summary.Interrupted = true
		return summary, nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	r := &run{executor: e, ctx: runCtx, cancel: cancel, summary: summary}
	startTime := e.clock.Now()

	pool := pond.NewPool(e.cfg.Concurrency, pond.WithQueueSize(e.cfg.QueueSize))
	defer pool.StopAndWait()

	inFlight, err := e.store.ListInFlight(ctx, recipient)
	if err != nil {
		return summary, domain.NewStorageError("list in-flight obligations", err)
	}
	recovered := make(map[string]struct{}, len(inFlight))
	for _, o := range inFlight {
		recovered[o.BurnID] = struct{}{}
	}
	if len(inFlight) > 0 {
		logger.InfoCtx(ctx, "Reconciling in-flight obligations left by a previous run", zap.Int("count", len(inFlight)))

		group := pool.NewGroup()
		for _, o := range inFlight {
			group.Submit(func() {
				r.settle(o, true)
			})
		}
		if err := group.Wait(); err != nil {
			logger.ErrorCtx(ctx, fmt.Errorf("recovery task failed: %w", err))
		}
	}
	if err := r.fatal(); err != nil {
		return summary, err
	}

	if runCtx.Err() == nil {
		actionable, err := e.store.ListActionable(ctx, store.ActionableFilter{
			MaxTotalAttempts: e.cfg.MaxTotalAttempts,
			Recipient:        recipient,
		})
		if err != nil {
			return summary, domain.NewStorageError("list actionable obligations", err)
		}

		logger.InfoCtx(ctx, "Dispatching obligations",
			zap.Int("count", len(actionable)),
			zap.Int("concurrency", e.cfg.Concurrency))

		group := pool.NewGroup()
		for i, o := range actionable {
			if _, ok := recovered[o.BurnID]; ok {
				// already given its chance this run
				continue
			}
			if runCtx.Err() != nil {
				undispatched := 0
				for _, rest := range actionable[i:] {
					if _, ok := recovered[rest.BurnID]; !ok {
						undispatched++
					}
				}
				r.add(func(sum *Summary) { sum.Skipped += undispatched })
				break
			}
			r.add(func(sum *Summary) { sum.Dispatched++ })
			group.Submit(func() {
				r.settle(o, false)
			})
		}
		if err := group.Wait(); err != nil {
			logger.ErrorCtx(ctx, fmt.Errorf("settlement task failed: %w", err))
		}
	}

	summary.Interrupted = ctx.Err() != nil

	logger.InfoCtx(ctx, "Mint run completed",
		zap.Duration("duration", e.clock.Since(startTime)),
		zap.Int("recovered", summary.Recovered),
		zap.Int("dispatched", summary.Dispatched),
		zap.Int("confirmed", summary.Confirmed),
		zap.Int("failed", summary.Failed),
		zap.Int("inFlight", summary.InFlight),
		zap.Int("released", summary.Released),
		zap.Int("skipped", summary.Skipped),
		zap.Bool("interrupted", summary.Interrupted))

	return summary, r.fatal()
}

func (r *run) add(fn func(sum *Summary)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r.summary)
}

// abort records the first fatal error and stops further dispatch
func (r *run) abort(err error) {
	r.mu.Lock()
	if r.err == nil {
		r.err = err
	}
	r.mu.Unlock()

	logger.ErrorCtx(r.ctx, err)
	r.cancel()
}

func (r *run) fatal() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// settle claims one obligation and drives it to a terminal or resumable state
func (r *run) settle(o schema.Obligation, recovering bool) {
	if r.ctx.Err() != nil {
		r.add(func(sum *Summary) { sum.Skipped++ })
		return
	}

	// ledger writes must complete even while shutting down
	lctx := context.WithoutCancel(r.ctx)
	claimID := ulid.Make().String()

	var (
		claimed *schema.Obligation
		err     error
	)
	if recovering {
		claimed, err = r.store.ReclaimInFlight(lctx, o.BurnID, o.ClaimID, claimID)
	} else {
		claimed, err = r.store.ClaimObligation(lctx, o.BurnID, claimID, r.cfg.MaxTotalAttempts)
	}
	if errors.Is(err, domain.ErrClaimConflict) || errors.Is(err, domain.ErrObligationNotFound) {
		logger.InfoCtx(r.ctx, "Obligation no longer claimable, skipping", logger.BurnID(o.BurnID))
		r.add(func(sum *Summary) { sum.Skipped++ })
		return
	}
	if err != nil {
		r.abort(domain.NewStorageError("claim obligation", err))
		return
	}
	if recovering {
		r.add(func(sum *Summary) { sum.Recovered++ })
	}

	logger.InfoCtx(r.ctx, "Obligation submitted",
		logger.BurnID(claimed.BurnID),
		logger.Recipient(claimed.Recipient),
		logger.Amount("mintAmount", claimed.MintAmount),
		logger.Attempt(claimed.Attempts),
		zap.Bool("recovering", recovering))

	s := &settlement{
		run:        r,
		lctx:       lctx,
		obligation: claimed,
		claimID:    claimID,
		// automatic retries of exhausted rows spend the cross-run budget; operator requeues do not
		budgeted: o.Status == domain.ObligationStatusFailed,
	}
	txRef, err := s.execute(recovering)
	r.finish(s, txRef, err)
}

// finish records the outcome of a settlement in the ledger
func (r *run) finish(s *settlement, txRef string, err error) {
	o := s.obligation
	fields := []zap.Field{logger.BurnID(o.BurnID), logger.Attempt(o.Attempts)}

	switch {
	case err == nil:
		if merr := r.store.MarkConfirmed(s.lctx, o.BurnID, s.claimID, txRef); merr != nil {
			r.transitionFailed(o.BurnID, merr)
			return
		}
		logger.InfoCtx(r.ctx, "Obligation confirmed", append(fields, logger.TxRef(txRef))...)
		r.add(func(sum *Summary) { sum.Confirmed++ })
		r.notify(s.lctx, o.BurnID)

	case domain.IsStorage(err):
		r.abort(err)

	case errors.Is(err, errStillInFlight):
		logger.WarnCtx(r.ctx, "Obligation left in flight", append(fields, zap.Error(err))...)
		r.add(func(sum *Summary) { sum.InFlight++ })

	case domain.IsRejected(err):
		r.fail(s, domain.FailureKindRejected, err)

	case r.ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)),
		errors.Is(err, errUnknownState):
		if rerr := r.store.ReleaseClaim(s.lctx, o.BurnID, s.claimID, err.Error()); rerr != nil {
			r.transitionFailed(o.BurnID, rerr)
			return
		}
		logger.InfoCtx(r.ctx, "Obligation released to pending", append(fields, zap.Error(err))...)
		r.add(func(sum *Summary) { sum.Released++ })

	default:
		r.fail(s, domain.FailureKindExhausted, err)
	}
}

func (r *run) fail(s *settlement, kind domain.FailureKind, cause error) {
	o := s.obligation
	if err := r.store.MarkFailed(s.lctx, o.BurnID, s.claimID, kind, cause.Error()); err != nil {
		r.transitionFailed(o.BurnID, err)
		return
	}

	logger.WarnCtx(r.ctx, "Obligation failed",
		logger.BurnID(o.BurnID),
		logger.Attempt(o.Attempts),
		zap.String("failureKind", string(kind)),
		zap.Error(cause))

	r.add(func(sum *Summary) {
		sum.Failed++
		sum.FailedByKind[kind]++
	})
	r.notify(s.lctx, o.BurnID)
}

// transitionFailed handles an error from a terminal ledger write
func (r *run) transitionFailed(burnID string, err error) {
	if errors.Is(err, domain.ErrClaimConflict) {
		logger.WarnCtx(r.ctx, "Lost claim before recording outcome", logger.BurnID(burnID))
		r.add(func(sum *Summary) { sum.Skipped++ })
		return
	}
	r.abort(domain.NewStorageError("record outcome", err))
}

// notify publishes the settled state of burnID when a notifier is configured
func (r *run) notify(ctx context.Context, burnID string) {
	if r.notifier == nil {
		return
	}

	o, err := r.store.GetObligation(ctx, burnID)
	if err != nil || o == nil {
		logger.WarnCtx(ctx, "Failed to load obligation for settlement event", logger.BurnID(burnID), zap.Error(err))
		return
	}

	event := domain.SettlementEvent{
		EventID:     ulid.Make().String(),
		BurnID:      o.BurnID,
		Recipient:   o.Recipient,
		MintAmount:  o.MintAmount.String(),
		Status:      o.Status,
		FailureKind: o.FailureKind,
		TxReference: o.TxReference,
		Attempts:    o.Attempts,
		LastError:   o.LastError,
		Timestamp:   r.clock.Now(),
	}
	if err := r.notifier.PublishSettlement(ctx, event); err != nil {
		logger.WarnCtx(ctx, "Failed to publish settlement event", logger.BurnID(burnID), zap.Error(err))
	}
}
