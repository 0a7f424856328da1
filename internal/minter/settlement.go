package minter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/feral-file/ff-burn-mint/internal/chain"
	"github.com/feral-file/ff-burn-mint/internal/domain"
	"github.com/feral-file/ff-burn-mint/internal/logger"
	"github.com/feral-file/ff-burn-mint/internal/store/schema"
)

var (
	// errStillInFlight leaves the obligation submitted for the next run to reconcile
	errStillInFlight = errors.New("transaction not final before confirm timeout")

	// errUnknownState returns the obligation to pending because its chain state could not be read
	errUnknownState = errors.New("chain state unknown")

	errBudgetExhausted = errors.New("total attempt budget exhausted")
	errReverted        = errors.New("transaction reverted")
)

// settlement is one claimed obligation being driven to an outcome
type settlement struct {
	*run
	lctx       context.Context
	obligation *schema.Obligation
	claimID    string
	budgeted   bool
}

// execute returns the settling transaction reference, or the reason there is none
func (s *settlement) execute(recovering bool) (string, error) {
	o := s.obligation

	// a previous attempt may have landed; never submit again before asking the chain
	if recovering || o.Attempts > 0 {
		conf, err := s.query()
		if err != nil {
			return "", fmt.Errorf("%w: %v", errUnknownState, err)
		}

		switch conf.Status {
		case chain.ConfirmationConfirmed:
			logger.InfoCtx(s.ctx, "Previous attempt already settled", logger.BurnID(o.BurnID), logger.TxRef(conf.TxReference))
			return conf.TxReference, nil
		case chain.ConfirmationPending:
			return s.await(conf.TxReference)
		case chain.ConfirmationReverted:
			return "", domain.NewRejectedError(conf.Detail, errReverted)
		}
	}

	return s.submitWithRetry()
}

func (s *settlement) query() (*chain.Confirmation, error) {
	return s.chain.QueryConfirmation(s.lctx, s.obligation.BurnID, s.obligation.TxReference)
}

func (s *settlement) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.cfg.BackoffInitial
	b.MaxInterval = s.cfg.BackoffMax
	b.Multiplier = s.cfg.BackoffMultiplier
	b.RandomizationFactor = s.cfg.BackoffJitter
	b.MaxElapsedTime = 0
	b.Reset()

	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(s.cfg.MaxAttempts-1)), s.ctx)
}

// submitWithRetry spends at most cfg.MaxAttempts attempts, retrying transient failures with backoff.
// A retry asks the chain before resubmitting; a failed query still costs its attempt.
func (s *settlement) submitWithRetry() (string, error) {
	o := s.obligation
	var (
		txRef string
		tries int
	)

	operation := func() error {
		tries++

		if s.budgeted && o.Attempts >= s.cfg.MaxTotalAttempts {
			return backoff.Permanent(errBudgetExhausted)
		}
		if err := s.limiter.Wait(s.ctx); err != nil {
			return backoff.Permanent(err)
		}

		// every pass through the loop spends one attempt, including one that never reaches SubmitMint
		attempts, err := s.store.IncrementAttempt(s.lctx, o.BurnID, s.claimID)
		if err != nil {
			return backoff.Permanent(domain.NewStorageError("increment attempt", err))
		}
		o.Attempts = attempts

		if tries > 1 {
			conf, err := s.query()
			if err != nil {
				return s.attemptFailed(err)
			}
			switch conf.Status {
			case chain.ConfirmationConfirmed:
				txRef = conf.TxReference
				return nil
			case chain.ConfirmationPending:
				ref, err := s.await(conf.TxReference)
				txRef = ref
				return permanent(err)
			case chain.ConfirmationReverted:
				return backoff.Permanent(domain.NewRejectedError(conf.Detail, errReverted))
			}
		}

		// the submission itself is never abandoned half way
		ref, err := s.chain.SubmitMint(context.WithoutCancel(s.ctx), chain.MintRequest{
			BurnID:    o.BurnID,
			Recipient: o.Recipient,
			Amount:    o.MintAmount,
		})
		if err != nil {
			if domain.IsRejected(err) {
				return backoff.Permanent(err)
			}
			return s.attemptFailed(err)
		}

		if err := s.store.RecordTxReference(s.lctx, o.BurnID, s.claimID, ref); err != nil {
			return backoff.Permanent(domain.NewStorageError("record tx reference", err))
		}
		o.TxReference = &ref
		logger.InfoCtx(s.ctx, "Mint transaction submitted", logger.BurnID(o.BurnID), logger.Attempt(attempts), logger.TxRef(ref))

		final, err := s.await(ref)
		txRef = final
		return permanent(err)
	}

	notify := func(err error, next time.Duration) {
		logger.WarnCtx(s.ctx, "Mint attempt failed, retrying",
			logger.BurnID(o.BurnID),
			logger.Attempt(o.Attempts),
			zap.Duration("nextRetryIn", next),
			zap.Error(err))
	}

	err := backoff.RetryNotify(operation, s.newBackOff(), notify)
	return txRef, err
}

// attemptFailed records a transient failure of the current attempt and hands it back to the retry loop
func (s *settlement) attemptFailed(err error) error {
	if rerr := s.store.RecordAttemptError(s.lctx, s.obligation.BurnID, s.claimID, err.Error()); rerr != nil {
		return backoff.Permanent(domain.NewStorageError("record attempt error", rerr))
	}
	return err
}

// permanent stops the retry loop with err, or with success when err is nil
func permanent(err error) error {
	if err == nil {
		return nil
	}
	return backoff.Permanent(err)
}

// await polls until the burn is final, reverted or confirm_timeout elapses
func (s *settlement) await(txRef string) (string, error) {
	o := s.obligation
	deadline := s.clock.Now().Add(s.cfg.ConfirmTimeout)
	ref := &txRef
	if txRef == "" {
		ref = o.TxReference
	}

	for {
		conf, err := s.chain.QueryConfirmation(s.lctx, o.BurnID, ref)
		if err != nil {
			logger.WarnCtx(s.ctx, "Confirmation query failed", logger.BurnID(o.BurnID), zap.Error(err))
		} else {
			switch conf.Status {
			case chain.ConfirmationConfirmed:
				return conf.TxReference, nil
			case chain.ConfirmationReverted:
				return "", domain.NewRejectedError(conf.Detail, errReverted)
			}
			if conf.TxReference != "" {
				ref = &conf.TxReference
			}
		}

		if !s.clock.Now().Before(deadline) {
			return "", errStillInFlight
		}

		select {
		case <-s.ctx.Done():
			return "", errStillInFlight
		case <-s.clock.After(s.cfg.ConfirmPollInterval):
		}
	}
}
