package cli

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/feral-file/ff-burn-mint/internal/adapter"
	"github.com/feral-file/ff-burn-mint/internal/burnstore"
	"github.com/feral-file/ff-burn-mint/internal/chain"
	"github.com/feral-file/ff-burn-mint/internal/logger"
	"github.com/feral-file/ff-burn-mint/internal/minter"
	"github.com/feral-file/ff-burn-mint/internal/notify"
	"github.com/feral-file/ff-burn-mint/internal/pipeline"
	"github.com/feral-file/ff-burn-mint/internal/reconciler"
	"github.com/feral-file/ff-burn-mint/internal/report"
	"github.com/feral-file/ff-burn-mint/internal/store"
)

// needs lists the collaborators a command requires beyond the ledger
type needs struct {
	burns  bool
	chain  bool
	report bool
}

// components are the wired collaborators of one command invocation
type components struct {
	db        *gorm.DB
	store     store.Store
	reader    burnstore.Reader
	client    chain.Client
	publisher notify.Publisher
	orch      pipeline.Orchestrator
}

func (o *RootOptions) build(ctx context.Context, n needs) (*components, error) {
	cfg := o.cfg
	clock := adapter.NewClock()
	jsonAdapter := adapter.NewJSON()

	db, err := store.Open(cfg.Ledger, cfg.Debug)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open ledger", err)
	}
	c := &components{db: db, store: store.NewGormStore(db)}
	logger.InfoCtx(ctx, "Opened ledger", zap.String("driver", cfg.Ledger.Driver))

	deps := pipeline.Deps{Store: c.store, Clock: clock, JSON: jsonAdapter}

	if n.burns {
		reader, err := burnstore.Open(cfg.BurnStore)
		if err != nil {
			c.close()
			return nil, WrapExitError(ExitCommandError, "failed to open burn store", err)
		}
		c.reader = reader

		rule, err := cfg.ConversionRule()
		if err != nil {
			c.close()
			return nil, WrapExitError(ExitCommandError, "invalid conversion rule", err)
		}
		deps.Reconciler = reconciler.New(reader, c.store, reconciler.Options{
			AddressFormat:    cfg.AddressFormat(),
			Conversion:       rule,
			MinAmount:        decimal.NewFromInt(cfg.BurnStore.MinAmount),
			MaxTotalAttempts: cfg.Executor.MaxTotalAttempts,
		})
	}

	if n.chain {
		client, err := chain.New(ctx, cfg.Chain, adapter.NewEthClientDialer(), clock)
		if err != nil {
			c.close()
			return nil, WrapExitError(ExitCommandError, "failed to create chain client", err)
		}
		c.client = client

		var notifier minter.Notifier
		if cfg.NATS.Enabled {
			pub, err := notify.NewPublisher(ctx, notify.Config{
				URL:            cfg.NATS.URL,
				StreamName:     cfg.NATS.StreamName,
				SubjectPrefix:  cfg.NATS.SubjectPrefix,
				MaxReconnects:  cfg.NATS.MaxReconnects,
				ReconnectWait:  cfg.NATS.ReconnectWait,
				ConnectionName: cfg.NATS.ConnectionName,
			}, adapter.NewNatsJetStream(), jsonAdapter)
			if err != nil {
				logger.WarnCtx(ctx, "Settlement events disabled", zap.Error(err))
			} else {
				c.publisher = pub
				notifier = pub
			}
		}

		deps.Executor = minter.NewExecutor(cfg.Executor, c.store, client, clock, notifier)
	}

	if n.report {
		gen, err := report.NewGenerator(cfg.Report, c.store, adapter.NewFileSystem(), jsonAdapter, adapter.NewJCS(), clock)
		if err != nil {
			c.close()
			return nil, WrapExitError(ExitCommandError, "failed to create report generator", err)
		}
		deps.Report = gen
	}

	c.orch = pipeline.New(deps)
	return c, nil
}

func (c *components) close() {
	if c.publisher != nil {
		c.publisher.Close()
	}
	if c.client != nil {
		c.client.Close()
	}
	if c.reader != nil {
		if err := c.reader.Close(); err != nil {
			logger.Warn("Failed to close burn store", zap.Error(err))
		}
	}
	if c.db != nil {
		if err := store.Close(c.db); err != nil {
			logger.Warn("Failed to close ledger", zap.Error(err))
		}
	}
}
