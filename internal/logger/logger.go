package logger

import (
	"context"
	"time"

	"github.com/TheZeroSlave/zapsentry"
	"github.com/getsentry/sentry-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const serviceName = "burn-mint"

var (
	// log is a no-op until Initialize is called so packages can log from tests
	log = zap.NewNop()
	// sentryClient is set only when a DSN is configured
	sentryClient *sentry.Client
)

// Config holds logger configuration
type Config struct {
	Debug           bool
	SentryDSN       string
	SentryClient    *sentry.Client
	BreadcrumbLevel zapcore.Level
	Tags            map[string]string
}

// Initialize builds the process logger. Errors are reported to sentry when a DSN is set.
func Initialize(cfg Config) error {
	base, err := newBase(cfg.Debug)
	if err != nil {
		return err
	}

	if cfg.SentryDSN == "" {
		log = base.With(zap.String("service", serviceName))
		return nil
	}

	client := cfg.SentryClient
	if client == nil {
		client, err = sentry.NewClient(sentry.ClientOptions{
			Dsn:   cfg.SentryDSN,
			Debug: cfg.Debug,
		})
		if err != nil {
			return err
		}
	}

	breadcrumbLevel := cfg.BreadcrumbLevel
	if breadcrumbLevel == zapcore.InvalidLevel {
		breadcrumbLevel = zapcore.InfoLevel
	}
	core, err := zapsentry.NewCore(zapsentry.Configuration{
		Level:             zapcore.ErrorLevel,
		EnableBreadcrumbs: true,
		BreadcrumbLevel:   breadcrumbLevel,
		Tags:              cfg.Tags,
	}, zapsentry.NewSentryClientFromClient(client))
	if err != nil {
		return err
	}

	sentryClient = client
	log = zapsentry.AttachCoreToLogger(core, base).With(zap.String("service", serviceName))
	return nil
}

// newBase writes JSON in production and colored console output in debug mode
func newBase(debug bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if debug {
		zc = zap.NewDevelopmentConfig()
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return zc.Build()
}

// Sync flushes buffered zap entries. Errors from syncing stderr are ignored.
func Sync() {
	_ = log.Sync()
}

// Flush waits up to timeout for queued sentry events
func Flush(timeout time.Duration) {
	if sentryClient != nil {
		sentryClient.Flush(timeout)
	}
}

func scoped(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return log
	}
	return log.With(zapsentry.Context(ctx))
}

func Info(msg string, fields ...zap.Field) {
	log.Info(msg, fields...)
}

func InfoCtx(ctx context.Context, msg string, fields ...zap.Field) {
	scoped(ctx).Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	log.Warn(msg, fields...)
}

func WarnCtx(ctx context.Context, msg string, fields ...zap.Field) {
	scoped(ctx).Warn(msg, fields...)
}

func DebugCtx(ctx context.Context, msg string, fields ...zap.Field) {
	scoped(ctx).Debug(msg, fields...)
}

// Error logs err as the message; a nil err still produces an entry
func Error(err error, fields ...zap.Field) {
	log.Error(errorMessage(err), fields...)
}

func ErrorCtx(ctx context.Context, err error, fields ...zap.Field) {
	scoped(ctx).Error(errorMessage(err), fields...)
}

func errorMessage(err error) string {
	if err == nil {
		return "error occurred"
	}
	return err.Error()
}

// Obligation log lines share these keys so a burn can be followed across components.

func BurnID(id string) zap.Field {
	return zap.String("burn_id", id)
}

func Recipient(addr string) zap.Field {
	return zap.String("recipient", addr)
}

func Amount(key string, d decimal.Decimal) zap.Field {
	return zap.String(key, d.String())
}

func Attempt(n int) zap.Field {
	return zap.Int("attempt", n)
}

func TxRef(ref string) zap.Field {
	return zap.String("tx_reference", ref)
}

func RunID(id string) zap.Field {
	return zap.String("run_id", id)
}
