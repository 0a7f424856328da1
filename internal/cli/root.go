package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/feral-file/ff-burn-mint/internal/config"
	"github.com/feral-file/ff-burn-mint/internal/logger"
)

// RootOptions holds global flags for all commands
type RootOptions struct {
	ConfigFile string
	EnvPath    string
	Format     string // "text" | "json"
	Debug      bool

	cfg *config.SettlerConfig
}

// ValidFormats defines the allowed output formats
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for burn-mint
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "burn-mint",
		Short: "Settle recorded token burns as mints on the target chain",
		Long: `burn-mint reads historical burn records, tracks one mint obligation per burn in a
durable ledger and settles each obligation on the target chain exactly once.

Operating modes:
  migrate   reconcile the burn store into the ledger
  mint      drain pending obligations against the chain
  run       migrate then mint
  generate  render the settlement report from the ledger`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "path to configuration file")
	cmd.PersistentFlags().StringVar(&opts.EnvPath, "env", "config/", "path to environment files")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVar(&opts.Debug, "debug", false, "enable debug logging")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewMintCommand(opts))
	cmd.AddCommand(NewGenerateCommand(opts))
	cmd.AddCommand(NewRequeueCommand(opts))
	cmd.AddCommand(NewObligationsCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))

	return cmd
}

// setup validates global flags, loads configuration and initializes the logger
func (o *RootOptions) setup() error {
	if !slices.Contains(ValidFormats, o.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats))
	}

	// relative defaults (config/, database/, output/) resolve against the repository root
	if o.ConfigFile == "" {
		config.ChdirRepoRoot()
	}

	cfg, err := config.LoadSettlerConfig(o.ConfigFile, o.EnvPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if o.Debug {
		cfg.Debug = true
	}

	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "burn-mint",
		},
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to initialize logger", err)
	}

	o.cfg = cfg
	return nil
}
