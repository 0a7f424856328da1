package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/feral-file/ff-burn-mint/internal/domain"
	"github.com/feral-file/ff-burn-mint/internal/pipeline"
)

// settleOptions holds flags shared by run, migrate and mint
type settleOptions struct {
	*RootOptions
	Burner string
}

// NewRunCommand creates the run command
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &settleOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Migrate burn records into the ledger, then mint every pending obligation",
		Long: `Reconcile the burn store against the ledger and drain the resulting obligations
against the chain. Obligations left in flight by an interrupted run are reconciled first.

Example:
  burn-mint run
  burn-mint run --burner 0x1111111111111111111111111111111111111111`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return settle(cmd, opts, pipeline.ModeRun, needs{burns: true, chain: true})
		},
	}

	cmd.Flags().StringVar(&opts.Burner, "burner", "", "only settle the latest qualifying burn of this depositor")
	return cmd
}

// NewMigrateCommand creates the migrate command
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &settleOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "migrate",
		Short:         "Reconcile burn records into the ledger without touching the chain",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return settle(cmd, opts, pipeline.ModeMigrate, needs{burns: true})
		},
	}

	cmd.Flags().StringVar(&opts.Burner, "burner", "", "only migrate the latest qualifying burn of this depositor")
	return cmd
}

// NewMintCommand creates the mint command
func NewMintCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &settleOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "mint",
		Short:         "Drain pending obligations from the ledger against the chain",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return settle(cmd, opts, pipeline.ModeMint, needs{chain: true})
		},
	}

	cmd.Flags().StringVar(&opts.Burner, "burner", "", "only mint obligations owed to this depositor")
	return cmd
}

func settle(cmd *cobra.Command, opts *settleOptions, mode pipeline.Mode, n needs) error {
	ctx := cmd.Context()
	c, err := opts.build(ctx, n)
	if err != nil {
		return err
	}
	defer c.close()

	var run func(context.Context, string) (*pipeline.RunSummary, error)
	switch mode {
	case pipeline.ModeRun:
		run = c.orch.Run
	case pipeline.ModeMigrate:
		run = c.orch.Migrate
	default:
		run = c.orch.Mint
	}

	summary, err := run(ctx, opts.Burner)
	return finishRun(cmd, opts.RootOptions, summary, err)
}

// finishRun prints the summary and maps it to an exit error
func finishRun(cmd *cobra.Command, opts *RootOptions, summary *pipeline.RunSummary, runErr error) error {
	if summary != nil {
		if err := newOutput(cmd, opts.Format).runSummary(summary); err != nil {
			return WrapExitError(ExitCommandError, "failed to write output", err)
		}
	}

	if runErr != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("%s aborted", summaryMode(summary)), runErr)
	}
	if summary.ExitCode == pipeline.ExitFailed {
		return NewExitError(ExitFailure, fmt.Sprintf("%d obligation(s) failed", summary.Failed))
	}
	return nil
}

func summaryMode(summary *pipeline.RunSummary) string {
	if summary == nil {
		return "run"
	}
	return string(summary.Mode)
}

// NewGenerateCommand creates the generate command
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "generate",
		Short:         "Render the settlement report (index.html, obligations.json) from the ledger",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := rootOpts.build(ctx, needs{report: true})
			if err != nil {
				return err
			}
			defer c.close()

			summary, err := c.orch.Generate(ctx)
			return finishRun(cmd, rootOpts, summary, err)
		},
	}

	return cmd
}

type requeueOptions struct {
	*RootOptions
	Kind   string
	BurnID string
}

// NewRequeueCommand creates the requeue command
func NewRequeueCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &requeueOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "requeue",
		Short: "Move failed obligations back to pending",
		Long: `Move failed obligations back to pending so the next mint re-drives them.
Validation failures are requeued only when the burn record now validates.

Example:
  burn-mint requeue --kind rejected
  burn-mint requeue --burn-id 5VfYz...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := domain.ParseFailureKind(opts.Kind)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid --kind", err)
			}

			ctx := cmd.Context()
			n := needs{burns: kind == domain.FailureKindNone || kind == domain.FailureKindValidation}
			c, err := opts.build(ctx, n)
			if err != nil {
				return err
			}
			defer c.close()

			summary, err := c.orch.Requeue(ctx, pipeline.RequeueOptions{FailureKind: kind, BurnID: opts.BurnID})
			return finishRun(cmd, opts.RootOptions, summary, err)
		},
	}

	cmd.Flags().StringVar(&opts.Kind, "kind", "all", "failure kind to requeue (exhausted|rejected|validation|all)")
	cmd.Flags().StringVar(&opts.BurnID, "burn-id", "", "only requeue this burn")
	return cmd
}
