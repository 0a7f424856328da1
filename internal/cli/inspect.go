package cli

import (
	"github.com/spf13/cobra"

	"github.com/feral-file/ff-burn-mint/internal/domain"
	"github.com/feral-file/ff-burn-mint/internal/store"
)

type obligationsOptions struct {
	*RootOptions
	Statuses  []string
	Kind      string
	Recipient string
	BurnIDs   []string
	Limit     int
	Offset    int
}

// NewObligationsCommand creates the obligations command
func NewObligationsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &obligationsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "obligations",
		Short: "List ledger obligations",
		Long: `List ledger obligations in settlement order.

Example:
  burn-mint obligations --status failed --kind rejected
  burn-mint obligations --recipient 0x1111111111111111111111111111111111111111 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := store.ObligationFilter{
				Recipient: opts.Recipient,
				BurnIDs:   opts.BurnIDs,
				Limit:     opts.Limit,
				Offset:    opts.Offset,
			}
			for _, s := range opts.Statuses {
				status, err := domain.ParseObligationStatus(s)
				if err != nil {
					return WrapExitError(ExitCommandError, "invalid --status", err)
				}
				filter.Statuses = append(filter.Statuses, status)
			}
			kind, err := domain.ParseFailureKind(opts.Kind)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid --kind", err)
			}
			filter.FailureKind = kind

			ctx := cmd.Context()
			c, err := opts.build(ctx, needs{})
			if err != nil {
				return err
			}
			defer c.close()

			obligations, err := c.orch.Obligations(ctx, filter)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to list obligations", err)
			}
			return newOutput(cmd, opts.Format).obligations(obligations)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Statuses, "status", nil, "filter by status (pending|submitted|confirmed|failed), repeatable")
	cmd.Flags().StringVar(&opts.Kind, "kind", "all", "filter failed obligations by failure kind")
	cmd.Flags().StringVar(&opts.Recipient, "recipient", "", "filter by recipient address")
	cmd.Flags().StringSliceVar(&opts.BurnIDs, "burn-id", nil, "filter by burn id, repeatable")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum rows (0 means all)")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "rows to skip")
	return cmd
}

type statsOptions struct {
	*RootOptions
	Wallets bool
}

// NewStatsCommand creates the stats command
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &statsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "stats",
		Short:         "Print ledger statistics and the last run",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := opts.build(ctx, needs{})
			if err != nil {
				return err
			}
			defer c.close()

			stats, err := c.orch.Statistics(ctx)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read statistics", err)
			}
			last, err := c.orch.LastRun(ctx)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read last run", err)
			}

			var wallets []store.WalletSummary
			if opts.Wallets {
				wallets, err = c.orch.WalletSummaries(ctx)
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to read wallet summaries", err)
				}
			}

			return newOutput(cmd, opts.Format).statistics(stats, wallets, last)
		},
	}

	cmd.Flags().BoolVar(&opts.Wallets, "wallets", false, "include per-wallet totals")
	return cmd
}
