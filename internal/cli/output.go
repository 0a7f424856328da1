package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/feral-file/ff-burn-mint/internal/adapter"
	"github.com/feral-file/ff-burn-mint/internal/domain"
	"github.com/feral-file/ff-burn-mint/internal/pipeline"
	"github.com/feral-file/ff-burn-mint/internal/store"
	"github.com/feral-file/ff-burn-mint/internal/store/schema"
)

const outputTime = "2006-01-02 15:04:05"

var failureKinds = []domain.FailureKind{
	domain.FailureKindValidation,
	domain.FailureKindRejected,
	domain.FailureKindExhausted,
}

// outputFormatter renders command results as text or JSON
type outputFormatter struct {
	format string
	w      io.Writer
	json   adapter.JSON
	p      *message.Printer
}

func newOutput(cmd *cobra.Command, format string) *outputFormatter {
	return newFormatter(cmd.OutOrStdout(), format)
}

func newFormatter(w io.Writer, format string) *outputFormatter {
	return &outputFormatter{
		format: format,
		w:      w,
		json:   adapter.NewJSON(),
		p:      message.NewPrinter(language.English),
	}
}

func (f *outputFormatter) writeJSON(v any) error {
	data, err := f.json.MarshalIndent(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(f.w, string(data))
	return err
}

func (f *outputFormatter) runSummary(s *pipeline.RunSummary) error {
	if f.format == "json" {
		return f.writeJSON(s)
	}

	f.p.Fprintf(f.w, "Run %s (%s) finished in %s, exit code %d\n",
		s.RunID, s.Mode, s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond), s.ExitCode)
	if s.Burner != "" {
		f.p.Fprintf(f.w, "Burner:     %s\n", s.Burner)
	}
	if m := s.Migration; m != nil {
		f.p.Fprintf(f.w, "Migration:  scanned %d, inserted %d, validation failed %d, below minimum %d, already present %d, duplicates %d\n",
			m.Scanned, m.Inserted, m.ValidationFailed, m.BelowMinimum, m.AlreadyPresent, m.Duplicates)
	}
	if s.Actionable != nil {
		f.p.Fprintf(f.w, "Actionable: %d\n", *s.Actionable)
	}
	if m := s.Mint; m != nil {
		f.p.Fprintf(f.w, "Mint:       recovered %d, dispatched %d, confirmed %d, failed %d, in flight %d, released %d, skipped %d\n",
			m.Recovered, m.Dispatched, m.Confirmed, m.Failed, m.InFlight, m.Released, m.Skipped)
		if m.Interrupted {
			f.p.Fprintf(f.w, "            interrupted: unstarted obligations stay pending\n")
		}
	}
	if s.Requeued != nil {
		f.p.Fprintf(f.w, "Requeued:   %d\n", *s.Requeued)
	}
	if s.Revalidated != nil {
		f.p.Fprintf(f.w, "Revalidated: %d\n", *s.Revalidated)
	}
	if s.ReportDir != "" {
		f.p.Fprintf(f.w, "Report:     %s\n", s.ReportDir)
	}
	f.p.Fprintf(f.w, "Ledger:     confirmed %d, failed %d, pending %d, in flight %d\n",
		s.Confirmed, s.Failed, s.Pending, s.InFlight)
	if s.Error != "" {
		f.p.Fprintf(f.w, "Error:      %s\n", s.Error)
	}
	return nil
}

type statisticsOutput struct {
	Statistics *store.Statistics     `json:"statistics"`
	Wallets    []store.WalletSummary `json:"wallets,omitempty"`
	LastRun    *pipeline.RunSummary  `json:"last_run,omitempty"`
}

func (f *outputFormatter) statistics(stats *store.Statistics, wallets []store.WalletSummary, last *pipeline.RunSummary) error {
	if f.format == "json" {
		return f.writeJSON(statisticsOutput{Statistics: stats, Wallets: wallets, LastRun: last})
	}

	f.p.Fprintf(f.w, "Records:         %d\n", stats.TotalRecords)
	f.p.Fprintf(f.w, "Total burned:    %s\n", stats.TotalBurnedAmount.String())
	f.p.Fprintf(f.w, "Total minted:    %s\n", stats.TotalMintedAmount.String())
	f.p.Fprintf(f.w, "Unique wallets:  %d\n", stats.UniqueWallets)
	f.p.Fprintf(f.w, "Pending:         %d\n", stats.Pending)
	f.p.Fprintf(f.w, "In flight:       %d\n", stats.Submitted)
	f.p.Fprintf(f.w, "Confirmed:       %d\n", stats.Confirmed)
	f.p.Fprintf(f.w, "Failed:          %d%s\n", stats.Failed, f.failureBreakdown(stats.FailedByKind))

	if last != nil {
		f.p.Fprintf(f.w, "Last run:        %s (%s) at %s, exit code %d\n",
			last.RunID, last.Mode, last.FinishedAt.UTC().Format(outputTime), last.ExitCode)
	}

	if len(wallets) == 0 {
		return nil
	}

	fmt.Fprintln(f.w)
	tw := tabwriter.NewWriter(f.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WALLET\tBURNED\tMINTED\tBURNS\tMINTS\tLAST MINT")
	for _, w := range wallets {
		lastMint := "-"
		if w.LastMint != nil {
			lastMint = w.LastMint.UTC().Format(outputTime)
		}
		f.p.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
			w.WalletAddress, w.TotalBurned.String(), w.TotalMinted.String(), w.BurnCount, w.MintCount, lastMint)
	}
	return tw.Flush()
}

func (f *outputFormatter) failureBreakdown(byKind map[domain.FailureKind]int64) string {
	var parts []string
	for _, kind := range failureKinds {
		if n := byKind[kind]; n > 0 {
			parts = append(parts, f.p.Sprintf("%s %d", kind, n))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

func (f *outputFormatter) obligations(list []schema.Obligation) error {
	if f.format == "json" {
		return f.writeJSON(list)
	}

	tw := tabwriter.NewWriter(f.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "BURN ID\tRECIPIENT\tMINT AMOUNT\tOBSERVED\tSTATUS\tATTEMPTS\tTX")
	for _, o := range list {
		status := string(o.Status)
		if o.FailureKind != domain.FailureKindNone {
			status += "/" + string(o.FailureKind)
		}
		tx := "-"
		if o.TxReference != nil {
			tx = *o.TxReference
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			o.BurnID, o.Recipient, o.MintAmount.String(), o.ObservedAt.UTC().Format(outputTime), status, o.Attempts, tx)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	f.p.Fprintf(f.w, "%d obligation(s)\n", len(list))
	return nil
}
