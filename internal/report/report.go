package report

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/feral-file/ff-burn-mint/internal/adapter"
	"github.com/feral-file/ff-burn-mint/internal/config"
	"github.com/feral-file/ff-burn-mint/internal/domain"
	"github.com/feral-file/ff-burn-mint/internal/logger"
	"github.com/feral-file/ff-burn-mint/internal/store"
	"github.com/feral-file/ff-burn-mint/internal/store/schema"
)

const (
	HTMLFile   = "index.html"
	JSONFile   = "obligations.json"
	DigestFile = "obligations.json.sha256"

	defaultTitle = "Burn Settlement Report"
	displayTime  = "2006-01-02 15:04"
)

//go:embed templates/index.html.tmpl
var indexTemplate string

// Result describes the files written by Generate
type Result struct {
	OutputDir   string
	HTMLPath    string
	JSONPath    string
	Digest      string
	Obligations int
}

// Generator renders the ledger into a static report
type Generator interface {
	Generate(ctx context.Context) (*Result, error)
}

type generator struct {
	cfg   config.ReportConfig
	store store.Store
	fs    adapter.FileSystem
	json  adapter.JSON
	jcs   adapter.JCS
	clock adapter.Clock
	tmpl  *template.Template
}

// NewGenerator creates a report generator that reads only from the ledger
func NewGenerator(cfg config.ReportConfig, st store.Store, fs adapter.FileSystem, jsonAdapter adapter.JSON, jcsAdapter adapter.JCS, clock adapter.Clock) (Generator, error) {
	tmpl, err := template.New("index").Funcs(template.FuncMap{
		"short": shorten,
	}).Parse(indexTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse report template: %w", err)
	}

	if cfg.OutputDir == "" {
		cfg.OutputDir = "output"
	}
	if cfg.Title == "" {
		cfg.Title = defaultTitle
	}

	return &generator{
		cfg:   cfg,
		store: st,
		fs:    fs,
		json:  jsonAdapter,
		jcs:   jcsAdapter,
		clock: clock,
		tmpl:  tmpl,
	}, nil
}

// Document is the machine-readable export
type Document struct {
	GeneratedAt time.Time       `json:"generated_at"`
	Statistics  StatisticsView  `json:"statistics"`
	Wallets     []WalletView    `json:"wallets"`
	Obligations []ObligationRow `json:"obligations"`
}

type StatisticsView struct {
	TotalRecords      int64            `json:"total_records"`
	TotalBurnedAmount string           `json:"total_burned_amount"`
	TotalMintedAmount string           `json:"total_minted_amount"`
	UniqueWallets     int64            `json:"unique_wallets"`
	Pending           int64            `json:"pending"`
	Submitted         int64            `json:"submitted"`
	Confirmed         int64            `json:"confirmed"`
	Failed            int64            `json:"failed"`
	FailedByKind      map[string]int64 `json:"failed_by_kind"`
}

type WalletView struct {
	WalletAddress string  `json:"wallet_address"`
	TotalBurned   string  `json:"total_burned"`
	TotalMinted   string  `json:"total_minted"`
	BurnCount     int64   `json:"burn_count"`
	MintCount     int64   `json:"mint_count"`
	FirstBurn     *string `json:"first_burn,omitempty"`
	LastMint      *string `json:"last_mint,omitempty"`
}

type ObligationRow struct {
	BurnID      string                  `json:"burn_id"`
	Recipient   string                  `json:"recipient"`
	BurnAmount  string                  `json:"burn_amount"`
	MintAmount  string                  `json:"mint_amount"`
	ObservedAt  string                  `json:"observed_at"`
	Status      domain.ObligationStatus `json:"status"`
	FailureKind domain.FailureKind      `json:"failure_kind,omitempty"`
	Attempts    int                     `json:"attempts"`
	TxReference *string                 `json:"tx_reference,omitempty"`
	LastError   *string                 `json:"last_error,omitempty"`
	ConfirmedAt *string                 `json:"confirmed_at,omitempty"`
}

type pageData struct {
	Title       string
	LastUpdated string
	Digest      string
	Doc         Document
}

// Generate writes index.html, obligations.json and its digest into the output directory
func (g *generator) Generate(ctx context.Context) (*Result, error) {
	doc, err := g.buildDocument(ctx)
	if err != nil {
		return nil, err
	}

	raw, err := g.json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	canonical, err := g.jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize report: %w", err)
	}
	digest, err := g.jcs.Digest(canonical)
	if err != nil {
		return nil, fmt.Errorf("failed to digest report: %w", err)
	}

	var html bytes.Buffer
	if err := g.tmpl.Execute(&html, pageData{
		Title:       g.cfg.Title,
		LastUpdated: doc.GeneratedAt.Format("2006-01-02 15:04:05 UTC"),
		Digest:      digest,
		Doc:         *doc,
	}); err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}

	if err := g.fs.MkdirAll(g.cfg.OutputDir); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &Result{
		OutputDir:   g.cfg.OutputDir,
		HTMLPath:    filepath.Join(g.cfg.OutputDir, HTMLFile),
		JSONPath:    filepath.Join(g.cfg.OutputDir, JSONFile),
		Digest:      digest,
		Obligations: len(doc.Obligations),
	}

	files := []struct {
		path string
		data []byte
	}{
		{result.JSONPath, canonical},
		{filepath.Join(g.cfg.OutputDir, DigestFile), []byte(digest + "  " + JSONFile + "\n")},
		{result.HTMLPath, html.Bytes()},
	}
	for _, f := range files {
		if err := g.fs.WriteFile(f.path, f.data); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", f.path, err)
		}
	}

	logger.InfoCtx(ctx, "Report generated",
		zap.String("outputDir", result.OutputDir),
		zap.Int("obligations", result.Obligations),
		zap.String("digest", digest))

	return result, nil
}

func (g *generator) buildDocument(ctx context.Context) (*Document, error) {
	stats, err := g.store.GetStatistics(ctx)
	if err != nil {
		return nil, domain.NewStorageError("get statistics", err)
	}
	wallets, err := g.store.GetWalletSummaries(ctx)
	if err != nil {
		return nil, domain.NewStorageError("get wallet summaries", err)
	}
	obligations, err := g.store.ListObligations(ctx, store.ObligationFilter{})
	if err != nil {
		return nil, domain.NewStorageError("list obligations", err)
	}

	doc := &Document{
		GeneratedAt: g.clock.Now().UTC().Truncate(time.Second),
		Statistics:  toStatisticsView(stats),
		Wallets:     make([]WalletView, 0, len(wallets)),
		Obligations: make([]ObligationRow, 0, len(obligations)),
	}
	for _, w := range wallets {
		doc.Wallets = append(doc.Wallets, toWalletView(w))
	}
	for _, o := range obligations {
		doc.Obligations = append(doc.Obligations, toObligationRow(o))
	}

	return doc, nil
}

func toStatisticsView(s *store.Statistics) StatisticsView {
	view := StatisticsView{
		TotalRecords:      s.TotalRecords,
		TotalBurnedAmount: s.TotalBurnedAmount.String(),
		TotalMintedAmount: s.TotalMintedAmount.String(),
		UniqueWallets:     s.UniqueWallets,
		Pending:           s.Pending,
		Submitted:         s.Submitted,
		Confirmed:         s.Confirmed,
		Failed:            s.Failed,
		FailedByKind:      make(map[string]int64, len(s.FailedByKind)),
	}
	for kind, n := range s.FailedByKind {
		view.FailedByKind[string(kind)] = n
	}
	return view
}

func toWalletView(w store.WalletSummary) WalletView {
	return WalletView{
		WalletAddress: w.WalletAddress,
		TotalBurned:   w.TotalBurned.String(),
		TotalMinted:   w.TotalMinted.String(),
		BurnCount:     w.BurnCount,
		MintCount:     w.MintCount,
		FirstBurn:     formatTime(w.FirstBurn),
		LastMint:      formatTime(w.LastMint),
	}
}

func toObligationRow(o schema.Obligation) ObligationRow {
	observed := o.ObservedAt.UTC().Format(displayTime)
	return ObligationRow{
		BurnID:      o.BurnID,
		Recipient:   o.Recipient,
		BurnAmount:  o.BurnAmount.String(),
		MintAmount:  o.MintAmount.String(),
		ObservedAt:  observed,
		Status:      o.Status,
		FailureKind: o.FailureKind,
		Attempts:    o.Attempts,
		TxReference: o.TxReference,
		LastError:   o.LastError,
		ConfirmedAt: formatTime(o.ConfirmedAt),
	}
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(displayTime)
	return &s
}

// shorten keeps the head and tail of long identifiers for table display
func shorten(s string) string {
	if len(s) <= 14 {
		return s
	}
	return s[:6] + "…" + s[len(s)-6:]
}
