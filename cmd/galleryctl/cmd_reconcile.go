package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"epic-nft-gallery/internal/config"
	"epic-nft-gallery/internal/domain"
	"epic-nft-gallery/internal/gallery"
	"epic-nft-gallery/internal/reporting"
	"epic-nft-gallery/internal/storage/backend"
)

// Output formats.
const (
	formatMarkdown = "markdown"
	formatCSV      = "csv"
	formatJSON     = "json"
)

type reconcileOptions struct {
	concurrency   int
	format        string
	output        string
	save          bool
	postgresDSN   string
	clickhouseDSN string
}

func newReconcileCmd(root *rootOptions) *cobra.Command {
	opts := &reconcileOptions{}

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Run one reconciliation pass and render the gallery",
		Long: `Reads the minted supply, fetches every token URI and owner, and renders
the resulting gallery. Tokens whose URI is not a base64 JSON data URI, or
whose metadata cannot be decoded, are listed as skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconcile(cmd, root, opts)
		},
	}

	f := cmd.Flags()
	f.IntVar(&opts.concurrency, "concurrency", 0, "Token reads in flight (default from config)")
	f.StringVar(&opts.format, "format", formatMarkdown, "Output format: markdown, csv, json")
	f.StringVarP(&opts.output, "output", "o", "", "Write to file instead of stdout")
	f.BoolVar(&opts.save, "save", false, "Persist the snapshot to configured storage")
	f.StringVar(&opts.postgresDSN, "postgres-dsn", "", "PostgreSQL connection string")
	f.StringVar(&opts.clickhouseDSN, "clickhouse-dsn", "", "ClickHouse connection string")
	return cmd
}

func runReconcile(cmd *cobra.Command, root *rootOptions, opts *reconcileOptions) error {
	if err := checkFormat(opts.format); err != nil {
		return err
	}
	cfg, err := root.loadConfig(cmd)
	if err != nil {
		return err
	}
	contract, err := root.openContract(cfg)
	if err != nil {
		return err
	}
	concurrency := cfg.Concurrency
	if opts.concurrency > 0 {
		concurrency = opts.concurrency
	}

	ctx, cancel := root.withTimeout(cmd)
	defer cancel()

	started := time.Now()
	supply, err := contract.TotalMinted(ctx)
	if err != nil {
		return fmt.Errorf("read supply: %w", err)
	}

	reconciler := gallery.NewReconciler(
		gallery.WithConcurrency(concurrency),
		gallery.WithSupplyLimit(cfg.SupplyLimit()),
	)
	result, err := reconciler.Reconcile(ctx, supply, gallery.ContractReader(contract), cfg.Account)
	if err != nil {
		return fmt.Errorf("reconcile: %w", err)
	}
	completed := time.Now()

	snap := &domain.Snapshot{
		Generation:  1,
		Contract:    contract.Address(),
		Account:     cfg.Account,
		Supply:      supply,
		View:        result.View,
		Skipped:     result.Skipped,
		Trigger:     domain.TriggerManual,
		Fingerprint: gallery.Fingerprint(result.View.All),
		StartedAt:   started.UnixMilli(),
		CompletedAt: completed.UnixMilli(),
	}

	if opts.save {
		if err := saveSnapshot(cmd, cfg, opts, snap); err != nil {
			return err
		}
	}

	report := reporting.FromSnapshot(snap, cfg.MaxSupply, completed.UTC())
	return writeOutput(cmd, opts.output, func(w io.Writer) error {
		return renderReport(w, opts.format, report)
	})
}

func saveSnapshot(cmd *cobra.Command, cfg *config.Config, opts *reconcileOptions, snap *domain.Snapshot) error {
	storageCfg := cfg.Storage
	if opts.postgresDSN != "" {
		storageCfg.PostgresDSN = opts.postgresDSN
	}
	if opts.clickhouseDSN != "" {
		storageCfg.ClickHouseDSN = opts.clickhouseDSN
	}
	if storageCfg.PostgresDSN == "" {
		return fmt.Errorf("--save needs --postgres-dsn or storage.postgres_dsn")
	}

	stores, err := backend.Open(cmd.Context(), storageCfg)
	if err != nil {
		return err
	}
	defer stores.Close()

	if err := stores.Snapshots.Save(cmd.Context(), snap); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	pass := domain.NewPassRecord(snap, domain.PassCompleted)
	if err := stores.Passes.Insert(cmd.Context(), &pass); err != nil {
		return fmt.Errorf("save pass: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Saved snapshot to %s storage\n", stores.Kind)
	return nil
}

func checkFormat(format string) error {
	switch format {
	case formatMarkdown, formatCSV, formatJSON:
		return nil
	}
	return fmt.Errorf("unknown format %q (want markdown, csv or json)", format)
}

func renderReport(w io.Writer, format string, report *reporting.Report) error {
	switch format {
	case formatMarkdown:
		_, err := io.WriteString(w, reporting.RenderMarkdown(report))
		return err
	case formatCSV:
		out, err := reporting.RenderCSV(report.Tokens)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, out)
		return err
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	default:
		return checkFormat(format)
	}
}

// writeOutput runs render against stdout or the named file.
func writeOutput(cmd *cobra.Command, path string, render func(io.Writer) error) error {
	if path == "" {
		return render(cmd.OutOrStdout())
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := render(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", path)
	return nil
}
