package main

import (
	"context"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"epic-nft-gallery/internal/reporting"
	"epic-nft-gallery/internal/storage/backend"
)

type reportOptions struct {
	format        string
	output        string
	postgresDSN   string
	clickhouseDSN string
	generation    uint64
}

func newReportCmd(root *rootOptions) *cobra.Command {
	opts := &reportOptions{}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render a report from a stored snapshot",
		Long: `Loads the latest snapshot of --contract from PostgreSQL, or the one
recorded for --generation, and, when ClickHouse is configured, the most
recent reconciliation passes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(opts.format); err != nil {
				return err
			}
			cfg, err := root.loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Contract == "" {
				return fmt.Errorf("--contract is required")
			}

			storageCfg := cfg.Storage
			if opts.postgresDSN != "" {
				storageCfg.PostgresDSN = opts.postgresDSN
			}
			if opts.clickhouseDSN != "" {
				storageCfg.ClickHouseDSN = opts.clickhouseDSN
			}
			if storageCfg.PostgresDSN == "" || storageCfg.UseMemory {
				return fmt.Errorf("report needs --postgres-dsn (in-memory storage has no history)")
			}

			ctx, cancel := root.withTimeout(cmd)
			defer cancel()

			stores, err := backend.Open(ctx, storageCfg)
			if err != nil {
				return err
			}
			defer stores.Close()

			gen := reporting.NewGenerator(stores.Snapshots, stores.Passes).WithMaxSupply(cfg.MaxSupply)
			var at *uint64
			if cmd.Flags().Changed("generation") {
				at = &opts.generation
			}
			report, err := generateReport(ctx, gen, common.HexToAddress(cfg.Contract).Hex(), at)
			if err != nil {
				return err
			}

			return writeOutput(cmd, opts.output, func(w io.Writer) error {
				return renderReport(w, opts.format, report)
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.format, "format", formatMarkdown, "Output format: markdown, csv, json")
	f.StringVarP(&opts.output, "output", "o", "", "Write to file instead of stdout")
	f.StringVar(&opts.postgresDSN, "postgres-dsn", "", "PostgreSQL connection string")
	f.StringVar(&opts.clickhouseDSN, "clickhouse-dsn", "", "ClickHouse connection string")
	f.Uint64Var(&opts.generation, "generation", 0, "Report the snapshot of this pass generation instead of the latest")
	return cmd
}

// generateReport reports the latest snapshot, or the one of generation when set.
func generateReport(ctx context.Context, gen *reporting.Generator, contract string, generation *uint64) (*reporting.Report, error) {
	if generation != nil {
		return gen.GenerateAt(ctx, contract, *generation)
	}
	return gen.Generate(ctx, contract)
}
