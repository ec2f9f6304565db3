// Package main provides galleryctl, a command-line client for the MyEpicNFT
// gallery: one-off reconciliation, supply and mint progress, minting and
// reports over stored snapshots.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"epic-nft-gallery/internal/config"
	"epic-nft-gallery/internal/evm"
	"epic-nft-gallery/internal/logging"
	"epic-nft-gallery/internal/nft"
)

// rootOptions are the persistent flags shared by all subcommands.
type rootOptions struct {
	configPath  string
	network     string
	rpcEndpoint string
	contract    string
	account     string
	logLevel    string
	timeout     time.Duration
	maxRetries  int
}

func main() {
	if err := config.LoadEnvFile(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "galleryctl",
		Short: "Inspect and mint MyEpicNFT gallery tokens",
		Long: `galleryctl reads a MyEpicNFT contract over EVM JSON-RPC.

Available subcommands:
  reconcile - Run one reconciliation pass and render the gallery
  supply    - Show minted supply and mint progress
  mint      - Submit makeAnEpicNFT from an account
  report    - Render a report from the latest stored snapshot
  networks  - List built-in networks`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Log.SetOutput(cmd.ErrOrStderr())
			logging.SetLevel(opts.logLevel)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", os.Getenv("GALLERY_CONFIG"), "Path to YAML config file")
	pf.StringVar(&opts.network, "network", "", "Network name (pushDonut, localhost)")
	pf.StringVar(&opts.rpcEndpoint, "rpc-endpoint", "", "EVM JSON-RPC HTTP endpoint")
	pf.StringVar(&opts.contract, "contract", "", "MyEpicNFT contract address")
	pf.StringVar(&opts.account, "account", "", "Connected wallet address")
	pf.StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	pf.DurationVar(&opts.timeout, "timeout", 2*time.Minute, "Operation timeout")
	pf.IntVar(&opts.maxRetries, "max-retries", 3, "RPC retries per call")

	root.AddCommand(
		newReconcileCmd(opts),
		newSupplyCmd(opts),
		newMintCmd(opts),
		newReportCmd(opts),
		newNetworksCmd(opts),
	)
	return root
}

// loadConfig loads the config file and environment, then applies set flags.
func (o *rootOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("network") {
		cfg.Network = o.network
	}
	if flags.Changed("rpc-endpoint") {
		cfg.RPCEndpoint = o.rpcEndpoint
	}
	if flags.Changed("contract") {
		cfg.Contract = o.contract
	}
	if flags.Changed("account") {
		cfg.Account = o.account
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openContract binds the configured contract over HTTP JSON-RPC.
func (o *rootOptions) openContract(cfg *config.Config) (*nft.Contract, error) {
	if cfg.Contract == "" {
		return nil, fmt.Errorf("--contract is required")
	}
	endpoint, err := cfg.HTTPEndpoint()
	if err != nil {
		return nil, err
	}
	rpc := evm.NewHTTPClient(endpoint, evm.WithMaxRetries(o.maxRetries))

	var opts []nft.Option
	if cfg.MintGas > 0 {
		opts = append(opts, nft.WithMintGas(cfg.MintGas))
	}
	return nft.NewContract(rpc, cfg.Contract, opts...)
}

func (o *rootOptions) withTimeout(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), o.timeout)
}
