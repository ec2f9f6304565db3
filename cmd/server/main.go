// Package main runs the gallery service:
// - Watcher (continuous): supply polling, Transfer subscriptions, reconciliation passes
// - Persistence: snapshots to PostgreSQL, pass analytics to ClickHouse
// - HTTP API: gallery, mint flow, notifications, metrics
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"epic-nft-gallery/internal/api"
	"epic-nft-gallery/internal/config"
	"epic-nft-gallery/internal/evm"
	"epic-nft-gallery/internal/gallery"
	"epic-nft-gallery/internal/logging"
	"epic-nft-gallery/internal/mint"
	"epic-nft-gallery/internal/nft"
	"epic-nft-gallery/internal/notify"
	"epic-nft-gallery/internal/storage/backend"
)

// Server holds all components of the service.
type Server struct {
	cfg     *config.Config
	network config.Network

	rpc      *evm.HTTPClient
	contract *nft.Contract
	watcher  *gallery.Watcher
	minter   *mint.Service
	hub      *notify.Hub
	stores   *backend.Stores
	api      *api.Server

	log *logrus.Entry
}

func main() {
	os.Exit(run(os.Args[1:]))
}

// run returns the process exit code so deferred cleanup completes before exit.
func run(args []string) int {
	log := logging.Module("server")

	if err := config.LoadEnvFile(".env"); err != nil {
		log.WithError(err).Warn("ignoring .env")
	}

	cfg, err := loadConfig(args)
	if err != nil {
		log.WithError(err).Error("load config")
		return 2
	}
	logging.SetLevel(cfg.Log.Level)

	if cfg.Contract == "" {
		log.Error("--contract is required")
		return 2
	}
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Error("invalid config")
		return 2
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server, err := newServer(ctx, cfg)
	if err != nil {
		log.WithError(err).Error("init server")
		return 1
	}
	defer server.stores.Close()

	// Channel to signal completion
	done := make(chan error, 1)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			log.Infof("received signal %v, initiating graceful shutdown", sig)
		case <-done:
			return
		}
		cancel()

		// Second signal or timeout forces exit
		select {
		case sig := <-sigCh:
			log.Warnf("received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			log.Warn("graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	err = server.Run(ctx)
	close(done)
	cancel()

	if err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Error("server error")
		return 1
	}
	log.Info("shutdown complete")
	return 0
}

// loadConfig reads the YAML file named by --config, then applies set flags.
func loadConfig(args []string) (*config.Config, error) {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	configPath := fs.String("config", os.Getenv("GALLERY_CONFIG"), "Path to YAML config file")
	network := fs.String("network", "", "Network name (pushDonut, localhost)")
	contract := fs.String("contract", "", "MyEpicNFT contract address")
	account := fs.String("account", "", "Connected wallet address")
	rpcEndpoint := fs.String("rpc-endpoint", "", "EVM JSON-RPC HTTP endpoint")
	wsEndpoint := fs.String("ws-endpoint", "", "EVM JSON-RPC WebSocket endpoint")
	postgresDSN := fs.String("postgres-dsn", "", "PostgreSQL connection string")
	clickhouseDSN := fs.String("clickhouse-dsn", "", "ClickHouse connection string")
	useMemory := fs.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	listen := fs.String("listen", "", "HTTP listen address")
	pollInterval := fs.Duration("poll-interval", 0, "Supply polling interval")
	concurrency := fs.Int("concurrency", 0, "Token reads in flight per pass")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "network":
			cfg.Network = *network
		case "contract":
			cfg.Contract = *contract
		case "account":
			cfg.Account = *account
		case "rpc-endpoint":
			cfg.RPCEndpoint = *rpcEndpoint
		case "ws-endpoint":
			cfg.WSEndpoint = *wsEndpoint
		case "postgres-dsn":
			cfg.Storage.PostgresDSN = *postgresDSN
		case "clickhouse-dsn":
			cfg.Storage.ClickHouseDSN = *clickhouseDSN
		case "use-memory":
			cfg.Storage.UseMemory = *useMemory
		case "listen":
			cfg.ListenAddr = *listen
		case "poll-interval":
			cfg.PollInterval = *pollInterval
		case "concurrency":
			cfg.Concurrency = *concurrency
		case "log-level":
			cfg.Log.Level = *logLevel
		}
	})
	return cfg, nil
}

func newServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	network, err := cfg.ResolveNetwork()
	if err != nil {
		return nil, err
	}
	endpoint, err := cfg.HTTPEndpoint()
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:     cfg,
		network: network,
		rpc:     evm.NewHTTPClient(endpoint),
		hub:     notify.NewHub(notify.DefaultCapacity),
		log:     logging.Module("server"),
	}

	var opts []nft.Option
	if cfg.MintGas > 0 {
		opts = append(opts, nft.WithMintGas(cfg.MintGas))
	}
	s.contract, err = nft.NewContract(s.rpc, cfg.Contract, opts...)
	if err != nil {
		return nil, err
	}

	s.stores, err = backend.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	s.watcher = gallery.NewWatcher(
		gallery.WithPollInterval(cfg.PollInterval),
		gallery.WithNotifier(s.hub),
		gallery.WithReconciler(gallery.NewReconciler(
			gallery.WithConcurrency(cfg.Concurrency),
			gallery.WithSupplyLimit(cfg.SupplyLimit()),
		)),
	)
	s.watcher.OnSnapshot(gallery.NewPersister(s.stores.Snapshots, s.stores.Passes).Hook())
	s.watcher.SetContract(s.contract, s.contract.Address())
	s.watcher.SetAccount(cfg.Account)

	s.minter = mint.NewService(s.contract, s.hub,
		mint.WithMaxSupply(cfg.MaxSupply),
		mint.WithRefresher(s.watcher),
	)
	s.api = api.NewServer(s.watcher, s.minter, s.hub)

	return s, nil
}

// Run starts all components and blocks until ctx is cancelled or one fails.
func (s *Server) Run(ctx context.Context) error {
	s.log.WithFields(logrus.Fields{
		"network":  s.network.Name,
		"endpoint": s.rpc.Endpoint(),
		"contract": s.contract.Address(),
		"storage":  s.stores.Kind,
	}).Info("starting gallery server")

	s.checkChainID(ctx)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := s.watcher.Run(ctx); err != nil {
			return fmt.Errorf("watcher: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := s.api.Run(ctx, s.cfg.ListenAddr); err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if endpoint := s.wsEndpoint(); endpoint != "" {
		g.Go(func() error {
			s.runTransferWatch(ctx, endpoint)
			return nil
		})
	}

	return g.Wait()
}

// runTransferWatch turns Transfer logs into watcher triggers. Polling keeps
// the gallery current when the subscription is unavailable.
func (s *Server) runTransferWatch(ctx context.Context, endpoint string) {
	ws, err := evm.NewWSClient(ctx, endpoint, nil)
	if err != nil {
		s.log.WithError(err).Warn("websocket unavailable, relying on polling")
		return
	}
	defer ws.Close()

	if err := s.watcher.WatchTransfers(ctx, ws, s.contract.Address()); err != nil && !errors.Is(err, context.Canceled) {
		s.log.WithError(err).Warn("transfer subscription ended")
	}
}

func (s *Server) wsEndpoint() string {
	if s.cfg.WSEndpoint != "" {
		return s.cfg.WSEndpoint
	}
	if s.cfg.RPCEndpoint != "" {
		return ""
	}
	return s.network.WSURL
}

func (s *Server) checkChainID(ctx context.Context) {
	id, err := s.rpc.ChainID(ctx)
	if err != nil {
		s.log.WithError(err).Warn("could not read chain id")
		return
	}
	if s.network.ChainID != 0 && id != s.network.ChainID {
		s.log.WithFields(logrus.Fields{
			"expected": s.network.ChainID,
			"actual":   id,
		}).Warn("endpoint chain id does not match network")
	}
}
