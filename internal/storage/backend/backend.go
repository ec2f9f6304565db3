// Package backend opens the snapshot and pass stores selected by config.
package backend

import (
	"context"
	"fmt"

	"epic-nft-gallery/internal/config"
	"epic-nft-gallery/internal/logging"
	"epic-nft-gallery/internal/storage"
	chstore "epic-nft-gallery/internal/storage/clickhouse"
	"epic-nft-gallery/internal/storage/memory"
	"epic-nft-gallery/internal/storage/migrations"
	pgstore "epic-nft-gallery/internal/storage/postgres"
)

// Stores bundles the open stores and their cleanup.
type Stores struct {
	Snapshots storage.SnapshotStore
	Passes    storage.PassStore
	Kind      string // "memory", "postgres" or "postgres+clickhouse"

	closers []func()
}

// Close releases connections in reverse open order.
func (s *Stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// Memory returns in-memory stores.
func Memory() *Stores {
	return &Stores{
		Snapshots: memory.NewSnapshotStore(),
		Passes:    memory.NewPassStore(),
		Kind:      "memory",
	}
}

// Open connects to the configured databases and applies migrations.
// Without a Postgres DSN, or with use_memory set, memory stores are used.
// Pass records go to ClickHouse when it is configured, else to memory.
func Open(ctx context.Context, cfg config.Storage) (*Stores, error) {
	log := logging.Module("storage")
	if cfg.UseMemory || cfg.PostgresDSN == "" {
		log.Info("using in-memory storage")
		return Memory(), nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	stores := &Stores{Kind: "postgres"}
	stores.closers = append(stores.closers, pool.Close)

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		stores.Close()
		return nil, fmt.Errorf("postgres migrations: %w", err)
	}
	stores.Snapshots = pgstore.NewSnapshotStore(pool)
	stores.Passes = memory.NewPassStore()

	if cfg.ClickHouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickHouseDSN)
		if err != nil {
			stores.Close()
			return nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		stores.closers = append(stores.closers, func() { _ = conn.Close() })
		stores.Passes = chstore.NewPassStore(conn)
		stores.Kind = "postgres+clickhouse"
	}

	log.WithField("kind", stores.Kind).Info("storage ready")
	return stores, nil
}
