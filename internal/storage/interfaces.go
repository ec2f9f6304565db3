package storage

import (
	"context"

	"epic-nft-gallery/internal/domain"
)

// SnapshotStore provides access to gallery_snapshots storage.
type SnapshotStore interface {
	// Save stores a published snapshot with its token records.
	// Returns ErrDuplicateKey if (contract, generation, started_at) exists.
	Save(ctx context.Context, s *domain.Snapshot) error

	// GetLatest retrieves the most recently completed snapshot for a contract.
	// Returns ErrNotFound if none exists.
	GetLatest(ctx context.Context, contract string) (*domain.Snapshot, error)

	// GetByGeneration retrieves the latest snapshot with the given generation.
	// Returns ErrNotFound if none exists.
	GetByGeneration(ctx context.Context, contract string, generation uint64) (*domain.Snapshot, error)
}

// PassStore provides access to reconcile_passes analytics storage.
type PassStore interface {
	// Insert appends a pass record.
	Insert(ctx context.Context, p *domain.PassRecord) error

	// GetRecent retrieves up to limit passes for a contract, newest first.
	GetRecent(ctx context.Context, contract string, limit int) ([]*domain.PassRecord, error)
}
