package reporting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"epic-nft-gallery/internal/domain"
	"epic-nft-gallery/internal/storage"
)

// DefaultPassLimit is how many recent passes a report lists.
const DefaultPassLimit = 10

// Generator produces reports from stored data.
type Generator struct {
	snapshotStore storage.SnapshotStore
	passStore     storage.PassStore // optional
	maxSupply     uint64
	passLimit     int
	now           func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator. passStore may be nil.
func NewGenerator(snapshotStore storage.SnapshotStore, passStore storage.PassStore) *Generator {
	return &Generator{
		snapshotStore: snapshotStore,
		passStore:     passStore,
		maxSupply:     domain.DefaultMaxSupply,
		passLimit:     DefaultPassLimit,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// WithMaxSupply sets the collection cap used for mint progress.
func (g *Generator) WithMaxSupply(n uint64) *Generator {
	g.maxSupply = n
	return g
}

// Generate builds a report from the latest stored snapshot of contract.
func (g *Generator) Generate(ctx context.Context, contract string) (*Report, error) {
	snap, err := g.snapshotStore.GetLatest(ctx, contract)
	if err != nil {
		return nil, fmt.Errorf("load latest snapshot: %w", err)
	}
	return g.build(ctx, contract, snap)
}

// GenerateAt builds a report from the stored snapshot of the given pass generation.
func (g *Generator) GenerateAt(ctx context.Context, contract string, generation uint64) (*Report, error) {
	snap, err := g.snapshotStore.GetByGeneration(ctx, contract, generation)
	if err != nil {
		return nil, fmt.Errorf("load snapshot generation %d: %w", generation, err)
	}
	return g.build(ctx, contract, snap)
}

func (g *Generator) build(ctx context.Context, contract string, snap *domain.Snapshot) (*Report, error) {
	report := FromSnapshot(snap, g.maxSupply, g.now())

	if g.passStore != nil {
		passes, err := g.passStore.GetRecent(ctx, contract, g.passLimit)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("load recent passes: %w", err)
		}
		report.Passes = passes
	}

	return report, nil
}

// FromSnapshot builds a report directly from a snapshot.
func FromSnapshot(snap *domain.Snapshot, maxSupply uint64, now time.Time) *Report {
	return &Report{
		GeneratedAt: now,
		Contract:    snap.Contract,
		Account:     snap.Account,
		Summary: Summary{
			Generation:    snap.Generation,
			Trigger:       snap.Trigger,
			Supply:        snap.Supply,
			TotalTokens:   len(snap.View.All),
			OwnedTokens:   len(snap.View.Mine),
			SkippedTokens: len(snap.Skipped),
			Progress:      domain.NewMintProgress(snap.Supply, maxSupply),
			CompletedAt:   snap.CompletedAt,
			Fingerprint:   snap.Fingerprint,
		},
		Owned:   snap.View.Mine,
		Tokens:  snap.View.All,
		Skipped: snap.Skipped,
	}
}
