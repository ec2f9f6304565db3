package gallery

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"epic-nft-gallery/internal/domain"
	"epic-nft-gallery/internal/storage"
	"epic-nft-gallery/internal/storage/memory"
)

func persistSnapshot(gen uint64, fingerprint string) *domain.Snapshot {
	return &domain.Snapshot{
		Generation:  gen,
		Contract:    "0xcontract",
		Trigger:     domain.TriggerPoll,
		Fingerprint: fingerprint,
		View:        emptyView(),
		StartedAt:   int64(gen) * 1000,
		CompletedAt: int64(gen)*1000 + 5,
	}
}

func TestPersister_SkipsIdenticalViews(t *testing.T) {
	ctx := context.Background()
	snaps := memory.NewSnapshotStore()
	passes := memory.NewPassStore()
	hook := NewPersister(snaps, passes).Hook()

	hook(ctx, persistSnapshot(1, "aaa"), domain.PassCompleted)
	hook(ctx, persistSnapshot(2, "aaa"), domain.PassCompleted)
	hook(ctx, persistSnapshot(3, "bbb"), domain.PassCompleted)

	_, err := snaps.GetByGeneration(ctx, "0xcontract", 2)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	latest, err := snaps.GetLatest(ctx, "0xcontract")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), latest.Generation)

	recent, err := passes.GetRecent(ctx, "0xcontract", 10)
	require.NoError(t, err)
	assert.Len(t, recent, 3)
}

func TestPersister_OnlyCompletedSnapshotsSaved(t *testing.T) {
	ctx := context.Background()
	snaps := memory.NewSnapshotStore()
	passes := memory.NewPassStore()
	hook := NewPersister(snaps, passes).Hook()

	hook(ctx, persistSnapshot(1, ""), domain.PassFailed)
	hook(ctx, persistSnapshot(2, ""), domain.PassSuperseded)

	_, err := snaps.GetLatest(ctx, "0xcontract")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	recent, err := passes.GetRecent(ctx, "0xcontract", 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, domain.PassSuperseded, recent[0].Status)
	assert.Equal(t, domain.PassFailed, recent[1].Status)
}

func TestPersister_NoContractIgnored(t *testing.T) {
	passes := memory.NewPassStore()
	hook := NewPersister(nil, passes).Hook()

	hook(context.Background(), &domain.Snapshot{Trigger: domain.TriggerManual}, domain.PassEmpty)

	recent, err := passes.GetRecent(context.Background(), "", 10)
	require.NoError(t, err)
	assert.Empty(t, recent)
}
