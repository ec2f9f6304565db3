package memory

import (
	"context"
	"errors"
	"testing"

	"epic-nft-gallery/internal/domain"
	"epic-nft-gallery/internal/storage"
)

func testSnapshot(generation uint64, startedAt int64) *domain.Snapshot {
	rec := domain.TokenRecord{TokenID: 0, Name: "NFT #0", Owner: "0xabc"}
	return &domain.Snapshot{
		Generation:  generation,
		Contract:    "0xcontract",
		Account:     "0xabc",
		Supply:      1,
		View:        domain.GalleryView{All: []domain.TokenRecord{rec}, Mine: []domain.TokenRecord{rec}},
		Trigger:     domain.TriggerPoll,
		Fingerprint: "fp",
		StartedAt:   startedAt,
		CompletedAt: startedAt + 10,
	}
}

func TestSnapshotStore_SaveAndGetLatest(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	if err := store.Save(ctx, testSnapshot(1, 1000)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Save(ctx, testSnapshot(2, 2000)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	latest, err := store.GetLatest(ctx, "0xcontract")
	if err != nil {
		t.Fatalf("GetLatest failed: %v", err)
	}
	if latest.Generation != 2 {
		t.Errorf("Generation mismatch: got %d, want 2", latest.Generation)
	}
	if len(latest.View.Mine) != 1 {
		t.Errorf("Mine length: got %d, want 1", len(latest.View.Mine))
	}
}

func TestSnapshotStore_Duplicate(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	if err := store.Save(ctx, testSnapshot(1, 1000)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	err := store.Save(ctx, testSnapshot(1, 1000))
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}

	// Same generation after a restart is a different snapshot.
	if err := store.Save(ctx, testSnapshot(1, 5000)); err != nil {
		t.Errorf("Save after restart failed: %v", err)
	}
}

func TestSnapshotStore_GetByGeneration(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	_ = store.Save(ctx, testSnapshot(1, 1000))
	_ = store.Save(ctx, testSnapshot(2, 2000))

	s, err := store.GetByGeneration(ctx, "0xcontract", 1)
	if err != nil {
		t.Fatalf("GetByGeneration failed: %v", err)
	}
	if s.StartedAt != 1000 {
		t.Errorf("StartedAt mismatch: got %d, want 1000", s.StartedAt)
	}

	_, err = store.GetByGeneration(ctx, "0xcontract", 9)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSnapshotStore_NotFoundAndInvalid(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	if _, err := store.GetLatest(ctx, "0xnone"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := store.Save(ctx, &domain.Snapshot{}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSnapshotStore_ReturnsCopies(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	s := testSnapshot(1, 1000)
	_ = store.Save(ctx, s)
	s.View.All[0].Name = "mutated"

	got, _ := store.GetLatest(ctx, "0xcontract")
	if got.View.All[0].Name != "NFT #0" {
		t.Errorf("stored snapshot was mutated through caller slice")
	}

	got.View.All[0].Name = "mutated again"
	again, _ := store.GetLatest(ctx, "0xcontract")
	if again.View.All[0].Name != "NFT #0" {
		t.Errorf("stored snapshot was mutated through returned slice")
	}
}
