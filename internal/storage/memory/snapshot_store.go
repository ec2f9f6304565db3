package memory

import (
	"context"
	"sync"

	"epic-nft-gallery/internal/domain"
	"epic-nft-gallery/internal/storage"
)

// SnapshotStore is an in-memory implementation of storage.SnapshotStore.
type SnapshotStore struct {
	mu         sync.RWMutex
	byContract map[string][]*domain.Snapshot // insertion order
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		byContract: make(map[string][]*domain.Snapshot),
	}
}

// Save stores a copy of s. Returns ErrDuplicateKey if (contract, generation, started_at) exists.
func (st *SnapshotStore) Save(_ context.Context, s *domain.Snapshot) error {
	if err := storage.ValidateSnapshot(s); err != nil {
		return err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	for _, existing := range st.byContract[s.Contract] {
		if existing.Generation == s.Generation && existing.StartedAt == s.StartedAt {
			return storage.ErrDuplicateKey
		}
	}

	st.byContract[s.Contract] = append(st.byContract[s.Contract], copySnapshot(s))
	return nil
}

// GetLatest retrieves the snapshot with the greatest CompletedAt. Returns ErrNotFound if none.
func (st *SnapshotStore) GetLatest(_ context.Context, contract string) (*domain.Snapshot, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	var latest *domain.Snapshot
	for _, s := range st.byContract[contract] {
		if latest == nil || s.CompletedAt >= latest.CompletedAt {
			latest = s
		}
	}
	if latest == nil {
		return nil, storage.ErrNotFound
	}
	return copySnapshot(latest), nil
}

// GetByGeneration retrieves the latest snapshot with generation. Returns ErrNotFound if none.
func (st *SnapshotStore) GetByGeneration(_ context.Context, contract string, generation uint64) (*domain.Snapshot, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	var found *domain.Snapshot
	for _, s := range st.byContract[contract] {
		if s.Generation == generation && (found == nil || s.CompletedAt >= found.CompletedAt) {
			found = s
		}
	}
	if found == nil {
		return nil, storage.ErrNotFound
	}
	return copySnapshot(found), nil
}

// copySnapshot deep-copies the slices so callers cannot mutate stored state.
func copySnapshot(s *domain.Snapshot) *domain.Snapshot {
	c := *s
	c.View.All = append([]domain.TokenRecord{}, s.View.All...)
	c.View.Mine = append([]domain.TokenRecord{}, s.View.Mine...)
	c.Skipped = append([]domain.SkippedToken(nil), s.Skipped...)
	return &c
}

var _ storage.SnapshotStore = (*SnapshotStore)(nil)
