package memory

import (
	"context"
	"sync"

	"epic-nft-gallery/internal/domain"
	"epic-nft-gallery/internal/storage"
)

// PassStore is an in-memory implementation of storage.PassStore.
type PassStore struct {
	mu     sync.RWMutex
	passes []*domain.PassRecord
}

// NewPassStore creates a new in-memory pass store.
func NewPassStore() *PassStore {
	return &PassStore{}
}

// Insert appends a copy of p.
func (s *PassStore) Insert(_ context.Context, p *domain.PassRecord) error {
	if err := storage.ValidatePass(p); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	passCopy := *p
	s.passes = append(s.passes, &passCopy)
	return nil
}

// GetRecent retrieves up to limit passes for contract, newest first.
func (s *PassStore) GetRecent(_ context.Context, contract string, limit int) ([]*domain.PassRecord, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PassRecord
	for i := len(s.passes) - 1; i >= 0 && len(result) < limit; i-- {
		if s.passes[i].Contract == contract {
			passCopy := *s.passes[i]
			result = append(result, &passCopy)
		}
	}
	return result, nil
}

var _ storage.PassStore = (*PassStore)(nil)
