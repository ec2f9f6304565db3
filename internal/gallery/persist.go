package gallery

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"epic-nft-gallery/internal/domain"
	"epic-nft-gallery/internal/logging"
	"epic-nft-gallery/internal/storage"
)

// Persister writes passes to storage. Either store may be nil.
type Persister struct {
	snapshots storage.SnapshotStore
	passes    storage.PassStore
	log       *logrus.Entry

	mu   sync.Mutex
	last map[string]string // contract -> account|fingerprint of last saved snapshot
}

// NewPersister creates a Persister.
func NewPersister(snapshots storage.SnapshotStore, passes storage.PassStore) *Persister {
	return &Persister{
		snapshots: snapshots,
		passes:    passes,
		log:       logging.Module("persist"),
		last:      make(map[string]string),
	}
}

// Hook returns the SnapshotHook to register with a Watcher.
func (p *Persister) Hook() SnapshotHook {
	return p.handle
}

func (p *Persister) handle(ctx context.Context, s *domain.Snapshot, status domain.PassStatus) {
	if s.Contract == "" {
		return
	}

	if p.passes != nil {
		rec := domain.NewPassRecord(s, status)
		if err := p.passes.Insert(ctx, &rec); err != nil {
			p.log.WithError(err).WithField("generation", s.Generation).Warn("record pass failed")
		}
	}

	if p.snapshots == nil || status != domain.PassCompleted || !p.changed(s) {
		return
	}

	err := p.snapshots.Save(ctx, s)
	switch {
	case err == nil:
		p.remember(s)
	case errors.Is(err, storage.ErrDuplicateKey):
		p.log.WithField("generation", s.Generation).Debug("snapshot already stored")
	default:
		p.log.WithError(err).WithField("generation", s.Generation).Warn("save snapshot failed")
	}
}

func snapshotKey(s *domain.Snapshot) string {
	return s.Account + "|" + s.Fingerprint
}

// changed reports whether s differs from the last snapshot saved for its contract.
func (p *Persister) changed(s *domain.Snapshot) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last[s.Contract] != snapshotKey(s)
}

func (p *Persister) remember(s *domain.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.last[s.Contract] = snapshotKey(s)
}
