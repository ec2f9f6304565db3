// Package notify carries user-visible notifications from the gallery and mint flows.
package notify

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"epic-nft-gallery/internal/domain"
	"epic-nft-gallery/internal/logging"
)

// DefaultCapacity is the number of notifications a Hub retains.
const DefaultCapacity = 100

// Notifier delivers user-visible messages.
type Notifier interface {
	Success(msg string)
	Error(msg string)
	Info(msg string)
}

// Hub keeps the most recent notifications in memory and logs each one.
type Hub struct {
	mu       sync.Mutex
	items    []domain.Notification
	capacity int
	nextID   uint64
	now      func() time.Time
	log      *logrus.Entry
}

var _ Notifier = (*Hub)(nil)

// NewHub creates a hub retaining up to capacity notifications.
// Capacity below 1 uses DefaultCapacity.
func NewHub(capacity int) *Hub {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Hub{
		capacity: capacity,
		now:      time.Now,
		log:      logging.Module("notify"),
	}
}

// Success records a success notification.
func (h *Hub) Success(msg string) {
	h.add(domain.LevelSuccess, msg)
}

// Error records an error notification.
func (h *Hub) Error(msg string) {
	h.add(domain.LevelError, msg)
}

// Info records an informational notification.
func (h *Hub) Info(msg string) {
	h.add(domain.LevelInfo, msg)
}

func (h *Hub) add(level domain.NotificationLevel, msg string) {
	h.mu.Lock()
	h.nextID++
	n := domain.Notification{
		ID:        h.nextID,
		Level:     level,
		Message:   msg,
		CreatedAt: h.now().UnixMilli(),
	}
	h.items = append(h.items, n)
	if len(h.items) > h.capacity {
		h.items = append(h.items[:0:0], h.items[len(h.items)-h.capacity:]...)
	}
	h.mu.Unlock()

	entry := h.log.WithField("level_ui", string(level))
	if level == domain.LevelError {
		entry.Warn(msg)
	} else {
		entry.Info(msg)
	}
}

// List returns retained notifications with ID greater than afterID, oldest first.
func (h *Hub) List(afterID uint64) []domain.Notification {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := []domain.Notification{}
	for _, n := range h.items {
		if n.ID > afterID {
			out = append(out, n)
		}
	}
	return out
}

// Nop discards notifications.
type Nop struct{}

func (Nop) Success(string) {}
func (Nop) Error(string)   {}
func (Nop) Info(string)    {}
