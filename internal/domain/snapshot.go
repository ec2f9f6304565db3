package domain

// Snapshot is the published result of one completed reconciliation pass.
// Corresponds to gallery_snapshots + gallery_tokens in PostgreSQL.
type Snapshot struct {
	Generation  uint64 // monotonically increasing per watcher
	Contract    string // contract address the pass read from
	Account     string // connected account at pass start (may be empty)
	Supply      uint64 // supply value the pass scanned
	View        GalleryView
	Skipped     []SkippedToken
	Trigger     Trigger
	Fingerprint string // hex sha256 over View.All
	StartedAt   int64  // Unix ms
	CompletedAt int64  // Unix ms
}

// PassRecord is the analytics row for one pass.
// Corresponds to reconcile_passes table in ClickHouse.
type PassRecord struct {
	Contract    string
	Generation  uint64
	Trigger     Trigger
	Status      PassStatus
	Supply      uint64
	TotalTokens int
	OwnedTokens int
	Skipped     int
	DurationMs  int64
	CompletedAt int64 // Unix ms
}

// PassStatus is the outcome of a pass.
type PassStatus string

const (
	PassCompleted  PassStatus = "completed"
	PassEmpty      PassStatus = "empty"      // prerequisite missing
	PassFailed     PassStatus = "failed"     // supply unavailable
	PassSuperseded PassStatus = "superseded" // cancelled by a newer input version
)

// NewPassRecord flattens a snapshot into an analytics row.
func NewPassRecord(s *Snapshot, status PassStatus) PassRecord {
	return PassRecord{
		Contract:    s.Contract,
		Generation:  s.Generation,
		Trigger:     s.Trigger,
		Status:      status,
		Supply:      s.Supply,
		TotalTokens: len(s.View.All),
		OwnedTokens: len(s.View.Mine),
		Skipped:     len(s.Skipped),
		DurationMs:  s.CompletedAt - s.StartedAt,
		CompletedAt: s.CompletedAt,
	}
}
