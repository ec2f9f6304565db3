package storage

import "errors"

// Sentinels shared by the memory, postgres and clickhouse stores.
// Callers match them with errors.Is.
var (
	// ErrNotFound means no snapshot exists for the contract or generation asked for.
	ErrNotFound = errors.New("storage: snapshot not found")

	// ErrDuplicateKey means a snapshot with the same contract, generation and
	// start time was already saved. Stored snapshots are immutable.
	ErrDuplicateKey = errors.New("storage: snapshot already saved")

	// ErrInvalidInput means a record failed validation before reaching a store.
	ErrInvalidInput = errors.New("storage: invalid record")
)
