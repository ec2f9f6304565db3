package clickhouse

import (
	"context"
	"fmt"
	"time"

	"epic-nft-gallery/internal/domain"
	"epic-nft-gallery/internal/observability"
	"epic-nft-gallery/internal/storage"
)

// PassStore implements storage.PassStore using ClickHouse.
type PassStore struct {
	conn *Conn
}

// NewPassStore creates a new PassStore.
func NewPassStore(conn *Conn) *PassStore {
	return &PassStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PassStore = (*PassStore)(nil)

// Insert appends a pass row. MergeTree keeps every row; passes have no natural key.
func (s *PassStore) Insert(ctx context.Context, p *domain.PassRecord) error {
	if err := storage.ValidatePass(p); err != nil {
		return err
	}

	query := `
		INSERT INTO reconcile_passes (
			contract, generation, pass_trigger, status, supply,
			total_tokens, owned_tokens, skipped, duration_ms, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	start := time.Now()
	err := s.conn.Exec(ctx, query,
		p.Contract,
		p.Generation,
		string(p.Trigger),
		string(p.Status),
		p.Supply,
		uint32(p.TotalTokens),
		uint32(p.OwnedTokens),
		uint32(p.Skipped),
		p.DurationMs,
		p.CompletedAt,
	)
	observability.RecordDBQuery("clickhouse", "insert_pass", time.Since(start).Seconds(), err)
	if err != nil {
		return fmt.Errorf("insert reconcile pass: %w", err)
	}
	return nil
}

// GetRecent retrieves up to limit passes for a contract, newest first.
func (s *PassStore) GetRecent(ctx context.Context, contract string, limit int) ([]*domain.PassRecord, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	query := `
		SELECT
			contract, generation, pass_trigger, status, supply,
			total_tokens, owned_tokens, skipped, duration_ms, completed_at
		FROM reconcile_passes
		WHERE contract = ?
		ORDER BY completed_at DESC, generation DESC
		LIMIT ?
	`

	rows, err := s.conn.Query(ctx, query, contract, uint64(limit))
	if err != nil {
		return nil, fmt.Errorf("query recent passes: %w", err)
	}
	defer rows.Close()

	var result []*domain.PassRecord
	for rows.Next() {
		var (
			p                     domain.PassRecord
			trigger, status       string
			total, owned, skipped uint32
		)
		err := rows.Scan(
			&p.Contract, &p.Generation, &trigger, &status, &p.Supply,
			&total, &owned, &skipped, &p.DurationMs, &p.CompletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan reconcile pass: %w", err)
		}
		p.Trigger = domain.Trigger(trigger)
		p.Status = domain.PassStatus(status)
		p.TotalTokens = int(total)
		p.OwnedTokens = int(owned)
		p.Skipped = int(skipped)
		result = append(result, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reconcile passes: %w", err)
	}
	return result, nil
}
