package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"epic-nft-gallery/internal/domain"
	"epic-nft-gallery/internal/observability"
	"epic-nft-gallery/internal/storage"
)

// SnapshotStore implements storage.SnapshotStore using PostgreSQL.
type SnapshotStore struct {
	pool *Pool
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(pool *Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// Save writes the snapshot row and its tokens in one transaction.
// Returns ErrDuplicateKey if (contract, generation, started_at) exists.
func (s *SnapshotStore) Save(ctx context.Context, snap *domain.Snapshot) (err error) {
	if err := storage.ValidateSnapshot(snap); err != nil {
		return err
	}

	start := time.Now()
	defer func() {
		observability.RecordDBQuery("postgres", "save_snapshot", time.Since(start).Seconds(), err)
	}()

	return s.pool.InTx(ctx, func(tx pgx.Tx) error {
		var snapshotID int64
		err := tx.QueryRow(ctx, `
			INSERT INTO gallery_snapshots (
				contract, generation, account, supply, pass_trigger, fingerprint, started_at, completed_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING snapshot_id
		`,
			snap.Contract,
			int64(snap.Generation),
			snap.Account,
			int64(snap.Supply),
			string(snap.Trigger),
			snap.Fingerprint,
			snap.StartedAt,
			snap.CompletedAt,
		).Scan(&snapshotID)
		if err != nil {
			return classify("insert snapshot", err)
		}

		owned := make(map[uint64]bool, len(snap.View.Mine))
		for _, r := range snap.View.Mine {
			owned[r.TokenID] = true
		}

		if len(snap.View.All) > 0 {
			rows := make([][]any, 0, len(snap.View.All))
			for _, r := range snap.View.All {
				rows = append(rows, []any{
					snapshotID, int64(r.TokenID), r.Name, r.Description, r.Image, r.Owner, owned[r.TokenID],
				})
			}
			_, err = tx.CopyFrom(ctx,
				pgx.Identifier{"gallery_tokens"},
				[]string{"snapshot_id", "token_id", "name", "description", "image", "owner", "owned"},
				pgx.CopyFromRows(rows),
			)
			if err != nil {
				return classify("copy tokens", err)
			}
		}

		if len(snap.Skipped) > 0 {
			batch := &pgx.Batch{}
			for _, sk := range snap.Skipped {
				batch.Queue(`
					INSERT INTO gallery_skipped (snapshot_id, token_id, reason, detail)
					VALUES ($1, $2, $3, $4)
				`, snapshotID, int64(sk.TokenID), string(sk.Reason), sk.Detail)
			}
			if err := tx.SendBatch(ctx, batch).Close(); err != nil {
				return classify("insert skipped tokens", err)
			}
		}
		return nil
	})
}

const selectSnapshot = `
	SELECT snapshot_id, contract, generation, account, supply, pass_trigger, fingerprint, started_at, completed_at
	FROM gallery_snapshots
`

// GetLatest retrieves the most recently completed snapshot. Returns ErrNotFound if none.
func (s *SnapshotStore) GetLatest(ctx context.Context, contract string) (*domain.Snapshot, error) {
	row := s.pool.QueryRow(ctx, selectSnapshot+`
		WHERE contract = $1
		ORDER BY completed_at DESC, snapshot_id DESC
		LIMIT 1
	`, contract)
	return s.load(ctx, row, "get latest snapshot")
}

// GetByGeneration retrieves the latest snapshot with generation. Returns ErrNotFound if none.
func (s *SnapshotStore) GetByGeneration(ctx context.Context, contract string, generation uint64) (*domain.Snapshot, error) {
	row := s.pool.QueryRow(ctx, selectSnapshot+`
		WHERE contract = $1 AND generation = $2
		ORDER BY completed_at DESC, snapshot_id DESC
		LIMIT 1
	`, contract, int64(generation))
	return s.load(ctx, row, "get snapshot by generation")
}

// load scans the snapshot header and attaches its tokens and skipped ids.
func (s *SnapshotStore) load(ctx context.Context, row pgx.Row, op string) (*domain.Snapshot, error) {
	var (
		snap               domain.Snapshot
		snapshotID         int64
		generation, supply int64
		trigger            string
	)
	err := row.Scan(
		&snapshotID,
		&snap.Contract,
		&generation,
		&snap.Account,
		&supply,
		&trigger,
		&snap.Fingerprint,
		&snap.StartedAt,
		&snap.CompletedAt,
	)
	if err != nil {
		return nil, classify(op, err)
	}
	snap.Generation = uint64(generation)
	snap.Supply = uint64(supply)
	snap.Trigger = domain.Trigger(trigger)

	view, err := s.loadTokens(ctx, snapshotID)
	if err != nil {
		return nil, err
	}
	snap.View = view

	skipped, err := s.loadSkipped(ctx, snapshotID)
	if err != nil {
		return nil, err
	}
	snap.Skipped = skipped

	return &snap, nil
}

func (s *SnapshotStore) loadTokens(ctx context.Context, snapshotID int64) (domain.GalleryView, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT token_id, name, description, image, owner, owned
		FROM gallery_tokens
		WHERE snapshot_id = $1
		ORDER BY token_id ASC
	`, snapshotID)
	if err != nil {
		return domain.GalleryView{}, fmt.Errorf("query tokens: %w", err)
	}
	defer rows.Close()

	view := domain.GalleryView{All: []domain.TokenRecord{}, Mine: []domain.TokenRecord{}}
	for rows.Next() {
		var (
			r       domain.TokenRecord
			tokenID int64
			owned   bool
		)
		if err := rows.Scan(&tokenID, &r.Name, &r.Description, &r.Image, &r.Owner, &owned); err != nil {
			return domain.GalleryView{}, fmt.Errorf("scan token: %w", err)
		}
		r.TokenID = uint64(tokenID)
		view.All = append(view.All, r)
		if owned {
			view.Mine = append(view.Mine, r)
		}
	}
	if err := rows.Err(); err != nil {
		return domain.GalleryView{}, fmt.Errorf("iterate tokens: %w", err)
	}
	return view, nil
}

func (s *SnapshotStore) loadSkipped(ctx context.Context, snapshotID int64) ([]domain.SkippedToken, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT token_id, reason, detail
		FROM gallery_skipped
		WHERE snapshot_id = $1
		ORDER BY token_id ASC
	`, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("query skipped: %w", err)
	}
	defer rows.Close()

	var skipped []domain.SkippedToken
	for rows.Next() {
		var (
			sk      domain.SkippedToken
			tokenID int64
			reason  string
		)
		if err := rows.Scan(&tokenID, &reason, &sk.Detail); err != nil {
			return nil, fmt.Errorf("scan skipped: %w", err)
		}
		sk.TokenID = uint64(tokenID)
		sk.Reason = domain.SkipReason(reason)
		skipped = append(skipped, sk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate skipped: %w", err)
	}
	return skipped, nil
}
