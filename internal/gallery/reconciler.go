// Package gallery rebuilds the gallery view from contract state and keeps it
// current as supply, contract and account change.
package gallery

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"epic-nft-gallery/internal/domain"
	"epic-nft-gallery/internal/logging"
	"epic-nft-gallery/internal/nft"
	"epic-nft-gallery/internal/observability"
	"epic-nft-gallery/internal/tokenuri"
)

// TokenReader fetches the raw URI and owner of one token id.
type TokenReader interface {
	ReadToken(ctx context.Context, id uint64) (uri string, owner string, err error)
}

// TokenReaderFunc adapts a function to TokenReader.
type TokenReaderFunc func(ctx context.Context, id uint64) (string, string, error)

// ReadToken calls f.
func (f TokenReaderFunc) ReadToken(ctx context.Context, id uint64) (string, string, error) {
	return f(ctx, id)
}

// ContractReader reads tokenURI then ownerOf; failure of either fails the id.
func ContractReader(r nft.Reader) TokenReader {
	return TokenReaderFunc(func(ctx context.Context, id uint64) (string, string, error) {
		uri, err := r.TokenURI(ctx, id)
		if err != nil {
			return "", "", fmt.Errorf("tokenURI(%d): %w", id, err)
		}
		owner, err := r.OwnerOf(ctx, id)
		if err != nil {
			return "", "", fmt.Errorf("ownerOf(%d): %w", id, err)
		}
		return uri, owner, nil
	})
}

// Result is the output of one pass.
type Result struct {
	View    domain.GalleryView
	Skipped []domain.SkippedToken
}

// DefaultSupplyLimit caps the supply a pass will scan.
const DefaultSupplyLimit = 10_000

// fanOutBatch is how many ids per worker slot one fan-out batch covers.
const fanOutBatch = 8

// ErrSupplyTooLarge is returned when the contract reports more tokens than
// the reconciler is willing to scan.
var ErrSupplyTooLarge = errors.New("supply exceeds limit")

// Reconciler scans token ids [0, supply) and builds the gallery view.
type Reconciler struct {
	concurrency int
	supplyLimit uint64
	log         *logrus.Entry
}

// ReconcilerOption configures a Reconciler.
type ReconcilerOption func(*Reconciler)

// WithConcurrency bounds the number of token reads in flight. Values below 1 mean 1.
func WithConcurrency(n int) ReconcilerOption {
	return func(r *Reconciler) {
		if n < 1 {
			n = 1
		}
		r.concurrency = n
	}
}

// WithSupplyLimit sets the largest supply a pass accepts. Zero keeps the default.
func WithSupplyLimit(n uint64) ReconcilerOption {
	return func(r *Reconciler) {
		if n > 0 {
			r.supplyLimit = n
		}
	}
}

// WithLogger sets the reconciler's logger.
func WithLogger(log *logrus.Entry) ReconcilerOption {
	return func(r *Reconciler) {
		r.log = log
	}
}

// NewReconciler creates a Reconciler. By default reads are sequential.
func NewReconciler(opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		concurrency: 1,
		supplyLimit: DefaultSupplyLimit,
		log:         logging.Module("reconciler"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// outcome is the per-id slot filled by a read.
type outcome struct {
	record  *domain.TokenRecord
	skipped *domain.SkippedToken
}

// Reconcile runs one pass. Per-id failures are skipped and reported in
// Result.Skipped; only context cancellation or a supply above the limit
// fails the pass.
func (r *Reconciler) Reconcile(ctx context.Context, supply uint64, reader TokenReader, account string) (*Result, error) {
	if supply > r.supplyLimit {
		return nil, fmt.Errorf("%w: %d > %d", ErrSupplyTooLarge, supply, r.supplyLimit)
	}

	res := &Result{View: domain.GalleryView{All: []domain.TokenRecord{}}}
	collect := func(o outcome) {
		switch {
		case o.record != nil:
			res.View.All = append(res.View.All, *o.record)
		case o.skipped != nil:
			res.Skipped = append(res.Skipped, *o.skipped)
			observability.RecordSkipped(o.skipped.Reason.String())
		}
	}

	if r.concurrency == 1 {
		for id := uint64(0); id < supply; id++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			o := r.readOne(ctx, reader, id)
			// Reads that failed because the pass was cancelled are not token failures.
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			collect(o)
		}
	} else {
		batch := uint64(r.concurrency) * fanOutBatch
		for start := uint64(0); start < supply; start += batch {
			n := min(batch, supply-start)
			slots, err := r.readBatch(ctx, reader, start, n)
			if err != nil {
				return nil, err
			}
			for _, o := range slots {
				collect(o)
			}
		}
	}

	res.View.Mine = FilterOwned(res.View.All, account)
	return res, nil
}

// readBatch reads ids [start, start+n) with bounded fan-out. Slots keep id order.
func (r *Reconciler) readBatch(ctx context.Context, reader TokenReader, start, n uint64) ([]outcome, error) {
	slots := make([]outcome, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i := uint64(0); i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			slots[i] = r.readOne(gctx, reader, start+i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return slots, nil
}

// readOne fetches and decodes a single id.
func (r *Reconciler) readOne(ctx context.Context, reader TokenReader, id uint64) outcome {
	uri, owner, err := reader.ReadToken(ctx, id)
	if err != nil {
		if ctx.Err() == nil {
			r.log.WithError(err).WithField("token_id", id).Warn("token read failed, skipping")
		}
		return skip(id, domain.SkipReadFailed, err)
	}

	meta, err := tokenuri.Decode(uri)
	if errors.Is(err, tokenuri.ErrNotDataURI) {
		r.log.WithField("token_id", id).Debug("token uri is not a data uri, skipping")
		return skip(id, domain.SkipNotDataURI, nil)
	}
	if err != nil {
		r.log.WithError(err).WithField("token_id", id).Warn("token metadata decode failed, skipping")
		return skip(id, domain.SkipDecodeFailed, err)
	}

	rec := tokenuri.Record(id, meta, owner)
	return outcome{record: &rec}
}

func skip(id uint64, reason domain.SkipReason, err error) outcome {
	s := domain.SkippedToken{TokenID: id, Reason: reason}
	if err != nil {
		s.Detail = err.Error()
	}
	return outcome{skipped: &s}
}

// FilterOwned returns the records of all whose owner equals account,
// compared case-insensitively. An empty account owns nothing.
func FilterOwned(all []domain.TokenRecord, account string) []domain.TokenRecord {
	mine := []domain.TokenRecord{}
	if account == "" {
		return mine
	}
	for _, rec := range all {
		if strings.EqualFold(rec.Owner, account) {
			mine = append(mine, rec)
		}
	}
	return mine
}
