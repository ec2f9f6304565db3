package gallery

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"epic-nft-gallery/internal/domain"
	"epic-nft-gallery/internal/logging"
	"epic-nft-gallery/internal/nft"
	"epic-nft-gallery/internal/notify"
	"epic-nft-gallery/internal/observability"
)

// DefaultPollInterval is how often the watcher re-reads supply.
const DefaultPollInterval = 30 * time.Second

// MsgLoadFailed is shown when the gallery cannot be loaded.
const MsgLoadFailed = "Failed to load NFTs"

// Versions counts changes to each watcher input. A pass is valid only for
// the versions it started with.
type Versions struct {
	Supply   uint64
	Contract uint64
	Account  uint64
}

// SnapshotHook observes every published snapshot and every discarded pass.
type SnapshotHook func(ctx context.Context, s *domain.Snapshot, status domain.PassStatus)

// passInput is the immutable view of watcher inputs a pass runs against.
type passInput struct {
	generation uint64
	trigger    domain.Trigger
	reader     nft.Reader
	contract   string
	account    string
	versions   Versions
}

// Watcher keeps the published gallery snapshot in step with supply, contract and account.
type Watcher struct {
	reconciler   *Reconciler
	notifier     notify.Notifier
	pollInterval time.Duration
	log          *logrus.Entry
	now          func() time.Time

	mu           sync.Mutex
	reader       nft.Reader
	contract     string
	account      string
	supply       uint64
	supplyKnown  bool
	versions     Versions
	generation   uint64
	publishedGen uint64
	cancelPass   context.CancelFunc
	hooks        []SnapshotHook

	requests chan domain.Trigger
	current  atomic.Pointer[domain.Snapshot]
	polling  atomic.Bool
	workers  sync.WaitGroup
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithPollInterval sets the supply polling interval.
func WithPollInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.pollInterval = d
		}
	}
}

// WithNotifier sets where user-visible errors go.
func WithNotifier(n notify.Notifier) WatcherOption {
	return func(w *Watcher) {
		w.notifier = n
	}
}

// WithReconciler replaces the default sequential reconciler.
func WithReconciler(r *Reconciler) WatcherOption {
	return func(w *Watcher) {
		w.reconciler = r
	}
}

// WithClock overrides time.Now for snapshot timestamps.
func WithClock(now func() time.Time) WatcherOption {
	return func(w *Watcher) {
		w.now = now
	}
}

// NewWatcher creates a watcher with no contract and no account.
// The published snapshot starts as an empty view.
func NewWatcher(opts ...WatcherOption) *Watcher {
	w := &Watcher{
		reconciler:   NewReconciler(),
		notifier:     notify.Nop{},
		pollInterval: DefaultPollInterval,
		log:          logging.Module("watcher"),
		now:          time.Now,
		requests:     make(chan domain.Trigger, 16),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.current.Store(&domain.Snapshot{View: emptyView()})
	return w
}

// OnSnapshot registers a hook. Hooks run on the pass goroutine after publication.
func (w *Watcher) OnSnapshot(h SnapshotHook) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.hooks = append(w.hooks, h)
}

// Snapshot returns the latest published snapshot. Never nil.
func (w *Watcher) Snapshot() *domain.Snapshot {
	return w.current.Load()
}

// Versions returns the current input versions.
func (w *Watcher) Versions() Versions {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.versions
}

// Account returns the connected account.
func (w *Watcher) Account() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.account
}

// Contract returns the contract reader and its address; nil when unset.
func (w *Watcher) Contract() (nft.Reader, string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reader, w.contract
}

// Supply returns the last observed supply and whether it is known.
func (w *Watcher) Supply() (uint64, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.supply, w.supplyKnown
}

// SetAccount changes the connected account. An empty account disconnects.
func (w *Watcher) SetAccount(account string) {
	w.mu.Lock()
	if account == w.account {
		w.mu.Unlock()
		return
	}
	w.account = account
	w.versions.Account++
	w.mu.Unlock()

	w.Refresh(domain.TriggerAccount)
}

// SetContract swaps the contract handle. A nil reader clears it.
func (w *Watcher) SetContract(reader nft.Reader, address string) {
	w.mu.Lock()
	w.reader = reader
	w.contract = address
	w.supplyKnown = false
	w.versions.Contract++
	w.mu.Unlock()

	w.Refresh(domain.TriggerContract)
}

// NotifySupply reports an observed supply. Only a change starts a pass.
func (w *Watcher) NotifySupply(supply uint64) {
	w.setSupply(supply, domain.TriggerSupply)
}

func (w *Watcher) setSupply(supply uint64, trigger domain.Trigger) {
	w.mu.Lock()
	if w.supplyKnown && w.supply == supply {
		w.mu.Unlock()
		return
	}
	w.supply = supply
	w.supplyKnown = true
	w.versions.Supply++
	w.mu.Unlock()

	observability.UpdateSupply(supply)
	w.Refresh(trigger)
}

// Refresh requests a pass. Requests are coalesced when the queue is full.
func (w *Watcher) Refresh(trigger domain.Trigger) {
	select {
	case w.requests <- trigger:
	default:
	}
}

// Run drives passes until ctx is done. It starts with one pass.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	defer w.workers.Wait()

	w.startPass(ctx, domain.TriggerManual)

	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			if w.cancelPass != nil {
				w.cancelPass()
			}
			w.mu.Unlock()
			return nil
		case <-ticker.C:
			w.poll(ctx)
		case trigger := <-w.requests:
			w.startPass(ctx, trigger)
		}
	}
}

// poll re-reads supply in the background; at most one poll runs at a time.
func (w *Watcher) poll(ctx context.Context) {
	w.mu.Lock()
	reader := w.reader
	w.mu.Unlock()
	if reader == nil || w.polling.Swap(true) {
		return
	}

	w.workers.Add(1)
	go func() {
		defer w.workers.Done()
		defer w.polling.Store(false)

		supply, err := reader.TotalMinted(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.log.WithError(err).Warn("supply poll failed")
			w.mu.Lock()
			wasKnown := w.supplyKnown
			if wasKnown {
				w.supplyKnown = false
				w.versions.Supply++
			}
			w.mu.Unlock()
			if wasKnown {
				w.Refresh(domain.TriggerPoll)
			}
			return
		}
		w.setSupply(supply, domain.TriggerPoll)
	}()
}

// startPass cancels any pass in flight and launches a new one.
func (w *Watcher) startPass(ctx context.Context, trigger domain.Trigger) {
	w.mu.Lock()
	if w.cancelPass != nil {
		w.cancelPass()
	}
	w.generation++
	passCtx, cancel := context.WithCancel(ctx)
	w.cancelPass = cancel
	in := passInput{
		generation: w.generation,
		trigger:    trigger,
		reader:     w.reader,
		contract:   w.contract,
		account:    w.account,
		versions:   w.versions,
	}
	w.mu.Unlock()

	w.workers.Add(1)
	go func() {
		defer w.workers.Done()
		defer cancel()
		defer w.recoverPass(in)
		w.runPass(passCtx, in)
	}()
}

// runPass reads supply, reconciles and publishes.
func (w *Watcher) runPass(ctx context.Context, in passInput) {
	snap := &domain.Snapshot{
		Generation: in.generation,
		Contract:   in.contract,
		Account:    in.account,
		Trigger:    in.trigger,
		View:       emptyView(),
		StartedAt:  w.now().UnixMilli(),
	}
	log := w.log.WithFields(logrus.Fields{
		"generation": in.generation,
		"trigger":    in.trigger,
	})

	if in.reader == nil {
		log.Debug("no contract, publishing empty gallery")
		w.publish(ctx, in, snap, domain.PassEmpty)
		return
	}

	supply, err := in.reader.TotalMinted(ctx)
	if err != nil {
		if ctx.Err() != nil {
			w.discard(ctx, snap)
			return
		}
		log.WithError(err).Warn("supply unavailable")
		w.notifier.Error(MsgLoadFailed)
		w.publish(ctx, in, snap, domain.PassFailed)
		return
	}
	w.observeSupply(in, supply)
	snap.Supply = supply

	res, err := w.reconciler.Reconcile(ctx, supply, ContractReader(in.reader), in.account)
	if errors.Is(err, ErrSupplyTooLarge) {
		log.WithError(err).Warn("supply rejected")
		w.notifier.Error(MsgLoadFailed)
		w.publish(ctx, in, snap, domain.PassFailed)
		return
	}
	if err != nil {
		w.discard(ctx, snap)
		return
	}

	snap.View = res.View
	snap.Skipped = res.Skipped
	snap.Fingerprint = Fingerprint(res.View.All)
	log.WithFields(logrus.Fields{
		"supply":  supply,
		"all":     len(res.View.All),
		"mine":    len(res.View.Mine),
		"skipped": len(res.Skipped),
	}).Info("gallery reconciled")
	w.publish(ctx, in, snap, domain.PassCompleted)
}

// recoverPass keeps a panicking pass from taking the process down.
func (w *Watcher) recoverPass(in passInput) {
	if p := recover(); p != nil {
		w.log.WithFields(logrus.Fields{
			"generation": in.generation,
			"panic":      p,
		}).Error("reconciliation pass panicked")
		w.notifier.Error(MsgLoadFailed)
	}
}

// observeSupply records the supply a pass read without triggering another pass.
func (w *Watcher) observeSupply(in passInput, supply uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.versions != in.versions {
		return
	}
	w.supply = supply
	w.supplyKnown = true
	observability.UpdateSupply(supply)
}

// publish stores snap unless inputs moved on or a newer pass already published.
func (w *Watcher) publish(ctx context.Context, in passInput, snap *domain.Snapshot, status domain.PassStatus) {
	snap.CompletedAt = w.now().UnixMilli()

	w.mu.Lock()
	stale := w.versions != in.versions || in.generation <= w.publishedGen
	if !stale {
		w.current.Store(snap)
		w.publishedGen = in.generation
	}
	hooks := append([]SnapshotHook(nil), w.hooks...)
	w.mu.Unlock()

	if stale {
		w.discard(ctx, snap)
		return
	}

	duration := time.Duration(snap.CompletedAt-snap.StartedAt) * time.Millisecond
	observability.RecordPass(string(in.trigger), string(status), duration, len(snap.View.All), len(snap.View.Mine))

	// Hooks outlive cancellation of this pass so persistence is not cut short.
	hookCtx := context.WithoutCancel(ctx)
	for _, h := range hooks {
		h(hookCtx, snap, status)
	}
}

// discard reports a superseded pass to hooks without publishing it.
func (w *Watcher) discard(ctx context.Context, snap *domain.Snapshot) {
	if snap.CompletedAt == 0 {
		snap.CompletedAt = w.now().UnixMilli()
	}
	observability.RecordSuperseded()
	w.log.WithField("generation", snap.Generation).Debug("pass superseded")

	w.mu.Lock()
	hooks := append([]SnapshotHook(nil), w.hooks...)
	w.mu.Unlock()

	hookCtx := context.WithoutCancel(ctx)
	for _, h := range hooks {
		h(hookCtx, snap, domain.PassSuperseded)
	}
}

func emptyView() domain.GalleryView {
	return domain.GalleryView{All: []domain.TokenRecord{}, Mine: []domain.TokenRecord{}}
}
