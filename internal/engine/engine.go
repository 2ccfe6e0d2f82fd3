// Package engine owns the shared watch state and reconciles search results
// against the set of already reported issues.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Kavirubc/gitscout/pkg/models"
)

// Source fetches candidate issues for a filter
type Source interface {
	Search(ctx context.Context, f models.Filter) ([]models.Item, error)
}

// Notifier delivers a batch of new issues
type Notifier interface {
	Notify(ctx context.Context, target models.NotificationTarget, items []models.Item) error
}

// Store persists the full state
type Store interface {
	Load(ctx context.Context) (*models.State, error)
	Save(ctx context.Context, s *models.State) error
}

// Options tunes the background loop
type Options struct {
	// MinInterval is the floor applied to the filter's poll interval
	MinInterval time.Duration
	// Backoff is the wait after a failed iteration
	Backoff time.Duration
}

func (o *Options) defaults() {
	if o.MinInterval <= 0 {
		o.MinInterval = 30 * time.Second
	}
	if o.Backoff <= 0 {
		o.Backoff = 60 * time.Second
	}
}

// Engine guards the state record. Every mutation clones the current state,
// persists the clone and only then swaps it in, all under mu. Network calls
// never run with mu held. cycleMu keeps two cycles from interleaving.
type Engine struct {
	store    Store
	source   Source
	notifier Notifier
	opts     Options
	logger   *slog.Logger
	now      func() time.Time

	mu    sync.RWMutex
	state *models.State

	cycleMu sync.Mutex
}

// New loads the persisted state and returns an engine ready to serve
func New(ctx context.Context, store Store, source Source, notifier Notifier, opts Options, logger *slog.Logger) (*Engine, error) {
	opts.defaults()
	if logger == nil {
		logger = slog.Default()
	}

	st, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: load state: %w", ErrPersistence, err)
	}

	return &Engine{
		store:    store,
		source:   source,
		notifier: notifier,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
		state:    st,
	}, nil
}

// Snapshot returns a copy of the current state
func (e *Engine) Snapshot() *models.State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.Clone()
}

// Active reports whether polling is enabled
func (e *Engine) Active() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.Active
}

// LastFetch returns the result of the most recent successful fetch
func (e *Engine) LastFetch() []models.Item {
	return e.Snapshot().LastFetch
}

// UpdateFilter replaces the filter and notification target
func (e *Engine) UpdateFilter(ctx context.Context, f models.Filter, target models.NotificationTarget) error {
	f.Normalize()
	return e.mutate(ctx, func(s *models.State) {
		s.Filter = f
		s.Target = target
	})
}

// SetActive turns polling on or off
func (e *Engine) SetActive(ctx context.Context, active bool) error {
	return e.mutate(ctx, func(s *models.State) {
		s.Active = active
	})
}

// Reload replaces the in-memory state with the persisted one, so edits made
// by another process are picked up. Seen ids are merged rather than replaced.
func (e *Engine) Reload(ctx context.Context) (*models.State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	loaded, err := e.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: reload state: %w", ErrPersistence, err)
	}
	for id := range e.state.SeenIDs {
		loaded.MarkSeen(id)
	}
	e.state = loaded
	return loaded.Clone(), nil
}

// mutate applies fn to a copy of the state, persists it and commits it.
// When the save fails the in-memory state is left as it was.
func (e *Engine) mutate(ctx context.Context, fn func(s *models.State)) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := e.state.Clone()
	fn(next)
	if err := e.store.Save(ctx, next); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	e.state = next
	return nil
}

// RunCycle performs one fetch, dedup, persist, notify pass. A call made
// while another cycle is running waits for it to finish.
func (e *Engine) RunCycle(ctx context.Context) (*models.CycleResult, error) {
	e.cycleMu.Lock()
	defer e.cycleMu.Unlock()

	result := &models.CycleResult{
		ID:        uuid.NewString(),
		CheckedAt: e.now().UTC(),
	}
	log := e.logger.With("cycle", result.ID)

	snap := e.Snapshot()
	if !snap.Active {
		result.Skipped = true
		result.Reason = "watch inactive"
		log.Debug("watch inactive, skipping cycle")
		return result, nil
	}

	items, err := e.source.Search(ctx, snap.Filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	result.Fetched = len(items)

	var (
		fresh  []models.Item
		target models.NotificationTarget
	)
	err = e.mutate(ctx, func(s *models.State) {
		fresh = reconcile(s, items, log)
		s.LastFetch = append([]models.Item{}, items...)
		target = s.Target
	})
	if err != nil {
		return nil, err
	}
	result.New = len(fresh)

	if len(fresh) > 0 && target.Enabled() {
		if err := e.notifier.Notify(ctx, target, fresh); err != nil {
			err = fmt.Errorf("%w: %w", ErrNotification, err)
			log.Warn("notification failed", "err", err, "new", len(fresh))
			result.NotifyError = err.Error()
		} else {
			result.Notified = true
		}
	}

	log.Info("cycle finished", "fetched", result.Fetched, "new", result.New, "notified", result.Notified)
	return result, nil
}

// reconcile marks unseen items as seen and returns them in fetch order
func reconcile(s *models.State, items []models.Item, log *slog.Logger) []models.Item {
	var fresh []models.Item
	for _, it := range items {
		if !it.HasID() {
			log.Warn("skipping search hit", "err", ErrMalformedItem, "title", it.Title, "url", it.HTMLURL)
			continue
		}
		if s.HasSeen(it.ID) {
			continue
		}
		s.MarkSeen(it.ID)
		fresh = append(fresh, it)
	}
	return fresh
}
