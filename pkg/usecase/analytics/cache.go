package analytics

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/winnow/pkg/model"
	"github.com/m-mizutani/winnow/pkg/usecase/collection"
	"github.com/m-mizutani/winnow/pkg/utils/logging"
)

const (
	// DefaultTTL is how long a cached snapshot stays valid
	DefaultTTL = 5 * time.Minute
	// DefaultDebounce coalesces rapid successive collection changes into one
	// recompute
	DefaultDebounce = time.Second
)

// SnapshotWriter persists an analytics snapshot into the owning session's
// stored state
type SnapshotWriter interface {
	UpdateSessionAnalytics(ctx context.Context, sessionID model.SessionID, snapshot *model.AnalyticsSnapshot) error
}

// Cache maintains the derived analytics snapshot for one session
type Cache struct {
	store     *collection.Store
	writer    SnapshotWriter
	sessionID model.SessionID
	ttl       time.Duration
	debounce  time.Duration

	mu         sync.Mutex
	snapshot   *model.AnalyticsSnapshot
	computedAt time.Time
	lastSize   int
	timer      *time.Timer
	closed     bool
}

// Option is a functional option for Cache
type Option func(*Cache)

// WithTTL overrides the cache validity window
func WithTTL(d time.Duration) Option {
	return func(c *Cache) {
		c.ttl = d
	}
}

// WithDebounce overrides the auto-recompute coalescing delay
func WithDebounce(d time.Duration) Option {
	return func(c *Cache) {
		c.debounce = d
	}
}

// New creates a Cache bound to a collection store and registers its change
// hook. A change to the collection size schedules a debounced recompute.
func New(store *collection.Store, writer SnapshotWriter, sessionID model.SessionID, opts ...Option) *Cache {
	c := &Cache{
		store:     store,
		writer:    writer,
		sessionID: sessionID,
		ttl:       DefaultTTL,
		debounce:  DefaultDebounce,
		lastSize:  store.Len(),
	}
	for _, opt := range opts {
		opt(c)
	}

	store.OnChange(c.onCollectionChange)
	return c
}

// Load adopts a previously persisted snapshot, treating it as fresh as of its
// own stored timestamp
func (c *Cache) Load(snapshot *model.AnalyticsSnapshot) {
	if snapshot == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = snapshot
	c.computedAt = snapshot.LastUpdated
}

// Update recomputes the snapshot unless the cache is still valid. Forced
// updates recompute regardless of the TTL. The result is stored in memory
// and persisted into the session record; a persistence failure is logged but
// does not fail the update, so the in-memory snapshot stays current.
func (c *Cache) Update(ctx context.Context, force bool) *model.AnalyticsSnapshot {
	c.mu.Lock()
	if !force && c.valid() {
		snapshot := c.snapshot
		c.mu.Unlock()
		return snapshot
	}

	snapshot := Calculate(c.store.Items())
	c.snapshot = snapshot
	c.computedAt = time.Now()
	c.mu.Unlock()

	if c.writer != nil {
		if err := c.writer.UpdateSessionAnalytics(ctx, c.sessionID, snapshot); err != nil {
			logging.From(ctx).Warn("failed to persist analytics snapshot",
				"session_id", c.sessionID, "error", err)
		}
	}

	return snapshot
}

// Current returns the cached snapshot if still valid, otherwise computes a
// fresh one without touching the cache
func (c *Cache) Current() *model.AnalyticsSnapshot {
	c.mu.Lock()
	if c.valid() {
		snapshot := c.snapshot
		c.mu.Unlock()
		return snapshot
	}
	c.mu.Unlock()

	return Calculate(c.store.Items())
}

// Close cancels any pending debounced recompute. No recompute fires after
// Close returns, so a torn-down session never receives a ghost write.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// valid reports cache validity; callers hold c.mu
func (c *Cache) valid() bool {
	return c.snapshot != nil && time.Since(c.computedAt) < c.ttl
}

func (c *Cache) onCollectionChange(size int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || size == c.lastSize {
		return
	}
	c.lastSize = size

	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.debounce, func() {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return
		}
		c.timer = nil
		c.mu.Unlock()

		c.Update(context.Background(), true)
	})
}
