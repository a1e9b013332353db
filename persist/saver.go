package persist

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gogpu/canvaskit"
)

// Default debounce intervals per mutation category. The flush fires this
// long after the last update in a burst, so continuous motion suppresses
// writes entirely until it pauses (or the safety bound trips).
const (
	DefaultPositionInterval = 50 * time.Millisecond
	DefaultSizeInterval     = 100 * time.Millisecond
	DefaultContentInterval  = 300 * time.Millisecond

	// DefaultMaxPendingTime bounds worst-case staleness: once the oldest
	// unflushed update of a category is this old, the next queue call
	// flushes synchronously instead of rearming the timer.
	DefaultMaxPendingTime = 2 * time.Second
)

// Options configures a [Saver]. Zero-valued fields fall back to defaults.
type Options struct {
	PositionInterval time.Duration
	SizeInterval     time.Duration
	ContentInterval  time.Duration
	MaxPendingTime   time.Duration

	// Clock overrides the time source. Tests inject a fake clock; nil
	// uses the system clock.
	Clock Clock
}

// category tracks the unflushed values of one mutation kind. A key present
// in pending holds the authoritative latest value not yet durably written;
// a newer update for the same key overwrites rather than queues.
type category[V any] struct {
	name     string
	interval time.Duration
	write    func(context.Context, map[string]V) error

	// The fields below are guarded by Saver.mu.
	pending map[string]V
	timer   Timer
	// gen is bumped on every rearm and explicit flush; a timer that fires
	// with a stale gen was superseded and must not flush.
	gen uint64
	// oldest is the arrival time of the oldest unflushed update.
	// Zero when pending is empty.
	oldest time.Time

	// flushMu serializes flushes so a slow storage write never
	// interleaves with the next flush of the same category.
	flushMu sync.Mutex
}

// Saver coalesces high-frequency block mutations into batched store writes.
//
// Each mutation category (position, size, content) debounces independently:
// a queue call overwrites the pending value for its key and restarts the
// category's timer, so one write lands per burst, carrying only final
// values. Writes are fire-and-forget from the caller's perspective; storage
// failures are logged and retried on the next cycle, never propagated.
//
// Saver is safe for concurrent use.
type Saver struct {
	store      Store
	clock      Clock
	maxPending time.Duration

	mu        sync.Mutex
	positions *category[canvaskit.Point]
	sizes     *category[canvaskit.Size]
	content   *category[string]
}

// NewSaver creates a Saver writing to store.
func NewSaver(store Store, opts Options) *Saver {
	clock := opts.Clock
	if clock == nil {
		clock = systemClock{}
	}
	maxPending := opts.MaxPendingTime
	if maxPending <= 0 {
		maxPending = DefaultMaxPendingTime
	}

	s := &Saver{
		store:      store,
		clock:      clock,
		maxPending: maxPending,
	}
	s.positions = newCategory("position", opts.PositionInterval, DefaultPositionInterval, store.WritePositions)
	s.sizes = newCategory("size", opts.SizeInterval, DefaultSizeInterval, store.WriteSizes)
	s.content = newCategory("content", opts.ContentInterval, DefaultContentInterval, store.WriteContent)
	return s
}

func newCategory[V any](name string, interval, fallback time.Duration, write func(context.Context, map[string]V) error) *category[V] {
	if interval <= 0 {
		interval = fallback
	}
	return &category[V]{
		name:     name,
		interval: interval,
		write:    write,
		pending:  make(map[string]V),
	}
}

// QueuePositionUpdate records the latest position for a block, debouncing
// the storage write.
func (s *Saver) QueuePositionUpdate(id string, pos canvaskit.Point) {
	queueUpdate(s, s.positions, id, pos)
}

// QueueSizeUpdate records the latest size for a block, debouncing the
// storage write.
func (s *Saver) QueueSizeUpdate(id string, size canvaskit.Size) {
	queueUpdate(s, s.sizes, id, size)
}

// QueueContentUpdate records the latest content for a block, debouncing
// the storage write.
func (s *Saver) QueueContentUpdate(id string, content string) {
	queueUpdate(s, s.content, id, content)
}

func queueUpdate[V any](s *Saver, c *category[V], id string, v V) {
	now := s.clock.Now()

	s.mu.Lock()
	c.pending[id] = v
	if c.oldest.IsZero() {
		c.oldest = now
	}
	stale := now.Sub(c.oldest) >= s.maxPending

	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.gen++
	if !stale {
		gen := c.gen
		c.timer = s.clock.AfterFunc(c.interval, func() { timerFire(s, c, gen) })
	}
	s.mu.Unlock()

	if stale {
		// Safety flush: pending state hit the staleness bound, so flush
		// now instead of letting continuous updates defer it forever.
		if err := flushCategory(context.Background(), s, c); err != nil {
			canvaskit.Logger().Warn("safety flush failed",
				"category", c.name, "err", err)
		}
	}
}

// timerFire runs when a debounce timer expires. A timer superseded by a
// later queue call or explicit flush sees a stale gen and does nothing.
func timerFire[V any](s *Saver, c *category[V], gen uint64) {
	s.mu.Lock()
	if c.gen != gen {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	if err := flushCategory(context.Background(), s, c); err != nil {
		canvaskit.Logger().Warn("debounced flush failed",
			"category", c.name, "err", err)
	}
}

// flushCategory captures and clears the category's pending map, then writes
// it to the store as one batched transaction. On failure, captured pairs
// re-enter the pending map only for keys with no newer value, and the
// debounce timer is rearmed for a retry cycle.
//
// Flushes of the same category are serialized by flushMu: each flush drains
// the full map before the next can observe new entries, so category writes
// reach the store in flush order.
func flushCategory[V any](ctx context.Context, s *Saver, c *category[V]) error {
	c.flushMu.Lock()
	defer c.flushMu.Unlock()

	s.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.gen++
	if len(c.pending) == 0 {
		c.oldest = time.Time{}
		s.mu.Unlock()
		return nil
	}
	captured := c.pending
	c.pending = make(map[string]V, len(captured))
	c.oldest = time.Time{}
	s.mu.Unlock()

	err := c.write(ctx, captured)
	if err == nil {
		return nil
	}

	// Last-value-wins retry: re-insert captured pairs unless a fresher
	// update for the key arrived during the failed write.
	now := s.clock.Now()
	s.mu.Lock()
	for id, v := range captured {
		if _, ok := c.pending[id]; !ok {
			c.pending[id] = v
		}
	}
	if len(c.pending) > 0 {
		if c.oldest.IsZero() {
			c.oldest = now
		}
		if c.timer == nil {
			c.gen++
			gen := c.gen
			c.timer = s.clock.AfterFunc(c.interval, func() { timerFire(s, c, gen) })
		}
	}
	s.mu.Unlock()
	return err
}

// FlushPositions synchronously writes all pending positions.
func (s *Saver) FlushPositions(ctx context.Context) error {
	return flushCategory(ctx, s, s.positions)
}

// FlushSizes synchronously writes all pending sizes.
func (s *Saver) FlushSizes(ctx context.Context) error {
	return flushCategory(ctx, s, s.sizes)
}

// FlushContent synchronously writes all pending content.
func (s *Saver) FlushContent(ctx context.Context) error {
	return flushCategory(ctx, s, s.content)
}

// FlushAll cancels all debounce timers and flushes every category in order
// (positions, sizes, content). Call on application backgrounding or
// termination so no drag-in-progress state is lost.
func (s *Saver) FlushAll(ctx context.Context) error {
	return errors.Join(
		s.FlushPositions(ctx),
		s.FlushSizes(ctx),
		s.FlushContent(ctx),
	)
}

// HasPendingUpdates reports whether any category holds unflushed values.
func (s *Saver) HasPendingUpdates() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.positions.pending) > 0 ||
		len(s.sizes.pending) > 0 ||
		len(s.content.pending) > 0
}

// PendingPosition returns the unflushed position for a block, if any.
// Use for immediate visual feedback before a flush lands.
func (s *Saver) PendingPosition(id string) (canvaskit.Point, bool) {
	return pendingValue(s, s.positions, id)
}

// PendingSize returns the unflushed size for a block, if any.
func (s *Saver) PendingSize(id string) (canvaskit.Size, bool) {
	return pendingValue(s, s.sizes, id)
}

// PendingContent returns the unflushed content for a block, if any.
func (s *Saver) PendingContent(id string) (string, bool) {
	return pendingValue(s, s.content, id)
}

func pendingValue[V any](s *Saver, c *category[V], id string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := c.pending[id]
	return v, ok
}
