// Package tracker correlates asynchronous image and description events into
// matched pairs. Images wait in memory, keyed by (source_id, message_id),
// until a description claims them by reply target or by recency, or until
// they expire.
package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/gavril-s/meme-search-bot/internal/domain"
	"github.com/gavril-s/meme-search-bot/internal/logger"
)

// Config holds tracker tuning knobs.
type Config struct {
	// TTL is how long an unmatched image is retained.
	TTL time.Duration

	// RecencyWindow bounds how far back a reply-less description may reach
	// when claiming the most recent unmatched image on its source.
	RecencyWindow time.Duration

	// Now is the clock; nil means time.Now. Injected by tests.
	Now func() time.Time
}

// pendingEntry is an image event awaiting its description.
type pendingEntry struct {
	event    domain.ImageEvent
	storedAt time.Time
}

// sourceState holds the pending entries of one source. Each source carries
// its own lock, so concurrent transport callbacks for different sources never
// contend with each other.
type sourceState struct {
	mu      sync.Mutex
	entries map[int]*pendingEntry // keyed by message ID
	order   []int                 // message IDs in arrival order
}

// Tracker holds in-memory pending-match state for all sources.
type Tracker struct {
	cfg Config

	mu      sync.RWMutex
	sources map[int64]*sourceState
}

// New creates a Tracker with the given configuration.
func New(cfg Config) *Tracker {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Tracker{
		cfg:     cfg,
		sources: make(map[int64]*sourceState),
	}
}

func (t *Tracker) source(id int64) *sourceState {
	t.mu.RLock()
	st, ok := t.sources[id]
	t.mu.RUnlock()
	if ok {
		return st
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if st, ok = t.sources[id]; ok {
		return st
	}
	st = &sourceState{entries: make(map[int]*pendingEntry)}
	t.sources[id] = st
	return st
}

// ObserveImage registers a pending entry for an image event. Re-delivery of
// the same (source_id, message_id) is a no-op, so duplicate transport
// callbacks never create duplicate pending state.
func (t *Tracker) ObserveImage(ev domain.ImageEvent) {
	st := t.source(ev.SourceID)

	st.mu.Lock()
	defer st.mu.Unlock()

	if _, exists := st.entries[ev.MessageID]; exists {
		return
	}
	st.entries[ev.MessageID] = &pendingEntry{event: ev, storedAt: t.cfg.Now()}
	st.order = append(st.order, ev.MessageID)
}

// ObserveDescription attempts to resolve a description event against pending
// state. A description that replies to a message matches that exact entry; a
// reply-less description claims the most recent unmatched entry on its source
// inside the recency window. The matched entry is removed. The second return
// value is false when nothing matched.
func (t *Tracker) ObserveDescription(ev domain.DescriptionEvent) (*domain.MatchedPair, bool) {
	t.mu.RLock()
	st, ok := t.sources[ev.SourceID]
	t.mu.RUnlock()
	if !ok {
		return nil, false
	}

	now := t.cfg.Now()

	st.mu.Lock()
	defer st.mu.Unlock()

	st.purgeExpiredLocked(now, t.cfg.TTL)

	if ev.HasReplyTarget() {
		entry, found := st.entries[ev.ReplyTo]
		if !found {
			return nil, false
		}
		st.removeLocked(ev.ReplyTo)
		return &domain.MatchedPair{Image: entry.event, Description: ev}, true
	}

	// Newest first; order may contain already-removed IDs, skip them.
	for i := len(st.order) - 1; i >= 0; i-- {
		id := st.order[i]
		entry, live := st.entries[id]
		if !live {
			continue
		}
		if t.cfg.RecencyWindow > 0 && now.Sub(entry.storedAt) > t.cfg.RecencyWindow {
			break
		}
		st.removeLocked(id)
		return &domain.MatchedPair{Image: entry.event, Description: ev}, true
	}
	return nil, false
}

// Len returns the number of pending entries across all sources.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	total := 0
	for _, st := range t.sources {
		st.mu.Lock()
		total += len(st.entries)
		st.mu.Unlock()
	}
	return total
}

// Sweep purges entries older than TTL from every source and returns the
// number of entries dropped. Eviction is expected data loss, not an error.
func (t *Tracker) Sweep() int {
	t.mu.RLock()
	states := make([]*sourceState, 0, len(t.sources))
	for _, st := range t.sources {
		states = append(states, st)
	}
	t.mu.RUnlock()

	now := t.cfg.Now()
	purged := 0
	for _, st := range states {
		st.mu.Lock()
		purged += st.purgeExpiredLocked(now, t.cfg.TTL)
		st.mu.Unlock()
	}
	return purged
}

// Run sweeps periodically until the context is cancelled.
func (t *Tracker) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if purged := t.Sweep(); purged > 0 {
				logger.FromContext(ctx).WithField(logger.FieldCount, purged).
					Info("Evicted expired pending images")
			}
		}
	}
}

// removeLocked drops an entry; order is compacted lazily.
func (st *sourceState) removeLocked(messageID int) {
	delete(st.entries, messageID)
	if len(st.entries) == 0 {
		st.order = st.order[:0]
	}
}

func (st *sourceState) purgeExpiredLocked(now time.Time, ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}

	purged := 0
	kept := st.order[:0]
	for _, id := range st.order {
		entry, live := st.entries[id]
		if !live {
			continue
		}
		if now.Sub(entry.storedAt) > ttl {
			delete(st.entries, id)
			purged++
			continue
		}
		kept = append(kept, id)
	}
	st.order = kept
	return purged
}
