package endpoint

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/getlagd/lagd/pkg/logging"
)

// DefaultMaxEntries bounds the registry when no explicit limit is given.
const DefaultMaxEntries = 10000

// Registry maps normalized paths to endpoint behaviors and holds the
// shared default behavior.
//
// The entry map is a bounded LRU: when an insert exceeds the capacity,
// the least-recently-used entry (by access, not insertion) is evicted.
// Reads of the entry map run concurrently; writes are exclusive. The
// defaults are an immutable value replaced by atomic swap, so readers
// never observe a half-updated default.
type Registry struct {
	mu       sync.RWMutex
	entries  *lru.Cache[string, Behavior]
	defaults atomic.Pointer[Defaults]
	log      *slog.Logger
}

// NewRegistry creates a registry bounded to maxEntries (DefaultMaxEntries
// when <= 0), seeded with the given defaults. The defaults must satisfy
// the behavior invariant.
func NewRegistry(maxEntries int, defaults Defaults, log *slog.Logger) (*Registry, error) {
	if err := defaults.Validate(); err != nil {
		return nil, err
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if log == nil {
		log = logging.Nop()
	}

	r := &Registry{log: log}
	cache, err := lru.NewWithEvict(maxEntries, func(path string, _ Behavior) {
		log.Warn("evicting least-recently-used endpoint config over entry limit",
			"path", path, "limit", maxEntries)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create endpoint cache: %w", err)
	}
	r.entries = cache
	r.defaults.Store(&defaults)
	return r, nil
}

// Configure validates the behavior and inserts or overwrites it under
// the normalized path. May evict the least-recently-used entry when the
// capacity is exceeded.
func (r *Registry) Configure(path string, b Behavior) error {
	if err := b.Validate(); err != nil {
		return err
	}

	key := Normalize(path)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries.Add(key, b)
	return nil
}

// Get returns the behavior configured for the exact normalized path.
// It does not fall back to defaults.
func (r *Registry) Get(path string) (Behavior, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries.Get(Normalize(path))
}

// Resolve returns the effective behavior for a path: the configured
// entry if present, else a behavior synthesized from the current
// defaults snapshot.
func (r *Registry) Resolve(path string) Behavior {
	r.mu.RLock()
	b, ok := r.entries.Get(Normalize(path))
	r.mu.RUnlock()
	if ok {
		return b
	}
	return r.defaults.Load().Behavior()
}

// Delete removes the entry for the path. Returns true iff an entry
// existed and was removed.
func (r *Registry) Delete(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries.Remove(Normalize(path))
}

// Clear removes all entries and returns the count removed.
func (r *Registry) Clear() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := r.entries.Len()
	r.entries.Purge()
	return n
}

// List returns a snapshot copy of all entries. Later registry mutations
// do not affect the returned map. Listing does not touch LRU recency.
func (r *Registry) List() map[string]Behavior {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]Behavior, r.entries.Len())
	for _, key := range r.entries.Keys() {
		if b, ok := r.entries.Peek(key); ok {
			out[key] = b
		}
	}
	return out
}

// Count returns the number of configured endpoints.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries.Len()
}

// SetDefaults merges the provided fields into the current defaults,
// validates the merged result as a unit, and swaps the whole defaults
// value atomically. Nil fields keep their current value. On contention
// the merge is recomputed from the fresh snapshot and retried, so the
// cross-field invariant holds under concurrent updates.
func (r *Registry) SetDefaults(minDelayMs, maxDelayMs *int, errorRate *float64) (Defaults, error) {
	for {
		cur := r.defaults.Load()

		cand := *cur
		if minDelayMs != nil {
			cand.MinDelayMs = *minDelayMs
		}
		if maxDelayMs != nil {
			cand.MaxDelayMs = *maxDelayMs
		}
		if errorRate != nil {
			cand.ErrorRate = *errorRate
		}
		if err := cand.Validate(); err != nil {
			return Defaults{}, err
		}

		if r.defaults.CompareAndSwap(cur, &cand) {
			return cand, nil
		}
	}
}

// GetDefaults returns the current defaults snapshot.
func (r *Registry) GetDefaults() Defaults {
	return *r.defaults.Load()
}
