package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ErrNotFound is returned by Get for an evicted or never-inserted id. The
// presentation layer may race a fetch against an eviction or a clear, so
// this is an expected, recoverable condition.
var ErrNotFound = errors.New("capture not found")

// DefaultCapacity is how many captures the store retains when the
// configured value is missing or invalid.
const DefaultCapacity = 2

// Store holds the most recent captures, oldest evicted first. Get is safe
// to call concurrently with other reads; Insert and Clear are serialized
// against everything so no caller ever observes a half-evicted state.
type Store struct {
	mu          sync.RWMutex
	cache       *lru.Cache[string, Capture]
	lastEvicted string
	purging     bool
}

func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	s := &Store{}
	// Entries are never looked up with promoting reads (Get uses Peek), so
	// with unique ids the cache evicts in pure insertion order.
	cache, err := lru.NewWithEvict[string, Capture](capacity, s.onEvict)
	if err != nil {
		panic(err)
	}
	s.cache = cache
	return s
}

// onEvict runs inside Add or Purge while s.mu is held.
func (s *Store) onEvict(id string, _ Capture) {
	if s.purging {
		return
	}
	s.lastEvicted = id
}

// Insert stores a capture, evicting the oldest entry if the store is full,
// and returns the evicted id if any. The context must be the scheduler
// run's context: a capture completing after the run was cancelled is
// rejected here, under the same lock Clear takes, so a stale result can
// never land in a store that a stop or restart has since cleared.
func (s *Store) Insert(ctx context.Context, c Capture) (evictedID string, inserted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ctx.Err() != nil {
		return "", false
	}

	s.lastEvicted = ""
	s.cache.Add(c.ID, c)
	return s.lastEvicted, true
}

// Get returns the capture for id, or ErrNotFound.
func (s *Store) Get(id string) (Capture, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.cache.Peek(id)
	if !ok {
		return Capture{}, fmt.Errorf("capture %s: %w", id, ErrNotFound)
	}
	return c, nil
}

// IDs returns the retained capture ids, oldest first.
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cache.Keys()
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cache.Len()
}

// Clear drops every capture. Any id handed out before the clear becomes
// permanently invalid.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.purging = true
	s.cache.Purge()
	s.purging = false
}
