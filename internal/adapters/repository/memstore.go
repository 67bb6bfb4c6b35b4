// Package repository defines the profile store interface and errors.
package repository

import (
	"context"
	"sync"
	"time"

	"github.com/okian/gatekeeper/internal/domain/profile"
	"github.com/okian/gatekeeper/pkg/metrics"
)

// In-memory, TTL-bound Store implementation.
//
// Every entry carries an absolute deadline. Reads check the deadline
// lazily so an expired profile is never returned even between sweeps;
// a background sweeper reclaims the memory on its own cadence.

// entry pairs a profile with its expiry deadline.
type entry struct {
	profile   *profile.Profile
	expiresAt time.Time
}

type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]entry

	ttl           time.Duration
	sweepInterval time.Duration
	capacity      int
	now           func() time.Time

	wg       sync.WaitGroup
	stopChan chan struct{}
}

// NewMemoryStore constructs a TTL store with configuration options and
// starts its background sweeper.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		entries:       make(map[string]entry),
		ttl:           time.Hour,
		sweepInterval: time.Minute,
		capacity:      1000,
		now:           time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.stopChan = make(chan struct{})
	s.startSweeper(ctx)

	return s
}

// startSweeper starts a background goroutine that removes expired
// profiles at the configured interval.
func (s *MemoryStore) startSweeper(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.sweep()
			}
		}
	}()
}

// sweep removes every entry whose deadline has passed.
func (s *MemoryStore) sweep() {
	now := s.now()

	s.mu.Lock()
	for id, e := range s.entries {
		if !e.expiresAt.After(now) {
			delete(s.entries, id)
			metrics.RecordProfileExpired()
		}
	}
	live := len(s.entries)
	s.mu.Unlock()

	metrics.UpdateProfilesLive(live)
}

// Close gracefully shuts down the sweeper goroutine.
func (s *MemoryStore) Close() error {
	select {
	case <-s.stopChan:
		// Channel already closed
	default:
		close(s.stopChan)
	}
	s.wg.Wait()
	return nil
}

// Put implements Store.Put. When the store is at capacity it evicts
// the entry closest to expiry before inserting.
func (s *MemoryStore) Put(ctx context.Context, id string, p *profile.Profile) error {
	if p == nil {
		return ErrNilProfile
	}

	now := s.now()

	s.mu.Lock()
	if _, exists := s.entries[id]; !exists && len(s.entries) >= s.capacity {
		s.evictSoonest()
	}
	s.entries[id] = entry{profile: p, expiresAt: now.Add(s.ttl)}
	live := len(s.entries)
	s.mu.Unlock()

	metrics.UpdateProfilesLive(live)
	return nil
}

// evictSoonest removes the entry with the earliest deadline.
// Caller must hold the write lock.
func (s *MemoryStore) evictSoonest() {
	var victim string
	var deadline time.Time
	for id, e := range s.entries {
		if victim == "" || e.expiresAt.Before(deadline) {
			victim = id
			deadline = e.expiresAt
		}
	}
	if victim != "" {
		delete(s.entries, victim)
		metrics.RecordProfileEvicted()
	}
}

// Get implements Store.Get. Expired entries are treated as absent even
// if the sweeper has not reclaimed them yet.
func (s *MemoryStore) Get(ctx context.Context, id string) (*profile.Profile, error) {
	now := s.now()

	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()

	if !ok || !e.expiresAt.After(now) {
		return nil, ErrNotFound
	}
	return e.profile, nil
}

// Delete implements Store.Delete.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	_, ok := s.entries[id]
	if ok {
		delete(s.entries, id)
	}
	live := len(s.entries)
	s.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	metrics.UpdateProfilesLive(live)
	return nil
}

// Len returns the number of live (unexpired) profiles.
func (s *MemoryStore) Len(ctx context.Context) int {
	now := s.now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, e := range s.entries {
		if e.expiresAt.After(now) {
			count++
		}
	}
	return count
}
