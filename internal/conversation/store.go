package conversation

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

const sweepInterval = time.Minute

// Store maps conversation identifiers to their transcripts. Access to a
// single conversation is exclusive: callers Acquire a handle, hold it across
// the read-build-call-append cycle, and Release it when done. That keeps
// concurrent requests on the same conversation from interleaving their
// history updates.
type Store struct {
	mu     sync.RWMutex
	active map[string]*entry
	ttl    time.Duration

	now func() time.Time // test hook
}

type entry struct {
	mu         sync.Mutex
	id         string
	turns      []Turn
	lastActive time.Time
	evicted    bool
}

// NewStore creates an empty store. Conversations idle longer than ttl are
// eligible for eviction; ttl <= 0 disables eviction entirely.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		active: make(map[string]*entry),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Handle is exclusive access to one conversation. It must be Released.
type Handle struct {
	store   *Store
	e       *entry
	created bool
}

// Acquire locks the conversation with the given id, allocating a fresh
// conversation when id is empty or unknown. Unknown ids are not adopted;
// the caller must use the returned ID for follow-up turns.
func (s *Store) Acquire(id string) *Handle {
	for {
		e, created := s.lookup(id)
		e.mu.Lock()
		if e.evicted {
			// The sweeper removed this conversation between lookup and
			// lock; the next pass allocates a fresh one.
			e.mu.Unlock()
			continue
		}
		e.lastActive = s.now()
		return &Handle{store: s, e: e, created: created}
	}
}

func (s *Store) lookup(id string) (*entry, bool) {
	if id != "" {
		s.mu.RLock()
		e, ok := s.active[id]
		s.mu.RUnlock()
		if ok {
			return e, false
		}
	}

	e := &entry{id: uuid.NewString(), lastActive: s.now()}
	s.mu.Lock()
	s.active[e.id] = e
	s.mu.Unlock()
	return e, true
}

// ID returns the conversation identifier.
func (h *Handle) ID() string {
	return h.e.id
}

// Created reports whether Acquire allocated a fresh conversation.
func (h *Handle) Created() bool {
	return h.created
}

// History returns a copy of the transcript in append order.
func (h *Handle) History() []Turn {
	out := make([]Turn, len(h.e.turns))
	copy(out, h.e.turns)
	return out
}

// Len returns the number of turns in the transcript.
func (h *Handle) Len() int {
	return len(h.e.turns)
}

// AppendExchange appends a completed (user, assistant) pair. History only
// ever grows by whole exchanges; a failed completion appends nothing.
func (h *Handle) AppendExchange(user, assistant Turn) {
	h.e.turns = append(h.e.turns, user, assistant)
}

// Release unlocks the conversation and refreshes its idle timer.
func (h *Handle) Release() {
	h.e.lastActive = h.store.now()
	h.e.mu.Unlock()
}

// Len returns the number of live conversations.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.active)
}

// Sweep evicts conversations idle longer than the TTL and returns how many
// were removed. Conversations currently held by a caller are skipped.
func (s *Store) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, e := range s.active {
		if !e.mu.TryLock() {
			continue // in use
		}
		if e.lastActive.Before(cutoff) {
			e.evicted = true
			delete(s.active, id)
			evicted++
		}
		e.mu.Unlock()
	}
	return evicted
}

// StartSweeper runs a background goroutine that periodically evicts idle
// conversations until the context is cancelled. It is a no-op when eviction
// is disabled.
func (s *Store) StartSweeper(ctx context.Context) {
	if s.ttl <= 0 {
		return
	}
	ticker := time.NewTicker(sweepInterval)
	go func() {
		defer ticker.Stop()
		slog.Info("Conversation sweeper started", "ttl", s.ttl, "interval", sweepInterval)

		for {
			select {
			case <-ticker.C:
				if evicted := s.Sweep(); evicted > 0 {
					slog.Info("Evicted idle conversations", "count", evicted)
				}
			case <-ctx.Done():
				slog.Info("Conversation sweeper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}
