package history

import (
	"sync"
	"time"

	"github.com/callbridge/callbridge/core"
)

// Entry is the record of one dispatched call.
type Entry struct {
	CallID    string          `json:"call_id"`
	Operation string          `json:"operation"`
	Accepted  bool            `json:"accepted"`
	Code      core.RejectCode `json:"code,omitempty"`
	Reason    string          `json:"reason,omitempty"`
	Duration  time.Duration   `json:"duration"`
	At        time.Time       `json:"at"`
}

// Store persists dispatch history entries.
type Store interface {
	// Append records one entry.
	Append(e Entry) error

	// Recent returns up to n entries, most recent first.
	Recent(n int) ([]Entry, error)
}

// InMemoryStore is a volatile Store implementation keeping a bounded window
// of recent entries in a process local slice. It is safe for concurrent
// access and best suited for tests or ephemeral sessions.
type InMemoryStore struct {
	mu         sync.RWMutex
	entries    []Entry
	keepRecent int
}

// NewInMemoryStore constructs an in-memory store retaining at most
// keepRecent entries (oldest dropped first). keepRecent <= 0 defaults
// to 1000.
func NewInMemoryStore(keepRecent int) *InMemoryStore {
	if keepRecent <= 0 {
		keepRecent = 1000
	}
	return &InMemoryStore{keepRecent: keepRecent}
}

// Append records one entry, evicting the oldest when over capacity.
func (s *InMemoryStore) Append(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, e)
	if len(s.entries) > s.keepRecent {
		s.entries = s.entries[len(s.entries)-s.keepRecent:]
	}

	return nil
}

// Recent returns up to n entries, most recent first.
func (s *InMemoryStore) Recent(n int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n <= 0 || n > len(s.entries) {
		n = len(s.entries)
	}

	out := make([]Entry, 0, n)
	for i := len(s.entries) - 1; i >= len(s.entries)-n; i-- {
		out = append(out, s.entries[i])
	}

	return out, nil
}
