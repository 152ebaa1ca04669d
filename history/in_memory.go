// Package history provides conversation history recorders implementing the
// core.TurnSink interface. The bundled in-memory recorder is volatile and
// intended for tests, demos, and clients that keep their own durable store.
package history

import (
	"strings"
	"sync"

	"github.com/agentweave/agentweave/core"
)

// InMemorySink is a volatile TurnSink implementation recording turns in a
// process local slice. It is safe for concurrent access and best suited for
// tests or ephemeral demo clients. Returned turns are cloned to prevent
// external mutation of internal state.
type InMemorySink struct {
	mu    sync.RWMutex
	turns []core.Turn
}

// NewInMemorySink constructs an empty in-memory history recorder.
func NewInMemorySink() *InMemorySink {
	return &InMemorySink{}
}

// AppendTurn records a clone of the turn. It never fails.
func (s *InMemorySink) AppendTurn(turn core.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, turn.Clone())
	return nil
}

// Turns returns a snapshot of all recorded turns in append order.
func (s *InMemorySink) Turns() []core.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return core.CloneTurns(s.turns)
}

// Len reports the number of recorded turns.
func (s *InMemorySink) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}

// Reset discards all recorded turns.
func (s *InMemorySink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = nil
}

// Search performs a simple substring match over the text of recorded turns.
// Results are returned in append order up to limit; a non-positive limit
// means unlimited. Linear scan with case-insensitive matching, suitable for
// tests and demo clients; swap the sink for an indexed store for production
// retrieval.
func (s *InMemorySink) Search(query string, limit int) []core.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(query)
	var out []core.Turn

	for _, turn := range s.turns {
		if !strings.Contains(strings.ToLower(turn.Text()), needle) {
			continue
		}
		out = append(out, turn.Clone())
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}
