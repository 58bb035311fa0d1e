// Package history stores conversation turns per tutoring session. The
// answer engine only reads turns; callers append after each answer.
package history

import (
	"context"
	"sync"

	"github.com/pb1803/PDF-RAG/internal/models"
)

// Store is the conversation store contract. RecentTurns returns at most
// limit turns ordered oldest first (most recent last).
type Store interface {
	RecentTurns(ctx context.Context, sessionID string, limit int) ([]models.ConversationTurn, error)
	Append(ctx context.Context, sessionID string, turns ...models.ConversationTurn) error
}

// MemoryStore keeps sessions in process memory. Useful for the CLI and
// tests; conversations do not survive a restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]models.ConversationTurn
	cap      int
}

// NewMemoryStore creates an in-memory store that retains at most cap turns
// per session.
func NewMemoryStore(cap int) *MemoryStore {
	if cap <= 0 {
		cap = 20
	}
	return &MemoryStore{
		sessions: make(map[string][]models.ConversationTurn),
		cap:      cap,
	}
}

// RecentTurns returns the most recent turns for a session, oldest first.
func (s *MemoryStore) RecentTurns(_ context.Context, sessionID string, limit int) ([]models.ConversationTurn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := s.sessions[sessionID]
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}

	out := make([]models.ConversationTurn, len(turns))
	copy(out, turns)
	return out, nil
}

// Append adds turns to a session, trimming to the retention cap.
func (s *MemoryStore) Append(_ context.Context, sessionID string, turns ...models.ConversationTurn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := append(s.sessions[sessionID], turns...)
	if len(all) > s.cap {
		all = all[len(all)-s.cap:]
	}
	s.sessions[sessionID] = all
	return nil
}
