package conversation

import "sync"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is a single role-tagged message within a user's history.
// Immutable once appended.
type Turn struct {
	Role    string
	Content string
}

// Store holds conversation histories for all active users, keyed by the
// Telegram user ID. Histories are created lazily on first append and
// trimmed to the configured limit so upstream requests stay bounded.
type Store struct {
	mu    sync.RWMutex
	limit int
	turns map[int64][]Turn
}

// NewStore creates a store keeping at most limit turns per user.
// limit <= 0 disables trimming.
func NewStore(limit int) *Store {
	return &Store{limit: limit, turns: make(map[int64][]Turn)}
}

func (s *Store) AppendUser(userID int64, content string) {
	s.Append(userID, RoleUser, content)
}

func (s *Store) AppendAssistant(userID int64, content string) {
	s.Append(userID, RoleAssistant, content)
}

func (s *Store) Append(userID int64, role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts := append(s.turns[userID], Turn{Role: role, Content: content})
	if s.limit > 0 && len(ts) > s.limit {
		// Drop oldest turns; copy so the trimmed prefix can be collected.
		trimmed := make([]Turn, s.limit)
		copy(trimmed, ts[len(ts)-s.limit:])
		ts = trimmed
	}
	s.turns[userID] = ts
}

// History returns the user's turns in insertion order. The returned slice
// is a copy; mutating it does not affect the store.
func (s *Store) History(userID int64) []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ts := s.turns[userID]
	out := make([]Turn, len(ts))
	copy(out, ts)
	return out
}

// Clear empties the user's history. A no-op for users with no history.
func (s *Store) Clear(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.turns, userID)
}

func (s *Store) Len(userID int64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns[userID])
}
