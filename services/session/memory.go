package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements Store in process with a TTL per entry
type MemoryStore struct {
	mu     sync.Mutex
	ttl    time.Duration
	states map[int64]State
	now    func() time.Time
}

// NewMemoryStore creates a memory store whose entries expire after ttl
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, states: make(map[int64]State), now: time.Now}
}

// Get returns the state for a chat
func (s *MemoryStore) Get(_ context.Context, chatID int64) (State, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[chatID]
	if !ok {
		return State{}, false, nil
	}
	if s.ttl > 0 && s.now().Sub(state.UpdatedAt) >= s.ttl {
		delete(s.states, chatID)
		return State{}, false, nil
	}
	return state, true, nil
}

// Set stores the state for a chat and stamps UpdatedAt
func (s *MemoryStore) Set(_ context.Context, chatID int64, state State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state.UpdatedAt = s.now()
	s.states[chatID] = state
	return nil
}

// Delete clears the state for a chat
func (s *MemoryStore) Delete(_ context.Context, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, chatID)
	return nil
}

// Close is a no-op
func (s *MemoryStore) Close() error {
	return nil
}
