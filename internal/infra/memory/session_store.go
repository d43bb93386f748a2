package memory

import (
	"context"
	"sync"

	"practice-quiz-service/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionRepository,
// used for tests and single-process deployments without Redis.
type SessionStore struct {
	mu     sync.RWMutex
	states map[string]domain.SessionState
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		states: make(map[string]domain.SessionState),
	}
}

func (s *SessionStore) Load(_ context.Context, sessionID string) (domain.SessionState, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[sessionID]
	if !ok {
		return domain.SessionState{}, false, nil
	}
	return cloneState(state), true, nil
}

func (s *SessionStore) Save(_ context.Context, sessionID string, state domain.SessionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[sessionID] = cloneState(state)
	return nil
}

func (s *SessionStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, sessionID)
	return nil
}

// cloneState keeps callers from mutating stored maps and slices through
// shared references.
func cloneState(state domain.SessionState) domain.SessionState {
	out := state
	if state.QuestionOrder != nil {
		out.QuestionOrder = append([]string(nil), state.QuestionOrder...)
	}
	if state.Answers != nil {
		out.Answers = make(map[string]int, len(state.Answers))
		for id, idx := range state.Answers {
			out.Answers[id] = idx
		}
	}
	return out
}
