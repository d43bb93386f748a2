package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"practice-quiz-service/internal/domain"
)

// SessionStore persists the session blob as JSON under one key per session.
// A missing, corrupt, or partially shaped blob reads back as absent; the
// state machine then starts fresh instead of failing.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) Load(ctx context.Context, sessionID string) (domain.SessionState, bool, error) {
	raw, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.SessionState{}, false, nil
	}
	if err != nil {
		return domain.SessionState{}, false, err
	}

	var state domain.SessionState
	if err := json.Unmarshal(raw, &state); err != nil {
		// Corrupt blob: treat as no session rather than propagating.
		log.Printf("session %s: corrupt state blob dropped: %v", sessionID, err)
		return domain.SessionState{}, false, nil
	}
	return state, true, nil
}

func (s *SessionStore) Save(ctx context.Context, sessionID string, state domain.SessionState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(sessionID), raw, s.ttl).Err()
}

func (s *SessionStore) Clear(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, s.key(sessionID)).Err()
}

func (s *SessionStore) key(sessionID string) string {
	return "practice:session:" + sessionID
}
