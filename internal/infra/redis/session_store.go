package redis

import (
	"context"
	"sync"
	"time"

	"casper-learning/internal/app"
	"github.com/redis/go-redis/v9"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Notes:
//   - Sessions stay in a local map; their state machine and subscribers are
//     in-process.
//   - Redis holds a liveness marker per session (quiz ids as value) with a TTL,
//     which lets operators see active attempts.
type SessionStore struct {
	client    *redis.Client
	ttl       time.Duration
	namespace string
	mu        sync.RWMutex
	sessions  map[string]*app.Session
}

func NewSessionStore(client *redis.Client, namespace string, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:    client,
		ttl:       ttl,
		namespace: namespace,
		sessions:  make(map[string]*app.Session),
	}
}

func (s *SessionStore) Save(session *app.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID()] = session
	state := session.Snapshot()
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(session.ID()), state.ModuleID+"/"+state.QuizID, s.ttl).Err()
}

func (s *SessionStore) Get(sessionID string) (*app.Session, bool) {
	s.mu.RLock()
	session, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if ok {
		_ = s.client.Expire(context.Background(), s.key(sessionID), s.ttl).Err()
	}
	return session, ok
}

func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	_ = s.client.Del(context.Background(), s.key(sessionID)).Err()
}

func (s *SessionStore) key(sessionID string) string {
	return s.namespace + "quiz:session:" + sessionID
}
