package testfixtures

import (
	"context"
	"sync"
	"time"
)

type session struct {
	userID  string
	expires time.Time
	revoked bool
}

// SessionStore is an in-memory auth.SessionStore.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]session
	Clock    *Clock
	Err      error
}

func NewSessionStore(clock *Clock) *SessionStore {
	return &SessionStore{sessions: map[string]session{}, Clock: clock}
}

func (s *SessionStore) CreateSession(_ context.Context, id, userID string, expires time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.sessions[id] = session{userID: userID, expires: expires}
	return nil
}

func (s *SessionStore) RevokeSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if sess, ok := s.sessions[id]; ok {
		sess.revoked = true
		s.sessions[id] = sess
	}
	return nil
}

func (s *SessionStore) SessionValid(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	sess, ok := s.sessions[id]
	return ok && !sess.revoked && s.Clock.NowFunc()().Before(sess.expires), nil
}

// Count is the number of sessions ever created.
func (s *SessionStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
