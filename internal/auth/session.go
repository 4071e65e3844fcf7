package auth

import (
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"
)

// Session is an authenticated user. TenantID is the account's email domain:
// everyone at sparkle-janitorial.com works in the same tenant.
type Session struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Picture   string    `json:"picture"`
	TenantID  string    `json:"tenant_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Session) expired() bool { return time.Now().After(s.ExpiresAt) }

// sessionStore is an in-memory session table. Sessions do not survive a
// restart; users just log in again.
type sessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[string]*Session)}
}

func (st *sessionStore) put(id string, s *Session) {
	st.mu.Lock()
	st.sessions[id] = s
	st.mu.Unlock()
}

// get returns the live session for id, dropping it if expired.
func (st *sessionStore) get(id string) *Session {
	st.mu.RLock()
	s := st.sessions[id]
	st.mu.RUnlock()
	if s == nil {
		return nil
	}
	if s.expired() {
		st.drop(id)
		return nil
	}
	return s
}

func (st *sessionStore) drop(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

func (st *sessionStore) purgeExpired() {
	st.mu.Lock()
	defer st.mu.Unlock()
	for id, s := range st.sessions {
		if s.expired() {
			delete(st.sessions, id)
		}
	}
}

// randomToken returns 32 bytes of URL-safe randomness for session ids and
// OAuth state.
func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
