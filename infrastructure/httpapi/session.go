package httpapi

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Role names the capability a session carries.
type Role string

const (
	// RoleAnnotator scopes a session to one annotator's own data.
	RoleAnnotator Role = "annotator"

	// RoleAdmin grants access to the review and export endpoints.
	RoleAdmin Role = "admin"
)

// SessionCookie is the cookie carrying the session token. Clients may
// send the token in the X-Session-Token header instead.
const SessionCookie = "annotation_session"

// Session is one authenticated login. AnnotatorID is -1 for admin
// sessions.
type Session struct {
	Token       string
	Role        Role
	AnnotatorID int
	Annotator   string
	ExpiresAt   time.Time
}

// SessionManager issues and resolves login sessions in memory. Tokens are
// UUIDs, the TTL slides on every successful lookup, and nothing survives
// a process restart. The annotation data files never reference sessions.
//
// Concurrency: safe for concurrent use.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration

	// now stamps expiry deadlines; tests substitute a fixed clock.
	now func() time.Time
}

// NewSessionManager creates a manager whose sessions idle out after ttl.
func NewSessionManager(ttl time.Duration) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create issues a session for the given identity and returns a copy of
// it. Expired sessions are swept opportunistically on each create.
func (m *SessionManager) Create(role Role, annotatorID int, annotator string) Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.purgeExpired(now)

	sess := &Session{
		Token:       uuid.NewString(),
		Role:        role,
		AnnotatorID: annotatorID,
		Annotator:   annotator,
		ExpiresAt:   now.Add(m.ttl),
	}
	m.sessions[sess.Token] = sess
	return *sess
}

// Lookup resolves a token to its session and slides the expiry forward.
// Expired or unknown tokens report false; expired entries are removed.
func (m *SessionManager) Lookup(token string) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[token]
	if !ok {
		return Session{}, false
	}
	now := m.now()
	if !now.Before(sess.ExpiresAt) {
		delete(m.sessions, token)
		return Session{}, false
	}
	sess.ExpiresAt = now.Add(m.ttl)
	return *sess, true
}

// Revoke removes a session. Revoking an unknown token is a no-op.
func (m *SessionManager) Revoke(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
}

// Active reports the number of live sessions, expired entries excluded.
func (m *SessionManager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.purgeExpired(m.now())
	return len(m.sessions)
}

func (m *SessionManager) purgeExpired(now time.Time) {
	for token, sess := range m.sessions {
		if !now.Before(sess.ExpiresAt) {
			delete(m.sessions, token)
		}
	}
}
