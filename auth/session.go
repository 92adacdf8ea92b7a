package auth

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
)

const sessionCookieName = "ludo_session"

type Session struct {
	UserID    string
	ExpiresAt time.Time
}

// SessionManager keeps login sessions in memory and writes the session id
// to an encrypted, authenticated cookie.
type SessionManager struct {
	sessions map[string]*Session
	codec    *securecookie.SecureCookie
	mu       sync.RWMutex
}

func NewSessionManager(hashKey, blockKey []byte) *SessionManager {
	sm := &SessionManager{
		sessions: make(map[string]*Session),
		codec:    securecookie.New(hashKey, blockKey),
	}

	// Start cleanup goroutine
	go sm.cleanupExpiredSessions()

	return sm
}

func (sm *SessionManager) CreateSession(userID string) (string, error) {
	sessionID := uuid.NewString()

	sm.mu.Lock()
	sm.sessions[sessionID] = &Session{
		UserID:    userID,
		ExpiresAt: time.Now().Add(7 * 24 * time.Hour), // 7 days
	}
	sm.mu.Unlock()

	return sessionID, nil
}

func (sm *SessionManager) GetUserID(sessionID string) (string, bool) {
	sm.mu.RLock()
	session, exists := sm.sessions[sessionID]
	sm.mu.RUnlock()

	if !exists {
		return "", false
	}

	// Check if session is expired
	if time.Now().After(session.ExpiresAt) {
		sm.DeleteSession(sessionID)
		return "", false
	}

	return session.UserID, true
}

func (sm *SessionManager) DeleteSession(sessionID string) {
	sm.mu.Lock()
	delete(sm.sessions, sessionID)
	sm.mu.Unlock()
}

func (sm *SessionManager) SetSessionCookie(w http.ResponseWriter, sessionID string) error {
	encoded, err := sm.codec.Encode(sessionCookieName, sessionID)
	if err != nil {
		return err
	}

	cookie := &http.Cookie{
		Name:     sessionCookieName,
		Value:    encoded,
		Path:     "/",
		MaxAge:   7 * 24 * 60 * 60, // 7 days
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		// Secure: true, // Enable in production with HTTPS
	}
	http.SetCookie(w, cookie)
	return nil
}

func (sm *SessionManager) ClearSessionCookie(w http.ResponseWriter) {
	cookie := &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	}
	http.SetCookie(w, cookie)
}

// SessionFromRequest decodes the session cookie; it returns "" for missing
// or tampered cookies.
func (sm *SessionManager) SessionFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}

	var sessionID string
	if err := sm.codec.Decode(sessionCookieName, cookie.Value, &sessionID); err != nil {
		return ""
	}
	return sessionID
}

func (sm *SessionManager) cleanupExpiredSessions() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		sm.mu.Lock()
		now := time.Now()
		for id, session := range sm.sessions {
			if now.After(session.ExpiresAt) {
				delete(sm.sessions, id)
			}
		}
		sm.mu.Unlock()
	}
}
