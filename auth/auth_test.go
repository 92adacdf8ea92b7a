package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"ludo/store"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	sm := NewSessionManager(make([]byte, 32), make([]byte, 32))
	return NewService(db, sm)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestService(t)

	user, err := svc.Register("alice1", "password1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.ID == "" || user.Username != "alice1" {
		t.Errorf("registered user = %+v", user)
	}

	sessionID, loggedIn, err := svc.Login("alice1", "password1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if sessionID == "" {
		t.Error("empty session id")
	}
	if loggedIn.ID != user.ID {
		t.Errorf("login user id = %q, want %q", loggedIn.ID, user.ID)
	}

	userID, ok := svc.ValidateSession(sessionID)
	if !ok || userID != user.ID {
		t.Errorf("validate session = %q, %v", userID, ok)
	}

	svc.Logout(sessionID)
	if _, ok := svc.ValidateSession(sessionID); ok {
		t.Error("session valid after logout")
	}
}

func TestRegisterRejections(t *testing.T) {
	svc := newTestService(t)

	tests := []struct {
		name     string
		username string
		password string
		want     error
	}{
		{"short username", "ab", "password1", ErrInvalidUsername},
		{"non-alphanumeric username", "al ice!", "password1", ErrInvalidUsername},
		{"short password", "alice1", "pw1", ErrInvalidPassword},
		{"password without digits", "alice1", "passwords", ErrInvalidPassword},
		{"password without letters", "alice1", "12345678", ErrInvalidPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Register(tt.username, tt.password); !errors.Is(err, tt.want) {
				t.Errorf("Register(%q, %q) = %v, want %v", tt.username, tt.password, err, tt.want)
			}
		})
	}

	if _, err := svc.Register("alice1", "password1"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register("alice1", "password2"); !errors.Is(err, ErrUserExists) {
		t.Errorf("duplicate register = %v, want ErrUserExists", err)
	}
}

func TestLoginRejections(t *testing.T) {
	svc := newTestService(t)

	if _, err := svc.Register("alice1", "password1"); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, _, err := svc.Login("alice1", "wrongpass1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password = %v, want ErrInvalidCredentials", err)
	}
	if _, _, err := svc.Login("nobody", "password1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown user = %v, want ErrInvalidCredentials", err)
	}
}

func TestSanitize(t *testing.T) {
	if got := SanitizeUsername("<script>alert(1)</script>bob"); got != "bob" {
		t.Errorf("sanitized username = %q, want bob", got)
	}
	if got := SanitizeString("  friday <b>night</b>  "); got != "friday night" {
		t.Errorf("sanitized string = %q", got)
	}
}

func TestSessionCookieRoundtrip(t *testing.T) {
	sm := NewSessionManager(make([]byte, 32), make([]byte, 32))

	sessionID, err := sm.CreateSession("u1")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	rec := httptest.NewRecorder()
	if err := sm.SetSessionCookie(rec, sessionID); err != nil {
		t.Fatalf("set cookie: %v", err)
	}

	req := httptest.NewRequest("GET", "/", nil)
	for _, cookie := range rec.Result().Cookies() {
		req.AddCookie(cookie)
	}

	if got := sm.SessionFromRequest(req); got != sessionID {
		t.Errorf("decoded session = %q, want %q", got, sessionID)
	}

	// A tampered cookie decodes to nothing.
	tampered := httptest.NewRequest("GET", "/", nil)
	tampered.AddCookie(&http.Cookie{Name: "ludo_session", Value: "garbage"})
	if got := sm.SessionFromRequest(tampered); got != "" {
		t.Errorf("tampered cookie decoded to %q, want empty", got)
	}
}
