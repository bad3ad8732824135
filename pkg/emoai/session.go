package emoai

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"
)

// MinPasswordLength mirrors the backend's account policy.
const MinPasswordLength = 6

// Session is the authenticated identity bound to the current interactive
// user. A Session exists if and only if the user is authenticated.
type Session struct {
	UserID    string
	Email     string
	CreatedAt time.Time
	Token     string
}

// SessionManager mediates all authentication state transitions. The session
// slot has a single writer (the manager) and many readers; observers are
// notified synchronously on every transition into or out of the
// authenticated state, before the triggering call returns.
type SessionManager struct {
	client *Client

	mu        sync.RWMutex
	current   *Session
	observers map[int]func(*Session)
	nextObsID int
}

// NewSessionManager creates a manager in the anonymous state.
func NewSessionManager(client *Client) *SessionManager {
	return &SessionManager{
		client:    client,
		observers: make(map[int]func(*Session)),
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type authPayload struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	Token   string    `json:"token"`
	User    *authUser `json:"user"`
}

// SignUp registers a new account. Success means the account is pending
// out-of-band email verification; no session is established. Expected
// rejections (invalid input, duplicate email) come back as *CredentialError.
func (m *SessionManager) SignUp(ctx context.Context, email, password string) error {
	if err := validateEmail(email); err != nil {
		return &CredentialError{Message: err.Error()}
	}
	if len(password) < MinPasswordLength {
		return &CredentialError{Message: fmt.Sprintf("password must be at least %d characters", MinPasswordLength)}
	}

	var resp authPayload
	err := m.client.post(ctx, "/api/auth/signup", "", credentialsRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return asCredentialError(err)
	}
	return nil
}

// SignIn authenticates and establishes a session. All observers are notified
// synchronously before SignIn returns, so a dependent read of the current
// user never observes a state older than this transition. On failure the
// state stays anonymous.
func (m *SessionManager) SignIn(ctx context.Context, email, password string) error {
	var resp authPayload
	err := m.client.post(ctx, "/api/auth/signin", "", credentialsRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return asCredentialError(err)
	}
	if resp.Token == "" || resp.User == nil {
		return &PersistenceError{Op: "sign in", Message: "malformed response"}
	}

	m.setSession(&Session{
		UserID:    resp.User.ID,
		Email:     resp.User.Email,
		CreatedAt: resp.User.CreatedAt,
		Token:     resp.Token,
	})
	return nil
}

// SignOut clears the session and notifies observers, then invalidates the
// token with the backend on a best-effort basis. Local state clears even if
// the remote call fails: a phantom session is worse than a dangling token.
func (m *SessionManager) SignOut(ctx context.Context) {
	m.mu.Lock()
	prev := m.current
	m.current = nil
	observers := m.observerList()
	m.mu.Unlock()

	if prev == nil {
		return
	}

	for _, fn := range observers {
		fn(nil)
	}
	_ = m.client.post(ctx, "/api/auth/signout", prev.Token, nil, nil)
}

// ExpireSession transitions to anonymous when the credential store stops
// honoring a token: the dead session is discarded and observers are notified,
// exactly as on sign-out. The token is compared against the current session
// so a rejection of a stale token cannot clobber a newer session.
func (m *SessionManager) ExpireSession(token string) {
	m.mu.Lock()
	if m.current == nil || m.current.Token != token {
		m.mu.Unlock()
		return
	}
	m.current = nil
	observers := m.observerList()
	m.mu.Unlock()

	for _, fn := range observers {
		fn(nil)
	}
}

// CurrentSession returns the last completed session state, or nil when
// anonymous. It never blocks on in-flight operations.
func (m *SessionManager) CurrentSession() *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Subscribe registers an observer for session transitions and returns an
// unsubscribe handle. Observers are invoked synchronously with the new
// session (nil for sign-out).
func (m *SessionManager) Subscribe(fn func(*Session)) func() {
	m.mu.Lock()
	id := m.nextObsID
	m.nextObsID++
	m.observers[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.observers, id)
		m.mu.Unlock()
	}
}

func (m *SessionManager) setSession(s *Session) {
	m.mu.Lock()
	m.current = s
	observers := m.observerList()
	m.mu.Unlock()

	for _, fn := range observers {
		fn(s)
	}
}

// observerList snapshots the observers; callers must hold the lock.
func (m *SessionManager) observerList() []func(*Session) {
	out := make([]func(*Session), 0, len(m.observers))
	for _, fn := range m.observers {
		out = append(out, fn)
	}
	return out
}

// asCredentialError maps a backend rejection to *CredentialError, passing
// other failures (transport, server errors) through unchanged.
func asCredentialError(err error) error {
	var se *statusError
	if errors.As(err, &se) {
		if se.StatusCode >= 500 {
			return &PersistenceError{Op: "auth", Message: se.Message}
		}
		return &CredentialError{Message: se.Message}
	}
	return err
}

func validateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return errors.New("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return errors.New("invalid email address")
	}
	return nil
}
