package emoai_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/emoai-app/emoai-backend/pkg/emoai"
)

// fakeBackend is an in-memory stand-in for the EmoAI backend API, speaking
// the same envelope the real handlers do.
type fakeBackend struct {
	mu       sync.Mutex
	users    map[string]*fakeUser // keyed by email
	sessions map[string]*fakeUser // keyed by token
	journals []emoai.JournalEntry

	now          time.Time
	nextID       int
	signoutCalls int

	// Failure/behavior knobs
	failSignout  bool
	failJournals bool
	shuffleList  bool
}

type fakeUser struct {
	id          string
	email       string
	password    string
	verified    bool
	displayName *string
	createdAt   time.Time
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		users:    make(map[string]*fakeUser),
		sessions: make(map[string]*fakeUser),
		now:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (fb *fakeBackend) verify(email string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if u, ok := fb.users[email]; ok {
		u.verified = true
	}
}

func (fb *fakeBackend) dropSession(token string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	delete(fb.sessions, token)
}

// addJournal inserts an entry directly, bypassing the API (another user's data).
func (fb *fakeBackend) addJournal(userID, title, content string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.nextID++
	fb.now = fb.now.Add(time.Second)
	fb.journals = append(fb.journals, emoai.JournalEntry{
		ID:        fmt.Sprintf("entry-%d", fb.nextID),
		UserID:    userID,
		Title:     title,
		Content:   content,
		CreatedAt: fb.now,
	})
}

func (fb *fakeBackend) journalCount() int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return len(fb.journals)
}

func (fb *fakeBackend) sessionUser(r *http.Request) *fakeUser {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return nil
	}
	return fb.sessions[strings.TrimPrefix(auth, "Bearer ")]
}

func writeEnvelope(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeEnvelope(w, status, map[string]interface{}{"success": status < 400, "message": message})
}

func (fb *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()

	// Go 1.21's ServeMux has no method patterns, so each handler checks
	// r.Method itself.
	requireMethod := func(w http.ResponseWriter, r *http.Request, method string) bool {
		if r.Method != method {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return false
		}
		return true
	}

	mux.HandleFunc("/api/auth/signup", func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodPost) {
			return
		}
		var req struct{ Email, Password string }
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeMessage(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		fb.mu.Lock()
		defer fb.mu.Unlock()
		if _, exists := fb.users[req.Email]; exists {
			writeMessage(w, http.StatusConflict, "An account with this email already exists")
			return
		}
		fb.nextID++
		fb.users[req.Email] = &fakeUser{
			id:        fmt.Sprintf("user-%d", fb.nextID),
			email:     req.Email,
			password:  req.Password,
			createdAt: fb.now,
		}
		writeMessage(w, http.StatusCreated, "Account created. Please check your email for a verification link.")
	})

	mux.HandleFunc("/api/auth/signin", func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodPost) {
			return
		}
		var req struct{ Email, Password string }
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeMessage(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		fb.mu.Lock()
		defer fb.mu.Unlock()
		u, ok := fb.users[req.Email]
		if !ok || u.password != req.Password {
			writeMessage(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		if !u.verified {
			writeMessage(w, http.StatusForbidden, "Please verify your email before signing in")
			return
		}
		fb.nextID++
		token := fmt.Sprintf("token-%d", fb.nextID)
		fb.sessions[token] = u
		writeEnvelope(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"message": "Signed in successfully",
			"token":   token,
			"user": map[string]interface{}{
				"id":         u.id,
				"email":      u.email,
				"created_at": u.createdAt,
			},
		})
	})

	mux.HandleFunc("/api/auth/signout", func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodPost) {
			return
		}
		fb.mu.Lock()
		defer fb.mu.Unlock()
		fb.signoutCalls++
		if fb.failSignout {
			writeMessage(w, http.StatusInternalServerError, "Redis unavailable")
			return
		}
		auth := r.Header.Get("Authorization")
		delete(fb.sessions, strings.TrimPrefix(auth, "Bearer "))
		writeMessage(w, http.StatusOK, "Signed out")
	})

	mux.HandleFunc("/api/profile", func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodGet) {
			return
		}
		fb.mu.Lock()
		defer fb.mu.Unlock()
		u := fb.sessionUser(r)
		if u == nil {
			writeMessage(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		writeEnvelope(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"profile": map[string]interface{}{
				"id":           "profile-" + u.id,
				"user_id":      u.id,
				"display_name": u.displayName,
				"created_at":   u.createdAt,
			},
		})
	})

	postJournals := func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		defer fb.mu.Unlock()
		u := fb.sessionUser(r)
		if u == nil {
			writeMessage(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		if fb.failJournals {
			writeMessage(w, http.StatusInternalServerError, "Failed to create journal entry")
			return
		}
		var req struct{ Title, Content, Mood string }
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeMessage(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.Content == "" {
			writeMessage(w, http.StatusBadRequest, "Content is required")
			return
		}
		title := req.Title
		if title == "" {
			title = "Untitled Entry"
		}
		var mood *string
		if req.Mood != "" {
			mood = &req.Mood
		}
		fb.nextID++
		fb.now = fb.now.Add(time.Second)
		entry := emoai.JournalEntry{
			ID:        fmt.Sprintf("entry-%d", fb.nextID),
			UserID:    u.id,
			Title:     title,
			Content:   req.Content,
			Mood:      mood,
			CreatedAt: fb.now,
		}
		fb.journals = append(fb.journals, entry)
		writeEnvelope(w, http.StatusCreated, map[string]interface{}{
			"success": true,
			"message": "Journal entry saved",
			"journal": entry,
		})
	}

	getJournals := func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		defer fb.mu.Unlock()
		u := fb.sessionUser(r)
		if u == nil {
			writeMessage(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		if fb.failJournals {
			writeMessage(w, http.StatusInternalServerError, "Failed to fetch journal entries")
			return
		}
		limit := 10
		if s := r.URL.Query().Get("limit"); s != "" {
			if n, err := strconv.Atoi(s); err == nil && n > 0 {
				limit = n
			}
		}
		var mine []emoai.JournalEntry
		for _, j := range fb.journals {
			if j.UserID == u.id {
				mine = append(mine, j)
			}
		}
		if fb.shuffleList {
			// Oldest first, to prove the client re-establishes ordering
			sort.Slice(mine, func(i, j int) bool { return mine[i].CreatedAt.Before(mine[j].CreatedAt) })
		} else {
			sort.Slice(mine, func(i, j int) bool { return mine[i].CreatedAt.After(mine[j].CreatedAt) })
			if len(mine) > limit {
				mine = mine[:limit]
			}
		}
		writeEnvelope(w, http.StatusOK, map[string]interface{}{
			"success":  true,
			"journals": mine,
			"total":    len(mine),
		})
	}

	mux.HandleFunc("/api/journals", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			postJournals(w, r)
		case http.MethodGet:
			getJournals(w, r)
		default:
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		}
	})

	return mux
}

// newTestCore stands up a fake backend and a client core pointed at it.
func newTestCore(t *testing.T) (*fakeBackend, *emoai.SessionManager, *emoai.JournalAccess) {
	t.Helper()
	fb := newFakeBackend()
	srv := httptest.NewServer(fb.handler())
	t.Cleanup(srv.Close)

	client := emoai.NewClient(srv.URL)
	sessions := emoai.NewSessionManager(client)
	journals := emoai.NewJournalAccess(client, sessions)
	return fb, sessions, journals
}

// signIn registers, verifies and signs in a user through the API.
func signIn(t *testing.T, fb *fakeBackend, m *emoai.SessionManager, email, password string) *emoai.Session {
	t.Helper()
	ctx := context.Background()
	if err := m.SignUp(ctx, email, password); err != nil {
		t.Fatalf("sign up failed: %v", err)
	}
	fb.verify(email)
	if err := m.SignIn(ctx, email, password); err != nil {
		t.Fatalf("sign in failed: %v", err)
	}
	sess := m.CurrentSession()
	if sess == nil {
		t.Fatal("expected a session after sign in")
	}
	return sess
}
