package emoai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"
)

// DefaultListLimit is how many entries ListRecentEntries returns when the
// caller passes a non-positive limit.
const DefaultListLimit = 10

// JournalEntry is an immutable user-authored record with an optional mood
// tag. The id and timestamp are assigned by the backend.
type JournalEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Mood      *string   `json:"mood"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionSource provides the current session and accepts expiry reports.
// The journal access layer never mutates session state directly; it reports
// credential-store rejections back so the source can complete the transition
// to anonymous.
type SessionSource interface {
	CurrentSession() *Session
	ExpireSession(token string)
}

// JournalAccess performs scoped create and list operations over journal
// entries, always bound to the session source's current user. The session is
// captured at call time, so a session switch mid-flight cannot leak another
// user's entries into a result.
type JournalAccess struct {
	client   *Client
	sessions SessionSource
}

// NewJournalAccess creates a journal access layer bound to sessions.
func NewJournalAccess(client *Client, sessions SessionSource) *JournalAccess {
	return &JournalAccess{client: client, sessions: sessions}
}

type createEntryRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Mood    string `json:"mood"`
}

// CreateEntry saves a new entry for the current user and returns it fully
// materialized (backend-assigned id and timestamp). An empty title becomes
// "Untitled Entry"; an empty mood is stored as null. Content is required.
// CreateEntry does not refresh any cached listing; call ListRecentEntries
// explicitly afterwards.
func (a *JournalAccess) CreateEntry(ctx context.Context, title, content, mood string) (*JournalEntry, error) {
	sess := a.sessions.CurrentSession()
	if sess == nil {
		return nil, ErrNotAuthenticated
	}
	if content == "" {
		return nil, ErrEmptyContent
	}

	var resp struct {
		Success bool          `json:"success"`
		Message string        `json:"message"`
		Journal *JournalEntry `json:"journal"`
	}
	err := a.client.post(ctx, "/api/journals", sess.Token, createEntryRequest{Title: title, Content: content, Mood: mood}, &resp)
	if err != nil {
		return nil, a.mapError("create entry", sess, err)
	}
	if resp.Journal == nil {
		return nil, &PersistenceError{Op: "create entry", Message: "malformed response"}
	}
	return resp.Journal, nil
}

// ListRecentEntries returns the current user's most recent entries, newest
// first, truncated to limit (DefaultListLimit when limit is not positive).
// Ordering is re-established locally: backend order is treated as an
// optimization, not a correctness guarantee, so entries are stably re-sorted
// by creation time descending (ties keep backend order).
func (a *JournalAccess) ListRecentEntries(ctx context.Context, limit int) ([]JournalEntry, error) {
	sess := a.sessions.CurrentSession()
	if sess == nil {
		return nil, ErrNotAuthenticated
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}

	var resp struct {
		Success  bool           `json:"success"`
		Message  string         `json:"message"`
		Journals []JournalEntry `json:"journals"`
		Total    int64          `json:"total"`
	}
	err := a.client.get(ctx, fmt.Sprintf("/api/journals?limit=%d", limit), sess.Token, &resp)
	if err != nil {
		return nil, a.mapError("list entries", sess, err)
	}

	entries := resp.Journals
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// mapError translates a backend failure into the error taxonomy. A 401 means
// the credential store no longer honors the session that made the call, so
// the session source is told to expire it before the sentinel is returned.
func (a *JournalAccess) mapError(op string, sess *Session, err error) error {
	if isUnauthorized(err) {
		a.sessions.ExpireSession(sess.Token)
		return ErrNotAuthenticated
	}
	return asPersistenceError(op, err)
}

func isUnauthorized(err error) bool {
	var se *statusError
	return errors.As(err, &se) && se.StatusCode == http.StatusUnauthorized
}

// asPersistenceError maps a non-auth backend rejection to *PersistenceError,
// passing transport failures through unchanged.
func asPersistenceError(op string, err error) error {
	var se *statusError
	if errors.As(err, &se) {
		return &PersistenceError{Op: op, Message: se.Message}
	}
	return err
}
