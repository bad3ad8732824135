package emoai

import (
	"context"
	"time"
)

// Profile is the optional per-user record keyed by user id. At most one
// exists per user; it is read-only from this core's perspective.
type Profile struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	DisplayName *string   `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// Profile fetches the current user's profile. Returns (nil, nil) when no
// profile row exists, and ErrNotAuthenticated when anonymous.
func (m *SessionManager) Profile(ctx context.Context) (*Profile, error) {
	sess := m.CurrentSession()
	if sess == nil {
		return nil, ErrNotAuthenticated
	}

	var resp struct {
		Success bool     `json:"success"`
		Profile *Profile `json:"profile"`
	}
	if err := m.client.get(ctx, "/api/profile", sess.Token, &resp); err != nil {
		if isUnauthorized(err) {
			m.ExpireSession(sess.Token)
			return nil, ErrNotAuthenticated
		}
		return nil, asPersistenceError("get profile", err)
	}
	return resp.Profile, nil
}
