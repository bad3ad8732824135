package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/emoai-app/emoai-backend/internal/database"
)

const (
	// SessionDuration is 7 days
	SessionDuration = 7 * 24 * time.Hour
	// SessionKeyPrefix is the Redis key prefix for sessions
	SessionKeyPrefix = "session:"
	// UserSessionKeyPrefix is the Redis key prefix for user->session mapping
	UserSessionKeyPrefix = "user_session:"
)

// CreateSession issues a new opaque session token for a user and stores it in
// Redis with a 7-day expiration. Any existing session for the user is
// invalidated first, so there is at most one live session per user and the
// timer always resets from the current sign-in.
func CreateSession(userID uuid.UUID) (string, error) {
	InvalidateUserSessions(userID)

	token, err := generateToken()
	if err != nil {
		return "", err
	}

	ctx := context.Background()
	sessionKey := SessionKeyPrefix + token
	userSessionKey := UserSessionKeyPrefix + userID.String()

	if err := database.RedisClient.Set(ctx, sessionKey, userID.String(), SessionDuration).Err(); err != nil {
		return "", err
	}
	if err := database.RedisClient.Set(ctx, userSessionKey, token, SessionDuration).Err(); err != nil {
		return "", err
	}

	return token, nil
}

// ValidateSession checks if a session token is valid and returns the user ID.
func ValidateSession(sessionToken string) (uuid.UUID, bool, error) {
	if sessionToken == "" {
		return uuid.Nil, false, nil
	}

	ctx := context.Background()
	userIDStr, err := database.RedisClient.Get(ctx, SessionKeyPrefix+sessionToken).Result()
	if err != nil {
		// Missing or expired token is simply "not authenticated"
		return uuid.Nil, false, nil
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, false, err
	}

	return userID, true, nil
}

// RefreshSession extends the session expiration by 7 days from now.
func RefreshSession(sessionToken string) error {
	if sessionToken == "" {
		return fmt.Errorf("session token is empty")
	}

	ctx := context.Background()
	sessionKey := SessionKeyPrefix + sessionToken

	userIDStr, err := database.RedisClient.Get(ctx, sessionKey).Result()
	if err != nil {
		return err
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return err
	}

	if err := database.RedisClient.Expire(ctx, sessionKey, SessionDuration).Err(); err != nil {
		return err
	}
	return database.RedisClient.Expire(ctx, UserSessionKeyPrefix+userID.String(), SessionDuration).Err()
}

// InvalidateSession removes a session from Redis. A missing token is not an error.
func InvalidateSession(sessionToken string) error {
	if sessionToken == "" {
		return nil
	}

	ctx := context.Background()
	sessionKey := SessionKeyPrefix + sessionToken

	// Drop the user->session mapping first
	if userIDStr, err := database.RedisClient.Get(ctx, sessionKey).Result(); err == nil && userIDStr != "" {
		database.RedisClient.Del(ctx, UserSessionKeyPrefix+userIDStr)
	}

	return database.RedisClient.Del(ctx, sessionKey).Err()
}

// InvalidateUserSessions invalidates the live session for a user (used on
// sign-in and when credentials change).
func InvalidateUserSessions(userID uuid.UUID) error {
	ctx := context.Background()
	userSessionKey := UserSessionKeyPrefix + userID.String()

	if token, err := database.RedisClient.Get(ctx, userSessionKey).Result(); err == nil && token != "" {
		database.RedisClient.Del(ctx, SessionKeyPrefix+token)
	}

	return database.RedisClient.Del(ctx, userSessionKey).Err()
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
