package services_test

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emoai-app/emoai-backend/internal/database"
	"github.com/emoai-app/emoai-backend/internal/services"
)

func setupRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	database.RedisClient = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr
}

func TestCreateAndValidateSession(t *testing.T) {
	setupRedis(t)
	userID := uuid.New()

	token, err := services.CreateSession(userID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	gotID, ok, err := services.ValidateSession(token)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, userID, gotID)
}

func TestValidateSessionInvalid(t *testing.T) {
	setupRedis(t)

	_, ok, err := services.ValidateSession("")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = services.ValidateSession("no-such-token")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestValidateSessionExpired(t *testing.T) {
	mr := setupRedis(t)
	userID := uuid.New()

	token, err := services.CreateSession(userID)
	require.NoError(t, err)

	mr.FastForward(services.SessionDuration + 1)

	_, ok, err := services.ValidateSession(token)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInvalidateSession(t *testing.T) {
	setupRedis(t)
	userID := uuid.New()

	token, err := services.CreateSession(userID)
	require.NoError(t, err)

	require.NoError(t, services.InvalidateSession(token))

	_, ok, err := services.ValidateSession(token)
	require.NoError(t, err)
	assert.False(t, ok)

	// Invalidating again is a no-op
	assert.NoError(t, services.InvalidateSession(token))
	assert.NoError(t, services.InvalidateSession(""))
}

func TestCreateSessionReplacesExisting(t *testing.T) {
	setupRedis(t)
	userID := uuid.New()

	first, err := services.CreateSession(userID)
	require.NoError(t, err)
	second, err := services.CreateSession(userID)
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	// Only the newest session stays valid
	_, ok, err := services.ValidateSession(first)
	require.NoError(t, err)
	assert.False(t, ok)

	gotID, ok, err := services.ValidateSession(second)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, userID, gotID)
}

func TestRefreshSession(t *testing.T) {
	mr := setupRedis(t)
	userID := uuid.New()

	token, err := services.CreateSession(userID)
	require.NoError(t, err)

	// Halfway through the TTL, a refresh resets the full window
	mr.FastForward(services.SessionDuration / 2)
	require.NoError(t, services.RefreshSession(token))
	mr.FastForward(services.SessionDuration / 2)

	_, ok, err := services.ValidateSession(token)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Error(t, services.RefreshSession(""))
	assert.Error(t, services.RefreshSession("no-such-token"))
}
