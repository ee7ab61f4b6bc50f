package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bloomeryapp/bloomery-admin/internal/auth"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := auth.HashPassword("petal-strong-secret")
	require.NoError(t, err)
	require.Contains(t, hash, "$argon2id$")

	ok, err := auth.VerifyPassword(hash, "petal-strong-secret")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = auth.VerifyPassword(hash, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	ok, err := auth.VerifyPassword("not-a-hash", "anything")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPassword_EmptyRejected(t *testing.T) {
	_, err := auth.HashPassword("")
	require.Error(t, err)
}

func TestLoadOrGenerateKey_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	first, err := auth.LoadOrGenerateKey(dir)
	require.NoError(t, err)
	require.Len(t, first, 64)

	// A second load returns the persisted key.
	second, err := auth.LoadOrGenerateKey(dir)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestTokenService_RoundTrip(t *testing.T) {
	key, err := auth.LoadOrGenerateKey(t.TempDir())
	require.NoError(t, err)

	svc, err := auth.NewTokenService(key, time.Hour)
	require.NoError(t, err)

	token, err := svc.GenerateToken("admin@bloomery.test")
	require.NoError(t, err)

	claims, err := svc.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin@bloomery.test", claims.Email)
}

func TestTokenService_ExpiredTokenRejected(t *testing.T) {
	key, err := auth.LoadOrGenerateKey(t.TempDir())
	require.NoError(t, err)

	svc, err := auth.NewTokenService(key, -time.Minute)
	require.NoError(t, err)

	token, err := svc.GenerateToken("admin@bloomery.test")
	require.NoError(t, err)

	_, err = svc.VerifyToken(token)
	require.Error(t, err)
}

func TestNewTokenService_BadKey(t *testing.T) {
	_, err := auth.NewTokenService("short", time.Hour)
	require.Error(t, err)
}
