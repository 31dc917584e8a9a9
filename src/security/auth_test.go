package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/insightfactory/backend/src/config"
	"github.com/username/insightfactory/backend/src/model"
)

func testAuthService(t *testing.T) *AuthService {
	t.Helper()
	config.Cfg = &config.AppConfig{AccessTokenExpiry: time.Hour}
	return NewAuthService("test-secret-key-that-is-long-enough!")
}

func TestTokenRoundTrip(t *testing.T) {
	a := testAuthService(t)

	token, err := a.GenerateToken("42")
	require.NoError(t, err)

	sub, err := a.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "42", sub)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	a := testAuthService(t)
	token, err := a.GenerateToken("42")
	require.NoError(t, err)

	other := NewAuthService("a-completely-different-secret-key!!")
	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	a := testAuthService(t)
	_, err := a.ValidateToken("not-a-jwt")
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	a := testAuthService(t)

	hash, err := a.HashPassword("hunter2!")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2!", hash)

	// Login verifies via the user record, so round-trip through it.
	u := &model.User{Password: hash}
	assert.NoError(t, u.CheckPassword("hunter2!"))
	assert.Error(t, u.CheckPassword("wrong"))
}

func TestGenerateRefreshTokenIsRandom(t *testing.T) {
	a := testAuthService(t)

	first, err := a.GenerateRefreshToken()
	require.NoError(t, err)
	second, err := a.GenerateRefreshToken()
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}
