package security

import (
	"CraveQuest/internal/api/config"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	m, err := NewTokenManager(config.JWTConfig{Secret: "s3cret", Issuer: "CraveQuest"})
	require.NoError(t, err)

	token, err := m.GenerateToken(42, []string{"ADMIN"})
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.UserID)
	assert.Equal(t, []string{"ADMIN"}, claims.Roles)
}

func TestTokenManager_Rejects(t *testing.T) {
	m, err := NewTokenManager(config.JWTConfig{Secret: "s3cret", Issuer: "CraveQuest"})
	require.NoError(t, err)

	other, err := NewTokenManager(config.JWTConfig{Secret: "other", Issuer: "CraveQuest"})
	require.NoError(t, err)
	foreign, err := other.GenerateToken(1, nil)
	require.NoError(t, err)
	_, err = m.ValidateToken(foreign)
	assert.Error(t, err)

	wrongIssuer, err := NewTokenManager(config.JWTConfig{Secret: "s3cret", Issuer: "Someone"})
	require.NoError(t, err)
	token, err := wrongIssuer.GenerateToken(1, nil)
	require.NoError(t, err)
	_, err = m.ValidateToken(token)
	assert.Error(t, err)

	_, err = m.ValidateToken("not.a.token")
	assert.Error(t, err)

	_, err = NewTokenManager(config.JWTConfig{})
	assert.Error(t, err)
}

func TestHasAnyRole(t *testing.T) {
	assert.True(t, HasAnyRole([]string{"USER", "ADMIN"}, "ADMIN"))
	assert.True(t, HasAnyRole([]string{"USER"}, "ADMIN", "USER"))
	assert.False(t, HasAnyRole([]string{"USER"}, "ADMIN"))
	assert.False(t, HasAnyRole(nil, "ADMIN"))
}
