package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAdminCredentials(t *testing.T) {
	hash, err := HashPassword("admin1408")
	require.NoError(t, err)

	creds, err := ParseAdminCredentials("nikita:" + hash + ",arina:" + hash)
	require.NoError(t, err)
	require.Len(t, creds, 2)
	assert.Equal(t, "nikita", creds[0].Username)
	assert.Equal(t, hash, creds[0].PasswordHash)

	_, err = ParseAdminCredentials("")
	assert.Error(t, err)
	_, err = ParseAdminCredentials("justausername")
	assert.Error(t, err)
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	hash, err := HashPassword("admin1408")
	require.NoError(t, err)

	svc := NewAdminAuthService([]AdminCredential{{Username: "nikita", PasswordHash: hash}}, "test-secret", time.Hour)

	tokenString, err := svc.Login("nikita", "admin1408")
	require.NoError(t, err)

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	assert.True(t, token.Valid)
	claims, ok := token.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, "nikita", claims["sub"])
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	hash, err := HashPassword("admin1408")
	require.NoError(t, err)

	svc := NewAdminAuthService([]AdminCredential{{Username: "nikita", PasswordHash: hash}}, "test-secret", time.Hour)

	_, err = svc.Login("nikita", "wrong")
	assert.Error(t, err)
	_, err = svc.Login("nobody", "admin1408")
	assert.Error(t, err)
}
