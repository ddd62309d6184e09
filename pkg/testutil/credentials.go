package testutil

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSigningKey = "test-signing-key"

// MintCredential signs claims the way the election backend does. The console never
// verifies the signature, so any key works.
func MintCredential(t *testing.T, claims map[string]any) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims(claims))
	signed, err := token.SignedString([]byte(testSigningKey))
	require.NoError(t, err, "failed to sign test credential")
	return signed
}

// AdminCredential mints an administrator credential expiring in an hour.
func AdminCredential(t *testing.T, userID int, isSuper bool, permissions ...string) string {
	t.Helper()
	role := "STAFF"
	if isSuper {
		role = "SUPER_ADMIN"
	}
	return MintCredential(t, map[string]any{
		"user_id":     userID,
		"role":        role,
		"is_super":    isSuper,
		"name":        "Returning Officer",
		"email":       "officer@example.org",
		"permissions": permissions,
		"iat":         time.Now().Unix(),
		"exp":         time.Now().Add(time.Hour).Unix(),
	})
}

// VoterCredential mints a voter credential expiring in an hour.
func VoterCredential(t *testing.T, voterID string) string {
	t.Helper()
	return MintCredential(t, map[string]any{
		"voter_id": voterID,
		"role":     "VOTER",
		"iat":      time.Now().Unix(),
		"exp":      time.Now().Add(time.Hour).Unix(),
	})
}
