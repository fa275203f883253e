package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/luckydraw-admin-api/internal/models"
	appErrors "github.com/noah-isme/luckydraw-admin-api/pkg/errors"
)

func TestTokenServiceRoundTrip(t *testing.T) {
	svc := NewTokenService(TokenConfig{Secret: "secret", Issuer: "platform"})

	token, err := svc.IssueToken("user-1", models.RoleOperator, time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleOperator, claims.Role)
}

func TestTokenServiceRejects(t *testing.T) {
	svc := NewTokenService(TokenConfig{Secret: "secret", Issuer: "platform"})

	expired, err := svc.IssueToken("user-1", models.RoleAdmin, -time.Minute)
	require.NoError(t, err)
	foreign, err := NewTokenService(TokenConfig{Secret: "other", Issuer: "platform"}).IssueToken("user-1", models.RoleAdmin, time.Hour)
	require.NoError(t, err)
	wrongIssuer, err := NewTokenService(TokenConfig{Secret: "secret", Issuer: "elsewhere"}).IssueToken("user-1", models.RoleAdmin, time.Hour)
	require.NoError(t, err)
	unknownRole, err := svc.IssueToken("user-1", models.UserRole("STUDENT"), time.Hour)
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"user_id": "u", "role": "ADMIN", "iss": "platform"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"expired":      expired,
		"foreign":      foreign,
		"wrong issuer": wrongIssuer,
		"unknown role": unknownRole,
		"alg none":     none,
		"garbage":      "not-a-token",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ValidateToken(token)
			var appErr *appErrors.Error
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
		})
	}
}
