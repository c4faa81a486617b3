package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cohort-admin-api/internal/models"
	appErrors "github.com/noah-isme/cohort-admin-api/pkg/errors"
)

func signTestToken(t *testing.T, secret string, claims *models.JWTClaims, method jwt.SigningMethod) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return raw
}

func testClaims(userID int64, role models.UserRole, ttl time.Duration) *models.JWTClaims {
	now := time.Now()
	return &models.JWTClaims{
		UserID: userID,
		Role:   role,
		Email:  "admin@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "lms",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}

func TestValidateToken(t *testing.T) {
	svc := NewAuthService(nil, AuthConfig{AccessTokenSecret: "secret", Issuer: "lms"})

	raw := signTestToken(t, "secret", testClaims(2, models.RoleSiteAdmin, time.Hour), jwt.SigningMethodHS256)
	claims, err := svc.ValidateToken(raw)
	require.NoError(t, err)
	assert.Equal(t, int64(2), claims.UserID)
	assert.True(t, claims.Role.SiteAdmin())
}

func TestValidateTokenRejects(t *testing.T) {
	svc := NewAuthService(nil, AuthConfig{AccessTokenSecret: "secret", Issuer: "lms"})

	cases := map[string]string{
		"wrong secret": signTestToken(t, "other", testClaims(2, models.RoleManager, time.Hour), jwt.SigningMethodHS256),
		"expired":      signTestToken(t, "secret", testClaims(2, models.RoleManager, -time.Minute), jwt.SigningMethodHS256),
		"wrong method": signTestToken(t, "secret", testClaims(2, models.RoleManager, time.Hour), jwt.SigningMethodHS384),
		"no user":      signTestToken(t, "secret", testClaims(0, models.RoleManager, time.Hour), jwt.SigningMethodHS256),
		"garbage":      "not-a-token",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ValidateToken(raw)
			require.Error(t, err)
			assert.True(t, appErrors.HasCode(err, appErrors.ErrUnauthorized))
		})
	}
}
