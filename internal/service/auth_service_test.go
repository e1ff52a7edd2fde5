package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/library-seat-api/internal/models"
	appErrors "github.com/noah-isme/library-seat-api/pkg/errors"
)

func signToken(t *testing.T, secret string, claims models.JWTClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestAuthServiceValidateToken(t *testing.T) {
	svc := NewAuthService(nil, AuthConfig{AccessTokenSecret: "secret", Issuer: "library"})
	signed := signToken(t, "secret", models.JWTClaims{
		UserID: "admin-1",
		Role:   models.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "library",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	claims, err := svc.ValidateToken(signed)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestAuthServiceFallsBackToSubject(t *testing.T) {
	svc := NewAuthService(nil, AuthConfig{AccessTokenSecret: "secret"})
	signed := signToken(t, "secret", models.JWTClaims{
		Role:             models.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "admin-9"},
	})

	claims, err := svc.ValidateToken(signed)
	require.NoError(t, err)
	assert.Equal(t, "admin-9", claims.UserID)
}

func TestAuthServiceRejectsInvalidTokens(t *testing.T) {
	svc := NewAuthService(nil, AuthConfig{AccessTokenSecret: "secret", Issuer: "library"})

	cases := map[string]string{
		"wrong secret": signToken(t, "other", models.JWTClaims{RegisteredClaims: jwt.RegisteredClaims{Issuer: "library"}}),
		"wrong issuer": signToken(t, "secret", models.JWTClaims{RegisteredClaims: jwt.RegisteredClaims{Issuer: "someone"}}),
		"expired": signToken(t, "secret", models.JWTClaims{RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "library",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		}}),
		"garbage": "not-a-token",
	}
	for name, token := range cases {
		_, err := svc.ValidateToken(token)
		require.Error(t, err, name)
		assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized), name)
	}
}
