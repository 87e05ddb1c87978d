package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/labgate-api/internal/models"
	appErrors "github.com/noah-isme/labgate-api/pkg/errors"
)

func signToken(t *testing.T, secret string, method jwt.SigningMethod, claims *models.JWTClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestAuthServiceValidateToken(t *testing.T) {
	svc := NewAuthService(AuthConfig{AccessTokenSecret: "secret", Issuer: "registry"})
	claims := &models.JWTClaims{
		Role:     models.RoleStandard,
		FullName: "Ada Lovelace",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "S-1",
			Issuer:    "registry",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	parsed, err := svc.ValidateToken(signToken(t, "secret", jwt.SigningMethodHS256, claims))
	require.NoError(t, err)
	assert.Equal(t, "S-1", parsed.SubjectID)
	assert.Equal(t, models.RoleStandard, parsed.Role)
}

func TestAuthServiceRejectsBadTokens(t *testing.T) {
	svc := NewAuthService(AuthConfig{AccessTokenSecret: "secret", Issuer: "registry"})
	valid := jwt.RegisteredClaims{Subject: "S-1", Issuer: "registry", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}

	cases := map[string]string{
		"wrong secret": signToken(t, "other", jwt.SigningMethodHS256, &models.JWTClaims{Role: models.RoleStandard, RegisteredClaims: valid}),
		"wrong alg":    signToken(t, "secret", jwt.SigningMethodHS384, &models.JWTClaims{Role: models.RoleStandard, RegisteredClaims: valid}),
		"bad role":     signToken(t, "secret", jwt.SigningMethodHS256, &models.JWTClaims{Role: "ROOT", RegisteredClaims: valid}),
		"wrong issuer": signToken(t, "secret", jwt.SigningMethodHS256, &models.JWTClaims{Role: models.RoleStandard, RegisteredClaims: jwt.RegisteredClaims{
			Subject: "S-1", Issuer: "elsewhere", ExpiresAt: valid.ExpiresAt,
		}}),
		"expired": signToken(t, "secret", jwt.SigningMethodHS256, &models.JWTClaims{Role: models.RoleStandard, RegisteredClaims: jwt.RegisteredClaims{
			Subject: "S-1", Issuer: "registry", ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		}}),
		"garbage": "not-a-token",
	}
	for name, token := range cases {
		_, err := svc.ValidateToken(token)
		assert.ErrorIs(t, err, appErrors.ErrUnauthorized, name)
	}
}
