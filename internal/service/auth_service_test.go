package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidyalaya/exam-api/internal/models"
	appErrors "github.com/vidyalaya/exam-api/pkg/errors"
)

func signToken(t *testing.T, secret string, claims models.JWTClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func validClaims(ttl time.Duration) models.JWTClaims {
	return models.JWTClaims{
		UserID:   "user-1",
		SchoolID: "school-1",
		Role:     models.RoleTeacher,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
}

func TestValidateTokenSuccess(t *testing.T) {
	svc := NewAuthService("secret")
	token := signToken(t, "secret", validClaims(time.Hour))

	claims, err := svc.ValidateToken(token)

	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "school-1", claims.SchoolID)
	assert.Equal(t, models.RoleTeacher, claims.Role)
	actor := claims.Actor()
	assert.Equal(t, "user-1", actor.UserID)
}

func TestValidateTokenCarriesWardClaims(t *testing.T) {
	svc := NewAuthService("secret")
	claims := validClaims(time.Hour)
	claims.Role = models.RoleGuardian
	claims.WardIDs = []string{"student-1", "student-3"}
	token := signToken(t, "secret", claims)

	parsed, err := svc.ValidateToken(token)

	require.NoError(t, err)
	actor := parsed.Actor()
	assert.True(t, actor.Ward("student-1"))
	assert.True(t, actor.Ward("student-3"))
	assert.False(t, actor.Ward("student-2"))
}

func TestValidateTokenExpired(t *testing.T) {
	svc := NewAuthService("secret")
	token := signToken(t, "secret", validClaims(-time.Hour))

	_, err := svc.ValidateToken(token)

	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
}

func TestValidateTokenWrongSecret(t *testing.T) {
	svc := NewAuthService("secret")
	token := signToken(t, "other", validClaims(time.Hour))

	_, err := svc.ValidateToken(token)

	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
}

func TestValidateTokenRejectsUnknownRole(t *testing.T) {
	svc := NewAuthService("secret")
	claims := validClaims(time.Hour)
	claims.Role = models.Role("WIZARD")
	token := signToken(t, "secret", claims)

	_, err := svc.ValidateToken(token)

	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
}

func TestValidateTokenRejectsMissingTenant(t *testing.T) {
	svc := NewAuthService("secret")
	claims := validClaims(time.Hour)
	claims.SchoolID = ""
	token := signToken(t, "secret", claims)

	_, err := svc.ValidateToken(token)

	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
}
