package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorhub/backoffice/internal/app/models"
)

func newTestService() *JWTService {
	return NewJWTService(JWTConfig{SecretKey: "test-secret", TokenIssuer: "tutorhub.test"})
}

func TestGenerateAndValidateRoundTrip(t *testing.T) {
	svc := newTestService()

	token, err := svc.GenerateAccessToken(7, 1, models.RoleStudent, 10, time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateAndExtractClaims(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, int64(1), claims.OrganizationID)
	assert.Equal(t, models.RoleStudent, claims.Role)
	assert.Equal(t, int64(10), claims.StudentID)
	assert.Equal(t, "tutorhub.test", claims.Issuer)
}

func TestValidateTokenExpired(t *testing.T) {
	svc := newTestService()
	token, err := svc.GenerateAccessToken(7, 1, models.RoleAdmin, 0, -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateTokenRejectsForeignTokens(t *testing.T) {
	other := NewJWTService(JWTConfig{SecretKey: "other-secret", TokenIssuer: "tutorhub.test"})
	token, err := other.GenerateAccessToken(7, 1, models.RoleAdmin, 0, time.Hour)
	require.NoError(t, err)

	_, err = newTestService().ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongIssuer := NewJWTService(JWTConfig{SecretKey: "test-secret", TokenIssuer: "someone.else"})
	token, err = wrongIssuer.GenerateAccessToken(7, 1, models.RoleAdmin, 0, time.Hour)
	require.NoError(t, err)

	_, err = newTestService().ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateAndExtractClaimsChecksIdentity(t *testing.T) {
	svc := newTestService()

	tests := []struct {
		name      string
		orgID     int64
		role      models.RoleType
		studentID int64
	}{
		{"missing organization", 0, models.RoleAdmin, 0},
		{"unknown role", 1, models.RoleType("TEACHER"), 0},
		{"student without profile", 1, models.RoleStudent, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := svc.GenerateAccessToken(7, tt.orgID, tt.role, tt.studentID, time.Hour)
			require.NoError(t, err)

			_, err = svc.ValidateAndExtractClaims(token)
			assert.True(t, errors.Is(err, ErrInvalidToken))
		})
	}

	_, err := svc.ValidateAndExtractClaims("")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExtractBearerToken(t *testing.T) {
	token, err := ExtractBearerToken("Bearer abc.def")
	require.NoError(t, err)
	assert.Equal(t, "abc.def", token)

	token, err = ExtractBearerToken("abc.def")
	require.NoError(t, err)
	assert.Equal(t, "abc.def", token)

	_, err = ExtractBearerToken("")
	assert.ErrorIs(t, err, ErrInvalidFormat)
}
