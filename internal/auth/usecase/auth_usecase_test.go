package usecase

import (
	"testing"
	"time"

	authdomain "hndld-backend/internal/auth/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndValidateToken(t *testing.T) {
	uc := NewAuthUsecase("secret", "hndld")

	token, err := uc.IssueToken("u-1", "hh-1", "ASSISTANT", time.Hour)
	require.NoError(t, err)

	claims, err := uc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID())
	assert.Equal(t, "hh-1", claims.HouseholdID)
	assert.Equal(t, "ASSISTANT", claims.Role)
}

func TestValidateToken_Rejects(t *testing.T) {
	uc := NewAuthUsecase("secret", "hndld")

	expired, err := uc.IssueToken("u-1", "hh-1", "ASSISTANT", -time.Minute)
	require.NoError(t, err)

	otherSecret, err := NewAuthUsecase("other", "hndld").IssueToken("u-1", "hh-1", "ASSISTANT", time.Hour)
	require.NoError(t, err)

	otherIssuer, err := NewAuthUsecase("secret", "someone-else").IssueToken("u-1", "hh-1", "ASSISTANT", time.Hour)
	require.NoError(t, err)

	noHousehold, err := uc.IssueToken("u-1", "", "ASSISTANT", time.Hour)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &authdomain.Claims{
		HouseholdID:      "hh-1",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u-1", Issuer: "hndld"},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := map[string]string{
		"expired":       expired,
		"wrong secret":  otherSecret,
		"wrong issuer":  otherIssuer,
		"no household":  noHousehold,
		"no expiration": noExpiry,
		"garbage":       "not-a-jwt",
		"empty":         "",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			claims, err := uc.ValidateToken(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.Nil(t, claims)
		})
	}
}
