package usecase

import (
	"errors"
	"fmt"
	"time"

	authdomain "hndld-backend/internal/auth/domain"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// AuthUsecase validates and mints bearer tokens. Sessions and sign-in are
// handled by the identity provider in front of this service.
type AuthUsecase interface {
	ValidateToken(tokenString string) (*authdomain.Claims, error)
	IssueToken(userID, householdID, role string, ttl time.Duration) (string, error)
}

// authUsecase implements AuthUsecase interface
type authUsecase struct {
	secret []byte
	issuer string
}

// NewAuthUsecase creates a new instance of authUsecase
func NewAuthUsecase(secret, issuer string) AuthUsecase {
	return &authUsecase{
		secret: []byte(secret),
		issuer: issuer,
	}
}

func (u *authUsecase) ValidateToken(tokenString string) (*authdomain.Claims, error) {
	claims := &authdomain.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return u.secret, nil
	}, jwt.WithIssuer(u.issuer), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" || claims.HouseholdID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (u *authUsecase) IssueToken(userID, householdID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &authdomain.Claims{
		HouseholdID: householdID,
		Role:        role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    u.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(u.secret)
}
