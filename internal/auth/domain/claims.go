package domain

import "github.com/golang-jwt/jwt/v5"

// Claims identify the acting user and the household a request operates on
type Claims struct {
	HouseholdID string `json:"household_id"`
	Role        string `json:"role"`
	jwt.RegisteredClaims
}

// UserID returns the subject of the token
func (c *Claims) UserID() string {
	return c.Subject
}
