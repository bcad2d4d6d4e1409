package auth

import "github.com/golang-jwt/jwt/v5"

// Claims is the JWT claims structure for zemahub sessions. It embeds
// jwt.RegisteredClaims for standard fields (exp, iat, etc.) and adds
// the user identity fields the API handlers need.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}
