package auth

import (
	"context"
	"errors"

	"github.com/golang-jwt/jwt/v4"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrNoJWKS       = errors.New("no JWKS URL provided")
)

// StandardClaims represents the claims we read from an ID token.
type StandardClaims struct {
	Sub    string `json:"sub"`
	UserId string `json:"user_id"`
	jwt.RegisteredClaims
}

// TokenValidator verifies a bearer token and returns the caller's UID.
type TokenValidator interface {
	ExtractUserID(ctx context.Context, tokenString string) (string, error)
}
