package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenPair is the credential pair handed to a client on login or signup.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// TokenType distinguishes the two token classes.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// TokenClaims is the JWT payload of both token classes. user_id is the
// canonical identifier claim and always equals the registered subject.
type TokenClaims struct {
	UserID string    `json:"user_id"`
	Type   TokenType `json:"typ"`
	jwt.RegisteredClaims
}
