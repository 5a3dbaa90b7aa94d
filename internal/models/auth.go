package models

import "time"

// SignupRequest carries the fields required to create an account.
type SignupRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RequestMeta describes the client a session operation originates from.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// AuthResult is returned by signup and login.
type AuthResult struct {
	User   UserInfo
	Tokens TokenPair
}

// RefreshResult carries a freshly minted access token.
type RefreshResult struct {
	AccessToken string
	ExpiresAt   time.Time
}
