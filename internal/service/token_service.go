package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/storefront-auth-api/internal/models"
)

var (
	errTokenClass   = errors.New("token class mismatch")
	errTokenSubject = errors.New("token subject missing or inconsistent")
)

// TokenConfig holds the signing material and lifetimes of both token classes.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

// TokenService signs and verifies access and refresh tokens. Each class has
// its own secret so a token of one class never verifies as the other.
type TokenService struct {
	config TokenConfig
	now    func() time.Time
}

// NewTokenService constructs a TokenService.
func NewTokenService(config TokenConfig) *TokenService {
	return &TokenService{config: config, now: time.Now}
}

// AccessTTL returns the access token lifetime.
func (s *TokenService) AccessTTL() time.Duration { return s.config.AccessTTL }

// RefreshTTL returns the refresh token lifetime.
func (s *TokenService) RefreshTTL() time.Duration { return s.config.RefreshTTL }

// IssuePair signs a fresh access and refresh token for userID.
func (s *TokenService) IssuePair(userID string) (*models.TokenPair, error) {
	access, accessExp, err := s.IssueAccess(userID)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := s.sign(userID, models.TokenTypeRefresh, s.config.RefreshSecret, s.config.RefreshTTL)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}
	return &models.TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// IssueAccess signs an access token for userID.
func (s *TokenService) IssueAccess(userID string) (string, time.Time, error) {
	token, exp, err := s.sign(userID, models.TokenTypeAccess, s.config.AccessSecret, s.config.AccessTTL)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return token, exp, nil
}

// ParseAccess verifies signature, class and expiry of an access token.
func (s *TokenService) ParseAccess(token string) (*models.TokenClaims, error) {
	return s.parse(token, models.TokenTypeAccess, s.config.AccessSecret, true)
}

// ParseRefresh verifies signature, class and expiry of a refresh token.
func (s *TokenService) ParseRefresh(token string) (*models.TokenClaims, error) {
	return s.parse(token, models.TokenTypeRefresh, s.config.RefreshSecret, true)
}

// ParseRefreshAllowExpired verifies signature and class of a refresh token
// but accepts it past its expiry.
func (s *TokenService) ParseRefreshAllowExpired(token string) (*models.TokenClaims, error) {
	return s.parse(token, models.TokenTypeRefresh, s.config.RefreshSecret, false)
}

func (s *TokenService) sign(userID string, class models.TokenType, secret string, ttl time.Duration) (string, time.Time, error) {
	issuedAt := s.now().UTC()
	expiresAt := issuedAt.Add(ttl)
	claims := &models.TokenClaims{
		UserID: userID,
		Type:   class,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.config.Issuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (s *TokenService) parse(tokenString string, class models.TokenType, secret string, checkExpiry bool) (*models.TokenClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if checkExpiry {
		opts = append(opts, jwt.WithExpirationRequired())
		if s.config.Issuer != "" {
			opts = append(opts, jwt.WithIssuer(s.config.Issuer))
		}
	} else {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}

	claims := &models.TokenClaims{}
	token, err := jwt.NewParser(opts...).ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenSignatureInvalid
	}
	if claims.Type != class {
		return nil, errTokenClass
	}
	if claims.UserID == "" || claims.Subject != claims.UserID {
		return nil, errTokenSubject
	}
	return claims, nil
}
