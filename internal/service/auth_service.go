package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/storefront-auth-api/internal/models"
	appErrors "github.com/noah-isme/storefront-auth-api/pkg/errors"
	"github.com/noah-isme/storefront-auth-api/pkg/logger"
)

const (
	minPasswordLength = 6
	// bcrypt rejects inputs longer than this many bytes.
	maxPasswordBytes = 72
)

type credentialStore interface {
	Register(ctx context.Context, req models.SignupRequest) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	RecordLogin(ctx context.Context, id string, ts time.Time) error
	RecordAudit(ctx context.Context, log *models.AuditLog) error
}

type sessionStore interface {
	Put(ctx context.Context, userID, token string, ttl time.Duration) error
	Get(ctx context.Context, userID string) (string, error)
	DeleteIfMatch(ctx context.Context, userID, token string) (bool, error)
	Delete(ctx context.Context, userID string) error
}

// AuthService orchestrates the session lifecycle: it issues token pairs,
// records the live refresh token per user and validates refreshes against it.
type AuthService struct {
	credentials credentialStore
	sessions    sessionStore
	tokens      *TokenService
	validator   *validator.Validate
	logger      *zap.Logger
	metrics     *MetricsService
	now         func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(credentials credentialStore, sessions sessionStore, tokens *TokenService, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AuthService{
		credentials: credentials,
		sessions:    sessions,
		tokens:      tokens,
		validator:   validate,
		logger:      logger,
		metrics:     metrics,
		now:         time.Now,
	}
}

// Signup creates an account and opens its first session.
func (s *AuthService) Signup(ctx context.Context, req models.SignupRequest, meta models.RequestMeta) (res *models.AuthResult, err error) {
	defer func() { s.metrics.RecordAuthOutcome("signup", err) }()

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "all fields are required")
	}
	if len(req.Password) < minPasswordLength {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	if len(req.Password) > maxPasswordBytes {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("password must be at most %d bytes", maxPasswordBytes))
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid signup payload")
	}

	user, err := s.credentials.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.openSession(ctx, user, meta, models.AuditActionSignup)
}

// Login verifies credentials and opens a session, replacing any session the
// user already had.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest, meta models.RequestMeta) (res *models.AuthResult, err error) {
	defer func() { s.metrics.RecordAuthOutcome("login", err) }()

	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "email and password are required")
	}

	user, err := s.credentials.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	res, err = s.openSession(ctx, user, meta, models.AuditActionLogin)
	if err != nil {
		return nil, err
	}
	if err := s.credentials.RecordLogin(ctx, user.ID, s.now().UTC()); err != nil {
		logger.WithContext(ctx, s.logger).Warn("failed to update last login", zap.String("user_id", user.ID), zap.Error(err))
	}
	return res, nil
}

// Refresh exchanges a refresh token for a new access token. The token must
// verify and be byte-equal to the one stored for its user. The refresh token
// itself is not rotated.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (res *models.RefreshResult, err error) {
	defer func() { s.metrics.RecordAuthOutcome("refresh", err) }()

	if refreshToken == "" {
		return nil, appErrors.Clone(appErrors.ErrMissingToken, "")
	}

	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return nil, appErrors.WrapAs(appErrors.ErrInvalidToken, err)
	}

	start := time.Now()
	stored, err := s.sessions.Get(ctx, claims.UserID)
	s.metrics.ObserveSessionStore("get", time.Since(start), err)
	if err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return nil, appErrors.Clone(appErrors.ErrSessionRevoked, "")
		}
		return nil, appErrors.WrapAs(appErrors.ErrSessionStoreUnavailable, err)
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(refreshToken)) != 1 {
		return nil, appErrors.Clone(appErrors.ErrSessionRevoked, "")
	}

	access, expiresAt, err := s.tokens.IssueAccess(claims.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}
	return &models.RefreshResult{AccessToken: access, ExpiresAt: expiresAt}, nil
}

// Logout ends the session owning refreshToken. It succeeds when the token is
// absent, unverifiable or already revoked. Expired tokens still end their
// session. Only the entry still holding this exact token is removed.
func (s *AuthService) Logout(ctx context.Context, refreshToken string, meta models.RequestMeta) (err error) {
	defer func() { s.metrics.RecordAuthOutcome("logout", err) }()

	if refreshToken == "" {
		return nil
	}

	claims, err := s.tokens.ParseRefreshAllowExpired(refreshToken)
	if err != nil {
		logger.WithContext(ctx, s.logger).Debug("logout with unverifiable refresh token", zap.Error(err))
		return nil
	}

	start := time.Now()
	removed, err := s.sessions.DeleteIfMatch(ctx, claims.UserID, refreshToken)
	s.metrics.ObserveSessionStore("delete", time.Since(start), err)
	if err != nil {
		return appErrors.WrapAs(appErrors.ErrSessionStoreUnavailable, err)
	}
	if removed {
		s.audit(ctx, claims.UserID, claims.UserID, models.AuditActionLogout, meta)
	}
	return nil
}

// RevokeSession removes userID's live session regardless of which token it holds.
func (s *AuthService) RevokeSession(ctx context.Context, actor models.Identity, userID string, meta models.RequestMeta) (err error) {
	defer func() { s.metrics.RecordAuthOutcome("revoke", err) }()

	if !actor.IsAdmin() {
		return appErrors.Clone(appErrors.ErrForbidden, "")
	}
	if _, err := s.credentials.FindByID(ctx, userID); err != nil {
		return err
	}

	start := time.Now()
	err = s.sessions.Delete(ctx, userID)
	s.metrics.ObserveSessionStore("delete", time.Since(start), err)
	if err != nil {
		return appErrors.WrapAs(appErrors.ErrSessionStoreUnavailable, err)
	}

	s.audit(ctx, actor.User.ID, userID, models.AuditActionSessionRevoke, meta)
	return nil
}

// Authenticate resolves the identity behind an access token. Access tokens
// are checked by signature and expiry only; the session store is not consulted.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (models.Identity, error) {
	if accessToken == "" {
		return models.Identity{}, appErrors.Clone(appErrors.ErrUnauthorized, "not authorized, no token")
	}

	claims, err := s.tokens.ParseAccess(accessToken)
	if err != nil {
		return models.Identity{}, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "not authorized, invalid token")
	}

	user, err := s.credentials.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return models.Identity{}, appErrors.Clone(appErrors.ErrUnauthorized, "not authorized, user not found")
		}
		return models.Identity{}, err
	}
	return models.IdentityFor(user), nil
}

func (s *AuthService) openSession(ctx context.Context, user *models.User, meta models.RequestMeta, action string) (*models.AuthResult, error) {
	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create tokens")
	}

	start := time.Now()
	err = s.sessions.Put(ctx, user.ID, pair.RefreshToken, s.tokens.RefreshTTL())
	s.metrics.ObserveSessionStore("put", time.Since(start), err)
	if err != nil {
		return nil, appErrors.WrapAs(appErrors.ErrSessionStoreUnavailable, err)
	}

	s.audit(ctx, user.ID, user.ID, action, meta)

	return &models.AuthResult{User: user.Info(), Tokens: *pair}, nil
}

func (s *AuthService) audit(ctx context.Context, actorID, subjectID, action string, meta models.RequestMeta) {
	if err := s.credentials.RecordAudit(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     action,
		Resource:   "session",
		ResourceID: &subjectID,
		NewValues:  []byte(`{"status":"success"}`),
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		logger.WithContext(ctx, s.logger).Warn("failed to record audit log", zap.String("action", action), zap.Error(err))
	}
}
