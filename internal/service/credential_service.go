package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/storefront-auth-api/internal/models"
	"github.com/noah-isme/storefront-auth-api/internal/repository"
	appErrors "github.com/noah-isme/storefront-auth-api/pkg/errors"
	"github.com/noah-isme/storefront-auth-api/pkg/logger"
)

type credentialRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateLastLogin(ctx context.Context, id string, ts time.Time) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// CredentialService owns user records and password verification.
type CredentialService struct {
	repo      credentialRepository
	hasher    PasswordHasher
	logger    *zap.Logger
	dummyHash string
}

// NewCredentialService constructs a CredentialService.
func NewCredentialService(repo credentialRepository, hasher PasswordHasher, logger *zap.Logger) *CredentialService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &CredentialService{repo: repo, hasher: hasher, logger: logger}
	// Unknown emails are verified against this hash so both failure paths cost the same.
	if hash, err := hasher.Hash("storefront-unknown-account"); err == nil {
		svc.dummyHash = hash
	}
	return svc
}

// Register hashes the password and stores a new standard user.
func (s *CredentialService) Register(ctx context.Context, req models.SignupRequest) (*models.User, error) {
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		Role:         models.RoleStandard,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, appErrors.Clone(appErrors.ErrDuplicateEmail, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}
	return user, nil
}

// Authenticate returns the user owning email when password matches. Unknown
// emails and wrong passwords produce the same error.
func (s *CredentialService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.repo.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if s.dummyHash != "" {
				_, _ = s.hasher.Verify(password, s.dummyHash)
			}
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		logger.WithContext(ctx, s.logger).Warn("stored password hash unreadable", zap.String("user_id", user.ID), zap.Error(err))
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
	}
	return user, nil
}

// FindByID resolves a user, returning ErrNotFound when it does not exist.
func (s *CredentialService) FindByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

// RecordLogin stamps the user's last successful login.
func (s *CredentialService) RecordLogin(ctx context.Context, id string, ts time.Time) error {
	return s.repo.UpdateLastLogin(ctx, id, ts)
}

// RecordAudit appends an audit trail entry.
func (s *CredentialService) RecordAudit(ctx context.Context, log *models.AuditLog) error {
	return s.repo.CreateAuditLog(ctx, log)
}
