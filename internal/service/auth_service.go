package service

import (
	"context"
	"crypto/subtle"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/tuition-roster/internal/models"
	"github.com/noah-isme/tuition-roster/pkg/config"
	appErrors "github.com/noah-isme/tuition-roster/pkg/errors"
)

type adminRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.AdminUser, error)
	Upsert(ctx context.Context, admin *models.AdminUser) error
	SetActive(ctx context.Context, username string, active bool) error
}

// AuthService verifies admin credentials and provisions admin rows.
type AuthService struct {
	repo      adminRepository
	scheme    string
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAuthService constructs an AuthService for the configured password scheme.
func NewAuthService(repo adminRepository, cfg config.AuthConfig, validate *validator.Validate, logger *zap.Logger) *AuthService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	scheme := cfg.PasswordScheme
	if scheme != config.PasswordSchemeBcrypt {
		scheme = config.PasswordSchemePlain
	}
	return &AuthService{repo: repo, scheme: scheme, validator: validate, logger: logger}
}

// Authenticate matches an active admin by username and password. Every
// failure, including lookup errors, is reported as ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*models.AdminIdentity, error) {
	req := models.LoginRequest{Username: username, Password: password}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.ErrInvalidCredentials
	}
	admin, err := s.repo.FindByUsername(ctx, req.Username)
	if err != nil {
		s.logger.Debug("admin lookup failed", zap.String("username", req.Username), zap.Error(err))
		return nil, appErrors.ErrInvalidCredentials
	}
	if !admin.IsActive || !s.passwordMatches(admin.Password, password) {
		return nil, appErrors.ErrInvalidCredentials
	}
	identity := admin.Identity()
	return &identity, nil
}

func (s *AuthService) passwordMatches(stored, given string) bool {
	if s.scheme == config.PasswordSchemeBcrypt {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(given)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}

// ProvisionAdminRequest describes an admin row created from the admin tool.
type ProvisionAdminRequest struct {
	Username string `validate:"required,max=64"`
	Password string `validate:"required,min=8"`
	Email    string `validate:"omitempty,email"`
	FullName string `validate:"max=120"`
}

// ProvisionAdmin creates or replaces an admin row, hashing the password when
// the bcrypt scheme is configured. The row is left active.
func (s *AuthService) ProvisionAdmin(ctx context.Context, req ProvisionAdminRequest) (*models.AdminUser, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid admin payload")
	}
	password := req.Password
	if s.scheme == config.PasswordSchemeBcrypt {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
		}
		password = string(hash)
	}
	admin := &models.AdminUser{Username: req.Username, Password: password, Email: req.Email, FullName: req.FullName, IsActive: true}
	if err := s.repo.Upsert(ctx, admin); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save admin")
	}
	s.logger.Info("admin provisioned", zap.String("username", admin.Username), zap.String("scheme", s.scheme))
	return admin, nil
}

// SetAdminActive enables or disables sign-in for username.
func (s *AuthService) SetAdminActive(ctx context.Context, username string, active bool) error {
	if err := s.repo.SetActive(ctx, strings.TrimSpace(username), active); err != nil {
		if isNoRows(err) {
			return appErrors.Clone(appErrors.ErrNotFound, "admin not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update admin")
	}
	return nil
}
