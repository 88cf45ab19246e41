// Package auth covers account registration, login with JWT issuance and
// profile management.
package auth

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/voyplan/voyplan/internal/app/models"
	"github.com/voyplan/voyplan/internal/pkg/config"
)

const tokenExpiration = 24 * time.Hour

var _ AuthService = (*AuthServiceImpl)(nil)

// AuthService defines the business logic contract for authentication.
type AuthService interface {
	Register(ctx context.Context, username, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (token string, user *models.User, err error)
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
	GetUser(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, params models.UpdateProfileParams) (*models.User, error)
	JWTConfig() JWTConfig
}

type AuthServiceImpl struct {
	repo   AuthRepo
	secret string
	logger *zap.Logger
}

func NewAuthService(repo AuthRepo, cfg *config.Config, logger *zap.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{
		repo:   repo,
		secret: cfg.JWTSecret,
		logger: logger,
	}
}

// JWTConfig returns the config used by the auth middleware.
func (s *AuthServiceImpl) JWTConfig() JWTConfig {
	return JWTConfig{
		SecretKey:       s.secret,
		TokenExpiration: tokenExpiration,
		Logger:          s.logger,
	}
}

func (s *AuthServiceImpl) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	ctx, span := otel.Tracer("authService").Start(ctx, "Register", trace.WithAttributes(
		attribute.String("email", email),
	))
	defer span.End()

	l := s.logger.With(zap.String("method", "Register"), zap.String("email", email))

	if len(password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", models.ErrValidation)
	}

	hashed, err := HashPassword(password)
	if err != nil {
		l.Error("Failed to hash password", zap.Error(err))
		span.RecordError(err)
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	userID, err := s.repo.Register(ctx, username, email, hashed)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Registration failed")
		return nil, err
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	l.Info("User registered", zap.String("user_id", userID))
	span.SetStatus(codes.Ok, "User registered")
	return user, nil
}

func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	ctx, span := otel.Tracer("authService").Start(ctx, "Login")
	defer span.End()

	l := s.logger.With(zap.String("method", "Login"), zap.String("email", email))

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		l.Warn("Login for unknown email")
		// Same error as a wrong password so the response does not leak
		// which emails are registered.
		return "", nil, models.ErrUnauthenticated
	}

	if !CheckPassword(user.PasswordHash, password) {
		l.Warn("Login with wrong password", zap.String("user_id", user.ID.String()))
		return "", nil, models.ErrUnauthenticated
	}

	token, err := GenerateToken(s.JWTConfig(), user.ID.String(), user.Email)
	if err != nil {
		span.RecordError(err)
		return "", nil, err
	}

	l.Info("User logged in", zap.String("user_id", user.ID.String()))
	span.SetStatus(codes.Ok, "Login successful")
	return token, user, nil
}

func (s *AuthServiceImpl) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	l := s.logger.With(zap.String("method", "ChangePassword"), zap.String("user_id", userID))

	if len(newPassword) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", models.ErrValidation)
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !CheckPassword(user.PasswordHash, currentPassword) {
		l.Warn("Password change with wrong current password")
		return models.ErrUnauthenticated
	}

	hashed, err := HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.repo.UpdatePassword(ctx, userID, hashed); err != nil {
		return err
	}
	l.Info("Password changed")
	return nil
}

func (s *AuthServiceImpl) GetUser(ctx context.Context, userID string) (*models.User, error) {
	return s.repo.GetUserByID(ctx, userID)
}

func (s *AuthServiceImpl) UpdateProfile(ctx context.Context, userID string, params models.UpdateProfileParams) (*models.User, error) {
	if err := s.repo.UpdateProfile(ctx, userID, params); err != nil {
		return nil, err
	}
	return s.repo.GetUserByID(ctx, userID)
}
