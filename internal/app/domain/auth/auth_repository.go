package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/voyplan/voyplan/internal/app/models"
	"github.com/voyplan/voyplan/internal/db"
)

var _ AuthRepo = (*PostgresAuthRepo)(nil)

// AuthRepo defines user persistence for authentication.
type AuthRepo interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
	// Register stores a new user with a HASHED password. Returns new user ID.
	Register(ctx context.Context, username, email, hashedPassword string) (string, error)
	// UpdatePassword updates the user's HASHED password.
	UpdatePassword(ctx context.Context, userID, newHashedPassword string) error
	UpdateProfile(ctx context.Context, userID string, params models.UpdateProfileParams) error
}

type PostgresAuthRepo struct {
	logger *zap.Logger
	pgpool db.Querier
}

func NewPostgresAuthRepo(pgpool db.Querier, logger *zap.Logger) *PostgresAuthRepo {
	return &PostgresAuthRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

const userColumns = "id, username, email, nickname, avatar, phone, password_hash, is_active, created_at"

func (r *PostgresAuthRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 AND is_active = TRUE`
	user, err := scanUser(r.pgpool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user with email %s not found: %w", email, models.ErrNotFound)
		}
		r.logger.Error("Error fetching user by email", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("database error fetching user: %w", err)
	}
	return user, nil
}

func (r *PostgresAuthRepo) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND is_active = TRUE`
	user, err := scanUser(r.pgpool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user with ID %s not found: %w", userID, models.ErrNotFound)
		}
		r.logger.Error("Error fetching user by ID", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("database error fetching user by ID: %w", err)
	}
	return user, nil
}

// Register implements AuthRepo. Expects a HASHED password.
func (r *PostgresAuthRepo) Register(ctx context.Context, username, email, hashedPassword string) (string, error) {
	var userID string
	query := `INSERT INTO users (username, email, password_hash, created_at) VALUES ($1, $2, $3, $4) RETURNING id`
	err := r.pgpool.QueryRow(ctx, query, username, email, hashedPassword, time.Now()).Scan(&userID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return "", fmt.Errorf("username or email already taken: %w", models.ErrConflict)
		}
		r.logger.Error("Failed to register user", zap.String("email", email), zap.Error(err))
		return "", fmt.Errorf("database error registering user: %w", err)
	}
	return userID, nil
}

func (r *PostgresAuthRepo) UpdatePassword(ctx context.Context, userID, newHashedPassword string) error {
	tag, err := r.pgpool.Exec(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, newHashedPassword, userID)
	if err != nil {
		r.logger.Error("Failed to update password", zap.String("user_id", userID), zap.Error(err))
		return fmt.Errorf("database error updating password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *PostgresAuthRepo) UpdateProfile(ctx context.Context, userID string, params models.UpdateProfileParams) error {
	query := `
        UPDATE users
        SET nickname = COALESCE($1, nickname),
            avatar = COALESCE($2, avatar),
            phone = COALESCE($3, phone)
        WHERE id = $4
    `
	tag, err := r.pgpool.Exec(ctx, query, params.Nickname, params.Avatar, params.Phone, userID)
	if err != nil {
		r.logger.Error("Failed to update profile", zap.String("user_id", userID), zap.Error(err))
		return fmt.Errorf("database error updating profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.Nickname, &user.Avatar,
		&user.Phone, &user.PasswordHash, &user.IsActive, &user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
