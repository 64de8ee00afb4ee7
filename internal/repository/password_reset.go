package repository

import (
	"context"
	"fmt"
	"time"

	"duo-journal-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PasswordResetRepository handles database operations for reset tokens
type PasswordResetRepository struct {
	db *pgxpool.Pool
}

// NewPasswordResetRepository creates a new password reset repository
func NewPasswordResetRepository(db *pgxpool.Pool) *PasswordResetRepository {
	return &PasswordResetRepository{db: db}
}

// Create stores a reset token
func (r *PasswordResetRepository) Create(ctx context.Context, reset *models.PasswordReset) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO password_resets (token, user_id, expires_at) VALUES ($1, $2, $3)`,
		reset.Token, reset.UserID, reset.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to create password reset: %w", err)
	}
	return nil
}

// Get retrieves a reset token
func (r *PasswordResetRepository) Get(ctx context.Context, token string) (*models.PasswordReset, error) {
	var reset models.PasswordReset
	err := r.db.QueryRow(ctx,
		`SELECT token::text, user_id, expires_at, used_at FROM password_resets WHERE token = $1`, token,
	).Scan(&reset.Token, &reset.UserID, &reset.ExpiresAt, &reset.UsedAt)
	if err != nil {
		return nil, notFound(err, "password reset")
	}
	return &reset, nil
}

// MarkUsed consumes a token; it fails if the token was already used
func (r *PasswordResetRepository) MarkUsed(ctx context.Context, token string, at time.Time) error {
	result, err := r.db.Exec(ctx,
		`UPDATE password_resets SET used_at = $1 WHERE token = $2 AND used_at IS NULL`, at, token)
	if err != nil {
		return fmt.Errorf("failed to consume password reset: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("password reset: %w", ErrNotFound)
	}
	return nil
}
