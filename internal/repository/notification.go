package repository

import (
	"context"
	"fmt"
	"time"

	"duo-journal-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NotificationRepository handles database operations for notifications
type NotificationRepository struct {
	db *pgxpool.Pool
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts a notification
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO notifications (couple_id, title, body, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, n.CoupleID, n.Title, n.Body, n.CreatedAt).Scan(&n.ID)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// ExistsSince reports whether a notification with title was created at or after since
func (r *NotificationRepository) ExistsSince(ctx context.Context, coupleID int64, title string, since time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM notifications
			WHERE couple_id = $1 AND title = $2 AND created_at >= $3
		)
	`, coupleID, title, since).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check notification: %w", err)
	}
	return exists, nil
}

// ListByCouple returns a couple's notifications, newest first
func (r *NotificationRepository) ListByCouple(ctx context.Context, coupleID int64, limit int) ([]models.Notification, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, couple_id, title, body, is_read, created_at
		FROM notifications
		WHERE couple_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, coupleID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	list, err := pgx.CollectRows(rows, pgx.RowToStructByPos[models.Notification])
	if err != nil {
		return nil, fmt.Errorf("failed to scan notifications: %w", err)
	}
	return list, nil
}

// MarkRead flags a couple's notification as read
func (r *NotificationRepository) MarkRead(ctx context.Context, coupleID, id int64) error {
	result, err := r.db.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1 AND couple_id = $2`, id, coupleID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("notification: %w", ErrNotFound)
	}
	return nil
}
