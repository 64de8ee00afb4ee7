package repository

import (
	"context"
	"fmt"

	"duo-journal-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SpecialDateRepository handles database operations for special dates
type SpecialDateRepository struct {
	db *pgxpool.Pool
}

// NewSpecialDateRepository creates a new special date repository
func NewSpecialDateRepository(db *pgxpool.Pool) *SpecialDateRepository {
	return &SpecialDateRepository{db: db}
}

// Create inserts a special date
func (r *SpecialDateRepository) Create(ctx context.Context, d *models.SpecialDate) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO special_dates (couple_id, type, label, date, note)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, d.CoupleID, d.Type, d.Label, d.Date, d.Note).Scan(&d.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrSpecialDateExists
		}
		return fmt.Errorf("failed to create special date: %w", err)
	}
	return nil
}

// ListByCouple returns a couple's special dates ordered by date
func (r *SpecialDateRepository) ListByCouple(ctx context.Context, coupleID int64) ([]models.SpecialDate, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, couple_id, type, label, date, note
		FROM special_dates
		WHERE couple_id = $1
		ORDER BY date ASC, id ASC
	`, coupleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list special dates: %w", err)
	}
	dates, err := pgx.CollectRows(rows, pgx.RowToStructByPos[models.SpecialDate])
	if err != nil {
		return nil, fmt.Errorf("failed to scan special dates: %w", err)
	}
	return dates, nil
}

// Delete removes a special date owned by the couple
func (r *SpecialDateRepository) Delete(ctx context.Context, coupleID, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM special_dates WHERE id = $1 AND couple_id = $2`, id, coupleID)
	if err != nil {
		return fmt.Errorf("failed to delete special date: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("special date: %w", ErrNotFound)
	}
	return nil
}
