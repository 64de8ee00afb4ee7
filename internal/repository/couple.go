package repository

import (
	"context"
	"fmt"
	"slices"

	"duo-journal-backend/internal/models"
	"duo-journal-backend/internal/timeline"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CoupleRepository handles database operations for couples
type CoupleRepository struct {
	db *pgxpool.Pool
}

// NewCoupleRepository creates a new couple repository
func NewCoupleRepository(db *pgxpool.Pool) *CoupleRepository {
	return &CoupleRepository{db: db}
}

// CreateForUser inserts a couple and makes userID its first member
func (r *CoupleRepository) CreateForUser(ctx context.Context, code string, userID int64) (*models.Couple, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin couple creation: %w", err)
	}
	defer tx.Rollback(context.Background())

	var current *int64
	if err := tx.QueryRow(ctx, `SELECT couple_id FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&current); err != nil {
		return nil, notFound(err, "user")
	}
	if current != nil {
		return nil, ErrAlreadyPaired
	}

	couple := &models.Couple{Code: code}
	err = tx.QueryRow(ctx,
		`INSERT INTO couples (code) VALUES ($1) RETURNING id, created_at`, code,
	).Scan(&couple.ID, &couple.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrCodeTaken
		}
		return nil, fmt.Errorf("failed to create couple: %w", err)
	}

	if _, err := tx.Exec(ctx, `UPDATE users SET couple_id = $1 WHERE id = $2`, couple.ID, userID); err != nil {
		return nil, fmt.Errorf("failed to attach user to couple: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit couple creation: %w", err)
	}
	return couple, nil
}

// GetByID retrieves a couple by ID
func (r *CoupleRepository) GetByID(ctx context.Context, id int64) (*models.Couple, error) {
	var couple models.Couple
	err := r.db.QueryRow(ctx,
		`SELECT id, code, created_at FROM couples WHERE id = $1`, id,
	).Scan(&couple.ID, &couple.Code, &couple.CreatedAt)
	if err != nil {
		return nil, notFound(err, "couple")
	}
	return &couple, nil
}

// GetByCode retrieves a couple by join code
func (r *CoupleRepository) GetByCode(ctx context.Context, code string) (*models.Couple, error) {
	var couple models.Couple
	err := r.db.QueryRow(ctx,
		`SELECT id, code, created_at FROM couples WHERE code = $1`, code,
	).Scan(&couple.ID, &couple.Code, &couple.CreatedAt)
	if err != nil {
		return nil, notFound(err, "couple")
	}
	return &couple, nil
}

// CodeExists checks if a join code is already in use
func (r *CoupleRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM couples WHERE code = $1)`, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check code existence: %w", err)
	}
	return exists, nil
}

// Leave detaches userID from the couple in one transaction. The leaver's
// entries are removed; when the first joiner leaves, the remaining member's
// entries move to the first joiner's label so labels keep matching the roles
// resolved from the new membership. The couple and everything it owns is
// deleted once nobody is left; deleted reports that case.
func (r *CoupleRepository) Leave(ctx context.Context, coupleID, userID int64) (deleted bool, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin leave: %w", err)
	}
	defer tx.Rollback(context.Background())

	var locked int64
	if err := tx.QueryRow(ctx, `SELECT id FROM couples WHERE id = $1 FOR UPDATE`, coupleID).Scan(&locked); err != nil {
		return false, notFound(err, "couple")
	}

	rows, err := tx.Query(ctx, `SELECT id, name FROM users WHERE couple_id = $1 ORDER BY id ASC FOR UPDATE`, coupleID)
	if err != nil {
		return false, fmt.Errorf("failed to lock members: %w", err)
	}
	members, err := pgx.CollectRows(rows, pgx.RowToStructByPos[models.Member])
	if err != nil {
		return false, fmt.Errorf("failed to scan members: %w", err)
	}
	if !slices.ContainsFunc(members, func(m models.Member) bool { return m.ID == userID }) {
		return false, fmt.Errorf("membership: %w", ErrNotFound)
	}

	roles := timeline.ResolveRoles(members, userID)
	if _, err := tx.Exec(ctx,
		`DELETE FROM entries WHERE couple_id = $1 AND author = $2`, coupleID, roles.SelfLabel,
	); err != nil {
		return false, fmt.Errorf("failed to delete entries of leaving member: %w", err)
	}
	if _, _, paired := timeline.Pair(members); paired && roles.SelfLabel == timeline.LabelFirst {
		if _, err := tx.Exec(ctx,
			`UPDATE entries SET author = $1 WHERE couple_id = $2 AND author = $3`,
			timeline.LabelFirst, coupleID, timeline.LabelSecond,
		); err != nil {
			return false, fmt.Errorf("failed to relabel remaining entries: %w", err)
		}
	}

	if _, err := tx.Exec(ctx, `UPDATE users SET couple_id = NULL WHERE id = $1`, userID); err != nil {
		return false, fmt.Errorf("failed to leave couple: %w", err)
	}

	result, err := tx.Exec(ctx, `
		DELETE FROM couples
		WHERE id = $1 AND NOT EXISTS (SELECT 1 FROM users WHERE couple_id = $1)
	`, coupleID)
	if err != nil {
		return false, fmt.Errorf("failed to delete couple: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit leave: %w", err)
	}
	return result.RowsAffected() > 0, nil
}
