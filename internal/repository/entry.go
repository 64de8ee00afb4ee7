package repository

import (
	"context"
	"errors"
	"fmt"

	"duo-journal-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const entryColumns = `id, couple_id, day, author, mood, highlight, gratitude, descriptor, song, tags, updated_at`

// EntryRepository handles database operations for diary entries
type EntryRepository struct {
	db *pgxpool.Pool
}

// NewEntryRepository creates a new entry repository
func NewEntryRepository(db *pgxpool.Pool) *EntryRepository {
	return &EntryRepository{db: db}
}

func scanEntry(row pgx.Row) (*models.Entry, error) {
	var e models.Entry
	err := row.Scan(
		&e.ID, &e.CoupleID, &e.Day, &e.Author, &e.Mood, &e.Highlight,
		&e.Gratitude, &e.Descriptor, &e.Song, &e.Tags, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if e.Tags == nil {
		e.Tags = []string{}
	}
	return &e, nil
}

// ListByCouple returns every entry of a couple in a single snapshot
func (r *EntryRepository) ListByCouple(ctx context.Context, coupleID int64) ([]models.Entry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE couple_id = $1 ORDER BY day DESC, id ASC`, coupleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer rows.Close()

	var entries []models.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entries: %w", err)
	}
	return entries, nil
}

// Upsert stores the entry as the only one for its (couple, day, author).
// An advisory lock on that key serializes concurrent saves.
func (r *EntryRepository) Upsert(ctx context.Context, e *models.Entry) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin entry save: %w", err)
	}
	defer tx.Rollback(context.Background())

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, $2))`,
		e.Day+"/"+e.Author, e.CoupleID); err != nil {
		return fmt.Errorf("failed to lock entry key: %w", err)
	}

	var id int64
	err = tx.QueryRow(ctx, `
		SELECT id FROM entries
		WHERE couple_id = $1 AND day = $2 AND author = $3
		ORDER BY updated_at DESC, id DESC
		LIMIT 1
	`, e.CoupleID, e.Day, e.Author).Scan(&id)

	switch {
	case errors.Is(err, pgx.ErrNoRows):
		if err := insertEntry(ctx, tx, e); err != nil {
			return err
		}
	case err != nil:
		return fmt.Errorf("failed to look up entry: %w", err)
	default:
		e.ID = id
		_, err = tx.Exec(ctx, `
			UPDATE entries
			SET mood = $1, highlight = $2, gratitude = $3, descriptor = $4, song = $5, tags = $6, updated_at = $7
			WHERE id = $8
		`, e.Mood, e.Highlight, e.Gratitude, e.Descriptor, e.Song, e.Tags, e.UpdatedAt, e.ID)
		if err != nil {
			return fmt.Errorf("failed to update entry: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// Insert appends a new entry regardless of existing ones for the day
func (r *EntryRepository) Insert(ctx context.Context, e *models.Entry) error {
	return insertEntry(ctx, r.db, e)
}

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func insertEntry(ctx context.Context, q queryRower, e *models.Entry) error {
	err := q.QueryRow(ctx, `
		INSERT INTO entries (couple_id, day, author, mood, highlight, gratitude, descriptor, song, tags, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`, e.CoupleID, e.Day, e.Author, e.Mood, e.Highlight, e.Gratitude, e.Descriptor, e.Song, e.Tags, e.UpdatedAt,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("failed to create entry: %w", err)
	}
	return nil
}

// Delete removes an entry written by author within a couple
func (r *EntryRepository) Delete(ctx context.Context, coupleID, id int64, author string) error {
	result, err := r.db.Exec(ctx,
		`DELETE FROM entries WHERE id = $1 AND couple_id = $2 AND author = $3`, id, coupleID, author)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("entry: %w", ErrNotFound)
	}
	return nil
}
