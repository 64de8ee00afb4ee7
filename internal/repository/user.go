package repository

import (
	"context"
	"fmt"

	"duo-journal-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, couple_id, name, email, password_hash, push_token, created_at`

// UserRepository handles database operations for users
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.CoupleID, &user.Name, &user.Email,
		&user.PasswordHash, &user.PushToken, &user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create inserts a user and fills in its ID and creation time
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (name, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query, user.Name, user.Email, user.PasswordHash).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "user")
	}
	return user, nil
}

// GetByEmail retrieves a user by normalized email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		return nil, notFound(err, "user")
	}
	return user, nil
}

// ListByCouple returns a couple's users in join order
func (r *UserRepository) ListByCouple(ctx context.Context, coupleID int64) ([]*models.User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users WHERE couple_id = $1 ORDER BY id ASC`, coupleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list couple users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

// ListMembers returns a couple's members ordered by ascending ID
func (r *UserRepository) ListMembers(ctx context.Context, coupleID int64) ([]models.Member, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name FROM users WHERE couple_id = $1 ORDER BY id ASC`, coupleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	members, err := pgx.CollectRows(rows, pgx.RowToStructByPos[models.Member])
	if err != nil {
		return nil, fmt.Errorf("failed to scan members: %w", err)
	}
	return members, nil
}

// JoinCouple attaches a user to a couple, holding the couple row lock while
// counting members so two joins cannot both take the last seat.
func (r *UserRepository) JoinCouple(ctx context.Context, userID, coupleID int64, limit int) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin join: %w", err)
	}
	defer tx.Rollback(context.Background())

	var locked int64
	if err := tx.QueryRow(ctx, `SELECT id FROM couples WHERE id = $1 FOR UPDATE`, coupleID).Scan(&locked); err != nil {
		return notFound(err, "couple")
	}

	var current *int64
	if err := tx.QueryRow(ctx, `SELECT couple_id FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&current); err != nil {
		return notFound(err, "user")
	}
	if current != nil {
		return ErrAlreadyPaired
	}

	var count int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE couple_id = $1`, coupleID).Scan(&count); err != nil {
		return fmt.Errorf("failed to count members: %w", err)
	}
	if count >= limit {
		return ErrCoupleFull
	}

	if _, err := tx.Exec(ctx, `UPDATE users SET couple_id = $1 WHERE id = $2`, coupleID, userID); err != nil {
		return fmt.Errorf("failed to join couple: %w", err)
	}
	return tx.Commit(ctx)
}

// UpdatePassword replaces a user's password hash
func (r *UserRepository) UpdatePassword(ctx context.Context, userID int64, hash string) error {
	result, err := r.db.Exec(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, hash, userID)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user: %w", ErrNotFound)
	}
	return nil
}

// UpdatePushToken updates the push token for a user
func (r *UserRepository) UpdatePushToken(ctx context.Context, userID int64, pushToken *string) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET push_token = $1 WHERE id = $2`, pushToken, userID)
	if err != nil {
		return fmt.Errorf("failed to update push token: %w", err)
	}
	return nil
}
