package services

import (
	"context"
	"time"

	"duo-journal-backend/internal/models"
)

// UserStore is the persistence the user and couple services need
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ListByCouple(ctx context.Context, coupleID int64) ([]*models.User, error)
	ListMembers(ctx context.Context, coupleID int64) ([]models.Member, error)
	JoinCouple(ctx context.Context, userID, coupleID int64, limit int) error
	UpdatePassword(ctx context.Context, userID int64, hash string) error
	UpdatePushToken(ctx context.Context, userID int64, pushToken *string) error
}

// CoupleStore persists couples
type CoupleStore interface {
	CreateForUser(ctx context.Context, code string, userID int64) (*models.Couple, error)
	GetByID(ctx context.Context, id int64) (*models.Couple, error)
	GetByCode(ctx context.Context, code string) (*models.Couple, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	Leave(ctx context.Context, coupleID, userID int64) (bool, error)
}

// EntryStore persists diary entries
type EntryStore interface {
	ListByCouple(ctx context.Context, coupleID int64) ([]models.Entry, error)
	Upsert(ctx context.Context, e *models.Entry) error
	Insert(ctx context.Context, e *models.Entry) error
	Delete(ctx context.Context, coupleID, id int64, author string) error
}

// SpecialDateStore persists special dates
type SpecialDateStore interface {
	Create(ctx context.Context, d *models.SpecialDate) error
	ListByCouple(ctx context.Context, coupleID int64) ([]models.SpecialDate, error)
	Delete(ctx context.Context, coupleID, id int64) error
}

// NotificationStore persists notifications
type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	ExistsSince(ctx context.Context, coupleID int64, title string, since time.Time) (bool, error)
	ListByCouple(ctx context.Context, coupleID int64, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, coupleID, id int64) error
}

// PasswordResetStore persists reset tokens
type PasswordResetStore interface {
	Create(ctx context.Context, reset *models.PasswordReset) error
	Get(ctx context.Context, token string) (*models.PasswordReset, error)
	MarkUsed(ctx context.Context, token string, at time.Time) error
}

// EventSink delivers realtime events to connected users
type EventSink interface {
	SendToUser(userID int64, message WSMessage) error
}
