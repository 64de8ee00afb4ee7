package models

import "time"

// User represents a registered member account
type User struct {
	ID           int64     `json:"id"`
	CoupleID     *int64    `json:"couple_id,omitempty"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	PushToken    *string   `json:"push_token,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Member is the part of a user the couple views need
type Member struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Couple groups at most two users sharing one journal
type Couple struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"created_at"`
}

// Entry is one side's diary record for a calendar day.
// Author holds the stored side label, not a user reference.
type Entry struct {
	ID         int64     `json:"id"`
	CoupleID   int64     `json:"couple_id"`
	Day        string    `json:"day"`
	Author     string    `json:"author"`
	Mood       string    `json:"mood"`
	Highlight  string    `json:"highlight"`
	Gratitude  string    `json:"gratitude"`
	Descriptor string    `json:"descriptor"`
	Song       string    `json:"song"`
	Tags       []string  `json:"tags"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// SpecialDate is a date the couple wants to remember every year
type SpecialDate struct {
	ID       int64  `json:"id"`
	CoupleID int64  `json:"couple_id"`
	Type     string `json:"type"`
	Label    string `json:"label"`
	Date     string `json:"date"`
	Note     string `json:"note"`
}

// Notification is an in-app message addressed to a couple
type Notification struct {
	ID        int64     `json:"id"`
	CoupleID  int64     `json:"couple_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// PasswordReset is a single-use token allowing a password change
type PasswordReset struct {
	Token     string     `json:"token"`
	UserID    int64      `json:"user_id"`
	ExpiresAt time.Time  `json:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
}
