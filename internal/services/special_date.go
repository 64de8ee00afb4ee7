package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"duo-journal-backend/internal/catalog"
	"duo-journal-backend/internal/models"
	"duo-journal-backend/internal/timeline"

	"github.com/rs/zerolog/log"
)

// SpecialDateService manages the couple's remembered dates
type SpecialDateService struct {
	dates   SpecialDateStore
	members MembershipResolver
	catalog *catalog.Catalog
	now     func() time.Time
}

// NewSpecialDateService creates a new special date service
func NewSpecialDateService(dates SpecialDateStore, members MembershipResolver, cat *catalog.Catalog) *SpecialDateService {
	return &SpecialDateService{
		dates:   dates,
		members: members,
		catalog: cat,
		now:     time.Now,
	}
}

// CreateSpecialDateRequest represents a new special date
type CreateSpecialDateRequest struct {
	Type  string `json:"type"`
	Label string `json:"label"`
	Date  string `json:"date"`
	Note  string `json:"note"`
}

// UpcomingDate is a special date with its next yearly occurrence
type UpcomingDate struct {
	models.SpecialDate
	NextOccurrence string `json:"next_occurrence"`
	DaysUntil      int    `json:"days_until"`
	Years          int    `json:"years"`
}

// Create stores a special date for the user's couple
func (s *SpecialDateService) Create(ctx context.Context, userID int64, req CreateSpecialDateRequest) (*models.SpecialDate, error) {
	kind := strings.TrimSpace(req.Type)
	defaultLabel, ok := s.catalog.SpecialDateLabel(kind)
	if !ok {
		return nil, fmt.Errorf("%w: unknown special date type %q", ErrInvalidInput, kind)
	}
	if err := ValidateDay(req.Date); err != nil {
		return nil, err
	}
	label := strings.TrimSpace(req.Label)
	if label == "" {
		label = defaultLabel
	}
	if len(label) > maxNameLength {
		return nil, fmt.Errorf("%w: label must be at most %d characters", ErrInvalidInput, maxNameLength)
	}

	m, err := s.members.Membership(ctx, userID)
	if err != nil {
		return nil, err
	}

	date := &models.SpecialDate{
		CoupleID: m.CoupleID,
		Type:     kind,
		Label:    label,
		Date:     req.Date,
		Note:     req.Note,
	}
	if err := s.dates.Create(ctx, date); err != nil {
		return nil, err
	}

	log.Info().
		Int64("couple_id", m.CoupleID).
		Str("type", kind).
		Str("date", req.Date).
		Msg("Special date created")
	return date, nil
}

// Upcoming lists the couple's special dates ordered by their next occurrence
func (s *SpecialDateService) Upcoming(ctx context.Context, userID int64) ([]UpcomingDate, error) {
	m, err := s.members.Membership(ctx, userID)
	if err != nil {
		return nil, err
	}
	dates, err := s.dates.ListByCouple(ctx, m.CoupleID)
	if err != nil {
		return nil, err
	}
	return upcoming(dates, s.now()), nil
}

// Delete removes a special date of the user's couple
func (s *SpecialDateService) Delete(ctx context.Context, userID, id int64) error {
	m, err := s.members.Membership(ctx, userID)
	if err != nil {
		return err
	}
	return s.dates.Delete(ctx, m.CoupleID, id)
}

func upcoming(dates []models.SpecialDate, now time.Time) []UpcomingDate {
	today := truncateDay(now)
	out := make([]UpcomingDate, 0, len(dates))
	for _, d := range dates {
		orig, err := time.Parse(timeline.DayKeyLayout, d.Date)
		if err != nil {
			continue
		}
		next := NextOccurrence(orig, today)
		out = append(out, UpcomingDate{
			SpecialDate:    d,
			NextOccurrence: next.Format(timeline.DayKeyLayout),
			DaysUntil:      int(next.Sub(today).Hours() / 24),
			Years:          next.Year() - orig.Year(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DaysUntil < out[j].DaysUntil
	})
	return out
}

// NextOccurrence returns the first yearly recurrence of orig on or after today.
// February 29 falls on February 28 in common years.
func NextOccurrence(orig, today time.Time) time.Time {
	today = truncateDay(today)
	next := anniversaryIn(orig, today.Year())
	if next.Before(today) {
		next = anniversaryIn(orig, today.Year()+1)
	}
	if next.Before(truncateDay(orig)) {
		return truncateDay(orig)
	}
	return next
}

// IsAnniversary reports whether day is a yearly recurrence of orig, excluding orig itself
func IsAnniversary(orig, day time.Time) bool {
	if day.Year() <= orig.Year() {
		return false
	}
	return anniversaryIn(orig, day.Year()).Equal(truncateDay(day))
}

func anniversaryIn(orig time.Time, year int) time.Time {
	month, day := orig.Month(), orig.Day()
	if month == time.February && day == 29 && !isLeap(year) {
		day = 28
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
