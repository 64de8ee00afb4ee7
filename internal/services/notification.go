package services

import (
	"context"
	"fmt"
	"time"

	"duo-journal-backend/internal/models"
	"duo-journal-backend/internal/timeline"

	"github.com/rs/zerolog/log"
)

const notificationListLimit = 50

// NotificationService creates anniversary notifications and lists them
type NotificationService struct {
	notifications NotificationStore
	dates         SpecialDateStore
	users         UserStore
	members       MembershipResolver
	events        EventSink
	pusher        Pusher
	now           func() time.Time
}

// NewNotificationService creates a new notification service
func NewNotificationService(
	notifications NotificationStore,
	dates SpecialDateStore,
	users UserStore,
	members MembershipResolver,
	events EventSink,
	pusher Pusher,
) *NotificationService {
	if pusher == nil {
		pusher = NopPusher{}
	}
	return &NotificationService{
		notifications: notifications,
		dates:         dates,
		users:         users,
		members:       members,
		events:        events,
		pusher:        pusher,
		now:           time.Now,
	}
}

// CheckAnniversaries creates one notification per special date whose anniversary
// is today, skipping dates already announced today.
func (s *NotificationService) CheckAnniversaries(ctx context.Context, coupleID int64) ([]models.Notification, error) {
	now := s.now().UTC()
	today := truncateDay(now)

	dates, err := s.dates.ListByCouple(ctx, coupleID)
	if err != nil {
		return nil, err
	}

	var created []models.Notification
	for _, d := range dates {
		orig, err := time.Parse(timeline.DayKeyLayout, d.Date)
		if err != nil || !IsAnniversary(orig, today) {
			continue
		}

		title, body := anniversaryMessage(d, today.Year()-orig.Year())
		exists, err := s.notifications.ExistsSince(ctx, coupleID, title, today)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}

		n := models.Notification{
			CoupleID:  coupleID,
			Title:     title,
			Body:      body,
			CreatedAt: now,
		}
		if err := s.notifications.Create(ctx, &n); err != nil {
			return nil, err
		}
		created = append(created, n)
	}

	if len(created) > 0 {
		s.deliver(ctx, coupleID, created)
	}
	return created, nil
}

// List checks today's anniversaries and returns the couple's recent notifications
func (s *NotificationService) List(ctx context.Context, userID int64) ([]models.Notification, error) {
	m, err := s.members.Membership(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.CheckAnniversaries(ctx, m.CoupleID); err != nil {
		return nil, err
	}

	list, err := s.notifications.ListByCouple(ctx, m.CoupleID, notificationListLimit)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.Notification{}
	}
	return list, nil
}

// MarkRead flags one of the couple's notifications as read
func (s *NotificationService) MarkRead(ctx context.Context, userID, id int64) error {
	m, err := s.members.Membership(ctx, userID)
	if err != nil {
		return err
	}
	return s.notifications.MarkRead(ctx, m.CoupleID, id)
}

// deliver pushes fresh notifications over WebSocket and APNs; failures are only logged
func (s *NotificationService) deliver(ctx context.Context, coupleID int64, created []models.Notification) {
	users, err := s.users.ListByCouple(ctx, coupleID)
	if err != nil {
		log.Error().Err(err).Int64("couple_id", coupleID).Msg("Failed to load couple for delivery")
		return
	}

	var tokens []string
	for _, u := range users {
		if u.PushToken != nil && *u.PushToken != "" {
			tokens = append(tokens, *u.PushToken)
		}
	}

	for _, n := range created {
		for _, u := range users {
			notifyUser(s.events, u.ID, WSMessage{Type: EventNotification, Data: n})
		}
		if len(tokens) == 0 {
			continue
		}
		if err := s.pusher.Push(ctx, tokens, n.Title, n.Body); err != nil {
			log.Error().
				Err(err).
				Int64("couple_id", coupleID).
				Int64("notification_id", n.ID).
				Msg("Failed to push notification")
		}
	}
}

func anniversaryMessage(d models.SpecialDate, years int) (string, string) {
	title := fmt.Sprintf("Happy %s anniversary!", d.Label)
	unit := "years"
	if years == 1 {
		unit = "year"
	}
	body := fmt.Sprintf("%d %s since %s.", years, unit, timeline.FormatDay(d.Date, timeline.DefaultDateLayout))
	if d.Note != "" {
		body += " " + d.Note
	}
	return title, body
}
