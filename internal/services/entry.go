package services

import (
	"context"
	"fmt"
	"sort"
	"time"
	"unicode/utf8"

	"duo-journal-backend/internal/catalog"
	"duo-journal-backend/internal/models"
	"duo-journal-backend/internal/timeline"

	"github.com/rs/zerolog/log"
)

// field limits mirror the entries table
const (
	maxMoodLength       = 120
	maxDescriptorLength = 200
	maxSongLength       = 200
	maxTextLength       = 4000
)

// MembershipResolver finds the couple context of a user
type MembershipResolver interface {
	Membership(ctx context.Context, userID int64) (*Membership, error)
}

// EntryService saves diary entries and builds the shared timeline
type EntryService struct {
	entries EntryStore
	members MembershipResolver
	catalog *catalog.Catalog
	events  EventSink
	opts    timeline.Options
	now     func() time.Time
}

// NewEntryService creates a new entry service
func NewEntryService(
	entries EntryStore,
	members MembershipResolver,
	cat *catalog.Catalog,
	events EventSink,
	opts timeline.Options,
) *EntryService {
	if opts.Policy == "" {
		opts.Policy = timeline.PolicySingle
	}
	return &EntryService{
		entries: entries,
		members: members,
		catalog: cat,
		events:  events,
		opts:    opts,
		now:     time.Now,
	}
}

// SaveEntryRequest represents the body of an entry save
type SaveEntryRequest struct {
	Mood       string   `json:"mood"`
	Highlight  string   `json:"highlight"`
	Gratitude  string   `json:"gratitude"`
	Descriptor string   `json:"descriptor"`
	Song       string   `json:"song"`
	Tags       []string `json:"tags"`
}

// TimelineView is the timeline as seen by one member
type TimelineView struct {
	Policy      timeline.EntryPolicy `json:"policy"`
	PartnerName string               `json:"partner_name"`
	Days        []timeline.DayRow    `json:"days"`
}

// TagCount is how often a tag was used by the couple
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// Policy returns the configured entry policy
func (s *EntryService) Policy() timeline.EntryPolicy {
	return s.opts.Policy
}

// ValidateDay checks a YYYY-MM-DD day key
func ValidateDay(day string) error {
	if _, err := time.Parse(timeline.DayKeyLayout, day); err != nil {
		return ErrInvalidDay
	}
	return nil
}

func (r SaveEntryRequest) validate() error {
	limits := []struct {
		name  string
		value string
		max   int
	}{
		{"mood", r.Mood, maxMoodLength},
		{"descriptor", r.Descriptor, maxDescriptorLength},
		{"song", r.Song, maxSongLength},
		{"highlight", r.Highlight, maxTextLength},
		{"gratitude", r.Gratitude, maxTextLength},
	}
	for _, l := range limits {
		if utf8.RuneCountInString(l.value) > l.max {
			return fmt.Errorf("%w: %s must be at most %d characters", ErrInvalidInput, l.name, l.max)
		}
	}
	return nil
}

// Save stores the user's entry for day. Under the single policy it replaces
// the user's previous entry for that day; under the multi policy it appends.
func (s *EntryService) Save(ctx context.Context, userID int64, day string, req SaveEntryRequest) (*models.Entry, error) {
	if err := ValidateDay(day); err != nil {
		return nil, err
	}
	if err := req.validate(); err != nil {
		return nil, err
	}

	m, err := s.members.Membership(ctx, userID)
	if err != nil {
		return nil, err
	}

	entry := &models.Entry{
		CoupleID:   m.CoupleID,
		Day:        day,
		Author:     m.Roles.SelfLabel,
		Mood:       req.Mood,
		Highlight:  req.Highlight,
		Gratitude:  req.Gratitude,
		Descriptor: req.Descriptor,
		Song:       req.Song,
		Tags:       s.catalog.FilterTags(req.Tags),
		UpdatedAt:  s.now().UTC(),
	}

	switch s.opts.Policy {
	case timeline.PolicyMulti:
		err = s.entries.Insert(ctx, entry)
	default:
		err = s.entries.Upsert(ctx, entry)
	}
	if err != nil {
		return nil, err
	}

	notifyUser(s.events, m.PartnerID, WSMessage{
		Type: EventEntrySaved,
		Data: map[string]interface{}{"day": day},
	})

	log.Info().
		Int64("user_id", userID).
		Int64("couple_id", m.CoupleID).
		Int64("entry_id", entry.ID).
		Str("day", day).
		Msg("Entry saved")
	return entry, nil
}

// Timeline returns the couple's entries merged per day, most recent first
func (s *EntryService) Timeline(ctx context.Context, userID int64) (*TimelineView, error) {
	m, err := s.members.Membership(ctx, userID)
	if err != nil {
		return nil, err
	}

	entries, err := s.entries.ListByCouple(ctx, m.CoupleID)
	if err != nil {
		return nil, err
	}

	tl := timeline.Aggregate(entries, m.Roles, s.opts)
	if tl.Dropped > 0 || tl.Superseded > 0 {
		log.Warn().
			Int64("couple_id", m.CoupleID).
			Int("dropped", tl.Dropped).
			Int("superseded", tl.Superseded).
			Msg("Timeline skipped stored entries")
	}

	return &TimelineView{
		Policy:      s.opts.Policy,
		PartnerName: m.Roles.PartnerName,
		Days:        tl.Days,
	}, nil
}

// Delete removes one of the user's own entries
func (s *EntryService) Delete(ctx context.Context, userID, entryID int64) error {
	m, err := s.members.Membership(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.entries.Delete(ctx, m.CoupleID, entryID, m.Roles.SelfLabel); err != nil {
		return err
	}

	log.Info().
		Int64("user_id", userID).
		Int64("entry_id", entryID).
		Msg("Entry deleted")
	return nil
}

// TagSummary counts tag usage across the couple's entries, most used first
func (s *EntryService) TagSummary(ctx context.Context, userID int64) ([]TagCount, error) {
	m, err := s.members.Membership(ctx, userID)
	if err != nil {
		return nil, err
	}
	entries, err := s.entries.ListByCouple(ctx, m.CoupleID)
	if err != nil {
		return nil, err
	}
	return countTags(entries), nil
}

func countTags(entries []models.Entry) []TagCount {
	counts := make(map[string]int)
	for _, e := range entries {
		for _, tag := range catalog.NormalizeTags(e.Tags) {
			counts[tag]++
		}
	}

	out := make([]TagCount, 0, len(counts))
	for tag, n := range counts {
		out = append(out, TagCount{Tag: tag, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	return out
}
