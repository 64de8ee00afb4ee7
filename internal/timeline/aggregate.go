package timeline

import (
	"fmt"
	"sort"
	"time"

	"duo-journal-backend/internal/models"
)

// EntryPolicy selects how saves for one (day, side) are stored and displayed
type EntryPolicy string

const (
	// PolicySingle keeps one entry per day and side, overwritten on save
	PolicySingle EntryPolicy = "single"
	// PolicyMulti appends an entry on every save
	PolicyMulti EntryPolicy = "multi"
)

// DayKeyLayout is the storage format of day keys
const DayKeyLayout = "2006-01-02"

// DefaultDateLayout renders day keys for display
const DefaultDateLayout = "02/01/2006"

// ParseEntryPolicy validates a configured policy name
func ParseEntryPolicy(s string) (EntryPolicy, error) {
	switch EntryPolicy(s) {
	case PolicySingle, PolicyMulti:
		return EntryPolicy(s), nil
	case "":
		return PolicySingle, nil
	default:
		return "", fmt.Errorf("unknown entry policy %q", s)
	}
}

// Options controls aggregation
type Options struct {
	Policy     EntryPolicy
	DateLayout string
}

// Side is the display payload of one member's entry
type Side struct {
	EntryID    int64    `json:"entry_id,omitempty"`
	Mood       string   `json:"mood"`
	Highlight  string   `json:"highlight"`
	Gratitude  string   `json:"gratitude"`
	Descriptor string   `json:"descriptor"`
	Song       string   `json:"song"`
	Tags       []string `json:"tags"`
	UpdatedAt  string   `json:"updated_at"`
}

// EmptySide is the placeholder for a side that has not written anything
func EmptySide() Side {
	return Side{Tags: []string{}}
}

// IsEmpty reports whether the side is a placeholder
func (s Side) IsEmpty() bool {
	return s.EntryID == 0 && s.Mood == "" && s.Highlight == "" && s.Gratitude == "" &&
		s.Descriptor == "" && s.Song == "" && len(s.Tags) == 0
}

// SidePair holds the self and partner payloads rendered next to each other
type SidePair struct {
	Self    Side `json:"self"`
	Partner Side `json:"partner"`
}

// DayRow is one calendar day of the shared timeline.
// Pairs is only filled under PolicyMulti; Self and Partner then mirror Pairs[0].
type DayRow struct {
	Day         string     `json:"day"`
	DisplayDate string     `json:"display_date"`
	Self        Side       `json:"self"`
	Partner     Side       `json:"partner"`
	Pairs       []SidePair `json:"pairs,omitempty"`
}

// Timeline is the aggregated result with accounting of consumed entries
type Timeline struct {
	Days       []DayRow `json:"days"`
	Classified int      `json:"-"`
	Dropped    int      `json:"-"`
	Superseded int      `json:"-"`
}

type bucket struct {
	self    []models.Entry
	partner []models.Entry
}

// Aggregate groups a couple's entries into day rows, most recent day first.
// Entries whose author label matches neither role are dropped and counted.
func Aggregate(entries []models.Entry, roles Roles, opts Options) Timeline {
	if opts.Policy == "" {
		opts.Policy = PolicySingle
	}
	if opts.DateLayout == "" {
		opts.DateLayout = DefaultDateLayout
	}

	var result Timeline
	buckets := make(map[string]*bucket)
	for _, e := range entries {
		var slot *[]models.Entry
		b := buckets[e.Day]
		switch e.Author {
		case roles.SelfLabel:
			if b == nil {
				b = &bucket{}
				buckets[e.Day] = b
			}
			slot = &b.self
		case roles.PartnerLabel:
			if b == nil {
				b = &bucket{}
				buckets[e.Day] = b
			}
			slot = &b.partner
		default:
			result.Dropped++
			continue
		}
		*slot = append(*slot, e)
		result.Classified++
	}

	days := make([]string, 0, len(buckets))
	for day := range buckets {
		days = append(days, day)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(days)))

	result.Days = make([]DayRow, 0, len(days))
	for _, day := range days {
		b := buckets[day]
		sortBySaveOrder(b.self)
		sortBySaveOrder(b.partner)

		row := DayRow{
			Day:         day,
			DisplayDate: FormatDay(day, opts.DateLayout),
		}

		switch opts.Policy {
		case PolicyMulti:
			row.Pairs = zip(b.self, b.partner)
			row.Self = row.Pairs[0].Self
			row.Partner = row.Pairs[0].Partner
		default:
			row.Self = latest(b.self, &result.Superseded)
			row.Partner = latest(b.partner, &result.Superseded)
		}
		result.Days = append(result.Days, row)
	}

	return result
}

// FormatDay renders a day key with layout, returning the key unchanged if it is not a date
func FormatDay(day, layout string) string {
	t, err := time.Parse(DayKeyLayout, day)
	if err != nil {
		return day
	}
	return t.Format(layout)
}

func sortBySaveOrder(entries []models.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].UpdatedAt.Equal(entries[j].UpdatedAt) {
			return entries[i].UpdatedAt.Before(entries[j].UpdatedAt)
		}
		return entries[i].ID < entries[j].ID
	})
}

// latest picks the last saved entry, counting the rest as superseded
func latest(entries []models.Entry, superseded *int) Side {
	if len(entries) == 0 {
		return EmptySide()
	}
	*superseded += len(entries) - 1
	return toSide(entries[len(entries)-1])
}

func zip(self, partner []models.Entry) []SidePair {
	n := max(len(self), len(partner))
	pairs := make([]SidePair, n)
	for i := range pairs {
		pairs[i] = SidePair{Self: EmptySide(), Partner: EmptySide()}
		if i < len(self) {
			pairs[i].Self = toSide(self[i])
		}
		if i < len(partner) {
			pairs[i].Partner = toSide(partner[i])
		}
	}
	return pairs
}

func toSide(e models.Entry) Side {
	tags := e.Tags
	if tags == nil {
		tags = []string{}
	}
	var updated string
	if !e.UpdatedAt.IsZero() {
		updated = e.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return Side{
		EntryID:    e.ID,
		Mood:       e.Mood,
		Highlight:  e.Highlight,
		Gratitude:  e.Gratitude,
		Descriptor: e.Descriptor,
		Song:       e.Song,
		Tags:       tags,
		UpdatedAt:  updated,
	}
}
