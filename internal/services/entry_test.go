package services

import (
	"context"
	"testing"
	"time"

	"duo-journal-backend/internal/catalog"
	"duo-journal-backend/internal/models"
	"duo-journal-backend/internal/repository"
	"duo-journal-backend/internal/timeline"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEntryService(t *testing.T, policy timeline.EntryPolicy) (*EntryService, *fakeEntries, *fakeSink, int64, int64) {
	t.Helper()
	_, _, couples, ana, leo := couple()
	cat, err := catalog.Parse([]byte("tags: [trip, movie, rest]\n"))
	require.NoError(t, err)

	entries := &fakeEntries{}
	sink := &fakeSink{}
	svc := NewEntryService(entries, couples, cat, sink, timeline.Options{Policy: policy})
	svc.now = fixedClock(time.Date(2024, 6, 1, 21, 30, 0, 0, time.UTC))
	return svc, entries, sink, ana.ID, leo.ID
}

func TestEntryTimelineFromBothSides(t *testing.T) {
	svc, _, _, ana, leo := newEntryService(t, timeline.PolicySingle)
	ctx := context.Background()

	_, err := svc.Save(ctx, ana, "2024-06-01", SaveEntryRequest{Mood: "happy"})
	require.NoError(t, err)
	_, err = svc.Save(ctx, leo, "2024-06-01", SaveEntryRequest{Mood: "tired"})
	require.NoError(t, err)

	view, err := svc.Timeline(ctx, leo)
	require.NoError(t, err)
	require.Equal(t, "Ana", view.PartnerName)
	require.Len(t, view.Days, 1)
	require.Equal(t, "2024-06-01", view.Days[0].Day)
	require.Equal(t, "tired", view.Days[0].Self.Mood)
	require.Equal(t, "happy", view.Days[0].Partner.Mood)

	mirror, err := svc.Timeline(ctx, ana)
	require.NoError(t, err)
	require.Equal(t, "happy", mirror.Days[0].Self.Mood)
	require.Equal(t, "tired", mirror.Days[0].Partner.Mood)
}

func TestEntrySaveSinglePolicyOverwrites(t *testing.T) {
	svc, entries, _, ana, _ := newEntryService(t, timeline.PolicySingle)
	ctx := context.Background()

	first, err := svc.Save(ctx, ana, "2024-06-01", SaveEntryRequest{Mood: "meh"})
	require.NoError(t, err)
	second, err := svc.Save(ctx, ana, "2024-06-01", SaveEntryRequest{Mood: "great", Song: "Dreams"})
	require.NoError(t, err)

	require.Equal(t, first.ID, second.ID)
	require.Len(t, entries.entries, 1)
	require.Equal(t, "great", entries.entries[0].Mood)
	require.Equal(t, timeline.LabelFirst, entries.entries[0].Author)
}

func TestEntrySaveMultiPolicyAppends(t *testing.T) {
	svc, entries, _, ana, leo := newEntryService(t, timeline.PolicyMulti)
	ctx := context.Background()

	for _, mood := range []string{"morning", "noon", "night"} {
		_, err := svc.Save(ctx, ana, "2024-06-01", SaveEntryRequest{Mood: mood})
		require.NoError(t, err)
	}
	_, err := svc.Save(ctx, leo, "2024-06-01", SaveEntryRequest{Mood: "busy"})
	require.NoError(t, err)
	require.Len(t, entries.entries, 4)

	view, err := svc.Timeline(ctx, ana)
	require.NoError(t, err)
	require.Equal(t, timeline.PolicyMulti, view.Policy)
	require.Len(t, view.Days, 1)
	require.Len(t, view.Days[0].Pairs, 3)
	assert.Equal(t, "busy", view.Days[0].Pairs[0].Partner.Mood)
	assert.True(t, view.Days[0].Pairs[2].Partner.IsEmpty())
	assert.Equal(t, "night", view.Days[0].Pairs[2].Self.Mood)
}

func TestEntrySaveValidation(t *testing.T) {
	svc, _, _, ana, _ := newEntryService(t, timeline.PolicySingle)
	ctx := context.Background()

	_, err := svc.Save(ctx, ana, "06/01/2024", SaveEntryRequest{})
	require.ErrorIs(t, err, ErrInvalidDay)

	long := make([]byte, maxMoodLength+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err = svc.Save(ctx, ana, "2024-06-01", SaveEntryRequest{Mood: string(long)})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestEntrySaveRequiresCouple(t *testing.T) {
	users := newFakeUsers()
	solo := users.add("Solo", 0)
	couples := NewCoupleService(newFakeCouples(users), users, nil)
	svc := NewEntryService(&fakeEntries{}, couples, &catalog.Catalog{}, nil, timeline.Options{})

	_, err := svc.Save(context.Background(), solo.ID, "2024-06-01", SaveEntryRequest{})
	require.ErrorIs(t, err, ErrNotInCouple)
}

func TestEntrySaveFiltersTagsAndNotifies(t *testing.T) {
	svc, _, sink, ana, leo := newEntryService(t, timeline.PolicySingle)

	entry, err := svc.Save(context.Background(), ana, "2024-06-01", SaveEntryRequest{
		Tags: []string{"Trip", "trip", "unknown", " rest "},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"trip", "rest"}, entry.Tags)
	require.Equal(t, time.Date(2024, 6, 1, 21, 30, 0, 0, time.UTC), entry.UpdatedAt)

	require.Equal(t, []string{EventEntrySaved}, sink.types(leo))
	require.Empty(t, sink.types(ana))
}

func TestEntryDeleteOnlyOwn(t *testing.T) {
	svc, entries, _, ana, leo := newEntryService(t, timeline.PolicySingle)
	ctx := context.Background()

	entry, err := svc.Save(ctx, ana, "2024-06-01", SaveEntryRequest{Mood: "x"})
	require.NoError(t, err)

	require.ErrorIs(t, svc.Delete(ctx, leo, entry.ID), repository.ErrNotFound)
	require.NoError(t, svc.Delete(ctx, ana, entry.ID))
	require.Empty(t, entries.entries)
}

func TestTagSummary(t *testing.T) {
	svc, _, _, ana, leo := newEntryService(t, timeline.PolicySingle)
	ctx := context.Background()

	_, err := svc.Save(ctx, ana, "2024-06-01", SaveEntryRequest{Tags: []string{"trip", "movie"}})
	require.NoError(t, err)
	_, err = svc.Save(ctx, leo, "2024-06-01", SaveEntryRequest{Tags: []string{"trip"}})
	require.NoError(t, err)
	_, err = svc.Save(ctx, leo, "2024-06-02", SaveEntryRequest{Tags: []string{"rest"}})
	require.NoError(t, err)

	summary, err := svc.TagSummary(ctx, ana)
	require.NoError(t, err)
	require.Equal(t, []TagCount{
		{Tag: "trip", Count: 2},
		{Tag: "movie", Count: 1},
		{Tag: "rest", Count: 1},
	}, summary)
}

func TestEntrySaveSinglePolicyUpdatesLatestDuplicate(t *testing.T) {
	svc, entries, _, ana, _ := newEntryService(t, timeline.PolicySingle)
	ctx := context.Background()

	m, err := svc.members.Membership(ctx, ana)
	require.NoError(t, err)
	older := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	entries.entries = []models.Entry{
		{ID: 1, CoupleID: m.CoupleID, Day: "2024-06-01", Author: "me", Mood: "older", UpdatedAt: older},
		{ID: 2, CoupleID: m.CoupleID, Day: "2024-06-01", Author: "me", Mood: "newer", UpdatedAt: older.Add(time.Hour)},
	}
	entries.nextID = 2

	saved, err := svc.Save(ctx, ana, "2024-06-01", SaveEntryRequest{Mood: "edited"})
	require.NoError(t, err)
	require.Equal(t, int64(2), saved.ID)
	require.Equal(t, "older", entries.entries[0].Mood)
	require.Equal(t, "edited", entries.entries[1].Mood)

	view, err := svc.Timeline(ctx, ana)
	require.NoError(t, err)
	require.Equal(t, "edited", view.Days[0].Self.Mood)
}
