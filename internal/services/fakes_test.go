package services

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"duo-journal-backend/internal/models"
	"duo-journal-backend/internal/repository"
	"duo-journal-backend/internal/timeline"
)

type fakeUsers struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*models.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: make(map[int64]*models.User)}
}

func (f *fakeUsers) add(name string, coupleID int64) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	u := &models.User{ID: f.nextID, Name: name, Email: name + "@example.com"}
	if coupleID != 0 {
		id := coupleID
		u.CoupleID = &id
	}
	f.byID[u.ID] = u
	return u
}

func (f *fakeUsers) Create(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == user.Email {
			return repository.ErrEmailTaken
		}
	}
	f.nextID++
	user.ID = f.nextID
	user.CreatedAt = time.Now()
	stored := *user
	f.byID[user.ID] = &stored
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) ListByCouple(_ context.Context, coupleID int64) ([]*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.User
	for _, u := range f.byID {
		if u.CoupleID != nil && *u.CoupleID == coupleID {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeUsers) ListMembers(ctx context.Context, coupleID int64) ([]models.Member, error) {
	users, _ := f.ListByCouple(ctx, coupleID)
	var out []models.Member
	for _, u := range users {
		out = append(out, models.Member{ID: u.ID, Name: u.Name})
	}
	return out, nil
}

func (f *fakeUsers) JoinCouple(ctx context.Context, userID, coupleID int64, limit int) error {
	members, _ := f.ListMembers(ctx, coupleID)
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[userID]
	if !ok {
		return repository.ErrNotFound
	}
	if u.CoupleID != nil {
		return repository.ErrAlreadyPaired
	}
	if len(members) >= limit {
		return repository.ErrCoupleFull
	}
	id := coupleID
	u.CoupleID = &id
	return nil
}

func (f *fakeUsers) clearCouple(userID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byID[userID]; ok {
		u.CoupleID = nil
	}
}

func (f *fakeUsers) UpdatePassword(_ context.Context, userID int64, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (f *fakeUsers) UpdatePushToken(_ context.Context, userID int64, pushToken *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byID[userID]; ok {
		u.PushToken = pushToken
	}
	return nil
}

type fakeCouples struct {
	users   *fakeUsers
	nextID  int64
	byID    map[int64]*models.Couple
	taken   map[string]bool
	entries *fakeEntries // rewritten on Leave like the repository does, when set
}

func newFakeCouples(users *fakeUsers) *fakeCouples {
	return &fakeCouples{users: users, byID: make(map[int64]*models.Couple), taken: make(map[string]bool)}
}

func (f *fakeCouples) CreateForUser(ctx context.Context, code string, userID int64) (*models.Couple, error) {
	if f.taken[code] {
		return nil, repository.ErrCodeTaken
	}
	u, err := f.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.CoupleID != nil {
		return nil, repository.ErrAlreadyPaired
	}
	f.nextID++
	c := &models.Couple{ID: f.nextID, Code: code, CreatedAt: time.Now()}
	f.byID[c.ID] = c
	f.taken[code] = true
	if err := f.users.JoinCouple(ctx, userID, c.ID, maxCoupleMembers); err != nil {
		return nil, err
	}
	return c, nil
}

func (f *fakeCouples) GetByID(_ context.Context, id int64) (*models.Couple, error) {
	c, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return c, nil
}

func (f *fakeCouples) GetByCode(_ context.Context, code string) (*models.Couple, error) {
	for _, c := range f.byID {
		if c.Code == code {
			return c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeCouples) CodeExists(_ context.Context, code string) (bool, error) {
	return f.taken[code], nil
}

func (f *fakeCouples) Leave(ctx context.Context, coupleID, userID int64) (bool, error) {
	members, _ := f.users.ListMembers(ctx, coupleID)
	if !slices.ContainsFunc(members, func(m models.Member) bool { return m.ID == userID }) {
		return false, fmt.Errorf("membership: %w", repository.ErrNotFound)
	}

	roles := timeline.ResolveRoles(members, userID)
	if f.entries != nil {
		_, _, paired := timeline.Pair(members)
		kept := f.entries.entries[:0]
		for _, e := range f.entries.entries {
			if e.CoupleID == coupleID {
				if e.Author == roles.SelfLabel {
					continue
				}
				if paired && roles.SelfLabel == timeline.LabelFirst && e.Author == timeline.LabelSecond {
					e.Author = timeline.LabelFirst
				}
			}
			kept = append(kept, e)
		}
		f.entries.entries = kept
	}

	f.users.clearCouple(userID)
	if len(members) > 1 {
		return false, nil
	}
	delete(f.byID, coupleID)
	return true, nil
}

type fakeEntries struct {
	nextID  int64
	entries []models.Entry
}

func (f *fakeEntries) ListByCouple(_ context.Context, coupleID int64) ([]models.Entry, error) {
	var out []models.Entry
	for _, e := range f.entries {
		if e.CoupleID == coupleID {
			out = append(out, e)
		}
	}
	return out, nil
}

// Upsert replaces the latest row for (couple, day, author), ordered by
// UpdatedAt then ID, as the repository does
func (f *fakeEntries) Upsert(ctx context.Context, e *models.Entry) error {
	latest := -1
	for i, existing := range f.entries {
		if existing.CoupleID != e.CoupleID || existing.Day != e.Day || existing.Author != e.Author {
			continue
		}
		if latest < 0 {
			latest = i
			continue
		}
		cur := f.entries[latest]
		if existing.UpdatedAt.After(cur.UpdatedAt) ||
			(existing.UpdatedAt.Equal(cur.UpdatedAt) && existing.ID > cur.ID) {
			latest = i
		}
	}
	if latest < 0 {
		return f.Insert(ctx, e)
	}
	e.ID = f.entries[latest].ID
	f.entries[latest] = *e
	return nil
}

func (f *fakeEntries) Insert(_ context.Context, e *models.Entry) error {
	f.nextID++
	e.ID = f.nextID
	f.entries = append(f.entries, *e)
	return nil
}

func (f *fakeEntries) Delete(_ context.Context, coupleID, id int64, author string) error {
	for i, e := range f.entries {
		if e.ID == id && e.CoupleID == coupleID && e.Author == author {
			f.entries = append(f.entries[:i], f.entries[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeDates struct {
	nextID int64
	dates  []models.SpecialDate
}

func (f *fakeDates) Create(_ context.Context, d *models.SpecialDate) error {
	for _, existing := range f.dates {
		if existing.CoupleID == d.CoupleID && existing.Type == d.Type && existing.Date == d.Date {
			return repository.ErrSpecialDateExists
		}
	}
	f.nextID++
	d.ID = f.nextID
	f.dates = append(f.dates, *d)
	return nil
}

func (f *fakeDates) ListByCouple(_ context.Context, coupleID int64) ([]models.SpecialDate, error) {
	var out []models.SpecialDate
	for _, d := range f.dates {
		if d.CoupleID == coupleID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDates) Delete(_ context.Context, coupleID, id int64) error {
	for i, d := range f.dates {
		if d.ID == id && d.CoupleID == coupleID {
			f.dates = append(f.dates[:i], f.dates[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeNotifications struct {
	nextID int64
	list   []models.Notification
}

func (f *fakeNotifications) Create(_ context.Context, n *models.Notification) error {
	f.nextID++
	n.ID = f.nextID
	f.list = append(f.list, *n)
	return nil
}

func (f *fakeNotifications) ExistsSince(_ context.Context, coupleID int64, title string, since time.Time) (bool, error) {
	for _, n := range f.list {
		if n.CoupleID == coupleID && n.Title == title && !n.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeNotifications) ListByCouple(_ context.Context, coupleID int64, limit int) ([]models.Notification, error) {
	var out []models.Notification
	for i := len(f.list) - 1; i >= 0 && len(out) < limit; i-- {
		if f.list[i].CoupleID == coupleID {
			out = append(out, f.list[i])
		}
	}
	return out, nil
}

func (f *fakeNotifications) MarkRead(_ context.Context, coupleID, id int64) error {
	for i, n := range f.list {
		if n.ID == id && n.CoupleID == coupleID {
			f.list[i].IsRead = true
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeResets struct {
	byToken map[string]*models.PasswordReset
}

func newFakeResets() *fakeResets {
	return &fakeResets{byToken: make(map[string]*models.PasswordReset)}
}

func (f *fakeResets) Create(_ context.Context, reset *models.PasswordReset) error {
	cp := *reset
	f.byToken[reset.Token] = &cp
	return nil
}

func (f *fakeResets) Get(_ context.Context, token string) (*models.PasswordReset, error) {
	r, ok := f.byToken[token]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeResets) MarkUsed(_ context.Context, token string, at time.Time) error {
	r, ok := f.byToken[token]
	if !ok || r.UsedAt != nil {
		return repository.ErrNotFound
	}
	r.UsedAt = &at
	return nil
}

type sentEvent struct {
	userID  int64
	message WSMessage
}

type fakeSink struct {
	mu   sync.Mutex
	sent []sentEvent
}

func (f *fakeSink) SendToUser(userID int64, message WSMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentEvent{userID: userID, message: message})
	return nil
}

func (f *fakeSink) types(userID int64) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, e := range f.sent {
		if e.userID == userID {
			out = append(out, e.message.Type)
		}
	}
	return out
}

type pushCall struct {
	tokens []string
	title  string
}

type fakePusher struct {
	calls []pushCall
}

func (f *fakePusher) Push(_ context.Context, tokens []string, title, _ string) error {
	f.calls = append(f.calls, pushCall{tokens: tokens, title: title})
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// couple builds a complete couple of Ana (first) and Leo (second)
func couple() (*fakeUsers, *fakeCouples, *CoupleService, *models.User, *models.User) {
	users := newFakeUsers()
	couples := newFakeCouples(users)
	svc := NewCoupleService(couples, users, nil)

	ana := users.add("Ana", 0)
	leo := users.add("Leo", 0)
	c, err := svc.CreateCouple(context.Background(), ana.ID)
	if err != nil {
		panic(err)
	}
	if _, err := svc.JoinCouple(context.Background(), leo.ID, c.Code); err != nil {
		panic(err)
	}
	return users, couples, svc, ana, leo
}
