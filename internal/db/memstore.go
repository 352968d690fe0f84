package db

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Nixie-Tech-LLC/sehri/internal/model"
)

// MemoryStore is an in-process Store for handler tests and local runs
// without Postgres.
type MemoryStore struct {
	mu        sync.Mutex
	nextID    int
	users     map[int]model.User
	schedules map[int]model.Schedule
	uploads   []model.UploadLog
	hadiths   map[int]model.Hadith
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:     map[int]model.User{},
		schedules: map[int]model.Schedule{},
		hadiths:   map[int]model.Hadith{},
	}
}

func (m *MemoryStore) id() int {
	m.nextID++
	return m.nextID
}

func (m *MemoryStore) CreateUser(email, hashedPassword string, name *string, isAdmin bool) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return 0, ErrDuplicate
		}
	}
	now := time.Now().UTC()
	u := model.User{ID: m.id(), Email: email, HashedPassword: hashedPassword, Name: name, IsAdmin: isAdmin, CreatedAt: now, UpdatedAt: now}
	m.users[u.ID] = u
	return u.ID, nil
}

func (m *MemoryStore) GetUserByEmail(email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) GetUserByID(id int) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *MemoryStore) UpdateUserProfile(id int, email string, name *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.Email, u.Name, u.UpdatedAt = email, name, time.Now().UTC()
	m.users[id] = u
	return nil
}

func (m *MemoryStore) CountUsers() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users), nil
}

func (m *MemoryStore) findSchedule(date, location string) (model.Schedule, bool) {
	for _, s := range m.schedules {
		if s.Date == date && strings.EqualFold(s.Location, location) {
			return s, true
		}
	}
	return model.Schedule{}, false
}

func (m *MemoryStore) UpsertSchedules(_ context.Context, entries []model.PrayerTimeEntry) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	for _, e := range entries {
		s, ok := m.findSchedule(e.Date, e.Location)
		if !ok {
			s = model.Schedule{ID: m.id(), Date: e.Date, Location: e.Location, CreatedAt: now}
		}
		s.Sehri, s.Iftar, s.UpdatedAt = e.Sehri, e.Iftar, now
		m.schedules[s.ID] = s
	}
	return len(entries), nil
}

func (m *MemoryStore) ListSchedules(_ context.Context, f ScheduleFilter) ([]model.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Schedule{}
	for _, s := range m.schedules {
		if f.From != "" && s.Date < f.From {
			continue
		}
		if f.To != "" && s.Date > f.To {
			continue
		}
		if f.Location != "" && !strings.EqualFold(s.Location, f.Location) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Location < out[j].Location
	})
	if f.Offset > 0 {
		out = out[min(f.Offset, len(out)):]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *MemoryStore) GetSchedule(_ context.Context, id int) (*model.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.schedules[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (m *MemoryStore) CreateSchedule(_ context.Context, e model.PrayerTimeEntry) (*model.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.findSchedule(e.Date, e.Location); ok {
		return nil, ErrDuplicate
	}
	now := time.Now().UTC()
	s := model.Schedule{ID: m.id(), Date: e.Date, Sehri: e.Sehri, Iftar: e.Iftar, Location: e.Location, CreatedAt: now, UpdatedAt: now}
	m.schedules[s.ID] = s
	return &s, nil
}

func (m *MemoryStore) UpdateSchedule(_ context.Context, id int, e model.PrayerTimeEntry) (*model.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.schedules[id]
	if !ok {
		return nil, ErrNotFound
	}
	if other, ok := m.findSchedule(e.Date, e.Location); ok && other.ID != id {
		return nil, ErrDuplicate
	}
	s.Date, s.Sehri, s.Iftar, s.Location, s.UpdatedAt = e.Date, e.Sehri, e.Iftar, e.Location, time.Now().UTC()
	m.schedules[id] = s
	return &s, nil
}

func (m *MemoryStore) DeleteSchedule(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.schedules[id]; !ok {
		return ErrNotFound
	}
	delete(m.schedules, id)
	return nil
}

func (m *MemoryStore) CreateUploadLog(_ context.Context, u model.UploadLog) (*model.UploadLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.ID, u.CreatedAt = m.id(), time.Now().UTC()
	m.uploads = append(m.uploads, u)
	return &u, nil
}

func (m *MemoryStore) ListUploadLogs(_ context.Context, limit int) ([]model.UploadLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.UploadLog{}
	for i := len(m.uploads) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, m.uploads[i])
	}
	return out, nil
}

func (m *MemoryStore) CreateHadith(_ context.Context, text, source string) (*model.Hadith, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := model.Hadith{ID: m.id(), Text: text, Source: source, CreatedAt: time.Now().UTC()}
	m.hadiths[h.ID] = h
	return &h, nil
}

func (m *MemoryStore) ListHadiths(_ context.Context) ([]model.Hadith, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Hadith, 0, len(m.hadiths))
	for _, h := range m.hadiths {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// RandomHadith returns the first hadith; map order is not a random source.
func (m *MemoryStore) RandomHadith(ctx context.Context) (*model.Hadith, error) {
	list, _ := m.ListHadiths(ctx)
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	return &list[0], nil
}

func (m *MemoryStore) DeleteHadith(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.hadiths[id]; !ok {
		return ErrNotFound
	}
	delete(m.hadiths, id)
	return nil
}
