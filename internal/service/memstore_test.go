package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"floorida/internal/models"
	"floorida/internal/repo"
)

// memStore keeps everything in maps behind one mutex and enforces the same
// uniqueness rules as the Postgres schema.
type memStore struct {
	mu           sync.Mutex
	users        map[string]*models.User
	characters   map[string]*models.Character
	profiles     map[string]*models.Profile
	schedules    map[string]*models.Schedule
	completions  map[string]*models.FloorCompletion // floorID|userID
	transactions []models.PointTransaction
}

func newMemStore() *memStore {
	return &memStore{
		users:       map[string]*models.User{},
		characters:  map[string]*models.Character{},
		profiles:    map[string]*models.Profile{},
		schedules:   map[string]*models.Schedule{},
		completions: map[string]*models.FloorCompletion{},
	}
}

func (m *memStore) CreateUser(_ context.Context, email, username, passwordHash, imageURL string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return nil, repo.ErrEmailTaken
		}
	}
	for _, u := range m.users {
		if u.Username == username {
			return nil, repo.ErrUsernameTaken
		}
	}
	u := &models.User{ID: uuid.NewString(), Email: email, Username: username, PasswordHash: passwordHash, CreatedAt: time.Now()}
	m.users[u.ID] = u
	if _, ok := m.characters[u.ID]; !ok {
		m.characters[u.ID] = &models.Character{ID: uuid.NewString(), UserID: u.ID, ImageURL: imageURL, CreatedAt: time.Now()}
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repo.ErrUserNotFound
}

func (m *memStore) GetUserByID(_ context.Context, userID string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, repo.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) GetCharacter(_ context.Context, userID string) (*models.Character, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.characters[userID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memStore) addTx(userID, kind string, amount int, reason string, entityType, entityID *string) {
	m.transactions = append(m.transactions, models.PointTransaction{
		ID: uuid.NewString(), UserID: userID, Type: kind, Amount: amount, Reason: reason,
		EntityType: entityType, EntityID: entityID, CreatedAt: time.Now(),
	})
}

func (m *memStore) EnsureProfile(_ context.Context, userID string, bonus int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[userID]; !ok {
		return false, repo.ErrUserNotFound
	}
	if _, ok := m.profiles[userID]; ok {
		return false, nil
	}
	now := time.Now()
	m.profiles[userID] = &models.Profile{UserID: userID, Points: bonus, PersonalLevel: 1, CreatedAt: now, UpdatedAt: now}
	if bonus > 0 {
		m.addTx(userID, models.TransactionBonus, bonus, "signup bonus", nil, nil)
	}
	return true, nil
}

func (m *memStore) profile(userID string) (*models.Profile, error) {
	p, ok := m.profiles[userID]
	if !ok {
		return nil, repo.ErrProfileNotFound
	}
	return p, nil
}

func (m *memStore) GetProfile(_ context.Context, userID string) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.profile(userID)
	if err != nil {
		return nil, err
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) AddPoints(_ context.Context, userID string, amount int, reason string) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.profile(userID)
	if err != nil {
		return nil, err
	}
	p.Points += amount
	m.addTx(userID, models.TransactionEarn, amount, reason, nil, nil)
	cp := *p
	return &cp, nil
}

func (m *memStore) DeductPoints(_ context.Context, userID string, amount int, reason string) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.profile(userID)
	if err != nil {
		return nil, err
	}
	if p.Points < amount {
		return nil, repo.ErrInsufficientFunds
	}
	p.Points -= amount
	m.addTx(userID, models.TransactionSpend, amount, reason, nil, nil)
	cp := *p
	return &cp, nil
}

func (m *memStore) IncrementLevel(_ context.Context, userID string) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.profile(userID)
	if err != nil {
		return nil, err
	}
	p.PersonalLevel++
	cp := *p
	return &cp, nil
}

func (m *memStore) UpdateOnboarding(_ context.Context, userID string, tendency, studyHours *string) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.profile(userID)
	if err != nil {
		return nil, err
	}
	if tendency != nil {
		p.PlanningTendency = tendency
	}
	if studyHours != nil {
		p.DailyStudyHours = studyHours
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) ListTransactions(_ context.Context, userID string, limit int) ([]models.PointTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.PointTransaction{}
	for i := len(m.transactions) - 1; i >= 0 && len(out) < limit; i-- {
		if m.transactions[i].UserID == userID {
			out = append(out, m.transactions[i])
		}
	}
	return out, nil
}

func cloneSchedule(s *models.Schedule) *models.Schedule {
	cp := *s
	cp.Floors = append([]models.Floor{}, s.Floors...)
	return &cp
}

func (m *memStore) CreateSchedule(_ context.Context, s *models.Schedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[s.CreatorUserID]; !ok {
		return repo.ErrUserNotFound
	}
	s.ID = uuid.NewString()
	s.CreatedAt = time.Now()
	if s.Floors == nil {
		s.Floors = []models.Floor{}
	}
	for i := range s.Floors {
		s.Floors[i].ID = uuid.NewString()
		s.Floors[i].ScheduleID = s.ID
		s.Floors[i].CreatorUserID = s.CreatorUserID
		s.Floors[i].Position = i
		s.Floors[i].CreatedAt = s.CreatedAt
	}
	m.schedules[s.ID] = cloneSchedule(s)
	return nil
}

func (m *memStore) owned(ownerID, id string) (*models.Schedule, error) {
	s, ok := m.schedules[id]
	if !ok || s.CreatorUserID != ownerID {
		return nil, repo.ErrNotFound
	}
	return s, nil
}

func (m *memStore) GetSchedule(_ context.Context, ownerID, id string) (*models.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.owned(ownerID, id)
	if err != nil {
		return nil, err
	}
	return cloneSchedule(s), nil
}

func (m *memStore) ListSchedules(_ context.Context, ownerID string) ([]*models.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.Schedule{}
	for _, s := range m.schedules {
		if s.CreatorUserID == ownerID {
			out = append(out, cloneSchedule(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) UpdateSchedule(_ context.Context, ownerID, id string, apply func(s *models.Schedule) error) (*models.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.owned(ownerID, id)
	if err != nil {
		return nil, err
	}
	work := cloneSchedule(s)
	if err := apply(work); err != nil {
		return nil, err
	}
	m.schedules[id] = work
	return cloneSchedule(work), nil
}

func (m *memStore) DeleteSchedule(_ context.Context, ownerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.owned(ownerID, id)
	if err != nil {
		return err
	}
	for _, f := range s.Floors {
		for key, c := range m.completions {
			if c.FloorID == f.ID {
				delete(m.completions, key)
			}
		}
	}
	delete(m.schedules, id)
	return nil
}

func (m *memStore) findFloor(floorID string) (*models.Schedule, *models.Floor) {
	for _, s := range m.schedules {
		for i := range s.Floors {
			if s.Floors[i].ID == floorID {
				return s, &s.Floors[i]
			}
		}
	}
	return nil, nil
}

func (m *memStore) ListFloorsByDate(_ context.Context, userID string, date time.Time) ([]models.DayFloor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.DayFloor{}
	for _, s := range m.schedules {
		for _, f := range s.Floors {
			if f.CreatorUserID != userID || f.ScheduledDate == nil || !f.ScheduledDate.Equal(date) {
				continue
			}
			_, done := m.completions[f.ID+"|"+userID]
			out = append(out, models.DayFloor{Floor: f, ScheduleTitle: s.Title, ScheduleColor: s.Color, Completed: done})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (m *memStore) CompleteFloor(_ context.Context, userID, floorID string, reward int) (*models.FloorCompletion, *models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, f := m.findFloor(floorID)
	if f == nil {
		return nil, nil, repo.ErrNotFound
	}
	if f.CreatorUserID != userID {
		return nil, nil, repo.ErrNotOwner
	}
	key := floorID + "|" + userID
	if _, ok := m.completions[key]; ok {
		return nil, nil, repo.ErrAlreadyCompleted
	}
	p, err := m.profile(userID)
	if err != nil {
		return nil, nil, err
	}
	now := time.Now()
	c := &models.FloorCompletion{ID: uuid.NewString(), FloorID: floorID, UserID: userID, IsCompleted: true, CompletedAt: &now, CreatedAt: now}
	m.completions[key] = c
	p.Points += reward
	p.PersonalLevel++
	entity := "floor"
	m.addTx(userID, models.TransactionEarn, reward, "floor completed", &entity, &floorID)
	cp := *p
	cc := *c
	return &cc, &cp, nil
}
