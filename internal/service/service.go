package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"floorida/internal/auth"
	"floorida/internal/models"
	"floorida/internal/planner"
	"floorida/internal/repo"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrInvalidDateRange   = errors.New("invalid date range")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

const (
	SignupBonus          = 50
	FloorCompletionCoins = 10
)

// Store is the persistence the service needs; *repo.Repo implements it.
type Store interface {
	CreateUser(ctx context.Context, email, username, passwordHash, characterImageURL string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
	GetCharacter(ctx context.Context, userID string) (*models.Character, error)

	EnsureProfile(ctx context.Context, userID string, bonus int) (bool, error)
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	AddPoints(ctx context.Context, userID string, amount int, reason string) (*models.Profile, error)
	DeductPoints(ctx context.Context, userID string, amount int, reason string) (*models.Profile, error)
	IncrementLevel(ctx context.Context, userID string) (*models.Profile, error)
	UpdateOnboarding(ctx context.Context, userID string, tendency, studyHours *string) (*models.Profile, error)
	ListTransactions(ctx context.Context, userID string, limit int) ([]models.PointTransaction, error)

	CreateSchedule(ctx context.Context, s *models.Schedule) error
	GetSchedule(ctx context.Context, ownerID, id string) (*models.Schedule, error)
	ListSchedules(ctx context.Context, ownerID string) ([]*models.Schedule, error)
	UpdateSchedule(ctx context.Context, ownerID, id string, apply func(s *models.Schedule) error) (*models.Schedule, error)
	DeleteSchedule(ctx context.Context, ownerID, id string) error

	ListFloorsByDate(ctx context.Context, userID string, date time.Time) ([]models.DayFloor, error)
	CompleteFloor(ctx context.Context, userID, floorID string, reward int) (*models.FloorCompletion, *models.Profile, error)
}

// Planner turns a goal into dated steps and never fails.
type Planner interface {
	Plan(ctx context.Context, goal string, start, end time.Time) []planner.Step
}

var _ Store = (*repo.Repo)(nil)

type Service struct {
	Store   Store
	Auth    *auth.Manager
	Planner Planner

	TokenTTL          time.Duration
	CharacterImageURL string
	// PickColor returns an index in [0, n); replaced in tests for determinism.
	PickColor func(n int) int
	Now       func() time.Time
}

func New(store Store, authManager *auth.Manager, p Planner) *Service {
	return &Service{
		Store:     store,
		Auth:      authManager,
		Planner:   p,
		TokenTTL:  24 * time.Hour,
		PickColor: rand.Intn,
		Now:       time.Now,
	}
}

// normalizeEmail makes addresses differing only in case the same account.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func (s *Service) Register(ctx context.Context, email, username, password string) (*models.User, error) {
	email = normalizeEmail(email)
	username = strings.TrimSpace(username)
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, validationError("a valid email is required")
	}
	if n := utf8.RuneCountInString(username); n < 2 || n > 100 {
		return nil, validationError("username must be 2 to 100 characters")
	}
	if n := len(password); n < 6 || n > 255 {
		return nil, validationError("password must be 6 to 255 characters")
	}
	hash, err := s.Auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	return s.Store.CreateUser(ctx, email, username, hash, s.CharacterImageURL)
}

// Login verifies credentials, bootstraps the profile with the signup bonus
// on first login and returns an access token.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.Store.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repo.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	if err := s.Auth.ComparePassword(user.PasswordHash, password); err != nil {
		return "", ErrInvalidCredentials
	}
	if err := s.EnsureSignupBonus(ctx, user.ID); err != nil {
		return "", fmt.Errorf("bootstrap profile: %w", err)
	}
	return s.Auth.GenerateToken(user.ID, s.TokenTTL)
}

func (s *Service) Me(ctx context.Context, userID string) (*models.User, error) {
	return s.Store.GetUserByID(ctx, userID)
}

func (s *Service) GetCharacter(ctx context.Context, userID string) (*models.Character, error) {
	return s.Store.GetCharacter(ctx, userID)
}
