package service

import (
	"context"
	"strings"

	"floorida/internal/models"
)

const maxTransactions = 100

var (
	planningTendencies = map[string]bool{
		"PROCRASTINATES":     true,
		"PLANS_ONLY":         true,
		"PLANS_AND_EXECUTES": true,
	}
	studyHourBuckets = map[string]bool{
		"HOURS_0_1":     true,
		"HOURS_1_3":     true,
		"HOURS_3_6":     true,
		"HOURS_6_10":    true,
		"HOURS_10_PLUS": true,
	}
)

func positive(amount int) error {
	if amount <= 0 {
		return validationError("amount must be positive")
	}
	return nil
}

func (s *Service) AddPoints(ctx context.Context, userID string, amount int, reason string) (*models.Profile, error) {
	if err := positive(amount); err != nil {
		return nil, err
	}
	return s.Store.AddPoints(ctx, userID, amount, reason)
}

// DeductPoints fails with repo.ErrInsufficientFunds and leaves the balance
// untouched when it would go negative.
func (s *Service) DeductPoints(ctx context.Context, userID string, amount int, reason string) (*models.Profile, error) {
	if err := positive(amount); err != nil {
		return nil, err
	}
	return s.Store.DeductPoints(ctx, userID, amount, reason)
}

func (s *Service) IncrementLevel(ctx context.Context, userID string) (*models.Profile, error) {
	return s.Store.IncrementLevel(ctx, userID)
}

func (s *Service) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	return s.Store.GetProfile(ctx, userID)
}

func (s *Service) GetPoints(ctx context.Context, userID string) (int, error) {
	p, err := s.Store.GetProfile(ctx, userID)
	if err != nil {
		return 0, err
	}
	return p.Points, nil
}

// EnsureSignupBonus creates the profile with the signup bonus. Calling it
// again is a no-op.
func (s *Service) EnsureSignupBonus(ctx context.Context, userID string) error {
	_, err := s.Store.EnsureProfile(ctx, userID, SignupBonus)
	return err
}

func (s *Service) UpdateOnboarding(ctx context.Context, userID, tendency, studyHours string) (*models.Profile, error) {
	var t, h *string
	if v := strings.TrimSpace(tendency); v != "" {
		if !planningTendencies[v] {
			return nil, validationError("unknown planning tendency %q", v)
		}
		t = &v
	}
	if v := strings.TrimSpace(studyHours); v != "" {
		if !studyHourBuckets[v] {
			return nil, validationError("unknown daily study hours %q", v)
		}
		h = &v
	}
	return s.Store.UpdateOnboarding(ctx, userID, t, h)
}

func (s *Service) ListTransactions(ctx context.Context, userID string, limit int) ([]models.PointTransaction, error) {
	if limit <= 0 || limit > maxTransactions {
		limit = maxTransactions
	}
	return s.Store.ListTransactions(ctx, userID, limit)
}
