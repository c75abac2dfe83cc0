package service

import (
	"context"
	"errors"
	"time"

	"floorida/internal/models"
	"floorida/internal/repo"
)

type CompletionResult struct {
	Completion *models.FloorCompletion
	Profile    *models.Profile
	Earned     int
}

func (s *Service) ListTodayFloors(ctx context.Context, userID string) ([]models.DayFloor, error) {
	return s.Store.ListFloorsByDate(ctx, userID, models.Date(s.Now()))
}

func (s *Service) ListFloorsByDate(ctx context.Context, userID string, date time.Time) ([]models.DayFloor, error) {
	return s.Store.ListFloorsByDate(ctx, userID, models.Date(date))
}

// CompleteFloor records the caller's completion and pays the reward. A second
// completion of the same floor, concurrent or not, gets repo.ErrAlreadyCompleted.
func (s *Service) CompleteFloor(ctx context.Context, userID, floorID string) (*CompletionResult, error) {
	completion, profile, err := s.Store.CompleteFloor(ctx, userID, floorID, FloorCompletionCoins)
	if errors.Is(err, repo.ErrNotOwner) {
		return nil, ErrForbidden
	}
	if err != nil {
		return nil, err
	}
	return &CompletionResult{Completion: completion, Profile: profile, Earned: FloorCompletionCoins}, nil
}
