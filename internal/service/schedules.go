package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"floorida/internal/models"
)

var palette = []string{
	"#FF6B6B", "#4ECDC4", "#45B7D1", "#96CEB4", "#FFEAA7", "#74B9FF",
	"#A29BFE", "#FD79A8", "#2E8B57", "#1E90FF", "#FF6347", "#9C27B0",
}

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Column limits of the schedules and floors tables, in characters.
const (
	maxTitleLen       = 255
	maxGoalLen        = 1000
	maxGoalSummaryLen = 2000
)

// MaxPlanDays bounds the range an AI schedule may span; the day-by-day
// fallback creates one floor per day.
const MaxPlanDays = 366

type FloorDraft struct {
	Title         string
	ScheduledDate *time.Time
}

type ManualScheduleInput struct {
	Title        string
	OriginalGoal *string
	GoalSummary  *string
	StartDate   time.Time
	EndDate     time.Time
	Color       string
	TeamID      *string
	Floors      []FloorDraft
}

type AIScheduleInput struct {
	Goal      string
	Title     string
	StartDate time.Time
	EndDate   time.Time
	Color     string
	TeamID    *string
}

// SchedulePatch carries the fields to change; nil means unchanged.
type SchedulePatch struct {
	Title       *string
	GoalSummary *string
	Color       *string
	StartDate   *time.Time
	EndDate     *time.Time
}

func checkRange(start, end time.Time) error {
	if start.After(end) {
		return fmt.Errorf("%w: start date %s is after end date %s", ErrInvalidDateRange,
			start.Format(models.DateLayout), end.Format(models.DateLayout))
	}
	return nil
}

func checkLen(field, value string, max int) error {
	if utf8.RuneCountInString(value) > max {
		return validationError("%s must be at most %d characters", field, max)
	}
	return nil
}

func (s *Service) chooseColor(color string) (string, error) {
	color = strings.TrimSpace(color)
	if color == "" {
		return palette[s.PickColor(len(palette))], nil
	}
	if !colorPattern.MatchString(color) {
		return "", validationError("color must look like #RRGGBB")
	}
	return color, nil
}

func (s *Service) CreateManual(ctx context.Context, ownerID string, in ManualScheduleInput) (*models.Schedule, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, validationError("title is required")
	}
	if err := checkLen("title", title, maxTitleLen); err != nil {
		return nil, err
	}
	goal := title
	if in.OriginalGoal != nil {
		if g := strings.TrimSpace(*in.OriginalGoal); g != "" {
			goal = g
		}
	}
	if err := checkLen("original_goal", goal, maxGoalLen); err != nil {
		return nil, err
	}
	if in.GoalSummary != nil {
		if err := checkLen("goal_summary", *in.GoalSummary, maxGoalSummaryLen); err != nil {
			return nil, err
		}
	}
	start, end := models.Date(in.StartDate), models.Date(in.EndDate)
	if err := checkRange(start, end); err != nil {
		return nil, err
	}
	color, err := s.chooseColor(in.Color)
	if err != nil {
		return nil, err
	}

	floors := make([]models.Floor, 0, len(in.Floors))
	for i, d := range in.Floors {
		ft := strings.TrimSpace(d.Title)
		if ft == "" {
			return nil, validationError("floors[%d].title is required", i)
		}
		if err := checkLen(fmt.Sprintf("floors[%d].title", i), ft, maxTitleLen); err != nil {
			return nil, err
		}
		f := models.Floor{Title: ft}
		if d.ScheduledDate != nil {
			day := models.Date(*d.ScheduledDate)
			f.ScheduledDate = &day
		}
		floors = append(floors, f)
	}

	sched := &models.Schedule{
		CreatorUserID: ownerID,
		TeamID:        in.TeamID,
		Title:         title,
		OriginalGoal:  &goal,
		GoalSummary:   in.GoalSummary,
		StartDate:     start,
		EndDate:       end,
		Color:         color,
		Floors:        floors,
	}
	if err := s.Store.CreateSchedule(ctx, sched); err != nil {
		return nil, err
	}
	return sched, nil
}

// CreateWithAI asks the planner for one floor per step. The planner falls
// back to a day-by-day split, so this only fails on validation or storage.
func (s *Service) CreateWithAI(ctx context.Context, ownerID string, in AIScheduleInput) (*models.Schedule, error) {
	goal := strings.TrimSpace(in.Goal)
	if goal == "" {
		return nil, validationError("goal is required")
	}
	if err := checkLen("goal", goal, maxGoalLen); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = goal
	}
	if err := checkLen("title", title, maxTitleLen); err != nil {
		return nil, err
	}
	start, end := models.Date(in.StartDate), models.Date(in.EndDate)
	if err := checkRange(start, end); err != nil {
		return nil, err
	}
	if days := int(end.Sub(start).Hours()/24) + 1; days > MaxPlanDays {
		return nil, validationError("an AI schedule may span at most %d days", MaxPlanDays)
	}
	color, err := s.chooseColor(in.Color)
	if err != nil {
		return nil, err
	}

	steps := s.Planner.Plan(ctx, goal, start, end)
	floors := make([]models.Floor, 0, len(steps))
	for _, st := range steps {
		day := models.Date(st.Date)
		floors = append(floors, models.Floor{Title: st.Title, ScheduledDate: &day})
	}
	summary := fmt.Sprintf("목표: %s | 기간: %s~%s | 단계 수: %d", goal,
		start.Format(models.DateLayout), end.Format(models.DateLayout), len(floors))

	sched := &models.Schedule{
		CreatorUserID: ownerID,
		TeamID:        in.TeamID,
		Title:         title,
		OriginalGoal:  &goal,
		GoalSummary:   &summary,
		StartDate:     start,
		EndDate:       end,
		Color:         color,
		Floors:        floors,
	}
	if err := s.Store.CreateSchedule(ctx, sched); err != nil {
		return nil, err
	}
	return sched, nil
}

func (s *Service) GetSchedule(ctx context.Context, ownerID, id string) (*models.Schedule, error) {
	return s.Store.GetSchedule(ctx, ownerID, id)
}

func (s *Service) ListSchedules(ctx context.Context, ownerID string) ([]*models.Schedule, error) {
	return s.Store.ListSchedules(ctx, ownerID)
}

// UpdateSchedule applies patch under the row lock. A date given alone is
// checked against the stored value of the other end of the range.
func (s *Service) UpdateSchedule(ctx context.Context, ownerID, id string, patch SchedulePatch) (*models.Schedule, error) {
	if patch.Color != nil {
		if c := strings.TrimSpace(*patch.Color); c != "" && !colorPattern.MatchString(c) {
			return nil, validationError("color must look like #RRGGBB")
		}
	}
	if patch.Title != nil {
		if err := checkLen("title", strings.TrimSpace(*patch.Title), maxTitleLen); err != nil {
			return nil, err
		}
	}
	if patch.GoalSummary != nil {
		if err := checkLen("goal_summary", *patch.GoalSummary, maxGoalSummaryLen); err != nil {
			return nil, err
		}
	}
	return s.Store.UpdateSchedule(ctx, ownerID, id, func(sched *models.Schedule) error {
		start, end := sched.StartDate, sched.EndDate
		if patch.StartDate != nil {
			start = models.Date(*patch.StartDate)
		}
		if patch.EndDate != nil {
			end = models.Date(*patch.EndDate)
		}
		if err := checkRange(start, end); err != nil {
			return err
		}
		sched.StartDate, sched.EndDate = start, end

		if patch.Title != nil {
			if t := strings.TrimSpace(*patch.Title); t != "" {
				sched.Title = t
			}
		}
		if patch.GoalSummary != nil {
			gs := *patch.GoalSummary
			sched.GoalSummary = &gs
		}
		if patch.Color != nil {
			if c := strings.TrimSpace(*patch.Color); c != "" {
				sched.Color = c
			}
		}
		return nil
	})
}

func (s *Service) DeleteSchedule(ctx context.Context, ownerID, id string) error {
	return s.Store.DeleteSchedule(ctx, ownerID, id)
}
