package models

import "time"

// DateLayout is the wire and storage format for calendar dates.
const DateLayout = "2006-01-02"

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type Profile struct {
	UserID           string    `json:"user_id"`
	Points           int       `json:"points"`
	PersonalLevel    int       `json:"personal_level"`
	PlanningTendency *string   `json:"planning_tendency"`
	DailyStudyHours  *string   `json:"daily_study_hours"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type Character struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	ImageURL      string    `json:"image_url"`
	EquippedItems *string   `json:"equipped_items"`
	CreatedAt     time.Time `json:"created_at"`
}

// Schedule is a goal spanning the inclusive range StartDate..EndDate.
type Schedule struct {
	ID            string    `json:"id"`
	CreatorUserID string    `json:"creator_user_id"`
	TeamID        *string   `json:"team_id"`
	Title         string    `json:"title"`
	OriginalGoal  *string   `json:"original_goal"`
	GoalSummary   *string   `json:"goal_summary"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	Color         string    `json:"color"`
	CreatedAt     time.Time `json:"created_at"`
	Floors        []Floor   `json:"floors"`
}

// Floor is one sub-task of a schedule. CreatorUserID mirrors the schedule owner.
type Floor struct {
	ID            string     `json:"id"`
	ScheduleID    string     `json:"schedule_id"`
	CreatorUserID string     `json:"creator_user_id"`
	Title         string     `json:"title"`
	ScheduledDate *time.Time `json:"scheduled_date"`
	Position      int        `json:"position"`
	CreatedAt     time.Time  `json:"created_at"`
}

// DayFloor is a floor listed for a calendar day together with its schedule's
// display fields and whether the caller already completed it.
type DayFloor struct {
	Floor
	ScheduleTitle string `json:"schedule_title"`
	ScheduleColor string `json:"schedule_color"`
	Completed     bool   `json:"completed"`
}

type FloorCompletion struct {
	ID          string     `json:"id"`
	FloorID     string     `json:"floor_id"`
	UserID      string     `json:"user_id"`
	IsCompleted bool       `json:"is_completed"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

const (
	TransactionEarn  = "earn"
	TransactionSpend = "spend"
	TransactionBonus = "bonus"
)

type PointTransaction struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Type       string    `json:"type"`
	Amount     int       `json:"amount"`
	Reason     string    `json:"reason"`
	EntityType *string   `json:"entity_type"`
	EntityID   *string   `json:"entity_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// Date truncates t to a UTC calendar date.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a UTC calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}
