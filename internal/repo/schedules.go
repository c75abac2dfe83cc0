package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"floorida/internal/models"
)

const scheduleColumns = `id, creator_user_id, team_id, title, original_goal, goal_summary, start_date, end_date, color, created_at`

func scanSchedule(row pgx.Row) (*models.Schedule, error) {
	var s models.Schedule
	var color *string
	err := row.Scan(&s.ID, &s.CreatorUserID, &s.TeamID, &s.Title, &s.OriginalGoal, &s.GoalSummary, &s.StartDate, &s.EndDate, &color, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if color != nil {
		s.Color = *color
	}
	s.Floors = []models.Floor{}
	return &s, nil
}

// CreateSchedule persists s and its floors atomically, filling in ids,
// positions and timestamps.
func (r *Repo) CreateSchedule(ctx context.Context, s *models.Schedule) error {
	if !validID(s.CreatorUserID) {
		return ErrUserNotFound
	}
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	s.ID = uuid.NewString()
	err = tx.QueryRow(ctx, `INSERT INTO schedules (id, creator_user_id, team_id, title, original_goal, goal_summary, start_date, end_date, color)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING created_at`,
		s.ID, s.CreatorUserID, s.TeamID, s.Title, s.OriginalGoal, s.GoalSummary, s.StartDate, s.EndDate, s.Color).Scan(&s.CreatedAt)
	if foreignKeyViolation(err) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("insert schedule: %w", err)
	}

	if len(s.Floors) > 0 {
		batch := &pgx.Batch{}
		for i := range s.Floors {
			f := &s.Floors[i]
			f.ID = uuid.NewString()
			f.ScheduleID = s.ID
			f.CreatorUserID = s.CreatorUserID
			f.Position = i
			batch.Queue(`INSERT INTO floors (id, schedule_id, creator_user_id, title, scheduled_date, position)
				VALUES ($1,$2,$3,$4,$5,$6) RETURNING created_at`,
				f.ID, f.ScheduleID, f.CreatorUserID, f.Title, f.ScheduledDate, f.Position).
				QueryRow(func(row pgx.Row) error {
					return row.Scan(&f.CreatedAt)
				})
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert floors: %w", err)
		}
	} else {
		s.Floors = []models.Floor{}
	}

	return tx.Commit(ctx)
}

// GetSchedule only returns schedules owned by ownerID.
func (r *Repo) GetSchedule(ctx context.Context, ownerID, id string) (*models.Schedule, error) {
	if !validID(ownerID, id) {
		return nil, ErrNotFound
	}
	s, err := scanSchedule(r.Pool.QueryRow(ctx, `SELECT `+scheduleColumns+` FROM schedules WHERE id=$1 AND creator_user_id=$2`, id, ownerID))
	if err != nil {
		return nil, err
	}
	if s.Floors, err = listScheduleFloors(ctx, r.Pool, s.ID); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *Repo) ListSchedules(ctx context.Context, ownerID string) ([]*models.Schedule, error) {
	if !validID(ownerID) {
		return nil, ErrNotFound
	}
	rows, err := r.Pool.Query(ctx, `SELECT `+scheduleColumns+` FROM schedules WHERE creator_user_id=$1 ORDER BY created_at DESC, id`, ownerID)
	if err != nil {
		return nil, err
	}
	schedules := []*models.Schedule{}
	byID := map[string]*models.Schedule{}
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		schedules = append(schedules, s)
		byID[s.ID] = s
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(schedules) == 0 {
		return schedules, nil
	}

	floorRows, err := r.Pool.Query(ctx, `SELECT `+floorColumns+` FROM floors
		WHERE schedule_id IN (SELECT id FROM schedules WHERE creator_user_id=$1)
		ORDER BY schedule_id, position`, ownerID)
	if err != nil {
		return nil, err
	}
	defer floorRows.Close()
	for floorRows.Next() {
		f, err := scanFloor(floorRows)
		if err != nil {
			return nil, err
		}
		if s, ok := byID[f.ScheduleID]; ok {
			s.Floors = append(s.Floors, f)
		}
	}
	return schedules, floorRows.Err()
}

// UpdateSchedule locks the owner's schedule, lets apply mutate it and writes
// the result back. An error from apply aborts the update.
func (r *Repo) UpdateSchedule(ctx context.Context, ownerID, id string, apply func(s *models.Schedule) error) (*models.Schedule, error) {
	if !validID(ownerID, id) {
		return nil, ErrNotFound
	}
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	s, err := scanSchedule(tx.QueryRow(ctx, `SELECT `+scheduleColumns+` FROM schedules WHERE id=$1 AND creator_user_id=$2 FOR UPDATE`, id, ownerID))
	if err != nil {
		return nil, err
	}
	if err := apply(s); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `UPDATE schedules SET title=$1, goal_summary=$2, color=$3, start_date=$4, end_date=$5 WHERE id=$6`,
		s.Title, s.GoalSummary, s.Color, s.StartDate, s.EndDate, s.ID); err != nil {
		return nil, fmt.Errorf("update schedule: %w", err)
	}
	if s.Floors, err = listScheduleFloors(ctx, tx, s.ID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// DeleteSchedule removes the schedule with its floors and their completions.
func (r *Repo) DeleteSchedule(ctx context.Context, ownerID, id string) error {
	if !validID(ownerID, id) {
		return ErrNotFound
	}
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var locked string
	err = tx.QueryRow(ctx, `SELECT id FROM schedules WHERE id=$1 AND creator_user_id=$2 FOR UPDATE`, id, ownerID).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM floor_completions WHERE floor_id IN (SELECT id FROM floors WHERE schedule_id=$1)`, id); err != nil {
		return fmt.Errorf("delete completions: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM floors WHERE schedule_id=$1`, id); err != nil {
		return fmt.Errorf("delete floors: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM schedules WHERE id=$1`, id); err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	return tx.Commit(ctx)
}
