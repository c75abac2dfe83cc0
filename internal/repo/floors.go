package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"floorida/internal/models"
)

const floorColumns = `id, schedule_id, creator_user_id, title, scheduled_date, position, created_at`

func scanFloor(row pgx.Row) (models.Floor, error) {
	var f models.Floor
	err := row.Scan(&f.ID, &f.ScheduleID, &f.CreatorUserID, &f.Title, &f.ScheduledDate, &f.Position, &f.CreatedAt)
	return f, err
}

func listScheduleFloors(ctx context.Context, q querier, scheduleID string) ([]models.Floor, error) {
	rows, err := q.Query(ctx, `SELECT `+floorColumns+` FROM floors WHERE schedule_id=$1 ORDER BY position, created_at`, scheduleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	floors := []models.Floor{}
	for rows.Next() {
		f, err := scanFloor(rows)
		if err != nil {
			return nil, err
		}
		floors = append(floors, f)
	}
	return floors, rows.Err()
}

// ListFloorsByDate returns the floors userID created for the given day.
func (r *Repo) ListFloorsByDate(ctx context.Context, userID string, date time.Time) ([]models.DayFloor, error) {
	if !validID(userID) {
		return nil, ErrNotFound
	}
	rows, err := r.Pool.Query(ctx, `SELECT f.id, f.schedule_id, f.creator_user_id, f.title, f.scheduled_date, f.position, f.created_at,
			s.title, COALESCE(s.color, ''), c.id IS NOT NULL
		FROM floors f
		JOIN schedules s ON s.id = f.schedule_id
		LEFT JOIN floor_completions c ON c.floor_id = f.id AND c.user_id = f.creator_user_id
		WHERE f.creator_user_id=$1 AND f.scheduled_date=$2
		ORDER BY s.created_at, f.position`, userID, models.Date(date))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []models.DayFloor{}
	for rows.Next() {
		var d models.DayFloor
		if err := rows.Scan(&d.ID, &d.ScheduleID, &d.CreatorUserID, &d.Title, &d.ScheduledDate, &d.Position, &d.CreatedAt,
			&d.ScheduleTitle, &d.ScheduleColor, &d.Completed); err != nil {
			return nil, err
		}
		res = append(res, d)
	}
	return res, rows.Err()
}

// CompleteFloor records userID's completion of floorID and credits the reward
// in one transaction. The (floor_id, user_id) unique constraint settles
// concurrent attempts: the loser gets ErrAlreadyCompleted.
func (r *Repo) CompleteFloor(ctx context.Context, userID, floorID string, reward int) (*models.FloorCompletion, *models.Profile, error) {
	if !validID(userID, floorID) {
		return nil, nil, ErrNotFound
	}
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx)

	var creatorID string
	err = tx.QueryRow(ctx, `SELECT creator_user_id FROM floors WHERE id=$1`, floorID).Scan(&creatorID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	if !strings.EqualFold(creatorID, userID) {
		return nil, nil, ErrNotOwner
	}

	var done bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM floor_completions WHERE floor_id=$1 AND user_id=$2)`, floorID, userID).Scan(&done); err != nil {
		return nil, nil, err
	}
	if done {
		return nil, nil, ErrAlreadyCompleted
	}

	now := time.Now().UTC()
	completion := models.FloorCompletion{ID: uuid.NewString(), FloorID: floorID, UserID: userID, IsCompleted: true, CompletedAt: &now}
	err = tx.QueryRow(ctx, `INSERT INTO floor_completions (id, floor_id, user_id, is_completed, completed_at)
		VALUES ($1,$2,$3,true,$4) RETURNING created_at`, completion.ID, floorID, userID, now).Scan(&completion.CreatedAt)
	if _, ok := uniqueViolation(err); ok {
		return nil, nil, ErrAlreadyCompleted
	}
	if err != nil {
		return nil, nil, fmt.Errorf("insert completion: %w", err)
	}

	profile, err := scanProfile(tx.QueryRow(ctx, `UPDATE user_profiles
		SET points = points + $1, personal_level = personal_level + 1, updated_at = now()
		WHERE user_id=$2 RETURNING `+profileColumns, reward, userID))
	if err != nil {
		return nil, nil, err
	}
	entityType := "floor"
	if err := insertTransaction(ctx, tx, userID, models.TransactionEarn, reward, "floor completed", &entityType, &floorID); err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}
	return &completion, profile, nil
}
