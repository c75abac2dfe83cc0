package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"floorida/internal/models"
)

const profileColumns = `user_id, points, personal_level, planning_tendency, daily_study_hours, created_at, updated_at`

func scanProfile(row pgx.Row) (*models.Profile, error) {
	var p models.Profile
	err := row.Scan(&p.UserID, &p.Points, &p.PersonalLevel, &p.PlanningTendency, &p.DailyStudyHours, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// EnsureProfile creates the profile with the given starting balance if it does
// not exist yet. It reports whether a profile was created.
func (r *Repo) EnsureProfile(ctx context.Context, userID string, bonus int) (bool, error) {
	if !validID(userID) {
		return false, ErrUserNotFound
	}
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	cmd, err := tx.Exec(ctx, `INSERT INTO user_profiles (user_id, points, personal_level) VALUES ($1, $2, 1) ON CONFLICT (user_id) DO NOTHING`, userID, bonus)
	if foreignKeyViolation(err) {
		return false, ErrUserNotFound
	}
	if err != nil {
		return false, fmt.Errorf("insert profile: %w", err)
	}
	created := cmd.RowsAffected() == 1
	if created && bonus > 0 {
		if err := insertTransaction(ctx, tx, userID, models.TransactionBonus, bonus, "signup bonus", nil, nil); err != nil {
			return false, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return created, nil
}

func (r *Repo) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	if !validID(userID) {
		return nil, ErrProfileNotFound
	}
	return scanProfile(r.Pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM user_profiles WHERE user_id=$1`, userID))
}

func (r *Repo) AddPoints(ctx context.Context, userID string, amount int, reason string) (*models.Profile, error) {
	if !validID(userID) {
		return nil, ErrProfileNotFound
	}
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	profile, err := scanProfile(tx.QueryRow(ctx, `UPDATE user_profiles SET points = points + $1, updated_at=now()
		WHERE user_id=$2 RETURNING `+profileColumns, amount, userID))
	if err != nil {
		return nil, err
	}
	if err := insertTransaction(ctx, tx, userID, models.TransactionEarn, amount, reason, nil, nil); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return profile, nil
}

// DeductPoints leaves the balance untouched when it is smaller than amount.
func (r *Repo) DeductPoints(ctx context.Context, userID string, amount int, reason string) (*models.Profile, error) {
	if !validID(userID) {
		return nil, ErrProfileNotFound
	}
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	profile, err := scanProfile(tx.QueryRow(ctx, `UPDATE user_profiles SET points = points - $1, updated_at=now()
		WHERE user_id=$2 AND points >= $1 RETURNING `+profileColumns, amount, userID))
	if errors.Is(err, ErrNotFound) {
		var exists bool
		if checkErr := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM user_profiles WHERE user_id=$1)`, userID).Scan(&exists); checkErr != nil {
			return nil, checkErr
		}
		if exists {
			return nil, ErrInsufficientFunds
		}
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := insertTransaction(ctx, tx, userID, models.TransactionSpend, amount, reason, nil, nil); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return profile, nil
}

func (r *Repo) IncrementLevel(ctx context.Context, userID string) (*models.Profile, error) {
	if !validID(userID) {
		return nil, ErrProfileNotFound
	}
	return scanProfile(r.Pool.QueryRow(ctx, `UPDATE user_profiles SET personal_level = personal_level + 1, updated_at=now()
		WHERE user_id=$1 RETURNING `+profileColumns, userID))
}

// UpdateOnboarding sets the non-nil fields only.
func (r *Repo) UpdateOnboarding(ctx context.Context, userID string, tendency, studyHours *string) (*models.Profile, error) {
	if !validID(userID) {
		return nil, ErrProfileNotFound
	}
	return scanProfile(r.Pool.QueryRow(ctx, `UPDATE user_profiles
		SET planning_tendency = COALESCE($2, planning_tendency),
			daily_study_hours = COALESCE($3, daily_study_hours),
			updated_at = now()
		WHERE user_id=$1 RETURNING `+profileColumns, userID, tendency, studyHours))
}

func (r *Repo) ListTransactions(ctx context.Context, userID string, limit int) ([]models.PointTransaction, error) {
	if !validID(userID) {
		return nil, ErrProfileNotFound
	}
	rows, err := r.Pool.Query(ctx, `SELECT id, user_id, type, amount, reason, entity_type, entity_id, created_at
		FROM point_transactions WHERE user_id=$1 ORDER BY created_at DESC, id LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []models.PointTransaction{}
	for rows.Next() {
		var t models.PointTransaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Type, &t.Amount, &t.Reason, &t.EntityType, &t.EntityID, &t.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

func insertTransaction(ctx context.Context, q querier, userID, kind string, amount int, reason string, entityType, entityID *string) error {
	_, err := q.Exec(ctx, `INSERT INTO point_transactions (id, user_id, type, amount, reason, entity_type, entity_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`, uuid.NewString(), userID, kind, amount, reason, entityType, entityID)
	if err != nil {
		return fmt.Errorf("insert point transaction: %w", err)
	}
	return nil
}
