package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"floorida/internal/models"
)

// CreateUser inserts the user and its default character in one transaction.
// A collision on email is reported before one on username.
func (r *Repo) CreateUser(ctx context.Context, email, username, passwordHash, characterImageURL string) (*models.User, error) {
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var taken bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email=$1)`, email).Scan(&taken); err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}
	if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE username=$1)`, username).Scan(&taken); err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrUsernameTaken
	}

	user := models.User{ID: uuid.NewString(), Email: email, Username: username, PasswordHash: passwordHash}
	err = tx.QueryRow(ctx, `INSERT INTO users (id, email, username, password_hash) VALUES ($1, $2, $3, $4) RETURNING created_at`,
		user.ID, email, username, passwordHash).Scan(&user.CreatedAt)
	if constraint, ok := uniqueViolation(err); ok {
		if constraint == "users_username_key" {
			return nil, ErrUsernameTaken
		}
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	if _, err := tx.Exec(ctx, `INSERT INTO characters (id, user_id, image_url) VALUES ($1, $2, $3) ON CONFLICT (user_id) DO NOTHING`,
		uuid.NewString(), user.ID, characterImageURL); err != nil {
		return nil, fmt.Errorf("insert character: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *Repo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := r.Pool.QueryRow(ctx, `SELECT id, email, username, password_hash, created_at FROM users WHERE email=$1`, email).
		Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repo) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	if !validID(userID) {
		return nil, ErrUserNotFound
	}
	var u models.User
	err := r.Pool.QueryRow(ctx, `SELECT id, email, username, password_hash, created_at FROM users WHERE id=$1`, userID).
		Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repo) GetCharacter(ctx context.Context, userID string) (*models.Character, error) {
	if !validID(userID) {
		return nil, ErrNotFound
	}
	var c models.Character
	err := r.Pool.QueryRow(ctx, `SELECT id, user_id, image_url, equipped_items, created_at FROM characters WHERE user_id=$1`, userID).
		Scan(&c.ID, &c.UserID, &c.ImageURL, &c.EquippedItems, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
