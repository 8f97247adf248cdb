package postgres

import (
	"context"
	"errors"

	"github.com/and161185/gamestats/internal/errs"
	"github.com/and161185/gamestats/internal/model"
	"github.com/jackc/pgx/v5"
)

// UserRepo implements UserRepository using PostgreSQL.
type UserRepo struct{ db *DB }

// NewUserRepo constructs a user repository.
func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

// Create inserts a new user row.
func (r *UserRepo) Create(ctx context.Context, u *model.User) (int64, error) {
	const q = `
INSERT INTO users (username, email, password)
VALUES ($1, NULLIF($2, ''), $3)
RETURNING id`
	var id int64
	err := r.db.Pool.QueryRow(ctx, q, u.Username, u.Email, u.PwdHash).Scan(&id)
	if isUniqueViolation(err) {
		return 0, errs.ErrConflict
	}
	if err != nil {
		return 0, storage(err)
	}
	return id, nil
}

// GetByID selects a user by ID.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	const q = `
SELECT id, username, COALESCE(email, ''), password, created_at
FROM users WHERE id=$1`
	return r.scanOne(ctx, q, id)
}

// GetByUsername selects a user by username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	const q = `
SELECT id, username, COALESCE(email, ''), password, created_at
FROM users WHERE username=$1`
	return r.scanOne(ctx, q, username)
}

func (r *UserRepo) scanOne(ctx context.Context, q string, arg any) (*model.User, error) {
	var u model.User
	err := r.db.Pool.QueryRow(ctx, q, arg).Scan(&u.ID, &u.Username, &u.Email, &u.PwdHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, storage(err)
	}
	return &u, nil
}
