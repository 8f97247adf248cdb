package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/and161185/gamestats/internal/errs"
	"github.com/and161185/gamestats/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

func TestUserRepo_Create_OK_and_UniqueViolation(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	ctx := context.Background()
	u := &model.User{Username: "u", Email: "u@example.com", PwdHash: "$argon2id$hash"}

	mock.ExpectQuery(`INSERT INTO users \(username, email, password\) VALUES \(\$1, NULLIF\(\$2, ''\), \$3\) RETURNING id`).
		WithArgs(u.Username, u.Email, u.PwdHash).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))
	id, err := r.Create(ctx, u)
	require.NoError(t, err)
	require.Equal(t, int64(7), id)

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs(u.Username, u.Email, u.PwdHash).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	_, err = r.Create(ctx, u)
	require.ErrorIs(t, err, errs.ErrConflict)

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs(u.Username, u.Email, u.PwdHash).
		WillReturnError(errors.New("broken pipe"))
	_, err = r.Create(ctx, u)
	require.ErrorIs(t, err, errs.ErrStorage)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_GetByID(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT id, username, COALESCE\(email, ''\), password, created_at FROM users WHERE id=\$1`).
		WithArgs(int64(3)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "username", "email", "password", "created_at"}).
			AddRow(int64(3), "u", "", "h", time.Now()))
	u, err := r.GetByID(ctx, 3)
	require.NoError(t, err)
	require.Equal(t, int64(3), u.ID)

	mock.ExpectQuery(`FROM users WHERE id=\$1`).
		WithArgs(int64(3)).
		WillReturnError(pgx.ErrNoRows)
	_, err = r.GetByID(ctx, 3)
	require.ErrorIs(t, err, errs.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_GetByUsername(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	ctx := context.Background()
	name := "u2"

	mock.ExpectQuery(`SELECT id, username, COALESCE\(email, ''\), password, created_at FROM users WHERE username=\$1`).
		WithArgs(name).
		WillReturnRows(pgxmock.NewRows([]string{"id", "username", "email", "password", "created_at"}).
			AddRow(int64(9), name, "u2@example.com", "h", time.Now()))
	u, err := r.GetByUsername(ctx, name)
	require.NoError(t, err)
	require.Equal(t, name, u.Username)
	require.Equal(t, "h", u.PwdHash)

	mock.ExpectQuery(`FROM users WHERE username=\$1`).
		WithArgs(name).
		WillReturnError(pgx.ErrNoRows)
	_, err = r.GetByUsername(ctx, name)
	require.ErrorIs(t, err, errs.ErrNotFound)

	mock.ExpectQuery(`FROM users WHERE username=\$1`).
		WithArgs(name).
		WillReturnError(errors.New("timeout"))
	_, err = r.GetByUsername(ctx, name)
	require.ErrorIs(t, err, errs.ErrStorage)
	require.NoError(t, mock.ExpectationsWereMet())
}
