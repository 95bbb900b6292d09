package users

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

// PGRepo implements Repo over database/sql. The SQL is shared by the pgx and sqlite drivers.
type PGRepo struct {
	DB *sql.DB
}

const userColumns = `user_id, user_name, email, password, role, registered_at`

func (r *PGRepo) Create(ctx context.Context, user User) error {
	const query = `
INSERT INTO users (user_id, user_name, email, password, role, registered_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	role := user.Role
	if role == "" {
		role = RoleUser
	}
	_, err := r.DB.ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		string(role),
		user.RegisteredAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, userID string) (User, error) {
	const query = `
SELECT ` + userColumns + `
FROM users
WHERE user_id = $1
LIMIT 1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, userID))
}

func (r *PGRepo) GetByLogin(ctx context.Context, identifier string) (User, error) {
	const query = `
SELECT ` + userColumns + `
FROM users
WHERE user_id = $1 OR lower(email) = lower($1) OR user_name = $1
ORDER BY CASE WHEN user_id = $1 OR lower(email) = lower($1) THEN 0 ELSE 1 END, registered_at
LIMIT 1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, identifier))
}

func (r *PGRepo) FindConflict(ctx context.Context, userID, email string) (User, error) {
	const query = `
SELECT ` + userColumns + `
FROM users
WHERE user_id = $1 OR lower(email) = lower($2)
ORDER BY CASE WHEN user_id = $1 THEN 0 ELSE 1 END
LIMIT 1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, userID, email))
}

func (r *PGRepo) ListIDs(ctx context.Context) ([]string, error) {
	const query = `
SELECT user_id
FROM users
ORDER BY registered_at, user_id`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *PGRepo) Delete(ctx context.Context, userID string) error {
	const query = `DELETE FROM users WHERE user_id = $1`
	res, err := r.DB.ExecContext(ctx, query, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) SetRole(ctx context.Context, userID string, role Role) error {
	const query = `UPDATE users SET role = $1 WHERE user_id = $2`
	res, err := r.DB.ExecContext(ctx, query, string(role), userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) scanOne(row *sql.Row) (User, error) {
	var user User
	var role sql.NullString
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&role,
		&user.RegisteredAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	user.Role = RoleUser
	if parsed, ok := ParseRole(role.String); role.Valid && ok {
		user.Role = parsed
	}
	return user, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

var _ Repo = (*PGRepo)(nil)
