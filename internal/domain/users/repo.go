package users

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

func (r *Repo) GetByLogin(ctx context.Context, login string) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, login, full_name, role, created_at
		FROM users WHERE login = $1
	`, strings.ToLower(strings.TrimSpace(login)))

	var u User
	if err := row.Scan(&u.ID, &u.Login, &u.FullName, &u.Role, &u.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// Create — upsert по логину; роль админа при повторе не понижаем.
func (r *Repo) Create(ctx context.Context, login, fullName string, role Role) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (login, full_name, role)
		VALUES ($1,$2,$3)
		ON CONFLICT (login)
		DO UPDATE SET
			full_name = EXCLUDED.full_name,
			role      = CASE WHEN users.role = 'admin' THEN users.role ELSE EXCLUDED.role END
		RETURNING id, login, full_name, role, created_at
	`, strings.ToLower(strings.TrimSpace(login)), fullName, role)

	var u User
	if err := row.Scan(&u.ID, &u.Login, &u.FullName, &u.Role, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repo) List(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, login, full_name, role, created_at
		FROM users
		ORDER BY login
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Login, &u.FullName, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
