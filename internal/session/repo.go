package session

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

func (r *Repo) Push(ctx context.Context, sid uuid.UUID, kind Kind, text string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO flash_messages (session_id, kind, body)
		VALUES ($1,$2,$3)
	`, sid, string(kind), text)
	return err
}

// Pop отдаёт все отложенные сообщения сессии и сразу их удаляет:
// каждое сообщение читается ровно один раз.
func (r *Repo) Pop(ctx context.Context, sid uuid.UUID) ([]Message, error) {
	rows, err := r.pool.Query(ctx, `
		DELETE FROM flash_messages
		WHERE session_id = $1
		RETURNING kind, body
	`, sid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.Kind, &m.Text); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
