package requests

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgStore struct{ pool *pgxpool.Pool }

func NewPgStore(pool *pgxpool.Pool) *PgStore { return &PgStore{pool: pool} }

func (s *PgStore) ActiveList(ctx context.Context) (*List, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, COALESCE(user_id, 0), staff_name, created_at, is_completed
		FROM request_lists
		WHERE NOT is_completed
		ORDER BY created_at
		LIMIT 1
	`)
	var l List
	if err := row.Scan(&l.ID, &l.UserID, &l.StaffName, &l.CreatedAt, &l.IsCompleted); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

// CreateActiveList полагается на частичный уникальный индекс
// (не более одной строки с is_completed = FALSE): при гонке вставка
// тихо проигрывает и возвращается уже существующий список.
func (s *PgStore) CreateActiveList(ctx context.Context, userID int64, staffName string) (*List, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO request_lists (user_id, staff_name)
		VALUES (NULLIF($1, 0), $2)
		ON CONFLICT DO NOTHING
		RETURNING id, COALESCE(user_id, 0), staff_name, created_at, is_completed
	`, userID, staffName)
	var l List
	err := row.Scan(&l.ID, &l.UserID, &l.StaffName, &l.CreatedAt, &l.IsCompleted)
	if err == pgx.ErrNoRows {
		return s.ActiveList(ctx)
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *PgStore) UpsertLine(ctx context.Context, listID, itemID, qty int64) (*Line, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO request_items (request_list_id, item_id, quantity)
		VALUES ($1,$2,$3)
		ON CONFLICT (request_list_id, item_id)
		DO UPDATE SET quantity = request_items.quantity + EXCLUDED.quantity
		RETURNING id, request_list_id, item_id, quantity
	`, listID, itemID, qty)
	var ln Line
	if err := row.Scan(&ln.ID, &ln.ListID, &ln.ItemID, &ln.Quantity); err != nil {
		return nil, err
	}
	return &ln, nil
}

func (s *PgStore) Line(ctx context.Context, listID, lineID int64) (*Line, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, request_list_id, item_id, quantity
		FROM request_items
		WHERE id = $1 AND request_list_id = $2
	`, lineID, listID)
	var ln Line
	if err := row.Scan(&ln.ID, &ln.ListID, &ln.ItemID, &ln.Quantity); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &ln, nil
}

func (s *PgStore) SetLineQuantity(ctx context.Context, lineID, qty int64) error {
	_, err := s.pool.Exec(ctx, `UPDATE request_items SET quantity = $2 WHERE id = $1`, lineID, qty)
	return err
}

func (s *PgStore) DeleteLine(ctx context.Context, lineID int64) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM request_items WHERE id = $1`, lineID)
	return err
}

func (s *PgStore) Lines(ctx context.Context, listID int64) ([]LineView, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT ri.id, ri.request_list_id, ri.item_id, ri.quantity, i.name, i.current_stock
		FROM request_items ri
		JOIN items i ON i.id = ri.item_id
		WHERE ri.request_list_id = $1
		ORDER BY ri.id
	`, listID)
	if err != nil {
		return nil, err
	}
	return scanLineViews(rows)
}

// CompleteList — единственное место, где атомарность хранилища
// несёт нагрузку: снимок строк с блокировкой позиций, отдельная фаза
// проверки по снимку и только затем фаза применения. Любой отказ
// откатывает всё целиком.
func (s *PgStore) CompleteList(ctx context.Context, listID int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `
		SELECT ri.id, ri.request_list_id, ri.item_id, ri.quantity, i.name, i.current_stock
		FROM request_items ri
		JOIN items i ON i.id = ri.item_id
		WHERE ri.request_list_id = $1
		ORDER BY ri.id
		FOR UPDATE OF i
	`, listID)
	if err != nil {
		return err
	}
	lines, err := scanLineViews(rows)
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		return ErrEmptyList
	}

	if short := findShortfall(lines); short != nil {
		return &InsufficientStockError{Item: short.ItemName}
	}

	for _, ln := range lines {
		if _, err := tx.Exec(ctx, `
			UPDATE items SET current_stock = current_stock - $2 WHERE id = $1
		`, ln.ItemID, ln.Quantity); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(ctx, `
		UPDATE request_lists SET is_completed = TRUE WHERE id = $1
	`, listID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func scanLineViews(rows pgx.Rows) ([]LineView, error) {
	defer rows.Close()
	var out []LineView
	for rows.Next() {
		var lv LineView
		if err := rows.Scan(&lv.ID, &lv.ListID, &lv.ItemID, &lv.Quantity, &lv.ItemName, &lv.CurrentStock); err != nil {
			return nil, err
		}
		out = append(out, lv)
	}
	return out, rows.Err()
}
