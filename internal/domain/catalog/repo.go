package catalog

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

/* Suppliers */

func (r *Repo) CreateSupplier(ctx context.Context, name string, enforcesCategories bool) (*Supplier, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO suppliers (name, enforces_categories) VALUES ($1,$2)
		ON CONFLICT (name) DO NOTHING
		RETURNING id, name, enforces_categories, created_at
	`, name, enforcesCategories)
	var s Supplier
	err := row.Scan(&s.ID, &s.Name, &s.EnforcesCategories, &s.CreatedAt)
	if err == pgx.ErrNoRows {
		// Уже есть — вернём существующего
		return r.GetSupplierByName(ctx, name)
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *Repo) GetSupplier(ctx context.Context, id int64) (*Supplier, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, enforces_categories, created_at
		FROM suppliers WHERE id = $1
	`, id)
	var s Supplier
	if err := row.Scan(&s.ID, &s.Name, &s.EnforcesCategories, &s.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *Repo) GetSupplierByName(ctx context.Context, name string) (*Supplier, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, enforces_categories, created_at
		FROM suppliers WHERE LOWER(name) = LOWER($1)
	`, strings.TrimSpace(name))
	var s Supplier
	if err := row.Scan(&s.ID, &s.Name, &s.EnforcesCategories, &s.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *Repo) ListSuppliers(ctx context.Context) ([]Supplier, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, enforces_categories, created_at
		FROM suppliers
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Supplier
	for rows.Next() {
		var s Supplier
		if err := rows.Scan(&s.ID, &s.Name, &s.EnforcesCategories, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// DeleteSupplier удаляет поставщика; его позиции уходят каскадом.
func (r *Repo) DeleteSupplier(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM suppliers WHERE id = $1`, id)
	return err
}

/* Items */

func (r *Repo) CreateItem(ctx context.Context, supplierID int64, name string, stock int64, category Category) (*Item, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO items (supplier_id, name, current_stock, category)
		VALUES ($1,$2,$3,$4)
		RETURNING id, supplier_id, name, current_stock, category, created_at
	`, supplierID, name, stock, string(category.Normalize()))
	var it Item
	if err := row.Scan(&it.ID, &it.SupplierID, &it.Name, &it.CurrentStock, &it.Category, &it.CreatedAt); err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *Repo) ListItems(ctx context.Context, supplierID int64) ([]Item, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, supplier_id, name, current_stock, category, created_at
		FROM items
		WHERE supplier_id = $1
		ORDER BY name
	`, supplierID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.SupplierID, &it.Name, &it.CurrentStock, &it.Category, &it.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// GetItemForSupplier возвращает позицию, только если она принадлежит
// указанному поставщику (nil, nil — если нет).
func (r *Repo) GetItemForSupplier(ctx context.Context, itemID, supplierID int64) (*Item, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, supplier_id, name, current_stock, category, created_at
		FROM items
		WHERE id = $1 AND supplier_id = $2
	`, itemID, supplierID)
	var it Item
	if err := row.Scan(&it.ID, &it.SupplierID, &it.Name, &it.CurrentStock, &it.Category, &it.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &it, nil
}

// StockRows — остатки по всем поставщикам для выгрузки в Excel.
func (r *Repo) StockRows(ctx context.Context) ([]StockRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT s.name, i.name, i.category, i.current_stock
		FROM items i
		JOIN suppliers s ON s.id = i.supplier_id
		ORDER BY s.name, i.name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []StockRow
	for rows.Next() {
		var sr StockRow
		if err := rows.Scan(&sr.Supplier, &sr.Item, &sr.Category, &sr.CurrentStock); err != nil {
			return nil, err
		}
		out = append(out, sr)
	}
	return out, rows.Err()
}
