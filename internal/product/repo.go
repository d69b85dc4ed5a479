// Package product provides the repository interface and PostgreSQL implementation for managing products.
package product

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("product not found")
)

type Query struct {
	Q        string
	Category string
	Limit    int
	Offset   int
}

type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context, q Query) ([]Product, error)
	ListAll(ctx context.Context, activeOnly bool) ([]Product, error)
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) (bool, error)
	SetStock(ctx context.Context, id string, qty int) (*Product, error)
	AdjustStock(ctx context.Context, id string, delta int) (*Product, error)
	Categories(ctx context.Context) ([]CategoryCount, error)
}

const columns = `id, name, description, category, price::text, stock, low_stock_threshold,
	purchase_limit, discrepancy_total, active, created_at, updated_at`

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

func scan(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.Price, &p.Stock,
		&p.LowStockThreshold, &p.PurchaseLimit, &p.DiscrepancyTotal, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func collect(rows pgx.Rows) ([]Product, error) {
	defer rows.Close()
	var out []Product
	for rows.Next() {
		p, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *PGRepo) Create(ctx context.Context, p *Product) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.db.Exec(ctx, `
		INSERT INTO products (id, name, description, category, price, stock, low_stock_threshold,
			purchase_limit, discrepancy_total, active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,0,TRUE,NOW(),NOW())
	`, p.ID, p.Name, p.Description, p.Category, p.Price, p.Stock, p.LowStockThreshold, p.PurchaseLimit)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return scan(r.db.QueryRow(ctx, `SELECT `+columns+` FROM products WHERE id=$1`, id))
}

func (r *PGRepo) List(ctx context.Context, q Query) ([]Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	limit := q.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	search := strings.TrimSpace(q.Q)
	category := strings.TrimSpace(q.Category)

	rows, err := r.db.Query(ctx, `
		SELECT `+columns+`
		FROM products
		WHERE ($1 = '' OR name ILIKE '%'||$1||'%' OR description ILIKE '%'||$1||'%')
		  AND ($2 = '' OR category = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`, search, category, limit, offset)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (r *PGRepo) ListAll(ctx context.Context, activeOnly bool) ([]Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT `+columns+`
		FROM products
		WHERE (NOT $1 OR active)
		ORDER BY name
	`, activeOnly)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (r *PGRepo) Update(ctx context.Context, p *Product) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE products
		SET name = $2,
		    description = $3,
		    category = $4,
		    price = $5,
		    stock = $6,
		    low_stock_threshold = $7,
		    purchase_limit = $8,
		    discrepancy_total = $9,
		    active = $10,
		    updated_at = NOW()
		WHERE id = $1
	`, p.ID, p.Name, p.Description, p.Category, p.Price, p.Stock, p.LowStockThreshold,
		p.PurchaseLimit, p.DiscrepancyTotal, p.Active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) Delete(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cmd, err := r.db.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

// SetStock records an absolute stock count.
func (r *PGRepo) SetStock(ctx context.Context, id string, qty int) (*Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return scan(r.db.QueryRow(ctx, `
		UPDATE products SET stock = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+columns, id, qty))
}

// AdjustStock adds delta to the stock. The result may be negative; an
// untracked stock is treated as zero once it is adjusted.
func (r *PGRepo) AdjustStock(ctx context.Context, id string, delta int) (*Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return scan(r.db.QueryRow(ctx, `
		UPDATE products SET stock = COALESCE(stock, 0) + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+columns, id, delta))
}

func (r *PGRepo) Categories(ctx context.Context) ([]CategoryCount, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT category, COUNT(*)
		FROM products
		WHERE category <> ''
		GROUP BY category
		ORDER BY category
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CategoryCount
	for rows.Next() {
		var c CategoryCount
		if err := rows.Scan(&c.Category, &c.Products); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
