package clients

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/console/internal/platform/db"
	"github.com/odyssey-erp/console/internal/query"
	"github.com/odyssey-erp/console/internal/shared"
)

var listSpec = query.Spec{SearchColumns: []string{"name", "email"}}

// Repository provides PostgreSQL backed persistence for clients.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a client.
func (r *Repository) Create(ctx context.Context, c Client) (Client, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO clients (name, email, created_at) VALUES ($1, $2, $3) RETURNING id`,
		c.Name, c.Email, c.CreatedAt,
	).Scan(&c.ID)
	return c, err
}

// Get retrieves a client by ID.
func (r *Repository) Get(ctx context.Context, id int64) (Client, error) {
	var c Client
	err := r.pool.QueryRow(ctx, `SELECT id, name, email, created_at FROM clients WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Email, &c.CreatedAt)
	if db.IsNoRows(err) {
		return Client{}, shared.NotFound(Entity, id)
	}
	return c, err
}

// List returns one page of clients.
func (r *Repository) List(ctx context.Context, params query.Params) (shared.Page[Client], error) {
	where, args := listSpec.Where(params, nil)
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM clients`+where, args...).Scan(&total); err != nil {
		return shared.Page[Client]{}, err
	}
	limit, args := query.Paginate(params, args)
	rows, err := r.pool.Query(ctx, `SELECT id, name, email, created_at FROM clients`+where+` ORDER BY name, id`+limit, args...)
	if err != nil {
		return shared.Page[Client]{}, err
	}
	defer rows.Close()

	items := make([]Client, 0)
	for rows.Next() {
		var c Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.CreatedAt); err != nil {
			return shared.Page[Client]{}, err
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return shared.Page[Client]{}, err
	}
	return shared.NewPage(items, total), nil
}

// Names resolves ids to names.
func (r *Repository) Names(ctx context.Context, ids []int64) (map[int64]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM clients WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[int64]string, len(ids))
	for rows.Next() {
		var (
			id   int64
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		out[id] = name
	}
	return out, rows.Err()
}
