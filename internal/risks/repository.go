package risks

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/console/internal/history"
	"github.com/odyssey-erp/console/internal/lifecycle"
	"github.com/odyssey-erp/console/internal/platform/db"
	"github.com/odyssey-erp/console/internal/query"
	"github.com/odyssey-erp/console/internal/shared"
)

const selectColumns = `SELECT id, summary, description, impact, probability, status, mitigation_plan, owner_id,
	created_at, updated_at FROM risks`

var listSpec = query.Spec{
	SearchColumns: []string{"summary"},
	FilterColumns: map[string]string{query.FilterStatus: "status"},
}

// Repository provides PostgreSQL backed persistence for risks.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a risk.
func (r *Repository) Create(ctx context.Context, rk Risk) (Risk, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO risks (summary, description, impact, probability, status, mitigation_plan, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
		rk.Summary, rk.Description, rk.Impact, rk.Probability, rk.Status, rk.MitigationPlan, rk.OwnerID, rk.CreatedAt, rk.UpdatedAt,
	).Scan(&rk.ID)
	return rk, err
}

// Get retrieves a risk by ID.
func (r *Repository) Get(ctx context.Context, id int64) (Risk, error) {
	rk, err := scanRisk(r.pool.QueryRow(ctx, selectColumns+` WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return Risk{}, shared.NotFound(Entity, id)
	}
	return rk, err
}

// List returns one page of risks.
func (r *Repository) List(ctx context.Context, params query.Params) (shared.Page[Risk], error) {
	where, args := listSpec.Where(params, nil)
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM risks`+where, args...).Scan(&total); err != nil {
		return shared.Page[Risk]{}, err
	}
	limit, args := query.Paginate(params, args)
	items, err := r.query(ctx, selectColumns+where+` ORDER BY id`+limit, args...)
	if err != nil {
		return shared.Page[Risk]{}, err
	}
	return shared.NewPage(items, total), nil
}

// ListAll returns every risk.
func (r *Repository) ListAll(ctx context.Context) ([]Risk, error) {
	return r.query(ctx, selectColumns+` ORDER BY id`)
}

// UpdateStatus moves the risk out of from and records the transition atomically.
func (r *Repository) UpdateStatus(ctx context.Context, rk Risk, from Status, rec lifecycle.Record) (Risk, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := db.ExecGuarded(ctx, tx, `UPDATE risks SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
			rk.Status, rk.UpdatedAt, rk.ID, from); err != nil {
			return err
		}
		return history.Insert(ctx, tx, rec)
	})
	return rk, err
}

func (r *Repository) query(ctx context.Context, sql string, args ...any) ([]Risk, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]Risk, 0)
	for rows.Next() {
		rk, err := scanRisk(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rk)
	}
	return items, rows.Err()
}

func scanRisk(row pgx.Row) (Risk, error) {
	var rk Risk
	err := row.Scan(&rk.ID, &rk.Summary, &rk.Description, &rk.Impact, &rk.Probability, &rk.Status,
		&rk.MitigationPlan, &rk.OwnerID, &rk.CreatedAt, &rk.UpdatedAt)
	return rk, err
}
