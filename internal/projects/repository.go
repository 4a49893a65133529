package projects

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/console/internal/history"
	"github.com/odyssey-erp/console/internal/lifecycle"
	"github.com/odyssey-erp/console/internal/platform/db"
	"github.com/odyssey-erp/console/internal/query"
	"github.com/odyssey-erp/console/internal/shared"
)

const (
	fromClause    = ` FROM projects p JOIN clients c ON c.id = p.client_id`
	selectColumns = `SELECT p.id, p.name, p.client_id, c.name, p.manager_id, p.status, p.start_date, p.deadline,
		p.revenue, p.budget_cost, p.description, p.created_at, p.updated_at` + fromClause
)

var listSpec = query.Spec{
	SearchColumns: []string{"p.name", "c.name"},
	FilterColumns: map[string]string{query.FilterStatus: "p.status"},
}

// Repository provides PostgreSQL backed persistence for projects.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a project and resolves its client name.
func (r *Repository) Create(ctx context.Context, p Project) (Project, error) {
	err := r.pool.QueryRow(ctx, `WITH ins AS (
			INSERT INTO projects (name, client_id, manager_id, status, start_date, deadline, revenue, budget_cost, description, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id, client_id
		)
		SELECT ins.id, c.name FROM ins JOIN clients c ON c.id = ins.client_id`,
		p.Name, p.ClientID, db.Int8(p.ManagerID), p.Status, db.Date(p.StartDate), db.Date(p.Deadline),
		db.Numeric(p.Revenue), db.Numeric(p.BudgetCost), p.Description, p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID, &p.ClientName)
	return p, err
}

// Get retrieves a project by ID.
func (r *Repository) Get(ctx context.Context, id int64) (Project, error) {
	p, err := scanProject(r.pool.QueryRow(ctx, selectColumns+` WHERE p.id = $1`, id))
	if db.IsNoRows(err) {
		return Project{}, shared.NotFound(Entity, id)
	}
	return p, err
}

// List returns one page of projects.
func (r *Repository) List(ctx context.Context, params query.Params) (shared.Page[Project], error) {
	where, args := listSpec.Where(params, nil)
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*)`+fromClause+where, args...).Scan(&total); err != nil {
		return shared.Page[Project]{}, err
	}
	limit, args := query.Paginate(params, args)
	items, err := r.query(ctx, selectColumns+where+` ORDER BY p.id`+limit, args...)
	if err != nil {
		return shared.Page[Project]{}, err
	}
	return shared.NewPage(items, total), nil
}

// ListAll returns every project.
func (r *Repository) ListAll(ctx context.Context) ([]Project, error) {
	return r.query(ctx, selectColumns+` ORDER BY p.id`)
}

// UpdateStatus moves the project out of from and records the transition atomically.
func (r *Repository) UpdateStatus(ctx context.Context, p Project, from Status, rec lifecycle.Record) (Project, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := db.ExecGuarded(ctx, tx, `UPDATE projects SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
			p.Status, p.UpdatedAt, p.ID, from); err != nil {
			return err
		}
		return history.Insert(ctx, tx, rec)
	})
	return p, err
}

func (r *Repository) query(ctx context.Context, sql string, args ...any) ([]Project, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func scanProject(row pgx.Row) (Project, error) {
	var (
		p                   Project
		manager             pgtype.Int8
		start, deadline     pgtype.Date
		revenue, budgetCost pgtype.Numeric
	)
	if err := row.Scan(&p.ID, &p.Name, &p.ClientID, &p.ClientName, &manager, &p.Status, &start, &deadline,
		&revenue, &budgetCost, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return Project{}, err
	}
	p.ManagerID = manager.Int64
	p.StartDate = db.FromDate(start)
	p.Deadline = db.FromDate(deadline)
	var err error
	if p.Revenue, err = db.Amount(revenue); err != nil {
		return Project{}, fmt.Errorf("project %d revenue: %w", p.ID, err)
	}
	if p.BudgetCost, err = db.Amount(budgetCost); err != nil {
		return Project{}, fmt.Errorf("project %d budget_cost: %w", p.ID, err)
	}
	return p, nil
}
