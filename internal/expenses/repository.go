package expenses

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

const selectColumns = `SELECT id, description, amount, category, expense_date, submitted_by, project_id, status,
	decided_by, decided_at, created_at, updated_at FROM expenses`

var listSpec = query.Spec{
	SearchColumns: []string{"description"},
	FilterColumns: map[string]string{
		query.FilterStatus:   "status",
		query.FilterCategory: "category",
	},
}

// Repository provides PostgreSQL backed persistence for expenses.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts an expense.
func (r *Repository) Create(ctx context.Context, e Expense) (Expense, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO expenses (description, amount, category, expense_date, submitted_by, project_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
		e.Description, db.Numeric(e.Amount), e.Category, db.Date(e.Date), e.SubmittedBy, db.Int8(e.ProjectID),
		e.Status, e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
	return e, err
}

// Get retrieves an expense by ID.
func (r *Repository) Get(ctx context.Context, id int64) (Expense, error) {
	e, err := scanExpense(r.pool.QueryRow(ctx, selectColumns+` WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return Expense{}, shared.NotFound(Entity, id)
	}
	return e, err
}

// List returns one page of expenses, newest first.
func (r *Repository) List(ctx context.Context, params query.Params) (shared.Page[Expense], error) {
	where, args := listSpec.Where(params, nil)
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM expenses`+where, args...).Scan(&total); err != nil {
		return shared.Page[Expense]{}, err
	}
	limit, args := query.Paginate(params, args)
	items, err := r.query(ctx, selectColumns+where+` ORDER BY expense_date DESC, id DESC`+limit, args...)
	if err != nil {
		return shared.Page[Expense]{}, err
	}
	return shared.NewPage(items, total), nil
}

// ListAll returns every expense.
func (r *Repository) ListAll(ctx context.Context) ([]Expense, error) {
	return r.query(ctx, selectColumns+` ORDER BY id`)
}

// UpdateStatus moves the expense out of from and records the transition atomically.
func (r *Repository) UpdateStatus(ctx context.Context, e Expense, from Status, rec lifecycle.Record) (Expense, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := db.ExecGuarded(ctx, tx, `UPDATE expenses SET status = $1, decided_by = $2, decided_at = $3, updated_at = $4
			WHERE id = $5 AND status = $6`,
			e.Status, db.Int8(e.DecidedBy), e.DecidedAt, e.UpdatedAt, e.ID, from); err != nil {
			return err
		}
		return history.Insert(ctx, tx, rec)
	})
	return e, err
}

func (r *Repository) query(ctx context.Context, sql string, args ...any) ([]Expense, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]Expense, 0)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

func scanExpense(row pgx.Row) (Expense, error) {
	var (
		e                  Expense
		amount             pgtype.Numeric
		date               pgtype.Date
		project, decidedBy pgtype.Int8
		decidedAt          pgtype.Timestamptz
	)
	if err := row.Scan(&e.ID, &e.Description, &amount, &e.Category, &date, &e.SubmittedBy, &project, &e.Status,
		&decidedBy, &decidedAt, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return Expense{}, err
	}
	a, err := db.Amount(amount)
	if err != nil {
		return Expense{}, fmt.Errorf("expense %d amount: %w", e.ID, err)
	}
	e.Amount = a
	e.Date = db.FromDate(date)
	e.ProjectID = project.Int64
	e.DecidedBy = decidedBy.Int64
	if decidedAt.Valid {
		t := decidedAt.Time.UTC()
		e.DecidedAt = &t
	}
	return e, nil
}
