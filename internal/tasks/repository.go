package tasks

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/console/internal/history"
	"github.com/odyssey-erp/console/internal/lifecycle"
	"github.com/odyssey-erp/console/internal/platform/db"
	"github.com/odyssey-erp/console/internal/query"
	"github.com/odyssey-erp/console/internal/shared"
)

const selectColumns = `SELECT id, project_id, title, assignee_id, status, due_date, created_at, updated_at FROM tasks`

var listSpec = query.Spec{
	SearchColumns: []string{"title"},
	FilterColumns: map[string]string{query.FilterStatus: "status"},
}

// Repository provides PostgreSQL backed persistence for tasks.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a task.
func (r *Repository) Create(ctx context.Context, t Task) (Task, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO tasks (project_id, title, assignee_id, status, due_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		t.ProjectID, t.Title, db.Int8(t.AssigneeID), t.Status, db.Date(t.DueDate), t.CreatedAt, t.UpdatedAt,
	).Scan(&t.ID)
	return t, err
}

// Get retrieves a task by ID.
func (r *Repository) Get(ctx context.Context, id int64) (Task, error) {
	t, err := scanTask(r.pool.QueryRow(ctx, selectColumns+` WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return Task{}, shared.NotFound(Entity, id)
	}
	return t, err
}

// List returns one page of tasks.
func (r *Repository) List(ctx context.Context, params query.Params) (shared.Page[Task], error) {
	where, args := listSpec.Where(params, nil)
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tasks`+where, args...).Scan(&total); err != nil {
		return shared.Page[Task]{}, err
	}
	limit, args := query.Paginate(params, args)
	items, err := r.query(ctx, selectColumns+where+` ORDER BY id`+limit, args...)
	if err != nil {
		return shared.Page[Task]{}, err
	}
	return shared.NewPage(items, total), nil
}

// ListAll returns every task.
func (r *Repository) ListAll(ctx context.Context) ([]Task, error) {
	return r.query(ctx, selectColumns+` ORDER BY id`)
}

// UpdateStatus moves the task out of from and records the transition atomically.
func (r *Repository) UpdateStatus(ctx context.Context, t Task, from Status, rec lifecycle.Record) (Task, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := db.ExecGuarded(ctx, tx, `UPDATE tasks SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
			t.Status, t.UpdatedAt, t.ID, from); err != nil {
			return err
		}
		return history.Insert(ctx, tx, rec)
	})
	return t, err
}

// ActiveCounts counts unfinished tasks per assignee.
func (r *Repository) ActiveCounts(ctx context.Context) (map[int64]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT assignee_id, COUNT(*) FROM tasks
		WHERE assignee_id IS NOT NULL AND status <> $1 GROUP BY assignee_id`, StatusDone)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[int64]int)
	for rows.Next() {
		var (
			id    int64
			count int
		)
		if err := rows.Scan(&id, &count); err != nil {
			return nil, err
		}
		out[id] = count
	}
	return out, rows.Err()
}

func (r *Repository) query(ctx context.Context, sql string, args ...any) ([]Task, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

func scanTask(row pgx.Row) (Task, error) {
	var (
		t        Task
		assignee pgtype.Int8
		due      pgtype.Date
	)
	if err := row.Scan(&t.ID, &t.ProjectID, &t.Title, &assignee, &t.Status, &due, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return Task{}, err
	}
	t.AssigneeID = assignee.Int64
	t.DueDate = db.FromDate(due)
	return t, nil
}
