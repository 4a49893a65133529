package employees

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/console/internal/platform/db"
	"github.com/odyssey-erp/console/internal/query"
	"github.com/odyssey-erp/console/internal/shared"
)

const selectColumns = `SELECT id, username, job_title, department, email, location, is_available, capacity, created_at FROM employees`

var listSpec = query.Spec{
	SearchColumns: []string{"username", "job_title"},
	FilterColumns: map[string]string{query.FilterDepartment: "department"},
}

// Repository provides PostgreSQL backed persistence for employees.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts an employee; a taken username is a validation failure.
func (r *Repository) Create(ctx context.Context, e Employee) (Employee, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO employees (username, job_title, department, email, location, is_available, capacity, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		e.Username, e.JobTitle, e.Department, e.Email, e.Location, e.IsAvailable, e.Capacity, e.CreatedAt,
	).Scan(&e.ID)
	if db.IsUniqueViolation(err) {
		return Employee{}, shared.NewValidationError("username", "is already taken")
	}
	return e, err
}

// Get retrieves an employee by ID.
func (r *Repository) Get(ctx context.Context, id int64) (Employee, error) {
	e, err := scanEmployee(r.pool.QueryRow(ctx, selectColumns+` WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return Employee{}, shared.NotFound(Entity, id)
	}
	return e, err
}

// List returns one page of employees.
func (r *Repository) List(ctx context.Context, params query.Params) (shared.Page[Employee], error) {
	where, args := listSpec.Where(params, nil)
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM employees`+where, args...).Scan(&total); err != nil {
		return shared.Page[Employee]{}, err
	}
	limit, args := query.Paginate(params, args)
	items, err := r.query(ctx, selectColumns+where+` ORDER BY username, id`+limit, args...)
	if err != nil {
		return shared.Page[Employee]{}, err
	}
	return shared.NewPage(items, total), nil
}

// ListAll returns every employee.
func (r *Repository) ListAll(ctx context.Context) ([]Employee, error) {
	return r.query(ctx, selectColumns+` ORDER BY id`)
}

func (r *Repository) query(ctx context.Context, sql string, args ...any) ([]Employee, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]Employee, 0)
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

func scanEmployee(row pgx.Row) (Employee, error) {
	var e Employee
	err := row.Scan(&e.ID, &e.Username, &e.JobTitle, &e.Department, &e.Email, &e.Location, &e.IsAvailable, &e.Capacity, &e.CreatedAt)
	return e, err
}
