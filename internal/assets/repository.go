package assets

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

const selectColumns = `SELECT id, name, asset_type, serial_number, status, assigned_to, purchase_date, value,
	created_at, updated_at FROM assets`

var listSpec = query.Spec{
	SearchColumns: []string{"name", "serial_number"},
	FilterColumns: map[string]string{
		query.FilterStatus:   "status",
		query.FilterCategory: "asset_type",
	},
}

// Repository provides PostgreSQL backed persistence for assets.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts an asset; a duplicate serial number is a validation failure.
func (r *Repository) Create(ctx context.Context, a Asset) (Asset, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO assets (name, asset_type, serial_number, status, assigned_to, purchase_date, value, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
		a.Name, a.AssetType, db.Text(a.SerialNumber), a.Status, db.Int8(a.AssignedTo), db.Date(a.PurchaseDate),
		db.Numeric(a.Value), a.CreatedAt, a.UpdatedAt,
	).Scan(&a.ID)
	if db.IsUniqueViolation(err) {
		return Asset{}, shared.NewValidationError("serial_number", "is already registered")
	}
	return a, err
}

// Get retrieves an asset by ID.
func (r *Repository) Get(ctx context.Context, id int64) (Asset, error) {
	a, err := scanAsset(r.pool.QueryRow(ctx, selectColumns+` WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return Asset{}, shared.NotFound(Entity, id)
	}
	return a, err
}

// List returns one page of assets.
func (r *Repository) List(ctx context.Context, params query.Params) (shared.Page[Asset], error) {
	where, args := listSpec.Where(params, nil)
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM assets`+where, args...).Scan(&total); err != nil {
		return shared.Page[Asset]{}, err
	}
	limit, args := query.Paginate(params, args)
	rows, err := r.pool.Query(ctx, selectColumns+where+` ORDER BY id`+limit, args...)
	if err != nil {
		return shared.Page[Asset]{}, err
	}
	defer rows.Close()
	items := make([]Asset, 0)
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return shared.Page[Asset]{}, err
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return shared.Page[Asset]{}, err
	}
	return shared.NewPage(items, total), nil
}

// UpdateStatus moves the asset out of from and records the transition atomically.
func (r *Repository) UpdateStatus(ctx context.Context, a Asset, from Status, rec lifecycle.Record) (Asset, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := db.ExecGuarded(ctx, tx, `UPDATE assets SET status = $1, assigned_to = $2, updated_at = $3 WHERE id = $4 AND status = $5`,
			a.Status, db.Int8(a.AssignedTo), a.UpdatedAt, a.ID, from); err != nil {
			return err
		}
		return history.Insert(ctx, tx, rec)
	})
	return a, err
}

func scanAsset(row pgx.Row) (Asset, error) {
	var (
		a        Asset
		serial   pgtype.Text
		assigned pgtype.Int8
		bought   pgtype.Date
		value    pgtype.Numeric
	)
	if err := row.Scan(&a.ID, &a.Name, &a.AssetType, &serial, &a.Status, &assigned, &bought, &value,
		&a.CreatedAt, &a.UpdatedAt); err != nil {
		return Asset{}, err
	}
	a.SerialNumber = serial.String
	a.AssignedTo = assigned.Int64
	a.PurchaseDate = db.FromDate(bought)
	v, err := db.Amount(value)
	if err != nil {
		return Asset{}, fmt.Errorf("asset %d value: %w", a.ID, err)
	}
	a.Value = v
	return a, nil
}
