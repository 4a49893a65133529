package invoices

import (
	"context"
	"fmt"
	"time"

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
	fromClause    = ` FROM invoices i JOIN clients c ON c.id = i.client_id`
	selectColumns = `SELECT i.id, i.invoice_number, i.client_id, c.name, i.project_id, i.issue_date, i.due_date, i.status,
		i.tax_rate, i.subtotal, i.tax, i.total, i.sent_at, i.paid_at, i.cancelled_at, i.created_at, i.updated_at` + fromClause
)

var listSpec = query.Spec{
	SearchColumns: []string{"i.invoice_number", "c.name"},
	FilterColumns: map[string]string{query.FilterStatus: "i.status"},
}

// Repository provides PostgreSQL backed persistence for invoices.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create numbers the invoice from the monthly sequence and inserts it with its lines.
func (r *Repository) Create(ctx context.Context, inv Invoice) (Invoice, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var seq int
		if err := tx.QueryRow(ctx, `INSERT INTO invoice_sequences (period, last) VALUES ($1, 1)
			ON CONFLICT (period) DO UPDATE SET last = invoice_sequences.last + 1 RETURNING last`,
			Period(inv.IssueDate)).Scan(&seq); err != nil {
			return fmt.Errorf("next invoice number: %w", err)
		}
		inv.Number = FormatNumber(inv.IssueDate, seq)
		if err := tx.QueryRow(ctx, `INSERT INTO invoices (invoice_number, client_id, project_id, issue_date, due_date, status,
				tax_rate, subtotal, tax, total, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id`,
			inv.Number, inv.ClientID, db.Int8(inv.ProjectID), db.Date(inv.IssueDate), db.Date(inv.DueDate), inv.Status,
			db.RateParam(inv.TaxRate), db.Numeric(inv.Subtotal), db.Numeric(inv.Tax), db.Numeric(inv.Total),
			inv.CreatedAt, inv.UpdatedAt,
		).Scan(&inv.ID); err != nil {
			return err
		}
		if err := insertLines(ctx, tx, &inv); err != nil {
			return err
		}
		return tx.QueryRow(ctx, `SELECT name FROM clients WHERE id = $1`, inv.ClientID).Scan(&inv.ClientName)
	})
	if err != nil {
		return Invoice{}, err
	}
	return inv, nil
}

// Get retrieves an invoice with its lines.
func (r *Repository) Get(ctx context.Context, id int64) (Invoice, error) {
	inv, err := scanInvoice(r.pool.QueryRow(ctx, selectColumns+` WHERE i.id = $1`, id))
	if db.IsNoRows(err) {
		return Invoice{}, shared.NotFound(Entity, id)
	}
	if err != nil {
		return Invoice{}, err
	}
	items := []Invoice{inv}
	if err := r.attachLines(ctx, items); err != nil {
		return Invoice{}, err
	}
	return items[0], nil
}

// List returns one page of invoices.
func (r *Repository) List(ctx context.Context, params query.Params) (shared.Page[Invoice], error) {
	where, args := listSpec.Where(params, nil)
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*)`+fromClause+where, args...).Scan(&total); err != nil {
		return shared.Page[Invoice]{}, err
	}
	limit, args := query.Paginate(params, args)
	items, err := r.query(ctx, selectColumns+where+` ORDER BY i.id`+limit, args...)
	if err != nil {
		return shared.Page[Invoice]{}, err
	}
	return shared.NewPage(items, total), nil
}

// ListAll returns every invoice.
func (r *Repository) ListAll(ctx context.Context) ([]Invoice, error) {
	return r.query(ctx, selectColumns+` ORDER BY i.id`)
}

// ListPastDue returns sent invoices due before today.
func (r *Repository) ListPastDue(ctx context.Context, today shared.Date) ([]Invoice, error) {
	return r.query(ctx, selectColumns+` WHERE i.status = $1 AND i.due_date < $2 ORDER BY i.id`, StatusSent, db.Date(today))
}

// SaveLines rewrites the lines and totals of a draft invoice.
func (r *Repository) SaveLines(ctx context.Context, inv Invoice) (Invoice, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := db.ExecGuarded(ctx, tx, `UPDATE invoices SET subtotal = $1, tax = $2, total = $3, updated_at = $4
			WHERE id = $5 AND status = $6`,
			db.Numeric(inv.Subtotal), db.Numeric(inv.Tax), db.Numeric(inv.Total), inv.UpdatedAt, inv.ID, StatusDraft); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM invoice_lines WHERE invoice_id = $1`, inv.ID); err != nil {
			return err
		}
		return insertLines(ctx, tx, &inv)
	})
	if err != nil {
		return Invoice{}, err
	}
	return inv, nil
}

// UpdateStatus moves the invoice out of from and records the transition atomically.
func (r *Repository) UpdateStatus(ctx context.Context, inv Invoice, from Status, rec lifecycle.Record) (Invoice, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := db.ExecGuarded(ctx, tx, `UPDATE invoices SET status = $1, subtotal = $2, tax = $3, total = $4,
				sent_at = $5, paid_at = $6, cancelled_at = $7, updated_at = $8
			WHERE id = $9 AND status = $10`,
			inv.Status, db.Numeric(inv.Subtotal), db.Numeric(inv.Tax), db.Numeric(inv.Total),
			inv.SentAt, inv.PaidAt, inv.CancelledAt, inv.UpdatedAt, inv.ID, from); err != nil {
			return err
		}
		return history.Insert(ctx, tx, rec)
	})
	if err != nil {
		return Invoice{}, err
	}
	return inv, nil
}

func insertLines(ctx context.Context, tx pgx.Tx, inv *Invoice) error {
	for i := range inv.Lines {
		l := &inv.Lines[i]
		l.Position = i + 1
		// kept lines retain their id across a rewrite
		if err := tx.QueryRow(ctx, `INSERT INTO invoice_lines (id, invoice_id, position, description, quantity, unit_price, amount)
			VALUES (COALESCE($1, nextval(pg_get_serial_sequence('invoice_lines', 'id'))), $2, $3, $4, $5, $6, $7) RETURNING id`,
			db.Int8(l.ID), inv.ID, l.Position, l.Description, l.Quantity, db.Numeric(l.UnitPrice), db.Numeric(l.Amount),
		).Scan(&l.ID); err != nil {
			return fmt.Errorf("insert invoice line %d: %w", l.Position, err)
		}
	}
	return nil
}

func (r *Repository) query(ctx context.Context, sql string, args ...any) ([]Invoice, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	items := make([]Invoice, 0)
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		items = append(items, inv)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachLines(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *Repository) attachLines(ctx context.Context, items []Invoice) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]int64, len(items))
	index := make(map[int64]int, len(items))
	for i, inv := range items {
		ids[i] = inv.ID
		index[inv.ID] = i
		items[i].Lines = make([]LineItem, 0)
	}
	rows, err := r.pool.Query(ctx, `SELECT invoice_id, id, position, description, quantity, unit_price, amount
		FROM invoice_lines WHERE invoice_id = ANY($1) ORDER BY invoice_id, position`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			invoiceID     int64
			l             LineItem
			price, amount pgtype.Numeric
		)
		if err := rows.Scan(&invoiceID, &l.ID, &l.Position, &l.Description, &l.Quantity, &price, &amount); err != nil {
			return err
		}
		if l.UnitPrice, err = db.Amount(price); err != nil {
			return fmt.Errorf("invoice line %d unit_price: %w", l.ID, err)
		}
		if l.Amount, err = db.Amount(amount); err != nil {
			return fmt.Errorf("invoice line %d amount: %w", l.ID, err)
		}
		i := index[invoiceID]
		items[i].Lines = append(items[i].Lines, l)
	}
	return rows.Err()
}

func scanInvoice(row pgx.Row) (Invoice, error) {
	var (
		inv                         Invoice
		project                     pgtype.Int8
		issue, due                  pgtype.Date
		rate, subtotal, tax, total  pgtype.Numeric
		sentAt, paidAt, cancelledAt pgtype.Timestamptz
	)
	if err := row.Scan(&inv.ID, &inv.Number, &inv.ClientID, &inv.ClientName, &project, &issue, &due, &inv.Status,
		&rate, &subtotal, &tax, &total, &sentAt, &paidAt, &cancelledAt, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
		return Invoice{}, err
	}
	inv.ProjectID = project.Int64
	inv.IssueDate = db.FromDate(issue)
	inv.DueDate = db.FromDate(due)
	inv.SentAt = timePtr(sentAt)
	inv.PaidAt = timePtr(paidAt)
	inv.CancelledAt = timePtr(cancelledAt)
	var err error
	if inv.TaxRate, err = db.Rate(rate); err != nil {
		return Invoice{}, err
	}
	if inv.Subtotal, err = db.Amount(subtotal); err != nil {
		return Invoice{}, err
	}
	if inv.Tax, err = db.Amount(tax); err != nil {
		return Invoice{}, err
	}
	if inv.Total, err = db.Amount(total); err != nil {
		return Invoice{}, err
	}
	return inv, nil
}

func timePtr(ts pgtype.Timestamptz) *time.Time {
	if !ts.Valid {
		return nil
	}
	t := ts.Time.UTC()
	return &t
}
