package invoices

import (
	"context"
	"errors"
	"sync"

	"github.com/odyssey-erp/console/internal/history"
	"github.com/odyssey-erp/console/internal/lifecycle"
	"github.com/odyssey-erp/console/internal/platform/memstore"
	"github.com/odyssey-erp/console/internal/query"
	"github.com/odyssey-erp/console/internal/shared"
)

// ClientNames resolves client ids to display names.
type ClientNames interface {
	Names(ctx context.Context, ids []int64) (map[int64]string, error)
}

// MemoryRepository keeps invoices in process memory.
type MemoryRepository struct {
	table   *memstore.Table[Invoice]
	log     *history.Memory
	clients ClientNames

	mu       sync.Mutex
	sequence map[string]int
	lineID   int64
}

// NewMemoryRepository constructs an empty repository.
func NewMemoryRepository(log *history.Memory, clients ClientNames) *MemoryRepository {
	return &MemoryRepository{
		table:    memstore.NewTable(Invoice.Clone),
		log:      log,
		clients:  clients,
		sequence: make(map[string]int),
	}
}

func (m *MemoryRepository) Create(ctx context.Context, inv Invoice) (Invoice, error) {
	m.mu.Lock()
	period := Period(inv.IssueDate)
	m.sequence[period]++
	inv.Number = FormatNumber(inv.IssueDate, m.sequence[period])
	m.assignLineIDs(&inv)
	m.mu.Unlock()

	created, err := m.table.Insert(func(id int64) (Invoice, error) {
		inv.ID = id
		return inv, nil
	})
	if err != nil {
		return Invoice{}, err
	}
	return m.one(ctx, created)
}

func (m *MemoryRepository) Get(ctx context.Context, id int64) (Invoice, error) {
	inv, ok := m.table.Get(id)
	if !ok {
		return Invoice{}, shared.NotFound(Entity, id)
	}
	return m.one(ctx, inv)
}

func (m *MemoryRepository) List(ctx context.Context, params query.Params) (shared.Page[Invoice], error) {
	all, err := m.named(ctx, m.table.All())
	if err != nil {
		return shared.Page[Invoice]{}, err
	}
	return query.Apply(all, params), nil
}

func (m *MemoryRepository) ListAll(ctx context.Context) ([]Invoice, error) {
	return m.named(ctx, m.table.All())
}

func (m *MemoryRepository) ListPastDue(ctx context.Context, today shared.Date) ([]Invoice, error) {
	due := m.table.Find(func(inv Invoice) bool {
		return inv.Status == StatusSent && !inv.DueDate.IsZero() && inv.DueDate.Before(today)
	})
	return m.named(ctx, due)
}

func (m *MemoryRepository) SaveLines(ctx context.Context, inv Invoice) (Invoice, error) {
	m.mu.Lock()
	m.assignLineIDs(&inv)
	m.mu.Unlock()
	updated, err := m.table.Update(inv.ID, func(cur *Invoice) error {
		if cur.Status != StatusDraft {
			return shared.ErrStaleWrite
		}
		cur.Lines = inv.Lines
		cur.Subtotal, cur.Tax, cur.Total = inv.Subtotal, inv.Tax, inv.Total
		cur.UpdatedAt = inv.UpdatedAt
		return nil
	})
	if errors.Is(err, memstore.ErrMissing) {
		return Invoice{}, shared.NotFound(Entity, inv.ID)
	}
	if err != nil {
		return Invoice{}, err
	}
	return m.one(ctx, updated)
}

func (m *MemoryRepository) UpdateStatus(ctx context.Context, inv Invoice, from Status, rec lifecycle.Record) (Invoice, error) {
	updated, err := m.table.Update(inv.ID, func(cur *Invoice) error {
		if cur.Status != from {
			return shared.ErrStaleWrite
		}
		cur.Status = inv.Status
		cur.Subtotal, cur.Tax, cur.Total = inv.Subtotal, inv.Tax, inv.Total
		cur.SentAt, cur.PaidAt, cur.CancelledAt = inv.SentAt, inv.PaidAt, inv.CancelledAt
		cur.UpdatedAt = inv.UpdatedAt
		return nil
	})
	if errors.Is(err, memstore.ErrMissing) {
		return Invoice{}, shared.NotFound(Entity, inv.ID)
	}
	if err != nil {
		return Invoice{}, err
	}
	m.log.Append(rec)
	return m.one(ctx, updated)
}

// assignLineIDs numbers new lines; m.mu must be held.
func (m *MemoryRepository) assignLineIDs(inv *Invoice) {
	for i := range inv.Lines {
		inv.Lines[i].Position = i + 1
		if inv.Lines[i].ID == 0 {
			m.lineID++
			inv.Lines[i].ID = m.lineID
		}
	}
	if inv.Lines == nil {
		inv.Lines = make([]LineItem, 0)
	}
}

func (m *MemoryRepository) one(ctx context.Context, inv Invoice) (Invoice, error) {
	out, err := m.named(ctx, []Invoice{inv})
	if err != nil {
		return Invoice{}, err
	}
	return out[0], nil
}

func (m *MemoryRepository) named(ctx context.Context, items []Invoice) ([]Invoice, error) {
	if m.clients == nil || len(items) == 0 {
		return items, nil
	}
	ids := make([]int64, 0, len(items))
	for _, inv := range items {
		ids = append(ids, inv.ClientID)
	}
	names, err := m.clients.Names(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].ClientName = names[items[i].ClientID]
	}
	return items, nil
}
