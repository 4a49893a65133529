package expenses

import (
	"context"
	"errors"

	"github.com/odyssey-erp/console/internal/history"
	"github.com/odyssey-erp/console/internal/lifecycle"
	"github.com/odyssey-erp/console/internal/platform/memstore"
	"github.com/odyssey-erp/console/internal/query"
	"github.com/odyssey-erp/console/internal/shared"
)

// MemoryRepository keeps expenses in process memory.
type MemoryRepository struct {
	table *memstore.Table[Expense]
	log   *history.Memory
}

// NewMemoryRepository constructs an empty repository.
func NewMemoryRepository(log *history.Memory) *MemoryRepository {
	return &MemoryRepository{table: memstore.NewTable[Expense](nil), log: log}
}

func (m *MemoryRepository) Create(_ context.Context, e Expense) (Expense, error) {
	return m.table.Insert(func(id int64) (Expense, error) {
		e.ID = id
		return e, nil
	})
}

func (m *MemoryRepository) Get(_ context.Context, id int64) (Expense, error) {
	e, ok := m.table.Get(id)
	if !ok {
		return Expense{}, shared.NotFound(Entity, id)
	}
	return e, nil
}

func (m *MemoryRepository) List(_ context.Context, params query.Params) (shared.Page[Expense], error) {
	return query.Apply(m.table.All(), params), nil
}

func (m *MemoryRepository) ListAll(context.Context) ([]Expense, error) {
	return m.table.All(), nil
}

func (m *MemoryRepository) UpdateStatus(_ context.Context, e Expense, from Status, rec lifecycle.Record) (Expense, error) {
	updated, err := m.table.Update(e.ID, func(cur *Expense) error {
		if cur.Status != from {
			return shared.ErrStaleWrite
		}
		cur.Status = e.Status
		cur.DecidedBy = e.DecidedBy
		cur.DecidedAt = e.DecidedAt
		cur.UpdatedAt = e.UpdatedAt
		return nil
	})
	if errors.Is(err, memstore.ErrMissing) {
		return Expense{}, shared.NotFound(Entity, e.ID)
	}
	if err != nil {
		return Expense{}, err
	}
	m.log.Append(rec)
	return updated, nil
}
