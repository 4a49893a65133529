package assets

import (
	"context"
	"errors"

	"github.com/odyssey-erp/console/internal/history"
	"github.com/odyssey-erp/console/internal/lifecycle"
	"github.com/odyssey-erp/console/internal/platform/memstore"
	"github.com/odyssey-erp/console/internal/query"
	"github.com/odyssey-erp/console/internal/shared"
)

// MemoryRepository keeps assets in process memory.
type MemoryRepository struct {
	table *memstore.Table[Asset]
	log   *history.Memory
}

// NewMemoryRepository constructs an empty repository.
func NewMemoryRepository(log *history.Memory) *MemoryRepository {
	return &MemoryRepository{table: memstore.NewTable[Asset](nil), log: log}
}

func (m *MemoryRepository) Create(_ context.Context, a Asset) (Asset, error) {
	if a.SerialNumber != "" {
		dup := m.table.Find(func(cur Asset) bool { return cur.SerialNumber == a.SerialNumber })
		if len(dup) > 0 {
			return Asset{}, shared.NewValidationError("serial_number", "is already registered")
		}
	}
	return m.table.Insert(func(id int64) (Asset, error) {
		a.ID = id
		return a, nil
	})
}

func (m *MemoryRepository) Get(_ context.Context, id int64) (Asset, error) {
	a, ok := m.table.Get(id)
	if !ok {
		return Asset{}, shared.NotFound(Entity, id)
	}
	return a, nil
}

func (m *MemoryRepository) List(_ context.Context, params query.Params) (shared.Page[Asset], error) {
	return query.Apply(m.table.All(), params), nil
}

func (m *MemoryRepository) UpdateStatus(_ context.Context, a Asset, from Status, rec lifecycle.Record) (Asset, error) {
	updated, err := m.table.Update(a.ID, func(cur *Asset) error {
		if cur.Status != from {
			return shared.ErrStaleWrite
		}
		cur.Status = a.Status
		cur.AssignedTo = a.AssignedTo
		cur.UpdatedAt = a.UpdatedAt
		return nil
	})
	if errors.Is(err, memstore.ErrMissing) {
		return Asset{}, shared.NotFound(Entity, a.ID)
	}
	if err != nil {
		return Asset{}, err
	}
	m.log.Append(rec)
	return updated, nil
}
