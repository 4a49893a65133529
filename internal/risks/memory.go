package risks

import (
	"context"
	"errors"

	"github.com/odyssey-erp/console/internal/history"
	"github.com/odyssey-erp/console/internal/lifecycle"
	"github.com/odyssey-erp/console/internal/platform/memstore"
	"github.com/odyssey-erp/console/internal/query"
	"github.com/odyssey-erp/console/internal/shared"
)

// MemoryRepository keeps risks in process memory.
type MemoryRepository struct {
	table *memstore.Table[Risk]
	log   *history.Memory
}

// NewMemoryRepository constructs an empty repository writing transitions to log.
func NewMemoryRepository(log *history.Memory) *MemoryRepository {
	return &MemoryRepository{table: memstore.NewTable[Risk](nil), log: log}
}

func (m *MemoryRepository) Create(_ context.Context, r Risk) (Risk, error) {
	return m.table.Insert(func(id int64) (Risk, error) {
		r.ID = id
		return r, nil
	})
}

func (m *MemoryRepository) Get(_ context.Context, id int64) (Risk, error) {
	r, ok := m.table.Get(id)
	if !ok {
		return Risk{}, shared.NotFound(Entity, id)
	}
	return r, nil
}

func (m *MemoryRepository) List(_ context.Context, params query.Params) (shared.Page[Risk], error) {
	return query.Apply(m.table.All(), params), nil
}

func (m *MemoryRepository) ListAll(context.Context) ([]Risk, error) {
	return m.table.All(), nil
}

func (m *MemoryRepository) UpdateStatus(_ context.Context, r Risk, from Status, rec lifecycle.Record) (Risk, error) {
	updated, err := m.table.Update(r.ID, func(cur *Risk) error {
		if cur.Status != from {
			return shared.ErrStaleWrite
		}
		cur.Status = r.Status
		cur.UpdatedAt = r.UpdatedAt
		return nil
	})
	if errors.Is(err, memstore.ErrMissing) {
		return Risk{}, shared.NotFound(Entity, r.ID)
	}
	if err != nil {
		return Risk{}, err
	}
	m.log.Append(rec)
	return updated, nil
}
