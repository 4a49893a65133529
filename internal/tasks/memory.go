package tasks

import (
	"context"
	"errors"

	"github.com/odyssey-erp/console/internal/history"
	"github.com/odyssey-erp/console/internal/lifecycle"
	"github.com/odyssey-erp/console/internal/platform/memstore"
	"github.com/odyssey-erp/console/internal/query"
	"github.com/odyssey-erp/console/internal/shared"
)

// MemoryRepository keeps tasks in process memory.
type MemoryRepository struct {
	table *memstore.Table[Task]
	log   *history.Memory
}

// NewMemoryRepository constructs an empty repository writing transitions to log.
func NewMemoryRepository(log *history.Memory) *MemoryRepository {
	return &MemoryRepository{table: memstore.NewTable[Task](nil), log: log}
}

func (m *MemoryRepository) Create(_ context.Context, t Task) (Task, error) {
	return m.table.Insert(func(id int64) (Task, error) {
		t.ID = id
		return t, nil
	})
}

func (m *MemoryRepository) Get(_ context.Context, id int64) (Task, error) {
	t, ok := m.table.Get(id)
	if !ok {
		return Task{}, shared.NotFound(Entity, id)
	}
	return t, nil
}

func (m *MemoryRepository) List(_ context.Context, params query.Params) (shared.Page[Task], error) {
	return query.Apply(m.table.All(), params), nil
}

func (m *MemoryRepository) ListAll(context.Context) ([]Task, error) {
	return m.table.All(), nil
}

func (m *MemoryRepository) UpdateStatus(_ context.Context, t Task, from Status, rec lifecycle.Record) (Task, error) {
	updated, err := m.table.Update(t.ID, func(cur *Task) error {
		if cur.Status != from {
			return shared.ErrStaleWrite
		}
		cur.Status = t.Status
		cur.UpdatedAt = t.UpdatedAt
		return nil
	})
	if errors.Is(err, memstore.ErrMissing) {
		return Task{}, shared.NotFound(Entity, t.ID)
	}
	if err != nil {
		return Task{}, err
	}
	m.log.Append(rec)
	return updated, nil
}

func (m *MemoryRepository) ActiveCounts(context.Context) (map[int64]int, error) {
	out := make(map[int64]int)
	for _, t := range m.table.All() {
		if t.AssigneeID > 0 && t.Active() {
			out[t.AssigneeID]++
		}
	}
	return out, nil
}
