package employees

import (
	"context"

	"github.com/odyssey-erp/console/internal/platform/memstore"
	"github.com/odyssey-erp/console/internal/query"
	"github.com/odyssey-erp/console/internal/shared"
)

// MemoryRepository keeps employees in process memory.
type MemoryRepository struct {
	table *memstore.Table[Employee]
}

// NewMemoryRepository constructs an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{table: memstore.NewTable[Employee](nil)}
}

func (m *MemoryRepository) Create(_ context.Context, e Employee) (Employee, error) {
	taken := m.table.Find(func(cur Employee) bool { return cur.Username == e.Username })
	if len(taken) > 0 {
		return Employee{}, shared.NewValidationError("username", "is already taken")
	}
	return m.table.Insert(func(id int64) (Employee, error) {
		e.ID = id
		return e, nil
	})
}

func (m *MemoryRepository) Get(_ context.Context, id int64) (Employee, error) {
	e, ok := m.table.Get(id)
	if !ok {
		return Employee{}, shared.NotFound(Entity, id)
	}
	return e, nil
}

func (m *MemoryRepository) List(_ context.Context, params query.Params) (shared.Page[Employee], error) {
	return query.Apply(m.table.All(), params), nil
}

func (m *MemoryRepository) ListAll(context.Context) ([]Employee, error) {
	return m.table.All(), nil
}
