package clients

import (
	"context"

	"github.com/odyssey-erp/console/internal/platform/memstore"
	"github.com/odyssey-erp/console/internal/query"
	"github.com/odyssey-erp/console/internal/shared"
)

// MemoryRepository keeps clients in process memory.
type MemoryRepository struct {
	table *memstore.Table[Client]
}

// NewMemoryRepository constructs an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{table: memstore.NewTable[Client](nil)}
}

func (m *MemoryRepository) Create(_ context.Context, c Client) (Client, error) {
	return m.table.Insert(func(id int64) (Client, error) {
		c.ID = id
		return c, nil
	})
}

func (m *MemoryRepository) Get(_ context.Context, id int64) (Client, error) {
	c, ok := m.table.Get(id)
	if !ok {
		return Client{}, shared.NotFound(Entity, id)
	}
	return c, nil
}

func (m *MemoryRepository) List(_ context.Context, params query.Params) (shared.Page[Client], error) {
	return query.Apply(m.table.All(), params), nil
}

func (m *MemoryRepository) Names(_ context.Context, ids []int64) (map[int64]string, error) {
	out := make(map[int64]string, len(ids))
	for _, id := range ids {
		if c, ok := m.table.Get(id); ok {
			out[id] = c.Name
		}
	}
	return out, nil
}
