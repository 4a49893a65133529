package projects

import (
	"context"
	"errors"

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

// MemoryRepository keeps projects in process memory. Client names are
// resolved on read, mirroring the SQL join.
type MemoryRepository struct {
	table   *memstore.Table[Project]
	log     *history.Memory
	clients ClientNames
}

// NewMemoryRepository constructs an empty repository.
func NewMemoryRepository(log *history.Memory, clients ClientNames) *MemoryRepository {
	return &MemoryRepository{table: memstore.NewTable[Project](nil), log: log, clients: clients}
}

func (m *MemoryRepository) Create(ctx context.Context, p Project) (Project, error) {
	created, err := m.table.Insert(func(id int64) (Project, error) {
		p.ID = id
		return p, nil
	})
	if err != nil {
		return Project{}, err
	}
	out, err := m.named(ctx, []Project{created})
	if err != nil {
		return Project{}, err
	}
	return out[0], nil
}

func (m *MemoryRepository) Get(ctx context.Context, id int64) (Project, error) {
	p, ok := m.table.Get(id)
	if !ok {
		return Project{}, shared.NotFound(Entity, id)
	}
	out, err := m.named(ctx, []Project{p})
	if err != nil {
		return Project{}, err
	}
	return out[0], nil
}

func (m *MemoryRepository) List(ctx context.Context, params query.Params) (shared.Page[Project], error) {
	all, err := m.named(ctx, m.table.All())
	if err != nil {
		return shared.Page[Project]{}, err
	}
	return query.Apply(all, params), nil
}

func (m *MemoryRepository) ListAll(ctx context.Context) ([]Project, error) {
	return m.named(ctx, m.table.All())
}

func (m *MemoryRepository) UpdateStatus(ctx context.Context, p Project, from Status, rec lifecycle.Record) (Project, error) {
	updated, err := m.table.Update(p.ID, func(cur *Project) error {
		if cur.Status != from {
			return shared.ErrStaleWrite
		}
		cur.Status = p.Status
		cur.UpdatedAt = p.UpdatedAt
		return nil
	})
	if errors.Is(err, memstore.ErrMissing) {
		return Project{}, shared.NotFound(Entity, p.ID)
	}
	if err != nil {
		return Project{}, err
	}
	m.log.Append(rec)
	updated.ClientName = p.ClientName
	return updated, nil
}

func (m *MemoryRepository) named(ctx context.Context, items []Project) ([]Project, error) {
	if m.clients == nil || len(items) == 0 {
		return items, nil
	}
	ids := make([]int64, 0, len(items))
	for _, p := range items {
		ids = append(ids, p.ClientID)
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
