// Package history persists lifecycle transition records.
package history

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/console/internal/lifecycle"
	"github.com/odyssey-erp/console/internal/platform/db"
)

// Reader lists the transitions of one record, oldest first.
type Reader interface {
	List(ctx context.Context, entity string, entityID int64) ([]lifecycle.Record, error)
}

// Insert writes a record using any querier, typically the transaction that
// also updated the entity status.
func Insert(ctx context.Context, q db.Querier, rec lifecycle.Record) error {
	if rec.Entity == "" || rec.EntityID == 0 || rec.Action == "" {
		return errors.New("history: record requires entity/entity_id/action")
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	_, err := q.Exec(ctx, `INSERT INTO transition_log (id, entity, entity_id, action, from_status, to_status, actor_id, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ID, rec.Entity, rec.EntityID, rec.Action, rec.From, rec.To, rec.ActorID, rec.At)
	return err
}

// Postgres reads transition_log.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres constructs the reader.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// List returns the transitions of one record.
func (p *Postgres) List(ctx context.Context, entity string, entityID int64) ([]lifecycle.Record, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, entity, entity_id, action, from_status, to_status, actor_id, occurred_at
		FROM transition_log WHERE entity = $1 AND entity_id = $2 ORDER BY occurred_at, id`, entity, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]lifecycle.Record, 0)
	for rows.Next() {
		var rec lifecycle.Record
		if err := rows.Scan(&rec.ID, &rec.Entity, &rec.EntityID, &rec.Action, &rec.From, &rec.To, &rec.ActorID, &rec.At); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Memory keeps records in process memory.
type Memory struct {
	mu      sync.Mutex
	records []lifecycle.Record
}

// NewMemory constructs an empty log.
func NewMemory() *Memory {
	return &Memory{}
}

// Append stores a record.
func (m *Memory) Append(rec lifecycle.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
}

// List returns the transitions of one record.
func (m *Memory) List(_ context.Context, entity string, entityID int64) ([]lifecycle.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]lifecycle.Record, 0)
	for _, rec := range m.records {
		if rec.Entity == entity && rec.EntityID == entityID {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out, nil
}
