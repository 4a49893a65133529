// Package memstore is the in-memory backing for repositories when the console
// runs without PostgreSQL (DATA_BACKEND=memory) and in service tests.
package memstore

import (
	"errors"
	"sync"
)

// ErrMissing is returned when a row id is unknown.
var ErrMissing = errors.New("memstore: row not found")

// Table stores rows by id in insertion order.
type Table[T any] struct {
	mu    sync.RWMutex
	rows  map[int64]T
	order []int64
	next  int64
	clone func(T) T
}

// NewTable builds a table. clone, when set, copies rows on the way in and out
// so callers never share slices with the store.
func NewTable[T any](clone func(T) T) *Table[T] {
	if clone == nil {
		clone = func(v T) T { return v }
	}
	return &Table[T]{rows: make(map[int64]T), clone: clone}
}

// Insert assigns the next id and stores the row built for it.
func (t *Table[T]) Insert(build func(id int64) (T, error)) (T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	row, err := build(t.next)
	if err != nil {
		t.next--
		var zero T
		return zero, err
	}
	t.rows[t.next] = t.clone(row)
	t.order = append(t.order, t.next)
	return t.clone(row), nil
}

// Get returns a copy of the row.
func (t *Table[T]) Get(id int64) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	row, ok := t.rows[id]
	if !ok {
		return row, false
	}
	return t.clone(row), true
}

// Update mutates a copy of the row and stores it when fn succeeds.
func (t *Table[T]) Update(id int64, fn func(*T) error) (T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	row, ok := t.rows[id]
	if !ok {
		return row, ErrMissing
	}
	working := t.clone(row)
	if err := fn(&working); err != nil {
		return row, err
	}
	t.rows[id] = t.clone(working)
	return working, nil
}

// Delete removes a row.
func (t *Table[T]) Delete(id int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[id]; !ok {
		return false
	}
	delete(t.rows, id)
	for i, v := range t.order {
		if v == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return true
}

// All returns copies of every row in insertion order.
func (t *Table[T]) All() []T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]T, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.clone(t.rows[id]))
	}
	return out
}

// Find returns the rows matching keep, in insertion order.
func (t *Table[T]) Find(keep func(T) bool) []T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]T, 0)
	for _, id := range t.order {
		if row := t.rows[id]; keep(row) {
			out = append(out, t.clone(row))
		}
	}
	return out
}

// Len returns the number of rows.
func (t *Table[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}
