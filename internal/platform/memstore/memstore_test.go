package memstore

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	ID   int64
	Tags []string
}

func cloneRow(r row) row {
	r.Tags = append([]string(nil), r.Tags...)
	return r
}

func TestTableInsertGetUpdate(t *testing.T) {
	tbl := NewTable(cloneRow)
	r, err := tbl.Insert(func(id int64) (row, error) { return row{ID: id, Tags: []string{"a"}}, nil })
	require.NoError(t, err)
	assert.Equal(t, int64(1), r.ID)

	r.Tags[0] = "mutated"
	got, ok := tbl.Get(1)
	require.True(t, ok)
	assert.Equal(t, "a", got.Tags[0])

	updated, err := tbl.Update(1, func(r *row) error {
		r.Tags = append(r.Tags, "b")
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, updated.Tags, 2)

	boom := errors.New("boom")
	_, err = tbl.Update(1, func(r *row) error {
		r.Tags = nil
		return boom
	})
	assert.ErrorIs(t, err, boom)
	got, _ = tbl.Get(1)
	assert.Len(t, got.Tags, 2)

	_, err = tbl.Update(99, func(*row) error { return nil })
	assert.ErrorIs(t, err, ErrMissing)
}

func TestTableInsertFailureDoesNotConsumeID(t *testing.T) {
	tbl := NewTable[row](nil)
	_, err := tbl.Insert(func(int64) (row, error) { return row{}, errors.New("invalid") })
	require.Error(t, err)
	r, err := tbl.Insert(func(id int64) (row, error) { return row{ID: id}, nil })
	require.NoError(t, err)
	assert.Equal(t, int64(1), r.ID)
	assert.Equal(t, 1, tbl.Len())
}

func TestTableOrderFindDelete(t *testing.T) {
	tbl := NewTable[row](nil)
	for i := 0; i < 4; i++ {
		_, _ = tbl.Insert(func(id int64) (row, error) { return row{ID: id}, nil })
	}
	assert.True(t, tbl.Delete(2))
	assert.False(t, tbl.Delete(2))
	all := tbl.All()
	require.Len(t, all, 3)
	assert.Equal(t, []int64{1, 3, 4}, []int64{all[0].ID, all[1].ID, all[2].ID})

	odd := tbl.Find(func(r row) bool { return r.ID%2 == 1 })
	assert.Len(t, odd, 2)
}
