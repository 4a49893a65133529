package employees

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/console/internal/calc"
	"github.com/odyssey-erp/console/internal/query"
	"github.com/odyssey-erp/console/internal/shared"
)

type fakeCounter map[int64]int

func (f fakeCounter) ActiveCounts(context.Context) (map[int64]int, error) { return f, nil }

func TestCreateDefaultsAndUniqueness(t *testing.T) {
	svc := NewService(NewMemoryRepository(), nil, calc.DefaultPolicy(), nil)
	ctx := context.Background()

	e, err := svc.Create(ctx, CreateInput{Username: " ada ", JobTitle: "Engineer"}, 0)
	require.NoError(t, err)
	assert.Equal(t, "ada", e.Username)
	assert.True(t, e.IsAvailable)

	_, err = svc.Create(ctx, CreateInput{Username: "ada"}, 0)
	var vErr *shared.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "username", vErr.Field)

	_, err = svc.Create(ctx, CreateInput{Username: "bob", Capacity: -1}, 0)
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestLoadIsDerivedFromActiveTasks(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	svc := NewService(repo, nil, calc.DefaultPolicy(), nil)
	ada, err := svc.Create(ctx, CreateInput{Username: "ada", Department: "R&D", Capacity: 4}, 0)
	require.NoError(t, err)
	bob, err := svc.Create(ctx, CreateInput{Username: "bob", Department: "Ops"}, 0)
	require.NoError(t, err)

	svc = NewService(repo, fakeCounter{ada.ID: 6, bob.ID: 2}, calc.DefaultPolicy(), nil)

	got, err := svc.Get(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, got.CurrentLoad)
	assert.True(t, got.Overloaded)

	wl, err := svc.Workload(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, 150, wl.Percent)
	assert.Equal(t, 4, wl.Capacity)

	wl, err = svc.Workload(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, calc.DefaultCapacity, wl.Capacity)
	assert.Equal(t, 40, wl.Percent)
	assert.False(t, wl.Overloaded)

	page, err := svc.List(ctx, query.Params{Department: "Ops"})
	require.NoError(t, err)
	require.Equal(t, 1, page.Count)
	assert.Equal(t, 40, page.Results[0].CurrentLoad)

	_, err = svc.Workload(ctx, 99)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
