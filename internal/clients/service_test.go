package clients

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/console/internal/events"
	"github.com/odyssey-erp/console/internal/query"
	"github.com/odyssey-erp/console/internal/shared"
)

func TestCreateValidatesAndPublishes(t *testing.T) {
	var published []events.Event
	svc := NewService(NewMemoryRepository(), events.PublisherFunc(func(_ context.Context, evt events.Event) error {
		published = append(published, evt)
		return nil
	}))
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{Name: "   "}, 1)
	var vErr *shared.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "name", vErr.Field)

	_, err = svc.Create(ctx, CreateInput{Name: "Acme", Email: "not-an-email"}, 1)
	assert.ErrorIs(t, err, shared.ErrValidation)

	c, err := svc.Create(ctx, CreateInput{Name: " Acme Corp ", Email: "billing@acme.test"}, 1)
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", c.Name)
	require.Len(t, published, 1)
	assert.Equal(t, "client.created", published[0].Type)
}

func TestListSearchAndNames(t *testing.T) {
	svc := NewService(NewMemoryRepository(), nil)
	ctx := context.Background()
	acme, err := svc.Create(ctx, CreateInput{Name: "Acme"}, 0)
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateInput{Name: "Globex", Email: "ops@globex.test"}, 0)
	require.NoError(t, err)

	page, err := svc.List(ctx, query.Params{Search: "GLOBEX"})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Count)

	names, err := svc.Names(ctx, []int64{acme.ID, 99})
	require.NoError(t, err)
	assert.Equal(t, map[int64]string{acme.ID: "Acme"}, names)

	_, err = svc.Get(ctx, 99)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.ErrorIs(t, svc.Exists(ctx, 99), shared.ErrNotFound)
}
