package projects

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/console/internal/clients"
	"github.com/odyssey-erp/console/internal/history"
	"github.com/odyssey-erp/console/internal/lifecycle"
	"github.com/odyssey-erp/console/internal/money"
	"github.com/odyssey-erp/console/internal/query"
	"github.com/odyssey-erp/console/internal/shared"
)

func newTestService(t *testing.T) (*Service, int64) {
	t.Helper()
	clientSvc := clients.NewService(clients.NewMemoryRepository(), nil)
	acme, err := clientSvc.Create(context.Background(), clients.CreateInput{Name: "Acme"}, 0)
	require.NoError(t, err)
	log := history.NewMemory()
	svc := NewService(NewMemoryRepository(log, clientSvc), log, clientSvc, nil, nil)
	svc.now = func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) }
	return svc, acme.ID
}

func validInput(clientID int64) CreateInput {
	return CreateInput{
		Name:       "Portal",
		ClientID:   clientID,
		StartDate:  shared.NewDate(2024, 1, 1),
		Deadline:   shared.NewDate(2024, 6, 30),
		Revenue:    money.MustParse("1000"),
		BudgetCost: money.MustParse("600"),
	}
}

func TestCreateValidation(t *testing.T) {
	svc, clientID := newTestService(t)
	ctx := context.Background()

	in := validInput(clientID)
	in.Deadline = shared.NewDate(2023, 12, 31)
	_, err := svc.Create(ctx, in, 0)
	var vErr *shared.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "deadline", vErr.Field)

	in = validInput(clientID)
	in.BudgetCost = money.MustParse("-1")
	_, err = svc.Create(ctx, in, 0)
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(ctx, validInput(clientID+10), 0)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	in = validInput(clientID)
	in.Deadline = shared.Date{}
	p, err := svc.Create(ctx, in, 0)
	require.NoError(t, err)
	assert.Equal(t, StatusPlanning, p.Status)
	assert.Equal(t, "Acme", p.ClientName)
}

func TestLifecycle(t *testing.T) {
	svc, clientID := newTestService(t)
	ctx := context.Background()
	p, err := svc.Create(ctx, validInput(clientID), 0)
	require.NoError(t, err)

	_, err = svc.Transition(ctx, p.ID, ActionComplete, 1)
	var tErr *lifecycle.InvalidTransitionError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, "planning", tErr.From)

	for _, action := range []lifecycle.Action{ActionActivate, ActionHold, ActionResume, ActionComplete} {
		p, err = svc.Transition(ctx, p.ID, action, 1)
		require.NoError(t, err, action)
	}
	assert.Equal(t, StatusCompleted, p.Status)

	_, err = svc.Transition(ctx, p.ID, ActionResume, 1)
	assert.ErrorIs(t, err, lifecycle.ErrInvalidTransition)

	records, err := svc.History(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, records, 4)
}

func TestFinancialsAndSearch(t *testing.T) {
	svc, clientID := newTestService(t)
	ctx := context.Background()
	p, err := svc.Create(ctx, validInput(clientID), 0)
	require.NoError(t, err)

	f, err := svc.Financials(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "400.00", f.Profit.String())
	assert.True(t, f.Margin.Equal(decimal.NewFromInt(40)), f.Margin.String())

	page, err := svc.List(ctx, query.Params{Search: "acme"})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Count)

	page, err = svc.List(ctx, query.Params{Status: string(StatusActive)})
	require.NoError(t, err)
	assert.Equal(t, 0, page.Count)
}
