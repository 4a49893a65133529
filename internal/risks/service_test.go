package risks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/console/internal/history"
	"github.com/odyssey-erp/console/internal/lifecycle"
	"github.com/odyssey-erp/console/internal/query"
	"github.com/odyssey-erp/console/internal/shared"
)

func newTestService() *Service {
	log := history.NewMemory()
	return NewService(NewMemoryRepository(log), log, nil, nil)
}

func TestCreateAndHigh(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{Summary: "Vendor lock-in", Impact: "extreme", Probability: ProbabilityLow, OwnerID: 1}, 0)
	var vErr *shared.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "impact", vErr.Field)

	r, err := svc.Create(ctx, CreateInput{Summary: "Vendor lock-in", Impact: ImpactSevere, Probability: ProbabilityLow, OwnerID: 1}, 0)
	require.NoError(t, err)
	assert.Equal(t, StatusOpen, r.Status)
	assert.True(t, r.High())

	r.Status = StatusClosed
	assert.False(t, r.High())
}

func TestMitigateNeedsPlan(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	bare, err := svc.Create(ctx, CreateInput{Summary: "Key person", Impact: ImpactHigh, Probability: ProbabilityMedium, OwnerID: 1}, 0)
	require.NoError(t, err)
	_, err = svc.Transition(ctx, bare.ID, ActionMitigate, 1)
	assert.ErrorIs(t, err, shared.ErrValidation)

	planned, err := svc.Create(ctx, CreateInput{
		Summary: "Data loss", Impact: ImpactHigh, Probability: ProbabilityLow, OwnerID: 1,
		MitigationPlan: "Nightly backups",
	}, 0)
	require.NoError(t, err)
	r, err := svc.Transition(ctx, planned.ID, ActionMitigate, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusMitigating, r.Status)

	r, err = svc.Transition(ctx, r.ID, ActionClose, 1)
	require.NoError(t, err)
	_, err = svc.Transition(ctx, r.ID, ActionMitigate, 1)
	assert.ErrorIs(t, err, lifecycle.ErrInvalidTransition)

	r, err = svc.Transition(ctx, r.ID, ActionReopen, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusOpen, r.Status)

	page, err := svc.List(ctx, query.Params{Search: "data", Status: string(StatusOpen)})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Count)
}
