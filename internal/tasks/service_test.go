package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/console/internal/history"
	"github.com/odyssey-erp/console/internal/lifecycle"
	"github.com/odyssey-erp/console/internal/query"
	"github.com/odyssey-erp/console/internal/shared"
)

type knownIDs map[int64]bool

func (k knownIDs) Exists(_ context.Context, id int64) error {
	if !k[id] {
		return shared.NotFound("ref", id)
	}
	return nil
}

func newTestService() *Service {
	log := history.NewMemory()
	svc := NewService(NewMemoryRepository(log), log, knownIDs{1: true}, knownIDs{7: true, 8: true}, nil)
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) }
	return svc
}

func TestCreateChecksReferences(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{ProjectID: 2, Title: "Design"}, 0)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.Create(ctx, CreateInput{ProjectID: 1, Title: "Design", AssigneeID: 99}, 0)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.Create(ctx, CreateInput{ProjectID: 1, Title: " "}, 0)
	assert.ErrorIs(t, err, shared.ErrValidation)

	task, err := svc.Create(ctx, CreateInput{ProjectID: 1, Title: "Design", AssigneeID: 7}, 0)
	require.NoError(t, err)
	assert.Equal(t, StatusTodo, task.Status)
}

func TestTransitionsAndHistory(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	task, err := svc.Create(ctx, CreateInput{ProjectID: 1, Title: "Build", AssigneeID: 7}, 0)
	require.NoError(t, err)

	task, err = svc.Transition(ctx, task.ID, ActionStart, 7)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, task.Status)

	_, err = svc.Transition(ctx, task.ID, ActionReopen, 7)
	assert.ErrorIs(t, err, lifecycle.ErrInvalidTransition)

	task, err = svc.Transition(ctx, task.ID, ActionComplete, 7)
	require.NoError(t, err)
	assert.Equal(t, StatusDone, task.Status)

	task, err = svc.Transition(ctx, task.ID, ActionReopen, 7)
	require.NoError(t, err)
	assert.Equal(t, StatusTodo, task.Status)

	records, err := svc.History(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "start", records[0].Action)
	assert.Equal(t, "in_progress", records[0].To)
	assert.Equal(t, int64(7), records[0].ActorID)

	_, err = svc.Transition(ctx, 404, ActionStart, 0)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestActiveCountsAndOverdue(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	due := shared.NewDate(2024, 4, 30)
	a, _ := svc.Create(ctx, CreateInput{ProjectID: 1, Title: "A", AssigneeID: 7, DueDate: due}, 0)
	b, _ := svc.Create(ctx, CreateInput{ProjectID: 1, Title: "B", AssigneeID: 7}, 0)
	_, _ = svc.Create(ctx, CreateInput{ProjectID: 1, Title: "C", AssigneeID: 8}, 0)
	_, _ = svc.Create(ctx, CreateInput{ProjectID: 1, Title: "Unassigned"}, 0)
	_, err := svc.Transition(ctx, b.ID, ActionComplete, 0)
	require.NoError(t, err)

	counts, err := svc.ActiveCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[int64]int{7: 1, 8: 1}, counts)

	today := shared.NewDate(2024, 5, 1)
	assert.True(t, a.Overdue(today))
	assert.False(t, a.Overdue(due))

	page, err := svc.List(ctx, query.Params{Status: string(StatusDone)})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Count)
}
