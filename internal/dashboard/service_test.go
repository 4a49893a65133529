package dashboard

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/console/internal/platform/cache"
	"github.com/odyssey-erp/console/internal/projects"
	"github.com/odyssey-erp/console/internal/tasks"
)

type staticLister[T any] struct {
	items []T
	err   error
	calls atomic.Int32
}

func (s *staticLister[T]) ListAll(context.Context) ([]T, error) {
	s.calls.Add(1)
	return s.items, s.err
}

type fixedStatus struct{}

func (fixedStatus) Status(context.Context) SystemStatus {
	return SystemStatus{Status: "ok", Components: map[string]string{"database": "up"}}
}

type recordingObserver struct{ sources []string }

func (r *recordingObserver) ObserveDashboardBuild(source string, _ time.Duration) {
	r.sources = append(r.sources, source)
}

func newCache(t *testing.T) *cache.Versioned {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewVersioned(client, "dashboard", time.Minute)
}

func TestGetCachesUntilInvalidated(t *testing.T) {
	snap := scenario()
	projectSrc := &staticLister[projects.Project]{items: snap.Projects}
	taskSrc := &staticLister[tasks.Task]{items: snap.Tasks}
	observer := &recordingObserver{}
	svc := NewService(Sources{Projects: projectSrc, Tasks: taskSrc, Status: fixedStatus{}}, DefaultPolicy(), newCache(t), observer, nil)
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	vm, err := svc.Get(ctx, Scope{EmployeeID: 7})
	require.NoError(t, err)
	assert.Equal(t, 1, vm.KPI.ActiveProjects)
	assert.Equal(t, 3, vm.KPI.MyTasks)
	assert.Equal(t, "up", vm.System.Components["database"])

	vm, err = svc.Get(ctx, Scope{EmployeeID: 7})
	require.NoError(t, err)
	assert.Equal(t, 1, vm.KPI.OverdueTasks)
	assert.Equal(t, int32(1), projectSrc.calls.Load())
	assert.Equal(t, []string{"build", "cache"}, observer.sources)

	require.NoError(t, svc.Invalidate(ctx))
	_, err = svc.Get(ctx, Scope{EmployeeID: 7})
	require.NoError(t, err)
	assert.Equal(t, int32(2), projectSrc.calls.Load())
}

func TestGetWithoutCache(t *testing.T) {
	projectSrc := &staticLister[projects.Project]{items: scenario().Projects}
	svc := NewService(Sources{Projects: projectSrc}, DefaultPolicy(), nil, nil, nil)

	vm, err := svc.Get(context.Background(), Scope{})
	require.NoError(t, err)
	assert.Equal(t, 1, vm.KPI.PlanningProjects)
	require.NoError(t, svc.Warm(context.Background()))
	assert.Equal(t, int32(2), projectSrc.calls.Load())
	require.NoError(t, svc.Invalidate(context.Background()))
}

func TestSnapshotPropagatesLoadErrors(t *testing.T) {
	boom := errors.New("db down")
	svc := NewService(Sources{
		Projects: &staticLister[projects.Project]{},
		Tasks:    &staticLister[tasks.Task]{err: boom},
	}, DefaultPolicy(), nil, nil, nil)

	_, err := svc.Get(context.Background(), Scope{})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "load tasks")
}

func TestProbeDegradesOnFailure(t *testing.T) {
	probe := NewProbe("1.2.3", time.Second, map[string]Check{
		"database": func(context.Context) error { return nil },
		"cache":    func(context.Context) error { return errors.New("refused") },
		"broker":   nil,
	})
	status := probe.Status(context.Background())
	assert.Equal(t, "degraded", status.Status)
	assert.Equal(t, map[string]string{"database": "up", "cache": "down"}, status.Components)
	assert.Equal(t, "1.2.3", status.Version)
}
