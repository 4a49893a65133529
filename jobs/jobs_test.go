package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/console/internal/dashboard"
	"github.com/odyssey-erp/console/internal/employees"
	jobmetrics "github.com/odyssey-erp/console/internal/jobs"
	"github.com/odyssey-erp/console/internal/shared"
)

type recordingBuilder struct {
	scopes []dashboard.Scope
	err    error
}

func (b *recordingBuilder) Get(_ context.Context, scope dashboard.Scope) (dashboard.ViewModel, error) {
	b.scopes = append(b.scopes, scope)
	return dashboard.ViewModel{}, b.err
}

type staticEmployees []employees.Employee

func (s staticEmployees) ListAll(context.Context) ([]employees.Employee, error) { return s, nil }

func TestDashboardWarmupWarmsOrganizationAndAvailableEmployees(t *testing.T) {
	builder := &recordingBuilder{}
	staff := staticEmployees{{ID: 3, IsAvailable: true}, {ID: 4}, {ID: 7, IsAvailable: true}}
	job := NewDashboardWarmupJob(builder, staff, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	fixed := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	job.clock = func() time.Time { return fixed }

	task, err := NewDashboardWarmupTask(true)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	require.Len(t, builder.scopes, 3)
	assert.Equal(t, int64(0), builder.scopes[0].EmployeeID)
	assert.Equal(t, int64(3), builder.scopes[1].EmployeeID)
	assert.Equal(t, int64(7), builder.scopes[2].EmployeeID)
	assert.Equal(t, fixed, builder.scopes[0].Now)

	builder.scopes = nil
	task, err = NewDashboardWarmupTask(false)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Len(t, builder.scopes, 1)
}

func TestDashboardWarmupFailures(t *testing.T) {
	boom := errors.New("boom")
	job := NewDashboardWarmupJob(&recordingBuilder{err: boom}, nil, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	task, err := NewDashboardWarmupTask(false)
	require.NoError(t, err)
	assert.ErrorIs(t, job.Handle(context.Background(), task), boom)

	err = job.Handle(context.Background(), asynq.NewTask(TaskDashboardWarmup, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	var unset *DashboardWarmupJob
	assert.Error(t, unset.Handle(context.Background(), task))
}

func TestIdempotencyCleanup(t *testing.T) {
	store := shared.NewMemoryIdempotencyStore()
	ctx := context.Background()
	require.NoError(t, store.CheckAndInsert(ctx, "k", "invoices"))

	job := NewIdempotencyCleanupJob(store, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	task, err := NewIdempotencyCleanupTask(time.Hour)
	require.NoError(t, err)
	require.NoError(t, job.Handle(ctx, task))
	assert.ErrorIs(t, store.CheckAndInsert(ctx, "k", "invoices"), shared.ErrIdempotencyConflict)

	_, err = NewIdempotencyCleanupTask(0)
	assert.Error(t, err)
	err = job.Handle(ctx, asynq.NewTask(TaskIdempotencyCleanup, []byte(`{"retention":0}`)))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestNewTaskByType(t *testing.T) {
	task, err := NewTask(TaskIdempotencyCleanup, 2*time.Hour)
	require.NoError(t, err)
	var payload IdempotencyCleanupPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, 2*time.Hour, payload.Retention)

	task, err = NewTask(TaskDashboardWarmup, 0)
	require.NoError(t, err)
	assert.Equal(t, TaskDashboardWarmup, task.Type())

	_, err = NewTask("mail:send", time.Hour)
	assert.Error(t, err)
}

type fakeInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (f fakeInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) { return f.info, f.err }

func TestHealthEndpoint(t *testing.T) {
	serve := func(h *Handler) *httptest.ResponseRecorder {
		r := chi.NewRouter()
		h.MountRoutes(r)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		return rec
	}

	rec := serve(NewHandler(fakeInspector{info: &asynq.QueueInfo{Queue: "default", Pending: 4, Failed: 1, Retry: 2}}, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body QueueHealth
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, QueueHealth{Queue: "default", Pending: 4, Failed: 1, Retry: 2}, body)

	rec = serve(NewHandler(fakeInspector{err: errors.New("redis down")}, nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = serve(NewHandler(nil, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"queue":"default","pending":0,"active":0,"failed":0}`, rec.Body.String())
}
