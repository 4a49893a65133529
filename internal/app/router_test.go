package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/console/internal/observability"
	"github.com/odyssey-erp/console/internal/shared"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := &Config{AppEnv: "test", AppVersion: "test", DataBackend: BackendMemory, RateLimit: 1000, AppRequestTimeout: 5 * time.Second}
	metrics := observability.NewMetrics()
	svc := BuildServices(cfg, DefaultPolicy("USD"), Infra{Metrics: metrics}, nil)
	return NewRouter(RouterParams{Config: cfg, Services: svc, Metrics: metrics})
}

func call(t *testing.T, h http.Handler, method, path string, body any, headers ...string) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Actor-ID", "1")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	out := map[string]any{}
	if rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &out)
	}
	return rec.Code, out
}

func TestInvoiceFlowThroughAPI(t *testing.T) {
	h := newTestRouter(t)
	today := shared.DateOf(time.Now().UTC())

	code, client := call(t, h, http.MethodPost, "/api/clients", map[string]any{"name": "Acme Corp"})
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, float64(1), client["id"])

	code, _ = call(t, h, http.MethodPost, "/api/employees", map[string]any{"username": "ana", "capacity": 4})
	require.Equal(t, http.StatusCreated, code)

	code, project := call(t, h, http.MethodPost, "/api/projects", map[string]any{
		"name": "Portal", "client_id": 1, "manager_id": 1,
		"start_date": today.String(), "revenue": "1000.00", "budget_cost": "400.00",
	})
	require.Equal(t, http.StatusCreated, code, project)
	assert.Equal(t, "planning", project["status"])
	assert.Equal(t, "Acme Corp", project["client_name"])

	code, inv := call(t, h, http.MethodPost, "/api/invoices", map[string]any{
		"client_id": 1, "project_id": 1,
		"issue_date": today.String(), "due_date": today.AddDays(14).String(),
		"line_items": []map[string]any{
			{"description": "Design", "quantity": 2, "unit_price": "100.00"},
			{"description": "Hosting", "quantity": 1, "unit_price": "50.00"},
		},
	})
	require.Equal(t, http.StatusCreated, code, inv)
	assert.Equal(t, "250.00", inv["subtotal"])
	assert.Equal(t, "25.00", inv["tax"])
	assert.Equal(t, "275.00", inv["total"])
	assert.Equal(t, "draft", inv["status"])

	code, sent := call(t, h, http.MethodPost, "/api/invoices/1/transitions", map[string]any{"action": "send"})
	require.Equal(t, http.StatusOK, code, sent)
	assert.Equal(t, "sent", sent["status"])

	code, problem := call(t, h, http.MethodPost, "/api/invoices/1/lines", map[string]any{"description": "Late", "quantity": 1, "unit_price": "1.00"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "Immutable Invoice", problem["title"])

	code, list := call(t, h, http.MethodGet, "/api/invoices?search=acme", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), list["count"])

	code, dash := call(t, h, http.MethodGet, "/api/dashboard", nil)
	require.Equal(t, http.StatusOK, code)
	kpi := dash["kpi"].(map[string]any)
	assert.Equal(t, float64(1), kpi["planning_projects"])
	assert.Equal(t, float64(1), kpi["new_invoices"])
	fin := dash["financials"].(map[string]any)
	assert.Equal(t, "600.00", fin["net_profit"])
}

func TestAPIErrorsAreProblems(t *testing.T) {
	h := newTestRouter(t)

	code, problem := call(t, h, http.MethodGet, "/api/projects/99", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Not Found", problem["title"])

	code, problem = call(t, h, http.MethodPost, "/api/clients", map[string]any{"name": ""})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "name", problem["field"])

	code, _ = call(t, h, http.MethodPost, "/api/clients", map[string]any{"name": "Acme"}, shared.IdempotencyHeader, "k-1")
	assert.Equal(t, http.StatusCreated, code)
	code, problem = call(t, h, http.MethodPost, "/api/clients", map[string]any{"name": "Acme"}, shared.IdempotencyHeader, "k-1")
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "Duplicate Request", problem["title"])

	code, _ = call(t, h, http.MethodPost, "/api/projects", map[string]any{
		"name": "Portal", "client_id": 1, "start_date": "2024-01-01", "revenue": "10", "budget_cost": "5",
	})
	require.Equal(t, http.StatusCreated, code)
	code, _ = call(t, h, http.MethodPost, "/api/projects/1/transitions", map[string]any{"action": "complete"})
	assert.Equal(t, http.StatusConflict, code)
	code, problem = call(t, h, http.MethodPost, "/api/projects/1/transitions", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "action", problem["field"])
}

func TestAmountsBeyondCentsAreRejected(t *testing.T) {
	h := newTestRouter(t)
	today := shared.DateOf(time.Now().UTC())
	code, _ := call(t, h, http.MethodPost, "/api/clients", map[string]any{"name": "Acme"})
	require.Equal(t, http.StatusCreated, code)

	code, problem := call(t, h, http.MethodPost, "/api/invoices", map[string]any{
		"client_id": 1, "issue_date": today.String(), "due_date": today.String(),
		"line_items": []map[string]any{
			{"description": "a", "quantity": 1, "unit_price": "0.005"},
			{"description": "b", "quantity": 1, "unit_price": "0.005"},
		},
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "line_items.unit_price", problem["field"])

	code, problem = call(t, h, http.MethodPost, "/api/projects", map[string]any{
		"name": "Portal", "client_id": 1, "start_date": today.String(), "revenue": "1e100000000",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "revenue", problem["field"])

	code, list := call(t, h, http.MethodGet, "/api/invoices", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(0), list["count"])
}

func TestHealthAndMetrics(t *testing.T) {
	h := newTestRouter(t)

	code, status := call(t, h, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", status["status"])
	assert.Equal(t, "test", status["version"])

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "console_http_requests_total")
}
