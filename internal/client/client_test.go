package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/console/internal/platform/httpx"
	"github.com/odyssey-erp/console/internal/query"
)

type row struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/projects", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "portal", r.URL.Query().Get("search"))
		assert.Equal(t, "7", r.Header.Get("X-Actor-ID"))
		_, _ = w.Write([]byte(`{"results":[{"id":1,"name":"Portal"}],"count":12}`))
	})
	mux.HandleFunc("/api/clients", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":1,"name":"Acme"},{"id":2,"name":"Globex"}]`))
	})
	mux.HandleFunc("/api/invoices/5/transitions", func(w http.ResponseWriter, r *http.Request) {
		var req httpx.TransitionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Action == "pay" {
			httpx.Problem(w, http.StatusConflict, "Invalid Transition", "invoice: cannot pay from draft")
			return
		}
		_, _ = w.Write([]byte(`{"id":5,"status":"sent"}`))
	})
	mux.HandleFunc("/api/dashboard", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "3", r.URL.Query().Get("employee_id"))
		_, _ = w.Write([]byte(`{"kpi":{"active_projects":2,"budget_usage":"40"},"financials":{"net_profit":"600.00"},"budget_usage_formula":"expense_ratio"}`))
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusServiceUnavailable, map[string]any{"status": "degraded", "components": map[string]string{"cache": "down"}})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestListDecodesBothShapes(t *testing.T) {
	c := New(newServer(t).URL+"/", 7)
	ctx := context.Background()

	page, err := List[row](ctx, c, "projects", query.Params{Search: "portal"})
	require.NoError(t, err)
	assert.Equal(t, 12, page.Count)
	assert.Equal(t, "Portal", page.Results[0].Name)

	page, err = List[row](ctx, c, "clients", query.Params{})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Count)
}

func TestTransitionErrorsCarryProblem(t *testing.T) {
	c := New(newServer(t).URL, 0)
	ctx := context.Background()

	raw, err := c.Transition(ctx, "invoices", 5, "send")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":5,"status":"sent"}`, string(raw))

	_, err = c.Transition(ctx, "invoices", 5, "pay")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "Invalid Transition", apiErr.Title)

	_, err = c.Get(ctx, "invoices", 99)
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestDashboardAndHealth(t *testing.T) {
	c := New(newServer(t).URL, 0)
	ctx := context.Background()

	vm, err := c.Dashboard(ctx, url.Values{"employee_id": {"3"}})
	require.NoError(t, err)
	assert.Equal(t, 2, vm.KPI.ActiveProjects)
	assert.Equal(t, "600.00", vm.Financials.NetProfit.String())

	status, err := c.Health(ctx)
	assert.Error(t, err)
	assert.Equal(t, "degraded", status.Status)
	assert.Equal(t, "down", status.Components["cache"])
}
