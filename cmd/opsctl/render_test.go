package main

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/console/internal/app"
	"github.com/odyssey-erp/console/internal/dashboard"
	"github.com/odyssey-erp/console/internal/money"
	"github.com/odyssey-erp/console/internal/platform/migrate"
	"github.com/odyssey-erp/console/internal/shared"
)

func TestRenderDashboard(t *testing.T) {
	f, err := money.NewFormatter("en", "USD")
	require.NoError(t, err)
	vm := dashboard.ViewModel{
		KPI: dashboard.KPI{ActiveProjects: 3, MyTasks: 4, OverdueTasks: 1, BudgetUsage: decimal.NewFromInt(40)},
		Financials: dashboard.Financials{
			TotalRevenue: money.New(123456, -2),
			NetProfit:    money.New(60000, -2),
		},
		Formula: dashboard.FormulaExpenseRatio,
		System:  dashboard.SystemStatus{Status: "ok", Components: map[string]string{"database": "up"}},
	}
	out := renderDashboard(vm, f)
	assert.Contains(t, out, "Active projects")
	assert.Contains(t, out, "4 (1 overdue)")
	assert.Contains(t, out, "40.00% (expense_ratio)")
	assert.Contains(t, out, "USD 1,234.56")
	assert.Contains(t, out, "database")
}

func TestRenderList(t *testing.T) {
	page := shared.NewPage([]map[string]any{
		{"id": float64(1), "name": "Acme", "email": "ops@acme.test"},
	}, 9)
	out := renderList("clients", page)
	assert.Contains(t, out, "Acme")
	assert.Contains(t, out, "ops@acme.test")
	assert.Contains(t, out, "1 of 9 clients")
}

func TestRenderMigrationStatus(t *testing.T) {
	assert.Contains(t, renderMigrationStatus(migrate.Status{CurrentVersion: 1, LatestVersion: 1}), "up to date")
	assert.Contains(t, renderMigrationStatus(migrate.Status{CurrentVersion: 0, LatestVersion: 1, Pending: true}), "pending")
	assert.Contains(t, renderMigrationStatus(migrate.Status{Dirty: true}), "dirty")
}

func TestPolicyFileRoundTripsDefaults(t *testing.T) {
	pf := policyFile(app.DefaultPolicy("EUR"))
	assert.Equal(t, "expense_ratio", pf.BudgetUsageFormula)
	assert.Equal(t, "EUR", pf.Currency)
	assert.Equal(t, dashboard.DefaultWindowDays, pf.WindowDays)
}

func TestRootCommandTree(t *testing.T) {
	root := newRootCmd()
	for _, path := range [][]string{{"migrate", "up"}, {"migrate", "status"}, {"dashboard"}, {"list"}, {"jobs", "trigger"}, {"policy", "show"}} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}
