package dashboard

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/console/internal/employees"
	"github.com/odyssey-erp/console/internal/expenses"
	"github.com/odyssey-erp/console/internal/invoices"
	"github.com/odyssey-erp/console/internal/money"
	"github.com/odyssey-erp/console/internal/projects"
	"github.com/odyssey-erp/console/internal/risks"
	"github.com/odyssey-erp/console/internal/shared"
	"github.com/odyssey-erp/console/internal/tasks"
)

var now = time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)

func scenario() Snapshot {
	return Snapshot{
		Projects: []projects.Project{
			{ID: 1, Status: projects.StatusActive, StartDate: shared.NewDate(2024, 1, 1), Revenue: money.MustParse("10000"), BudgetCost: money.MustParse("6000")},
			{ID: 2, Status: projects.StatusPlanning, StartDate: shared.NewDate(2024, 7, 1), Revenue: money.MustParse("0"), BudgetCost: money.MustParse("500")},
		},
		Tasks: []tasks.Task{
			{ID: 1, ProjectID: 1, AssigneeID: 7, Status: tasks.StatusInProgress, DueDate: shared.NewDate(2024, 6, 1)},
			{ID: 2, ProjectID: 1, AssigneeID: 7, Status: tasks.StatusTodo, DueDate: shared.NewDate(2024, 7, 1)},
			{ID: 3, ProjectID: 1, AssigneeID: 7, Status: tasks.StatusDone, DueDate: shared.NewDate(2024, 5, 1)},
		},
		Risks: []risks.Risk{
			{ID: 1, Impact: risks.ImpactHigh, Status: risks.StatusOpen},
		},
		Invoices: []invoices.Invoice{
			{ID: 1, Status: invoices.StatusDraft, DueDate: shared.NewDate(2024, 7, 1), CreatedAt: now.AddDate(0, 0, -3)},
			{ID: 2, Status: invoices.StatusSent, DueDate: shared.NewDate(2024, 7, 1), CreatedAt: now.AddDate(0, 0, -10)},
		},
	}
}

func TestComputeScenario(t *testing.T) {
	vm := Compute(scenario(), Scope{EmployeeID: 7, Now: now}, DefaultPolicy())

	assert.Equal(t, 1, vm.KPI.ActiveProjects)
	assert.Equal(t, 1, vm.KPI.PlanningProjects)
	assert.Equal(t, 3, vm.KPI.MyTasks)
	assert.Equal(t, 1, vm.KPI.OverdueTasks)
	assert.Equal(t, 1, vm.KPI.HighRisks)
	assert.Equal(t, 2, vm.KPI.NewInvoices)
}

func TestComputeEmptyInputIsZero(t *testing.T) {
	vm := Compute(Snapshot{}, Scope{Now: now}, DefaultPolicy())

	assert.Equal(t, KPI{
		TaskCompletion: decimal.Zero,
		BudgetUsage:    decimal.Zero,
		BudgetUsageRaw: decimal.Zero,
	}, vm.KPI)
	assert.True(t, vm.Financials.TotalRevenue.IsZero())
	assert.True(t, vm.Financials.ProfitMargin.IsZero())
	assert.Equal(t, FormulaExpenseRatio, vm.Formula)
}

func TestComputeIsDeterministic(t *testing.T) {
	snap := scenario()
	first := Compute(snap, Scope{EmployeeID: 7, Now: now}, DefaultPolicy())
	second := Compute(snap, Scope{EmployeeID: 7, Now: now}, DefaultPolicy())
	assert.Equal(t, first, second)
	assert.Equal(t, invoices.StatusSent, snap.Invoices[1].Status)
}

func TestComputeOtherRequester(t *testing.T) {
	vm := Compute(scenario(), Scope{EmployeeID: 99, Now: now}, DefaultPolicy())
	assert.Zero(t, vm.KPI.MyTasks)
	assert.Zero(t, vm.KPI.OverdueTasks)
	assert.True(t, vm.KPI.TaskCompletion.Equal(decimal.RequireFromString("33.33")), vm.KPI.TaskCompletion.String())
}

func TestNewInvoicesHonourWindowAndOverdue(t *testing.T) {
	snap := Snapshot{Invoices: []invoices.Invoice{
		{ID: 1, Status: invoices.StatusDraft, CreatedAt: now.AddDate(0, 0, -45)},
		{ID: 2, Status: invoices.StatusSent, DueDate: shared.NewDate(2024, 6, 14), CreatedAt: now.AddDate(0, 0, -5)},
		{ID: 3, Status: invoices.StatusPaid, CreatedAt: now},
	}}
	vm := Compute(snap, Scope{Now: now}, DefaultPolicy())
	assert.Equal(t, 0, vm.KPI.NewInvoices)
	assert.Equal(t, 1, vm.KPI.OverdueInvoices)

	vm = Compute(snap, Scope{Now: now, WindowDays: 60}, DefaultPolicy())
	assert.Equal(t, 1, vm.KPI.NewInvoices)
}

func TestBudgetUsageFormulas(t *testing.T) {
	snap := scenario()
	snap.Expenses = []expenses.Expense{
		{ID: 1, ProjectID: 1, Amount: money.MustParse("3250"), Status: expenses.StatusApproved},
		{ID: 2, ProjectID: 1, Amount: money.MustParse("4000"), Status: expenses.StatusPaid},
		{ID: 3, ProjectID: 1, Amount: money.MustParse("900"), Status: expenses.StatusPending},
		{ID: 4, Amount: money.MustParse("100"), Status: expenses.StatusPaid},
	}

	vm := Compute(snap, Scope{Now: now}, DefaultPolicy())
	// 7250 / 6500
	assert.True(t, vm.KPI.BudgetUsageRaw.Equal(decimal.RequireFromString("111.54")), vm.KPI.BudgetUsageRaw.String())
	assert.True(t, vm.KPI.BudgetUsage.Equal(decimal.NewFromInt(100)))

	policy := DefaultPolicy()
	policy.BudgetFormula = FormulaTaskProgress
	vm = Compute(snap, Scope{Now: now}, policy)
	// project 1 is one third done: 2000 / 6500
	assert.True(t, vm.KPI.BudgetUsageRaw.Equal(decimal.RequireFromString("30.77")), vm.KPI.BudgetUsageRaw.String())
	assert.Equal(t, FormulaTaskProgress, vm.Formula)
}

func TestFinancialsUsePeriodProjects(t *testing.T) {
	vm := Compute(scenario(), Scope{Now: now}, DefaultPolicy())
	assert.Equal(t, "10000.00", vm.Financials.TotalRevenue.String())
	assert.Equal(t, "6500.00", vm.Financials.TotalCosts.String())
	assert.Equal(t, "3500.00", vm.Financials.NetProfit.String())
	assert.True(t, vm.Financials.ProfitMargin.Equal(decimal.NewFromInt(35)))

	vm = Compute(scenario(), Scope{Now: now, PeriodStart: shared.NewDate(2024, 1, 1), PeriodEnd: shared.NewDate(2024, 6, 30)}, DefaultPolicy())
	assert.Equal(t, "6000.00", vm.Financials.TotalCosts.String())
	assert.True(t, vm.Financials.ProfitMargin.Equal(decimal.NewFromInt(40)))
}

func TestResourceUtilization(t *testing.T) {
	snap := scenario()
	snap.Employees = []employees.Employee{
		{ID: 7, IsAvailable: true, Capacity: 2},
		{ID: 8, IsAvailable: true, Capacity: 4},
		{ID: 9, IsAvailable: false},
	}
	vm := Compute(snap, Scope{Now: now}, DefaultPolicy())
	// employee 7: 2 active / 2 = 100, employee 8: 0
	assert.Equal(t, 50, vm.KPI.ResourceUtilization)
	assert.Equal(t, 1, vm.KPI.OverloadedEmployees)
}

func TestParseScope(t *testing.T) {
	scope, err := ParseScope(map[string][]string{
		"employee_id":  {"7"},
		"window_days":  {"14"},
		"period_start": {"2024-01-01"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), scope.EmployeeID)
	assert.Equal(t, 14, scope.WindowDays)
	assert.Equal(t, "2024-01-01", scope.PeriodStart.String())

	_, err = ParseScope(map[string][]string{"window_days": {"0"}})
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = ParseScope(map[string][]string{"period_start": {"2024-02-01"}, "period_end": {"2024-01-01"}})
	var vErr *shared.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "period_end", vErr.Field)
}
