// Package dashboard folds entity snapshots into the console dashboard view.
package dashboard

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/console/internal/calc"
	"github.com/odyssey-erp/console/internal/employees"
	"github.com/odyssey-erp/console/internal/expenses"
	"github.com/odyssey-erp/console/internal/invoices"
	"github.com/odyssey-erp/console/internal/money"
	"github.com/odyssey-erp/console/internal/projects"
	"github.com/odyssey-erp/console/internal/risks"
	"github.com/odyssey-erp/console/internal/shared"
	"github.com/odyssey-erp/console/internal/tasks"
)

// DefaultWindowDays is the reporting window for new invoices.
const DefaultWindowDays = 30

// Formula selects how budget usage is derived.
type Formula string

const (
	// FormulaExpenseRatio divides approved and paid project expenses by budget cost.
	FormulaExpenseRatio Formula = "expense_ratio"
	// FormulaTaskProgress weights each project's budget by its task completion.
	FormulaTaskProgress Formula = "task_progress"
)

// Valid reports whether f is a known formula.
func (f Formula) Valid() bool {
	return f == FormulaExpenseRatio || f == FormulaTaskProgress
}

// Policy configures aggregation.
type Policy struct {
	Calc          calc.Policy
	BudgetFormula Formula
	WindowDays    int
}

// DefaultPolicy returns the stock aggregation parameters.
func DefaultPolicy() Policy {
	return Policy{Calc: calc.DefaultPolicy(), BudgetFormula: FormulaExpenseRatio, WindowDays: DefaultWindowDays}
}

// SystemStatus is supplied by the caller and passed through untouched.
type SystemStatus struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components,omitempty"`
	Version    string            `json:"version,omitempty"`
	CheckedAt  time.Time         `json:"checked_at"`
}

// Snapshot is the immutable input of Compute.
type Snapshot struct {
	Projects  []projects.Project
	Tasks     []tasks.Task
	Invoices  []invoices.Invoice
	Expenses  []expenses.Expense
	Risks     []risks.Risk
	Employees []employees.Employee
	System    SystemStatus
}

// Scope describes who asks and for which period. A zero EmployeeID means the
// organization view: every task counts as "mine".
type Scope struct {
	EmployeeID  int64       `json:"employee_id"`
	Now         time.Time   `json:"now"`
	WindowDays  int         `json:"window_days"`
	PeriodStart shared.Date `json:"period_start"`
	PeriodEnd   shared.Date `json:"period_end"`
}

// KPI holds the headline counters.
type KPI struct {
	ActiveProjects      int             `json:"active_projects"`
	PlanningProjects    int             `json:"planning_projects"`
	MyTasks             int             `json:"my_tasks"`
	OverdueTasks        int             `json:"overdue_tasks"`
	TaskCompletion      decimal.Decimal `json:"task_completion"`
	HighRisks           int             `json:"high_risks"`
	NewInvoices         int             `json:"new_invoices"`
	OverdueInvoices     int             `json:"overdue_invoices"`
	BudgetUsage         decimal.Decimal `json:"budget_usage"`
	BudgetUsageRaw      decimal.Decimal `json:"budget_usage_raw"`
	ResourceUtilization int             `json:"resource_utilization"`
	OverloadedEmployees int             `json:"overloaded_employees"`
}

// Financials are organization totals over the projects in the period.
type Financials struct {
	TotalRevenue money.Amount    `json:"total_revenue"`
	TotalCosts   money.Amount    `json:"total_costs"`
	NetProfit    money.Amount    `json:"net_profit"`
	ProfitMargin decimal.Decimal `json:"profit_margin"`
}

// ViewModel is the dashboard payload.
type ViewModel struct {
	KPI         KPI          `json:"kpi"`
	Financials  Financials   `json:"financials"`
	System      SystemStatus `json:"system"`
	Formula     Formula      `json:"budget_usage_formula"`
	GeneratedAt time.Time    `json:"generated_at"`
}

// Compute is a pure function of its inputs. Empty collections yield zero values.
func Compute(snap Snapshot, scope Scope, policy Policy) ViewModel {
	if scope.WindowDays <= 0 {
		scope.WindowDays = policy.WindowDays
	}
	if scope.WindowDays <= 0 {
		scope.WindowDays = DefaultWindowDays
	}
	if !policy.BudgetFormula.Valid() {
		policy.BudgetFormula = FormulaExpenseRatio
	}
	today := shared.DateOf(scope.Now)

	vm := ViewModel{System: snap.System, Formula: policy.BudgetFormula, GeneratedAt: scope.Now}
	vm.KPI.TaskCompletion = decimal.Zero
	vm.KPI.BudgetUsage = decimal.Zero
	vm.KPI.BudgetUsageRaw = decimal.Zero

	for _, p := range snap.Projects {
		switch p.Status {
		case projects.StatusActive:
			vm.KPI.ActiveProjects++
		case projects.StatusPlanning:
			vm.KPI.PlanningProjects++
		}
	}

	done := 0
	for _, t := range snap.Tasks {
		if t.Status == tasks.StatusDone {
			done++
		}
		if scope.EmployeeID != 0 && t.AssigneeID != scope.EmployeeID {
			continue
		}
		vm.KPI.MyTasks++
		if t.Overdue(today) {
			vm.KPI.OverdueTasks++
		}
	}
	vm.KPI.TaskCompletion = calc.Percent(done, len(snap.Tasks))

	for _, r := range snap.Risks {
		if r.High() {
			vm.KPI.HighRisks++
		}
	}

	windowStart := scope.Now.AddDate(0, 0, -scope.WindowDays)
	for _, inv := range snap.Invoices {
		inv.EvaluateOverdue(scope.Now)
		switch inv.Status {
		case invoices.StatusDraft, invoices.StatusSent:
			if !inv.CreatedAt.Before(windowStart) {
				vm.KPI.NewInvoices++
			}
		case invoices.StatusOverdue:
			vm.KPI.OverdueInvoices++
		}
	}

	inPeriod := periodProjects(snap.Projects, scope)
	vm.KPI.BudgetUsageRaw = budgetUsage(inPeriod, snap, policy.BudgetFormula)
	vm.KPI.BudgetUsage = calc.ClampDecimalPercent(vm.KPI.BudgetUsageRaw)

	vm.KPI.ResourceUtilization, vm.KPI.OverloadedEmployees = utilization(snap, policy.Calc)

	revenue, costs := money.Zero, money.Zero
	for _, p := range inPeriod {
		revenue = revenue.Add(p.Revenue)
		costs = costs.Add(p.BudgetCost)
	}
	f := calc.ComputeProjectFinancials(revenue, costs)
	vm.Financials = Financials{TotalRevenue: f.Revenue, TotalCosts: f.BudgetCost, NetProfit: f.Profit, ProfitMargin: f.Margin}
	return vm
}

// periodProjects keeps the projects overlapping the scope period.
func periodProjects(all []projects.Project, scope Scope) []projects.Project {
	if scope.PeriodStart.IsZero() && scope.PeriodEnd.IsZero() {
		return all
	}
	out := make([]projects.Project, 0, len(all))
	for _, p := range all {
		if !scope.PeriodEnd.IsZero() && p.StartDate.After(scope.PeriodEnd) {
			continue
		}
		if !scope.PeriodStart.IsZero() && !p.Deadline.IsZero() && p.Deadline.Before(scope.PeriodStart) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func budgetUsage(ps []projects.Project, snap Snapshot, formula Formula) decimal.Decimal {
	budget := money.Zero
	index := make(map[int64]projects.Project, len(ps))
	for _, p := range ps {
		budget = budget.Add(p.BudgetCost)
		index[p.ID] = p
	}
	if !budget.IsPositive() {
		return decimal.Zero
	}

	var spent money.Amount
	switch formula {
	case FormulaTaskProgress:
		total := make(map[int64]int)
		done := make(map[int64]int)
		for _, t := range snap.Tasks {
			total[t.ProjectID]++
			if t.Status == tasks.StatusDone {
				done[t.ProjectID]++
			}
		}
		weighted := decimal.Zero
		for _, p := range ps {
			if total[p.ID] == 0 {
				continue
			}
			share := decimal.NewFromInt(int64(done[p.ID])).Div(decimal.NewFromInt(int64(total[p.ID])))
			weighted = weighted.Add(p.BudgetCost.Decimal().Mul(share))
		}
		spent = money.FromDecimal(weighted)
	default:
		amounts := make([]money.Amount, 0, len(snap.Expenses))
		for _, e := range snap.Expenses {
			if _, ok := index[e.ProjectID]; ok && e.Committed() {
				amounts = append(amounts, e.Amount)
			}
		}
		spent = money.Sum(amounts...)
	}
	ratio, _ := spent.Ratio(budget)
	return ratio
}

// utilization averages the display load of available employees, rounding half up.
func utilization(snap Snapshot, policy calc.Policy) (int, int) {
	active := make(map[int64]int)
	for _, t := range snap.Tasks {
		if t.AssigneeID != 0 && t.Active() {
			active[t.AssigneeID]++
		}
	}
	sum, n, overloaded := 0, 0, 0
	for _, e := range snap.Employees {
		if !e.IsAvailable {
			continue
		}
		w := policy.Workload(active[e.ID], e.Capacity)
		sum += w.Display
		n++
		if w.Overloaded {
			overloaded++
		}
	}
	if n == 0 {
		return 0, 0
	}
	return (sum*2 + n) / (2 * n), overloaded
}
