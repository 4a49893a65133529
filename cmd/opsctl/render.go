package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/odyssey-erp/console/internal/dashboard"
	"github.com/odyssey-erp/console/internal/money"
	"github.com/odyssey-erp/console/internal/platform/migrate"
	"github.com/odyssey-erp/console/internal/shared"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)
)

// listColumns picks the columns shown per entity.
var listColumns = map[string][]string{
	"projects":  {"id", "name", "client_name", "status", "revenue", "budget_cost", "deadline"},
	"invoices":  {"id", "invoice_number", "client_name", "status", "total", "due_date"},
	"expenses":  {"id", "description", "category", "status", "amount", "date"},
	"risks":     {"id", "summary", "impact", "probability", "status"},
	"assets":    {"id", "name", "asset_type", "serial_number", "status"},
	"employees": {"id", "username", "job_title", "department", "current_load"},
	"tasks":     {"id", "title", "project_id", "assignee_id", "status", "due_date"},
	"clients":   {"id", "name", "email"},
}

func renderDashboard(vm dashboard.ViewModel, f *money.Formatter) string {
	k := vm.KPI
	kpis := table.New().
		Border(lipgloss.HiddenBorder()).
		Rows(
			[]string{"Active projects", strconv.Itoa(k.ActiveProjects)},
			[]string{"Planning projects", strconv.Itoa(k.PlanningProjects)},
			[]string{"My tasks", fmt.Sprintf("%d (%d overdue)", k.MyTasks, k.OverdueTasks)},
			[]string{"Task completion", k.TaskCompletion.StringFixed(2) + "%"},
			[]string{"High risks", strconv.Itoa(k.HighRisks)},
			[]string{"New invoices", strconv.Itoa(k.NewInvoices)},
			[]string{"Overdue invoices", strconv.Itoa(k.OverdueInvoices)},
			[]string{"Budget usage", fmt.Sprintf("%s%% (%s)", k.BudgetUsage.StringFixed(2), vm.Formula)},
			[]string{"Resource utilization", fmt.Sprintf("%d%% (%d overloaded)", k.ResourceUtilization, k.OverloadedEmployees)},
		)
	fin := table.New().
		Border(lipgloss.HiddenBorder()).
		Rows(
			[]string{"Revenue", f.Format(vm.Financials.TotalRevenue)},
			[]string{"Costs", f.Format(vm.Financials.TotalCosts)},
			[]string{"Net profit", f.Format(vm.Financials.NetProfit)},
			[]string{"Margin", vm.Financials.ProfitMargin.StringFixed(2) + "%"},
		)
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Dashboard"),
		boxStyle.Render(kpis.String()),
		titleStyle.Render("Financials"),
		boxStyle.Render(fin.String()),
		renderStatus(vm.System),
	)
}

func renderList(entity string, page shared.Page[map[string]any]) string {
	columns, ok := listColumns[entity]
	if !ok {
		columns = []string{"id"}
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(dimStyle).
		Headers(columns...)
	for _, item := range page.Results {
		row := make([]string, len(columns))
		for i, col := range columns {
			row[i] = cell(item[col])
		}
		t.Row(row...)
	}
	footer := dimStyle.Render(fmt.Sprintf("%d of %d %s", len(page.Results), page.Count, entity))
	return lipgloss.JoinVertical(lipgloss.Left, t.String(), footer)
}

func renderStatus(s dashboard.SystemStatus) string {
	style := successStyle
	if s.Status != dashboard.StatusOK {
		style = warningStyle
	}
	names := make([]string, 0, len(s.Components))
	for name := range s.Components {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		state := s.Components[name]
		if state == dashboard.ComponentUp {
			parts = append(parts, name+" "+successStyle.Render(state))
		} else {
			parts = append(parts, name+" "+errorStyle.Render(state))
		}
	}
	line := style.Render("system " + s.Status)
	if s.Version != "" {
		line += dimStyle.Render(" v" + s.Version)
	}
	if len(parts) > 0 {
		line += "  " + strings.Join(parts, ", ")
	}
	return line
}

func renderMigrationStatus(s migrate.Status) string {
	line := fmt.Sprintf("version %d of %d", s.CurrentVersion, s.LatestVersion)
	switch {
	case s.Dirty:
		return errorStyle.Render(line + " (dirty)")
	case s.Pending:
		return warningStyle.Render(line + " (pending)")
	default:
		return successStyle.Render(line + " (up to date)")
	}
}

func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}
