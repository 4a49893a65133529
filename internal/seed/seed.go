// Package seed loads a small demo organization through the domain services.
package seed

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/odyssey-erp/console/internal/app"
	"github.com/odyssey-erp/console/internal/assets"
	"github.com/odyssey-erp/console/internal/clients"
	"github.com/odyssey-erp/console/internal/employees"
	"github.com/odyssey-erp/console/internal/expenses"
	"github.com/odyssey-erp/console/internal/invoices"
	"github.com/odyssey-erp/console/internal/lifecycle"
	"github.com/odyssey-erp/console/internal/money"
	"github.com/odyssey-erp/console/internal/projects"
	"github.com/odyssey-erp/console/internal/risks"
	"github.com/odyssey-erp/console/internal/shared"
	"github.com/odyssey-erp/console/internal/tasks"
)

// Result counts what was created.
type Result struct {
	Clients, Employees, Projects, Tasks, Invoices, Expenses, Risks, Assets int
}

type seeder struct {
	svc   *app.Services
	out   io.Writer
	today shared.Date
	actor int64

	clientIDs   []int64
	employeeIDs []int64
	projectIDs  []int64
	res         Result
}

// Run creates the demo data relative to today. Progress lines go to out.
func Run(ctx context.Context, svc *app.Services, out io.Writer, today time.Time) (Result, error) {
	s := &seeder{svc: svc, out: out, today: shared.DateOf(today)}
	phases := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"clients", s.seedClients},
		{"employees", s.seedEmployees},
		{"projects", s.seedProjects},
		{"tasks", s.seedTasks},
		{"invoices", s.seedInvoices},
		{"expenses", s.seedExpenses},
		{"risks", s.seedRisks},
		{"assets", s.seedAssets},
	}
	for _, phase := range phases {
		fmt.Fprintf(out, "→ Seeding %s...\n", phase.name)
		if err := phase.fn(ctx); err != nil {
			return s.res, fmt.Errorf("seed %s: %w", phase.name, err)
		}
	}
	return s.res, nil
}

func (s *seeder) seedClients(ctx context.Context) error {
	for _, in := range []clients.CreateInput{
		{Name: "Acme Corp", Email: "billing@acme.test"},
		{Name: "Globex", Email: "ap@globex.test"},
		{Name: "Initech"},
	} {
		c, err := s.svc.Clients.Create(ctx, in, s.actor)
		if err != nil {
			return err
		}
		s.clientIDs = append(s.clientIDs, c.ID)
		s.res.Clients++
	}
	return nil
}

func (s *seeder) seedEmployees(ctx context.Context) error {
	away := false
	for _, in := range []employees.CreateInput{
		{Username: "amelia", JobTitle: "Project Manager", Department: "Delivery", Email: "amelia@console.test", Capacity: 6},
		{Username: "bima", JobTitle: "Engineer", Department: "Engineering", Capacity: 4},
		{Username: "citra", JobTitle: "Designer", Department: "Design", Capacity: 4},
		{Username: "dewi", JobTitle: "Accountant", Department: "Finance", IsAvailable: &away},
	} {
		e, err := s.svc.Employees.Create(ctx, in, s.actor)
		if err != nil {
			return err
		}
		s.employeeIDs = append(s.employeeIDs, e.ID)
		s.res.Employees++
	}
	s.actor = s.employeeIDs[0]
	return nil
}

func (s *seeder) seedProjects(ctx context.Context) error {
	rows := []struct {
		in     projects.CreateInput
		active bool
	}{
		{projects.CreateInput{Name: "Customer Portal", ClientID: s.clientIDs[0], ManagerID: s.employeeIDs[0], StartDate: s.today.AddDays(-60), Deadline: s.today.AddDays(30), Revenue: money.FromInt(120000), BudgetCost: money.FromInt(80000)}, true},
		{projects.CreateInput{Name: "Data Migration", ClientID: s.clientIDs[1], ManagerID: s.employeeIDs[0], StartDate: s.today.AddDays(-20), Revenue: money.FromInt(45000), BudgetCost: money.FromInt(30000)}, true},
		{projects.CreateInput{Name: "Brand Refresh", ClientID: s.clientIDs[2], StartDate: s.today.AddDays(14), Revenue: money.FromInt(20000), BudgetCost: money.FromInt(12000)}, false},
	}
	for _, row := range rows {
		p, err := s.svc.Projects.Create(ctx, row.in, s.actor)
		if err != nil {
			return err
		}
		if row.active {
			if _, err := s.svc.Projects.Transition(ctx, p.ID, projects.ActionActivate, s.actor); err != nil {
				return err
			}
		}
		s.projectIDs = append(s.projectIDs, p.ID)
		s.res.Projects++
	}
	return nil
}

func (s *seeder) seedTasks(ctx context.Context) error {
	rows := []struct {
		in     tasks.CreateInput
		action []lifecycle.Action
	}{
		{tasks.CreateInput{ProjectID: s.projectIDs[0], Title: "Login flow", AssigneeID: s.employeeIDs[1], DueDate: s.today.AddDays(-3)}, []lifecycle.Action{tasks.ActionStart}},
		{tasks.CreateInput{ProjectID: s.projectIDs[0], Title: "Account settings", AssigneeID: s.employeeIDs[1], DueDate: s.today.AddDays(7)}, nil},
		{tasks.CreateInput{ProjectID: s.projectIDs[0], Title: "Wireframes", AssigneeID: s.employeeIDs[2]}, []lifecycle.Action{tasks.ActionComplete}},
		{tasks.CreateInput{ProjectID: s.projectIDs[1], Title: "Schema mapping", AssigneeID: s.employeeIDs[1], DueDate: s.today.AddDays(2)}, []lifecycle.Action{tasks.ActionStart}},
		{tasks.CreateInput{ProjectID: s.projectIDs[1], Title: "Cutover plan", AssigneeID: s.employeeIDs[0]}, nil},
	}
	for _, row := range rows {
		t, err := s.svc.Tasks.Create(ctx, row.in, s.actor)
		if err != nil {
			return err
		}
		for _, action := range row.action {
			if _, err := s.svc.Tasks.Transition(ctx, t.ID, action, s.actor); err != nil {
				return err
			}
		}
		s.res.Tasks++
	}
	return nil
}

func (s *seeder) seedInvoices(ctx context.Context) error {
	rows := []struct {
		in      invoices.CreateInput
		actions []lifecycle.Action
	}{
		{invoices.CreateInput{
			ClientID: s.clientIDs[0], ProjectID: s.projectIDs[0],
			IssueDate: s.today.AddDays(-45), DueDate: s.today.AddDays(-15),
			Lines: []invoices.LineInput{{Description: "Discovery workshop", Quantity: 2, UnitPrice: money.FromInt(1500)}},
		}, []lifecycle.Action{invoices.ActionSend}},
		{invoices.CreateInput{
			ClientID: s.clientIDs[0], ProjectID: s.projectIDs[0],
			IssueDate: s.today.AddDays(-10), DueDate: s.today.AddDays(20),
			Lines: []invoices.LineInput{
				{Description: "Sprint 1", Quantity: 1, UnitPrice: money.FromInt(12000)},
				{Description: "Hosting", Quantity: 3, UnitPrice: money.MustParse("249.99")},
			},
		}, []lifecycle.Action{invoices.ActionSend}},
		{invoices.CreateInput{
			ClientID: s.clientIDs[1], ProjectID: s.projectIDs[1],
			IssueDate: s.today.AddDays(-30), DueDate: s.today.AddDays(-1),
			Lines: []invoices.LineInput{{Description: "Assessment", Quantity: 1, UnitPrice: money.FromInt(5000)}},
		}, []lifecycle.Action{invoices.ActionSend, invoices.ActionPay}},
		{invoices.CreateInput{
			ClientID: s.clientIDs[2], IssueDate: s.today, DueDate: s.today.AddDays(30),
			Lines: []invoices.LineInput{{Description: "Brand audit", Quantity: 1, UnitPrice: money.FromInt(2500)}},
		}, nil},
	}
	for _, row := range rows {
		inv, err := s.svc.Invoices.Create(ctx, row.in, s.actor)
		if err != nil {
			return err
		}
		for _, action := range row.actions {
			if _, err := s.svc.Invoices.Transition(ctx, inv.ID, action, s.actor); err != nil {
				return err
			}
		}
		s.res.Invoices++
	}
	return nil
}

func (s *seeder) seedExpenses(ctx context.Context) error {
	rows := []struct {
		in      expenses.CreateInput
		actions []lifecycle.Action
	}{
		{expenses.CreateInput{Description: "Client visit flights", Amount: money.FromInt(1800), Category: expenses.CategoryTravel, Date: s.today.AddDays(-12), SubmittedBy: s.employeeIDs[0], ProjectID: s.projectIDs[0]}, []lifecycle.Action{expenses.ActionApprove, expenses.ActionPay}},
		{expenses.CreateInput{Description: "Design tool seats", Amount: money.FromInt(600), Category: expenses.CategorySoftware, Date: s.today.AddDays(-5), SubmittedBy: s.employeeIDs[2], ProjectID: s.projectIDs[0]}, []lifecycle.Action{expenses.ActionApprove}},
		{expenses.CreateInput{Description: "Migration tooling", Amount: money.FromInt(2400), Category: expenses.CategorySoftware, Date: s.today.AddDays(-2), SubmittedBy: s.employeeIDs[1], ProjectID: s.projectIDs[1]}, nil},
		{expenses.CreateInput{Description: "Office chairs", Amount: money.FromInt(950), Category: expenses.CategoryOffice, Date: s.today.AddDays(-8), SubmittedBy: s.employeeIDs[3]}, []lifecycle.Action{expenses.ActionReject}},
	}
	for _, row := range rows {
		e, err := s.svc.Expenses.Create(ctx, row.in, row.in.SubmittedBy)
		if err != nil {
			return err
		}
		for _, action := range row.actions {
			if _, err := s.svc.Expenses.Transition(ctx, e.ID, action, s.actor); err != nil {
				return err
			}
		}
		s.res.Expenses++
	}
	return nil
}

func (s *seeder) seedRisks(ctx context.Context) error {
	rows := []struct {
		in       risks.CreateInput
		mitigate bool
	}{
		{risks.CreateInput{Summary: "Key engineer leave overlaps cutover", Impact: risks.ImpactHigh, Probability: risks.ProbabilityMedium, MitigationPlan: "Pair a second engineer on cutover tasks", OwnerID: s.employeeIDs[0]}, true},
		{risks.CreateInput{Summary: "Legacy data quality unknown", Impact: risks.ImpactSevere, Probability: risks.ProbabilityHigh, OwnerID: s.employeeIDs[1]}, false},
		{risks.CreateInput{Summary: "Font licensing delay", Impact: risks.ImpactLow, Probability: risks.ProbabilityLow, OwnerID: s.employeeIDs[2]}, false},
	}
	for _, row := range rows {
		r, err := s.svc.Risks.Create(ctx, row.in, s.actor)
		if err != nil {
			return err
		}
		if row.mitigate {
			if _, err := s.svc.Risks.Transition(ctx, r.ID, risks.ActionMitigate, s.actor); err != nil {
				return err
			}
		}
		s.res.Risks++
	}
	return nil
}

func (s *seeder) seedAssets(ctx context.Context) error {
	rows := []struct {
		in     assets.CreateInput
		repair bool
	}{
		{assets.CreateInput{Name: "MacBook Pro 14", AssetType: "laptop", SerialNumber: "C02-DEMO-001", AssignedTo: s.employeeIDs[1], PurchaseDate: s.today.AddDays(-400), Value: money.FromInt(2400)}, false},
		{assets.CreateInput{Name: "ThinkPad X1", AssetType: "laptop", SerialNumber: "PF-DEMO-002", AssignedTo: s.employeeIDs[2], PurchaseDate: s.today.AddDays(-700), Value: money.FromInt(1900)}, true},
		{assets.CreateInput{Name: "Meeting room display", AssetType: "display", PurchaseDate: s.today.AddDays(-200), Value: money.FromInt(800)}, false},
	}
	for _, row := range rows {
		a, err := s.svc.Assets.Create(ctx, row.in, s.actor)
		if err != nil {
			return err
		}
		if row.repair {
			if _, err := s.svc.Assets.Transition(ctx, a.ID, assets.ActionSendToRepair, s.actor); err != nil {
				return err
			}
		}
		s.res.Assets++
	}
	return nil
}
