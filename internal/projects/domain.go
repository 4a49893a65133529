package projects

import (
	"time"

	"github.com/odyssey-erp/console/internal/calc"
	"github.com/odyssey-erp/console/internal/lifecycle"
	"github.com/odyssey-erp/console/internal/money"
	"github.com/odyssey-erp/console/internal/query"
	"github.com/odyssey-erp/console/internal/shared"
)

// Entity is the name used in errors, events and transition logs.
const Entity = "project"

// Status enumerates project phases.
type Status string

const (
	StatusPlanning  Status = "planning"
	StatusActive    Status = "active"
	StatusOnHold    Status = "on_hold"
	StatusCompleted Status = "completed"
)

// Project actions.
const (
	ActionActivate lifecycle.Action = "activate"
	ActionHold     lifecycle.Action = "hold"
	ActionResume   lifecycle.Action = "resume"
	ActionComplete lifecycle.Action = "complete"
)

// Machine is the project lifecycle. completed is terminal.
var Machine = lifecycle.NewMachine(Entity, StatusPlanning, []lifecycle.Rule[Status]{
	{From: []Status{StatusPlanning}, Action: ActionActivate, To: StatusActive},
	{From: []Status{StatusActive}, Action: ActionHold, To: StatusOnHold},
	{From: []Status{StatusOnHold}, Action: ActionResume, To: StatusActive},
	{From: []Status{StatusActive}, Action: ActionComplete, To: StatusCompleted},
}, StatusCompleted)

// Project tracks revenue and budget cost separately; profit is derived.
type Project struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	ClientID    int64        `json:"client_id"`
	ClientName  string       `json:"client_name"`
	ManagerID   int64        `json:"manager_id,omitempty"`
	Status      Status       `json:"status"`
	StartDate   shared.Date  `json:"start_date"`
	Deadline    shared.Date  `json:"deadline"`
	Revenue     money.Amount `json:"revenue"`
	BudgetCost  money.Amount `json:"budget_cost"`
	Description string       `json:"description"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Financials derives profit and margin.
func (p Project) Financials() calc.Financials {
	return calc.ComputeProjectFinancials(p.Revenue, p.BudgetCost)
}

// SearchFields implements query.Indexed.
func (p Project) SearchFields() []string { return []string{p.Name, p.ClientName} }

// FilterField implements query.Indexed.
func (p Project) FilterField(key string) (string, bool) {
	if key == query.FilterStatus {
		return string(p.Status), true
	}
	return "", false
}

// CreateInput is the payload of a new project.
type CreateInput struct {
	Name        string       `json:"name" validate:"required,max=200"`
	ClientID    int64        `json:"client_id" validate:"required,gt=0"`
	ManagerID   int64        `json:"manager_id" validate:"gte=0"`
	StartDate   shared.Date  `json:"start_date"`
	Deadline    shared.Date  `json:"deadline"`
	Revenue     money.Amount `json:"revenue"`
	BudgetCost  money.Amount `json:"budget_cost"`
	Description string       `json:"description" validate:"max=2000"`
}

func (in CreateInput) validate() error {
	if err := shared.Validate(in); err != nil {
		return err
	}
	if in.StartDate.IsZero() {
		return shared.NewValidationError("start_date", "is required")
	}
	if !in.Deadline.IsZero() && in.Deadline.Before(in.StartDate) {
		return shared.NewValidationError("deadline", "must not be before start_date")
	}
	if err := shared.CheckAmount("revenue", in.Revenue); err != nil {
		return err
	}
	if err := shared.CheckAmount("budget_cost", in.BudgetCost); err != nil {
		return err
	}
	if in.Revenue.IsNegative() {
		return shared.NewValidationError("revenue", "must not be negative")
	}
	if in.BudgetCost.IsNegative() {
		return shared.NewValidationError("budget_cost", "must not be negative")
	}
	return nil
}
