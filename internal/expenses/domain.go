package expenses

import (
	"time"

	"github.com/odyssey-erp/console/internal/lifecycle"
	"github.com/odyssey-erp/console/internal/money"
	"github.com/odyssey-erp/console/internal/query"
	"github.com/odyssey-erp/console/internal/shared"
)

// Entity is the name used in errors, events and transition logs.
const Entity = "expense"

// Status enumerates the approval states of an expense.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusPaid     Status = "paid"
)

// Category classifies spending.
type Category string

const (
	CategoryTravel   Category = "travel"
	CategorySoftware Category = "software"
	CategoryOffice   Category = "office"
	CategoryOther    Category = "other"
)

// Expense actions.
const (
	ActionApprove lifecycle.Action = "approve"
	ActionReject  lifecycle.Action = "reject"
	ActionPay     lifecycle.Action = "pay"
)

// Machine is the expense lifecycle. rejected and paid are terminal.
var Machine = lifecycle.NewMachine(Entity, StatusPending, []lifecycle.Rule[Status]{
	{From: []Status{StatusPending}, Action: ActionApprove, To: StatusApproved},
	{From: []Status{StatusPending}, Action: ActionReject, To: StatusRejected},
	{From: []Status{StatusApproved}, Action: ActionPay, To: StatusPaid},
}, StatusRejected, StatusPaid)

// Expense is a spending claim submitted by an employee.
type Expense struct {
	ID          int64        `json:"id"`
	Description string       `json:"description"`
	Amount      money.Amount `json:"amount"`
	Category    Category     `json:"category"`
	Date        shared.Date  `json:"date"`
	SubmittedBy int64        `json:"submitted_by"`
	ProjectID   int64        `json:"project_id,omitempty"`
	Status      Status       `json:"status"`
	DecidedBy   int64        `json:"decided_by,omitempty"`
	DecidedAt   *time.Time   `json:"decided_at,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Committed reports whether the expense counts as spent budget.
func (e Expense) Committed() bool {
	return e.Status == StatusApproved || e.Status == StatusPaid
}

// SearchFields implements query.Indexed.
func (e Expense) SearchFields() []string { return []string{e.Description} }

// FilterField implements query.Indexed.
func (e Expense) FilterField(key string) (string, bool) {
	switch key {
	case query.FilterStatus:
		return string(e.Status), true
	case query.FilterCategory:
		return string(e.Category), true
	}
	return "", false
}

// CreateInput is the payload of a new expense claim.
type CreateInput struct {
	Description string       `json:"description" validate:"required,max=500"`
	Amount      money.Amount `json:"amount"`
	Category    Category     `json:"category" validate:"required,oneof=travel software office other"`
	Date        shared.Date  `json:"date"`
	SubmittedBy int64        `json:"submitted_by" validate:"required,gt=0"`
	ProjectID   int64        `json:"project_id" validate:"gte=0"`
}

func (in CreateInput) validate() error {
	if err := shared.Validate(in); err != nil {
		return err
	}
	if err := shared.CheckAmount("amount", in.Amount); err != nil {
		return err
	}
	if !in.Amount.IsPositive() {
		return shared.NewValidationError("amount", "must be greater than zero")
	}
	if in.Date.IsZero() {
		return shared.NewValidationError("date", "is required")
	}
	return nil
}
