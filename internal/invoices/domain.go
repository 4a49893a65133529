package invoices

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/console/internal/calc"
	"github.com/odyssey-erp/console/internal/lifecycle"
	"github.com/odyssey-erp/console/internal/money"
	"github.com/odyssey-erp/console/internal/query"
	"github.com/odyssey-erp/console/internal/shared"
)

// Entity is the name used in errors, events and transition logs.
const Entity = "invoice"

// Status enumerates invoice states.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSent      Status = "sent"
	StatusPaid      Status = "paid"
	StatusOverdue   Status = "overdue"
	StatusCancelled Status = "cancelled"
)

// Invoice actions. ActionMarkOverdue is applied by overdue evaluation only.
const (
	ActionSend        lifecycle.Action = "send"
	ActionPay         lifecycle.Action = "pay"
	ActionMarkOverdue lifecycle.Action = "mark_overdue"
	ActionCancel      lifecycle.Action = "cancel"
)

// Machine is the invoice lifecycle. paid and cancelled are terminal.
var Machine = lifecycle.NewMachine(Entity, StatusDraft, []lifecycle.Rule[Status]{
	{From: []Status{StatusDraft}, Action: ActionSend, To: StatusSent},
	{From: []Status{StatusSent, StatusOverdue}, Action: ActionPay, To: StatusPaid},
	{From: []Status{StatusSent}, Action: ActionMarkOverdue, To: StatusOverdue},
	{From: []Status{StatusDraft, StatusSent, StatusOverdue}, Action: ActionCancel, To: StatusCancelled},
}, StatusPaid, StatusCancelled)

// LineItem is one billable row. Amount is always quantity × unit price.
type LineItem struct {
	ID          int64        `json:"id"`
	Position    int          `json:"position"`
	Description string       `json:"description"`
	Quantity    int64        `json:"quantity"`
	UnitPrice   money.Amount `json:"unit_price"`
	Amount      money.Amount `json:"amount"`
}

// Invoice owns its line items exclusively. Subtotal, tax and total are derived.
type Invoice struct {
	ID          int64           `json:"id"`
	Number      string          `json:"invoice_number"`
	ClientID    int64           `json:"client_id"`
	ClientName  string          `json:"client_name"`
	ProjectID   int64           `json:"project_id,omitempty"`
	IssueDate   shared.Date     `json:"issue_date"`
	DueDate     shared.Date     `json:"due_date"`
	Status      Status          `json:"status"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	Lines       []LineItem      `json:"line_items"`
	Subtotal    money.Amount    `json:"subtotal"`
	Tax         money.Amount    `json:"tax"`
	Total       money.Amount    `json:"total"`
	SentAt      *time.Time      `json:"sent_at,omitempty"`
	PaidAt      *time.Time      `json:"paid_at,omitempty"`
	CancelledAt *time.Time      `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// SearchFields implements query.Indexed.
func (inv Invoice) SearchFields() []string { return []string{inv.Number, inv.ClientName} }

// FilterField implements query.Indexed.
func (inv Invoice) FilterField(key string) (string, bool) {
	if key == query.FilterStatus {
		return string(inv.Status), true
	}
	return "", false
}

// Clone copies the invoice including its line slice.
func (inv Invoice) Clone() Invoice {
	if inv.Lines != nil {
		inv.Lines = append([]LineItem(nil), inv.Lines...)
	}
	return inv
}

// Recompute refreshes every line amount and the invoice totals.
func (inv *Invoice) Recompute() error {
	lines := make([]calc.Line, 0, len(inv.Lines))
	for i := range inv.Lines {
		amount, err := calc.ComputeLineItem(inv.Lines[i].Quantity, inv.Lines[i].UnitPrice)
		if err != nil {
			return err
		}
		inv.Lines[i].Amount = amount
		inv.Lines[i].Position = i + 1
		lines = append(lines, calc.Line{Quantity: inv.Lines[i].Quantity, UnitPrice: inv.Lines[i].UnitPrice})
	}
	totals, err := calc.ComputeInvoiceTotals(lines, inv.TaxRate)
	if err != nil {
		return err
	}
	inv.Subtotal, inv.Tax, inv.Total = totals.Subtotal, totals.Tax, totals.Total
	return nil
}

func (inv *Invoice) ensureDraft() error {
	if inv.Status != StatusDraft {
		return &shared.ImmutableInvoiceError{InvoiceID: inv.ID, Status: string(inv.Status)}
	}
	return nil
}

// AddLine appends a line while the invoice is draft.
func (inv *Invoice) AddLine(in LineInput) error {
	if err := inv.ensureDraft(); err != nil {
		return err
	}
	line, err := in.build()
	if err != nil {
		return err
	}
	inv.Lines = append(inv.Lines, line)
	return inv.Recompute()
}

// UpdateLine replaces the fields of one line while the invoice is draft.
func (inv *Invoice) UpdateLine(lineID int64, in LineInput) error {
	if err := inv.ensureDraft(); err != nil {
		return err
	}
	idx := inv.lineIndex(lineID)
	if idx < 0 {
		return shared.NotFound("invoice line", lineID)
	}
	line, err := in.build()
	if err != nil {
		return err
	}
	line.ID = lineID
	inv.Lines[idx] = line
	return inv.Recompute()
}

// RemoveLine drops one line while the invoice is draft.
func (inv *Invoice) RemoveLine(lineID int64) error {
	if err := inv.ensureDraft(); err != nil {
		return err
	}
	idx := inv.lineIndex(lineID)
	if idx < 0 {
		return shared.NotFound("invoice line", lineID)
	}
	inv.Lines = append(inv.Lines[:idx], inv.Lines[idx+1:]...)
	return inv.Recompute()
}

func (inv *Invoice) lineIndex(lineID int64) int {
	for i, l := range inv.Lines {
		if l.ID == lineID {
			return i
		}
	}
	return -1
}

// EvaluateOverdue moves a sent invoice whose due date lies before today into
// overdue. Only the first evaluation returns a record; later calls are no-ops.
func (inv *Invoice) EvaluateOverdue(now time.Time) (lifecycle.Record, bool) {
	if inv.Status != StatusSent || inv.DueDate.IsZero() {
		return lifecycle.Record{}, false
	}
	if !inv.DueDate.Before(shared.DateOf(now)) {
		return lifecycle.Record{}, false
	}
	next, rec, err := lifecycle.Transition(Machine, inv.ID, inv.Status, ActionMarkOverdue, lifecycle.SystemActor, now)
	if err != nil {
		return lifecycle.Record{}, false
	}
	inv.Status = next
	inv.UpdatedAt = rec.At
	return rec, true
}

// apply stamps the timestamp matching the new status.
func (inv *Invoice) apply(next Status, at time.Time) {
	inv.Status = next
	inv.UpdatedAt = at
	switch next {
	case StatusSent:
		inv.SentAt = &at
	case StatusPaid:
		inv.PaidAt = &at
	case StatusCancelled:
		inv.CancelledAt = &at
	}
}

// FormatNumber renders an invoice number for the issue month and sequence.
func FormatNumber(issue shared.Date, seq int) string {
	return fmt.Sprintf("INV-%s-%04d", Period(issue), seq)
}

// Period is the numbering period (YYYYMM) of an issue date.
func Period(issue shared.Date) string {
	return issue.Time().Format("200601")
}

// LineInput is the payload of a new or edited line item.
type LineInput struct {
	Description string       `json:"description" validate:"required,max=500"`
	Quantity    int64        `json:"quantity"`
	UnitPrice   money.Amount `json:"unit_price"`
}

func (in LineInput) build() (LineItem, error) {
	if err := shared.Validate(in); err != nil {
		return LineItem{}, err
	}
	amount, err := calc.ComputeLineItem(in.Quantity, in.UnitPrice)
	if err != nil {
		return LineItem{}, err
	}
	return LineItem{Description: in.Description, Quantity: in.Quantity, UnitPrice: in.UnitPrice, Amount: amount}, nil
}

// CreateInput is the payload of a new draft invoice. A nil TaxRate uses the policy rate.
type CreateInput struct {
	ClientID  int64            `json:"client_id" validate:"required,gt=0"`
	ProjectID int64            `json:"project_id" validate:"gte=0"`
	IssueDate shared.Date      `json:"issue_date"`
	DueDate   shared.Date      `json:"due_date"`
	TaxRate   *decimal.Decimal `json:"tax_rate"`
	Lines     []LineInput      `json:"line_items"`
}

func (in CreateInput) validate() error {
	if err := shared.Validate(in); err != nil {
		return err
	}
	if in.IssueDate.IsZero() {
		return shared.NewValidationError("issue_date", "is required")
	}
	if in.DueDate.IsZero() {
		return shared.NewValidationError("due_date", "is required")
	}
	if in.DueDate.Before(in.IssueDate) {
		return shared.NewValidationError("due_date", "must not be before issue_date")
	}
	if in.TaxRate != nil {
		if err := calc.CheckTaxRate(*in.TaxRate); err != nil {
			return err
		}
	}
	return nil
}
