package invoices

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/console/internal/events"
	"github.com/odyssey-erp/console/internal/history"
	"github.com/odyssey-erp/console/internal/lifecycle"
	"github.com/odyssey-erp/console/internal/query"
	"github.com/odyssey-erp/console/internal/shared"
)

// Non-transition event actions.
const (
	ActionLineAdded   = "line_added"
	ActionLineUpdated = "line_updated"
	ActionLineRemoved = "line_removed"
)

// RepositoryPort defines data access for invoices.
type RepositoryPort interface {
	// Create assigns the invoice number and persists the invoice with its lines.
	Create(ctx context.Context, inv Invoice) (Invoice, error)
	Get(ctx context.Context, id int64) (Invoice, error)
	List(ctx context.Context, params query.Params) (shared.Page[Invoice], error)
	ListAll(ctx context.Context) ([]Invoice, error)
	// ListPastDue returns sent invoices due before the given day.
	ListPastDue(ctx context.Context, today shared.Date) ([]Invoice, error)
	// SaveLines replaces the lines and totals of a draft invoice.
	SaveLines(ctx context.Context, inv Invoice) (Invoice, error)
	UpdateStatus(ctx context.Context, inv Invoice, from Status, rec lifecycle.Record) (Invoice, error)
}

// Checker confirms a referenced record exists.
type Checker interface {
	Exists(ctx context.Context, id int64) error
}

// Service handles invoice business logic.
type Service struct {
	repo     RepositoryPort
	history  history.Reader
	clients  Checker
	projects Checker
	events   events.Publisher
	taxRate  decimal.Decimal
	logger   *slog.Logger
	now      func() time.Time
}

// NewService builds Service instance. Reference checkers may be nil.
func NewService(repo RepositoryPort, hist history.Reader, clients, projects Checker, publisher events.Publisher, taxRate decimal.Decimal, logger *slog.Logger) *Service {
	if publisher == nil {
		publisher = events.Nop
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		history:  hist,
		clients:  clients,
		projects: projects,
		events:   publisher,
		taxRate:  taxRate,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create validates and stores a draft invoice with computed totals.
func (s *Service) Create(ctx context.Context, in CreateInput, actorID int64) (Invoice, error) {
	if err := in.validate(); err != nil {
		return Invoice{}, err
	}
	if s.clients != nil {
		if err := s.clients.Exists(ctx, in.ClientID); err != nil {
			return Invoice{}, err
		}
	}
	if in.ProjectID > 0 && s.projects != nil {
		if err := s.projects.Exists(ctx, in.ProjectID); err != nil {
			return Invoice{}, err
		}
	}
	rate := s.taxRate
	if in.TaxRate != nil {
		rate = *in.TaxRate
	}
	now := s.now()
	inv := Invoice{
		ClientID:  in.ClientID,
		ProjectID: in.ProjectID,
		IssueDate: in.IssueDate,
		DueDate:   in.DueDate,
		Status:    Machine.Initial(),
		TaxRate:   rate,
		Lines:     make([]LineItem, 0, len(in.Lines)),
		CreatedAt: now,
		UpdatedAt: now,
	}
	for i, li := range in.Lines {
		line, err := li.build()
		if err != nil {
			var vErr *shared.ValidationError
			if errors.As(err, &vErr) {
				return Invoice{}, shared.NewValidationError(fmt.Sprintf("line_items[%d].%s", i, vErr.Field), vErr.Reason)
			}
			return Invoice{}, err
		}
		inv.Lines = append(inv.Lines, line)
	}
	if err := inv.Recompute(); err != nil {
		return Invoice{}, err
	}
	created, err := s.repo.Create(ctx, inv)
	if err != nil {
		return Invoice{}, fmt.Errorf("create invoice: %w", err)
	}
	events.Emit(ctx, s.events, events.Changed(Entity, created.ID, events.ActionCreated, actorID, now))
	return created, nil
}

// Get returns one invoice after overdue evaluation.
func (s *Service) Get(ctx context.Context, id int64) (Invoice, error) {
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return Invoice{}, err
	}
	return s.evaluate(ctx, inv)
}

// List marks past-due invoices overdue, then searches by number or client name.
func (s *Service) List(ctx context.Context, params query.Params) (shared.Page[Invoice], error) {
	if err := s.RefreshOverdue(ctx); err != nil {
		return shared.Page[Invoice]{}, err
	}
	return s.repo.List(ctx, params.Normalize())
}

// ListAll returns every invoice after overdue evaluation.
func (s *Service) ListAll(ctx context.Context) ([]Invoice, error) {
	if err := s.RefreshOverdue(ctx); err != nil {
		return nil, err
	}
	return s.repo.ListAll(ctx)
}

// RefreshOverdue evaluates every sent invoice whose due date has passed.
func (s *Service) RefreshOverdue(ctx context.Context) error {
	due, err := s.repo.ListPastDue(ctx, shared.DateOf(s.now()))
	if err != nil {
		return err
	}
	for _, inv := range due {
		if _, err := s.evaluate(ctx, inv); err != nil {
			return err
		}
	}
	return nil
}

// evaluate persists the overdue transition the first time it applies. A
// concurrent reader that already persisted it wins; the stored row is returned.
func (s *Service) evaluate(ctx context.Context, inv Invoice) (Invoice, error) {
	rec, changed := inv.EvaluateOverdue(s.now())
	if !changed {
		return inv, nil
	}
	updated, err := s.repo.UpdateStatus(ctx, inv, StatusSent, rec)
	if errors.Is(err, shared.ErrStaleWrite) {
		return s.repo.Get(ctx, inv.ID)
	}
	if err != nil {
		return Invoice{}, err
	}
	s.logger.Info("invoice overdue", slog.Int64("invoice_id", inv.ID), slog.String("number", inv.Number))
	events.Emit(ctx, s.events, events.FromRecord(rec))
	return updated, nil
}

// AddLine appends a line item to a draft invoice.
func (s *Service) AddLine(ctx context.Context, id int64, in LineInput, actorID int64) (Invoice, error) {
	return s.editLines(ctx, id, actorID, ActionLineAdded, func(inv *Invoice) error { return inv.AddLine(in) })
}

// UpdateLine edits a line item of a draft invoice.
func (s *Service) UpdateLine(ctx context.Context, id, lineID int64, in LineInput, actorID int64) (Invoice, error) {
	return s.editLines(ctx, id, actorID, ActionLineUpdated, func(inv *Invoice) error { return inv.UpdateLine(lineID, in) })
}

// RemoveLine deletes a line item of a draft invoice.
func (s *Service) RemoveLine(ctx context.Context, id, lineID int64, actorID int64) (Invoice, error) {
	return s.editLines(ctx, id, actorID, ActionLineRemoved, func(inv *Invoice) error { return inv.RemoveLine(lineID) })
}

func (s *Service) editLines(ctx context.Context, id, actorID int64, action string, edit func(*Invoice) error) (Invoice, error) {
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return Invoice{}, err
	}
	if err := edit(&inv); err != nil {
		return Invoice{}, err
	}
	inv.UpdatedAt = s.now()
	saved, err := s.repo.SaveLines(ctx, inv)
	if err != nil {
		return Invoice{}, err
	}
	events.Emit(ctx, s.events, events.Changed(Entity, id, action, actorID, inv.UpdatedAt))
	return saved, nil
}

// Transition applies a user action. Overdue marking is reserved for evaluation.
func (s *Service) Transition(ctx context.Context, id int64, action lifecycle.Action, actorID int64) (Invoice, error) {
	if action == ActionMarkOverdue {
		return Invoice{}, shared.NewValidationError("action", "mark_overdue is applied when the due date passes")
	}
	inv, err := s.Get(ctx, id)
	if err != nil {
		return Invoice{}, err
	}
	if action == ActionSend && inv.Status == StatusDraft {
		if len(inv.Lines) == 0 {
			return Invoice{}, shared.NewValidationError("line_items", "must contain at least one line before sending")
		}
		if err := inv.Recompute(); err != nil {
			return Invoice{}, err
		}
	}
	from := inv.Status
	next, rec, err := lifecycle.Transition(Machine, id, from, action, actorID, s.now())
	if err != nil {
		return Invoice{}, err
	}
	inv.apply(next, rec.At)
	updated, err := s.repo.UpdateStatus(ctx, inv, from, rec)
	if err != nil {
		return Invoice{}, err
	}
	events.Emit(ctx, s.events, events.FromRecord(rec))
	// a send can leave an already past-due invoice sent
	return s.evaluate(ctx, updated)
}

// History lists the applied transitions of an invoice.
func (s *Service) History(ctx context.Context, id int64) ([]lifecycle.Record, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.history.List(ctx, Entity, id)
}
