package expenses

import (
	"context"
	"strings"
	"time"

	"github.com/odyssey-erp/console/internal/events"
	"github.com/odyssey-erp/console/internal/history"
	"github.com/odyssey-erp/console/internal/lifecycle"
	"github.com/odyssey-erp/console/internal/query"
	"github.com/odyssey-erp/console/internal/shared"
)

// RepositoryPort defines data access for expenses.
type RepositoryPort interface {
	Create(ctx context.Context, e Expense) (Expense, error)
	Get(ctx context.Context, id int64) (Expense, error)
	List(ctx context.Context, params query.Params) (shared.Page[Expense], error)
	ListAll(ctx context.Context) ([]Expense, error)
	UpdateStatus(ctx context.Context, e Expense, from Status, rec lifecycle.Record) (Expense, error)
}

// Checker confirms a referenced record exists.
type Checker interface {
	Exists(ctx context.Context, id int64) error
}

// Service handles expense business logic.
type Service struct {
	repo      RepositoryPort
	history   history.Reader
	employees Checker
	projects  Checker
	events    events.Publisher
	now       func() time.Time
}

// NewService builds Service instance. Reference checkers may be nil.
func NewService(repo RepositoryPort, hist history.Reader, employees, projects Checker, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.Nop
	}
	return &Service{
		repo:      repo,
		history:   hist,
		employees: employees,
		projects:  projects,
		events:    publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create validates and stores a pending expense.
func (s *Service) Create(ctx context.Context, in CreateInput, actorID int64) (Expense, error) {
	in.Description = strings.TrimSpace(in.Description)
	if err := in.validate(); err != nil {
		return Expense{}, err
	}
	if s.employees != nil {
		if err := s.employees.Exists(ctx, in.SubmittedBy); err != nil {
			return Expense{}, err
		}
	}
	if in.ProjectID > 0 && s.projects != nil {
		if err := s.projects.Exists(ctx, in.ProjectID); err != nil {
			return Expense{}, err
		}
	}
	now := s.now()
	e, err := s.repo.Create(ctx, Expense{
		Description: in.Description,
		Amount:      in.Amount,
		Category:    in.Category,
		Date:        in.Date,
		SubmittedBy: in.SubmittedBy,
		ProjectID:   in.ProjectID,
		Status:      Machine.Initial(),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return Expense{}, err
	}
	events.Emit(ctx, s.events, events.Changed(Entity, e.ID, events.ActionCreated, actorID, now))
	return e, nil
}

// Get returns one expense.
func (s *Service) Get(ctx context.Context, id int64) (Expense, error) {
	return s.repo.Get(ctx, id)
}

// List searches expenses by description and filters by status or category.
func (s *Service) List(ctx context.Context, params query.Params) (shared.Page[Expense], error) {
	return s.repo.List(ctx, params.Normalize())
}

// ListAll returns every expense for aggregation.
func (s *Service) ListAll(ctx context.Context) ([]Expense, error) {
	return s.repo.ListAll(ctx)
}

// Transition applies a lifecycle action. Approve and reject record the decider.
func (s *Service) Transition(ctx context.Context, id int64, action lifecycle.Action, actorID int64) (Expense, error) {
	e, err := s.repo.Get(ctx, id)
	if err != nil {
		return Expense{}, err
	}
	from := e.Status
	next, rec, err := lifecycle.Transition(Machine, id, from, action, actorID, s.now())
	if err != nil {
		return Expense{}, err
	}
	e.Status = next
	e.UpdatedAt = rec.At
	if action == ActionApprove || action == ActionReject {
		at := rec.At
		e.DecidedBy = actorID
		e.DecidedAt = &at
	}
	e, err = s.repo.UpdateStatus(ctx, e, from, rec)
	if err != nil {
		return Expense{}, err
	}
	events.Emit(ctx, s.events, events.FromRecord(rec))
	return e, nil
}

// History lists the applied transitions of an expense.
func (s *Service) History(ctx context.Context, id int64) ([]lifecycle.Record, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.history.List(ctx, Entity, id)
}
