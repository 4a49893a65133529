package projects

import (
	"context"
	"strings"
	"time"

	"github.com/odyssey-erp/console/internal/calc"
	"github.com/odyssey-erp/console/internal/events"
	"github.com/odyssey-erp/console/internal/history"
	"github.com/odyssey-erp/console/internal/lifecycle"
	"github.com/odyssey-erp/console/internal/query"
	"github.com/odyssey-erp/console/internal/shared"
)

// RepositoryPort defines data access for projects.
type RepositoryPort interface {
	Create(ctx context.Context, p Project) (Project, error)
	Get(ctx context.Context, id int64) (Project, error)
	List(ctx context.Context, params query.Params) (shared.Page[Project], error)
	ListAll(ctx context.Context) ([]Project, error)
	UpdateStatus(ctx context.Context, p Project, from Status, rec lifecycle.Record) (Project, error)
}

// Checker confirms a referenced record exists.
type Checker interface {
	Exists(ctx context.Context, id int64) error
}

// Service handles project business logic.
type Service struct {
	repo     RepositoryPort
	history  history.Reader
	clients  Checker
	managers Checker
	events   events.Publisher
	now      func() time.Time
}

// NewService builds Service instance. Reference checkers may be nil.
func NewService(repo RepositoryPort, hist history.Reader, clients, managers Checker, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.Nop
	}
	return &Service{
		repo:     repo,
		history:  hist,
		clients:  clients,
		managers: managers,
		events:   publisher,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create validates and stores a project in planning.
func (s *Service) Create(ctx context.Context, in CreateInput, actorID int64) (Project, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := in.validate(); err != nil {
		return Project{}, err
	}
	if s.clients != nil {
		if err := s.clients.Exists(ctx, in.ClientID); err != nil {
			return Project{}, err
		}
	}
	if in.ManagerID > 0 && s.managers != nil {
		if err := s.managers.Exists(ctx, in.ManagerID); err != nil {
			return Project{}, err
		}
	}
	now := s.now()
	p, err := s.repo.Create(ctx, Project{
		Name:        in.Name,
		ClientID:    in.ClientID,
		ManagerID:   in.ManagerID,
		Status:      Machine.Initial(),
		StartDate:   in.StartDate,
		Deadline:    in.Deadline,
		Revenue:     in.Revenue,
		BudgetCost:  in.BudgetCost,
		Description: strings.TrimSpace(in.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return Project{}, err
	}
	events.Emit(ctx, s.events, events.Changed(Entity, p.ID, events.ActionCreated, actorID, now))
	return p, nil
}

// Get returns one project.
func (s *Service) Get(ctx context.Context, id int64) (Project, error) {
	return s.repo.Get(ctx, id)
}

// List searches projects by name or client name and filters by status.
func (s *Service) List(ctx context.Context, params query.Params) (shared.Page[Project], error) {
	return s.repo.List(ctx, params.Normalize())
}

// ListAll returns every project for aggregation.
func (s *Service) ListAll(ctx context.Context) ([]Project, error) {
	return s.repo.ListAll(ctx)
}

// Exists returns a NotFoundError for unknown ids.
func (s *Service) Exists(ctx context.Context, id int64) error {
	_, err := s.repo.Get(ctx, id)
	return err
}

// Financials derives the profit figures of one project.
func (s *Service) Financials(ctx context.Context, id int64) (calc.Financials, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return calc.Financials{}, err
	}
	return p.Financials(), nil
}

// Transition applies a lifecycle action.
func (s *Service) Transition(ctx context.Context, id int64, action lifecycle.Action, actorID int64) (Project, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return Project{}, err
	}
	from := p.Status
	next, rec, err := lifecycle.Transition(Machine, id, from, action, actorID, s.now())
	if err != nil {
		return Project{}, err
	}
	p.Status = next
	p.UpdatedAt = rec.At
	p, err = s.repo.UpdateStatus(ctx, p, from, rec)
	if err != nil {
		return Project{}, err
	}
	events.Emit(ctx, s.events, events.FromRecord(rec))
	return p, nil
}

// History lists the applied transitions of a project.
func (s *Service) History(ctx context.Context, id int64) ([]lifecycle.Record, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.history.List(ctx, Entity, id)
}
