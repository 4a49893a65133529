package tasks

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

// RepositoryPort defines data access for tasks.
type RepositoryPort interface {
	Create(ctx context.Context, t Task) (Task, error)
	Get(ctx context.Context, id int64) (Task, error)
	List(ctx context.Context, params query.Params) (shared.Page[Task], error)
	ListAll(ctx context.Context) ([]Task, error)
	UpdateStatus(ctx context.Context, t Task, from Status, rec lifecycle.Record) (Task, error)
	ActiveCounts(ctx context.Context) (map[int64]int, error)
}

// Checker confirms a referenced record exists.
type Checker interface {
	Exists(ctx context.Context, id int64) error
}

// Service handles task business logic.
type Service struct {
	repo      RepositoryPort
	history   history.Reader
	projects  Checker
	employees Checker
	events    events.Publisher
	now       func() time.Time
}

// NewService builds Service instance. Reference checkers may be nil.
func NewService(repo RepositoryPort, hist history.Reader, projects, employees Checker, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.Nop
	}
	return &Service{
		repo:      repo,
		history:   hist,
		projects:  projects,
		employees: employees,
		events:    publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create validates references and stores a todo task.
func (s *Service) Create(ctx context.Context, in CreateInput, actorID int64) (Task, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := shared.Validate(in); err != nil {
		return Task{}, err
	}
	if s.projects != nil {
		if err := s.projects.Exists(ctx, in.ProjectID); err != nil {
			return Task{}, err
		}
	}
	if in.AssigneeID > 0 && s.employees != nil {
		if err := s.employees.Exists(ctx, in.AssigneeID); err != nil {
			return Task{}, err
		}
	}
	now := s.now()
	t, err := s.repo.Create(ctx, Task{
		ProjectID:  in.ProjectID,
		Title:      in.Title,
		AssigneeID: in.AssigneeID,
		Status:     Machine.Initial(),
		DueDate:    in.DueDate,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return Task{}, err
	}
	events.Emit(ctx, s.events, events.Changed(Entity, t.ID, events.ActionCreated, actorID, now))
	return t, nil
}

// Get returns one task.
func (s *Service) Get(ctx context.Context, id int64) (Task, error) {
	return s.repo.Get(ctx, id)
}

// List searches tasks by title and filters by status.
func (s *Service) List(ctx context.Context, params query.Params) (shared.Page[Task], error) {
	return s.repo.List(ctx, params.Normalize())
}

// ListAll returns every task for aggregation.
func (s *Service) ListAll(ctx context.Context) ([]Task, error) {
	return s.repo.ListAll(ctx)
}

// ActiveCounts returns the number of unfinished tasks per assignee.
func (s *Service) ActiveCounts(ctx context.Context) (map[int64]int, error) {
	return s.repo.ActiveCounts(ctx)
}

// Transition applies a lifecycle action.
func (s *Service) Transition(ctx context.Context, id int64, action lifecycle.Action, actorID int64) (Task, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return Task{}, err
	}
	from := t.Status
	next, rec, err := lifecycle.Transition(Machine, id, from, action, actorID, s.now())
	if err != nil {
		return Task{}, err
	}
	t.Status = next
	t.UpdatedAt = rec.At
	t, err = s.repo.UpdateStatus(ctx, t, from, rec)
	if err != nil {
		return Task{}, err
	}
	events.Emit(ctx, s.events, events.FromRecord(rec))
	return t, nil
}

// History lists the applied transitions of a task.
func (s *Service) History(ctx context.Context, id int64) ([]lifecycle.Record, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.history.List(ctx, Entity, id)
}
