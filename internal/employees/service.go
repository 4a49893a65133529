package employees

import (
	"context"
	"strings"
	"time"

	"github.com/odyssey-erp/console/internal/calc"
	"github.com/odyssey-erp/console/internal/events"
	"github.com/odyssey-erp/console/internal/query"
	"github.com/odyssey-erp/console/internal/shared"
)

// RepositoryPort defines data access for employees.
type RepositoryPort interface {
	Create(ctx context.Context, e Employee) (Employee, error)
	Get(ctx context.Context, id int64) (Employee, error)
	List(ctx context.Context, params query.Params) (shared.Page[Employee], error)
	ListAll(ctx context.Context) ([]Employee, error)
}

// TaskCounter reports unfinished tasks per assignee.
type TaskCounter interface {
	ActiveCounts(ctx context.Context) (map[int64]int, error)
}

// Service handles employee business logic.
type Service struct {
	repo   RepositoryPort
	tasks  TaskCounter
	policy calc.Policy
	events events.Publisher
	now    func() time.Time
}

// NewService builds Service instance. tasks may be nil, in which case every
// employee reports zero load.
func NewService(repo RepositoryPort, tasks TaskCounter, policy calc.Policy, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.Nop
	}
	return &Service{
		repo:   repo,
		tasks:  tasks,
		policy: policy,
		events: publisher,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Create validates and stores an employee.
func (s *Service) Create(ctx context.Context, in CreateInput, actorID int64) (Employee, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := shared.Validate(in); err != nil {
		return Employee{}, err
	}
	available := true
	if in.IsAvailable != nil {
		available = *in.IsAvailable
	}
	now := s.now()
	e, err := s.repo.Create(ctx, Employee{
		Username:    in.Username,
		JobTitle:    strings.TrimSpace(in.JobTitle),
		Department:  strings.TrimSpace(in.Department),
		Email:       in.Email,
		Location:    strings.TrimSpace(in.Location),
		IsAvailable: available,
		Capacity:    in.Capacity,
		CreatedAt:   now,
	})
	if err != nil {
		return Employee{}, err
	}
	events.Emit(ctx, s.events, events.Changed(Entity, e.ID, events.ActionCreated, actorID, now))
	return e, nil
}

// Get returns one employee with the derived load.
func (s *Service) Get(ctx context.Context, id int64) (Employee, error) {
	e, err := s.repo.Get(ctx, id)
	if err != nil {
		return Employee{}, err
	}
	counts, err := s.counts(ctx)
	if err != nil {
		return Employee{}, err
	}
	return s.withLoad(e, counts), nil
}

// List searches employees by username or job title and filters by department.
func (s *Service) List(ctx context.Context, params query.Params) (shared.Page[Employee], error) {
	page, err := s.repo.List(ctx, params.Normalize())
	if err != nil {
		return shared.Page[Employee]{}, err
	}
	counts, err := s.counts(ctx)
	if err != nil {
		return shared.Page[Employee]{}, err
	}
	for i := range page.Results {
		page.Results[i] = s.withLoad(page.Results[i], counts)
	}
	return page, nil
}

// ListAll returns every employee without load; aggregation derives it from its own task snapshot.
func (s *Service) ListAll(ctx context.Context) ([]Employee, error) {
	return s.repo.ListAll(ctx)
}

// Exists returns a NotFoundError for unknown ids.
func (s *Service) Exists(ctx context.Context, id int64) error {
	_, err := s.repo.Get(ctx, id)
	return err
}

// Workload returns the full workload breakdown of one employee.
func (s *Service) Workload(ctx context.Context, id int64) (calc.Workload, error) {
	e, err := s.repo.Get(ctx, id)
	if err != nil {
		return calc.Workload{}, err
	}
	counts, err := s.counts(ctx)
	if err != nil {
		return calc.Workload{}, err
	}
	return s.policy.Workload(counts[e.ID], e.Capacity), nil
}

func (s *Service) counts(ctx context.Context) (map[int64]int, error) {
	if s.tasks == nil {
		return map[int64]int{}, nil
	}
	return s.tasks.ActiveCounts(ctx)
}

func (s *Service) withLoad(e Employee, counts map[int64]int) Employee {
	w := s.policy.Workload(counts[e.ID], e.Capacity)
	e.CurrentLoad = w.Display
	e.Overloaded = w.Overloaded
	return e
}
