package risks

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

// RepositoryPort defines data access for risks.
type RepositoryPort interface {
	Create(ctx context.Context, r Risk) (Risk, error)
	Get(ctx context.Context, id int64) (Risk, error)
	List(ctx context.Context, params query.Params) (shared.Page[Risk], error)
	ListAll(ctx context.Context) ([]Risk, error)
	UpdateStatus(ctx context.Context, r Risk, from Status, rec lifecycle.Record) (Risk, error)
}

// Checker confirms a referenced record exists.
type Checker interface {
	Exists(ctx context.Context, id int64) error
}

// Service handles risk business logic.
type Service struct {
	repo    RepositoryPort
	history history.Reader
	owners  Checker
	events  events.Publisher
	now     func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, hist history.Reader, owners Checker, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.Nop
	}
	return &Service{repo: repo, history: hist, owners: owners, events: publisher, now: func() time.Time { return time.Now().UTC() }}
}

// Create validates and stores an open risk.
func (s *Service) Create(ctx context.Context, in CreateInput, actorID int64) (Risk, error) {
	in.Summary = strings.TrimSpace(in.Summary)
	if err := shared.Validate(in); err != nil {
		return Risk{}, err
	}
	if s.owners != nil {
		if err := s.owners.Exists(ctx, in.OwnerID); err != nil {
			return Risk{}, err
		}
	}
	now := s.now()
	r, err := s.repo.Create(ctx, Risk{
		Summary:        in.Summary,
		Description:    strings.TrimSpace(in.Description),
		Impact:         in.Impact,
		Probability:    in.Probability,
		Status:         Machine.Initial(),
		MitigationPlan: strings.TrimSpace(in.MitigationPlan),
		OwnerID:        in.OwnerID,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return Risk{}, err
	}
	events.Emit(ctx, s.events, events.Changed(Entity, r.ID, events.ActionCreated, actorID, now))
	return r, nil
}

// Get returns one risk.
func (s *Service) Get(ctx context.Context, id int64) (Risk, error) {
	return s.repo.Get(ctx, id)
}

// List searches risks by summary and filters by status.
func (s *Service) List(ctx context.Context, params query.Params) (shared.Page[Risk], error) {
	return s.repo.List(ctx, params.Normalize())
}

// ListAll returns every risk for aggregation.
func (s *Service) ListAll(ctx context.Context) ([]Risk, error) {
	return s.repo.ListAll(ctx)
}

// Transition applies a lifecycle action.
func (s *Service) Transition(ctx context.Context, id int64, action lifecycle.Action, actorID int64) (Risk, error) {
	r, err := s.repo.Get(ctx, id)
	if err != nil {
		return Risk{}, err
	}
	if action == ActionMitigate && strings.TrimSpace(r.MitigationPlan) == "" {
		return Risk{}, shared.NewValidationError("mitigation_plan", "is required before mitigating")
	}
	from := r.Status
	next, rec, err := lifecycle.Transition(Machine, id, from, action, actorID, s.now())
	if err != nil {
		return Risk{}, err
	}
	r.Status = next
	r.UpdatedAt = rec.At
	r, err = s.repo.UpdateStatus(ctx, r, from, rec)
	if err != nil {
		return Risk{}, err
	}
	events.Emit(ctx, s.events, events.FromRecord(rec))
	return r, nil
}

// History lists the applied transitions of a risk.
func (s *Service) History(ctx context.Context, id int64) ([]lifecycle.Record, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.history.List(ctx, Entity, id)
}
