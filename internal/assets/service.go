package assets

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

// RepositoryPort defines data access for assets.
type RepositoryPort interface {
	Create(ctx context.Context, a Asset) (Asset, error)
	Get(ctx context.Context, id int64) (Asset, error)
	List(ctx context.Context, params query.Params) (shared.Page[Asset], error)
	UpdateStatus(ctx context.Context, a Asset, from Status, rec lifecycle.Record) (Asset, error)
}

// Checker confirms a referenced record exists.
type Checker interface {
	Exists(ctx context.Context, id int64) error
}

// Service handles asset business logic.
type Service struct {
	repo      RepositoryPort
	history   history.Reader
	employees Checker
	events    events.Publisher
	now       func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, hist history.Reader, employees Checker, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.Nop
	}
	return &Service{repo: repo, history: hist, employees: employees, events: publisher, now: func() time.Time { return time.Now().UTC() }}
}

// Create validates and stores an active asset.
func (s *Service) Create(ctx context.Context, in CreateInput, actorID int64) (Asset, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.AssetType = strings.TrimSpace(in.AssetType)
	in.SerialNumber = strings.TrimSpace(in.SerialNumber)
	if err := in.validate(); err != nil {
		return Asset{}, err
	}
	if in.AssignedTo > 0 && s.employees != nil {
		if err := s.employees.Exists(ctx, in.AssignedTo); err != nil {
			return Asset{}, err
		}
	}
	now := s.now()
	a, err := s.repo.Create(ctx, Asset{
		Name:         in.Name,
		AssetType:    in.AssetType,
		SerialNumber: in.SerialNumber,
		Status:       Machine.Initial(),
		AssignedTo:   in.AssignedTo,
		PurchaseDate: in.PurchaseDate,
		Value:        in.Value,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return Asset{}, err
	}
	events.Emit(ctx, s.events, events.Changed(Entity, a.ID, events.ActionCreated, actorID, now))
	return a, nil
}

// Get returns one asset.
func (s *Service) Get(ctx context.Context, id int64) (Asset, error) {
	return s.repo.Get(ctx, id)
}

// List searches assets by name or serial number and filters by status or type.
func (s *Service) List(ctx context.Context, params query.Params) (shared.Page[Asset], error) {
	return s.repo.List(ctx, params.Normalize())
}

// Transition applies a lifecycle action. Retiring releases the assignment.
func (s *Service) Transition(ctx context.Context, id int64, action lifecycle.Action, actorID int64) (Asset, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return Asset{}, err
	}
	from := a.Status
	next, rec, err := lifecycle.Transition(Machine, id, from, action, actorID, s.now())
	if err != nil {
		return Asset{}, err
	}
	a.Status = next
	a.UpdatedAt = rec.At
	if next == StatusRetired {
		a.AssignedTo = 0
	}
	a, err = s.repo.UpdateStatus(ctx, a, from, rec)
	if err != nil {
		return Asset{}, err
	}
	events.Emit(ctx, s.events, events.FromRecord(rec))
	return a, nil
}

// History lists the applied transitions of an asset.
func (s *Service) History(ctx context.Context, id int64) ([]lifecycle.Record, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.history.List(ctx, Entity, id)
}
