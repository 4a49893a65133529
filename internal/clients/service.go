package clients

import (
	"context"
	"strings"
	"time"

	"github.com/odyssey-erp/console/internal/events"
	"github.com/odyssey-erp/console/internal/query"
	"github.com/odyssey-erp/console/internal/shared"
)

// RepositoryPort defines data access for clients.
type RepositoryPort interface {
	Create(ctx context.Context, c Client) (Client, error)
	Get(ctx context.Context, id int64) (Client, error)
	List(ctx context.Context, params query.Params) (shared.Page[Client], error)
	Names(ctx context.Context, ids []int64) (map[int64]string, error)
}

// Service handles client business logic.
type Service struct {
	repo   RepositoryPort
	events events.Publisher
	now    func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.Nop
	}
	return &Service{repo: repo, events: publisher, now: func() time.Time { return time.Now().UTC() }}
}

// Create validates and stores a client.
func (s *Service) Create(ctx context.Context, in CreateInput, actorID int64) (Client, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if err := shared.Validate(in); err != nil {
		return Client{}, err
	}
	c, err := s.repo.Create(ctx, Client{Name: in.Name, Email: in.Email, CreatedAt: s.now()})
	if err != nil {
		return Client{}, err
	}
	events.Emit(ctx, s.events, events.Changed(Entity, c.ID, events.ActionCreated, actorID, c.CreatedAt))
	return c, nil
}

// Get returns one client.
func (s *Service) Get(ctx context.Context, id int64) (Client, error) {
	return s.repo.Get(ctx, id)
}

// List searches clients by name or email.
func (s *Service) List(ctx context.Context, params query.Params) (shared.Page[Client], error) {
	return s.repo.List(ctx, params.Normalize())
}

// Names resolves client ids to display names; unknown ids are omitted.
func (s *Service) Names(ctx context.Context, ids []int64) (map[int64]string, error) {
	if len(ids) == 0 {
		return map[int64]string{}, nil
	}
	return s.repo.Names(ctx, ids)
}

// Exists returns a NotFoundError when the client is unknown.
func (s *Service) Exists(ctx context.Context, id int64) error {
	_, err := s.repo.Get(ctx, id)
	return err
}
