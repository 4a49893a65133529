// Package events fans domain events out to the cache, metrics and the message broker.
package events

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/console/internal/lifecycle"
)

// Event is a domain fact emitted after a successful write.
type Event struct {
	ID       uuid.UUID `json:"id"`
	Type     string    `json:"type"`
	Entity   string    `json:"entity"`
	EntityID int64     `json:"entity_id"`
	Action   string    `json:"action"`
	From     string    `json:"from,omitempty"`
	To       string    `json:"to,omitempty"`
	ActorID  int64     `json:"actor_id"`
	At       time.Time `json:"at"`
}

// Action names used for non-transition events.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
)

// FromRecord converts a lifecycle transition into an event.
func FromRecord(rec lifecycle.Record) Event {
	return Event{
		ID:       rec.ID,
		Type:     rec.Entity + "." + rec.Action,
		Entity:   rec.Entity,
		EntityID: rec.EntityID,
		Action:   rec.Action,
		From:     rec.From,
		To:       rec.To,
		ActorID:  rec.ActorID,
		At:       rec.At,
	}
}

// Changed builds a non-transition event such as a create or line item edit.
func Changed(entity string, entityID int64, action string, actorID int64, at time.Time) Event {
	return Event{
		ID:       uuid.New(),
		Type:     entity + "." + action,
		Entity:   entity,
		EntityID: entityID,
		Action:   action,
		ActorID:  actorID,
		At:       at.UTC(),
	}
}

// Publisher accepts events.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, evt Event) error

func (f PublisherFunc) Publish(ctx context.Context, evt Event) error { return f(ctx, evt) }

// Nop discards events.
var Nop Publisher = PublisherFunc(func(context.Context, Event) error { return nil })

// Bus delivers every event to all sinks. A failing sink does not stop the others.
type Bus struct {
	sinks  []Publisher
	logger *slog.Logger
}

// NewBus builds a bus; nil sinks are skipped.
func NewBus(logger *slog.Logger, sinks ...Publisher) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Bus{logger: logger}
	for _, s := range sinks {
		if s != nil {
			b.sinks = append(b.sinks, s)
		}
	}
	return b
}

// Publish fans out and joins sink errors.
func (b *Bus) Publish(ctx context.Context, evt Event) error {
	if b == nil {
		return nil
	}
	var errs []error
	for _, sink := range b.sinks {
		if err := sink.Publish(ctx, evt); err != nil {
			b.logger.Warn("publish event", slog.String("type", evt.Type), slog.Int64("entity_id", evt.EntityID), slog.Any("error", err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Emit publishes and only logs failures; writes never fail because of a sink.
// A *Bus logs each failing sink itself, other publishers are logged here.
func Emit(ctx context.Context, p Publisher, evt Event) {
	if p == nil {
		return
	}
	err := p.Publish(ctx, evt)
	if err == nil {
		return
	}
	if _, ok := p.(*Bus); ok {
		return
	}
	slog.Default().Warn("publish event", slog.String("type", evt.Type), slog.Int64("entity_id", evt.EntityID), slog.Any("error", err))
}
