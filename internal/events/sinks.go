package events

import (
	"context"
)

// Bumper invalidates a versioned cache.
type Bumper interface {
	Bump(ctx context.Context) error
}

// CacheInvalidator bumps the cache version on every event.
func CacheInvalidator(b Bumper) Publisher {
	if b == nil {
		return nil
	}
	return PublisherFunc(func(ctx context.Context, _ Event) error {
		return b.Bump(ctx)
	})
}

// Counter records an event occurrence.
type Counter interface {
	RecordEvent(entity, action string)
}

// MetricsRecorder counts events per entity and action.
func MetricsRecorder(c Counter) Publisher {
	if c == nil {
		return nil
	}
	return PublisherFunc(func(_ context.Context, evt Event) error {
		c.RecordEvent(evt.Entity, evt.Action)
		return nil
	})
}
