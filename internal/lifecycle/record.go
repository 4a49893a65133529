package lifecycle

import (
	"time"

	"github.com/google/uuid"
)

// SystemActor is used for transitions no person triggered, such as overdue evaluation.
const SystemActor int64 = 0

// Record is one applied transition.
type Record struct {
	ID       uuid.UUID `json:"id"`
	Entity   string    `json:"entity"`
	EntityID int64     `json:"entity_id"`
	Action   string    `json:"action"`
	From     string    `json:"from"`
	To       string    `json:"to"`
	ActorID  int64     `json:"actor_id"`
	At       time.Time `json:"at"`
}

// NewRecord stamps a transition with a fresh identifier.
func NewRecord[S ~string](entity string, entityID int64, action Action, from, to S, actorID int64, at time.Time) Record {
	return Record{
		ID:       uuid.New(),
		Entity:   entity,
		EntityID: entityID,
		Action:   string(action),
		From:     string(from),
		To:       string(to),
		ActorID:  actorID,
		At:       at.UTC(),
	}
}

// Transition applies action on the machine and returns the new state with its record.
func Transition[S ~string](m *Machine[S], entityID int64, from S, action Action, actorID int64, at time.Time) (S, Record, error) {
	next, err := m.Apply(from, action)
	if err != nil {
		return from, Record{}, err
	}
	return next, NewRecord(m.entity, entityID, action, from, next, actorID, at), nil
}
