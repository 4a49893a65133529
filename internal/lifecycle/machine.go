// Package lifecycle holds the status state machines shared by every entity.
// Each entity declares a table of (state, action) → next state rules; anything
// outside the table is rejected with an InvalidTransitionError.
package lifecycle

import (
	"errors"
	"fmt"
	"sort"
)

// Action names a lifecycle verb such as "send" or "approve".
type Action string

// ErrInvalidTransition is the sentinel behind InvalidTransitionError.
var ErrInvalidTransition = errors.New("invalid transition")

// InvalidTransitionError names the current state and the attempted action.
type InvalidTransitionError struct {
	Entity string
	From   string
	Action string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s: cannot %s from status %q", e.Entity, e.Action, e.From)
}

func (e *InvalidTransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// Rule allows Action from any of the From states, moving to To.
type Rule[S ~string] struct {
	From   []S
	Action Action
	To     S
}

// Machine is an immutable transition table.
type Machine[S ~string] struct {
	entity   string
	initial  S
	states   map[S]struct{}
	table    map[S]map[Action]S
	terminal map[S]struct{}
}

// NewMachine builds a machine. States named only as terminal are still valid states.
func NewMachine[S ~string](entity string, initial S, rules []Rule[S], terminal ...S) *Machine[S] {
	m := &Machine[S]{
		entity:   entity,
		initial:  initial,
		states:   map[S]struct{}{initial: {}},
		table:    make(map[S]map[Action]S),
		terminal: make(map[S]struct{}, len(terminal)),
	}
	for _, rule := range rules {
		m.states[rule.To] = struct{}{}
		for _, from := range rule.From {
			m.states[from] = struct{}{}
			if _, ok := m.table[from]; !ok {
				m.table[from] = make(map[Action]S)
			}
			m.table[from][rule.Action] = rule.To
		}
	}
	for _, s := range terminal {
		m.states[s] = struct{}{}
		m.terminal[s] = struct{}{}
		delete(m.table, s)
	}
	return m
}

// Entity returns the entity name used in errors and records.
func (m *Machine[S]) Entity() string { return m.entity }

// Initial is the status new records are created in.
func (m *Machine[S]) Initial() S { return m.initial }

// Apply returns the next state or an *InvalidTransitionError.
func (m *Machine[S]) Apply(from S, action Action) (S, error) {
	if next, ok := m.table[from][action]; ok {
		return next, nil
	}
	return from, &InvalidTransitionError{Entity: m.entity, From: string(from), Action: string(action)}
}

// Can reports whether action is allowed from the state.
func (m *Machine[S]) Can(from S, action Action) bool {
	_, ok := m.table[from][action]
	return ok
}

// Valid reports whether s is a known state.
func (m *Machine[S]) Valid(s S) bool {
	_, ok := m.states[s]
	return ok
}

// Terminal reports whether no action leaves s.
func (m *Machine[S]) Terminal(s S) bool {
	_, ok := m.terminal[s]
	return ok
}

// Actions lists the actions available from a state in lexical order.
func (m *Machine[S]) Actions(from S) []Action {
	actions := make([]Action, 0, len(m.table[from]))
	for a := range m.table[from] {
		actions = append(actions, a)
	}
	sort.Slice(actions, func(i, j int) bool { return actions[i] < actions[j] })
	return actions
}
