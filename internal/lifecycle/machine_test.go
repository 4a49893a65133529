package lifecycle

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lightState string

const (
	red    lightState = "red"
	green  lightState = "green"
	yellow lightState = "yellow"
	broken lightState = "broken"
)

func newLightMachine() *Machine[lightState] {
	return NewMachine("light", red, []Rule[lightState]{
		{From: []lightState{red}, Action: "go", To: green},
		{From: []lightState{green}, Action: "slow", To: yellow},
		{From: []lightState{yellow}, Action: "stop", To: red},
		{From: []lightState{red, green, yellow}, Action: "break", To: broken},
	}, broken)
}

func TestApplyFollowsTable(t *testing.T) {
	m := newLightMachine()
	next, err := m.Apply(red, "go")
	require.NoError(t, err)
	assert.Equal(t, green, next)

	next, err = m.Apply(yellow, "break")
	require.NoError(t, err)
	assert.Equal(t, broken, next)
}

func TestApplyRejectsUnknownActionAndTerminal(t *testing.T) {
	m := newLightMachine()
	_, err := m.Apply(red, "slow")
	var tErr *InvalidTransitionError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, "light", tErr.Entity)
	assert.Equal(t, "red", tErr.From)
	assert.Equal(t, "slow", tErr.Action)
	assert.True(t, errors.Is(err, ErrInvalidTransition))

	assert.True(t, m.Terminal(broken))
	assert.Empty(t, m.Actions(broken))
	_, err = m.Apply(broken, "go")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestMachineIntrospection(t *testing.T) {
	m := newLightMachine()
	assert.Equal(t, red, m.Initial())
	assert.True(t, m.Valid(yellow))
	assert.False(t, m.Valid("blue"))
	assert.True(t, m.Can(green, "slow"))
	assert.Equal(t, []Action{"break", "go"}, m.Actions(red))
}

func TestTransitionProducesRecord(t *testing.T) {
	m := newLightMachine()
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.FixedZone("x", 3600))
	next, rec, err := Transition(m, 7, red, "go", 11, at)
	require.NoError(t, err)
	assert.Equal(t, green, next)
	assert.NotEqual(t, uuid.Nil, rec.ID)
	assert.Equal(t, Record{ID: rec.ID, Entity: "light", EntityID: 7, Action: "go", From: "red", To: "green", ActorID: 11, At: at.UTC()}, rec)

	same, rec, err := Transition(m, 7, green, "go", 11, at)
	assert.Error(t, err)
	assert.Equal(t, green, same)
	assert.Equal(t, Record{}, rec)
}
