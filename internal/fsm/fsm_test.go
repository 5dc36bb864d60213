package fsm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmatiushkin73/my-kiosk-backend/internal/fsm"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/platform/logger"
)

type state int

const (
	stateA state = iota
	stateB
	stateC
)

func newTestFSM(t *testing.T) *fsm.FSM[state] {
	t.Helper()
	log, err := logger.New(true)
	require.NoError(t, err)
	return fsm.New[state](log)
}

func TestFSM_FirstTruePredicateWins(t *testing.T) {
	m := newTestFSM(t)
	entered := map[state]int{}
	m.AddState(stateA, "A", nil, nil, true)
	m.AddState(stateB, "B", func() { entered[stateB]++ }, nil, false)
	m.AddState(stateC, "C", func() { entered[stateC]++ }, nil, false)

	// Both transitions would fire; B is registered first and must win.
	m.AddTransition(stateA, stateB, func() bool { return true })
	m.AddTransition(stateA, stateC, func() bool { return true })

	m.Step()
	assert.Equal(t, stateB, m.Current())
	assert.Equal(t, 1, entered[stateB])
	assert.Equal(t, 0, entered[stateC])
}

func TestFSM_NoTransitionLeavesStateUnchanged(t *testing.T) {
	m := newTestFSM(t)
	m.AddState(stateA, "A", nil, nil, true)
	m.AddState(stateB, "B", nil, nil, false)
	m.AddTransition(stateA, stateB, func() bool { return false })

	m.Step()
	assert.Equal(t, stateA, m.Current())
}

func TestFSM_IdempotentReevaluation(t *testing.T) {
	m := newTestFSM(t)
	enterCount := 0
	m.AddState(stateA, "A", nil, nil, true)
	m.AddState(stateB, "B", func() { enterCount++ }, nil, false)
	cond := true
	m.AddTransition(stateA, stateB, func() bool { return cond })
	m.AddTransition(stateB, stateA, func() bool { return !cond })

	m.Step()
	assert.Equal(t, stateB, m.Current())
	m.Step() // cond unchanged, no self-transition configured from B on true cond
	assert.Equal(t, stateB, m.Current())
	assert.Equal(t, 1, enterCount)
}

func TestFSM_ExitThenEnterOrder(t *testing.T) {
	m := newTestFSM(t)
	var seq []string
	m.AddState(stateA, "A", nil, func() { seq = append(seq, "exitA") }, true)
	m.AddState(stateB, "B", func() { seq = append(seq, "enterB") }, nil, false)
	m.AddTransition(stateA, stateB, func() bool { return true })

	m.Step()
	assert.Equal(t, []string{"exitA", "enterB"}, seq)
}
