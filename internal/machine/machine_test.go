package machine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmatiushkin73/my-kiosk-backend/internal/domain/event"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/domain/model"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/eventbus"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/machine"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/platform/logger"
)

type fakePlanogram struct{ set bool }

func (f *fakePlanogram) IsPlanogramSet() bool { return f.set }

// S6 — machine FSM path from spec.md §8.
func TestMachine_S6_StartupToAvailableToMaintenance(t *testing.T) {
	log, err := logger.New(true)
	require.NoError(t, err)
	bus := eventbus.New(log)
	bus.Start()
	defer bus.Stop()

	pg := &fakePlanogram{set: false}
	var states []model.MachineState
	startupDone := make(chan struct{}, 1)

	bus.Subscribe(event.TypeMachineStateChanged, func(ev event.Event) {
		states = append(states, ev.Body.(event.MachineStateChangedBody).State)
	})
	bus.Subscribe(event.TypeStartupComplete, func(event.Event) {
		select {
		case startupDone <- struct{}{}:
		default:
		}
	})

	m := machine.New(log, bus, pg)
	m.Start()
	defer m.Stop()

	// HW_DISPENSER_IS_READY alone: still STARTUP (planogram not yet present).
	bus.Post(event.Event{Type: event.TypeHWDispenserIsReady})
	time.Sleep(250 * time.Millisecond)
	require.Empty(t, states)

	// Planogram becomes present, then PLANOGRAM_UPDATE_DONE fires -> AVAILABLE.
	pg.set = true
	bus.Post(event.Event{Type: event.TypePlanogramUpdateDone})

	require.Eventually(t, func() bool { return len(states) >= 1 }, time.Second, 10*time.Millisecond)
	require.Equal(t, model.MachineStateAvailable, states[0])

	select {
	case <-startupDone:
	case <-time.After(time.Second):
		t.Fatal("STARTUP_COMPLETE was never posted")
	}

	// Door opens -> MAINTENANCE.
	bus.Post(event.Event{Type: event.TypeDoorStateChanged, Body: event.DoorStateChangedBody{Open: true}})
	require.Eventually(t, func() bool { return len(states) >= 2 }, time.Second, 10*time.Millisecond)
	require.Equal(t, model.MachineStateMaintenance, states[1])
}
