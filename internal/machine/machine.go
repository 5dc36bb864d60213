// Package machine implements the aggregate kiosk state (C6), grounded line-for-line on
// original_source/logic/machine.py: the same state set, the same five boolean latches, and the
// same transition predicates, wired to internal/fsm and internal/eventbus.
package machine

import (
	"github.com/dmatiushkin73/my-kiosk-backend/internal/domain/event"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/domain/model"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/eventbus"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/fsm"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/platform/logger"
)

// PlanogramPresence is polled to decide the AVAILABLE/UNAVAILABLE split; satisfied by
// internal/planogram's synchronizer.
type PlanogramPresence interface {
	IsPlanogramSet() bool
}

// inputEvent is the internal, serialized-onto-one-goroutine signal the worker processes.
// Mirrors the source's AppModuleWithEvents._event_q, translated to a buffered channel.
type inputEvent struct {
	kind      inputKind
	doorOpen  bool
}

type inputKind int

const (
	inputHWReady inputKind = iota
	inputDoorStateChanged
	inputPlanogramUpdated
)

// Machine owns the machine-state FSM and its five boolean latches. All latch mutation and FSM
// stepping happens on a single worker goroutine fed by an unbounded-ish buffered channel, the
// same single-consumer-queue shape every other core component uses.
type Machine struct {
	log       logger.Logger
	bus       *eventbus.Bus
	planogram PlanogramPresence
	machine   *fsm.FSM[model.MachineState]

	dispenserReady       bool
	doorOpen             bool
	hwErrorIndicated     bool
	dispensingInProgress bool

	in   chan inputEvent
	stop chan struct{}
	done chan struct{}
}

// New builds the machine FSM wiring. Call Start to subscribe to the bus and begin processing.
func New(log logger.Logger, bus *eventbus.Bus, planogram PlanogramPresence) *Machine {
	m := &Machine{
		log:       log.Named("machine"),
		bus:       bus,
		planogram: planogram,
		in:        make(chan inputEvent, 64),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	m.machine = fsm.New[model.MachineState](m.log)
	m.initFSM()
	return m
}

func (m *Machine) initFSM() {
	f := m.machine
	f.AddState(model.MachineStateStartup, "STARTUP", nil, m.onStartupComplete, true)
	f.AddState(model.MachineStateAvailable, "AVAILABLE", m.onStateChanged, nil, false)
	f.AddState(model.MachineStateUnavailable, "UNAVAILABLE", m.onStateChanged, nil, false)
	f.AddState(model.MachineStateBusy, "BUSY", m.onStateChanged, nil, false)
	f.AddState(model.MachineStateMaintenance, "MAINTENANCE", m.onStateChanged, nil, false)
	f.AddState(model.MachineStateError, "ERROR", m.onStateChanged, nil, false)
	f.AddState(model.MachineStateUpdate, "UPDATE", m.onStateChanged, nil, false)

	f.AddTransition(model.MachineStateStartup, model.MachineStateAvailable, m.checkAvailable)
	f.AddTransition(model.MachineStateStartup, model.MachineStateMaintenance, m.checkMaintenance)
	f.AddTransition(model.MachineStateStartup, model.MachineStateError, m.checkError)

	f.AddTransition(model.MachineStateAvailable, model.MachineStateUnavailable, m.checkUnavailable)
	f.AddTransition(model.MachineStateAvailable, model.MachineStateBusy, m.checkBusy)
	f.AddTransition(model.MachineStateAvailable, model.MachineStateMaintenance, m.checkMaintenance)
	f.AddTransition(model.MachineStateAvailable, model.MachineStateError, m.checkError)
	f.AddTransition(model.MachineStateAvailable, model.MachineStateUpdate, m.checkUpdate)

	f.AddTransition(model.MachineStateUnavailable, model.MachineStateAvailable, m.checkAvailable)
	f.AddTransition(model.MachineStateUnavailable, model.MachineStateMaintenance, m.checkMaintenance)
	f.AddTransition(model.MachineStateUnavailable, model.MachineStateError, m.checkError)
	f.AddTransition(model.MachineStateUnavailable, model.MachineStateUpdate, m.checkUpdate)

	f.AddTransition(model.MachineStateBusy, model.MachineStateAvailable, m.checkAvailable)
	f.AddTransition(model.MachineStateBusy, model.MachineStateError, m.checkError)

	f.AddTransition(model.MachineStateMaintenance, model.MachineStateAvailable, m.checkAvailable)
	f.AddTransition(model.MachineStateMaintenance, model.MachineStateUnavailable, m.checkUnavailable)
	f.AddTransition(model.MachineStateMaintenance, model.MachineStateError, m.checkError)

	f.AddTransition(model.MachineStateError, model.MachineStateAvailable, m.checkAvailable)
	f.AddTransition(model.MachineStateError, model.MachineStateMaintenance, m.checkMaintenance)
	// Matches the source verbatim: ERROR -> UPDATE is guarded by checkError, not checkUpdate.
	f.AddTransition(model.MachineStateError, model.MachineStateUpdate, m.checkError)
}

// Start subscribes to the bus and begins the worker goroutine.
func (m *Machine) Start() {
	m.bus.Subscribe(event.TypeHWDispenserIsReady, func(event.Event) {
		m.in <- inputEvent{kind: inputHWReady}
	})
	m.bus.Subscribe(event.TypeDoorStateChanged, func(ev event.Event) {
		body := ev.Body.(event.DoorStateChangedBody)
		m.in <- inputEvent{kind: inputDoorStateChanged, doorOpen: body.Open}
	})
	m.bus.Subscribe(event.TypePlanogramUpdateDone, func(event.Event) {
		m.in <- inputEvent{kind: inputPlanogramUpdated}
	})
	go m.run()
	m.log.Info("machine fsm started")
}

// Stop drains the worker to a sentinel close and exits.
func (m *Machine) Stop() {
	close(m.stop)
	<-m.done
	m.log.Info("machine fsm stopped")
}

// SetHardwareError is an admin/diagnostic entrypoint that forces the hw_error latch, e.g. from a
// hardware watchdog outside the bus. Nothing in this module calls it.
func (m *Machine) SetHardwareError(isError bool) {
	m.hwErrorIndicated = isError
	m.machine.Step()
}

// SetDispensingInProgress sets the dispensing_in_progress latch when a dispense begins or ends.
// Neither the cart engine (C5) nor the dispensing orchestrator (C7) calls it.
func (m *Machine) SetDispensingInProgress(inProgress bool) {
	m.dispensingInProgress = inProgress
	m.machine.Step()
}

func (m *Machine) run() {
	defer close(m.done)
	for {
		select {
		case <-m.stop:
			if len(m.in) == 0 {
				return
			}
		case in := <-m.in:
			switch in.kind {
			case inputHWReady:
				m.dispenserReady = true
				m.machine.Step()
			case inputDoorStateChanged:
				m.doorOpen = in.doorOpen
				m.machine.Step()
			case inputPlanogramUpdated:
				m.machine.Step()
			}
		}
	}
}

func (m *Machine) onStateChanged() {
	m.bus.Post(event.Event{
		Type: event.TypeMachineStateChanged,
		Body: event.MachineStateChangedBody{State: m.machine.Current()},
	})
}

func (m *Machine) onStartupComplete() {
	m.bus.Post(event.Event{Type: event.TypeStartupComplete})
}

func (m *Machine) checkAvailable() bool {
	return m.planogram.IsPlanogramSet() && m.dispenserReady && !m.doorOpen &&
		!m.hwErrorIndicated && !m.dispensingInProgress
}

func (m *Machine) checkUnavailable() bool {
	return !m.planogram.IsPlanogramSet() && m.dispenserReady && !m.doorOpen &&
		!m.hwErrorIndicated && !m.dispensingInProgress
}

func (m *Machine) checkBusy() bool { return m.dispensingInProgress }

func (m *Machine) checkMaintenance() bool { return m.doorOpen }

func (m *Machine) checkError() bool { return m.hwErrorIndicated && !m.doorOpen }

func (m *Machine) checkUpdate() bool {
	// Reserved for the software-update flow; the source leaves this condition unimplemented.
	return false
}
