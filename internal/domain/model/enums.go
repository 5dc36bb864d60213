package model

// MaxUnits is the number of dispenser units a kiosk can host. The reference deployments
// this system targets are all single-unit.
const MaxUnits = 1

// MaxDisplays is the number of user-facing touchscreens a kiosk exposes.
const MaxDisplays = 2

// NonexistentDisplayID marks a cart that was not created from a specific display (e.g. a
// REMOTE cart originating from a mobile order).
const NonexistentDisplayID = 0

// AccessLevel gates the admin/maintenance surface (C9).
type AccessLevel int

const (
	AccessLevelCustomer AccessLevel = iota
	AccessLevelAdmin
)

// CartStatus is the lifecycle stage of a Cart. Values are ordered; progression is monotonic
// except for removal, which is always allowed from any status.
type CartStatus int

const (
	CartStatusCreated CartStatus = iota
	CartStatusPrereservation
	CartStatusReserved
	CartStatusCheckout
	CartStatusDispensing
	CartStatusComplete
)

func (s CartStatus) String() string {
	switch s {
	case CartStatusCreated:
		return "CREATED"
	case CartStatusPrereservation:
		return "PRERESERVATION"
	case CartStatusReserved:
		return "RESERVED"
	case CartStatusCheckout:
		return "CHECKOUT"
	case CartStatusDispensing:
		return "DISPENSING"
	case CartStatusComplete:
		return "COMPLETE"
	default:
		return "UNKNOWN"
	}
}

// CheckoutMethod records how a cart was (or will be) paid for or collected; REMOTE carts get
// CheckoutMethodPickup when reserved.
type CheckoutMethod int

const (
	CheckoutMethodUndefined CheckoutMethod = iota
	CheckoutMethodMobile
	CheckoutMethodLocal
	CheckoutMethodPickup
)

// CartType distinguishes a cart built at the kiosk touchscreen from one created remotely
// (mobile app ordering ahead for pickup).
type CartType int

const (
	CartTypeUndefined CartType = iota
	CartTypeLocal
	CartTypeRemote
)

func (t CartType) String() string {
	switch t {
	case CartTypeLocal:
		return "LOCAL"
	case CartTypeRemote:
		return "REMOTE"
	default:
		return "UNDEFINED"
	}
}

// ReservationCompletionStatus is the terminal reason an OrderHistoryRecord was created.
type ReservationCompletionStatus int

const (
	ReservationCompletionExpired ReservationCompletionStatus = iota + 1
	ReservationCompletionDispensed
)

func (s ReservationCompletionStatus) String() string {
	if s == ReservationCompletionDispensed {
		return "DISPENSED"
	}
	return "EXPIRED"
}

// MachineState is the observable, aggregate state of the kiosk (C6).
type MachineState int

const (
	MachineStateStartup MachineState = iota + 1
	MachineStateAvailable
	MachineStateUnavailable
	MachineStateBusy
	MachineStateMaintenance
	MachineStateError
	MachineStateUpdate
)

func (s MachineState) String() string {
	switch s {
	case MachineStateStartup:
		return "STARTUP"
	case MachineStateAvailable:
		return "AVAILABLE"
	case MachineStateUnavailable:
		return "UNAVAILABLE"
	case MachineStateBusy:
		return "BUSY"
	case MachineStateMaintenance:
		return "MAINTENANCE"
	case MachineStateError:
		return "ERROR"
	case MachineStateUpdate:
		return "UPDATE"
	default:
		return "UNKNOWN"
	}
}

// DispensingStatus reports progress of a single dispensed line item, posted as the body of
// a DISPENSING_STATUS event.
type DispensingStatus int

const (
	DispensingStartedOneItem DispensingStatus = iota + 1
	DispensingFinishedOneItem
	DispensingErrorOneItem
	DispensingWaitingForPickup
	DispensingCompleted
)
