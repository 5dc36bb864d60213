// Package cartengine implements the Cart & Reservation Engine (C5), grounded on
// original_source/logic/cart.py. A single worker goroutine owns every mutation of carts, cart
// items and reservations; public methods submit work onto it and block for the reply, so the
// "synchronous" UI-facing calls and the asynchronous cloud/bus-triggered ones share one code
// path and one ordering guarantee.
package cartengine

import (
	"time"

	"github.com/dmatiushkin73/my-kiosk-backend/internal/domain/model"
)

type workKind int

const (
	kindUpdate workKind = iota
	kindClear
	kindProlong
	kindReserve
	kindDispense
	kindBeginTransaction
	kindPlanogramUpdated
	kindPurchaseFinished
	kindTransactionCompleted
	kindReservationRequestUpdate
	kindReservationRequestCancel
	kindReservationRequestProlong
	kindReservationRequestConfirm
	kindProcessPendingReservations
	kindSweep
)

// opResult is what every public operation eventually receives back from the worker.
type opResult struct {
	res model.OperationResult
	msg string
}

// workItem is the single unit of work exchanged with the worker goroutine. Only the fields
// relevant to kind are populated; reply is nil for internally-triggered work that has no
// synchronous caller waiting.
type workItem struct {
	kind workKind
	reply chan opResult

	transactionID string
	displayID     int
	cartType      model.CartType
	variantID     int
	amount        int
	orderInfo     string
	requestID     int
	pickupCode    string
	cartID        int
	success       bool

	pending pendingDispensingItem
}

// expirationItem is one entry in a sweep list: an object id and the monotonic deadline it
// expires at.
type expirationItem struct {
	objID int
	expAt time.Time
}

// pendingDispensingItem is a cart whose dispensing start was deferred because the Dispensing
// Orchestrator (C7) was not able to accept it immediately.
type pendingDispensingItem struct {
	cartID       int
	reservations []*model.Reservation
}

// Dispenser is C5's view of the Dispensing Orchestrator (C7): a narrow collaborator interface
// so this package does not need to import the Temporal workflow client directly. StartDispensing
// reports whether the orchestrator took ownership of the reservations now; false means C5 queues
// the cart and retries it once PURCHASE_FINISHED frees a dispensing slot.
type Dispenser interface {
	StartDispensing(cartID int, reservations []*model.Reservation) bool
}
