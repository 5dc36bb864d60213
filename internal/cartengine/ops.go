package cartengine

import "github.com/dmatiushkin73/my-kiosk-backend/internal/domain/model"

// Update creates a cart for transactionID if one doesn't exist yet, then adds, increases or
// decreases the reservation of variantID by amount (negative amount removes). Mirrors
// CartLogic.update. This is the synchronous call the REST/UI surface makes directly; per the
// engine's single-worker design it is submitted onto the same channel as every
// asynchronously-triggered mutation, so a UI edit and a concurrent remote-cart update can never
// race each other.
func (e *Engine) Update(transactionID string, displayID int, cartType model.CartType, variantID, amount int) (model.OperationResult, string) {
	return e.submit(workItem{kind: kindUpdate, transactionID: transactionID, displayID: displayID,
		cartType: cartType, variantID: variantID, amount: amount})
}

// Clear removes a cart, its items and its reservations, and cancels any expiration timer on it.
// Mirrors CartLogic.clear.
func (e *Engine) Clear(transactionID string) (model.OperationResult, string) {
	return e.submit(workItem{kind: kindClear, transactionID: transactionID})
}

// Prolong resets a remote cart's prereservation expiration timer. Mirrors CartLogic.prolong.
func (e *Engine) Prolong(transactionID string) (model.OperationResult, string) {
	return e.submit(workItem{kind: kindProlong, transactionID: transactionID})
}

// Reserve promotes a remote cart from PRERESERVATION to RESERVED for pickup, recording orderInfo
// and starting the (long) reservation-hold timer. Mirrors CartLogic.reserve.
func (e *Engine) Reserve(transactionID, orderInfo string) (model.OperationResult, string) {
	return e.submit(workItem{kind: kindReserve, transactionID: transactionID, orderInfo: orderInfo})
}

// Dispense starts the dispensing process for a cart's contents. Mirrors CartLogic.dispense,
// including the TODO the source left for the dispensing hookup — here fully wired to the
// Dispensing Orchestrator (C7) via the Dispenser collaborator.
func (e *Engine) Dispense(transactionID string, displayID int) (model.OperationResult, string) {
	return e.submit(workItem{kind: kindDispense, transactionID: transactionID, displayID: displayID})
}

// BeginTransaction asynchronously pushes a cart's contents to the cloud to open a payment
// transaction; the result arrives later as a BEGIN_TRANSACTION_RESPONSE bus event (the REST
// surface's bounded wait on that event is internal/rest's concern, not this package's). Mirrors
// CartLogic._begin_transaction, triggered here directly rather than only via the bus so a local
// caller doesn't need to round-trip through its own event.
func (e *Engine) BeginTransaction(cartID int) {
	e.in <- workItem{kind: kindBeginTransaction, cartID: cartID}
}
