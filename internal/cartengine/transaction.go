package cartengine

import (
	"context"
	"errors"
	"time"

	"github.com/dmatiushkin73/my-kiosk-backend/internal/domain/event"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/domain/model"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/domain/shared"
)

// doBeginTransaction pushes a cart's contents to the cloud to open a payment transaction and
// broadcasts the outcome as BEGIN_TRANSACTION_RESPONSE. Mirrors CartLogic._begin_transaction.
func (e *Engine) doBeginTransaction(ctx context.Context, cartID int) {
	ok := false
	defer func() {
		e.bus.Post(event.Event{Type: event.TypeBeginTransactionResp, Body: event.BeginTransactionResponseBody{
			CartID: cartID, Success: ok,
		}})
	}()

	cart, err := e.repo.GetCart(ctx, cartID)
	if err != nil || cart == nil {
		e.log.Error("trying to begin transaction for a cart that does not exist", "cart_id", cartID)
		return
	}
	items, err := e.repo.ListCartItems(ctx, cartID)
	if err != nil {
		e.log.Error("db error loading cart items to begin transaction", "cart_id", cartID, "error", err)
		return
	}
	if len(items) == 0 {
		e.log.Error("trying to begin transaction for an empty cart", "cart_id", cartID)
		return
	}

	products := make([]map[string]any, 0, len(items))
	for _, item := range items {
		products = append(products, map[string]any{"id": item.VariantID, "qty": item.Amount})
	}
	req := map[string]any{"deviceId": "", "products": products}

	resp, err := e.cloud.PostWithResponse(ctx, "transaction", req)
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrCloudNotFound):
			e.log.Error("transaction POST API is not configured in the cloud client")
		case errors.Is(err, shared.ErrCloudFormat):
			e.log.Error("transaction POST API returned a malformed response", "error", err)
		case errors.Is(err, shared.ErrCloudServer):
			e.log.Error("failed to post transaction data to the cloud", "error", err)
		case errors.Is(err, shared.ErrCloudConnection):
			e.log.Error("failed to connect to the cloud to post transaction data", "error", err)
		case errors.Is(err, shared.ErrCloudTimeout):
			e.log.Error("posting transaction data to the cloud timed out")
		default:
			e.log.Error("unexpected error posting transaction data", "error", err)
		}
		return
	}
	txID, valid := resp["transactionId"].(string)
	if !valid {
		e.log.Error("initiate transaction response is malformed", "cart_id", cartID)
		return
	}

	cart.TransactionID = txID
	cart.Status = model.CartStatusCheckout
	cart.LockedAt = time.Now().Unix()
	if err := e.repo.PutCart(ctx, cart); err != nil {
		e.log.Error("db error persisting cart after beginning transaction", "cart_id", cartID, "error", err)
		return
	}
	e.expList = append(e.expList, expirationItem{objID: cartID, expAt: time.Now().Add(e.cfg.ExpirationTimeout)})
	ok = true
}

// processReservationUpdate applies an Online Shopping portal reservation update request to the
// matching remote cart and reports the outcome back to the cloud. Mirrors
// CartLogic._process_reservation_update.
func (e *Engine) processReservationUpdate(ctx context.Context, transactionID string, variantID, amount, requestID int) {
	res, _ := e.doUpdate(ctx, transactionID, 0, model.CartTypeRemote, variantID, amount)
	resp := map[string]any{
		"deviceId": "", "transactionId": transactionID, "requestId": requestID, "result": res == model.ResultOK,
	}
	if err := e.cloud.Post(ctx, "prereservation", resp); err != nil {
		switch {
		case errors.Is(err, shared.ErrCloudNotFound):
			e.log.Error("prereservation POST API is not configured in the cloud client")
		case errors.Is(err, shared.ErrCloudServer):
			e.log.Error("failed to post prereservation response to the cloud", "error", err)
		case errors.Is(err, shared.ErrCloudConnection):
			e.log.Error("failed to connect to the cloud to post prereservation response", "error", err)
		case errors.Is(err, shared.ErrCloudTimeout):
			e.log.Error("posting prereservation response timed out")
		default:
			e.log.Error("unexpected error posting prereservation response", "error", err)
		}
	}
}

// processPurchaseFinished reacts to a completed dispensing run: remote carts get an order
// history record and a RESERVATION_COMPLETED(DISPENSED) notification, then the cart is removed.
// If a dispensing request had been queued behind this one, it's retried now. Mirrors
// CartLogic._process_purchase_finished; unlike the source (which calls this synchronously from
// the event-delivery thread), every caller here goes through the worker channel so cart mutation
// has exactly one writer.
func (e *Engine) processPurchaseFinished(ctx context.Context, cartID int) {
	e.log.Debug("processing purchase finished", "cart_id", cartID)
	cart, err := e.repo.GetCart(ctx, cartID)
	if err != nil || cart == nil {
		e.log.Warn("purchase finished but cart was not found", "cart_id", cartID)
	} else {
		if cart.Type == model.CartTypeRemote {
			e.bus.Post(event.Event{Type: event.TypeReservationCompleted, Body: event.ReservationCompletedBody{
				TransactionID: cart.TransactionID, Status: model.ReservationCompletionDispensed,
			}})
			rec := &model.OrderHistoryRecord{
				TransactionID: cart.TransactionID, OrderInfo: cart.OrderInfo,
				CompletionStatus: model.ReservationCompletionDispensed, CreatedAt: time.Now().Unix(),
			}
			if err := e.repo.PutOrderHistoryRecord(ctx, rec); err == nil {
				e.orderHistExpList = append(e.orderHistExpList, expirationItem{objID: rec.ID, expAt: time.Now().Add(e.cfg.OrderHistoryTimeout)})
			}
		}
		_ = e.repo.DeleteCart(ctx, cart.ID)
	}

	if len(e.pendingDispensing) > 0 {
		next := e.pendingDispensing[0]
		e.pendingDispensing = e.pendingDispensing[1:]
		e.processPendingReservations(ctx, next)
	}
}

// processPendingReservations retries starting dispensing for a cart that was previously queued
// because the orchestrator could not accept it. Mirrors CartLogic._process_pending_reservations.
func (e *Engine) processPendingReservations(ctx context.Context, pending pendingDispensingItem) {
	e.log.Debug("processing pending reservations", "cart_id", pending.cartID)
	cart, err := e.repo.GetCart(ctx, pending.cartID)
	if err != nil || cart == nil {
		e.log.Error("pending cart does not exist", "cart_id", pending.cartID)
		return
	}
	if e.dispenser.StartDispensing(cart.ID, pending.reservations) {
		cart.Status = model.CartStatusDispensing
		if err := e.repo.PutCart(ctx, cart); err != nil {
			e.log.Error("db error persisting cart after starting queued dispensing", "cart_id", cart.ID, "error", err)
		}
	} else {
		e.log.Info("dispensing orchestrator is still busy, re-queuing cart", "cart_id", cart.ID)
		e.pendingDispensing = append(e.pendingDispensing, pending)
	}
}
