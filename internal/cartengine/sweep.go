package cartengine

import (
	"context"
	"time"

	"github.com/dmatiushkin73/my-kiosk-backend/internal/domain/event"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/domain/model"
)

// sweep walks the three expiration lists and processes anything past its deadline. Mirrors
// CartLogic._exp_list_process, resolving Open Question #5: each of the three passes builds and
// consumes its own local slice of expired entries, rather than the source's single
// items_to_erase variable reused (and silently emptied via .clear()) across all three passes.
func (e *Engine) sweep(ctx context.Context) {
	now := time.Now()

	var shortExpired []expirationItem
	for _, it := range e.expList {
		if now.After(it.expAt) {
			shortExpired = append(shortExpired, it)
		}
	}
	for _, it := range shortExpired {
		cart, err := e.repo.GetCart(ctx, it.objID)
		if err != nil || cart == nil {
			e.log.Warn("cart is expired but was not found in storage", "cart_id", it.objID)
		} else {
			if cart.Status == model.CartStatusPrereservation {
				e.bus.Post(event.Event{Type: event.TypeReservationCompleted, Body: event.ReservationCompletedBody{
					TransactionID: cart.TransactionID, Status: model.ReservationCompletionExpired,
				}})
			}
			_ = e.repo.DeleteCart(ctx, cart.ID)
			e.log.Debug("cart expired and cleared", "cart_id", cart.ID)
		}
	}
	e.expList = removeAll(e.expList, shortExpired)

	e.sweepTickCount++
	if e.sweepTickCount < sweepTicksPerMinute {
		return
	}
	e.sweepTickCount = 0

	var reservationExpired []expirationItem
	for _, it := range e.reservationExpList {
		if now.After(it.expAt) {
			reservationExpired = append(reservationExpired, it)
		}
	}
	for _, it := range reservationExpired {
		cart, err := e.repo.GetCart(ctx, it.objID)
		if err != nil || cart == nil {
			e.log.Warn("remote cart is expired but was not found in storage", "cart_id", it.objID)
			continue
		}
		e.bus.Post(event.Event{Type: event.TypeReservationCompleted, Body: event.ReservationCompletedBody{
			TransactionID: cart.TransactionID, Status: model.ReservationCompletionExpired,
		}})
		rec := &model.OrderHistoryRecord{
			TransactionID: cart.TransactionID, OrderInfo: cart.OrderInfo,
			CompletionStatus: model.ReservationCompletionExpired, CreatedAt: time.Now().Unix(),
		}
		if err := e.repo.PutOrderHistoryRecord(ctx, rec); err == nil {
			e.orderHistExpList = append(e.orderHistExpList, expirationItem{objID: rec.ID, expAt: time.Now().Add(e.cfg.OrderHistoryTimeout)})
		}
		_ = e.repo.DeleteCart(ctx, cart.ID)
		e.log.Debug("remote cart expired and cleared", "cart_id", cart.ID)
	}
	e.reservationExpList = removeAll(e.reservationExpList, reservationExpired)

	var historyExpired []expirationItem
	for _, it := range e.orderHistExpList {
		if now.After(it.expAt) {
			historyExpired = append(historyExpired, it)
		}
	}
	for _, it := range historyExpired {
		if err := e.repo.DeleteOrderHistoryRecord(ctx, it.objID); err != nil {
			e.log.Error("db error clearing expired order history record", "record_id", it.objID, "error", err)
		} else {
			e.log.Debug("order history record expired and cleared", "record_id", it.objID)
		}
	}
	e.orderHistExpList = removeAll(e.orderHistExpList, historyExpired)
}

func removeAll(list, toRemove []expirationItem) []expirationItem {
	if len(toRemove) == 0 {
		return list
	}
	remove := make(map[int]struct{}, len(toRemove))
	for _, it := range toRemove {
		remove[it.objID] = struct{}{}
	}
	out := list[:0]
	for _, it := range list {
		if _, drop := remove[it.objID]; !drop {
			out = append(out, it)
		}
	}
	return out
}
