package cartengine

import (
	"context"
	"time"

	"github.com/dmatiushkin73/my-kiosk-backend/internal/domain/model"
)

// onStartup reconciles persisted carts and order-history records against the sweep timers:
// carts close enough to their original deadline are re-added to the right expiration list with
// their remaining time; everything else (including any cart in a status this engine cannot
// safely resume) is dropped. Mirrors CartLogic._on_startup.
func (e *Engine) onStartup(ctx context.Context) {
	carts, err := e.repo.ListCarts(ctx)
	if err != nil {
		e.log.Error("db error loading carts during startup recovery", "error", err)
	} else {
		now := time.Now()
		for _, cart := range carts {
			lockedAt := time.Unix(cart.LockedAt, 0)
			passed := now.Sub(lockedAt)
			switch {
			case cart.Type == model.CartTypeRemote && cart.Status == model.CartStatusReserved && passed < e.cfg.ReservationTimeout:
				remaining := e.cfg.ReservationTimeout - passed
				e.reservationExpList = append(e.reservationExpList, expirationItem{objID: cart.ID, expAt: time.Now().Add(remaining)})
				e.log.Debug("remote cart added to reservation expiration list on startup", "cart_id", cart.ID, "remaining", remaining)
			case cart.Status == model.CartStatusCheckout && passed < e.cfg.ExpirationTimeout:
				remaining := e.cfg.ExpirationTimeout - passed
				e.expList = append(e.expList, expirationItem{objID: cart.ID, expAt: time.Now().Add(remaining)})
				e.log.Debug("local cart added to expiration list on startup", "cart_id", cart.ID, "remaining", remaining)
			default:
				if err := e.repo.DeleteCart(ctx, cart.ID); err != nil {
					e.log.Error("db error clearing obsolete cart on startup", "cart_id", cart.ID, "error", err)
				} else {
					e.log.Debug("obsolete cart cleared on startup", "cart_id", cart.ID)
				}
			}
		}
	}

	records, err := e.repo.ListOrderHistoryRecords(ctx)
	if err != nil {
		e.log.Error("db error loading order history during startup recovery", "error", err)
		return
	}
	now := time.Now()
	for _, rec := range records {
		createdAt := time.Unix(rec.CreatedAt, 0)
		passed := now.Sub(createdAt)
		if passed < e.cfg.OrderHistoryTimeout {
			remaining := e.cfg.OrderHistoryTimeout - passed
			e.orderHistExpList = append(e.orderHistExpList, expirationItem{objID: rec.ID, expAt: time.Now().Add(remaining)})
			e.log.Debug("order history record added to expiration list on startup", "record_id", rec.ID, "remaining", remaining)
		} else if err := e.repo.DeleteOrderHistoryRecord(ctx, rec.ID); err != nil {
			e.log.Error("db error clearing obsolete order history record on startup", "record_id", rec.ID, "error", err)
		}
	}
}
