package cartengine

import (
	"context"
	"time"

	"github.com/dmatiushkin73/my-kiosk-backend/internal/domain/model"
)

func (e *Engine) setPrereservationTimer(cartID int, restart bool) {
	if restart {
		e.cancelCartExpirationTm(cartID)
	}
	e.expList = append(e.expList, expirationItem{objID: cartID, expAt: time.Now().Add(e.cfg.PrereservationTimeout)})
}

func (e *Engine) cancelCartExpirationTm(cartID int) {
	for i, it := range e.expList {
		if it.objID == cartID {
			e.expList = append(e.expList[:i], e.expList[i+1:]...)
			return
		}
	}
}

func (e *Engine) cancelCartReservationExpirationTm(cartID int) {
	for i, it := range e.reservationExpList {
		if it.objID == cartID {
			e.reservationExpList = append(e.reservationExpList[:i], e.reservationExpList[i+1:]...)
			return
		}
	}
}

// doUpdate is CartLogic.update.
func (e *Engine) doUpdate(ctx context.Context, transactionID string, displayID int, cartType model.CartType, variantID, amount int) (model.OperationResult, string) {
	e.log.Debug("handling cart update", "transaction_id", transactionID)
	if amount == 0 {
		e.log.Warn("requested cart update with zero amount")
		return model.ResultError, "amount cannot be 0"
	}

	isNewCart := false
	cart, err := e.repo.GetCartByTransactionID(ctx, transactionID)
	if err != nil && !isNotFound(err) {
		return model.ResultError, "internal error"
	}
	if cart == nil {
		status := model.CartStatusPrereservation
		if cartType == model.CartTypeLocal {
			status = model.CartStatusCreated
		}
		cart = &model.Cart{DisplayID: displayID, TransactionID: transactionID, Type: cartType, Status: status}
		if err := e.repo.PutCart(ctx, cart); err != nil {
			return model.ResultError, "internal error"
		}
		isNewCart = true
		if cart.Status == model.CartStatusPrereservation {
			e.setPrereservationTimer(cart.ID, false)
		}
	}

	items, err := e.repo.ListCartItems(ctx, cart.ID)
	if err != nil {
		return model.ResultError, "internal error"
	}

	var existing *model.CartItem
	for _, it := range items {
		if it.VariantID == variantID {
			existing = it
			break
		}
	}

	res, msg := model.ResultOK, ""
	switch {
	case existing == nil && amount > 0:
		if e.doReservation(ctx, cart.ID, variantID, amount) {
			if err := e.repo.PutCartItem(ctx, &model.CartItem{CartID: cart.ID, VariantID: variantID, Amount: amount}); err != nil {
				return model.ResultError, "internal error"
			}
			e.log.Debug("added items to cart", "variant_id", variantID, "amount", amount)
		} else {
			e.log.Warn("failed to add items to cart, insufficient stock", "variant_id", variantID)
			res, msg = model.ResultNOK, ""
		}
	case existing == nil && amount < 0:
		e.log.Warn("requested to remove items not yet in the cart", "variant_id", variantID)
		res, msg = model.ResultError, "cannot remove not yet added items"
	case existing != nil && amount > 0:
		if e.doReservation(ctx, cart.ID, variantID, amount) {
			existing.Amount += amount
			if err := e.repo.PutCartItem(ctx, existing); err != nil {
				return model.ResultError, "internal error"
			}
			e.log.Debug("increased items in cart", "variant_id", variantID, "amount", amount)
		} else {
			e.log.Warn("failed to increase items in cart, insufficient stock", "variant_id", variantID)
			res, msg = model.ResultNOK, ""
		}
	default: // existing != nil && amount < 0
		absAmount := -amount
		if existing.Amount >= absAmount {
			e.cancelReservation(ctx, cart.ID, variantID, absAmount)
			if existing.Amount-absAmount > 0 {
				existing.Amount -= absAmount
				if err := e.repo.PutCartItem(ctx, existing); err != nil {
					return model.ResultError, "internal error"
				}
			} else if err := e.repo.DeleteCartItem(ctx, cart.ID, variantID); err != nil {
				return model.ResultError, "internal error"
			}
			e.log.Debug("decreased items in cart", "variant_id", variantID, "amount", absAmount)
		} else {
			e.log.Warn("requested to remove more items than reserved", "variant_id", variantID)
			res, msg = model.ResultError, "requested amount is more than reserved"
		}
	}

	if !isNewCart && cart.Status == model.CartStatusPrereservation && res == model.ResultOK {
		e.setPrereservationTimer(cart.ID, true)
	}
	return res, msg
}

// doClear is CartLogic.clear.
func (e *Engine) doClear(ctx context.Context, transactionID string) (model.OperationResult, string) {
	e.log.Debug("handling cart clear", "transaction_id", transactionID)
	cart, err := e.repo.GetCartByTransactionID(ctx, transactionID)
	if err != nil || cart == nil {
		e.log.Warn("trying to clear a cart that does not exist", "transaction_id", transactionID)
		return model.ResultError, "cart is not found"
	}
	e.cancelCartExpirationTm(cart.ID)
	if cart.Type == model.CartTypeRemote {
		e.cancelCartReservationExpirationTm(cart.ID)
	}
	if err := e.repo.DeleteCart(ctx, cart.ID); err != nil {
		return model.ResultError, "internal error"
	}
	return model.ResultOK, ""
}

// doProlong is CartLogic.prolong.
func (e *Engine) doProlong(ctx context.Context, transactionID string) (model.OperationResult, string) {
	e.log.Debug("handling cart prolong", "transaction_id", transactionID)
	cart, err := e.repo.GetCartByTransactionID(ctx, transactionID)
	if err != nil || cart == nil {
		e.log.Warn("trying to prolong a cart that does not exist", "transaction_id", transactionID)
		return model.ResultError, "cart is not found"
	}
	if cart.Type == model.CartTypeRemote && cart.Status == model.CartStatusPrereservation {
		e.setPrereservationTimer(cart.ID, true)
	} else {
		e.log.Warn("cart type or state is wrong to prolong", "cart_id", cart.ID)
		return model.ResultError, "wrong cart type or state to prolong"
	}
	return model.ResultOK, ""
}

// doReserve is CartLogic.reserve.
func (e *Engine) doReserve(ctx context.Context, transactionID, orderInfo string) (model.OperationResult, string) {
	e.log.Debug("handling cart reserve", "transaction_id", transactionID)
	cart, err := e.repo.GetCartByTransactionID(ctx, transactionID)
	if err != nil || cart == nil {
		e.log.Info("trying to reserve a cart that does not exist", "transaction_id", transactionID)
		return model.ResultError, "cart is not found"
	}
	if cart.Type != model.CartTypeRemote {
		e.log.Warn("trying to reserve a cart that is not remote", "cart_id", cart.ID)
		return model.ResultError, "wrong cart type to reserve"
	}
	e.cancelCartExpirationTm(cart.ID)
	cart.OrderInfo = orderInfo
	cart.CheckoutMethod = model.CheckoutMethodPickup
	cart.Status = model.CartStatusReserved
	cart.LockedAt = time.Now().Unix()
	if err := e.repo.PutCart(ctx, cart); err != nil {
		return model.ResultError, "internal error"
	}
	e.reservationExpList = append(e.reservationExpList, expirationItem{
		objID: cart.ID, expAt: time.Now().Add(e.cfg.ReservationTimeout),
	})
	return model.ResultOK, ""
}

// doDispense is CartLogic.dispense, with the dispensing hookup the source left as a TODO
// implemented via the Dispenser collaborator (C7).
func (e *Engine) doDispense(ctx context.Context, transactionID string, displayID int) (model.OperationResult, string) {
	e.log.Debug("handling cart dispense", "transaction_id", transactionID)
	cart, err := e.repo.GetCartByTransactionID(ctx, transactionID)
	if err != nil || cart == nil {
		e.log.Warn("trying to dispense a cart that does not exist", "transaction_id", transactionID)
		return model.ResultError, "cart is not found"
	}
	items, err := e.repo.ListCartItems(ctx, cart.ID)
	if err != nil {
		return model.ResultError, "internal error"
	}
	if len(items) == 0 {
		e.log.Warn("trying to dispense an empty cart", "cart_id", cart.ID)
		return model.ResultError, "cart is empty"
	}
	e.cancelCartExpirationTm(cart.ID)
	if cart.Type == model.CartTypeRemote {
		e.cancelCartReservationExpirationTm(cart.ID)
		cart.DisplayID = displayID
		if err := e.repo.PutCart(ctx, cart); err != nil {
			return model.ResultError, "internal error"
		}
	}

	allRes, err := e.repo.ListReservations(ctx, cart.ID)
	if err != nil {
		return model.ResultError, "internal error"
	}
	cartVariants := make(map[int]struct{}, len(items))
	for _, item := range items {
		cartVariants[item.VariantID] = struct{}{}
	}
	var reservations []*model.Reservation
	for _, r := range allRes {
		if _, ok := cartVariants[r.VariantID]; ok {
			reservations = append(reservations, r)
		}
	}

	if e.dispenser.StartDispensing(cart.ID, reservations) {
		cart.Status = model.CartStatusDispensing
		if err := e.repo.PutCart(ctx, cart); err != nil {
			return model.ResultError, "internal error"
		}
	} else {
		e.log.Info("dispensing orchestrator is busy, queuing cart", "cart_id", cart.ID)
		e.pendingDispensing = append(e.pendingDispensing, pendingDispensingItem{cartID: cart.ID, reservations: reservations})
		return model.ResultPending, ""
	}
	return model.ResultOK, ""
}
