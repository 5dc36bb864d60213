package cartengine

import (
	"context"

	"github.com/dmatiushkin73/my-kiosk-backend/internal/domain/model"
)

// doReservation tries to reserve amount units of variantID for cartID, walking that variant's
// inventory slots in storage order and consuming free capacity slot by slot until the amount is
// exhausted. Reports whether the whole amount could be placed; on failure no reservation is
// created (it never partially reserves and then gives up). Mirrors CartLogic._do_reservation.
func (e *Engine) doReservation(ctx context.Context, cartID, variantID, amount int) bool {
	invItems, err := e.invItemsByVariant(ctx, variantID)
	if err != nil {
		e.log.Error("db error loading inventory for reservation", "variant_id", variantID, "error", err)
		return false
	}
	var stock int
	for _, item := range invItems {
		stock += item.Quantity
	}

	reservations, err := e.repo.ListAllReservations(ctx)
	if err != nil {
		e.log.Error("db error loading reservations", "error", err)
		return false
	}
	var reserved int
	alreadyReservedBySlot := make(map[model.SlotKey]int)
	for _, r := range reservations {
		if r.VariantID != variantID {
			continue
		}
		reserved += r.Quantity
		alreadyReservedBySlot[model.SlotKey{UnitID: r.UnitID, Location: r.Location}] += r.Quantity
	}

	if stock <= 0 || (stock-reserved) < amount {
		return false
	}

	remaining := amount
	for _, item := range invItems {
		if remaining <= 0 {
			break
		}
		key := model.SlotKey{UnitID: item.Key.UnitID, Location: item.Key.Location}
		free := item.Quantity - alreadyReservedBySlot[key]
		if free <= 0 {
			continue
		}
		take := free
		if take > remaining {
			take = remaining
		}
		if err := e.repo.PutReservation(ctx, &model.Reservation{
			CartID: cartID, VariantID: variantID, UnitID: item.Key.UnitID, Location: item.Key.Location, Quantity: take,
		}); err != nil {
			e.log.Error("db error creating reservation", "variant_id", variantID, "error", err)
			return false
		}
		remaining -= take
	}
	return true
}

// cancelReservation releases amount units of variantID from cartID's reservations, walking them
// in storage order and removing or shrinking entries until the amount is exhausted. Mirrors
// CartLogic._cancel_reservation.
func (e *Engine) cancelReservation(ctx context.Context, cartID, variantID, amount int) {
	reservations, err := e.repo.ListReservations(ctx, cartID)
	if err != nil {
		e.log.Error("db error loading reservations to cancel", "cart_id", cartID, "error", err)
		return
	}
	for _, r := range reservations {
		if r.VariantID != variantID {
			continue
		}
		if amount <= 0 {
			break
		}
		switch {
		case r.Quantity == amount:
			_ = e.repo.DeleteReservation(ctx, r.ID)
			amount = 0
		case r.Quantity < amount:
			_ = e.repo.DeleteReservation(ctx, r.ID)
			amount -= r.Quantity
		default:
			r.Quantity -= amount
			_ = e.repo.PutReservation(ctx, r)
			amount = 0
		}
	}
}

func (e *Engine) invItemsByVariant(ctx context.Context, variantID int) ([]*model.InventorySlot, error) {
	all, err := e.repo.ListInventorySlots(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*model.InventorySlot, 0, len(all))
	for _, s := range all {
		if s.VariantID == variantID {
			out = append(out, s)
		}
	}
	return out, nil
}
