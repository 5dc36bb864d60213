package cartengine

import "context"

// handlePlanogramUpdated relocates reservations whose slot moved as part of a committed
// planogram change. For each variant referenced by an open cart, it builds the set of locations
// that variant now occupies per unit, keeps reservations whose location didn't move, and
// reassigns the rest to a still-free new location. A reservation that cannot be relocated is
// logged as a critical inconsistency: the Planogram Synchronizer (C4) already validated that the
// new layout has room for every reservation before committing, so this should not happen.
// Mirrors CartLogic._handle_planogram_updated; ownership of reservation relocation sits with
// this engine rather than with the synchronizer, per this system's module boundary (C4 only
// decides whether a layout change is acceptable, C5 owns everything about reservations).
func (e *Engine) handlePlanogramUpdated(ctx context.Context) {
	varLocations := make(map[int]map[int][]int) // variantID -> unitID -> []location

	carts, err := e.repo.ListCarts(ctx)
	if err != nil {
		e.log.Error("db error loading carts to relocate reservations", "error", err)
		return
	}

	for _, cart := range carts {
		items, err := e.repo.ListCartItems(ctx, cart.ID)
		if err != nil {
			e.log.Error("db error loading cart items to relocate reservations", "cart_id", cart.ID, "error", err)
			continue
		}
		for _, item := range items {
			variantID := item.VariantID
			if _, seen := varLocations[variantID]; !seen {
				byUnit := make(map[int][]int)
				invItems, err := e.invItemsByVariant(ctx, variantID)
				if err != nil {
					e.log.Error("db error loading inventory to relocate reservations", "variant_id", variantID, "error", err)
					continue
				}
				for _, inv := range invItems {
					byUnit[inv.Key.UnitID] = append(byUnit[inv.Key.UnitID], inv.Key.Location)
				}
				varLocations[variantID] = byUnit
			}

			reservations, err := e.repo.ListReservations(ctx, cart.ID)
			if err != nil {
				e.log.Error("db error loading reservations to relocate", "cart_id", cart.ID, "error", err)
				continue
			}
			usedLocations := make(map[int]struct{})

			// First pass: reservations whose location is still valid are left alone and mark
			// that location as taken, so a moved reservation is never reassigned onto it.
			for _, r := range reservations {
				if r.VariantID != variantID {
					continue
				}
				locs, ok := varLocations[variantID][r.UnitID]
				if !ok {
					e.log.Critical("reservations and inventory are out of sync", "variant_id", variantID, "unit_id", r.UnitID)
					continue
				}
				if contains(locs, r.Location) {
					usedLocations[r.Location] = struct{}{}
				}
			}

			// Second pass: reservations whose location moved get reassigned to a free new
			// location for the same variant/unit.
			for _, r := range reservations {
				if r.VariantID != variantID {
					continue
				}
				locs, ok := varLocations[variantID][r.UnitID]
				if !ok || contains(locs, r.Location) {
					continue
				}
				updated := false
				for _, loc := range locs {
					if _, taken := usedLocations[loc]; taken {
						continue
					}
					oldLoc := r.Location
					r.Location = loc
					if err := e.repo.PutReservation(ctx, r); err != nil {
						e.log.Error("db error relocating reservation", "reservation_id", r.ID, "error", err)
						continue
					}
					usedLocations[loc] = struct{}{}
					updated = true
					e.log.Debug("reservation relocated after planogram update", "variant_id", variantID,
						"cart_id", cart.ID, "unit_id", r.UnitID, "from", oldLoc, "to", loc)
					break
				}
				if !updated {
					e.log.Critical("failed to relocate reserved variant", "variant_id", variantID,
						"unit_id", r.UnitID, "location", r.Location)
				}
			}
		}
	}
}

func contains(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
