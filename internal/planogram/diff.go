package planogram

import (
	"context"

	"github.com/dmatiushkin73/my-kiosk-backend/internal/domain/event"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/domain/model"
)

// parsePlanogramPayload decodes the cloud's planogram-candidate document into a staged layout
// plus the catalog snapshot that accompanies it. Mirrors the parsing half of
// original_source/logic/planogram.py's _planogram_updated_event_handler.
func (s *Synchronizer) parsePlanogramPayload(data map[string]any) (*model.Planogram, stagedCatalog, error) {
	unitsRaw, err := reqSlice(data, "units")
	if err != nil {
		return nil, stagedCatalog{}, err
	}
	staged := model.NewPlanogram()
	for _, uRaw := range unitsRaw {
		u, ok := uRaw.(map[string]any)
		if !ok {
			continue
		}
		unitID, err := reqInt(u, "unit")
		if err != nil {
			return nil, stagedCatalog{}, err
		}
		traysRaw, err := reqSlice(u, "trays")
		if err != nil {
			return nil, stagedCatalog{}, err
		}
		for _, tRaw := range traysRaw {
			t, ok := tRaw.(map[string]any)
			if !ok {
				continue
			}
			trayNum, err := reqInt(t, "tray")
			if err != nil {
				return nil, stagedCatalog{}, err
			}
			slotsRaw, err := reqSlice(t, "slots")
			if err != nil {
				return nil, stagedCatalog{}, err
			}
			for _, slRaw := range slotsRaw {
				sl, ok := slRaw.(map[string]any)
				if !ok {
					continue
				}
				loc, err := reqInt(sl, "location")
				if err != nil {
					return nil, stagedCatalog{}, err
				}
				variantID, err := reqInt(sl, "variantId")
				if err != nil {
					return nil, stagedCatalog{}, err
				}
				width, err := reqInt(sl, "width")
				if err != nil {
					return nil, stagedCatalog{}, err
				}
				depth, err := reqInt(sl, "depth")
				if err != nil {
					return nil, stagedCatalog{}, err
				}
				staged.Set(unitID, trayNum, loc, model.PlanogramSlot{
					VariantID: variantID, Width: width, Depth: depth,
				})
			}
		}
	}

	catalog := stagedCatalog{}
	if catalogRaw, ok := data["catalog"].(map[string]any); ok {
		if productsRaw, ok := catalogRaw["products"].([]any); ok {
			for _, pRaw := range productsRaw {
				if p, ok := pRaw.(map[string]any); ok {
					if id, err := reqInt(p, "id"); err == nil {
						catalog.products = append(catalog.products, &model.Product{ID: id})
					}
				}
			}
		}
		if collectionsRaw, ok := catalogRaw["collections"].([]any); ok {
			for _, cRaw := range collectionsRaw {
				if c, ok := cRaw.(map[string]any); ok {
					if id, err := reqInt(c, "id"); err == nil {
						catalog.collections = append(catalog.collections, &model.Collection{ID: id})
					}
				}
			}
		}
	}
	return staged, catalog, nil
}

// applyNewData refreshes every product/collection staged alongside the pending planogram,
// fetching each one's full payload from the cloud the same way a standalone product/collection
// notification would. Mirrors _apply_new_data.
func (s *Synchronizer) applyNewData(ctx context.Context) {
	s.mu.Lock()
	catalog := s.stagedCatalog
	s.mu.Unlock()

	for _, p := range catalog.products {
		s.handleProductUpdated(ctx, p.ID)
	}
	for _, c := range catalog.collections {
		s.handleCollectionUpdated(ctx, c.ID)
	}
}

// applyNewPlanogram commits the staged layout over the current one, writing every staged slot,
// deleting the slots the staged layout drops, and announcing completion. Implements Open Question #1's resolution: a slot's
// quantity is preserved across the swap iff its variant_id is unchanged, reset to zero otherwise
// (the source always resets to zero; carrying quantity through an unrelated geometry change is
// safer). Mirrors _apply_new_planogram.
func (s *Synchronizer) applyNewPlanogram(ctx context.Context) {
	s.mu.Lock()
	staged := s.staged
	current := s.current
	s.mu.Unlock()

	if staged == nil {
		return
	}

	existingSlots, err := s.repo.ListInventorySlots(ctx)
	if err != nil {
		s.log.Error("db error loading current inventory before applying planogram", "error", err)
		s.bus.Post(event.Event{Type: event.TypePlanogramUpdateFailed})
		return
	}
	quantities := make(map[model.SlotKey]int, len(existingSlots))
	for _, sl := range existingSlots {
		quantities[sl.Key] = sl.Quantity
	}

	for unitID, trays := range staged.Units {
		for trayNum, locs := range trays {
			for loc, newSlot := range locs {
				oldSlot, existed := current.Get(unitID, trayNum, loc)
				qty := 0
				if existed && oldSlot.VariantID == newSlot.VariantID {
					qty = quantities[model.SlotKey{UnitID: unitID, TrayNumber: trayNum, Location: loc}]
				}
				invSlot := &model.InventorySlot{
					Key:       model.SlotKey{UnitID: unitID, TrayNumber: trayNum, Location: loc},
					VariantID: newSlot.VariantID,
					Width:     newSlot.Width,
					Depth:     newSlot.Depth,
					Quantity:  qty,
				}
				if err := s.repo.PutInventorySlot(ctx, invSlot); err != nil {
					s.log.Error("db error updating inventory slot", "unit", unitID, "tray", trayNum, "location", loc, "error", err)
				}
			}
		}
	}

	// Remove slots present in the current layout but absent from the staged one.
	for unitID, trays := range current.Units {
		for trayNum, locs := range trays {
			for loc := range locs {
				if _, stillPresent := staged.Get(unitID, trayNum, loc); !stillPresent {
					key := model.SlotKey{UnitID: unitID, TrayNumber: trayNum, Location: loc}
					if err := s.repo.DeleteInventorySlot(ctx, key); err != nil {
						s.log.Error("db error deleting stale inventory slot", "unit", unitID, "tray", trayNum, "location", loc, "error", err)
					}
				}
			}
		}
	}

	s.mu.Lock()
	s.current = staged
	s.staged = nil
	s.stagedCatalog = stagedCatalog{}
	s.planogramIsSet = true
	s.mu.Unlock()

	s.log.Info("new planogram applied")
	s.bus.Post(event.Event{Type: event.TypePlanogramUpdateDone})
}
