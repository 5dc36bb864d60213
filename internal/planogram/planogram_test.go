package planogram

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmatiushkin73/my-kiosk-backend/internal/domain/event"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/domain/model"
)

func TestValidateAgainstReservations_NoReservations_AlwaysPasses(t *testing.T) {
	current := model.NewPlanogram()
	staged := model.NewPlanogram()
	reason := validateAgainstReservations(current, staged, nil)
	assert.Equal(t, event.ReasonNone, reason)
}

func TestValidateAgainstReservations_VariantRemoved_IsAbsent(t *testing.T) {
	current := model.NewPlanogram()
	current.Set(1, 1, 1, model.PlanogramSlot{VariantID: 42, Width: 1, Depth: 1})
	staged := model.NewPlanogram()
	staged.Set(1, 1, 1, model.PlanogramSlot{VariantID: 99, Width: 1, Depth: 1})

	reservations := []*model.Reservation{
		{ID: 1, CartID: 1, VariantID: 42, UnitID: 1, Location: 1, Quantity: 2},
	}
	reason := validateAgainstReservations(current, staged, reservations)
	assert.Equal(t, event.ReasonReservedProductAbsent, reason)
}

func TestValidateAgainstReservations_FewerSlotsThanCurrent_IsOccupiesLess(t *testing.T) {
	current := model.NewPlanogram()
	current.Set(1, 1, 1, model.PlanogramSlot{VariantID: 42, Width: 1, Depth: 1})
	current.Set(1, 1, 2, model.PlanogramSlot{VariantID: 42, Width: 1, Depth: 1})
	staged := model.NewPlanogram()
	staged.Set(1, 1, 1, model.PlanogramSlot{VariantID: 42, Width: 1, Depth: 1})

	reservations := []*model.Reservation{
		{ID: 1, CartID: 1, VariantID: 42, UnitID: 1, Location: 1, Quantity: 1},
	}
	reason := validateAgainstReservations(current, staged, reservations)
	assert.Equal(t, event.ReasonReservedProductOccupiesLess, reason)
}

func TestValidateAgainstReservations_SameFootprint_Passes(t *testing.T) {
	current := model.NewPlanogram()
	current.Set(1, 1, 1, model.PlanogramSlot{VariantID: 42, Width: 1, Depth: 1})
	current.Set(1, 1, 2, model.PlanogramSlot{VariantID: 42, Width: 1, Depth: 1})
	staged := model.NewPlanogram()
	staged.Set(1, 1, 1, model.PlanogramSlot{VariantID: 42, Width: 1, Depth: 1})
	staged.Set(1, 1, 2, model.PlanogramSlot{VariantID: 42, Width: 1, Depth: 1})

	reservations := []*model.Reservation{
		{ID: 1, CartID: 1, VariantID: 42, UnitID: 1, Location: 1, Quantity: 1},
		{ID: 2, CartID: 2, VariantID: 42, UnitID: 1, Location: 2, Quantity: 1},
	}
	reason := validateAgainstReservations(current, staged, reservations)
	assert.Equal(t, event.ReasonNone, reason)
}

func TestValidateAgainstReservations_MoreSlotsThanCurrent_Passes(t *testing.T) {
	current := model.NewPlanogram()
	current.Set(1, 1, 1, model.PlanogramSlot{VariantID: 42, Width: 1, Depth: 1})
	staged := model.NewPlanogram()
	staged.Set(1, 1, 1, model.PlanogramSlot{VariantID: 42, Width: 1, Depth: 1})
	staged.Set(1, 1, 2, model.PlanogramSlot{VariantID: 42, Width: 1, Depth: 1})

	reservations := []*model.Reservation{
		{ID: 1, CartID: 1, VariantID: 42, UnitID: 1, Location: 1, Quantity: 1},
	}
	reason := validateAgainstReservations(current, staged, reservations)
	assert.Equal(t, event.ReasonNone, reason)
}

func TestParsePlanogramPayload_ParsesNestedUnitsAndCatalog(t *testing.T) {
	s := &Synchronizer{}
	data := map[string]any{
		"units": []any{
			map[string]any{
				"unit": float64(1),
				"trays": []any{
					map[string]any{
						"tray": float64(1),
						"slots": []any{
							map[string]any{
								"location":  float64(1),
								"variantId": float64(7),
								"width":     float64(1),
								"depth":     float64(1),
							},
						},
					},
				},
			},
		},
		"catalog": map[string]any{
			"products":    []any{map[string]any{"id": float64(100)}},
			"collections": []any{map[string]any{"id": float64(200)}},
		},
	}

	staged, catalog, err := s.parsePlanogramPayload(data)
	assert.NoError(t, err)
	slot, ok := staged.Get(1, 1, 1)
	assert.True(t, ok)
	assert.Equal(t, 7, slot.VariantID)
	assert.Len(t, catalog.products, 1)
	assert.Equal(t, 100, catalog.products[0].ID)
	assert.Len(t, catalog.collections, 1)
	assert.Equal(t, 200, catalog.collections[0].ID)
}

func TestParsePlanogramPayload_MissingUnits_ReturnsValidationError(t *testing.T) {
	s := &Synchronizer{}
	_, _, err := s.parsePlanogramPayload(map[string]any{})
	assert.Error(t, err)
}
