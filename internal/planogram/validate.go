package planogram

import (
	"github.com/dmatiushkin73/my-kiosk-backend/internal/domain/event"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/domain/model"
)

// validateAgainstReservations checks a staged layout against every outstanding reservation
// before it can be offered for commit. Mirrors
// original_source/logic/planogram.py's _validate_new_planogram_against_reservations: a
// reservation survives only if its variant is still present in the staged layout, in the same
// unit, and occupies there at least as many slots as it currently occupies. Two failure reasons,
// first one found wins (matches the source's early-return shape).
func validateAgainstReservations(current, staged *model.Planogram, reservations []*model.Reservation) event.PlanogramRejectReason {
	// Every (unitID, variantID) pair an outstanding reservation draws from.
	type key struct {
		unitID    int
		variantID int
	}
	reservedVariants := make(map[key]struct{})
	for _, r := range reservations {
		reservedVariants[key{unitID: r.UnitID, variantID: r.VariantID}] = struct{}{}
	}

	for k := range reservedVariants {
		stagedLocs := staged.LocationsForVariant(k.variantID)[k.unitID]
		if len(stagedLocs) == 0 {
			return event.ReasonReservedProductAbsent
		}
		currentLocs := current.LocationsForVariant(k.variantID)[k.unitID]
		if len(stagedLocs) < len(currentLocs) {
			return event.ReasonReservedProductOccupiesLess
		}
	}
	return event.ReasonNone
}
