package ports

import "context"

// DispenseHardware is the narrow boundary between the Dispensing Orchestrator (C7) and the
// physical dispenser mechanism. A request is fire-and-forget: the hardware's outcome arrives
// later, out of band, as a signal delivered back into the owning workflow (see internal/dispense).
type DispenseHardware interface {
	RequestDispense(ctx context.Context, unitID, location, variantID int) error
}
