package dispense

import (
	"context"

	"github.com/dmatiushkin73/my-kiosk-backend/internal/domain/event"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/domain/model"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/eventbus"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/ports"
)

// Activities is the bridge between the dispense workflow and the rest of the system: the
// workflow itself never touches the hardware port or the event bus directly, mirroring the
// teacher's "workflows must never access repositories directly - only through activities" rule.
type Activities struct {
	hw  ports.DispenseHardware
	bus *eventbus.Bus
}

func NewActivities(hw ports.DispenseHardware, bus *eventbus.Bus) *Activities {
	return &Activities{hw: hw, bus: bus}
}

// DriveDispenseRequest is one line item's hardware dispense request.
type DriveDispenseRequest struct {
	UnitID    int
	Location  int
	VariantID int
}

// DriveDispense asks the hardware to dispense one line item. The outcome is not returned here:
// it arrives later as a dispense-result signal the workflow waits on separately.
func (a *Activities) DriveDispense(ctx context.Context, req DriveDispenseRequest) error {
	return a.hw.RequestDispense(ctx, req.UnitID, req.Location, req.VariantID)
}

// ReportStatusRequest is one DISPENSING_STATUS event to publish.
type ReportStatusRequest struct {
	CartID    int
	UnitID    int
	Location  int
	VariantID int
	Status    model.DispensingStatus
}

// ReportStatus publishes a DISPENSING_STATUS event for one line item's progress.
func (a *Activities) ReportStatus(ctx context.Context, req ReportStatusRequest) error {
	a.bus.Post(event.Event{Type: event.TypeDispensingStatus, Body: event.DispensingStatusBody{
		CartID: req.CartID, UnitID: req.UnitID, Location: req.Location, VariantID: req.VariantID,
		Status: req.Status,
	}})
	return nil
}

// ReportPurchaseFinished publishes PURCHASE_FINISHED once every line item of the cart is
// terminal, handing the cart back to the Cart & Reservation Engine (C5) for teardown.
func (a *Activities) ReportPurchaseFinished(ctx context.Context, cartID int) error {
	a.bus.Post(event.Event{Type: event.TypePurchaseFinished, Body: event.PurchaseFinishedBody{CartID: cartID}})
	return nil
}
