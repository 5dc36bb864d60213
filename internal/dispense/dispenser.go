package dispense

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/client"

	"github.com/dmatiushkin73/my-kiosk-backend/internal/domain/model"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/platform/logger"
)

// WorkflowID is the deterministic Temporal workflow id for a cart's dispensing run, used both to
// start it and to route a later hardware result signal back to it.
func WorkflowID(cartID int) string {
	return fmt.Sprintf("dispense-cart-%d", cartID)
}

// Dispenser is the cartengine.Dispenser implementation backed by the Temporal-hosted
// Dispensing Orchestrator (C7). It lives in the main kiosk process: starting a workflow run and
// signalling it are cheap, synchronous calls against the Temporal server, not against the
// workflow's own (possibly separate-process) worker.
type Dispenser struct {
	client client.Client
	log    logger.Logger
}

func NewDispenser(c client.Client, log logger.Logger) *Dispenser {
	return &Dispenser{client: c, log: log.Named("dispense")}
}

// StartDispensing implements cartengine.Dispenser. It starts (or, if one is already running for
// this cart, reuses) the dispense workflow and delivers its line items via the dispense-start
// signal in one atomic call, so a concurrent retry can never race workflow creation.
func (d *Dispenser) StartDispensing(cartID int, reservations []*model.Reservation) bool {
	lines := make([]Line, 0, len(reservations))
	for _, r := range reservations {
		lines = append(lines, Line{UnitID: r.UnitID, Location: r.Location, VariantID: r.VariantID, Quantity: r.Quantity})
	}

	opts := client.StartWorkflowOptions{
		ID:        WorkflowID(cartID),
		TaskQueue: TaskQueue,
	}
	_, err := d.client.SignalWithStartWorkflow(context.Background(), opts.ID, StartSignal,
		StartRequest{CartID: cartID, Lines: lines}, opts, Workflow)
	if err != nil {
		d.log.Error("failed to start dispensing workflow", "cart_id", cartID, "error", err)
		return false
	}
	return true
}

// DeliverResult forwards a hardware dispense outcome, received out of band (over MQTT, in this
// system), into the cart's running workflow as a dispense-result signal.
func (d *Dispenser) DeliverResult(ctx context.Context, cartID, unitID, location int, success bool, reason string) error {
	return d.client.SignalWorkflow(ctx, WorkflowID(cartID), "", ResultSignal, ResultSignalPayload{
		UnitID: unitID, Location: location, Success: success, Reason: reason,
	})
}
