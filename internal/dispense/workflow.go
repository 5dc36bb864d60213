package dispense

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/dmatiushkin73/my-kiosk-backend/internal/domain/model"
)

var activityOptions = workflow.ActivityOptions{
	StartToCloseTimeout: 10 * time.Second,
	RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 1},
}

// Workflow is the Dispensing Orchestrator: one execution per dispensing cart (workflow id =
// "dispense-cart-<cart_id>"), started and signalled in one call via SignalWithStartWorkflow.
// It waits for a dispense-start signal carrying the cart's line items, then drives each one
// through a drive_dispense activity and a bounded wait for a matching dispense-result signal,
// retrying a failed or timed-out line up to maxLineAttempts before marking it failed. Once every
// line item is terminal it reports a final status and PURCHASE_FINISHED, then completes.
func Workflow(ctx workflow.Context) error {
	log := workflow.GetLogger(ctx)
	ctx = workflow.WithActivityOptions(ctx, activityOptions)

	var a *Activities

	var start StartRequest
	workflow.GetSignalChannel(ctx, StartSignal).Receive(ctx, &start)
	log.Info("dispensing started", "cart_id", start.CartID, "lines", len(start.Lines))

	resultCh := workflow.GetSignalChannel(ctx, ResultSignal)

	anyFailed := false
	for _, line := range start.Lines {
		if err := workflow.ExecuteActivity(ctx, a.ReportStatus, ReportStatusRequest{
			CartID: start.CartID, UnitID: line.UnitID, Location: line.Location, VariantID: line.VariantID,
			Status: model.DispensingStartedOneItem,
		}).Get(ctx, nil); err != nil {
			log.Error("failed to report dispensing started", "error", err)
		}

		succeeded := driveLine(ctx, a, resultCh, start.CartID, line, log)
		status := model.DispensingFinishedOneItem
		if !succeeded {
			anyFailed = true
			status = model.DispensingErrorOneItem
		}
		if err := workflow.ExecuteActivity(ctx, a.ReportStatus, ReportStatusRequest{
			CartID: start.CartID, UnitID: line.UnitID, Location: line.Location, VariantID: line.VariantID,
			Status: status,
		}).Get(ctx, nil); err != nil {
			log.Error("failed to report dispensing outcome", "error", err)
		}
	}

	finalStatus := model.DispensingCompleted
	if anyFailed {
		finalStatus = model.DispensingErrorOneItem
	}
	_ = workflow.ExecuteActivity(ctx, a.ReportStatus, ReportStatusRequest{
		CartID: start.CartID, Status: finalStatus,
	}).Get(ctx, nil)

	if err := workflow.ExecuteActivity(ctx, a.ReportPurchaseFinished, start.CartID).Get(ctx, nil); err != nil {
		log.Error("failed to report purchase finished", "error", err)
		return err
	}
	return nil
}

// driveLine runs the drive_dispense activity for one line and waits for its matching
// dispense-result signal, retrying on failure or timeout up to maxLineAttempts.
func driveLine(ctx workflow.Context, a *Activities, resultCh workflow.ReceiveChannel, cartID int, line Line, log workflow.Logger) bool {
	for attempt := 1; attempt <= maxLineAttempts; attempt++ {
		if err := workflow.ExecuteActivity(ctx, a.DriveDispense, DriveDispenseRequest{
			UnitID: line.UnitID, Location: line.Location, VariantID: line.VariantID,
		}).Get(ctx, nil); err != nil {
			log.Warn("drive_dispense activity failed, retrying", "unit_id", line.UnitID,
				"location", line.Location, "attempt", attempt, "error", err)
			continue
		}

		if waitForResult(ctx, resultCh, line) {
			return true
		}
		log.Warn("timed out waiting for dispense result, retrying", "unit_id", line.UnitID,
			"location", line.Location, "attempt", attempt)
	}
	return false
}

// waitForResult blocks until a dispense-result signal matching line's (unit, location) arrives,
// or lineTimeout elapses. Lines are driven one at a time; a signal for any other (unit, location)
// is consumed and discarded, and the wait goes on.
func waitForResult(ctx workflow.Context, resultCh workflow.ReceiveChannel, line Line) bool {
	timerCtx, cancel := workflow.WithCancel(ctx)
	defer cancel()
	timer := workflow.NewTimer(timerCtx, lineTimeout)

	for {
		var matched, success, timedOut bool
		selector := workflow.NewSelector(ctx)
		selector.AddReceive(resultCh, func(c workflow.ReceiveChannel, more bool) {
			var p ResultSignalPayload
			c.Receive(ctx, &p)
			if p.UnitID == line.UnitID && p.Location == line.Location {
				matched = true
				success = p.Success
			}
		})
		selector.AddFuture(timer, func(workflow.Future) {
			timedOut = true
		})
		selector.Select(ctx)

		if timedOut {
			return false
		}
		if matched {
			return success
		}
	}
}
