package dispense

import (
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/dmatiushkin73/my-kiosk-backend/internal/platform/logger"
)

// NewWorker registers the dispense workflow and its activities on TaskQueue and starts polling.
// Mirrors internal/workers/cart/cart_worker.New.
func NewWorker(c client.Client, activities *Activities, log logger.Logger) (worker.Worker, error) {
	w := worker.New(c, TaskQueue, worker.Options{})
	w.RegisterWorkflow(Workflow)
	w.RegisterActivity(activities.DriveDispense)
	w.RegisterActivity(activities.ReportStatus)
	w.RegisterActivity(activities.ReportPurchaseFinished)

	go func() {
		if err := w.Run(worker.InterruptCh()); err != nil {
			log.Critical("dispense worker stopped unexpectedly", "error", err)
		}
	}()
	log.Info("dispense worker started")
	return w, nil
}
