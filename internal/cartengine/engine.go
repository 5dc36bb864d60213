package cartengine

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dmatiushkin73/my-kiosk-backend/internal/domain/event"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/domain/model"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/domain/shared"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/eventbus"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/platform/logger"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/ports"
)

// sweepPeriod is how often the short-expiration list is checked; the two long-lived lists
// (reservation holds, order history) are checked once every sweepTicksPerMinute ticks. Mirrors
// EXP_LIST_CHECK_PERIOD_SEC / EXP_TM_TICKS_IN_MINUTE.
const (
	sweepPeriod          = 5 * time.Second
	sweepTicksPerMinute  = int(60 / (sweepPeriod / time.Second))
	opReplyTimeout       = 10 * time.Second
)

// Config mirrors CartLogic.REQ_CFG_OPTIONS, pre-resolved from the unit/value pairs the
// configuration layer validates (see internal/config).
type Config struct {
	ExpirationTimeout     time.Duration
	PrereservationTimeout time.Duration
	ReservationTimeout    time.Duration
	OrderHistoryTimeout   time.Duration
}

// Engine is the C5 cart & reservation engine.
type Engine struct {
	log       logger.Logger
	bus       *eventbus.Bus
	cloud     ports.CloudClient
	iot       ports.IotClient
	repo      ports.Repository
	dispenser Dispenser
	cfg       Config

	in   chan workItem
	stop chan struct{}
	done chan struct{}

	// Owned exclusively by run(); no lock needed.
	expList              []expirationItem
	reservationExpList   []expirationItem
	orderHistExpList     []expirationItem
	pendingDispensing    []pendingDispensingItem
	sweepTickCount       int
}

// New constructs the engine. Call Start to run the startup recovery pass, wire subscriptions,
// and begin the worker loop.
func New(log logger.Logger, bus *eventbus.Bus, cloud ports.CloudClient, iot ports.IotClient,
	repo ports.Repository, dispenser Dispenser, cfg Config) *Engine {
	return &Engine{
		log:       log.Named("logic.cart"),
		bus:       bus,
		cloud:     cloud,
		iot:       iot,
		repo:      repo,
		dispenser: dispenser,
		cfg:       cfg,
		in:        make(chan workItem, 256),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start runs the startup recovery pass over persisted carts/order-history records, subscribes
// to the bus and cloud topics, and starts the worker goroutine plus its sweep ticker.
func (e *Engine) Start(ctx context.Context) error {
	e.onStartup(ctx)

	if err := e.iot.Subscribe(ports.TopicTransaction, e.onTransactionUpdated); err != nil {
		return err
	}
	if err := e.iot.Subscribe(ports.TopicReservation, e.onReservationUpdated); err != nil {
		return err
	}
	e.bus.Subscribe(event.TypePlanogramUpdateDone, func(event.Event) {
		e.in <- workItem{kind: kindPlanogramUpdated}
	})
	e.bus.Subscribe(event.TypePurchaseFinished, func(ev event.Event) {
		body, ok := ev.Body.(event.PurchaseFinishedBody)
		if !ok {
			return
		}
		e.in <- workItem{kind: kindPurchaseFinished, cartID: body.CartID}
	})
	e.bus.Subscribe(event.TypeBeginTransactionRequest, func(ev event.Event) {
		body, ok := ev.Body.(event.BeginTransactionRequestBody)
		if !ok {
			return
		}
		e.in <- workItem{kind: kindBeginTransaction, cartID: body.CartID}
	})

	go e.run(ctx)
	go e.sweepLoop()
	e.log.Info("cart engine started")
	return nil
}

// Stop drains the worker and sweep loop to completion.
func (e *Engine) Stop() error {
	close(e.stop)
	<-e.done
	e.log.Info("cart engine stopped")
	return nil
}

func (e *Engine) sweepLoop() {
	t := time.NewTicker(sweepPeriod)
	defer t.Stop()
	for {
		select {
		case <-e.stop:
			return
		case <-t.C:
			select {
			case e.in <- workItem{kind: kindSweep}:
			default:
				e.log.Warn("cart engine worker is backed up, dropping a sweep tick")
			}
		}
	}
}

func (e *Engine) run(ctx context.Context) {
	defer close(e.done)
	for {
		select {
		case <-e.stop:
			if len(e.in) == 0 {
				return
			}
		case w := <-e.in:
			e.dispatch(ctx, w)
		}
	}
}

func (e *Engine) dispatch(ctx context.Context, w workItem) {
	switch w.kind {
	case kindUpdate:
		res, msg := e.doUpdate(ctx, w.transactionID, w.displayID, w.cartType, w.variantID, w.amount)
		reply(w.reply, res, msg)
	case kindClear:
		res, msg := e.doClear(ctx, w.transactionID)
		reply(w.reply, res, msg)
	case kindProlong:
		res, msg := e.doProlong(ctx, w.transactionID)
		reply(w.reply, res, msg)
	case kindReserve:
		res, msg := e.doReserve(ctx, w.transactionID, w.orderInfo)
		reply(w.reply, res, msg)
	case kindDispense:
		res, msg := e.doDispense(ctx, w.transactionID, w.displayID)
		reply(w.reply, res, msg)
	case kindBeginTransaction:
		e.doBeginTransaction(ctx, w.cartID)
	case kindPlanogramUpdated:
		e.handlePlanogramUpdated(ctx)
	case kindPurchaseFinished:
		e.processPurchaseFinished(ctx, w.cartID)
	case kindTransactionCompleted:
		if w.success {
			e.doDispense(ctx, w.transactionID, 0)
		} else {
			e.doClear(ctx, w.transactionID)
		}
	case kindReservationRequestUpdate:
		e.processReservationUpdate(ctx, w.transactionID, w.variantID, w.amount, w.requestID)
	case kindReservationRequestCancel:
		e.doClear(ctx, w.transactionID)
	case kindReservationRequestProlong:
		e.doProlong(ctx, w.transactionID)
	case kindReservationRequestConfirm:
		e.doReserve(ctx, w.transactionID, w.pickupCode)
	case kindProcessPendingReservations:
		e.processPendingReservations(ctx, w.pending)
	case kindSweep:
		e.sweep(ctx)
	}
}

func reply(ch chan opResult, res model.OperationResult, msg string) {
	if ch == nil {
		return
	}
	ch <- opResult{res: res, msg: msg}
}

// submit posts a work item and blocks for its reply, bounded by opReplyTimeout so a stalled
// worker cannot wedge an HTTP handler forever.
func (e *Engine) submit(w workItem) (model.OperationResult, string) {
	w.reply = make(chan opResult, 1)
	select {
	case e.in <- w:
	case <-time.After(opReplyTimeout):
		return model.ResultError, "cart engine is not accepting requests"
	}
	select {
	case r := <-w.reply:
		return r.res, r.msg
	case <-time.After(opReplyTimeout):
		return model.ResultError, "timed out waiting for cart engine"
	}
}

func (e *Engine) onTransactionUpdated(payload []byte) {
	var data map[string]any
	if err := json.Unmarshal(payload, &data); err != nil {
		e.log.Error("failed to process transaction update notification", "error", err)
		return
	}
	txID, ok1 := data["transactionId"].(string)
	status, ok2 := data["status"].(string)
	if !ok1 || !ok2 {
		e.log.Warn("received transaction update notification is malformed")
		return
	}
	e.in <- workItem{kind: kindTransactionCompleted, transactionID: txID, success: status == "PAYMENT_SUCCESS"}
}

func (e *Engine) onReservationUpdated(payload []byte) {
	var data map[string]any
	if err := json.Unmarshal(payload, &data); err != nil {
		e.log.Error("failed to process reservation update notification", "error", err)
		return
	}
	txID, ok := data["transactionId"].(string)
	updType, ok2 := data["updateType"].(string)
	if !ok || !ok2 {
		e.log.Warn("received reservation update notification is malformed")
		return
	}
	switch updType {
	case "update":
		variantIDF, ok1 := data["variantId"].(float64)
		amountF, ok2 := data["amount"].(float64)
		requestIDF, ok3 := data["requestId"].(float64)
		if !ok1 || !ok2 || !ok3 {
			e.log.Warn("received reservation update notification is malformed")
			return
		}
		e.in <- workItem{kind: kindReservationRequestUpdate, transactionID: txID,
			variantID: int(variantIDF), amount: int(amountF), requestID: int(requestIDF)}
	case "cancel":
		e.in <- workItem{kind: kindReservationRequestCancel, transactionID: txID}
	case "prolong":
		e.in <- workItem{kind: kindReservationRequestProlong, transactionID: txID}
	case "confirm":
		pickupCode, _ := data["pickupCode"].(string)
		e.in <- workItem{kind: kindReservationRequestConfirm, transactionID: txID, pickupCode: pickupCode}
	default:
		e.log.Warn("received reservation update notification carries an unknown update type", "type", updType)
	}
}

func isNotFound(err error) bool {
	return errors.Is(shared.MapInfraErr("cartengine", err), shared.ErrNotFound)
}
