package rest

import (
	"sync"

	"github.com/dmatiushkin73/my-kiosk-backend/internal/domain/event"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/eventbus"
)

// transactionWaiter lets an HTTP handler block for the BEGIN_TRANSACTION_RESPONSE event that
// answers its own BeginTransaction call, resolving Open Question #4: the UI has no other way to
// learn the outcome of an asynchronous cloud checkout round trip.
type transactionWaiter struct {
	mu      sync.Mutex
	waiting map[int]chan bool
}

func newTransactionWaiter(bus *eventbus.Bus) *transactionWaiter {
	w := &transactionWaiter{waiting: make(map[int]chan bool)}
	bus.Subscribe(event.TypeBeginTransactionResp, func(ev event.Event) {
		body := ev.Body.(event.BeginTransactionResponseBody)
		w.deliver(body.CartID, body.Success)
	})
	return w
}

// register returns a channel that receives exactly one value: the Success flag of the matching
// BEGIN_TRANSACTION_RESPONSE, or nothing at all if the caller gives up and calls cancel first.
func (w *transactionWaiter) register(cartID int) <-chan bool {
	ch := make(chan bool, 1)
	w.mu.Lock()
	w.waiting[cartID] = ch
	w.mu.Unlock()
	return ch
}

func (w *transactionWaiter) deliver(cartID int, success bool) {
	w.mu.Lock()
	ch, ok := w.waiting[cartID]
	if ok {
		delete(w.waiting, cartID)
	}
	w.mu.Unlock()
	if ok {
		ch <- success
	}
}

// cancel drops a registration whose handler gave up waiting (timeout), so a late-arriving
// response does not leak the channel or block on a full, unread buffer of size 1.
func (w *transactionWaiter) cancel(cartID int) {
	w.mu.Lock()
	delete(w.waiting, cartID)
	w.mu.Unlock()
}
