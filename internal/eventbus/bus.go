// Package eventbus implements the prioritized, in-process event fan-out (SPEC_FULL §4.1 / C1).
// It is a direct translation of original_source/core/event_bus.py: three independently locked
// FIFO queues, a fixed-period dispatcher tick that drains a bounded number of events per level
// in high/normal/low order, and handler invocation outside the queue lock so a handler may post
// new events without deadlocking the bus.
package eventbus

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmatiushkin73/my-kiosk-backend/internal/domain/event"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/platform/logger"
)

// Priority selects which queue a Post targets.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
)

const (
	dispatchPeriod          = 100 * time.Millisecond
	maxHighPrioPerTick      = 15
	maxNormalPrioPerTick    = 10
	maxLowPrioPerTick       = 5
)

// Handler processes one Event. Handlers run on the dispatcher goroutine and must not block on
// I/O; components that need to do real work subscribe a thin handler that forwards onto their
// own worker queue (see internal/planogram and internal/cartengine).
type Handler func(event.Event)

type queue struct {
	mu    sync.Mutex
	items []event.Event // items[0] is the oldest (FIFO pop from front)
}

func (q *queue) push(ev event.Event) {
	q.mu.Lock()
	q.items = append(q.items, ev)
	q.mu.Unlock()
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Bus is the prioritized event bus. Zero value is not usable; construct with New.
type Bus struct {
	log  logger.Logger
	subs map[event.Type][]Handler
	subMu sync.RWMutex

	low, normal, high queue

	stop chan struct{}
	wg   sync.WaitGroup

	dispatched *prometheus.CounterVec
	queueDepth *prometheus.GaugeVec
}

// New builds a Bus. Registration is not yet metrics-registered with a registry; call
// MustRegister against the caller's prometheus.Registerer if metrics are wanted.
func New(log logger.Logger) *Bus {
	return &Bus{
		log:  log,
		subs: make(map[event.Type][]Handler),
		stop: make(chan struct{}),
		dispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kiosk_eventbus_dispatched_total",
			Help: "Number of events dispatched by the event bus, by type.",
		}, []string{"event_type"}),
		queueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "kiosk_eventbus_queue_depth",
			Help: "Number of events currently queued, by priority.",
		}, []string{"priority"}),
	}
}

// Collectors returns the bus's Prometheus collectors for registration.
func (b *Bus) Collectors() []prometheus.Collector {
	return []prometheus.Collector{b.dispatched, b.queueDepth}
}

// Subscribe registers handler to be invoked for every Event of the given type.
func (b *Bus) Subscribe(t event.Type, h Handler) {
	b.subMu.Lock()
	defer b.subMu.Unlock()
	b.subs[t] = append(b.subs[t], h)
}

// PostLow enqueues ev on the low-priority queue.
func (b *Bus) PostLow(ev event.Event) { b.low.push(ev) }

// Post enqueues ev on the normal-priority queue.
func (b *Bus) Post(ev event.Event) { b.normal.push(ev) }

// PostHigh enqueues ev on the high-priority queue.
func (b *Bus) PostHigh(ev event.Event) { b.high.push(ev) }

// Start begins the dispatcher tick.
func (b *Bus) Start() {
	b.wg.Add(1)
	go b.run()
}

// Stop halts the dispatcher tick and waits for the current tick to finish.
func (b *Bus) Stop() {
	close(b.stop)
	b.wg.Wait()
}

func (b *Bus) run() {
	defer b.wg.Done()
	ticker := time.NewTicker(dispatchPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-b.stop:
			return
		case <-ticker.C:
			b.dispatchTick()
		}
	}
}

func (b *Bus) dispatchTick() {
	b.drain(&b.high, maxHighPrioPerTick, "high")
	b.drain(&b.normal, maxNormalPrioPerTick, "normal")
	b.drain(&b.low, maxLowPrioPerTick, "low")
}

// drain pops up to max events from q, invoking every subscribed handler for each, outside the
// queue lock. Matches the source's acquire/release-around-each-handler-call pattern so a
// handler re-posting to the same queue cannot deadlock.
func (b *Bus) drain(q *queue, max int, label string) {
	for i := 0; i < max; i++ {
		q.mu.Lock()
		if len(q.items) == 0 {
			q.mu.Unlock()
			break
		}
		ev := q.items[0]
		q.items = q.items[1:]
		q.mu.Unlock()

		b.invoke(ev)
	}
	b.queueDepth.WithLabelValues(label).Set(float64(q.len()))
}

func (b *Bus) invoke(ev event.Event) {
	b.subMu.RLock()
	handlers := append([]Handler(nil), b.subs[ev.Type]...)
	b.subMu.RUnlock()

	b.dispatched.WithLabelValues(string(ev.Type)).Inc()
	for _, h := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					b.log.Error("event handler panicked", "event_type", ev.Type, "panic", r)
				}
			}()
			h(ev)
		}()
	}
}
