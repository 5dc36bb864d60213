package eventbus_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmatiushkin73/my-kiosk-backend/internal/domain/event"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/eventbus"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/platform/logger"
)

func newTestBus(t *testing.T) *eventbus.Bus {
	t.Helper()
	log, err := logger.New(true)
	require.NoError(t, err)
	return eventbus.New(log)
}

func TestBus_FIFOWithinPriority(t *testing.T) {
	b := newTestBus(t)
	b.Start()
	defer b.Stop()

	var mu sync.Mutex
	var order []int

	b.Subscribe(event.TypeHumanDetected, func(ev event.Event) {
		body := ev.Body.(event.HumanDetectedBody)
		mu.Lock()
		order = append(order, body.DisplayID)
		mu.Unlock()
	})

	for i := 1; i <= 3; i++ {
		b.Post(event.Event{Type: event.TypeHumanDetected, Body: event.HumanDetectedBody{DisplayID: i}})
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 3
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestBus_HandlerCanRepost(t *testing.T) {
	b := newTestBus(t)
	b.Start()
	defer b.Stop()

	done := make(chan struct{})
	var once sync.Once

	b.Subscribe(event.TypeStartupComplete, func(ev event.Event) {
		once.Do(func() { close(done) })
	})
	b.Subscribe(event.TypeHumanDetected, func(ev event.Event) {
		b.Post(event.Event{Type: event.TypeStartupComplete})
	})

	b.Post(event.Event{Type: event.TypeHumanDetected, Body: event.HumanDetectedBody{DisplayID: 1}})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler-triggered repost was never delivered")
	}
}

func TestBus_MultipleSubscribersAllInvoked(t *testing.T) {
	b := newTestBus(t)
	b.Start()
	defer b.Stop()

	var count int32
	var mu sync.Mutex
	inc := func(event.Event) {
		mu.Lock()
		count++
		mu.Unlock()
	}
	b.Subscribe(event.TypeUIModelUpdated, inc)
	b.Subscribe(event.TypeUIModelUpdated, inc)

	b.Post(event.Event{Type: event.TypeUIModelUpdated})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return count == 2
	}, time.Second, 10*time.Millisecond)
}
