// Package telemetry implements the Telemetry Forwarder (C8): a bus subscriber that
// mirrors machine/dispensing/reservation activity onto Kafka for downstream analytics, grounded
// on the teacher's infrastructure/kafka Watermill+Sarama wiring (internal/infrastructure/kafka),
// run in reverse: a publisher rather than a consumer.
package telemetry

import (
	"encoding/json"

	"github.com/IBM/sarama"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v3/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/dmatiushkin73/my-kiosk-backend/internal/domain/event"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/eventbus"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/platform/logger"
)

// Topic is the Kafka topic telemetry events are published to.
const Topic = "kiosk.telemetry.v1"

// watched is the set of bus events mirrored onto Kafka.
var watched = []event.Type{
	event.TypeMachineStateChanged,
	event.TypeDispensingStatus,
	event.TypeReservationCompleted,
}

// record is the JSON envelope published for every watched event.
type record struct {
	EventType event.Type `json:"event_type"`
	Body      any        `json:"body"`
}

// Forwarder publishes watched bus events to Kafka. Publish failures are logged and dropped:
// telemetry is best-effort and must never block the bus dispatcher.
type Forwarder struct {
	pub message.Publisher
	log logger.Logger
}

// NewPublisher builds a Watermill Kafka publisher backed by Sarama, using the given brokers.
func NewPublisher(brokers []string, log logger.Logger) (message.Publisher, error) {
	saramaCfg := kafka.DefaultSaramaSyncPublisherConfig()
	saramaCfg.Producer.RequiredAcks = sarama.WaitForLocal

	pub, err := kafka.NewPublisher(kafka.PublisherConfig{
		Brokers:               brokers,
		Marshaler:             kafka.DefaultMarshaler{},
		OverwriteSaramaConfig: saramaCfg,
	}, watermillLoggerAdapter{log})
	if err != nil {
		return nil, err
	}
	return pub, nil
}

// New wires a Forwarder over an already-constructed publisher, so tests can substitute an
// in-memory one.
func New(pub message.Publisher, log logger.Logger) *Forwarder {
	return &Forwarder{pub: pub, log: log.Named("telemetry.forwarder")}
}

// Attach subscribes the forwarder to the bus for every watched event type. Handlers registered
// here run on the dispatcher goroutine and hand each event to its own goroutine, so the Kafka
// publish never runs inline in the dispatch loop; publish order across events is therefore not
// guaranteed, and any failure is swallowed after logging per the component's best-effort contract.
func (f *Forwarder) Attach(bus *eventbus.Bus) {
	for _, t := range watched {
		evType := t
		bus.Subscribe(evType, func(ev event.Event) {
			go f.forward(evType, ev.Body)
		})
	}
}

func (f *Forwarder) forward(evType event.Type, body any) {
	payload, err := json.Marshal(record{EventType: evType, Body: body})
	if err != nil {
		f.log.Error("marshal telemetry event failed", "event_type", evType, "error", err)
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := f.pub.Publish(Topic, msg); err != nil {
		f.log.Error("publish telemetry event failed", "event_type", evType, "error", err)
	}
}

// Close releases the underlying publisher's resources.
func (f *Forwarder) Close() error {
	return f.pub.Close()
}

// watermillLoggerAdapter bridges logger.Logger to watermill's LoggerAdapter interface.
type watermillLoggerAdapter struct {
	log logger.Logger
}

func (a watermillLoggerAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.log.Error(msg, "error", err, "fields", fields)
}

func (a watermillLoggerAdapter) Info(msg string, fields watermill.LogFields) {
	a.log.Info(msg, "fields", fields)
}

func (a watermillLoggerAdapter) Debug(msg string, fields watermill.LogFields) {
	a.log.Debug(msg, "fields", fields)
}

func (a watermillLoggerAdapter) Trace(msg string, fields watermill.LogFields) {
	a.log.Debug(msg, "fields", fields)
}

func (a watermillLoggerAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return a
}
