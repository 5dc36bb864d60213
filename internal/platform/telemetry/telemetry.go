// Package telemetry wraps crash/error reporting to Sentry, grounded on kastheco-klique's
// internal/sentry package (Init/IsEnabled/Flush/RecoverPanic shape), extended per SPEC_FULL §7:
// unexpected errors surfaced from a worker loop are reported with the worker name and last
// processed event type as tags, without changing that worker's own continue-on-error behavior.
package telemetry

import (
	"time"

	gosentry "github.com/getsentry/sentry-go"
)

var enabled bool

// Init initializes the Sentry SDK for the given DSN/release. A blank dsn disables reporting;
// every other function in this package becomes a safe no-op.
func Init(dsn, release string) error {
	if dsn == "" {
		enabled = false
		return nil
	}
	if err := gosentry.Init(gosentry.ClientOptions{
		Dsn:              dsn,
		Release:          release,
		AttachStacktrace: true,
		SampleRate:       1.0,
	}); err != nil {
		return err
	}
	enabled = true
	return nil
}

// IsEnabled reports whether Sentry reporting is active.
func IsEnabled() bool { return enabled }

// Flush waits up to 2 seconds for buffered events to be sent; call before process exit.
func Flush() {
	if !enabled {
		return
	}
	gosentry.Flush(2 * time.Second)
}

// ReportWorkerError reports an unexpected worker-loop error, tagged with the worker name and the
// last event type it was processing when the error occurred, without altering the worker's own
// decision to keep running.
func ReportWorkerError(worker string, lastEventType string, err error) {
	if !enabled || err == nil {
		return
	}
	gosentry.WithScope(func(scope *gosentry.Scope) {
		scope.SetTag("worker", worker)
		scope.SetTag("last_event_type", lastEventType)
		gosentry.CaptureException(err)
	})
}

// RecoverPanic captures a panic to Sentry, flushes, then re-panics. Usage: defer
// telemetry.RecoverPanic("worker-name").
func RecoverPanic(worker string) {
	if !enabled {
		return
	}
	if r := recover(); r != nil {
		gosentry.WithScope(func(scope *gosentry.Scope) {
			scope.SetTag("worker", worker)
			gosentry.CurrentHub().Recover(r)
		})
		gosentry.Flush(2 * time.Second)
		panic(r)
	}
}
