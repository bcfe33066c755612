// Package telemetry provides opt-in Sentry error reporting.
package telemetry

import (
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/sevnet/sevnet-go/internal/conf"
	"github.com/sevnet/sevnet-go/internal/errors"
	"github.com/sevnet/sevnet-go/internal/logging"
)

// Init configures Sentry and attaches the reporter to the errors package.
// Telemetry is strictly opt-in; when disabled this is a no-op and the errors
// package keeps its fast path.
func Init(settings *conf.Settings, version string) error {
	if !settings.Sentry.Enabled {
		errors.SetTelemetryReporter(nil)
		return nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              settings.Sentry.DSN,
		Release:          version,
		AttachStacktrace: false, // stack traces may contain file paths
		SampleRate:       1.0,
	})
	if err != nil {
		return err
	}

	errors.SetTelemetryReporter(errors.NewSentryReporter(true))
	logging.Info("Telemetry enabled")
	return nil
}

// Flush drains pending telemetry events, called during shutdown.
func Flush() {
	sentry.Flush(2 * time.Second)
}
