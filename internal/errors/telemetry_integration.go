// Package errors - telemetry integration (optional)
package errors

import (
	"fmt"
	"regexp"
	"sync"
	"sync/atomic"

	"github.com/getsentry/sentry-go"
)

// TelemetryReporter is an interface for reporting errors to telemetry systems
type TelemetryReporter interface {
	ReportError(err *EnhancedError)
	IsEnabled() bool
}

var (
	telemetryReporter   TelemetryReporter
	telemetryMutex      sync.RWMutex
	hasActiveReporting  atomic.Bool
	privacyPathPattern  = regexp.MustCompile(`(/[^\s:]+)+`)
	privacyIPv4Pattern  = regexp.MustCompile(`\b(\d{1,3}\.){3}\d{1,3}\b`)
	privacyEmailPattern = regexp.MustCompile(`[\w.+-]+@[\w-]+\.[\w.]+`)
)

// SetTelemetryReporter sets the active telemetry reporter. Passing nil
// disables reporting and restores the fast path in Build.
func SetTelemetryReporter(reporter TelemetryReporter) {
	telemetryMutex.Lock()
	defer telemetryMutex.Unlock()
	telemetryReporter = reporter
	hasActiveReporting.Store(reporter != nil && reporter.IsEnabled())
}

// reportToTelemetry forwards an enhanced error to the active reporter, if any.
func reportToTelemetry(ee *EnhancedError) {
	telemetryMutex.RLock()
	reporter := telemetryReporter
	telemetryMutex.RUnlock()

	if reporter == nil || !reporter.IsEnabled() {
		return
	}
	reporter.ReportError(ee)
}

// SentryReporter implements TelemetryReporter for Sentry
type SentryReporter struct {
	enabled bool
}

// NewSentryReporter creates a new Sentry telemetry reporter
func NewSentryReporter(enabled bool) *SentryReporter {
	return &SentryReporter{enabled: enabled}
}

// IsEnabled returns whether Sentry telemetry is enabled
func (sr *SentryReporter) IsEnabled() bool {
	return sr.enabled
}

// ReportError reports an enhanced error to Sentry with privacy protection
func (sr *SentryReporter) ReportError(ee *EnhancedError) {
	if !sr.enabled || ee.IsReported() {
		return
	}

	message := scrubMessage(fmt.Sprintf("[%s] %s", ee.Category, ee.Err.Error()))

	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("component", ee.GetComponent())
		scope.SetTag("category", string(ee.Category))
		scope.SetFingerprint([]string{ee.GetComponent(), string(ee.Category)})

		for key, value := range ee.GetContext() {
			scrubbed := value
			if strValue, ok := value.(string); ok {
				scrubbed = scrubMessage(strValue)
			}
			scope.SetContext(key, map[string]any{"value": scrubbed})
		}

		sentry.CaptureMessage(message)
	})

	ee.MarkReported()
}

// scrubMessage removes filesystem paths, IP addresses and email addresses
// from outgoing telemetry messages.
func scrubMessage(msg string) string {
	msg = privacyEmailPattern.ReplaceAllString(msg, "[email]")
	msg = privacyIPv4Pattern.ReplaceAllString(msg, "[ip]")
	msg = privacyPathPattern.ReplaceAllString(msg, "[path]")
	return msg
}
