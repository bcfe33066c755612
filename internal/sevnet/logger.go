// Package sevnet logging setup.
package sevnet

import (
	"log/slog"
	"sync"

	"github.com/sevnet/sevnet-go/internal/logging"
)

var (
	serviceLogger *slog.Logger
	initOnce      sync.Once
)

// GetLogger returns the sevnet package logger scoped to the sevnet service.
// Uses sync.Once to ensure the logger is only initialized once.
func GetLogger() *slog.Logger {
	initOnce.Do(func() {
		serviceLogger = logging.ForService("sevnet")
		if serviceLogger == nil {
			serviceLogger = slog.Default().With("service", "sevnet")
		}
	})
	return serviceLogger
}
