package analysis

import (
	"log/slog"
	"sync"

	"github.com/sevnet/sevnet-go/internal/logging"
)

var (
	serviceLogger *slog.Logger
	loggerOnce    sync.Once
)

func getLogger() *slog.Logger {
	loggerOnce.Do(func() {
		serviceLogger = logging.ForService("analysis")
		if serviceLogger == nil {
			serviceLogger = slog.Default().With("service", "analysis")
		}
	})
	return serviceLogger
}
