// Package api implements the HTTP classification service.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sevnet/sevnet-go/internal/analysis"
	"github.com/sevnet/sevnet-go/internal/conf"
	"github.com/sevnet/sevnet-go/internal/datastore"
	"github.com/sevnet/sevnet-go/internal/logging"
	"github.com/sevnet/sevnet-go/internal/mqtt"
	"github.com/sevnet/sevnet-go/internal/observability"
	"github.com/sevnet/sevnet-go/internal/sevnet"
)

// Controller manages the API routes and handlers.
type Controller struct {
	Echo     *echo.Echo
	Settings *conf.Settings
	DS       datastore.Interface // nil when no output database is enabled

	pipeline    *analysis.Pipeline
	tracker     *analysis.Tracker
	resultCache *cache.Cache // response cache keyed by image digest
	mqttClient  mqtt.Client  // nil when MQTT publishing is disabled
	metrics     *observability.Metrics
	logger      *slog.Logger

	latestMu sync.RWMutex
	latest   *classificationResponse // most recent committed result
}

// New creates a Controller wired to the given inference adapter. The adapter
// must be ready; readiness is an input here, not a global flag the handlers
// poll.
func New(settings *conf.Settings, adapter sevnet.Adapter, ds datastore.Interface, m *observability.Metrics, mqttClient mqtt.Client) *Controller {
	logger := logging.ForService("api")
	if logger == nil {
		logger = slog.Default().With("service", "api")
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	c := &Controller{
		Echo:        e,
		Settings:    settings,
		DS:          ds,
		tracker:     &analysis.Tracker{},
		resultCache: cache.New(5*time.Minute, 10*time.Minute),
		mqttClient:  mqttClient,
		metrics:     m,
		logger:      logger,
	}

	if m != nil {
		c.pipeline = analysis.New(settings, adapter, m.SevNet)
	} else {
		c.pipeline = analysis.New(settings, adapter, nil)
	}

	c.initRoutes()
	return c
}

// initRoutes registers all API endpoints.
func (c *Controller) initRoutes() {
	c.Echo.GET("/healthz", c.Health)

	v1 := c.Echo.Group("/api/v1")
	v1.POST("/classify", c.Classify)
	v1.GET("/classifications/latest", c.Latest)
	v1.GET("/classifications/recent", c.Recent)
	v1.GET("/classifications/stats", c.Stats)
	v1.GET("/classifications/:id", c.GetClassification)

	if c.metrics != nil {
		c.Echo.GET("/metrics", echo.WrapHandler(
			promhttp.HandlerFor(c.metrics.Registry(), promhttp.HandlerOpts{})))
	}
}

// Start runs the HTTP server until the context is cancelled.
func (c *Controller) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		addr := ":" + c.Settings.Serve.Port
		c.logger.Info("Starting classification API", "addr", addr)
		if err := c.Echo.Start(addr); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return c.Echo.Shutdown(shutdownCtx)
	}
}

// Health returns a simple liveness response.
func (c *Controller) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{
		"status": "healthy",
		"model":  sevnet.ModelVersion(),
	})
}
