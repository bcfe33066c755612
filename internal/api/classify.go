package api

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sevnet/sevnet-go/internal/analysis"
	"github.com/sevnet/sevnet-go/internal/errors"
	"github.com/sevnet/sevnet-go/internal/sevnet"
)

// maxUploadBytes caps accepted image uploads.
const maxUploadBytes = 20 << 20 // 20 MB

// classificationResponse is the JSON form of a classification outcome.
type classificationResponse struct {
	ID            string             `json:"id"`
	Label         string             `json:"label,omitempty"`
	Confidence    float32            `json:"confidence,omitempty"`
	Probabilities map[string]float32 `json:"probabilities,omitempty"`
	Invalid       bool               `json:"invalid"`
	ModelVersion  string             `json:"model_version"`
	ElapsedMs     int64              `json:"elapsed_ms"`
}

// Classify accepts a JPEG image (multipart field "image" or raw body) and
// returns its severity classification. Identical payloads within the cache
// window return the cached result without re-running inference.
func (c *Controller) Classify(ctx echo.Context) error {
	data, err := readImagePayload(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	digest := sha256.Sum256(data)
	cacheKey := hex.EncodeToString(digest[:])
	if cached, found := c.resultCache.Get(cacheKey); found {
		return ctx.JSON(http.StatusOK, cached)
	}

	// Register this request for last-write-wins supersession: if a newer
	// upload lands while this one is in flight, this result is still
	// returned to its own caller but does not become the "latest" one.
	generation := c.tracker.Begin()

	start := time.Now()
	result, err := c.pipeline.ProcessImage(ctx.Request().Context(), data)
	elapsed := time.Since(start)

	if err != nil {
		return c.errorResponse(ctx, err)
	}

	classification, scores := analysis.NewRecord(c.Settings, result, "api", elapsed)

	resp := c.buildResponse(classification.UUID, result, elapsed)
	c.resultCache.Set(cacheKey, resp, 0)

	if c.tracker.Current(generation) {
		c.latestMu.Lock()
		c.latest = &resp
		c.latestMu.Unlock()
	}

	if c.DS != nil {
		if err := c.DS.Save(&classification, scores); err != nil {
			c.logger.Error("Failed to persist classification", "error", err)
		}
	}

	c.publishResult(resp)

	return ctx.JSON(http.StatusOK, resp)
}

// Latest returns the most recent committed classification, honoring
// last-write-wins supersession.
func (c *Controller) Latest(ctx echo.Context) error {
	c.latestMu.RLock()
	latest := c.latest
	c.latestMu.RUnlock()

	if latest == nil {
		return echo.NewHTTPError(http.StatusNotFound, "no classifications yet")
	}
	return ctx.JSON(http.StatusOK, latest)
}

// Recent returns the most recently persisted classifications.
func (c *Controller) Recent(ctx echo.Context) error {
	if c.DS == nil {
		return echo.NewHTTPError(http.StatusNotFound, "no output database enabled")
	}

	limit := 10
	if raw := ctx.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be between 1 and 100")
		}
		limit = parsed
	}

	classifications, err := c.DS.GetRecent(limit)
	if err != nil {
		return c.errorResponse(ctx, err)
	}
	return ctx.JSON(http.StatusOK, classifications)
}

// GetClassification returns a single persisted classification by UUID.
func (c *Controller) GetClassification(ctx echo.Context) error {
	if c.DS == nil {
		return echo.NewHTTPError(http.StatusNotFound, "no output database enabled")
	}

	classification, err := c.DS.Get(ctx.Param("id"))
	if err != nil {
		if errors.IsNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "classification not found")
		}
		return c.errorResponse(ctx, err)
	}
	return ctx.JSON(http.StatusOK, classification)
}

// Stats returns the number of stored classifications per label.
func (c *Controller) Stats(ctx echo.Context) error {
	if c.DS == nil {
		return echo.NewHTTPError(http.StatusNotFound, "no output database enabled")
	}

	counts, err := c.DS.CountByLabel()
	if err != nil {
		return c.errorResponse(ctx, err)
	}
	return ctx.JSON(http.StatusOK, counts)
}

// readImagePayload extracts the image bytes from a multipart form or the raw
// request body.
func readImagePayload(ctx echo.Context) ([]byte, error) {
	req := ctx.Request()
	req.Body = http.MaxBytesReader(ctx.Response(), req.Body, maxUploadBytes)

	if file, err := ctx.FormFile("image"); err == nil {
		src, err := file.Open()
		if err != nil {
			return nil, err
		}
		defer func() { _ = src.Close() }()
		return io.ReadAll(src)
	}

	data, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.NewStd("empty request body, expected a JPEG image")
	}
	return data, nil
}

// buildResponse converts a pipeline result into its JSON form.
func (c *Controller) buildResponse(id string, result sevnet.Result, elapsed time.Duration) classificationResponse {
	resp := classificationResponse{
		ID:           id,
		Invalid:      result.Invalid,
		ModelVersion: sevnet.ModelVersion(),
		ElapsedMs:    elapsed.Milliseconds(),
	}

	if !result.Invalid {
		resp.Label = result.Label
		resp.Confidence = result.Confidence
		resp.Probabilities = make(map[string]float32, len(result.Probabilities))
		for i, label := range c.Settings.SevNet.Labels {
			if i < len(result.Probabilities) {
				resp.Probabilities[label] = result.Probabilities[i]
			}
		}
	}

	return resp
}

// publishResult sends the classification over MQTT when enabled, best effort.
func (c *Controller) publishResult(resp classificationResponse) {
	if c.mqttClient == nil || !c.Settings.Serve.MQTT.Enabled {
		return
	}

	payload, err := json.Marshal(resp)
	if err != nil {
		c.logger.Error("Failed to marshal MQTT payload", "error", err)
		return
	}

	// Detached from the request context so the publish outlives the response.
	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.mqttClient.Publish(pubCtx, c.Settings.Serve.MQTT.Topic, string(payload)); err != nil {
			c.logger.Warn("Failed to publish classification to MQTT", "error", err)
		}
	}()
}

// errorResponse maps pipeline error categories onto HTTP status codes.
func (c *Controller) errorResponse(ctx echo.Context, err error) error {
	c.logger.Error("Request failed", "path", ctx.Path(), "error", err)

	switch {
	case errors.IsCategory(err, errors.CategoryImageDecode):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "could not decode image, only JPEG is supported")
	case errors.IsCategory(err, errors.CategoryImageResize), errors.IsCategory(err, errors.CategoryPreprocess):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "image preprocessing failed")
	case errors.IsCategory(err, errors.CategoryCancellation), errors.IsCategory(err, errors.CategoryTimeout):
		return echo.NewHTTPError(http.StatusRequestTimeout, "request cancelled")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "classification failed")
	}
}
