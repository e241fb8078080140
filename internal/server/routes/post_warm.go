package routes

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/OFFIS-RIT/lineage/internal/queue"
	"github.com/OFFIS-RIT/lineage/internal/server/middleware"
	"github.com/OFFIS-RIT/lineage/pkg/logger"

	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// WarmGraphHandler queues a background build of a graph so later queries
// find everything in the store.
func WarmGraphHandler(c echo.Context) error {
	type warmBody struct {
		Slug  string `json:"slug" validate:"required"`
		Depth int    `json:"depth" validate:"omitempty,min=1,max=3"`
	}

	type warmResponse struct {
		Message       string `json:"message"`
		CorrelationID string `json:"correlation_id,omitempty"`
	}

	data := new(warmBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	data.Slug = strings.TrimSpace(data.Slug)
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	app := c.(*middleware.AppContext).App
	if app.Queue == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "Queue unavailable"})
	}

	correlationID, err := gonanoid.New()
	if err != nil {
		logger.Error("[API] Failed to generate correlation id", "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	body, err := json.Marshal(queue.WarmMessage{
		CorrelationID: correlationID,
		Slug:          data.Slug,
		Depth:         data.Depth,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	if err := queue.PublishFIFO(c.Request().Context(), app.Queue, queue.WarmQueue, body); err != nil {
		logger.Error("[API] Failed to queue warm request", "slug", data.Slug, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to queue request"})
	}

	requester := ""
	if user := c.(*middleware.AppContext).User; user != nil {
		requester = user.ID
	}
	logger.Info("[API] Queued warm request", "slug", data.Slug, "correlation_id", correlationID, "user", requester)

	return c.JSON(http.StatusAccepted, warmResponse{
		Message:       "Queued",
		CorrelationID: correlationID,
	})
}
