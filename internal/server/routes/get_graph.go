package routes

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/OFFIS-RIT/lineage/internal/server/middleware"
	"github.com/OFFIS-RIT/lineage/pkg/graph"
	"github.com/OFFIS-RIT/lineage/pkg/logger"

	"github.com/labstack/echo/v4"
)

// GetGraphHandler returns the influence neighborhood of ?slug= up to ?depth=
// hops. An unknown or non-artist slug yields an empty graph.
func GetGraphHandler(c echo.Context) error {
	slug := strings.TrimSpace(c.QueryParam("slug"))
	if slug == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing slug parameter"})
	}

	depth := graph.DefaultDepth
	if raw := strings.TrimSpace(c.QueryParam("depth")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid depth parameter"})
		}
		depth = graph.ClampDepth(parsed)
	}

	app := c.(*middleware.AppContext).App
	result, err := app.Builder.Build(c.Request().Context(), slug, depth)
	if err != nil {
		logger.Error("[API] Failed to build graph", "slug", slug, "depth", depth, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to build graph"})
	}

	return c.JSON(http.StatusOK, result)
}
