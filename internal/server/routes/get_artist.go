package routes

import (
	"errors"
	"net/http"
	"strings"

	"github.com/OFFIS-RIT/lineage/internal/server/middleware"
	"github.com/OFFIS-RIT/lineage/pkg/logger"
	"github.com/OFFIS-RIT/lineage/pkg/resolver"
	"github.com/OFFIS-RIT/lineage/pkg/wiki"

	"github.com/labstack/echo/v4"
)

type artistResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Summary  string `json:"summary,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
	WikiURL  string `json:"wikiUrl,omitempty"`
}

// GetArtistHandler resolves :slug. Transient upstream failures are reported
// like a missing artist.
func GetArtistHandler(c echo.Context) error {
	slug := strings.TrimSpace(c.Param("slug"))
	if slug == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing slug parameter"})
	}

	app := c.(*middleware.AppContext).App
	artist, err := app.Resolver.Resolve(c.Request().Context(), slug)
	switch {
	case err == nil:
	case errors.Is(err, resolver.ErrNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Artist not found"})
	case wiki.IsTransient(err):
		logger.Warn("[API] Upstream unavailable", "slug", slug, "err", err)
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Artist not found"})
	default:
		logger.Error("[API] Failed to resolve artist", "slug", slug, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	return c.JSON(http.StatusOK, artistResponse{
		ID:       artist.ID,
		Name:     artist.Name,
		Summary:  artist.Summary,
		ImageURL: artist.ImageURL,
		WikiURL:  artist.WikiURL,
	})
}
