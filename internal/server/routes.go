package server

import (
	"github.com/OFFIS-RIT/lineage/internal/server/middleware"
	"github.com/OFFIS-RIT/lineage/internal/server/routes"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	apiRoutes := e.Group("/api")

	// Graph routes
	apiRoutes.GET("/graph", routes.GetGraphHandler)
	apiRoutes.GET("/graph/schema", routes.GetGraphSchemaHandler)

	// Artist routes
	apiRoutes.GET("/artists/:slug", routes.GetArtistHandler)

	// Admin routes
	adminRoutes := apiRoutes.Group("/admin", middleware.AuthMiddleware)
	adminRoutes.POST("/warm", routes.WarmGraphHandler, middleware.RequirePermission(middleware.PermissionGraphWarm))
}
