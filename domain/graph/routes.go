package graph

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes registers all graph routes.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	api := e.Group("/api")

	api.POST("/query", h.RunQuery)
	api.POST("/node-types", h.NodeTypes)
	api.GET("/default-query", h.DefaultQuery)
	api.POST("/neighbors", h.Neighbors)
}
