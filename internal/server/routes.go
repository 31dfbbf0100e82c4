package server

import (
	"net/http"

	"github.com/OFFIS-RIT/dracor-mcp/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo, mcpHandler http.Handler) {
	// Health check route
	e.GET("/health", routes.HealthHandler)

	// MCP streamable HTTP endpoint: POST for calls, GET for the event
	// stream, DELETE to end a session
	e.Any("/mcp", echo.WrapHandler(mcpHandler))
}
