package routes

import (
	"net/http"

	"github.com/OFFIS-RIT/dracor-mcp/internal/server/middleware"
	"github.com/OFFIS-RIT/dracor-mcp/pkg/logger"

	"github.com/labstack/echo/v4"
)

const checkUpstream = "upstream"

type healthRequest struct {
	Check string `query:"check" validate:"omitempty,oneof=upstream"`
}

type healthResponse struct {
	Status         string `json:"status"`
	Service        string `json:"service"`
	Version        string `json:"version"`
	Transport      string `json:"transport"`
	Upstream       string `json:"upstream"`
	UpstreamStatus string `json:"upstream_status,omitempty"`
	Tools          int    `json:"tools"`
	Resources      int    `json:"resources"`
}

// HealthHandler reports liveness. With ?check=upstream it also reads the
// upstream info endpoint and answers 503 when that fails.
func HealthHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App

	var req healthRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "check must be \"upstream\"")
	}

	res := healthResponse{
		Status:    "healthy",
		Service:   "dracor-mcp-server",
		Version:   app.Version,
		Transport: app.Config.Transport,
		Upstream:  app.Config.BaseURL,
		Tools:     len(app.Registry.Tools()),
		Resources: len(app.Registry.Resources()),
	}
	if req.Check != checkUpstream {
		return c.JSON(http.StatusOK, res)
	}

	if _, err := app.Registry.ReadResource(c.Request().Context(), "info://"); err != nil {
		logger.Warn("[Health] upstream check failed", "err", err)
		res.Status = "degraded"
		res.UpstreamStatus = "unreachable"
		return c.JSON(http.StatusServiceUnavailable, res)
	}
	res.UpstreamStatus = "reachable"
	return c.JSON(http.StatusOK, res)
}
