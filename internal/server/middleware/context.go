package middleware

import (
	"github.com/OFFIS-RIT/dracor-mcp/internal/util"
	"github.com/OFFIS-RIT/dracor-mcp/pkg/registry"

	"github.com/labstack/echo/v4"
)

// App holds the process-wide, read-only state shared by all handlers.
type App struct {
	Config   util.Config
	Registry *registry.Registry
	Version  string
}

type AppContext struct {
	echo.Context
	App *App
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			return next(&AppContext{Context: c, App: app})
		}
	}
}
