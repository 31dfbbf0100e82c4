package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mid "github.com/OFFIS-RIT/dracor-mcp/internal/server/middleware"
	"github.com/OFFIS-RIT/dracor-mcp/internal/util"
	"github.com/OFFIS-RIT/dracor-mcp/pkg/logger"
	"github.com/OFFIS-RIT/dracor-mcp/pkg/registry"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

// Init serves reg on the transport selected by cfg until SIGINT or
// SIGTERM.
func Init(cfg util.Config, reg *registry.Registry, log *slog.Logger) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := NewMCPServer(reg, log)

	switch cfg.Transport {
	case util.TransportHTTP:
		serveHTTP(ctx, cfg, reg, s, log)
	default:
		logger.Info("Starting MCP server on stdio", "upstream", cfg.BaseURL)
		if err := s.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
			logger.Fatal("MCP server stopped", "err", err)
		}
	}
}

// NewEcho builds the HTTP transport. Every request gets a fresh stateless
// MCP session backed by the shared server.
func NewEcho(cfg util.Config, reg *registry.Registry, s *mcp.Server, log *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = &CustomValidator{validator: validator.New()}

	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s
	}, &mcp.StreamableHTTPOptions{
		Stateless:    true,
		JSONResponse: true,
		Logger:       log,
	})

	e.Use(mid.AppContextMiddleware(&mid.App{Config: cfg, Registry: reg, Version: Version}))
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("1M"))

	RegisterRoutes(e, handler)
	return e
}

func serveHTTP(ctx context.Context, cfg util.Config, reg *registry.Registry, s *mcp.Server, log *slog.Logger) {
	e := NewEcho(cfg, reg, s, log)

	go func() {
		logger.Info("Starting server", "addr", cfg.Addr(), "upstream", cfg.BaseURL)
		if err := e.Start(cfg.Addr()); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}
