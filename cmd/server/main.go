package main

import (
	"github.com/OFFIS-RIT/dracor-mcp/internal/server"
	"github.com/OFFIS-RIT/dracor-mcp/internal/util"
	"github.com/OFFIS-RIT/dracor-mcp/pkg/analysis"
	"github.com/OFFIS-RIT/dracor-mcp/pkg/dracor"
	"github.com/OFFIS-RIT/dracor-mcp/pkg/logger"
	"github.com/OFFIS-RIT/dracor-mcp/pkg/logger/console"
	"github.com/OFFIS-RIT/dracor-mcp/pkg/registry"
)

func main() {
	util.LoadEnv()

	cfg, err := util.LoadConfig()

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: util.GetEnvBool("DEBUG", false),
		Level: util.GetEnvString("LOG_LEVEL", "info"),
	})
	logger.Init(consoleLogger)

	if err != nil {
		logger.Fatal("Failed to load configuration", "err", err)
	}

	client, err := dracor.NewClient(dracor.NewClientParams{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
	})
	if err != nil {
		logger.Fatal("Failed to create DraCor client", "err", err)
	}

	var tokens analysis.TokenCounter
	if cfg.TokenEncoding != "" {
		tokens = analysis.NewTiktokenCounter(cfg.TokenEncoding)
	}

	analyzer := analysis.NewAnalyzer(analysis.NewAnalyzerParams{
		Client:      client,
		MaxParallel: cfg.MaxParallel,
		Tokens:      tokens,
	})

	server.Init(cfg, registry.New(analyzer), consoleLogger.Slog())
}
