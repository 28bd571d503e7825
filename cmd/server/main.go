// Command server runs the user-management HTTP API.
//
// Configuration comes from config.toml (or the file named by CONFIG_FILE)
// with environment-variable overrides on top. See internal/config.
package main

import (
	"log/slog"
	"os"

	"github.com/chang-ngeno/probable-memory-nextjs/internal/config"
	"github.com/chang-ngeno/probable-memory-nextjs/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
