// Command server runs the check-in tracker API.
//
// All settings come from the environment or a .env file; see
// internal/config for the full list. The only required one for a useful
// server is JWT_SECRET:
//
//	JWT_SECRET=$(openssl rand -hex 32) go run ./cmd/server
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/sakif/checkin-tracker/internal/config"
	"github.com/sakif/checkin-tracker/internal/logging"
	"github.com/sakif/checkin-tracker/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run keeps main's defers alive: os.Exit would skip them.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, closeLog, err := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	if err != nil {
		return err
	}
	defer closeLog.Close()
	slog.SetDefault(logger)

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		return err
	}

	// Start blocks until SIGINT or SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		return err
	}
	return nil
}
