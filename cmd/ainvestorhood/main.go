package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/VictorSaf/ainvestorhood5/internal/app"
	"github.com/VictorSaf/ainvestorhood5/internal/config"
	"github.com/VictorSaf/ainvestorhood5/internal/logging"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("application wiring failed", "error", err)
		os.Exit(1)
	}

	if err := application.Run(ctx); err != nil {
		logger.Error("application stopped", "error", err)
		os.Exit(1)
	}
}
