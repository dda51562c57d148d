package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/platinummonkey/pulse/pkg/app"
	"github.com/platinummonkey/pulse/pkg/config"
	"github.com/platinummonkey/pulse/pkg/observability"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	days := flag.Int("days", cfg.Jobs.CleanupDays, "Delete activity records older than this many days")
	schedule := flag.String("schedule", cfg.Jobs.CleanupSchedule, "Cron schedule for the cleanup; empty runs once and exits")
	flag.Parse()

	if *days < 0 {
		log.Fatalf("Invalid -days %d: must be non-negative", *days)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize")
		os.Exit(1)
	}
	defer a.Close()

	if *schedule == "" {
		if _, err := a.Cleanup(ctx, *days); err != nil {
			logger.WithError(err).Error("Cleanup failed")
			os.Exit(1)
		}
		return
	}

	err = app.RunScheduled(ctx, *schedule, logger, func(ctx context.Context) {
		if _, err := a.Cleanup(ctx, *days); err != nil {
			logger.WithError(err).Error("Cleanup failed")
		}
	})
	if err != nil {
		logger.WithError(err).Error("Scheduler failed")
		os.Exit(1)
	}
}
