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

	schedule := flag.String("schedule", cfg.Jobs.ReportSchedule, "Cron schedule for the report; empty runs once and exits")
	flag.Parse()

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize")
		os.Exit(1)
	}
	defer a.Close()

	// the registry is resolved up front so a bad tracker list fails fast
	if _, err := a.Reporter(); err != nil {
		logger.WithError(err).Error("Invalid tracker configuration")
		os.Exit(1)
	}

	if *schedule == "" {
		if _, err := a.Report(ctx); err != nil {
			logger.WithError(err).Error("Report failed")
			os.Exit(1)
		}
		return
	}

	err = app.RunScheduled(ctx, *schedule, logger, func(ctx context.Context) {
		if _, err := a.Report(ctx); err != nil {
			logger.WithError(err).Error("Report failed")
		}
	})
	if err != nil {
		logger.WithError(err).Error("Scheduler failed")
		os.Exit(1)
	}
}
