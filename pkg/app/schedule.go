package app

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/platinummonkey/pulse/pkg/observability"
)

// RunScheduled runs job on the cron schedule spec until ctx is done, then
// waits for a running job to finish
func RunScheduled(ctx context.Context, spec string, logger *observability.Logger, job func(context.Context)) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	_, err := c.AddFunc(spec, func() {
		defer observability.RecoverPanic(logger, "scheduled job")
		job(ctx)
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	c.Start()
	logger.WithField("schedule", spec).Info("Scheduler started")

	<-ctx.Done()
	logger.Info("Stopping scheduler")
	<-c.Stop().Done()
	return nil
}
