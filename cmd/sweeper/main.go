package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jonboulle/clockwork"

	"github.com/beehive/membership/cmd/engine/repository"
	"github.com/beehive/membership/cmd/engine/service"
	"github.com/beehive/membership/common/bootstrap"
	"github.com/beehive/membership/common/db"
)

// One-shot expiry sweep for cron-style schedulers that prefer a process
// over calling the engine's maintenance endpoint.
func main() {
	ctx := context.Background()

	components, err := bootstrap.Setup(ctx, "sweeper",
		bootstrap.WithoutTelemetry(),
		bootstrap.WithDBInitHook(func(c *bootstrap.Components) error {
			return db.MigrateUp(c.Config, c.Logger)
		}),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap sweeper: %v\n", err)
		os.Exit(1)
	}
	defer components.Shutdown(ctx)

	var notifier service.Notifier = service.NopNotifier{}
	if components.Redis != nil {
		notifier = service.NewStreamNotifier(components.Redis, components.Config.Rewards.EventStream, components.Logger)
	}

	lifecycle := service.NewLifecycleService(&service.LifecycleServiceOpts{
		Store:          repository.NewStore(components.DB),
		Notifier:       notifier,
		Clock:          clockwork.NewRealClock(),
		Logger:         components.Logger,
		SweepBatchSize: components.Config.Sweep.BatchSize,
	})

	result, err := lifecycle.SweepExpired(ctx)
	if err != nil {
		components.Logger.Error("sweep aborted", "error", err,
			"expired", result.ExpiredCount, "rolled_up", result.RolledUpCount)
		os.Exit(1)
	}

	components.Logger.Info("sweep complete",
		"expired", result.ExpiredCount,
		"rolled_up", result.RolledUpCount,
		"failed", result.FailedCount)
}
