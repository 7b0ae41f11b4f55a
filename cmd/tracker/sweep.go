package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tracker/internal/cache"
	"tracker/internal/logging"
	"tracker/internal/metrics"
	"tracker/internal/processor"
	"tracker/internal/queue"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Queue a season cleanup for every cached player",
	Args:  cobra.NoArgs,
	RunE:  runSweep,
}

func runSweep(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger := logging.Logger()

	store, err := cache.Open(ctx, cfg.CacheURL)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer store.Close()

	redisClient, err := queueClient(cmd)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	engine, err := newEngine(store, metrics.New())
	if err != nil {
		return err
	}

	proc := processor.NewCleanupProcessor(ctx, engine, logger)
	q := queue.NewRedisQueue(redisClient, cfg.RedisQueue)

	queued, err := proc.EnqueueAll(ctx, store, q)
	if err != nil {
		return fmt.Errorf("enqueue cleanup jobs: %w", err)
	}

	pending, err := q.Pending(ctx)
	if err != nil {
		logger.Warnf("read queue length: %v", err)
	}
	logger.Infof("queued %d cleanup jobs on %s (%d pending)", queued, q.Key(), pending)
	return nil
}
