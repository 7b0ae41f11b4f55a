package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"tracker/internal/cache"
	"tracker/internal/logging"
	"tracker/internal/metrics"
	"tracker/internal/processor"
	"tracker/internal/queue"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Drain the season-cleanup queue",
	Args:  cobra.NoArgs,
	RunE:  runWorker,
}

func runWorker(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	handler := func(payload []byte) error {
		return proc.Handle(payload)
	}

	if cfg.WorkerCount > 1 {
		logger.Infof("starting concurrent consumption of %s with %d workers", q.Key(), cfg.WorkerCount)
		err = q.ConsumeConcurrent(ctx, cfg.WorkerCount, cfg.JobBufferSize, handler)
	} else {
		logger.Infof("starting single-threaded consumption of %s", q.Key())
		err = q.Consume(ctx, handler)
	}
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("queue consumption ended: %w", err)
	}
	return nil
}

func queueClient(cmd *cobra.Command) (*redis.Client, error) {
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required for %s", cmd.Name())
	}
	client, err := cache.NewRedisClient(cmd.Context(), cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return client, nil
}
