// Package queue is a Redis list job queue with retries and a dead-letter list.
package queue

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"tracker/internal/logging"
)

const (
	DefaultQueueKey    = "season_cleanup"
	retrySuffix        = ":retry"
	dlqSuffix          = ":dlq"
	retryCounterSuffix = ":retry-count:"
	maxRetryAttempts   = 3
	brPopBlock         = 5 * time.Second
	popErrorBackoff    = time.Second
)

// Handler processes one job payload. A non-nil error schedules a retry.
type Handler func([]byte) error

// RedisQueue implements queue operations using Redis lists.
type RedisQueue struct {
	client  *redis.Client
	key     string
	log     logging.Interface
	block   time.Duration
	backoff time.Duration
}

// NewRedisQueue builds a queue on key; an empty key uses DefaultQueueKey.
func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	if key == "" {
		key = DefaultQueueKey
	}
	return &RedisQueue{
		client:  client,
		key:     key,
		log:     logging.Logger(),
		block:   brPopBlock,
		backoff: popErrorBackoff,
	}
}

// Key is the list jobs are pushed to.
func (q *RedisQueue) Key() string {
	return q.key
}

// Enqueue pushes payloads onto the queue; consumers pop from the other end.
func (q *RedisQueue) Enqueue(ctx context.Context, payloads ...[]byte) error {
	if len(payloads) == 0 {
		return nil
	}
	values := make([]interface{}, len(payloads))
	for i, p := range payloads {
		values[i] = p
	}
	if err := q.client.LPush(ctx, q.key, values...).Err(); err != nil {
		return fmt.Errorf("lpush %s: %w", q.key, err)
	}
	return nil
}

// Pending returns the number of jobs waiting, retries included.
func (q *RedisQueue) Pending(ctx context.Context) (int64, error) {
	pipe := q.client.Pipeline()
	queued := pipe.LLen(ctx, q.key)
	retry := pipe.LLen(ctx, q.key+retrySuffix)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("llen %s: %w", q.key, err)
	}
	return queued.Val() + retry.Val(), nil
}

// Consume uses BRPOP to deliver jobs to the handler until the context is canceled.
func (q *RedisQueue) Consume(ctx context.Context, handler Handler) error {
	for {
		if ctx.Err() != nil {
			q.log.Warnf("redis consumer exiting: %v", ctx.Err())
			return ctx.Err()
		}

		payload, ok := q.pop(ctx)
		if !ok {
			continue
		}
		q.run(ctx, handler, payload, "")
	}
}

// ConsumeConcurrent uses BRPOP to feed jobs to a worker pool for concurrent processing.
func (q *RedisQueue) ConsumeConcurrent(ctx context.Context, workerCount, bufferSize int, handler Handler) error {
	if workerCount < 1 {
		workerCount = 1
	}
	jobChan := make(chan []byte, bufferSize)
	var wg sync.WaitGroup

	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			prefix := fmt.Sprintf("worker %d: ", workerID)
			for payload := range jobChan {
				q.run(ctx, handler, payload, prefix)
			}
			q.log.Infof("%sexiting", prefix)
		}(i)
	}

	q.log.Infof("started %d concurrent workers for queue %s", workerCount, q.key)

	stop := func() error {
		close(jobChan)
		wg.Wait()
		return ctx.Err()
	}

	for {
		if ctx.Err() != nil {
			q.log.Warnf("redis consumer exiting: %v", ctx.Err())
			return stop()
		}

		payload, ok := q.pop(ctx)
		if !ok {
			continue
		}
		select {
		case jobChan <- payload:
		case <-ctx.Done():
			return stop()
		}
	}
}

// pop blocks for the next job, retries first. ok is false on timeout or error.
// After an error it waits for the backoff so an unreachable server is not polled in a loop.
func (q *RedisQueue) pop(ctx context.Context) ([]byte, bool) {
	result, err := q.client.BRPop(ctx, q.block, q.key+retrySuffix, q.key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			q.log.Warnf("redis BRPOP error: %v", err)
			select {
			case <-time.After(q.backoff):
			case <-ctx.Done():
			}
		}
		return nil, false
	}
	if len(result) < 2 {
		return nil, false
	}
	return []byte(result[1]), true
}

func (q *RedisQueue) run(ctx context.Context, handler Handler, payload []byte, prefix string) {
	if err := handler(payload); err != nil {
		q.log.Warnf("%shandler error, scheduling retry: %v", prefix, err)
		if err := q.handleRetry(ctx, payload); err != nil {
			q.log.Errorf("%sretry handling failed: %v", prefix, err)
		}
		return
	}
	_ = q.clearRetryCounter(ctx, payload)
}

func (q *RedisQueue) handleRetry(ctx context.Context, payload []byte) error {
	attempt, err := q.incrementRetryCounter(ctx, payload)
	if err != nil {
		return err
	}
	if attempt > maxRetryAttempts {
		q.log.Warnf("moving job to DLQ after %d attempts", attempt-1)
		_ = q.client.LPush(ctx, q.key+dlqSuffix, payload).Err()
		_ = q.clearRetryCounter(ctx, payload)
		return nil
	}
	return q.client.LPush(ctx, q.key+retrySuffix, payload).Err()
}

func (q *RedisQueue) incrementRetryCounter(ctx context.Context, payload []byte) (int64, error) {
	key := retryCounterKey(q.key, payload)
	count, err := q.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	_ = q.client.Expire(ctx, key, 24*time.Hour).Err()
	return count, nil
}

func (q *RedisQueue) clearRetryCounter(ctx context.Context, payload []byte) error {
	return q.client.Del(ctx, retryCounterKey(q.key, payload)).Err()
}

func retryCounterKey(queue string, payload []byte) string {
	sum := sha256.Sum256(payload)
	return fmt.Sprintf("%s%s%s", queue, retryCounterSuffix, hex.EncodeToString(sum[:]))
}
