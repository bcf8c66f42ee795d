// Package queue provides the Redis-backed queue trigger source.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/tasklab/automation/pkg/protocol"
)

// Trigger consumes messages from a Redis list and fires once per
// message. The client is shared and owned by the caller; Stop does not
// close it.
type Trigger struct {
	client   redis.UniversalClient
	queue    string
	callback protocol.TriggerCallback
	logger   *slog.Logger
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewTrigger(client redis.UniversalClient, queue string, logger *slog.Logger) (*Trigger, error) {
	if queue == "" {
		return nil, errors.New("queue trigger queue name is required")
	}

	return &Trigger{
		client: client,
		queue:  queue,
		stopCh: make(chan struct{}),
		logger: logger.With(
			"module", "queue_trigger",
			"queue", queue,
		),
	}, nil
}

func (t *Trigger) Start(ctx context.Context, callback protocol.TriggerCallback) error {
	t.logger.InfoContext(ctx, "Starting queue trigger")
	t.callback = callback

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := t.client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	t.wg.Add(1)

	go t.consume(ctx)

	return nil
}

func (t *Trigger) consume(ctx context.Context) {
	defer t.wg.Done()

	t.logger.InfoContext(ctx, "Starting queue consumer")

	for {
		select {
		case <-t.stopCh:
			t.logger.InfoContext(ctx, "Queue consumer stopped")

			return
		case <-ctx.Done():
			t.logger.InfoContext(ctx, "Context cancelled, stopping queue consumer")

			return
		default:
			if err := t.processMessage(ctx); err != nil {
				t.logger.ErrorContext(ctx, "Error processing message", "error", err)
				time.Sleep(1 * time.Second)
			}
		}
	}
}

func (t *Trigger) processMessage(ctx context.Context) error {
	result, err := t.client.BLPop(ctx, 1*time.Second, t.queue).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
			return nil
		}

		return fmt.Errorf("failed to pop message from queue: %w", err)
	}

	if len(result) < 2 {
		return nil
	}

	message := result[1]

	var payload map[string]any
	if err := json.Unmarshal([]byte(message), &payload); err != nil {
		// Non-JSON messages still fire, wrapped verbatim.
		payload = map[string]any{"message": message}
	}

	if payload["timestamp"] == nil {
		payload["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	}

	if err := t.callback(ctx, payload); err != nil {
		t.logger.ErrorContext(ctx, "Error firing workflow for queue message", "error", err)
	}

	return nil
}

func (t *Trigger) Stop(ctx context.Context) error {
	t.logger.InfoContext(ctx, "Stopping queue trigger")

	close(t.stopCh)
	t.wg.Wait()

	return nil
}
