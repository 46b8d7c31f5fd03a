package jobs

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
)

// Enqueuer is the queue client the order workflow depends on. Enqueue
// failures are the caller's to log and swallow; they must never affect a
// committed order.
type Enqueuer interface {
	EnqueueOrderConfirmation(ctx context.Context, p OrderConfirmationPayload) error
	EnqueueOrderStatusUpdate(ctx context.Context, p OrderStatusUpdatePayload) error
	Close() error
}

type asynqEnqueuer struct {
	client *asynq.Client
}

// NewEnqueuer creates a redis-backed Enqueuer.
func NewEnqueuer(redisOpt asynq.RedisClientOpt) Enqueuer {
	return &asynqEnqueuer{client: asynq.NewClient(redisOpt)}
}

func (e *asynqEnqueuer) EnqueueOrderConfirmation(ctx context.Context, p OrderConfirmationPayload) error {
	task, err := NewOrderConfirmationTask(p)
	if err != nil {
		return err
	}
	if _, err := e.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("failed to enqueue order confirmation: %w", err)
	}
	return nil
}

func (e *asynqEnqueuer) EnqueueOrderStatusUpdate(ctx context.Context, p OrderStatusUpdatePayload) error {
	task, err := NewOrderStatusUpdateTask(p)
	if err != nil {
		return err
	}
	if _, err := e.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("failed to enqueue status update: %w", err)
	}
	return nil
}

func (e *asynqEnqueuer) Close() error {
	return e.client.Close()
}
