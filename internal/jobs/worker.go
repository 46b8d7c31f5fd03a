package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Worker consumes notification jobs from the queue and dispatches email.
// It is fully decoupled from the request path; its failures never touch
// order or catalog state.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *zap.Logger
}

// NewWorker builds an asynq consumer with the retry policy the queue has
// always had: 3 attempts, exponential backoff, failed jobs retained.
func NewWorker(redisOpt asynq.RedisClientOpt, mailer Mailer, logger *zap.Logger) *Worker {
	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency:    10,
		Queues:         map[string]int{QueueEmails: 1},
		RetryDelayFunc: RetryDelay,
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logger.Error("Email job failed",
				zap.String("type", task.Type()),
				zap.Error(err),
			)
		}),
	})

	h := &handlers{mailer: mailer, logger: logger}

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeOrderConfirmation, h.handleOrderConfirmation)
	mux.HandleFunc(TypeOrderStatusUpdate, h.handleOrderStatusUpdate)
	// Anything else on the queue is a caller defect; retrying cannot fix it.
	mux.HandleFunc("email:", h.handleUnknown)

	return &Worker{server: server, mux: mux, logger: logger}
}

// Run blocks processing jobs until Shutdown is called.
func (w *Worker) Run() error {
	return w.server.Run(w.mux)
}

// Shutdown stops the consumer, waiting for in-flight jobs.
func (w *Worker) Shutdown() {
	w.server.Shutdown()
}

type handlers struct {
	mailer Mailer
	logger *zap.Logger
}

func (h *handlers) handleOrderConfirmation(ctx context.Context, task *asynq.Task) error {
	var payload OrderConfirmationPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid confirmation payload: %v: %w", err, asynq.SkipRetry)
	}

	email, err := RenderOrderConfirmation(payload)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	if err := h.mailer.Send(payload.Recipient, email); err != nil {
		return err
	}

	h.logger.Info("Order confirmation sent",
		zap.String("order_number", payload.OrderNumber),
		zap.String("recipient", payload.Recipient),
	)
	return nil
}

func (h *handlers) handleOrderStatusUpdate(ctx context.Context, task *asynq.Task) error {
	var payload OrderStatusUpdatePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid status payload: %v: %w", err, asynq.SkipRetry)
	}

	email, err := RenderOrderStatusUpdate(payload)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	if err := h.mailer.Send(payload.Recipient, email); err != nil {
		return err
	}

	h.logger.Info("Status update sent",
		zap.String("order_number", payload.OrderNumber),
		zap.String("status", string(payload.Status)),
		zap.String("recipient", payload.Recipient),
	)
	return nil
}

func (h *handlers) handleUnknown(ctx context.Context, task *asynq.Task) error {
	return fmt.Errorf("%v: %s: %w", ErrUnknownTemplate, task.Type(), asynq.SkipRetry)
}
