package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"afrimart/internal/domain"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Task type identifiers. These double as the template identifiers the worker
// resolves; an unrecognized value is a caller defect.
const (
	TypeOrderConfirmation = "email:order_confirmation"
	TypeOrderStatusUpdate = "email:order_status"
)

// QueueEmails is the queue all notification jobs go through.
const QueueEmails = "emails"

const (
	maxRetry = 3
	// Exhausted jobs stay in the archive this long for manual inspection.
	failedRetention = 7 * 24 * time.Hour
)

// OrderConfirmationPayload is the order-confirmation job body.
type OrderConfirmationPayload struct {
	OrderID     uuid.UUID `json:"order_id"`
	Recipient   string    `json:"recipient"`
	OrderNumber string    `json:"order_number"`
}

// OrderStatusUpdatePayload is the status-update job body.
type OrderStatusUpdatePayload struct {
	OrderID     uuid.UUID          `json:"order_id"`
	Recipient   string             `json:"recipient"`
	OrderNumber string             `json:"order_number"`
	Status      domain.OrderStatus `json:"status"`
}

// NewOrderConfirmationTask builds the asynq task for an order confirmation.
func NewOrderConfirmationTask(p OrderConfirmationPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal confirmation payload: %w", err)
	}
	return asynq.NewTask(TypeOrderConfirmation, payload,
		asynq.Queue(QueueEmails),
		asynq.MaxRetry(maxRetry),
		asynq.Retention(failedRetention),
	), nil
}

// NewOrderStatusUpdateTask builds the asynq task for a status update.
func NewOrderStatusUpdateTask(p OrderStatusUpdatePayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal status payload: %w", err)
	}
	return asynq.NewTask(TypeOrderStatusUpdate, payload,
		asynq.Queue(QueueEmails),
		asynq.MaxRetry(maxRetry),
		asynq.Retention(failedRetention),
	), nil
}

// RetryDelay mirrors the queue's historical policy: exponential backoff from
// a 2 second base.
func RetryDelay(n int, _ error, _ *asynq.Task) time.Duration {
	return 2 * time.Second * (1 << n)
}
