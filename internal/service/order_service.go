package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"afrimart/internal/domain"
	"afrimart/internal/jobs"
	"afrimart/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrCartEmpty = errors.New("cart is empty")
)

// InsufficientStockError names the product that blocked a checkout.
type InsufficientStockError struct {
	ProductName string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s", e.ProductName)
}

// InvalidTransitionError rejects a status change the order lifecycle does
// not allow.
type InvalidTransitionError struct {
	From, To domain.OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition order from %s to %s", e.From, e.To)
}

// ShippingDetails carries the checkout form fields onto the order.
type ShippingDetails struct {
	Address string
	City    string
	State   string
	Phone   string
	Notes   string
}

// OrderService defines the interface for order business logic.
type OrderService interface {
	// PlaceOrder converts the user's cart into an order: stock validation,
	// stock decrement, order + snapshot items, cart clearing, all in one
	// transaction. A confirmation job is enqueued best-effort after commit.
	PlaceOrder(ctx context.Context, userID uuid.UUID, email string, shipping ShippingDetails) (*domain.Order, error)
	GetOrders(ctx context.Context, userID uuid.UUID, page, pageSize int, status *domain.OrderStatus) ([]*domain.Order, int, error)
	GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*domain.Order, error)
	ListAllOrders(ctx context.Context, page, pageSize int, status *domain.OrderStatus) ([]*domain.Order, int, error)
	// UpdateStatus applies a lifecycle transition and enqueues a best-effort
	// status notification. Admin only; enforced at the transport layer.
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus) (*domain.Order, error)
}

type orderService struct {
	orderRepo repository.OrderRepository
	enqueuer  jobs.Enqueuer
	logger    *zap.Logger
	txTimeout time.Duration
}

// NewOrderService creates a new instance of OrderService. txTimeout bounds
// the checkout transaction so product row locks cannot be held indefinitely.
func NewOrderService(orderRepo repository.OrderRepository, enqueuer jobs.Enqueuer, logger *zap.Logger, txTimeout time.Duration) OrderService {
	if txTimeout <= 0 {
		txTimeout = 10 * time.Second
	}
	return &orderService{
		orderRepo: orderRepo,
		enqueuer:  enqueuer,
		logger:    logger,
		txTimeout: txTimeout,
	}
}

const orderNumberAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// generateOrderNumber produces a human-readable display number from a
// timestamp prefix and a short random suffix. Display only; the order's
// primary key is its uuid.
func generateOrderNumber() string {
	suffix := make([]byte, 5)
	for i := range suffix {
		suffix[i] = orderNumberAlphabet[rand.IntN(len(orderNumberAlphabet))]
	}
	ts := strconv.FormatInt(time.Now().UnixMilli(), 36)
	return strings.ToUpper("ORD-" + ts + "-" + string(suffix))
}

func (s *orderService) PlaceOrder(ctx context.Context, userID uuid.UUID, email string, shipping ShippingDetails) (*domain.Order, error) {
	txCtx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	var order *domain.Order

	err := s.orderRepo.RunInTransaction(txCtx, func(tx repository.CheckoutTx) error {
		lines, err := tx.CartLinesForUpdate(txCtx, userID)
		if err != nil {
			return err
		}

		if len(lines) == 0 {
			return ErrCartEmpty
		}

		now := time.Now()
		o := &domain.Order{
			ID:              uuid.New(),
			UserID:          userID,
			OrderNumber:     generateOrderNumber(),
			Status:          domain.OrderStatusPending,
			PaymentStatus:   domain.PaymentStatusPending,
			ShippingAddress: shipping.Address,
			ShippingCity:    shipping.City,
			ShippingState:   shipping.State,
			ShippingPhone:   shipping.Phone,
			Notes:           shipping.Notes,
			CreatedAt:       now,
			UpdatedAt:       now,
		}

		total := decimal.Zero
		items := make([]domain.OrderItem, 0, len(lines))

		for _, line := range lines {
			// All-or-nothing: one short line aborts the whole checkout.
			if line.Item.Quantity > line.Product.Stock {
				return &InsufficientStockError{ProductName: line.Product.Name}
			}

			total = total.Add(line.Subtotal())
			items = append(items, domain.OrderItem{
				ID:          uuid.New(),
				OrderID:     o.ID,
				ProductID:   line.Product.ID,
				ProductName: line.Product.Name,
				Price:       line.Product.Price,
				Quantity:    line.Item.Quantity,
			})

			if err := tx.DecrementStock(txCtx, line.Product.ID, line.Item.Quantity); err != nil {
				return err
			}
		}

		o.TotalAmount = total.Round(2)

		if err := tx.InsertOrder(txCtx, o); err != nil {
			return err
		}
		if err := tx.InsertOrderItems(txCtx, items); err != nil {
			return err
		}
		if err := tx.ClearCart(txCtx, userID); err != nil {
			return err
		}

		o.Items = items
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	// The order is durably committed; notification failures are logged and
	// swallowed, never surfaced to the caller.
	enqueueErr := s.enqueuer.EnqueueOrderConfirmation(ctx, jobs.OrderConfirmationPayload{
		OrderID:     order.ID,
		Recipient:   email,
		OrderNumber: order.OrderNumber,
	})
	if enqueueErr != nil {
		s.logger.Error("Failed to enqueue order confirmation",
			zap.String("order_id", order.ID.String()),
			zap.Error(enqueueErr),
		)
	}

	s.logger.Info("Order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("user_id", userID.String()),
		zap.String("total", order.TotalAmount.String()),
	)

	return order, nil
}

// GetOrders returns the user's orders, newest first.
func (s *orderService) GetOrders(ctx context.Context, userID uuid.UUID, page, pageSize int, status *domain.OrderStatus) ([]*domain.Order, int, error) {
	return s.orderRepo.ListByUser(ctx, userID, page, pageSize, status)
}

// GetOrder returns one of the user's orders with items.
func (s *orderService) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*domain.Order, error) {
	return s.orderRepo.FindByIDForUser(ctx, userID, orderID)
}

// ListAllOrders returns orders across all users. Admin surface.
func (s *orderService) ListAllOrders(ctx context.Context, page, pageSize int, status *domain.OrderStatus) ([]*domain.Order, int, error) {
	return s.orderRepo.ListAll(ctx, page, pageSize, status)
}

func (s *orderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus) (*domain.Order, error) {
	order, err := s.orderRepo.FindWithBuyer(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !order.Status.CanTransitionTo(status) {
		return nil, &InvalidTransitionError{From: order.Status, To: status}
	}

	// delivered_at is stamped on the first entry into delivered only.
	var deliveredAt *time.Time
	if status == domain.OrderStatusDelivered && order.DeliveredAt == nil {
		now := time.Now()
		deliveredAt = &now
	}

	if err := s.orderRepo.UpdateStatus(ctx, orderID, status, deliveredAt); err != nil {
		return nil, err
	}

	order.Status = status
	if deliveredAt != nil {
		order.DeliveredAt = deliveredAt
	}

	enqueueErr := s.enqueuer.EnqueueOrderStatusUpdate(ctx, jobs.OrderStatusUpdatePayload{
		OrderID:     order.ID,
		Recipient:   order.Buyer.Email,
		OrderNumber: order.OrderNumber,
		Status:      status,
	})
	if enqueueErr != nil {
		s.logger.Error("Failed to enqueue status update",
			zap.String("order_id", order.ID.String()),
			zap.Error(enqueueErr),
		)
	}

	s.logger.Info("Order status updated",
		zap.String("order_id", order.ID.String()),
		zap.String("status", string(status)),
	)

	return order, nil
}
