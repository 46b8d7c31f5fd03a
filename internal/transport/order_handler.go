package transport

import (
	"errors"
	"net/http"

	"afrimart/internal/domain"
	"afrimart/internal/middleware"
	"afrimart/internal/repository"
	"afrimart/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PlaceOrderRequest is the checkout payload.
type PlaceOrderRequest struct {
	ShippingAddress string `json:"shipping_address" validate:"required"`
	ShippingCity    string `json:"shipping_city" validate:"required"`
	ShippingState   string `json:"shipping_state" validate:"required"`
	ShippingPhone   string `json:"shipping_phone" validate:"required"`
	Notes           string `json:"notes"`
}

// UpdateOrderStatusRequest is the admin payload for a lifecycle transition.
type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	orderService service.OrderService
	logger       *zap.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		logger:       logger,
	}
}

// RegisterRoutes registers all order routes. Customer routes are scoped to
// the authenticated user; the admin listing and status transitions require
// the admin role on top.
func (h *OrderHandler) RegisterRoutes(r chi.Router, authMiddleware, adminMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/orders", func(r chi.Router) {
		r.Use(authMiddleware)

		r.Post("/", h.PlaceOrder)
		r.Get("/", h.ListOrders)
		r.Get("/{id}", h.GetOrder)

		r.Group(func(r chi.Router) {
			r.Use(adminMiddleware)
			r.Get("/admin/all", h.ListAllOrders)
			r.Put("/{id}/status", h.UpdateStatus)
		})
	})
}

// PlaceOrder handles POST /api/orders
func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUserID(w, r, h.logger)
	if !ok {
		return
	}

	var req PlaceOrderRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	email, _ := middleware.GetUserEmail(r.Context())

	order, err := h.orderService.PlaceOrder(r.Context(), userID, email, service.ShippingDetails{
		Address: req.ShippingAddress,
		City:    req.ShippingCity,
		State:   req.ShippingState,
		Phone:   req.ShippingPhone,
		Notes:   req.Notes,
	})
	if err != nil {
		var stockErr *service.InsufficientStockError
		switch {
		case errors.Is(err, service.ErrCartEmpty):
			middleware.RespondWithError(w, http.StatusBadRequest, "cart is empty")
		case errors.As(err, &stockErr):
			middleware.RespondWithError(w, http.StatusBadRequest, stockErr.Error())
		default:
			h.logger.Error("Failed to place order", zap.Error(err), zap.String("user_id", userID.String()))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to place order")
		}
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, order)
}

// parseStatusFilter reads the optional ?status= query param.
func parseStatusFilter(w http.ResponseWriter, r *http.Request) (*domain.OrderStatus, bool) {
	raw := r.URL.Query().Get("status")
	if raw == "" {
		return nil, true
	}

	status, ok := domain.ParseOrderStatus(raw)
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order status")
		return nil, false
	}

	return &status, true
}

// ListOrders handles GET /api/orders
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUserID(w, r, h.logger)
	if !ok {
		return
	}

	status, ok := parseStatusFilter(w, r)
	if !ok {
		return
	}
	page, pageSize := parsePage(r)

	orders, total, err := h.orderService.GetOrders(r.Context(), userID, page, pageSize, status)
	if err != nil {
		h.logger.Error("Failed to list orders", zap.Error(err), zap.String("user_id", userID.String()))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}

	middleware.RespondWithPage(w, http.StatusOK, orders, pagination(total, page, pageSize))
}

// GetOrder handles GET /api/orders/{id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUserID(w, r, h.logger)
	if !ok {
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	order, err := h.orderService.GetOrder(r.Context(), userID, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "order not found")
			return
		}

		h.logger.Error("Failed to get order", zap.Error(err), zap.String("order_id", orderID.String()))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to get order")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, order)
}

// ListAllOrders handles GET /api/orders/admin/all (admin)
func (h *OrderHandler) ListAllOrders(w http.ResponseWriter, r *http.Request) {
	status, ok := parseStatusFilter(w, r)
	if !ok {
		return
	}
	page, pageSize := parsePage(r)

	orders, total, err := h.orderService.ListAllOrders(r.Context(), page, pageSize, status)
	if err != nil {
		h.logger.Error("Failed to list all orders", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}

	middleware.RespondWithPage(w, http.StatusOK, orders, pagination(total, page, pageSize))
}

// UpdateStatus handles PUT /api/orders/{id}/status (admin)
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	var req UpdateOrderStatusRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status, ok := domain.ParseOrderStatus(req.Status)
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order status")
		return
	}

	order, err := h.orderService.UpdateStatus(r.Context(), orderID, status)
	if err != nil {
		var transitionErr *service.InvalidTransitionError
		switch {
		case errors.Is(err, repository.ErrOrderNotFound):
			middleware.RespondWithError(w, http.StatusNotFound, "order not found")
		case errors.As(err, &transitionErr):
			middleware.RespondWithError(w, http.StatusBadRequest, transitionErr.Error())
		default:
			h.logger.Error("Failed to update order status", zap.Error(err), zap.String("order_id", orderID.String()))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update order status")
		}
		return
	}

	h.logger.Info("Order status updated",
		zap.String("order_id", orderID.String()),
		zap.String("status", string(status)),
	)
	middleware.RespondWithJSON(w, http.StatusOK, order)
}
