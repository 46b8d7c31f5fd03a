package transport

import (
	"errors"
	"net/http"

	"afrimart/internal/middleware"
	"afrimart/internal/repository"
	"afrimart/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AddCartItemRequest is the payload for adding a product to the cart.
type AddCartItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// UpdateCartItemRequest is the payload for changing a cart line's quantity.
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

// CartHandler handles HTTP requests for the shopping cart. Every route is
// scoped to the authenticated user.
type CartHandler struct {
	cartService service.CartService
	logger      *zap.Logger
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(cartService service.CartService, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		logger:      logger,
	}
}

// RegisterRoutes registers all cart routes
func (h *CartHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/cart", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.GetCart)
		r.Post("/", h.AddItem)
		r.Put("/{id}", h.UpdateItem)
		r.Delete("/{id}", h.RemoveItem)
		r.Delete("/", h.Clear)
	})
}

// GetCart handles GET /api/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUserID(w, r, h.logger)
	if !ok {
		return
	}

	summary, err := h.cartService.GetCart(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to get cart", zap.Error(err), zap.String("user_id", userID.String()))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to get cart")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, summary)
}

// AddItem handles POST /api/cart
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUserID(w, r, h.logger)
	if !ok {
		return
	}

	var req AddCartItemRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	item, err := h.cartService.AddItem(r.Context(), userID, productID, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrProductNotFound):
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
		case errors.Is(err, service.ErrQuantityExceedsStock):
			middleware.RespondWithError(w, http.StatusBadRequest, "quantity exceeds available stock")
		default:
			h.logger.Error("Failed to add cart item", zap.Error(err), zap.String("user_id", userID.String()))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to add item to cart")
		}
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, item)
}

// UpdateItem handles PUT /api/cart/{id}
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUserID(w, r, h.logger)
	if !ok {
		return
	}

	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid cart item ID")
		return
	}

	var req UpdateCartItemRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.cartService.UpdateItem(r.Context(), userID, itemID, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrCartItemNotFound):
			middleware.RespondWithError(w, http.StatusNotFound, "cart item not found")
		case errors.Is(err, service.ErrQuantityExceedsStock):
			middleware.RespondWithError(w, http.StatusBadRequest, "quantity exceeds available stock")
		default:
			h.logger.Error("Failed to update cart item", zap.Error(err), zap.String("user_id", userID.String()))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update cart item")
		}
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, item)
}

// RemoveItem handles DELETE /api/cart/{id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUserID(w, r, h.logger)
	if !ok {
		return
	}

	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid cart item ID")
		return
	}

	if err := h.cartService.RemoveItem(r.Context(), userID, itemID); err != nil {
		if errors.Is(err, repository.ErrCartItemNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "cart item not found")
			return
		}

		h.logger.Error("Failed to remove cart item", zap.Error(err), zap.String("user_id", userID.String()))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to remove cart item")
		return
	}

	middleware.RespondWithMessage(w, http.StatusOK, "item removed from cart")
}

// Clear handles DELETE /api/cart
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUserID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.cartService.Clear(r.Context(), userID); err != nil {
		h.logger.Error("Failed to clear cart", zap.Error(err), zap.String("user_id", userID.String()))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to clear cart")
		return
	}

	middleware.RespondWithMessage(w, http.StatusOK, "cart cleared")
}
