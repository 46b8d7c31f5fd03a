package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"afrimart/internal/domain"
	"afrimart/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrQuantityExceedsStock rejects cart writes that would promise more
	// units than the product currently has.
	ErrQuantityExceedsStock = errors.New("quantity exceeds available stock")
)

// CartSummary is the client-visible view of a cart.
type CartSummary struct {
	Items []*domain.CartLine `json:"items"`
	Total decimal.Decimal    `json:"total"`
	Count int                `json:"count"`
}

// CartService defines the interface for cart business logic. All operations
// are scoped to the calling user; rows belonging to anyone else surface as
// not found.
type CartService interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*CartSummary, error)
	AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*domain.CartItem, error)
	UpdateItem(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*domain.CartItem, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

// NewCartService creates a new instance of CartService
func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// GetCart returns the user's cart lines with a running total.
func (s *cartService) GetCart(ctx context.Context, userID uuid.UUID) (*CartSummary, error) {
	lines, err := s.cartRepo.ListWithProducts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Subtotal())
	}

	return &CartSummary{
		Items: lines,
		Total: total.Round(2),
		Count: len(lines),
	}, nil
}

// AddItem creates a cart row for the product or increments an existing one.
// The resulting quantity may never exceed the product's current stock.
func (s *cartService) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*domain.CartItem, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	if quantity > product.Stock {
		return nil, ErrQuantityExceedsStock
	}

	existing, err := s.cartRepo.FindByProduct(ctx, userID, productID)
	if err != nil && err != repository.ErrCartItemNotFound {
		return nil, fmt.Errorf("failed to check existing cart item: %w", err)
	}

	if existing != nil {
		newQuantity := existing.Quantity + quantity
		if newQuantity > product.Stock {
			return nil, ErrQuantityExceedsStock
		}
		if err := s.cartRepo.UpdateQuantity(ctx, userID, existing.ID, newQuantity); err != nil {
			return nil, fmt.Errorf("failed to update cart item: %w", err)
		}
		existing.Quantity = newQuantity
		return existing, nil
	}

	item := &domain.CartItem{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := s.cartRepo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create cart item: %w", err)
	}

	return item, nil
}

// UpdateItem sets the absolute quantity of one of the user's cart rows.
func (s *cartService) UpdateItem(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*domain.CartItem, error) {
	item, err := s.cartRepo.FindByID(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	product, err := s.productRepo.FindByID(ctx, item.ProductID)
	if err != nil {
		return nil, err
	}

	if quantity > product.Stock {
		return nil, ErrQuantityExceedsStock
	}

	if err := s.cartRepo.UpdateQuantity(ctx, userID, itemID, quantity); err != nil {
		return nil, fmt.Errorf("failed to update cart item: %w", err)
	}

	item.Quantity = quantity
	return item, nil
}

// RemoveItem deletes one of the user's cart rows.
func (s *cartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	return s.cartRepo.Delete(ctx, userID, itemID)
}

// Clear removes every row in the user's cart.
func (s *cartService) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.cartRepo.DeleteAll(ctx, userID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
