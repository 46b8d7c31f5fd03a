package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"afrimart/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrCartItemNotFound = errors.New("cart item not found")
)

// CartRepository defines the interface for cart data access. Every query is
// scoped to a user id; a row owned by someone else is indistinguishable from
// a missing row.
type CartRepository interface {
	ListWithProducts(ctx context.Context, userID uuid.UUID) ([]*domain.CartLine, error)
	FindByID(ctx context.Context, userID, itemID uuid.UUID) (*domain.CartItem, error)
	FindByProduct(ctx context.Context, userID, productID uuid.UUID) (*domain.CartItem, error)
	Create(ctx context.Context, item *domain.CartItem) error
	UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) error
	Delete(ctx context.Context, userID, itemID uuid.UUID) error
	DeleteAll(ctx context.Context, userID uuid.UUID) error
}

type cartRepository struct {
	db *sql.DB
}

// NewCartRepository creates a new instance of CartRepository
func NewCartRepository(db *sql.DB) CartRepository {
	return &cartRepository{db: db}
}

// ListWithProducts retrieves the user's cart rows joined to their products,
// oldest row first.
func (r *cartRepository) ListWithProducts(ctx context.Context, userID uuid.UUID) ([]*domain.CartLine, error) {
	query := `
		SELECT c.id, c.user_id, c.product_id, c.quantity, c.created_at, c.updated_at,
		       p.id, p.name, p.description, p.price, p.category, p.stock, p.image_url,
		       p.sku, p.brand, p.weight, p.is_active, p.is_featured, p.discount,
		       p.created_at, p.updated_at
		FROM carts c
		JOIN products p ON p.id = c.product_id
		WHERE c.user_id = $1
		ORDER BY c.created_at
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart items: %w", err)
	}
	defer rows.Close()

	lines := []*domain.CartLine{}
	for rows.Next() {
		line := &domain.CartLine{}
		err := rows.Scan(
			&line.Item.ID,
			&line.Item.UserID,
			&line.Item.ProductID,
			&line.Item.Quantity,
			&line.Item.CreatedAt,
			&line.Item.UpdatedAt,
			&line.Product.ID,
			&line.Product.Name,
			&line.Product.Description,
			&line.Product.Price,
			&line.Product.Category,
			&line.Product.Stock,
			&line.Product.ImageURL,
			&line.Product.SKU,
			&line.Product.Brand,
			&line.Product.Weight,
			&line.Product.IsActive,
			&line.Product.IsFeatured,
			&line.Product.Discount,
			&line.Product.CreatedAt,
			&line.Product.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		lines = append(lines, line)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart lines: %w", err)
	}

	return lines, nil
}

// FindByID retrieves one of the user's cart rows by row id
func (r *cartRepository) FindByID(ctx context.Context, userID, itemID uuid.UUID) (*domain.CartItem, error) {
	query := `
		SELECT id, user_id, product_id, quantity, created_at, updated_at
		FROM carts
		WHERE id = $1 AND user_id = $2
	`

	item := &domain.CartItem{}
	err := r.db.QueryRowContext(ctx, query, itemID, userID).Scan(
		&item.ID,
		&item.UserID,
		&item.ProductID,
		&item.Quantity,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCartItemNotFound
		}
		return nil, fmt.Errorf("failed to find cart item: %w", err)
	}

	return item, nil
}

// FindByProduct retrieves the user's cart row for a product, if any
func (r *cartRepository) FindByProduct(ctx context.Context, userID, productID uuid.UUID) (*domain.CartItem, error) {
	query := `
		SELECT id, user_id, product_id, quantity, created_at, updated_at
		FROM carts
		WHERE user_id = $1 AND product_id = $2
	`

	item := &domain.CartItem{}
	err := r.db.QueryRowContext(ctx, query, userID, productID).Scan(
		&item.ID,
		&item.UserID,
		&item.ProductID,
		&item.Quantity,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCartItemNotFound
		}
		return nil, fmt.Errorf("failed to find cart item by product: %w", err)
	}

	return item, nil
}

// Create inserts a new cart row
func (r *cartRepository) Create(ctx context.Context, item *domain.CartItem) error {
	query := `
		INSERT INTO carts (id, user_id, product_id, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		item.ID,
		item.UserID,
		item.ProductID,
		item.Quantity,
		item.CreatedAt,
		item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create cart item: %w", err)
	}

	return nil
}

// UpdateQuantity sets the absolute quantity of one of the user's rows
func (r *cartRepository) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) error {
	query := `UPDATE carts SET quantity = $3, updated_at = now() WHERE id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, itemID, userID, quantity)
	if err != nil {
		return fmt.Errorf("failed to update cart item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrCartItemNotFound
	}

	return nil
}

// Delete removes one of the user's rows
func (r *cartRepository) Delete(ctx context.Context, userID, itemID uuid.UUID) error {
	query := `DELETE FROM carts WHERE id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, itemID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete cart item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrCartItemNotFound
	}

	return nil
}

// DeleteAll clears the user's cart
func (r *cartRepository) DeleteAll(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM carts WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
