package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"afrimart/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	// ErrStockConflict is the row-level backstop: the guarded decrement found
	// less stock than the transaction validated moments earlier.
	ErrStockConflict = errors.New("stock changed during checkout")
)

// CheckoutTx is the unit of work available inside an order transaction. All
// methods run on the same database transaction; either the whole checkout
// commits or none of it does.
type CheckoutTx interface {
	// CartLinesForUpdate loads the user's cart rows joined to products, in
	// cart order, locking the product rows so concurrent checkouts against
	// the same stock serialize.
	CartLinesForUpdate(ctx context.Context, userID uuid.UUID) ([]*domain.CartLine, error)
	// DecrementStock subtracts quantity from a product's stock. The update is
	// guarded by stock >= quantity and returns ErrStockConflict otherwise.
	DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) error
	InsertOrder(ctx context.Context, order *domain.Order) error
	InsertOrderItems(ctx context.Context, items []domain.OrderItem) error
	ClearCart(ctx context.Context, userID uuid.UUID) error
}

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	// RunInTransaction executes fn within a single database transaction,
	// committing if fn returns nil and rolling back otherwise.
	RunInTransaction(ctx context.Context, fn func(tx CheckoutTx) error) error
	FindByIDForUser(ctx context.Context, userID, orderID uuid.UUID) (*domain.Order, error)
	FindWithBuyer(ctx context.Context, orderID uuid.UUID) (*domain.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, page, pageSize int, status *domain.OrderStatus) ([]*domain.Order, int, error)
	ListAll(ctx context.Context, page, pageSize int, status *domain.OrderStatus) ([]*domain.Order, int, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus, deliveredAt *time.Time) error
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

type checkoutTx struct {
	tx *sql.Tx
}

// RunInTransaction opens a transaction, hands a CheckoutTx to fn, and commits
// or rolls back based on fn's result.
func (r *orderRepository) RunInTransaction(ctx context.Context, fn func(tx CheckoutTx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(&checkoutTx{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (t *checkoutTx) CartLinesForUpdate(ctx context.Context, userID uuid.UUID) ([]*domain.CartLine, error) {
	// FOR UPDATE OF p serializes concurrent checkouts touching the same
	// product rows.
	query := `
		SELECT c.id, c.user_id, c.product_id, c.quantity,
		       p.id, p.name, p.price, p.stock
		FROM carts c
		JOIN products p ON p.id = c.product_id
		WHERE c.user_id = $1
		ORDER BY c.created_at
		FOR UPDATE OF p
	`

	rows, err := t.tx.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock cart lines: %w", err)
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
			&line.Product.ID,
			&line.Product.Name,
			&line.Product.Price,
			&line.Product.Stock,
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

func (t *checkoutTx) DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) error {
	query := `UPDATE products SET stock = stock - $2 WHERE id = $1 AND stock >= $2`

	result, err := t.tx.ExecContext(ctx, query, productID, quantity)
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrStockConflict
	}

	return nil
}

func (t *checkoutTx) InsertOrder(ctx context.Context, order *domain.Order) error {
	query := `
		INSERT INTO orders (id, user_id, order_number, total_amount, status, payment_status,
			shipping_address, shipping_city, shipping_state, shipping_phone, notes,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := t.tx.ExecContext(
		ctx,
		query,
		order.ID,
		order.UserID,
		order.OrderNumber,
		order.TotalAmount,
		order.Status,
		order.PaymentStatus,
		order.ShippingAddress,
		order.ShippingCity,
		order.ShippingState,
		order.ShippingPhone,
		order.Notes,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	return nil
}

func (t *checkoutTx) InsertOrderItems(ctx context.Context, items []domain.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	values := make([]string, 0, len(items))
	args := make([]interface{}, 0, len(items)*6)
	for i, item := range items {
		base := i * 6
		values = append(values, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6))
		args = append(args, item.ID, item.OrderID, item.ProductID, item.ProductName, item.Price, item.Quantity)
	}

	query := fmt.Sprintf(`
		INSERT INTO order_items (id, order_id, product_id, product_name, price, quantity)
		VALUES %s
	`, strings.Join(values, ", "))

	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert order items: %w", err)
	}

	return nil
}

func (t *checkoutTx) ClearCart(ctx context.Context, userID uuid.UUID) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM carts WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

const orderColumns = `id, user_id, order_number, total_amount, status, payment_status,
	shipping_address, shipping_city, shipping_state, shipping_phone, notes,
	delivered_at, created_at, updated_at`

func scanOrder(row interface{ Scan(...interface{}) error }) (*domain.Order, error) {
	order := &domain.Order{}
	err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.OrderNumber,
		&order.TotalAmount,
		&order.Status,
		&order.PaymentStatus,
		&order.ShippingAddress,
		&order.ShippingCity,
		&order.ShippingState,
		&order.ShippingPhone,
		&order.Notes,
		&order.DeliveredAt,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return order, nil
}

// FindByIDForUser retrieves one of the user's orders with its items. An order
// owned by another user is reported as not found.
func (r *orderRepository) FindByIDForUser(ctx context.Context, userID, orderID uuid.UUID) (*domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE id = $1 AND user_id = $2`, orderColumns)

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, orderID, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order: %w", err)
	}

	items, err := r.itemsFor(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return order, nil
}

// FindWithBuyer retrieves any order with its items and the buyer projection.
// Used by admin status transitions, which also need the recipient address.
func (r *orderRepository) FindWithBuyer(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	query := `
		SELECT o.id, o.user_id, o.order_number, o.total_amount, o.status, o.payment_status,
		       o.shipping_address, o.shipping_city, o.shipping_state, o.shipping_phone, o.notes,
		       o.delivered_at, o.created_at, o.updated_at,
		       u.id, u.email, u.first_name, u.last_name
		FROM orders o
		JOIN users u ON u.id = o.user_id
		WHERE o.id = $1
	`

	order := &domain.Order{Buyer: &domain.OrderBuyer{}}
	err := r.db.QueryRowContext(ctx, query, orderID).Scan(
		&order.ID,
		&order.UserID,
		&order.OrderNumber,
		&order.TotalAmount,
		&order.Status,
		&order.PaymentStatus,
		&order.ShippingAddress,
		&order.ShippingCity,
		&order.ShippingState,
		&order.ShippingPhone,
		&order.Notes,
		&order.DeliveredAt,
		&order.CreatedAt,
		&order.UpdatedAt,
		&order.Buyer.ID,
		&order.Buyer.Email,
		&order.Buyer.FirstName,
		&order.Buyer.LastName,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order with buyer: %w", err)
	}

	items, err := r.itemsFor(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return order, nil
}

// ListByUser retrieves the user's orders with items, newest first.
func (r *orderRepository) ListByUser(ctx context.Context, userID uuid.UUID, page, pageSize int, status *domain.OrderStatus) ([]*domain.Order, int, error) {
	conditions := []string{"user_id = $1"}
	args := []interface{}{userID}
	if status != nil {
		conditions = append(conditions, "status = $2")
		args = append(args, *status)
	}
	return r.list(ctx, conditions, args, page, pageSize, false)
}

// ListAll retrieves orders across all users with buyer projections, newest
// first. Admin surface.
func (r *orderRepository) ListAll(ctx context.Context, page, pageSize int, status *domain.OrderStatus) ([]*domain.Order, int, error) {
	conditions := []string{}
	args := []interface{}{}
	if status != nil {
		conditions = append(conditions, "status = $1")
		args = append(args, *status)
	}
	return r.list(ctx, conditions, args, page, pageSize, true)
}

func (r *orderRepository) list(ctx context.Context, conditions []string, args []interface{}, page, pageSize int, withBuyer bool) ([]*domain.Order, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM orders %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	argIndex := len(args) + 1
	offset := (page - 1) * pageSize

	var query string
	if withBuyer {
		query = fmt.Sprintf(`
			SELECT o.id, o.user_id, o.order_number, o.total_amount, o.status, o.payment_status,
			       o.shipping_address, o.shipping_city, o.shipping_state, o.shipping_phone, o.notes,
			       o.delivered_at, o.created_at, o.updated_at,
			       u.id, u.email, u.first_name, u.last_name
			FROM orders o
			JOIN users u ON u.id = o.user_id
			%s
			ORDER BY o.created_at DESC
			LIMIT $%d OFFSET $%d
		`, whereClause, argIndex, argIndex+1)
	} else {
		query = fmt.Sprintf(`
			SELECT %s
			FROM orders
			%s
			ORDER BY created_at DESC
			LIMIT $%d OFFSET $%d
		`, orderColumns, whereClause, argIndex, argIndex+1)
	}
	args = append(args, pageSize, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		var order *domain.Order
		if withBuyer {
			order = &domain.Order{Buyer: &domain.OrderBuyer{}}
			err = rows.Scan(
				&order.ID, &order.UserID, &order.OrderNumber, &order.TotalAmount,
				&order.Status, &order.PaymentStatus,
				&order.ShippingAddress, &order.ShippingCity, &order.ShippingState,
				&order.ShippingPhone, &order.Notes,
				&order.DeliveredAt, &order.CreatedAt, &order.UpdatedAt,
				&order.Buyer.ID, &order.Buyer.Email, &order.Buyer.FirstName, &order.Buyer.LastName,
			)
		} else {
			order, err = scanOrder(rows)
		}
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating orders: %w", err)
	}

	for _, order := range orders {
		items, err := r.itemsFor(ctx, order.ID)
		if err != nil {
			return nil, 0, err
		}
		order.Items = items
	}

	return orders, total, nil
}

func (r *orderRepository) itemsFor(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItem, error) {
	query := `
		SELECT id, order_id, product_id, product_name, price, quantity
		FROM order_items
		WHERE order_id = $1
	`

	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list order items: %w", err)
	}
	defer rows.Close()

	items := []domain.OrderItem{}
	for rows.Next() {
		var item domain.OrderItem
		err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.Price, &item.Quantity)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return items, nil
}

// UpdateStatus writes a status transition. deliveredAt is set only when the
// caller stamps the first entry into delivered.
func (r *orderRepository) UpdateStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus, deliveredAt *time.Time) error {
	var (
		result sql.Result
		err    error
	)
	if deliveredAt != nil {
		result, err = r.db.ExecContext(ctx,
			`UPDATE orders SET status = $2, delivered_at = $3, updated_at = now() WHERE id = $1`,
			orderID, status, *deliveredAt)
	} else {
		result, err = r.db.ExecContext(ctx,
			`UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`,
			orderID, status)
	}
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrOrderNotFound
	}

	return nil
}
