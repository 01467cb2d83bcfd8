package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stridekart/fulfillment/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders (id, order_number, user_id, address_id, items, total_amount,
			status, payment_method, payment_id, order_date, delivery_date, delivery_otp,
			return_requested, return_request_date, return_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	selectOrderColumns = `id, order_number, user_id, address_id, items, total_amount,
			status, payment_method, payment_id, order_date, delivery_date, delivery_otp,
			return_requested, return_request_date, return_reason`

	getOrderByIDSQL = `SELECT ` + selectOrderColumns + ` FROM orders WHERE id = $1`

	listOrdersByUserSQL = `SELECT ` + selectOrderColumns + ` FROM orders
		WHERE user_id = $1 ORDER BY order_date DESC`

	listAllOrdersSQL = `SELECT ` + selectOrderColumns + ` FROM orders ORDER BY order_date DESC`

	listOrdersByStatusSQL = `SELECT ` + selectOrderColumns + ` FROM orders
		WHERE status = $1 ORDER BY order_date DESC`

	updateOrderSQL = `UPDATE orders SET status = $2, delivery_date = $3,
			return_requested = $4, return_request_date = $5, return_reason = $6
		WHERE id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL. Line
// items are serialized to JSON for storage in the JSONB column; they are
// owned by the order and never queried independently.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order together with its items.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshaling order items: %w", err)
	}

	_, err = r.pool.Exec(ctx, createOrderSQL,
		o.ID, o.OrderNumber, o.UserID, o.AddressID, itemsJSON, o.TotalAmount,
		o.Status, o.PaymentMethod, o.PaymentID, o.OrderDate, o.DeliveryDate, o.DeliveryOTP,
		o.ReturnRequested, o.ReturnRequestDate, o.ReturnReason,
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}

	return nil
}

// GetByID returns a single order by its identifier.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	return &o, nil
}

// ListByUser returns the given user's orders, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersByUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing orders for user %q: %w", userID, err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// ListAll returns every order, newest first.
func (r *OrderRepository) ListAll(ctx context.Context) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listAllOrdersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// ListByStatus returns orders in the given status, newest first.
func (r *OrderRepository) ListByStatus(ctx context.Context, status order.Status) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersByStatusSQL, status)
	if err != nil {
		return nil, fmt.Errorf("listing orders with status %q: %w", status, err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// Update persists the mutable lifecycle fields of an existing order.
func (r *OrderRepository) Update(ctx context.Context, o *order.Order) error {
	tag, err := r.pool.Exec(ctx, updateOrderSQL,
		o.ID, o.Status, o.DeliveryDate,
		o.ReturnRequested, o.ReturnRequestDate, o.ReturnReason,
	)
	if err != nil {
		return fmt.Errorf("updating order %q: %w", o.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o         order.Order
		itemsJSON []byte
	)
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.UserID, &o.AddressID, &itemsJSON, &o.TotalAmount,
		&o.Status, &o.PaymentMethod, &o.PaymentID, &o.OrderDate, &o.DeliveryDate, &o.DeliveryOTP,
		&o.ReturnRequested, &o.ReturnRequestDate, &o.ReturnReason,
	)
	if err != nil {
		return o, err
	}
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return o, fmt.Errorf("unmarshaling items for order %q: %w", o.ID, err)
	}
	return o, nil
}
