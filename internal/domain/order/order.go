package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Order represents one committed purchase: header fields, line items, the
// total captured at creation time, and the delivery/return lifecycle state.
//
// Only the Service mutates an order after creation, and only these fields:
// Status, DeliveryDate, ReturnRequested, ReturnRequestDate, ReturnReason.
// Everything else is immutable once the order is persisted.
type Order struct {
	ID          string
	OrderNumber string
	UserID      string
	AddressID   string
	Items       []Item

	// TotalAmount is the exact decimal sum of item subtotals computed at
	// creation. It is never recomputed from the live catalog.
	TotalAmount decimal.Decimal

	Status        Status
	PaymentMethod PaymentMethod
	PaymentID     string

	OrderDate    time.Time
	DeliveryDate *time.Time

	// DeliveryOTP is the 6-digit code issued at creation and disclosed to
	// the customer in the shipment notification.
	DeliveryOTP string

	ReturnRequested   bool
	ReturnRequestDate *time.Time
	ReturnReason      string
}

// Item is a single line of an order. It has no lifecycle of its own: items
// are created with the order and never change afterwards. UnitPrice and
// ProductName are captured from the catalog at order time so historical
// orders are immune to later catalog edits.
type Item struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Size        string          `json:"size"`
	Color       string          `json:"color"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// Subtotal returns UnitPrice multiplied by Quantity.
func (i Item) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Delivered reports whether the order has a recorded delivery timestamp.
func (o *Order) Delivered() bool {
	return o.DeliveryDate != nil
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	ListAll(ctx context.Context) ([]Order, error)
	ListByStatus(ctx context.Context, status Status) ([]Order, error)
	// Update persists the mutable lifecycle fields of an existing order.
	Update(ctx context.Context, o *Order) error
}

// Notifier receives lifecycle events for an order. Implementations must not
// block: dispatch is fire-and-forget and a slow or failing notification
// channel never delays or fails the triggering operation.
type Notifier interface {
	OrderConfirmed(ctx context.Context, o *Order)
	OrderShipped(ctx context.Context, o *Order)
	ReturnRequested(ctx context.Context, o *Order)
}
