package order

import "fmt"

// Sentinel errors for order operations.
var (
	ErrNotFound        = fmt.Errorf("order not found")
	ErrUnauthorized    = fmt.Errorf("not authorized for this order")
	ErrEmptyItems      = fmt.Errorf("items required")
	ErrAddressNotOwned = fmt.Errorf("shipping address belongs to a different user")

	// ErrNotDelivered is returned when a return is requested for an order
	// that is not in DELIVERED status.
	ErrNotDelivered = fmt.Errorf("only delivered orders can be returned")

	// ErrReturnWindowExpired is returned when a return is requested strictly
	// after the 7-day window following delivery.
	ErrReturnWindowExpired = fmt.Errorf("return period has expired (7 days from delivery)")
)

// ProductNotFoundError indicates a requested product does not exist.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// InvalidQuantityError indicates a line item has a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %s", e.ProductID)
}

// InvalidStateError indicates an operation was attempted from a status that
// forbids it, such as OTP verification on an order that is not SHIPPED.
type InvalidStateError struct {
	Operation string
	Status    Status
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s not allowed in status %s", e.Operation, e.Status)
}

// InvalidTransitionError indicates a status change rejected by the strict
// transition graph.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition order from %s to %s", e.From, e.To)
}
