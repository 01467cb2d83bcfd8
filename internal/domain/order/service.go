package order

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/stridekart/fulfillment/internal/domain/inventory"
	"github.com/stridekart/fulfillment/internal/domain/product"
	"github.com/stridekart/fulfillment/internal/domain/user"
)

// ReturnWindow is how long after delivery a return request is accepted.
// The boundary is inclusive: a request at exactly DeliveryDate+ReturnWindow
// still succeeds.
const ReturnWindow = 7 * 24 * time.Hour

// Config holds the tunable behavior of the Service. Zero value gives the
// defaults: permissive status transitions, UUID-derived order numbers,
// random OTPs, plain-equality code comparison, wall-clock time.
type Config struct {
	// StrictTransitions makes SetStatus enforce the status transition graph.
	// The default replicates the reference behavior: any target status is
	// accepted, including jumps like PENDING directly to DELIVERED.
	StrictTransitions bool

	Numbers  OrderNumberGenerator
	OTPs     OTPGenerator
	Comparer CodeComparer

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Service is the order-fulfillment core: it creates orders against the
// inventory ledger and governs the delivery/return lifecycle.
type Service struct {
	cfg       Config
	orders    Repository
	products  product.Repository
	addresses user.AddressBook
	ledger    inventory.Ledger
	notifier  Notifier

	// locks serialize lifecycle mutations per order. Orders are independent
	// units of concurrency, so striping by order ID is enough.
	locks [64]sync.Mutex
}

// NewService creates the fulfillment Service with the required collaborators.
func NewService(
	cfg Config,
	orders Repository,
	products product.Repository,
	addresses user.AddressBook,
	ledger inventory.Ledger,
	notifier Notifier,
) *Service {
	if cfg.Numbers == nil {
		cfg.Numbers = UUIDOrderNumbers{}
	}
	if cfg.OTPs == nil {
		cfg.OTPs = RandomOTP{}
	}
	if cfg.Comparer == nil {
		cfg.Comparer = ExactComparer{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		cfg:       cfg,
		orders:    orders,
		products:  products,
		addresses: addresses,
		ledger:    ledger,
		notifier:  notifier,
	}
}

// ItemRequest is one requested line of a new order.
type ItemRequest struct {
	ProductID string
	Quantity  int
	Size      string
	Color     string
}

// CreateRequest holds the input for creating an order.
type CreateRequest struct {
	AddressID     string
	PaymentMethod PaymentMethod
	PaymentID     string
	Items         []ItemRequest
}

// CreateOrder validates the request, reserves stock for every line item,
// captures current unit prices, and persists the order in PENDING status.
// Only actors with the USER role place orders.
//
// Creation is a single logical transaction: a failure at any step releases
// every reservation already made, leaving the system as if the request never
// happened. The confirmation notification is best-effort and cannot fail the
// order.
func (s *Service) CreateOrder(ctx context.Context, actor user.Actor, req CreateRequest) (*Order, error) {
	if actor.Role != user.RoleUser {
		return nil, ErrUnauthorized
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}
	for _, it := range req.Items {
		if it.Quantity <= 0 {
			return nil, &InvalidQuantityError{ProductID: it.ProductID}
		}
	}

	addr, err := s.addresses.GetByID(ctx, req.AddressID)
	if err != nil {
		return nil, errors.Wrap(err, "resolve shipping address")
	}
	if addr.UserID != actor.UserID {
		return nil, ErrAddressNotOwned
	}

	// Reserve stock item by item, recording a compensating release for each
	// successful reservation. Reservations are not scoped to an ambient
	// transaction, so rollback has to be explicit.
	var compensations []func(context.Context)
	rollback := func() {
		for i := len(compensations) - 1; i >= 0; i-- {
			compensations[i](ctx)
		}
	}

	items := make([]Item, 0, len(req.Items))
	total := decimal.Zero
	for _, it := range req.Items {
		p, err := s.products.GetByID(ctx, it.ProductID)
		if err != nil {
			rollback()
			if errors.Is(err, product.ErrNotFound) {
				return nil, &ProductNotFoundError{ProductID: it.ProductID}
			}
			return nil, errors.Wrapf(err, "resolve product %s", it.ProductID)
		}

		if err := s.ledger.Reserve(ctx, p.ID, it.Quantity); err != nil {
			rollback()
			return nil, err
		}
		productID, qty := p.ID, it.Quantity
		compensations = append(compensations, func(ctx context.Context) {
			if err := s.ledger.Release(ctx, productID, qty); err != nil {
				zctx.From(ctx).Error("release reservation",
					zap.String("product_id", productID),
					zap.Int("quantity", qty),
					zap.Error(err),
				)
			}
		})

		item := Item{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    it.Quantity,
			Size:        it.Size,
			Color:       it.Color,
			UnitPrice:   p.Price,
		}
		items = append(items, item)
		total = total.Add(item.Subtotal())
	}

	o := &Order{
		ID:            uuid.New().String(),
		OrderNumber:   s.cfg.Numbers.OrderNumber(),
		UserID:        actor.UserID,
		AddressID:     addr.ID,
		Items:         items,
		TotalAmount:   total,
		Status:        StatusPending,
		PaymentMethod: req.PaymentMethod,
		PaymentID:     req.PaymentID,
		OrderDate:     s.cfg.Now(),
		DeliveryOTP:   s.cfg.OTPs.DeliveryOTP(),
	}

	if err := s.orders.Create(ctx, o); err != nil {
		rollback()
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.notifier.OrderConfirmed(ctx, o)
	return o, nil
}

// GetOrder returns one order. Only the owner or an admin may read it.
func (s *Service) GetOrder(ctx context.Context, actor user.Actor, orderID string) (*Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != actor.UserID && !actor.IsAdmin() {
		return nil, ErrUnauthorized
	}
	return o, nil
}

// ListUserOrders returns the actor's own orders.
func (s *Service) ListUserOrders(ctx context.Context, actor user.Actor) ([]Order, error) {
	return s.orders.ListByUser(ctx, actor.UserID)
}

// ListAllOrders returns every order. Admin only.
func (s *Service) ListAllOrders(ctx context.Context, actor user.Actor) ([]Order, error) {
	if !actor.IsAdmin() {
		return nil, ErrUnauthorized
	}
	return s.orders.ListAll(ctx)
}

// ListOrdersByStatus returns orders in the given status. Admin only.
func (s *Service) ListOrdersByStatus(ctx context.Context, actor user.Actor, status Status) ([]Order, error) {
	if !actor.IsAdmin() {
		return nil, ErrUnauthorized
	}
	return s.orders.ListByStatus(ctx, status)
}

// SetStatus assigns a new status to an order. Admin only. Transitioning to
// SHIPPED triggers the shipment notification carrying the delivery OTP.
//
// By default any target status is accepted; with StrictTransitions the
// transition graph is enforced and illegal moves fail with
// InvalidTransitionError.
func (s *Service) SetStatus(ctx context.Context, actor user.Actor, orderID string, status Status) (*Order, error) {
	if !actor.IsAdmin() {
		return nil, ErrUnauthorized
	}

	mu := s.lockFor(orderID)
	mu.Lock()
	defer mu.Unlock()

	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if s.cfg.StrictTransitions && !o.Status.CanTransitionTo(status) {
		return nil, &InvalidTransitionError{From: o.Status, To: status}
	}

	o.Status = status
	if err := s.orders.Update(ctx, o); err != nil {
		return nil, fmt.Errorf("update order %s: %w", orderID, err)
	}

	if status == StatusShipped {
		s.notifier.OrderShipped(ctx, o)
	}
	return o, nil
}

// VerifyDeliveryOTP checks a submitted delivery code for an order in SHIPPED
// status. On a match the order becomes DELIVERED and the delivery timestamp
// is stamped; on a mismatch it returns false with no state change. The code
// has no expiry and no retry limit.
func (s *Service) VerifyDeliveryOTP(ctx context.Context, actor user.Actor, orderID, code string) (bool, error) {
	mu := s.lockFor(orderID)
	mu.Lock()
	defer mu.Unlock()

	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return false, err
	}
	if o.UserID != actor.UserID {
		return false, ErrUnauthorized
	}
	if o.Status != StatusShipped {
		return false, &InvalidStateError{Operation: "OTP verification", Status: o.Status}
	}

	if !s.cfg.Comparer.Equal(o.DeliveryOTP, code) {
		return false, nil
	}

	now := s.cfg.Now()
	o.Status = StatusDelivered
	o.DeliveryDate = &now
	if err := s.orders.Update(ctx, o); err != nil {
		return false, fmt.Errorf("update order %s: %w", orderID, err)
	}
	return true, nil
}

// RequestReturn records a return request for a delivered order. The request
// must arrive no later than ReturnWindow after delivery; the status stays
// DELIVERED because a request is not an approval.
func (s *Service) RequestReturn(ctx context.Context, actor user.Actor, orderID, reason string) (*Order, error) {
	mu := s.lockFor(orderID)
	mu.Lock()
	defer mu.Unlock()

	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != actor.UserID {
		return nil, ErrUnauthorized
	}
	if o.Status != StatusDelivered || !o.Delivered() {
		return nil, ErrNotDelivered
	}

	now := s.cfg.Now()
	if now.After(o.DeliveryDate.Add(ReturnWindow)) {
		return nil, ErrReturnWindowExpired
	}

	o.ReturnRequested = true
	o.ReturnRequestDate = &now
	o.ReturnReason = reason
	if err := s.orders.Update(ctx, o); err != nil {
		return nil, fmt.Errorf("update order %s: %w", orderID, err)
	}

	s.notifier.ReturnRequested(ctx, o)
	return o, nil
}

// lockFor returns the stripe mutex guarding the given order ID.
func (s *Service) lockFor(orderID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(orderID))
	return &s.locks[h.Sum32()%uint32(len(s.locks))]
}
