package notify

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stridekart/fulfillment/internal/domain/order"
	"github.com/stridekart/fulfillment/internal/domain/user"
)

type captureSender struct {
	mu   sync.Mutex
	sent []Email
	got  chan struct{}
}

func newCaptureSender(expected int) *captureSender {
	return &captureSender{got: make(chan struct{}, expected)}
}

func (s *captureSender) Send(_ context.Context, e Email) error {
	s.mu.Lock()
	s.sent = append(s.sent, e)
	s.mu.Unlock()
	s.got <- struct{}{}
	return nil
}

func (s *captureSender) wait(t *testing.T, n int) []Email {
	t.Helper()
	for range n {
		select {
		case <-s.got:
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for email")
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Email(nil), s.sent...)
}

type staticDirectory struct{ u *user.User }

func (d staticDirectory) GetByID(_ context.Context, id string) (*user.User, error) {
	if d.u == nil || d.u.ID != id {
		return nil, user.ErrNotFound
	}
	return d.u, nil
}

type staticAddressBook struct{ a *user.Address }

func (b staticAddressBook) GetByID(_ context.Context, id string) (*user.Address, error) {
	if b.a == nil || b.a.ID != id {
		return nil, user.ErrAddressNotFound
	}
	return b.a, nil
}

func testOrder() *order.Order {
	delivered := time.Date(2025, 3, 12, 9, 30, 0, 0, time.UTC)
	return &order.Order{
		ID:          "o1",
		OrderNumber: "ORD-1A2B3C4D",
		UserID:      "u1",
		AddressID:   "a1",
		Items: []order.Item{{
			ProductID:   "p1",
			ProductName: "Velocity Runner",
			Quantity:    2,
			Size:        "9",
			Color:       "Black",
			UnitPrice:   decimal.RequireFromString("49.99"),
		}},
		TotalAmount:  decimal.RequireFromString("99.98"),
		Status:       order.StatusPending,
		OrderDate:    time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
		DeliveryOTP:  "654321",
		ReturnReason: "wrong size",
		ReturnRequestDate: &delivered,
	}
}

func newTestDispatcher(t *testing.T, sender Sender) (*Dispatcher, context.CancelFunc) {
	t.Helper()
	d := NewDispatcher(
		sender,
		staticDirectory{u: &user.User{ID: "u1", Email: "alice@example.com", FullName: "Alice Mercer"}},
		staticAddressBook{a: &user.Address{ID: "a1", UserID: "u1", Street: "14 Juniper Lane", City: "Portland", State: "OR", ZipCode: "97210", Country: "US"}},
		"ops@stridekart.example",
		zap.NewNop(),
	)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = d.Run(ctx) }()
	return d, cancel
}

func TestDispatcher_OrderConfirmed(t *testing.T) {
	sender := newCaptureSender(1)
	d, cancel := newTestDispatcher(t, sender)
	defer cancel()

	d.OrderConfirmed(context.Background(), testOrder())

	sent := sender.wait(t, 1)
	require.Len(t, sent, 1)
	assert.Equal(t, "alice@example.com", sent[0].To)
	assert.Equal(t, "Order Confirmation - ORD-1A2B3C4D", sent[0].Subject)
	assert.Contains(t, sent[0].Body, "Dear Alice Mercer")
	assert.Contains(t, sent[0].Body, "Total Amount: $99.98")
	assert.Contains(t, sent[0].Body, "Velocity Runner (9, Black) x 2 = $99.98")
	assert.Contains(t, sent[0].Body, "14 Juniper Lane")
	// The confirmation never discloses the delivery code.
	assert.NotContains(t, sent[0].Body, "654321")
}

func TestDispatcher_OrderShippedCarriesOTP(t *testing.T) {
	sender := newCaptureSender(1)
	d, cancel := newTestDispatcher(t, sender)
	defer cancel()

	d.OrderShipped(context.Background(), testOrder())

	sent := sender.wait(t, 1)
	require.Len(t, sent, 1)
	assert.Equal(t, "Your Order Has Been Shipped - ORD-1A2B3C4D", sent[0].Subject)
	assert.Contains(t, sent[0].Body, "Delivery OTP: 654321")
}

func TestDispatcher_ReturnRequestedGoesToAdmin(t *testing.T) {
	sender := newCaptureSender(1)
	d, cancel := newTestDispatcher(t, sender)
	defer cancel()

	d.ReturnRequested(context.Background(), testOrder())

	sent := sender.wait(t, 1)
	require.Len(t, sent, 1)
	assert.Equal(t, "ops@stridekart.example", sent[0].To)
	assert.Contains(t, sent[0].Body, "Return Reason: wrong size")
	assert.Contains(t, sent[0].Body, "Customer: Alice Mercer")
}

func TestDispatcher_UnknownRecipientDropsEvent(t *testing.T) {
	sender := newCaptureSender(1)
	d, cancel := newTestDispatcher(t, sender)
	defer cancel()

	o := testOrder()
	o.UserID = "ghost"
	d.OrderConfirmed(context.Background(), o)

	select {
	case <-sender.got:
		t.Fatal("no email expected for unknown recipient")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRenderConfirmation_NoAddress(t *testing.T) {
	u := &user.User{Email: "alice@example.com", FullName: "Alice Mercer"}
	e := renderConfirmation(u, nil, testOrder())

	assert.False(t, strings.Contains(e.Body, "Shipping Address"))
	assert.Contains(t, e.Body, "Order Number: ORD-1A2B3C4D")
}
