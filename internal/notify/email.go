// Package notify renders and dispatches the customer-facing emails for order
// lifecycle events. Dispatch is asynchronous: core operations enqueue an
// event and move on, and a failing mail transport never propagates back.
package notify

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/stridekart/fulfillment/internal/domain/order"
	"github.com/stridekart/fulfillment/internal/domain/user"
)

// Email is a rendered plain-text message ready for a transport.
type Email struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers a rendered email.
type Sender interface {
	Send(ctx context.Context, e Email) error
}

// LogSender writes emails to the log instead of a real transport. It is the
// default in development and test environments.
type LogSender struct {
	lg *zap.Logger
}

// NewLogSender creates a LogSender writing to lg.
func NewLogSender(lg *zap.Logger) *LogSender {
	return &LogSender{lg: lg}
}

func (s *LogSender) Send(_ context.Context, e Email) error {
	s.lg.Info("email",
		zap.String("to", e.To),
		zap.String("subject", e.Subject),
		zap.String("body", e.Body),
	)
	return nil
}

func renderConfirmation(u *user.User, addr *user.Address, o *order.Order) Email {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", u.FullName)
	b.WriteString("Thank you for your order. Your order has been confirmed.\n\n")
	fmt.Fprintf(&b, "Order Number: %s\n", o.OrderNumber)
	fmt.Fprintf(&b, "Order Date: %s\n", o.OrderDate.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Total Amount: $%s\n\n", o.TotalAmount.StringFixed(2))
	b.WriteString("Order Items:\n")
	for _, it := range o.Items {
		fmt.Fprintf(&b, "- %s (%s, %s) x %d = $%s\n",
			it.ProductName, it.Size, it.Color, it.Quantity, it.Subtotal().StringFixed(2))
	}
	if addr != nil {
		b.WriteString("\nShipping Address:\n")
		fmt.Fprintf(&b, "%s\n%s, %s %s\n%s\n", addr.Street, addr.City, addr.State, addr.ZipCode, addr.Country)
	}
	b.WriteString("\nThank you for shopping with us!\n\nRegards,\nStridekart Team")

	return Email{
		To:      u.Email,
		Subject: "Order Confirmation - " + o.OrderNumber,
		Body:    b.String(),
	}
}

func renderShipped(u *user.User, o *order.Order) Email {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", u.FullName)
	b.WriteString("Your order has been shipped and is on its way to you.\n\n")
	fmt.Fprintf(&b, "Order Number: %s\n", o.OrderNumber)
	fmt.Fprintf(&b, "Delivery OTP: %s\n\n", o.DeliveryOTP)
	b.WriteString("Please provide this OTP to the delivery person to verify your delivery.\n\n")
	b.WriteString("Thank you for shopping with us!\n\nRegards,\nStridekart Team")

	return Email{
		To:      u.Email,
		Subject: "Your Order Has Been Shipped - " + o.OrderNumber,
		Body:    b.String(),
	}
}

func renderReturnRequested(adminEmail string, u *user.User, o *order.Order) Email {
	var b strings.Builder
	fmt.Fprintf(&b, "A return request has been submitted for order %s.\n\n", o.OrderNumber)
	fmt.Fprintf(&b, "Customer: %s\n", u.FullName)
	fmt.Fprintf(&b, "Email: %s\n", u.Email)
	fmt.Fprintf(&b, "Return Reason: %s\n\n", o.ReturnReason)
	fmt.Fprintf(&b, "Order Date: %s\n", o.OrderDate.Format("2006-01-02 15:04"))
	if o.ReturnRequestDate != nil {
		fmt.Fprintf(&b, "Return Request Date: %s\n\n", o.ReturnRequestDate.Format("2006-01-02 15:04"))
	}
	b.WriteString("Please review this return request and take appropriate action.\n\nRegards,\nStridekart System")

	return Email{
		To:      adminEmail,
		Subject: "Return Request - " + o.OrderNumber,
		Body:    b.String(),
	}
}
