package notify

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/stridekart/fulfillment/internal/domain/order"
	"github.com/stridekart/fulfillment/internal/domain/user"
)

var _ order.Notifier = (*Dispatcher)(nil)

type eventKind int

const (
	eventConfirmed eventKind = iota
	eventShipped
	eventReturnRequested
)

type event struct {
	kind eventKind
	o    *order.Order
}

// Dispatcher implements order.Notifier. Events go into a bounded queue and
// workers render and send the emails in the background; when the queue is
// full the event is dropped and logged rather than blocking the caller.
type Dispatcher struct {
	sender     Sender
	users      user.Directory
	addresses  user.AddressBook
	adminEmail string
	lg         *zap.Logger

	queue   chan event
	workers int
}

// NewDispatcher creates a Dispatcher. Call Run to start the workers.
func NewDispatcher(
	sender Sender,
	users user.Directory,
	addresses user.AddressBook,
	adminEmail string,
	lg *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		sender:     sender,
		users:      users,
		addresses:  addresses,
		adminEmail: adminEmail,
		lg:         lg,
		queue:      make(chan event, 256),
		workers:    2,
	}
}

// Run consumes the event queue until ctx is cancelled. Events already in the
// queue when cancellation arrives are abandoned.
func (d *Dispatcher) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for range d.workers {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case ev := <-d.queue:
					d.deliver(ctx, ev)
				}
			}
		})
	}
	return g.Wait()
}

// OrderConfirmed enqueues the order-confirmation email.
func (d *Dispatcher) OrderConfirmed(_ context.Context, o *order.Order) {
	d.enqueue(event{kind: eventConfirmed, o: o})
}

// OrderShipped enqueues the shipment email carrying the delivery OTP.
func (d *Dispatcher) OrderShipped(_ context.Context, o *order.Order) {
	d.enqueue(event{kind: eventShipped, o: o})
}

// ReturnRequested enqueues the return-request email to the admin inbox.
func (d *Dispatcher) ReturnRequested(_ context.Context, o *order.Order) {
	d.enqueue(event{kind: eventReturnRequested, o: o})
}

func (d *Dispatcher) enqueue(ev event) {
	select {
	case d.queue <- ev:
	default:
		d.lg.Warn("notification queue full, dropping event",
			zap.String("order_number", ev.o.OrderNumber),
		)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, ev event) {
	u, err := d.users.GetByID(ctx, ev.o.UserID)
	if err != nil {
		d.lg.Error("resolve notification recipient",
			zap.String("order_number", ev.o.OrderNumber),
			zap.Error(err),
		)
		return
	}

	var e Email
	switch ev.kind {
	case eventConfirmed:
		addr, err := d.addresses.GetByID(ctx, ev.o.AddressID)
		if err != nil {
			d.lg.Warn("resolve shipping address for confirmation",
				zap.String("order_number", ev.o.OrderNumber),
				zap.Error(err),
			)
			addr = nil
		}
		e = renderConfirmation(u, addr, ev.o)
	case eventShipped:
		e = renderShipped(u, ev.o)
	case eventReturnRequested:
		e = renderReturnRequested(d.adminEmail, u, ev.o)
	}

	if err := d.sender.Send(ctx, e); err != nil {
		d.lg.Error("send notification",
			zap.String("order_number", ev.o.OrderNumber),
			zap.String("to", e.To),
			zap.Error(err),
		)
	}
}
