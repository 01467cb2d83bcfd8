package order

import "fmt"

// Status is the lifecycle state of an order.
//
// The delivery path is PENDING → PROCESSING → SHIPPED → DELIVERED.
// CANCELLED is reachable from any non-terminal state. RETURNED is reachable
// only from DELIVERED and marks an approved return; the core records return
// requests but never sets RETURNED itself.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusShipped    Status = "SHIPPED"
	StatusDelivered  Status = "DELIVERED"
	StatusCancelled  Status = "CANCELLED"
	StatusReturned   Status = "RETURNED"
)

// statusTransitions is the strict transition graph. SetStatus only consults
// it when the service runs with strict transitions enabled; the default
// behavior accepts any target status.
var statusTransitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered, StatusCancelled},
	StatusDelivered:  {StatusReturned},
	StatusCancelled:  {},
	StatusReturned:   {},
}

// ParseStatus converts s to a Status, rejecting unknown values.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered,
		StatusCancelled, StatusReturned:
		return st, nil
	default:
		return "", fmt.Errorf("unknown order status %q", s)
	}
}

// CanTransitionTo reports whether the strict graph permits moving from s to
// target.
func (s Status) CanTransitionTo(target Status) bool {
	for _, next := range statusTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are possible from s.
func (s Status) Terminal() bool {
	return len(statusTransitions[s]) == 0
}

func (s Status) String() string { return string(s) }

// PaymentMethod identifies how an order was paid. The payment itself is
// settled upstream; the order only records the method and an opaque
// payment identifier.
type PaymentMethod string

const (
	PaymentCreditCard     PaymentMethod = "CREDIT_CARD"
	PaymentDebitCard      PaymentMethod = "DEBIT_CARD"
	PaymentUPI            PaymentMethod = "UPI"
	PaymentNetBanking     PaymentMethod = "NET_BANKING"
	PaymentCashOnDelivery PaymentMethod = "CASH_ON_DELIVERY"
)

// ParsePaymentMethod converts s to a PaymentMethod, rejecting unknown values.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch pm := PaymentMethod(s); pm {
	case PaymentCreditCard, PaymentDebitCard, PaymentUPI, PaymentNetBanking,
		PaymentCashOnDelivery:
		return pm, nil
	default:
		return "", fmt.Errorf("unknown payment method %q", s)
	}
}

func (p PaymentMethod) String() string { return string(p) }
