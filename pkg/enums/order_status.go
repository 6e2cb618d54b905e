package enums

import "fmt"

// OrderStatus is the coarse legacy lifecycle field kept for older clients.
// New logic should never branch on it directly; the orders reconciler folds
// it into a TransactionStatus.
type OrderStatus string

const (
	OrderStatusPending              OrderStatus = "pending"
	OrderStatusAwaitingBankTransfer OrderStatus = "awaiting_bank_transfer"
	OrderStatusAwaitingWire         OrderStatus = "awaiting_wire"
	OrderStatusPaid                 OrderStatus = "paid"
	OrderStatusPaidHeld             OrderStatus = "paid_held"
	OrderStatusInTransit            OrderStatus = "in_transit"
	OrderStatusDelivered            OrderStatus = "delivered"
	OrderStatusAccepted             OrderStatus = "accepted"
	OrderStatusBuyerConfirmed       OrderStatus = "buyer_confirmed"
	OrderStatusReadyToRelease       OrderStatus = "ready_to_release"
	OrderStatusCompleted            OrderStatus = "completed"
	OrderStatusRefunded             OrderStatus = "refunded"
	OrderStatusDisputed             OrderStatus = "disputed"
	OrderStatusCancelled            OrderStatus = "cancelled"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusAwaitingBankTransfer,
	OrderStatusAwaitingWire,
	OrderStatusPaid,
	OrderStatusPaidHeld,
	OrderStatusInTransit,
	OrderStatusDelivered,
	OrderStatusAccepted,
	OrderStatusBuyerConfirmed,
	OrderStatusReadyToRelease,
	OrderStatusCompleted,
	OrderStatusRefunded,
	OrderStatusDisputed,
	OrderStatusCancelled,
}

// AwaitingPaymentStatuses is the set swept by the abandoned-checkout job.
var AwaitingPaymentStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusAwaitingBankTransfer,
	OrderStatusAwaitingWire,
}

// TerminalOrderStatuses are states after which money-moving fields are frozen.
var TerminalOrderStatuses = []OrderStatus{
	OrderStatusCompleted,
	OrderStatusRefunded,
	OrderStatusCancelled,
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the order has reached a terminal state.
func (o OrderStatus) IsTerminal() bool {
	for _, candidate := range TerminalOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// IsAwaitingPayment reports whether the order still waits on buyer funds.
func (o OrderStatus) IsAwaitingPayment() bool {
	for _, candidate := range AwaitingPaymentStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
