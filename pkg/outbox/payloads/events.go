package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockyardhq/stockyard-backend/pkg/enums"
)

// OrderCreatedEvent signals a new checkout intent with a listing reservation.
type OrderCreatedEvent struct {
	OrderID   uuid.UUID `json:"order_id"`
	ListingID uuid.UUID `json:"listing_id"`
	BuyerID   uuid.UUID `json:"buyer_id"`
	SellerID  uuid.UUID `json:"seller_id"`
	Quantity  int       `json:"quantity"`
}

// OrderPaidEvent is emitted when captured funds enter custody.
type OrderPaidEvent struct {
	OrderID         uuid.UUID       `json:"order_id"`
	BuyerID         uuid.UUID       `json:"buyer_id"`
	SellerID        uuid.UUID       `json:"seller_id"`
	GrossAmount     decimal.Decimal `json:"gross_amount"`
	PaymentIntentID string          `json:"payment_intent_id,omitempty"`
	PaidAt          time.Time       `json:"paid_at"`
}

// OrderCancelledEvent is emitted when an order is cancelled and its listing
// reservation released.
type OrderCancelledEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	ListingID   uuid.UUID `json:"listing_id"`
	CancelledAt time.Time `json:"cancelled_at"`
	Reason      string    `json:"reason,omitempty"`
	Swept       bool      `json:"swept,omitempty"`
}

// FulfillmentUpdatedEvent reports a transition on either fulfillment machine.
type FulfillmentUpdatedEvent struct {
	OrderID    uuid.UUID               `json:"order_id"`
	FromStatus enums.TransactionStatus `json:"from_status"`
	ToStatus   enums.TransactionStatus `json:"to_status"`
	Transport  enums.TransportOption   `json:"transport"`
}

// BuyerConfirmedEvent is emitted when the buyer accepts receipt.
type BuyerConfirmedEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}

// PayoutReleasedEvent is emitted once the external transfer succeeds.
type PayoutReleasedEvent struct {
	OrderID      uuid.UUID       `json:"order_id"`
	SellerID     uuid.UUID       `json:"seller_id"`
	TransferID   string          `json:"transfer_id"`
	SellerAmount decimal.Decimal `json:"seller_amount"`
	ReleasedAt   time.Time       `json:"released_at"`
}

// PayoutHoldChangedEvent reports an admin hold being set or cleared.
type PayoutHoldChangedEvent struct {
	OrderID    uuid.UUID              `json:"order_id"`
	Held       bool                   `json:"held"`
	HoldReason enums.PayoutHoldReason `json:"hold_reason"`
	AdminID    uuid.UUID              `json:"admin_id"`
}

// RefundIssuedEvent is emitted on full or partial refunds.
type RefundIssuedEvent struct {
	OrderID      uuid.UUID       `json:"order_id"`
	RefundID     string          `json:"refund_id"`
	RefundAmount decimal.Decimal `json:"refund_amount"`
	Partial      bool            `json:"partial"`
	RefundedAt   time.Time       `json:"refunded_at"`
}

// DisputeOpenedEvent signals the start of a dispute during the protection window.
type DisputeOpenedEvent struct {
	OrderID   uuid.UUID `json:"order_id"`
	DisputeID uuid.UUID `json:"dispute_id"`
	OpenedBy  uuid.UUID `json:"opened_by"`
	Reason    string    `json:"reason"`
}

// DisputeResolvedEvent carries the terminal resolution of a dispute.
type DisputeResolvedEvent struct {
	OrderID    uuid.UUID           `json:"order_id"`
	DisputeID  uuid.UUID           `json:"dispute_id"`
	Resolution enums.DisputeStatus `json:"resolution"`
	ResolvedBy uuid.UUID           `json:"resolved_by"`
}

// ChargebackReportedEvent records a processor-side dispute on the captured
// payment. It suppresses release independently of marketplace disputes.
type ChargebackReportedEvent struct {
	OrderID         uuid.UUID `json:"order_id"`
	PaymentIntentID string    `json:"payment_intent_id"`
	StripeDisputeID string    `json:"stripe_dispute_id"`
	Active          bool      `json:"active"`
}

// NotificationRequestedEvent tells the delivery-side consumer to alert a user.
type NotificationRequestedEvent struct {
	UserID  uuid.UUID              `json:"user_id"`
	OrderID uuid.UUID              `json:"order_id"`
	Type    enums.NotificationType `json:"type"`
	Title   string                 `json:"title"`
	Message string                 `json:"message"`
	Link    string                 `json:"link,omitempty"`
}
