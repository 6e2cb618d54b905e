package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockyardhq/stockyard-backend/pkg/enums"
	"github.com/stockyardhq/stockyard-backend/pkg/types"
)

// Order is the central aggregate. Both the legacy coarse status and the
// canonical transaction status are persisted; readers must go through the
// reconciler for the effective value.
type Order struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber int64     `gorm:"column:order_number;not null"`
	ListingID   uuid.UUID `gorm:"column:listing_id;type:uuid;not null"`
	BuyerID     uuid.UUID `gorm:"column:buyer_id;type:uuid;not null"`
	SellerID    uuid.UUID `gorm:"column:seller_id;type:uuid;not null"`
	Quantity    int       `gorm:"column:quantity;not null;default:1"`

	Currency     enums.Currency  `gorm:"column:currency;type:text;not null;default:'USD'"`
	GrossAmount  decimal.Decimal `gorm:"column:gross_amount;type:numeric(12,2);not null"`
	PlatformFee  decimal.Decimal `gorm:"column:platform_fee;type:numeric(12,2);not null"`
	SellerAmount decimal.Decimal `gorm:"column:seller_amount;type:numeric(12,2);not null"`

	Status            enums.OrderStatus        `gorm:"column:status;type:order_status;not null;default:'pending'"`
	TransactionStatus *enums.TransactionStatus `gorm:"column:transaction_status;type:transaction_status"`
	TransportOption   enums.TransportOption    `gorm:"column:transport_option;type:transport_option;not null"`
	PayoutHoldReason  enums.PayoutHoldReason   `gorm:"column:payout_hold_reason;type:payout_hold_reason;not null;default:'none'"`
	DisputeStatus     enums.DisputeStatus      `gorm:"column:dispute_status;type:dispute_status;not null;default:'none'"`

	PaymentIntentID  *string `gorm:"column:payment_intent_id"`
	TransferID       *string `gorm:"column:transfer_id"`
	RefundID         *string `gorm:"column:refund_id"`
	ChargebackActive bool    `gorm:"column:chargeback_active;not null;default:false"`

	// Protection snapshot is fixed at delivery confirmation and never
	// recomputed from later config changes.
	ProtectionDays   *int       `gorm:"column:protection_days"`
	ProtectionEndsAt *time.Time `gorm:"column:protection_ends_at"`

	DeliveryAddress *types.Address         `gorm:"column:delivery_address;type:address_t"`
	Pickup          *types.PickupDetails   `gorm:"column:pickup;type:jsonb;serializer:json"`
	Delivery        *types.DeliveryDetails `gorm:"column:delivery;type:jsonb;serializer:json"`
	TrackingEnabled bool                   `gorm:"column:tracking_enabled;not null;default:false"`

	AdminHold           bool             `gorm:"column:admin_hold;not null;default:false"`
	AdminPayoutApproval *bool            `gorm:"column:admin_payout_approval"`
	AdminActionNotes    types.AdminNotes `gorm:"column:admin_action_notes;type:jsonb;serializer:json"`
	AdminReviewedAt     *time.Time       `gorm:"column:admin_reviewed_at"`

	PaymentExpiresAt *time.Time `gorm:"column:payment_expires_at"`

	PaidAt           *time.Time `gorm:"column:paid_at"`
	DeliveredAt      *time.Time `gorm:"column:delivered_at"`
	BuyerConfirmedAt *time.Time `gorm:"column:buyer_confirmed_at"`
	DisputeOpenedAt  *time.Time `gorm:"column:dispute_opened_at"`
	ReleasedAt       *time.Time `gorm:"column:released_at"`
	RefundedAt       *time.Time `gorm:"column:refunded_at"`
	CancelledAt      *time.Time `gorm:"column:cancelled_at"`
	CompletedAt      *time.Time `gorm:"column:completed_at"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName maps Order to the orders table.
func (Order) TableName() string {
	return "orders"
}

// DeliveryMarked reports whether either fulfillment path has recorded a
// completed handoff.
func (o *Order) DeliveryMarked() bool {
	if o.DeliveredAt != nil {
		return true
	}
	if o.Delivery != nil && o.Delivery.DeliveredAt != nil {
		return true
	}
	if o.Pickup != nil && o.Pickup.PickedUpAt != nil {
		return true
	}
	return false
}

// BuyerConfirmed reports whether the buyer has explicitly accepted receipt.
func (o *Order) BuyerConfirmed() bool {
	return o.BuyerConfirmedAt != nil ||
		o.Status == enums.OrderStatusBuyerConfirmed ||
		o.Status == enums.OrderStatusAccepted ||
		o.Status == enums.OrderStatusReadyToRelease ||
		o.Status == enums.OrderStatusCompleted
}
