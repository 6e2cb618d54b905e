package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockyardhq/stockyard-backend/pkg/custody"
	"github.com/stockyardhq/stockyard-backend/pkg/db/models"
	"github.com/stockyardhq/stockyard-backend/pkg/enums"
	"github.com/stockyardhq/stockyard-backend/pkg/types"
)

// OrderDetail is the canonical read model returned by every order mutation.
// EffectiveStatus is the reconciled value; callers never see the raw pair.
type OrderDetail struct {
	ID                uuid.UUID               `json:"id"`
	OrderNumber       int64                   `json:"order_number"`
	ListingID         uuid.UUID               `json:"listing_id"`
	BuyerID           uuid.UUID               `json:"buyer_id"`
	SellerID          uuid.UUID               `json:"seller_id"`
	Quantity          int                     `json:"quantity"`
	Currency          enums.Currency          `json:"currency"`
	GrossAmount       decimal.Decimal         `json:"gross_amount"`
	PlatformFee       decimal.Decimal         `json:"platform_fee"`
	SellerAmount      decimal.Decimal         `json:"seller_amount"`
	Status            enums.OrderStatus       `json:"status"`
	EffectiveStatus   enums.TransactionStatus `json:"effective_status"`
	TransportOption   enums.TransportOption   `json:"transport_option"`
	PayoutHoldReason  enums.PayoutHoldReason  `json:"payout_hold_reason"`
	DisputeStatus     enums.DisputeStatus     `json:"dispute_status"`
	AdminHold         bool                    `json:"admin_hold"`
	AdminPayoutApproval *bool                 `json:"admin_payout_approval,omitempty"`
	TransferID        *string                 `json:"transfer_id,omitempty"`
	ProtectionEndsAt  *time.Time              `json:"protection_ends_at,omitempty"`
	Pickup            *types.PickupDetails    `json:"pickup,omitempty"`
	Delivery          *types.DeliveryDetails  `json:"delivery,omitempty"`
	TrackingEnabled   bool                    `json:"tracking_enabled"`
	PaymentExpiresAt  *time.Time              `json:"payment_expires_at,omitempty"`
	PaidAt            *time.Time              `json:"paid_at,omitempty"`
	DeliveredAt       *time.Time              `json:"delivered_at,omitempty"`
	BuyerConfirmedAt  *time.Time              `json:"buyer_confirmed_at,omitempty"`
	ReleasedAt        *time.Time              `json:"released_at,omitempty"`
	CancelledAt       *time.Time              `json:"cancelled_at,omitempty"`
	CreatedAt         time.Time               `json:"created_at"`

	Release *ReleaseSummary `json:"release,omitempty"`
}

// ReleaseSummary explains the current eligibility decision to the caller.
type ReleaseSummary struct {
	Eligible          bool       `json:"eligible"`
	Reason            string     `json:"reason,omitempty"`
	Explanation       string     `json:"explanation,omitempty"`
	EarliestReleaseAt *time.Time `json:"earliest_release_at,omitempty"`
}

// Detail maps a stored order plus its eligibility decision to the read model.
func Detail(o *models.Order, decision custody.Decision) *OrderDetail {
	d := &OrderDetail{
		ID:               o.ID,
		OrderNumber:      o.OrderNumber,
		ListingID:        o.ListingID,
		BuyerID:          o.BuyerID,
		SellerID:         o.SellerID,
		Quantity:         o.Quantity,
		Currency:         o.Currency,
		GrossAmount:      o.GrossAmount,
		PlatformFee:      o.PlatformFee,
		SellerAmount:     o.SellerAmount,
		Status:           o.Status,
		EffectiveStatus:  custody.EffectiveStatus(o),
		TransportOption:  o.TransportOption,
		PayoutHoldReason: o.PayoutHoldReason,
		DisputeStatus:    o.DisputeStatus,
		AdminHold:        o.AdminHold,
		AdminPayoutApproval: o.AdminPayoutApproval,
		TransferID:       o.TransferID,
		ProtectionEndsAt: o.ProtectionEndsAt,
		Pickup:           o.Pickup,
		Delivery:         o.Delivery,
		TrackingEnabled:  o.TrackingEnabled,
		PaymentExpiresAt: o.PaymentExpiresAt,
		PaidAt:           o.PaidAt,
		DeliveredAt:      o.DeliveredAt,
		BuyerConfirmedAt: o.BuyerConfirmedAt,
		ReleasedAt:       o.ReleasedAt,
		CancelledAt:      o.CancelledAt,
		CreatedAt:        o.CreatedAt,
	}
	d.Release = &ReleaseSummary{
		Eligible:          decision.Eligible,
		Reason:            string(decision.Reason),
		Explanation:       decision.Explanation,
		EarliestReleaseAt: decision.EarliestReleaseAt,
	}
	return d
}

// CreateOrderInput starts the lifecycle at checkout-intent time.
type CreateOrderInput struct {
	ListingID       uuid.UUID             `json:"listing_id" validate:"required"`
	BuyerID         uuid.UUID             `json:"-"`
	Quantity        int                   `json:"quantity" validate:"omitempty,min=1"`
	TransportOption enums.TransportOption `json:"transport_option" validate:"required"`
	PaymentMethod   string                `json:"payment_method" validate:"omitempty,oneof=card bank_transfer wire"`
	DeliveryAddress *types.Address        `json:"delivery_address,omitempty"`
}

// ConfirmPaymentInput marks the paid milestone. Source distinguishes the
// webhook path from the client-initiated "confirm my payment" call; both are
// idempotent against the PaidAt marker.
type ConfirmPaymentInput struct {
	OrderID         uuid.UUID
	PaymentIntentID string
	Source          string
	Actor           ActorInput
}

// ConfirmReceiptInput is the buyer's explicit acceptance of the goods.
type ConfirmReceiptInput struct {
	OrderID uuid.UUID
	Actor   ActorInput
}

// CancelOrderInput cancels an order and releases its listing reservation.
type CancelOrderInput struct {
	OrderID uuid.UUID
	Reason  string
	Force   bool
	Actor   ActorInput
}

// ActorInput carries the authenticated caller into the service layer.
type ActorInput struct {
	UserID uuid.UUID
	Role   enums.ActorRole
}

// OrderFilters narrow the list endpoints.
type OrderFilters struct {
	Status          *enums.OrderStatus
	EffectiveStatus *enums.TransactionStatus
	DisputesOnly    bool
	DateFrom        *time.Time
	DateTo          *time.Time
}

// OrderSummary is the list-row projection.
type OrderSummary struct {
	ID              uuid.UUID               `json:"id"`
	OrderNumber     int64                   `json:"order_number"`
	ListingID       uuid.UUID               `json:"listing_id"`
	GrossAmount     decimal.Decimal         `json:"gross_amount"`
	Status          enums.OrderStatus       `json:"status"`
	EffectiveStatus enums.TransactionStatus `json:"effective_status"`
	TransportOption enums.TransportOption   `json:"transport_option"`
	CreatedAt       time.Time               `json:"created_at"`
}

// OrderList wraps the paginated orders plus the next page cursor.
type OrderList struct {
	Orders     []OrderSummary `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// SweepInput bounds one abandoned-checkout sweep run.
type SweepInput struct {
	Cutoff    time.Time
	BatchSize int
	DryRun    bool
	Force     bool
}

// SweepItemResult reports the outcome for one swept order.
type SweepItemResult struct {
	OrderID uuid.UUID `json:"order_id"`
	Action  string    `json:"action"`
	Error   string    `json:"error,omitempty"`
}

// SweepResult aggregates one bounded sweep pass.
type SweepResult struct {
	Scanned   int               `json:"scanned"`
	Cancelled int               `json:"cancelled"`
	Failed    int               `json:"failed"`
	DryRun    bool              `json:"dry_run"`
	Items     []SweepItemResult `json:"items"`
}
