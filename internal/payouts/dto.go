package payouts

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockyardhq/stockyard-backend/internal/orders"
	"github.com/stockyardhq/stockyard-backend/pkg/enums"
)

// ReleaseInput releases custody funds for one order.
type ReleaseInput struct {
	OrderID uuid.UUID         `json:"-"`
	Note    string            `json:"note,omitempty"`
	Actor   orders.ActorInput `json:"-"`
}

// BulkReleaseInput releases a batch; each order succeeds or fails on its own.
type BulkReleaseInput struct {
	OrderIDs []uuid.UUID       `json:"order_ids" validate:"required,min=1,max=50"`
	Note     string            `json:"note,omitempty"`
	Actor    orders.ActorInput `json:"-"`
}

// HoldInput sets or clears the admin hold on an order.
type HoldInput struct {
	OrderID uuid.UUID         `json:"-"`
	Note    string            `json:"note" validate:"required"`
	Actor   orders.ActorInput `json:"-"`
}

// BulkHoldInput applies a hold change to a batch of orders.
type BulkHoldInput struct {
	OrderIDs []uuid.UUID       `json:"order_ids" validate:"required,min=1,max=50"`
	Note     string            `json:"note" validate:"required"`
	Actor    orders.ActorInput `json:"-"`
}

// ApprovalInput sets or clears the explicit payout approval flag.
type ApprovalInput struct {
	OrderID uuid.UUID         `json:"-"`
	Note    string            `json:"note,omitempty"`
	Actor   orders.ActorInput `json:"-"`
}

// ForceMarkPaidInput confirms an out-of-band bank transfer or wire.
type ForceMarkPaidInput struct {
	OrderID   uuid.UUID         `json:"-"`
	Reference string            `json:"reference,omitempty"`
	Note      string            `json:"note" validate:"required"`
	Actor     orders.ActorInput `json:"-"`
}

// BulkItemResult is one order's outcome inside a bulk operation.
type BulkItemResult struct {
	OrderID    uuid.UUID `json:"order_id"`
	Succeeded  bool      `json:"succeeded"`
	TransferID string    `json:"transfer_id,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// BulkResult aggregates a bulk operation's per-item outcomes.
type BulkResult struct {
	Requested int              `json:"requested"`
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
	Items     []BulkItemResult `json:"items"`
}

// QueueEntry is one order in the admin payout queue with its eligibility
// explanation.
type QueueEntry struct {
	OrderID          uuid.UUID               `json:"order_id"`
	OrderNumber      int64                   `json:"order_number"`
	SellerID         uuid.UUID               `json:"seller_id"`
	SellerAmount     decimal.Decimal         `json:"seller_amount"`
	EffectiveStatus  enums.TransactionStatus `json:"effective_status"`
	PayoutHoldReason enums.PayoutHoldReason  `json:"payout_hold_reason"`
	AdminHold        bool                    `json:"admin_hold"`
	Eligible         bool                    `json:"eligible"`
	BlockReason      string                  `json:"block_reason,omitempty"`
	Explanation      string                  `json:"explanation,omitempty"`
	EarliestRelease  *time.Time              `json:"earliest_release_at,omitempty"`
	PaidAt           *time.Time              `json:"paid_at,omitempty"`
	DeliveredAt      *time.Time              `json:"delivered_at,omitempty"`
}

// QueueFilters narrows the payout queue listing.
type QueueFilters struct {
	EligibleOnly bool
	Limit        int
}
