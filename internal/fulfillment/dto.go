package fulfillment

import (
	"time"

	"github.com/google/uuid"

	"github.com/stockyardhq/stockyard-backend/internal/orders"
	"github.com/stockyardhq/stockyard-backend/pkg/types"
)

// ProposeDeliveryInput carries the seller's offered delivery windows.
type ProposeDeliveryInput struct {
	OrderID     uuid.UUID          `json:"-"`
	Windows     []types.TimeWindow `json:"windows" validate:"required,min=1,max=5"`
	ETA         *time.Time         `json:"eta,omitempty"`
	Transporter *string            `json:"transporter,omitempty"`
	Notes       *string            `json:"notes,omitempty"`
	Actor       orders.ActorInput  `json:"-"`
}

// AgreeDeliveryWindowInput selects one proposed window by index.
type AgreeDeliveryWindowInput struct {
	OrderID     uuid.UUID         `json:"-"`
	WindowIndex int               `json:"window_index" validate:"min=0"`
	Actor       orders.ActorInput `json:"-"`
}

// StartTrackingInput marks the animals as out for delivery.
type StartTrackingInput struct {
	OrderID uuid.UUID         `json:"-"`
	Actor   orders.ActorInput `json:"-"`
}

// MarkDeliveredInput records the completed handoff on the delivery path.
type MarkDeliveredInput struct {
	OrderID      uuid.UUID         `json:"-"`
	SignatureURL *string           `json:"signature_url,omitempty"`
	Actor        orders.ActorInput `json:"-"`
}

// SetPickupInfoInput publishes the pickup location and offered windows.
type SetPickupInfoInput struct {
	OrderID  uuid.UUID          `json:"-"`
	Location *types.Address     `json:"location" validate:"required"`
	Windows  []types.TimeWindow `json:"windows" validate:"required,min=1,max=5"`
	Notes    *string            `json:"notes,omitempty"`
	Actor    orders.ActorInput  `json:"-"`
}

// SelectPickupWindowInput is the buyer choosing an offered window.
type SelectPickupWindowInput struct {
	OrderID     uuid.UUID         `json:"-"`
	WindowIndex int               `json:"window_index" validate:"min=0"`
	Actor       orders.ActorInput `json:"-"`
}

// SchedulePickupInput is the seller confirming the buyer's selection.
type SchedulePickupInput struct {
	OrderID uuid.UUID         `json:"-"`
	Actor   orders.ActorInput `json:"-"`
}

// ConfirmPickupInput verifies the handoff code and completes the pickup.
type ConfirmPickupInput struct {
	OrderID    uuid.UUID         `json:"-"`
	PickupCode string            `json:"pickup_code"`
	Actor      orders.ActorInput `json:"-"`
}
