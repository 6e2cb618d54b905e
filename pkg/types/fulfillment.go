package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// DeliveryDetails is the jsonb sub-document tracking seller-transport
// fulfillment on an order. Windows are seller-proposed; the buyer agrees to
// one by index.
type DeliveryDetails struct {
	Windows          []TimeWindow `json:"windows,omitempty"`
	AgreedWindow     *TimeWindow  `json:"agreed_window,omitempty"`
	ETA              *time.Time   `json:"eta,omitempty"`
	Transporter      *string      `json:"transporter,omitempty"`
	OutForDeliveryAt *time.Time   `json:"out_for_delivery_at,omitempty"`
	DeliveredAt      *time.Time   `json:"delivered_at,omitempty"`
	SignatureURL     *string      `json:"signature_url,omitempty"`
	Notes            *string      `json:"notes,omitempty"`
}

// PickupDetails is the jsonb sub-document tracking buyer-transport
// fulfillment on an order. Windows are seller-offered; the buyer selects one,
// then the seller confirms the schedule.
type PickupDetails struct {
	Location        *Address     `json:"location,omitempty"`
	Windows         []TimeWindow `json:"windows,omitempty"`
	SelectedWindow  *TimeWindow  `json:"selected_window,omitempty"`
	ScheduledWindow *TimeWindow  `json:"scheduled_window,omitempty"`
	PickupCode      string       `json:"pickup_code,omitempty"`
	ReadyAt         *time.Time   `json:"ready_at,omitempty"`
	PickedUpAt      *time.Time   `json:"picked_up_at,omitempty"`
	Notes           *string      `json:"notes,omitempty"`
}

// AdminNote is one entry in the order's append-only admin note log.
type AdminNote struct {
	AuthorID  string    `json:"author_id"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
}

type AdminNotes []AdminNote

// JSONMap stores an arbitrary JSON object inside a JSONB column.
type JSONMap map[string]any

// Value implements driver.Valuer.
func (j *JSONMap) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner.
func (j *JSONMap) Scan(value any) error {
	if value == nil {
		*j = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	default:
		return fmt.Errorf("jsonmap: unsupported scan type %T", value)
	}
}
