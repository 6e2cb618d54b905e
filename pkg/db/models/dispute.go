package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockyardhq/stockyard-backend/pkg/enums"
)

// Dispute is the detailed record behind an order's dispute_status field.
// The order column stays the fast-path flag for release gating; this row
// carries evidence and resolution detail.
type Dispute struct {
	ID      uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`

	Status   enums.DisputeStatus `gorm:"column:status;type:dispute_status;not null;default:'open'"`
	OpenedBy uuid.UUID           `gorm:"column:opened_by;type:uuid;not null"`
	Reason   string              `gorm:"column:reason;not null"`

	EvidenceURLs  []string   `gorm:"column:evidence_urls;type:jsonb;serializer:json"`
	EvidenceNotes *string    `gorm:"column:evidence_notes"`
	EvidenceDueAt *time.Time `gorm:"column:evidence_due_at"`

	ResolvedBy       *uuid.UUID       `gorm:"column:resolved_by;type:uuid"`
	ResolutionNote   *string          `gorm:"column:resolution_note"`
	RefundAmount     *decimal.Decimal `gorm:"column:refund_amount;type:numeric(12,2)"`
	SellerAmountKept *decimal.Decimal `gorm:"column:seller_amount_kept;type:numeric(12,2)"`
	ResolvedAt       *time.Time       `gorm:"column:resolved_at"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Dispute) TableName() string {
	return "disputes"
}
