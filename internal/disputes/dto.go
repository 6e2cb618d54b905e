package disputes

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockyardhq/stockyard-backend/internal/orders"
	"github.com/stockyardhq/stockyard-backend/pkg/db/models"
	"github.com/stockyardhq/stockyard-backend/pkg/enums"
)

// OpenInput starts a dispute on a delivered order.
type OpenInput struct {
	OrderID      uuid.UUID         `json:"-"`
	Reason       string            `json:"reason" validate:"required,min=10,max=2000"`
	EvidenceURLs []string          `json:"evidence_urls,omitempty" validate:"max=10,dive,url"`
	Actor        orders.ActorInput `json:"-"`
}

// SubmitEvidenceInput attaches supporting material from either party.
type SubmitEvidenceInput struct {
	OrderID      uuid.UUID         `json:"-"`
	EvidenceURLs []string          `json:"evidence_urls" validate:"required,min=1,max=10,dive,url"`
	Notes        string            `json:"notes,omitempty" validate:"max=2000"`
	Actor        orders.ActorInput `json:"-"`
}

// RequestEvidenceInput is the admin asking a party for more material.
type RequestEvidenceInput struct {
	OrderID uuid.UUID         `json:"-"`
	Note    string            `json:"note" validate:"required"`
	Actor   orders.ActorInput `json:"-"`
}

// Resolution selects the terminal outcome of a dispute.
type Resolution string

const (
	ResolutionRelease       Resolution = "release"
	ResolutionRefund        Resolution = "refund"
	ResolutionPartialRefund Resolution = "partial_refund"
)

// ResolveInput closes a dispute with a money-moving decision.
type ResolveInput struct {
	OrderID      uuid.UUID          `json:"-"`
	Resolution   Resolution         `json:"resolution" validate:"required,oneof=release refund partial_refund"`
	RefundAmount *decimal.Decimal   `json:"refund_amount,omitempty"`
	Note         string             `json:"note" validate:"required,min=5"`
	Actor        orders.ActorInput  `json:"-"`
}

// CancelInput lets the opening buyer withdraw the dispute.
type CancelInput struct {
	OrderID uuid.UUID         `json:"-"`
	Note    string            `json:"note,omitempty"`
	Actor   orders.ActorInput `json:"-"`
}

// DisputeDetail is the API projection of a dispute row.
type DisputeDetail struct {
	ID               uuid.UUID           `json:"id"`
	OrderID          uuid.UUID           `json:"order_id"`
	Status           enums.DisputeStatus `json:"status"`
	OpenedBy         uuid.UUID           `json:"opened_by"`
	Reason           string              `json:"reason"`
	EvidenceURLs     []string            `json:"evidence_urls,omitempty"`
	EvidenceNotes    *string             `json:"evidence_notes,omitempty"`
	EvidenceDueAt    *time.Time          `json:"evidence_due_at,omitempty"`
	ResolvedBy       *uuid.UUID          `json:"resolved_by,omitempty"`
	ResolutionNote   *string             `json:"resolution_note,omitempty"`
	RefundAmount     *decimal.Decimal    `json:"refund_amount,omitempty"`
	SellerAmountKept *decimal.Decimal    `json:"seller_amount_kept,omitempty"`
	ResolvedAt       *time.Time          `json:"resolved_at,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
}

// Detail maps a dispute row to its API projection.
func Detail(d *models.Dispute) *DisputeDetail {
	if d == nil {
		return nil
	}
	return &DisputeDetail{
		ID:               d.ID,
		OrderID:          d.OrderID,
		Status:           d.Status,
		OpenedBy:         d.OpenedBy,
		Reason:           d.Reason,
		EvidenceURLs:     d.EvidenceURLs,
		EvidenceNotes:    d.EvidenceNotes,
		EvidenceDueAt:    d.EvidenceDueAt,
		ResolvedBy:       d.ResolvedBy,
		ResolutionNote:   d.ResolutionNote,
		RefundAmount:     d.RefundAmount,
		SellerAmountKept: d.SellerAmountKept,
		ResolvedAt:       d.ResolvedAt,
		CreatedAt:        d.CreatedAt,
	}
}
