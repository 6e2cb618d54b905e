package models

import (
	"time"

	"github.com/google/uuid"
)

// SellerPaymentAccount links a seller to their connected processor account.
// Onboarding happens in the identity service; this row is the destination
// for custody releases.
type SellerPaymentAccount struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID        uuid.UUID `gorm:"column:seller_id;type:uuid;not null;uniqueIndex:uq_seller_payment_accounts_seller"`
	StripeAccountID string    `gorm:"column:stripe_account_id;not null"`
	PayoutsEnabled  bool      `gorm:"column:payouts_enabled;not null;default:false"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (SellerPaymentAccount) TableName() string {
	return "seller_payment_accounts"
}
