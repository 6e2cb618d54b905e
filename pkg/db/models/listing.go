package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockyardhq/stockyard-backend/pkg/enums"
	"github.com/stockyardhq/stockyard-backend/pkg/types"
)

// Listing is an animal (or lot of animals) offered for sale.
type Listing struct {
	ID       uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID uuid.UUID `gorm:"column:seller_id;type:uuid;not null"`

	Title    string          `gorm:"column:title;not null"`
	Species  string          `gorm:"column:species;not null"`
	Breed    *string         `gorm:"column:breed"`
	Price    decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Currency enums.Currency  `gorm:"column:currency;type:text;not null;default:'USD'"`

	QuantityAvailable int `gorm:"column:quantity_available;not null;default:1"`
	QuantityReserved  int `gorm:"column:quantity_reserved;not null;default:0"`

	Location *types.Address `gorm:"column:location;type:address_t"`
	Active   bool           `gorm:"column:active;not null;default:true"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Listing) TableName() string {
	return "listings"
}

// ListingReservation pins quantity to an in-flight checkout. It is released
// in lockstep with order cancellation inside one transaction.
type ListingReservation struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ListingID uuid.UUID `gorm:"column:listing_id;type:uuid;not null"`
	OrderID   uuid.UUID `gorm:"column:order_id;type:uuid;not null;uniqueIndex:uq_listing_reservations_order"`
	Quantity  int       `gorm:"column:quantity;not null"`

	ExpiresAt *time.Time `gorm:"column:expires_at"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (ListingReservation) TableName() string {
	return "listing_reservations"
}
