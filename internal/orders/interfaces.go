package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockyardhq/stockyard-backend/pkg/db/models"
	"github.com/stockyardhq/stockyard-backend/pkg/pagination"
)

// Repository defines persistence operations for orders, listings and
// reservations. Loads used for mutation run inside the caller's transaction
// via WithTx.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	FindOrderForUpdate(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
	ListOrders(ctx context.Context, params pagination.Params, filters ListFilters) ([]models.Order, string, error)
	FindAwaitingPaymentBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)

	FindListing(ctx context.Context, listingID uuid.UUID) (*models.Listing, error)
	ReserveListing(ctx context.Context, listingID uuid.UUID, qty int) error
	RestoreListingQuantity(ctx context.Context, listingID uuid.UUID, qty int) error
	ConsumeListingReservation(ctx context.Context, listingID uuid.UUID, qty int) error
	CreateReservation(ctx context.Context, reservation *models.ListingReservation) error
	FindReservationByOrder(ctx context.Context, orderID uuid.UUID) (*models.ListingReservation, error)
	DeleteReservation(ctx context.Context, reservationID uuid.UUID) error

	NextOrderNumber(ctx context.Context) (int64, error)
}

// ListFilters is the repository-level filter set; actor scoping is applied
// by the service before it reaches here.
type ListFilters struct {
	BuyerID      *uuid.UUID
	SellerID     *uuid.UUID
	Status       *string
	DisputesOnly bool
	DateFrom     *time.Time
	DateTo       *time.Time
}
