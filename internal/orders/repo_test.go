package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/stockyardhq/stockyard-backend/pkg/db/models"
	"github.com/stockyardhq/stockyard-backend/pkg/enums"
	"github.com/stockyardhq/stockyard-backend/pkg/pagination"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  order_number INTEGER NOT NULL,
  listing_id TEXT NOT NULL,
  buyer_id TEXT NOT NULL,
  seller_id TEXT NOT NULL,
  quantity INTEGER NOT NULL DEFAULT 1,
  currency TEXT NOT NULL DEFAULT 'USD',
  gross_amount NUMERIC NOT NULL DEFAULT 0,
  platform_fee NUMERIC NOT NULL DEFAULT 0,
  seller_amount NUMERIC NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'pending',
  transaction_status TEXT,
  transport_option TEXT NOT NULL,
  payout_hold_reason TEXT NOT NULL DEFAULT 'none',
  dispute_status TEXT NOT NULL DEFAULT 'none',
  payment_intent_id TEXT,
  transfer_id TEXT,
  refund_id TEXT,
  chargeback_active INTEGER NOT NULL DEFAULT 0,
  protection_days INTEGER,
  protection_ends_at DATETIME,
  delivery_address TEXT,
  pickup TEXT,
  delivery TEXT,
  tracking_enabled INTEGER NOT NULL DEFAULT 0,
  admin_hold INTEGER NOT NULL DEFAULT 0,
  admin_payout_approval INTEGER,
  admin_action_notes TEXT,
  admin_reviewed_at DATETIME,
  payment_expires_at DATETIME,
  paid_at DATETIME,
  delivered_at DATETIME,
  buyer_confirmed_at DATETIME,
  dispute_opened_at DATETIME,
  released_at DATETIME,
  refunded_at DATETIME,
  cancelled_at DATETIME,
  completed_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS listings (
  id TEXT PRIMARY KEY,
  seller_id TEXT NOT NULL,
  title TEXT NOT NULL DEFAULT '',
  species TEXT NOT NULL DEFAULT '',
  breed TEXT,
  price NUMERIC NOT NULL DEFAULT 0,
  currency TEXT NOT NULL DEFAULT 'USD',
  quantity_available INTEGER NOT NULL DEFAULT 1,
  quantity_reserved INTEGER NOT NULL DEFAULT 0,
  location TEXT,
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS listing_reservations (
  id TEXT PRIMARY KEY,
  listing_id TEXT NOT NULL,
  order_id TEXT NOT NULL UNIQUE,
  quantity INTEGER NOT NULL,
  expires_at DATETIME,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func seedListing(t *testing.T, db *gorm.DB, available int) *models.Listing {
	t.Helper()
	listing := &models.Listing{
		ID:                uuid.New(),
		SellerID:          uuid.New(),
		Title:             "Boer goat does",
		Species:           "goat",
		Price:             decimal.NewFromInt(350),
		Currency:          enums.CurrencyUSD,
		QuantityAvailable: available,
		Active:            true,
	}
	require.NoError(t, db.Create(listing).Error)
	return listing
}

func seedOrder(t *testing.T, db *gorm.DB, mutate func(*models.Order)) *models.Order {
	t.Helper()
	order := &models.Order{
		ID:              uuid.New(),
		OrderNumber:     1001,
		ListingID:       uuid.New(),
		BuyerID:         uuid.New(),
		SellerID:        uuid.New(),
		Quantity:        1,
		Currency:        enums.CurrencyUSD,
		GrossAmount:     decimal.NewFromInt(350),
		PlatformFee:     decimal.NewFromFloat(17.50),
		SellerAmount:    decimal.NewFromFloat(332.50),
		Status:          enums.OrderStatusPending,
		TransportOption: enums.TransportBuyer,
		PayoutHoldReason: enums.HoldReasonNone,
		DisputeStatus:   enums.DisputeStatusNone,
	}
	if mutate != nil {
		mutate(order)
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestReserveListing_DecrementsAvailable(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	listing := seedListing(t, db, 5)

	require.NoError(t, repo.ReserveListing(ctx, listing.ID, 3))

	got, err := repo.FindListing(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.QuantityAvailable)
	assert.Equal(t, 3, got.QuantityReserved)
}

func TestReserveListing_InsufficientQuantityFails(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	listing := seedListing(t, db, 2)

	err := repo.ReserveListing(ctx, listing.ID, 3)
	require.Error(t, err)

	got, err := repo.FindListing(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.QuantityAvailable, "failed reservation must not touch stock")
	assert.Equal(t, 0, got.QuantityReserved)
}

func TestRestoreListingQuantity_ReturnsReservedStock(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	listing := seedListing(t, db, 5)

	require.NoError(t, repo.ReserveListing(ctx, listing.ID, 4))
	require.NoError(t, repo.RestoreListingQuantity(ctx, listing.ID, 4))

	got, err := repo.FindListing(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.QuantityAvailable)
	assert.Equal(t, 0, got.QuantityReserved)
}

func TestConsumeListingReservation_DropsReservedOnly(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	listing := seedListing(t, db, 5)

	require.NoError(t, repo.ReserveListing(ctx, listing.ID, 2))
	require.NoError(t, repo.ConsumeListingReservation(ctx, listing.ID, 2))

	got, err := repo.FindListing(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.QuantityAvailable, "sold stock does not return to available")
	assert.Equal(t, 0, got.QuantityReserved)
}

func TestReservation_OnePerOrder(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	orderID := uuid.New()

	first := &models.ListingReservation{ID: uuid.New(), ListingID: uuid.New(), OrderID: orderID, Quantity: 1}
	require.NoError(t, repo.CreateReservation(ctx, first))

	dup := &models.ListingReservation{ID: uuid.New(), ListingID: uuid.New(), OrderID: orderID, Quantity: 1}
	require.Error(t, repo.CreateReservation(ctx, dup))

	found, err := repo.FindReservationByOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)

	require.NoError(t, repo.DeleteReservation(ctx, first.ID))
	_, err = repo.FindReservationByOrder(ctx, orderID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUpdateOrder_AppliesColumnMap(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	order := seedOrder(t, db, nil)

	paidAt := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	err := repo.UpdateOrder(ctx, order.ID, map[string]any{
		"status":  enums.OrderStatusPaidHeld,
		"paid_at": paidAt,
	})
	require.NoError(t, err)

	got, err := repo.FindOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPaidHeld, got.Status)
	require.NotNil(t, got.PaidAt)
	assert.True(t, got.PaidAt.Equal(paidAt))
}

func TestListOrders_FiltersAndPaginates(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	buyerID := uuid.New()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		created := base.Add(time.Duration(i) * time.Hour)
		seedOrder(t, db, func(o *models.Order) {
			o.BuyerID = buyerID
			o.CreatedAt = created
			o.UpdatedAt = created
		})
	}
	seedOrder(t, db, func(o *models.Order) {
		o.CreatedAt = base.Add(10 * time.Hour)
		o.UpdatedAt = o.CreatedAt
	})

	firstPage, cursor, err := repo.ListOrders(ctx, pagination.Params{Limit: 3}, ListFilters{BuyerID: &buyerID})
	require.NoError(t, err)
	require.Len(t, firstPage, 3)
	require.NotEmpty(t, cursor)
	for _, o := range firstPage {
		assert.Equal(t, buyerID, o.BuyerID)
	}
	assert.True(t, firstPage[0].CreatedAt.After(firstPage[2].CreatedAt), "newest first")

	secondPage, cursor, err := repo.ListOrders(ctx, pagination.Params{Limit: 3, Cursor: cursor}, ListFilters{BuyerID: &buyerID})
	require.NoError(t, err)
	require.Len(t, secondPage, 1)
	assert.Empty(t, cursor)
}

func TestListOrders_StatusFilter(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seedOrder(t, db, func(o *models.Order) { o.Status = enums.OrderStatusPaidHeld })
	seedOrder(t, db, nil)

	status := string(enums.OrderStatusPaidHeld)
	rows, _, err := repo.ListOrders(ctx, pagination.Params{}, ListFilters{Status: &status})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.OrderStatusPaidHeld, rows[0].Status)
}

func TestFindAwaitingPaymentBefore_CutoffAndStatus(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	expired := now.Add(-time.Hour)
	stillOpen := now.Add(time.Hour)

	overdue := seedOrder(t, db, func(o *models.Order) { o.PaymentExpiresAt = &expired })
	seedOrder(t, db, func(o *models.Order) { o.PaymentExpiresAt = &stillOpen })
	seedOrder(t, db, func(o *models.Order) {
		o.Status = enums.OrderStatusPaidHeld
		o.PaymentExpiresAt = &expired
	})
	seedOrder(t, db, nil) // no expiry recorded

	rows, err := repo.FindAwaitingPaymentBefore(ctx, now, 50)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, overdue.ID, rows[0].ID)
}

func TestFindAwaitingPaymentBefore_RespectsLimit(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		expired := now.Add(-time.Duration(i+1) * time.Hour)
		seedOrder(t, db, func(o *models.Order) { o.PaymentExpiresAt = &expired })
	}

	rows, err := repo.FindAwaitingPaymentBefore(ctx, now, 2)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestNextOrderNumber(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	n, err := repo.NextOrderNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1001), n)

	seedOrder(t, db, func(o *models.Order) { o.OrderNumber = 2042 })

	n, err = repo.NextOrderNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2043), n)
}
