package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stockyardhq/stockyard-backend/pkg/db/models"
	"github.com/stockyardhq/stockyard-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Where("id = ?", orderID).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindOrderForUpdate(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(updates).Error
}

func (r *repository) ListOrders(ctx context.Context, params pagination.Params, filters ListFilters) ([]models.Order, string, error) {
	limit := pagination.LimitWithBuffer(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.Order{})
	if filters.BuyerID != nil {
		query = query.Where("buyer_id = ?", *filters.BuyerID)
	}
	if filters.SellerID != nil {
		query = query.Where("seller_id = ?", *filters.SellerID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.DisputesOnly {
		query = query.Where("dispute_status IN ?", []string{"open", "needs_evidence", "under_review"})
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Order
	err = query.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, "", err
	}

	nextCursor := ""
	pageSize := pagination.NormalizeLimit(params.Limit)
	if len(rows) > pageSize {
		rows = rows[:pageSize]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, nextCursor, nil
}

func (r *repository) FindAwaitingPaymentBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Where("status IN ?", []string{"pending", "awaiting_bank_transfer", "awaiting_wire"}).
		Where("payment_expires_at IS NOT NULL AND payment_expires_at < ?", cutoff).
		Order("payment_expires_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *repository) FindListing(ctx context.Context, listingID uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	err := r.db.WithContext(ctx).Where("id = ?", listingID).First(&listing).Error
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *repository) ReserveListing(ctx context.Context, listingID uuid.UUID, qty int) error {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE listings
		SET quantity_available = quantity_available - ?,
			quantity_reserved = quantity_reserved + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND quantity_available >= ?
	`, qty, qty, listingID, qty)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("listing %s has insufficient quantity", listingID)
	}
	return nil
}

func (r *repository) RestoreListingQuantity(ctx context.Context, listingID uuid.UUID, qty int) error {
	if qty <= 0 {
		return nil
	}
	return r.db.WithContext(ctx).Exec(`
		UPDATE listings
		SET quantity_available = quantity_available + ?,
			quantity_reserved = quantity_reserved - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND quantity_reserved >= ?
	`, qty, qty, listingID, qty).Error
}

func (r *repository) ConsumeListingReservation(ctx context.Context, listingID uuid.UUID, qty int) error {
	if qty <= 0 {
		return nil
	}
	return r.db.WithContext(ctx).Exec(`
		UPDATE listings
		SET quantity_reserved = quantity_reserved - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND quantity_reserved >= ?
	`, qty, listingID, qty).Error
}

func (r *repository) CreateReservation(ctx context.Context, reservation *models.ListingReservation) error {
	return r.db.WithContext(ctx).Create(reservation).Error
}

func (r *repository) FindReservationByOrder(ctx context.Context, orderID uuid.UUID) (*models.ListingReservation, error) {
	var reservation models.ListingReservation
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&reservation).Error
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

func (r *repository) DeleteReservation(ctx context.Context, reservationID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", reservationID).
		Delete(&models.ListingReservation{}).Error
}

func (r *repository) NextOrderNumber(ctx context.Context) (int64, error) {
	var max int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("COALESCE(MAX(order_number), 1000)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}
