package payouts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stockyardhq/stockyard-backend/pkg/db/models"
)

// Repository is the persistence surface for custody release and admin
// override operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindOrderForUpdate(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
	FindSellerAccount(ctx context.Context, sellerID uuid.UUID) (*models.SellerPaymentAccount, error)
	FindReleaseCandidates(ctx context.Context, limit int) ([]models.Order, error)
	FindExpiredProtectionHolds(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
}

// candidateStatuses is the coarse first tier of the payout queue query; the
// shared eligibility evaluator makes the final call per row.
var candidateStatuses = []string{
	"paid", "paid_held", "in_transit", "delivered",
	"accepted", "buyer_confirmed", "ready_to_release", "disputed",
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a payouts repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
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

func (r *repository) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Where("id = ?", orderID).First(&order).Error
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

func (r *repository) FindSellerAccount(ctx context.Context, sellerID uuid.UUID) (*models.SellerPaymentAccount, error) {
	var account models.SellerPaymentAccount
	err := r.db.WithContext(ctx).Where("seller_id = ?", sellerID).First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *repository) FindReleaseCandidates(ctx context.Context, limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Where("transfer_id IS NULL").
		Where("status IN ?", candidateStatuses).
		Where("paid_at IS NOT NULL").
		Order("paid_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *repository) FindExpiredProtectionHolds(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Where("transfer_id IS NULL").
		Where("payout_hold_reason = ?", "protection_window").
		Where("protection_ends_at IS NOT NULL AND protection_ends_at <= ?", cutoff).
		Order("protection_ends_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
