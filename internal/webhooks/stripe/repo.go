package stripewebhook

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockyardhq/stockyard-backend/pkg/db/models"
)

type repositoryImpl struct {
	db *gorm.DB
}

// NewOrderRepository builds the narrow order lookup the webhook path needs.
func NewOrderRepository(db *gorm.DB) orderRepository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) orderRepository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) FindOrderByPaymentIntent(ctx context.Context, paymentIntentID string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("payment_intent_id = ?", paymentIntentID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repositoryImpl) UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(updates).Error
}
