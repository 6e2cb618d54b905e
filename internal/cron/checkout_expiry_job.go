package cron

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/stockyardhq/stockyard-backend/internal/orders"
	"github.com/stockyardhq/stockyard-backend/pkg/logger"
)

const checkoutExpiryBatchSize = 200

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type abandonedSweeper interface {
	SweepAbandoned(ctx context.Context, input orders.SweepInput) (*orders.SweepResult, error)
}

type CheckoutExpiryJobParams struct {
	Logger    *logger.Logger
	Orders    abandonedSweeper
	BatchSize int
}

// NewCheckoutExpiryJob builds the job that cancels orders whose payment
// deadline lapsed and returns their reserved head to the listing.
func NewCheckoutExpiryJob(params CheckoutExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order service required")
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = checkoutExpiryBatchSize
	}
	return &checkoutExpiryJob{
		logg:      params.Logger,
		orders:    params.Orders,
		batchSize: batchSize,
	}, nil
}

type checkoutExpiryJob struct {
	logg      *logger.Logger
	orders    abandonedSweeper
	batchSize int
}

func (j *checkoutExpiryJob) Name() string { return "checkout-expiry" }

func (j *checkoutExpiryJob) Run(ctx context.Context) error {
	result, err := j.orders.SweepAbandoned(ctx, orders.SweepInput{BatchSize: j.batchSize})
	if err != nil {
		return fmt.Errorf("checkout expiry sweep: %w", err)
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"scanned":   result.Scanned,
		"cancelled": result.Cancelled,
		"failed":    result.Failed,
	})
	if result.Failed > 0 {
		j.logg.Warn(logCtx, "checkout expiry sweep finished with failures")
		return nil
	}
	j.logg.Info(logCtx, "checkout expiry sweep complete")
	return nil
}
