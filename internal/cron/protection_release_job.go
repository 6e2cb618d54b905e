package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stockyardhq/stockyard-backend/internal/orders"
	"github.com/stockyardhq/stockyard-backend/internal/payouts"
	"github.com/stockyardhq/stockyard-backend/pkg/db/models"
	"github.com/stockyardhq/stockyard-backend/pkg/enums"
	pkgerrors "github.com/stockyardhq/stockyard-backend/pkg/errors"
	"github.com/stockyardhq/stockyard-backend/pkg/logger"
)

const protectionReleaseBatchSize = 100

type expiredHoldReader interface {
	FindExpiredProtectionHolds(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
}

type payoutReleaser interface {
	Release(ctx context.Context, input payouts.ReleaseInput) (*orders.OrderDetail, error)
}

type ProtectionReleaseJobParams struct {
	Logger    *logger.Logger
	Reader    expiredHoldReader
	Payouts   payoutReleaser
	BatchSize int
}

// NewProtectionReleaseJob builds the job that auto-releases custody funds
// once an order's protection window lapses with no dispute.
func NewProtectionReleaseJob(params ProtectionReleaseJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Reader == nil {
		return nil, fmt.Errorf("expired hold reader required")
	}
	if params.Payouts == nil {
		return nil, fmt.Errorf("payout service required")
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = protectionReleaseBatchSize
	}
	return &protectionReleaseJob{
		logg:      params.Logger,
		reader:    params.Reader,
		payouts:   params.Payouts,
		batchSize: batchSize,
		now:       time.Now,
	}, nil
}

type protectionReleaseJob struct {
	logg      *logger.Logger
	reader    expiredHoldReader
	payouts   payoutReleaser
	batchSize int
	now       func() time.Time
}

func (j *protectionReleaseJob) Name() string { return "protection-release" }

func (j *protectionReleaseJob) Run(ctx context.Context) error {
	rows, err := j.reader.FindExpiredProtectionHolds(ctx, j.now().UTC(), j.batchSize)
	if err != nil {
		return fmt.Errorf("load expired protection holds: %w", err)
	}

	var released, skipped, failed int
	for i := range rows {
		orderID := rows[i].ID
		_, err := j.payouts.Release(ctx, payouts.ReleaseInput{
			OrderID: orderID,
			Note:    "protection window lapsed",
			Actor:   orders.ActorInput{Role: enums.RoleSystem},
		})
		switch {
		case err == nil:
			released++
		case isReleaseBlocked(err):
			// Another gate still applies: a dispute, review hold or
			// missing buyer confirmation. The order stays queued for
			// the admin surface.
			skipped++
		default:
			failed++
			j.logg.Error(j.logg.WithField(ctx, "order_id", orderID.String()), "auto-release failed", err)
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"scanned":  len(rows),
		"released": released,
		"skipped":  skipped,
		"failed":   failed,
	})
	j.logg.Info(logCtx, "protection release sweep complete")
	return nil
}

func isReleaseBlocked(err error) bool {
	var appErr *pkgerrors.Error
	if !errors.As(err, &appErr) {
		return false
	}
	switch appErr.Code() {
	case pkgerrors.CodeConflict, pkgerrors.CodeValidation:
		return true
	default:
		return false
	}
}
