package timeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stockyardhq/stockyard-backend/pkg/db/models"
	"github.com/stockyardhq/stockyard-backend/pkg/enums"
	pkgerrors "github.com/stockyardhq/stockyard-backend/pkg/errors"
	"github.com/stockyardhq/stockyard-backend/pkg/logger"
	"github.com/stockyardhq/stockyard-backend/pkg/types"
)

// Entry is one event to record on an order's history.
type Entry struct {
	OrderID   uuid.UUID
	EventType enums.TimelineEventType
	ActorRole enums.ActorRole
	ActorID   *uuid.UUID
	Message   string
	Metadata  map[string]any

	// EventID overrides the deterministic default. Leave empty unless the
	// caller needs to record the same event type twice on one order.
	EventID string
}

// Recorder appends idempotent, human-readable history entries.
type Recorder interface {
	Append(ctx context.Context, tx *gorm.DB, entry Entry) error
	List(ctx context.Context, orderID uuid.UUID, limit int) ([]models.TimelineEvent, error)
}

type recorder struct {
	db   *gorm.DB
	logg *logger.Logger
}

// NewRecorder builds the timeline recorder.
func NewRecorder(db *gorm.DB, logg *logger.Logger) (Recorder, error) {
	if db == nil {
		return nil, fmt.Errorf("timeline db handle required")
	}
	return &recorder{db: db, logg: logg}, nil
}

// EventID derives the deterministic id for an order/event pair. Retried
// requests derive the same id and therefore never duplicate an entry.
func EventID(orderID uuid.UUID, eventType enums.TimelineEventType) string {
	return fmt.Sprintf("%s:%s", orderID, eventType)
}

func (r *recorder) Append(ctx context.Context, tx *gorm.DB, entry Entry) error {
	if entry.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "timeline entry requires an order id")
	}
	if entry.EventType == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "timeline entry requires an event type")
	}

	eventID := entry.EventID
	if eventID == "" {
		eventID = EventID(entry.OrderID, entry.EventType)
	}

	role := entry.ActorRole
	if role == "" {
		role = enums.RoleSystem
	}

	row := models.TimelineEvent{
		EventID:   eventID,
		OrderID:   entry.OrderID,
		EventType: entry.EventType,
		ActorRole: role,
		ActorID:   entry.ActorID,
		Message:   entry.Message,
	}
	if len(entry.Metadata) > 0 {
		meta := types.JSONMap(entry.Metadata)
		row.Metadata = &meta
	}

	conn := r.db
	if tx != nil {
		conn = tx
	}

	// ON CONFLICT DO NOTHING keeps a duplicate deterministic id from
	// erroring; a plain failed INSERT would abort the caller's Postgres
	// transaction and poison every statement after it.
	res := conn.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(&row)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 && r.logg != nil {
		r.logg.Info(r.logg.WithField(ctx, "timeline_event_id", eventID), "timeline entry already recorded")
	}
	return nil
}

func (r *recorder) List(ctx context.Context, orderID uuid.UUID, limit int) ([]models.TimelineEvent, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if limit <= 0 {
		limit = 100
	}
	var rows []models.TimelineEvent
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return rows, nil
}
