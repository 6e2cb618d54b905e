package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/stockyardhq/stockyard-backend/pkg/enums"
	"github.com/stockyardhq/stockyard-backend/pkg/types"
)

// TimelineEvent is one append-only entry in an order's human-readable
// history. EventID is caller-supplied and deterministic; the unique index
// makes retried appends no-ops.
type TimelineEvent struct {
	ID      uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EventID string    `gorm:"column:event_id;not null;uniqueIndex:uq_timeline_events_event_id"`
	OrderID uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`

	EventType enums.TimelineEventType `gorm:"column:event_type;type:text;not null"`
	ActorRole enums.ActorRole         `gorm:"column:actor_role;type:text;not null"`
	ActorID   *uuid.UUID              `gorm:"column:actor_id;type:uuid"`

	Message  string         `gorm:"column:message;not null"`
	Metadata *types.JSONMap `gorm:"column:metadata;type:jsonb;serializer:json"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (TimelineEvent) TableName() string {
	return "timeline_events"
}
