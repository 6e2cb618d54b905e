package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/stockyardhq/stockyard-backend/pkg/db/models"
	"github.com/stockyardhq/stockyard-backend/pkg/enums"
	"github.com/stockyardhq/stockyard-backend/pkg/logger"
	"github.com/stockyardhq/stockyard-backend/pkg/outbox"
	"github.com/stockyardhq/stockyard-backend/pkg/outbox/idempotency"
	"github.com/stockyardhq/stockyard-backend/pkg/outbox/payloads"
)

const orderNotificationConsumer = "order-notifications"

type repository interface {
	Create(ctx context.Context, notification *models.Notification) error
}

// Consumer watches the domain event stream and turns money-moving order
// events into in-app notification rows.
type Consumer struct {
	repo         repository
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	logg         *logger.Logger
}

// NewConsumer builds an order notification consumer.
func NewConsumer(repo repository, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("domain subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		subscription: subscription,
		idempotency:  manager,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": string(eventType),
	})

	if !handledEvents[eventType] {
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, orderNotificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	if err := c.handle(ctx, eventType, envelope.Data); err != nil {
		c.logg.Error(logCtx, "notification handling failed", err)
		_ = c.idempotency.Delete(ctx, orderNotificationConsumer, eventID)
		return processResult{nack: true}
	}
	return processResult{ack: true}
}

var handledEvents = map[enums.OutboxEventType]bool{
	enums.EventOrderPaid:      true,
	enums.EventPayoutReleased: true,
	enums.EventRefundIssued:   true,
	enums.EventOrderCreated:   true,
}

func (c *Consumer) handle(ctx context.Context, eventType enums.OutboxEventType, data json.RawMessage) error {
	switch eventType {
	case enums.EventOrderCreated:
		var payload payloads.OrderCreatedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		return c.create(ctx, payload.SellerID, payload.OrderID, enums.NotificationTypeOrderUpdate,
			"New order", fmt.Sprintf("A buyer started checkout for %d head from your listing", payload.Quantity))

	case enums.EventOrderPaid:
		var payload payloads.OrderPaidEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		return c.create(ctx, payload.SellerID, payload.OrderID, enums.NotificationTypeActionRequired,
			"Payment received", "Funds are in custody; propose delivery or publish pickup details to move the order along")

	case enums.EventPayoutReleased:
		var payload payloads.PayoutReleasedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		return c.create(ctx, payload.SellerID, payload.OrderID, enums.NotificationTypePayout,
			"Payout released", fmt.Sprintf("%s was transferred to your payout account", payload.SellerAmount.StringFixed(2)))

	case enums.EventRefundIssued:
		var payload payloads.RefundIssuedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		title := "Refund issued"
		if payload.Partial {
			title = "Partial refund issued"
		}
		// The buyer id is not on the payload; the row is keyed to the order
		// and surfaced through the order detail feed instead.
		return c.create(ctx, uuid.Nil, payload.OrderID, enums.NotificationTypeDispute,
			title, fmt.Sprintf("%s was returned to the buyer's payment method", payload.RefundAmount.StringFixed(2)))

	default:
		return nil
	}
}

func (c *Consumer) create(ctx context.Context, userID, orderID uuid.UUID, notifType enums.NotificationType, title, message string) error {
	if userID == uuid.Nil {
		return nil
	}
	notification := &models.Notification{
		UserID:  userID,
		Type:    notifType,
		Title:   title,
		Message: message,
	}
	if orderID != uuid.Nil {
		id := orderID
		notification.OrderID = &id
	}
	return c.repo.Create(ctx, notification)
}
