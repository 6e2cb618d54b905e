package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateOrder        OutboxAggregateType = "order"
	AggregateDispute      OutboxAggregateType = "dispute"
	AggregatePayout       OutboxAggregateType = "payout"
	AggregateListing      OutboxAggregateType = "listing"
	AggregateNotification OutboxAggregateType = "notification"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateOrder,
	AggregateDispute,
	AggregatePayout,
	AggregateListing,
	AggregateNotification,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventOrderCreated             OutboxEventType = "order_created"
	EventOrderPaid                OutboxEventType = "order_paid"
	EventOrderCancelled           OutboxEventType = "order_cancelled"
	EventOrderExpired             OutboxEventType = "order_expired"
	EventFulfillmentUpdated       OutboxEventType = "fulfillment_updated"
	EventDeliveryConfirmed        OutboxEventType = "delivery_confirmed"
	EventBuyerConfirmedReceipt    OutboxEventType = "buyer_confirmed_receipt"
	EventPayoutReleased           OutboxEventType = "payout_released"
	EventPayoutHoldSet            OutboxEventType = "payout_hold_set"
	EventPayoutHoldCleared        OutboxEventType = "payout_hold_cleared"
	EventRefundIssued             OutboxEventType = "refund_issued"
	EventDisputeOpened            OutboxEventType = "dispute_opened"
	EventDisputeResolved          OutboxEventType = "dispute_resolved"
	EventChargebackReported       OutboxEventType = "chargeback_reported"
	EventReservationReleased      OutboxEventType = "reservation_released"
	EventNotificationRequested    OutboxEventType = "notification_requested"
	EventSellerMarkedNoncompliant OutboxEventType = "seller_marked_noncompliant"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderCreated,
	EventOrderPaid,
	EventOrderCancelled,
	EventOrderExpired,
	EventFulfillmentUpdated,
	EventDeliveryConfirmed,
	EventBuyerConfirmedReceipt,
	EventPayoutReleased,
	EventPayoutHoldSet,
	EventPayoutHoldCleared,
	EventRefundIssued,
	EventDisputeOpened,
	EventDisputeResolved,
	EventChargebackReported,
	EventReservationReleased,
	EventNotificationRequested,
	EventSellerMarkedNoncompliant,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
