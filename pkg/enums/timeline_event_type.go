package enums

// TimelineEventType names an entry in an order's human-readable history.
// The recorder accepts any value; this list covers the events the engine
// itself writes.
type TimelineEventType string

const (
	TimelineOrderCreated           TimelineEventType = "order_created"
	TimelineOrderPaid              TimelineEventType = "order_paid"
	TimelineOrderCancelled         TimelineEventType = "order_cancelled"
	TimelineDeliveryProposed       TimelineEventType = "delivery_window_proposed"
	TimelineDeliveryAgreed         TimelineEventType = "delivery_window_agreed"
	TimelineOutForDelivery         TimelineEventType = "out_for_delivery"
	TimelineDelivered              TimelineEventType = "delivered"
	TimelinePickupReady            TimelineEventType = "pickup_ready"
	TimelinePickupProposed         TimelineEventType = "pickup_window_proposed"
	TimelinePickupScheduled        TimelineEventType = "pickup_scheduled"
	TimelinePickedUp               TimelineEventType = "picked_up"
	TimelineBuyerConfirmed         TimelineEventType = "buyer_confirmed"
	TimelineDisputeOpened          TimelineEventType = "dispute_opened"
	TimelineDisputeEvidence        TimelineEventType = "dispute_evidence_submitted"
	TimelineDisputeResolved        TimelineEventType = "dispute_resolved"
	TimelineDisputeCancelled       TimelineEventType = "dispute_cancelled"
	TimelinePayoutReleased         TimelineEventType = "payout_released"
	TimelineRefundIssued           TimelineEventType = "refund_issued"
	TimelineAdminHoldSet           TimelineEventType = "admin_hold_set"
	TimelineAdminHoldCleared       TimelineEventType = "admin_hold_cleared"
	TimelinePayoutApprovalSet      TimelineEventType = "admin_payout_approval_set"
	TimelinePayoutApprovalCleared  TimelineEventType = "admin_payout_approval_cleared"
	TimelinePaymentForceConfirmed  TimelineEventType = "payment_force_confirmed"
	TimelineChargebackReported     TimelineEventType = "chargeback_reported"
	TimelineProtectionWindowClosed TimelineEventType = "protection_window_closed"
)

// String implements fmt.Stringer.
func (t TimelineEventType) String() string {
	return string(t)
}
