package enums

import "fmt"

// TransactionStatus is the canonical fine-grained order state. Every read
// path goes through the reconciler, which returns one of these even for
// legacy rows that only carry an OrderStatus.
type TransactionStatus string

const (
	TxStatusFulfillmentRequired          TransactionStatus = "FULFILLMENT_REQUIRED"
	TxStatusDeliveryProposed             TransactionStatus = "DELIVERY_PROPOSED"
	TxStatusDeliveryScheduled            TransactionStatus = "DELIVERY_SCHEDULED"
	TxStatusOutForDelivery               TransactionStatus = "OUT_FOR_DELIVERY"
	TxStatusReadyForPickup               TransactionStatus = "READY_FOR_PICKUP"
	TxStatusPickupProposed               TransactionStatus = "PICKUP_PROPOSED"
	TxStatusPickupScheduled              TransactionStatus = "PICKUP_SCHEDULED"
	TxStatusPickedUp                     TransactionStatus = "PICKED_UP"
	TxStatusDeliveredPendingConfirmation TransactionStatus = "DELIVERED_PENDING_CONFIRMATION"
	TxStatusSellerNoncompliant           TransactionStatus = "SELLER_NONCOMPLIANT"
	TxStatusDisputeOpened                TransactionStatus = "DISPUTE_OPENED"
	TxStatusAwaitingTransferCompliance   TransactionStatus = "AWAITING_TRANSFER_COMPLIANCE"
	TxStatusCompleted                    TransactionStatus = "COMPLETED"

	// legacyTxStatusReadyToRelease was written by an earlier schema version.
	// The reconciler collapses it; it is never written anymore.
	legacyTxStatusReadyToRelease TransactionStatus = "READY_TO_RELEASE"
)

var validTransactionStatuses = []TransactionStatus{
	TxStatusFulfillmentRequired,
	TxStatusDeliveryProposed,
	TxStatusDeliveryScheduled,
	TxStatusOutForDelivery,
	TxStatusReadyForPickup,
	TxStatusPickupProposed,
	TxStatusPickupScheduled,
	TxStatusPickedUp,
	TxStatusDeliveredPendingConfirmation,
	TxStatusSellerNoncompliant,
	TxStatusDisputeOpened,
	TxStatusAwaitingTransferCompliance,
	TxStatusCompleted,
}

// String implements fmt.Stringer.
func (t TransactionStatus) String() string {
	return string(t)
}

// IsValid reports whether the value is a known canonical TransactionStatus.
func (t TransactionStatus) IsValid() bool {
	for _, candidate := range validTransactionStatuses {
		if candidate == t {
			return true
		}
	}
	return false
}

// Canonical collapses superseded historical values onto the current
// vocabulary and returns the input unchanged otherwise.
func (t TransactionStatus) Canonical() TransactionStatus {
	if t == legacyTxStatusReadyToRelease {
		return TxStatusDeliveredPendingConfirmation
	}
	return t
}

// FulfillmentConfirmed reports whether the status sits at or past the point
// where goods changed hands.
func (t TransactionStatus) FulfillmentConfirmed() bool {
	switch t.Canonical() {
	case TxStatusPickedUp, TxStatusDeliveredPendingConfirmation, TxStatusDisputeOpened,
		TxStatusAwaitingTransferCompliance, TxStatusCompleted:
		return true
	default:
		return false
	}
}

// ParseTransactionStatus converts raw input into a TransactionStatus,
// accepting historical aliases.
func ParseTransactionStatus(value string) (TransactionStatus, error) {
	if TransactionStatus(value) == legacyTxStatusReadyToRelease {
		return legacyTxStatusReadyToRelease.Canonical(), nil
	}
	for _, candidate := range validTransactionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction status %q", value)
}
