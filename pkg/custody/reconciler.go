package custody

import (
	"github.com/stockyardhq/stockyard-backend/pkg/db/models"
	"github.com/stockyardhq/stockyard-backend/pkg/enums"
)

// EffectiveStatus computes the single reconciled transaction status for an
// order snapshot. Pure function. When the canonical field is present it wins
// (after collapsing superseded aliases); otherwise a best-effort value is
// derived from the coarse legacy status plus milestone presence. Ambiguity is
// resolved by delivery/pickup presence fields, never by timestamp ordering.
func EffectiveStatus(o *models.Order) enums.TransactionStatus {
	if o == nil {
		return enums.TxStatusFulfillmentRequired
	}

	if o.TransactionStatus != nil && o.TransactionStatus.Canonical().IsValid() {
		return o.TransactionStatus.Canonical()
	}

	return deriveFromLegacy(o)
}

func deriveFromLegacy(o *models.Order) enums.TransactionStatus {
	switch o.Status {
	case enums.OrderStatusCompleted:
		return enums.TxStatusCompleted
	case enums.OrderStatusDisputed:
		return enums.TxStatusDisputeOpened
	case enums.OrderStatusRefunded, enums.OrderStatusCancelled:
		// Terminal money-back states have no fulfillment position left to
		// report; COMPLETED marks the record closed.
		return enums.TxStatusCompleted
	case enums.OrderStatusAccepted, enums.OrderStatusBuyerConfirmed, enums.OrderStatusReadyToRelease:
		return enums.TxStatusDeliveredPendingConfirmation
	case enums.OrderStatusDelivered:
		return enums.TxStatusDeliveredPendingConfirmation
	case enums.OrderStatusInTransit:
		if o.TransportOption == enums.TransportBuyer {
			return pickupPosition(o)
		}
		return enums.TxStatusOutForDelivery
	case enums.OrderStatusPaid, enums.OrderStatusPaidHeld:
		if o.DeliveryMarked() {
			return enums.TxStatusDeliveredPendingConfirmation
		}
		if o.TransportOption == enums.TransportBuyer {
			return pickupPosition(o)
		}
		return deliveryPosition(o)
	default:
		return enums.TxStatusFulfillmentRequired
	}
}

func pickupPosition(o *models.Order) enums.TransactionStatus {
	p := o.Pickup
	if p == nil {
		return enums.TxStatusFulfillmentRequired
	}
	switch {
	case p.PickedUpAt != nil:
		return enums.TxStatusPickedUp
	case p.ScheduledWindow != nil:
		return enums.TxStatusPickupScheduled
	case p.SelectedWindow != nil:
		return enums.TxStatusPickupProposed
	case p.ReadyAt != nil || p.Location != nil:
		return enums.TxStatusReadyForPickup
	default:
		return enums.TxStatusFulfillmentRequired
	}
}

func deliveryPosition(o *models.Order) enums.TransactionStatus {
	d := o.Delivery
	if d == nil {
		return enums.TxStatusFulfillmentRequired
	}
	switch {
	case d.DeliveredAt != nil:
		return enums.TxStatusDeliveredPendingConfirmation
	case d.OutForDeliveryAt != nil:
		return enums.TxStatusOutForDelivery
	case d.AgreedWindow != nil:
		return enums.TxStatusDeliveryScheduled
	case len(d.Windows) > 0 || d.ETA != nil:
		return enums.TxStatusDeliveryProposed
	default:
		return enums.TxStatusFulfillmentRequired
	}
}
