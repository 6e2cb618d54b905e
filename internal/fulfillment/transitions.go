package fulfillment

import (
	"github.com/stockyardhq/stockyard-backend/pkg/enums"
	pkgerrors "github.com/stockyardhq/stockyard-backend/pkg/errors"
)

// deliveryTransitions is the seller-transport machine. Keys are the current
// canonical status, values the statuses reachable from it.
var deliveryTransitions = map[enums.TransactionStatus][]enums.TransactionStatus{
	enums.TxStatusFulfillmentRequired: {enums.TxStatusDeliveryProposed},
	enums.TxStatusDeliveryProposed:    {enums.TxStatusDeliveryProposed, enums.TxStatusDeliveryScheduled},
	enums.TxStatusDeliveryScheduled:   {enums.TxStatusOutForDelivery},
	enums.TxStatusOutForDelivery:      {enums.TxStatusDeliveredPendingConfirmation},
}

// pickupTransitions is the buyer-transport machine.
var pickupTransitions = map[enums.TransactionStatus][]enums.TransactionStatus{
	enums.TxStatusFulfillmentRequired: {enums.TxStatusReadyForPickup},
	enums.TxStatusReadyForPickup:      {enums.TxStatusReadyForPickup, enums.TxStatusPickupProposed},
	enums.TxStatusPickupProposed:      {enums.TxStatusPickupProposed, enums.TxStatusPickupScheduled},
	enums.TxStatusPickupScheduled:     {enums.TxStatusPickedUp},
}

func tableFor(transport enums.TransportOption) map[enums.TransactionStatus][]enums.TransactionStatus {
	if transport == enums.TransportBuyer {
		return pickupTransitions
	}
	return deliveryTransitions
}

// guardTransition rejects a move the current machine does not permit. The
// returned error carries the allowed target states so clients can
// self-correct.
func guardTransition(transport enums.TransportOption, from, to enums.TransactionStatus) error {
	allowed := tableFor(transport)[from]
	for _, candidate := range allowed {
		if candidate == to {
			return nil
		}
	}
	names := make([]string, 0, len(allowed))
	for _, candidate := range allowed {
		names = append(names, string(candidate))
	}
	return pkgerrors.InvalidTransition(string(from), names...)
}
