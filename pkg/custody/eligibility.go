package custody

import (
	"fmt"
	"time"

	"github.com/stockyardhq/stockyard-backend/pkg/db/models"
	"github.com/stockyardhq/stockyard-backend/pkg/enums"
)

// BlockReason is a machine-checkable explanation for why release is blocked.
type BlockReason string

const (
	BlockNone             BlockReason = ""
	BlockAlreadyReleased  BlockReason = "already_released"
	BlockAdminHold        BlockReason = "admin_hold"
	BlockDisputeOpen      BlockReason = "dispute_open"
	BlockChargeback       BlockReason = "chargeback_active"
	BlockProtectionWindow BlockReason = "protection_window_open"
	BlockNotDelivered     BlockReason = "delivery_not_confirmed"
	BlockNotConfirmed     BlockReason = "buyer_not_confirmed"
	BlockWrongStatus      BlockReason = "status_not_releasable"
	BlockReviewRequired   BlockReason = "review_required"
	BlockTerminalState    BlockReason = "order_terminal"
)

// Decision is the result of evaluating release eligibility for one order.
type Decision struct {
	Eligible          bool
	Reason            BlockReason
	Explanation       string
	EarliestReleaseAt *time.Time
}

// Evaluate decides whether custody funds may be released to the seller.
// Pure and deterministic for a given snapshot and clock. Single-order release,
// bulk release and the scheduled sweep all call this one predicate.
func Evaluate(o *models.Order, now time.Time) Decision {
	if o == nil {
		return blocked(BlockWrongStatus, "no order snapshot")
	}

	// A transfer id is authoritative proof funds already moved.
	if o.TransferID != nil && *o.TransferID != "" {
		return blocked(BlockAlreadyReleased, "funds were already transferred to the seller")
	}
	if o.Status == enums.OrderStatusCompleted {
		return blocked(BlockAlreadyReleased, "order is already completed")
	}
	if o.Status == enums.OrderStatusRefunded || o.Status == enums.OrderStatusCancelled {
		return blocked(BlockTerminalState, fmt.Sprintf("order is %s; money-moving fields are frozen", o.Status))
	}

	if o.AdminHold {
		return blocked(BlockAdminHold, "an admin hold is active on this order")
	}

	if o.DisputeStatus.IsOpenLike() {
		return blocked(BlockDisputeOpen, fmt.Sprintf("dispute is %s; resolve it before releasing", o.DisputeStatus))
	}

	if o.ChargebackActive {
		return blocked(BlockChargeback, "a chargeback is active on the captured payment")
	}

	if o.PayoutHoldReason == enums.HoldReasonProtectionWindow {
		if o.ProtectionEndsAt == nil {
			return blocked(BlockProtectionWindow, "protection window hold is set but has no end time; needs re-evaluation")
		}
		if now.Before(*o.ProtectionEndsAt) {
			d := blocked(BlockProtectionWindow, fmt.Sprintf("protection window open until %s", o.ProtectionEndsAt.Format(time.RFC3339)))
			d.EarliestReleaseAt = o.ProtectionEndsAt
			return d
		}
	}

	if o.PayoutHoldReason.IsMarketplaceClearable() || o.PayoutHoldReason == enums.HoldReasonComplianceReview {
		return blocked(BlockReviewRequired, fmt.Sprintf("payout held for %s", o.PayoutHoldReason))
	}

	if !o.DeliveryMarked() {
		return blocked(BlockNotDelivered, "delivery or pickup has not been confirmed")
	}

	if !o.BuyerConfirmed() {
		return blocked(BlockNotConfirmed, "buyer has not confirmed receipt")
	}

	effective := EffectiveStatus(o)
	if !releasableStatus(effective, o.TransportOption) {
		return blocked(BlockWrongStatus, fmt.Sprintf("status %s is not releasable", effective))
	}

	return Decision{Eligible: true}
}

func releasableStatus(status enums.TransactionStatus, transport enums.TransportOption) bool {
	switch status {
	case enums.TxStatusDeliveredPendingConfirmation, enums.TxStatusAwaitingTransferCompliance:
		return true
	case enums.TxStatusPickedUp:
		return transport == enums.TransportBuyer
	default:
		return false
	}
}

func blocked(reason BlockReason, explanation string) Decision {
	return Decision{Eligible: false, Reason: reason, Explanation: explanation}
}
