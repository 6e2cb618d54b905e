package custody

import (
	"time"

	"github.com/stockyardhq/stockyard-backend/pkg/db/models"
	"github.com/stockyardhq/stockyard-backend/pkg/enums"
)

// RecomputeHoldReason derives the payout hold reason from the order's
// current flags. Callers that toggle admin holds or dispute state run this
// after mutating the snapshot so the stored reason never goes stale.
//
// Review reasons are sticky: they are recorded only in the reason column
// itself, so recomputation preserves them until they are cleared explicitly
// (payout approval for marketplace reviews, out-of-band for compliance).
func RecomputeHoldReason(o *models.Order, now time.Time) enums.PayoutHoldReason {
	if o == nil {
		return enums.HoldReasonNone
	}
	if o.TransferID != nil && *o.TransferID != "" {
		return enums.HoldReasonNone
	}
	if o.PayoutHoldReason.IsMarketplaceClearable() || o.PayoutHoldReason == enums.HoldReasonComplianceReview {
		return o.PayoutHoldReason
	}
	if o.AdminHold {
		return enums.HoldReasonAdminHold
	}
	if o.DisputeStatus.IsOpenLike() {
		return enums.HoldReasonDisputeOpen
	}
	if o.ProtectionEndsAt != nil && now.Before(*o.ProtectionEndsAt) {
		return enums.HoldReasonProtectionWindow
	}
	return enums.HoldReasonNone
}
