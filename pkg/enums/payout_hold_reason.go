package enums

import "fmt"

// PayoutHoldReason explains why custody funds are not currently releasable.
type PayoutHoldReason string

const (
	HoldReasonNone             PayoutHoldReason = "none"
	HoldReasonProtectionWindow PayoutHoldReason = "protection_window"
	HoldReasonDisputeOpen      PayoutHoldReason = "dispute_open"
	HoldReasonAdminHold        PayoutHoldReason = "admin_hold"
	HoldReasonFirstSaleReview  PayoutHoldReason = "review_required_first_sale"
	HoldReasonHighValueReview  PayoutHoldReason = "review_required_high_value"
	HoldReasonComplianceReview PayoutHoldReason = "compliance_review"
)

var validPayoutHoldReasons = []PayoutHoldReason{
	HoldReasonNone,
	HoldReasonProtectionWindow,
	HoldReasonDisputeOpen,
	HoldReasonAdminHold,
	HoldReasonFirstSaleReview,
	HoldReasonHighValueReview,
	HoldReasonComplianceReview,
}

// MarketplaceClearableHoldReasons is the closed set of hold reasons that a
// marketplace payout approval clears when one of them is the sole reason.
// Regulatory compliance_review is deliberately excluded.
var MarketplaceClearableHoldReasons = []PayoutHoldReason{
	HoldReasonFirstSaleReview,
	HoldReasonHighValueReview,
}

// String implements fmt.Stringer.
func (p PayoutHoldReason) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PayoutHoldReason.
func (p PayoutHoldReason) IsValid() bool {
	for _, candidate := range validPayoutHoldReasons {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsMarketplaceClearable reports whether a payout approval may clear this reason.
func (p PayoutHoldReason) IsMarketplaceClearable() bool {
	for _, candidate := range MarketplaceClearableHoldReasons {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePayoutHoldReason converts raw input into a PayoutHoldReason.
func ParsePayoutHoldReason(value string) (PayoutHoldReason, error) {
	for _, candidate := range validPayoutHoldReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payout hold reason %q", value)
}
