package enums

import "fmt"

// DisputeStatus tracks the inspection-window dispute lifecycle on an order.
type DisputeStatus string

const (
	DisputeStatusNone                  DisputeStatus = "none"
	DisputeStatusOpen                  DisputeStatus = "open"
	DisputeStatusNeedsEvidence         DisputeStatus = "needs_evidence"
	DisputeStatusUnderReview           DisputeStatus = "under_review"
	DisputeStatusResolvedRelease       DisputeStatus = "resolved_release"
	DisputeStatusResolvedRefund        DisputeStatus = "resolved_refund"
	DisputeStatusResolvedPartialRefund DisputeStatus = "resolved_partial_refund"
	DisputeStatusCancelled             DisputeStatus = "cancelled"
)

var validDisputeStatuses = []DisputeStatus{
	DisputeStatusNone,
	DisputeStatusOpen,
	DisputeStatusNeedsEvidence,
	DisputeStatusUnderReview,
	DisputeStatusResolvedRelease,
	DisputeStatusResolvedRefund,
	DisputeStatusResolvedPartialRefund,
	DisputeStatusCancelled,
}

// String implements fmt.Stringer.
func (d DisputeStatus) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DisputeStatus.
func (d DisputeStatus) IsValid() bool {
	for _, candidate := range validDisputeStatuses {
		if candidate == d {
			return true
		}
	}
	return false
}

// IsOpenLike reports whether the dispute currently suppresses release.
func (d DisputeStatus) IsOpenLike() bool {
	switch d {
	case DisputeStatusOpen, DisputeStatusNeedsEvidence, DisputeStatusUnderReview:
		return true
	default:
		return false
	}
}

// IsResolved reports whether the dispute reached a terminal resolution.
func (d DisputeStatus) IsResolved() bool {
	switch d {
	case DisputeStatusResolvedRelease, DisputeStatusResolvedRefund, DisputeStatusResolvedPartialRefund:
		return true
	default:
		return false
	}
}

// ParseDisputeStatus converts raw input into a DisputeStatus.
func ParseDisputeStatus(value string) (DisputeStatus, error) {
	for _, candidate := range validDisputeStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid dispute status %q", value)
}
