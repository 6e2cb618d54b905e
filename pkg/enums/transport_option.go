package enums

import "fmt"

// TransportOption selects which fulfillment sub-machine governs the order.
// Immutable once fulfillment has started.
type TransportOption string

const (
	TransportBuyer  TransportOption = "BUYER_TRANSPORT"
	TransportSeller TransportOption = "SELLER_TRANSPORT"
)

var validTransportOptions = []TransportOption{
	TransportBuyer,
	TransportSeller,
}

// String implements fmt.Stringer.
func (t TransportOption) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TransportOption.
func (t TransportOption) IsValid() bool {
	for _, candidate := range validTransportOptions {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTransportOption converts raw input into a TransportOption.
func ParseTransportOption(value string) (TransportOption, error) {
	for _, candidate := range validTransportOptions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transport option %q", value)
}
