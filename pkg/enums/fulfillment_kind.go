package enums

import "fmt"

// FulfillmentKind decides when an order is handed to fulfillment providers.
type FulfillmentKind string

const (
	FulfillmentKindImmediate FulfillmentKind = "immediate"
	FulfillmentKindManual    FulfillmentKind = "manual"
)

var validFulfillmentKinds = []FulfillmentKind{
	FulfillmentKindImmediate,
	FulfillmentKindManual,
}

// String implements fmt.Stringer.
func (f FulfillmentKind) String() string {
	return string(f)
}

// IsValid reports whether the value is a known FulfillmentKind.
func (f FulfillmentKind) IsValid() bool {
	for _, candidate := range validFulfillmentKinds {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseFulfillmentKind converts raw input into a FulfillmentKind.
func ParseFulfillmentKind(value string) (FulfillmentKind, error) {
	for _, candidate := range validFulfillmentKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid fulfillment kind %q", value)
}
