package enums

import "fmt"

// FulfillmentStatus is shared by fulfillment records and the derived
// fulfillment state of an order.
type FulfillmentStatus string

const (
	FulfillmentStatusNone      FulfillmentStatus = "none"
	FulfillmentStatusPartial   FulfillmentStatus = "partial"
	FulfillmentStatusSent      FulfillmentStatus = "sent"
	FulfillmentStatusFulfilled FulfillmentStatus = "fulfilled"
	FulfillmentStatusCancelled FulfillmentStatus = "cancelled"
)

var validFulfillmentStatuses = []FulfillmentStatus{
	FulfillmentStatusNone,
	FulfillmentStatusPartial,
	FulfillmentStatusSent,
	FulfillmentStatusFulfilled,
	FulfillmentStatusCancelled,
}

// String implements fmt.Stringer.
func (f FulfillmentStatus) String() string {
	return string(f)
}

// IsValid reports whether the value is a known FulfillmentStatus.
func (f FulfillmentStatus) IsValid() bool {
	for _, candidate := range validFulfillmentStatuses {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseFulfillmentStatus converts raw input into a FulfillmentStatus.
func ParseFulfillmentStatus(value string) (FulfillmentStatus, error) {
	for _, candidate := range validFulfillmentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid fulfillment status %q", value)
}
