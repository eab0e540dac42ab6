package enums

import "fmt"

// ProcessingMethod states how a payment was processed.
type ProcessingMethod string

const (
	ProcessingMethodCheckout     ProcessingMethod = "checkout"
	ProcessingMethodSubscription ProcessingMethod = "subscription"
	ProcessingMethodDirect       ProcessingMethod = "direct"
	ProcessingMethodManual       ProcessingMethod = "manual"
	ProcessingMethodOffsite      ProcessingMethod = "offsite"
	ProcessingMethodExpress      ProcessingMethod = "express"
)

var validProcessingMethods = []ProcessingMethod{
	ProcessingMethodCheckout,
	ProcessingMethodSubscription,
	ProcessingMethodDirect,
	ProcessingMethodManual,
	ProcessingMethodOffsite,
	ProcessingMethodExpress,
}

// String implements fmt.Stringer.
func (p ProcessingMethod) String() string {
	return string(p)
}

// IsValid reports whether the value is a known ProcessingMethod.
func (p ProcessingMethod) IsValid() bool {
	for _, candidate := range validProcessingMethods {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseProcessingMethod converts raw input into a ProcessingMethod.
func ParseProcessingMethod(value string) (ProcessingMethod, error) {
	for _, candidate := range validProcessingMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid processing method %q", value)
}
