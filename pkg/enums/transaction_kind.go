package enums

import "fmt"

// TransactionKind is the payment-ledger operation a transaction represents.
type TransactionKind string

const (
	TransactionKindAuthorize TransactionKind = "authorize"
	TransactionKindCapture   TransactionKind = "capture"
	TransactionKindSale      TransactionKind = "sale"
	TransactionKindVoid      TransactionKind = "void"
	TransactionKindRefund    TransactionKind = "refund"
	TransactionKindManual    TransactionKind = "manual"
)

var validTransactionKinds = []TransactionKind{
	TransactionKindAuthorize,
	TransactionKindCapture,
	TransactionKindSale,
	TransactionKindVoid,
	TransactionKindRefund,
	TransactionKindManual,
}

// String implements fmt.Stringer.
func (t TransactionKind) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TransactionKind.
func (t TransactionKind) IsValid() bool {
	for _, candidate := range validTransactionKinds {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTransactionKind converts raw input into a TransactionKind.
func ParseTransactionKind(value string) (TransactionKind, error) {
	for _, candidate := range validTransactionKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction kind %q", value)
}
