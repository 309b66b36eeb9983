package enums

import "fmt"

// ReturnType distinguishes refunds from exchanges.
type ReturnType string

const (
	ReturnTypeRefund   ReturnType = "Refund"
	ReturnTypeExchange ReturnType = "Exchange"
)

// String implements fmt.Stringer.
func (r ReturnType) String() string {
	return string(r)
}

// IsValid reports whether the value is a known ReturnType.
func (r ReturnType) IsValid() bool {
	return r == ReturnTypeRefund || r == ReturnTypeExchange
}

// ParseReturnType converts raw input into a ReturnType.
func ParseReturnType(value string) (ReturnType, error) {
	switch ReturnType(value) {
	case ReturnTypeRefund, ReturnTypeExchange:
		return ReturnType(value), nil
	}
	return "", fmt.Errorf("invalid return type %q", value)
}
