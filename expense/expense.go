// Package expense validates trip expense claims. Amounts use
// decimal.Decimal so currency values never pass through floating point.
package expense

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// KIND - Expense categories
// =============================================================================

// Kind categorizes an expense claim.
type Kind string

const (
	KindFuel    Kind = "FUEL"
	KindToll    Kind = "TOLL"
	KindRepair  Kind = "REPAIR"
	KindParking Kind = "PARKING"
	KindOther   Kind = "OTHER"
)

// ParseKind converts a raw string to a Kind, returning an error for unknown
// values.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	switch k {
	case KindFuel, KindToll, KindRepair, KindParking, KindOther:
		return k, nil
	}
	return "", fmt.Errorf("unknown expense kind %q", s)
}

// =============================================================================
// CLAIM - Expense claim candidate
// =============================================================================

// Claim is a trip expense being validated before submission.
type Claim struct {
	TripID string
	Kind   Kind
	Amount decimal.Decimal
	Note   string // optional
}

// ErrUnknownKind: the expense kind is not in the closed set.
type ErrUnknownKind struct {
	Kind Kind
}

func (e *ErrUnknownKind) Error() string {
	return fmt.Sprintf("unknown expense kind %q", string(e.Kind))
}

// ErrNonPositiveAmount: the amount must be strictly positive.
type ErrNonPositiveAmount struct {
	Amount decimal.Decimal
}

func (e *ErrNonPositiveAmount) Error() string {
	return fmt.Sprintf("expense amount must be positive, got %s", e.Amount)
}

// Validate checks a claim and returns the first violation: kind, then
// amount.
func Validate(c Claim) error {
	if _, err := ParseKind(string(c.Kind)); err != nil {
		return &ErrUnknownKind{Kind: c.Kind}
	}
	if !c.Amount.IsPositive() {
		return &ErrNonPositiveAmount{Amount: c.Amount}
	}
	return nil
}
