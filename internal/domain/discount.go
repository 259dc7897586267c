package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

type DiscountKind string

const (
	DiscountPercent DiscountKind = "percent"
	DiscountFixed   DiscountKind = "fixed"
)

// DiscountCode reduces a paid event's fee by percentage or fixed amount.
// Codes are scoped to one event and carry a limited number of uses.
type DiscountCode struct {
	ID       int64
	EventID  int64
	Code     string
	Kind     DiscountKind
	Value    decimal.Decimal
	UsesLeft int
	IsActive bool
}

// NormalizeCode is the canonical form codes are stored and matched in.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

var oneHundred = decimal.NewFromInt(100)

// Apply returns the fee after this discount, floored at zero.
func (d DiscountCode) Apply(fee decimal.Decimal) decimal.Decimal {
	var result decimal.Decimal
	switch d.Kind {
	case DiscountPercent:
		result = fee.Mul(oneHundred.Sub(d.Value)).Div(oneHundred)
	case DiscountFixed:
		result = fee.Sub(d.Value)
	default:
		return fee
	}
	if result.IsNegative() {
		return decimal.Zero
	}
	return result
}
