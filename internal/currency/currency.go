// Package currency provides the fixed-denomination money types used across
// the exchange: a base amount (contract size) and a quote amount (price,
// margin and PnL). The two are distinct Go types so that a base amount can
// never be added to a quote amount by accident.
package currency

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// BaseAmount is an amount denominated in the contract's base currency.
type BaseAmount struct {
	d decimal.Decimal
}

// QuoteAmount is an amount denominated in the contract's quote currency:
// price, margin and realized PnL all live here.
type QuoteAmount struct {
	d decimal.Decimal
}

// ZeroBase is the additive identity for BaseAmount.
var ZeroBase = BaseAmount{d: decimal.Zero}

// ZeroQuote is the additive identity for QuoteAmount.
var ZeroQuote = QuoteAmount{d: decimal.Zero}

// NewBase builds a BaseAmount from an integer value and exponent, matching
// decimal.New's (value, exp) convention, e.g. NewBase(15, -1) == 1.5.
func NewBase(value int64, exp int32) BaseAmount {
	return BaseAmount{d: decimal.New(value, exp)}
}

// NewQuote builds a QuoteAmount from an integer value and exponent.
func NewQuote(value int64, exp int32) QuoteAmount {
	return QuoteAmount{d: decimal.New(value, exp)}
}

// BaseFromFloat builds a BaseAmount from a float64. Intended for config
// loading and test fixtures, not for hot-path arithmetic.
func BaseFromFloat(v float64) BaseAmount { return BaseAmount{d: decimal.NewFromFloat(v)} }

// QuoteFromFloat builds a QuoteAmount from a float64.
func QuoteFromFloat(v float64) QuoteAmount { return QuoteAmount{d: decimal.NewFromFloat(v)} }

func (b BaseAmount) Add(o BaseAmount) BaseAmount { return BaseAmount{d: b.d.Add(o.d)} }
func (b BaseAmount) Sub(o BaseAmount) BaseAmount { return BaseAmount{d: b.d.Sub(o.d)} }
func (b BaseAmount) Neg() BaseAmount             { return BaseAmount{d: b.d.Neg()} }
func (b BaseAmount) Abs() BaseAmount             { return BaseAmount{d: b.d.Abs()} }

func (b BaseAmount) GreaterThan(o BaseAmount) bool { return b.d.GreaterThan(o.d) }
func (b BaseAmount) LessThan(o BaseAmount) bool    { return b.d.LessThan(o.d) }
func (b BaseAmount) Equal(o BaseAmount) bool       { return b.d.Equal(o.d) }
func (b BaseAmount) IsZero() bool                  { return b.d.IsZero() }
func (b BaseAmount) IsPositive() bool              { return b.d.IsPositive() }
func (b BaseAmount) IsNegative() bool              { return b.d.IsNegative() }
func (b BaseAmount) String() string                { return b.d.String() + " Base" }
func (b BaseAmount) Decimal() decimal.Decimal      { return b.d }

// MinBase returns the smaller of two base amounts, mirroring the `min` helper
// the original simulator leans on when a trade sweeps a resting order.
func MinBase(a, b BaseAmount) BaseAmount {
	if a.GreaterThan(b) {
		return b
	}
	return a
}

func (q QuoteAmount) Add(o QuoteAmount) QuoteAmount { return QuoteAmount{d: q.d.Add(o.d)} }
func (q QuoteAmount) Sub(o QuoteAmount) QuoteAmount { return QuoteAmount{d: q.d.Sub(o.d)} }
func (q QuoteAmount) Neg() QuoteAmount              { return QuoteAmount{d: q.d.Neg()} }
func (q QuoteAmount) Abs() QuoteAmount              { return QuoteAmount{d: q.d.Abs()} }

// Mul scales a quote amount by a dimensionless factor (a fee rate or a
// margin requirement ratio).
func (q QuoteAmount) Mul(factor decimal.Decimal) QuoteAmount { return QuoteAmount{d: q.d.Mul(factor)} }

func (q QuoteAmount) GreaterThan(o QuoteAmount) bool { return q.d.GreaterThan(o.d) }
func (q QuoteAmount) LessThan(o QuoteAmount) bool    { return q.d.LessThan(o.d) }
func (q QuoteAmount) Equal(o QuoteAmount) bool       { return q.d.Equal(o.d) }
func (q QuoteAmount) IsZero() bool                   { return q.d.IsZero() }
func (q QuoteAmount) IsPositive() bool               { return q.d.IsPositive() }
func (q QuoteAmount) IsNegative() bool               { return q.d.IsNegative() }
func (q QuoteAmount) String() string                 { return fmt.Sprintf("%s Quote", q.d.String()) }
func (q QuoteAmount) Decimal() decimal.Decimal       { return q.d }

// MaxQuote returns the larger of two quote amounts. Used by the order
// margin calculation: only the dominant (buy or sell) side of the book
// consumes margin, since only one side can fill first.
func MaxQuote(a, b QuoteAmount) QuoteAmount {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// AvgQuote returns the simple average of two quote amounts, used to derive
// a mid price from a best bid and best ask.
func AvgQuote(a, b QuoteAmount) QuoteAmount {
	return QuoteAmount{d: a.d.Add(b.d).Div(decimal.NewFromInt(2))}
}

// ConvertToQuote converts a base-denominated quantity to quote currency at
// the given price: notional = qty * price. This is the one place base and
// quote currency meet, matching linear (quote-margined) futures.
func ConvertToQuote(qty BaseAmount, price QuoteAmount) QuoteAmount {
	return QuoteAmount{d: qty.d.Mul(price.d)}
}

// PricePerUnit divides a quote notional by a base quantity, returning the
// implied price. Used to recompute a quantity-weighted average entry price
// after adding to a position.
func PricePerUnit(notional QuoteAmount, qty BaseAmount) QuoteAmount {
	if qty.IsZero() {
		return ZeroQuote
	}
	return QuoteAmount{d: notional.d.Div(qty.d)}
}
