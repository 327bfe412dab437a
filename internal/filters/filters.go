// Package filters validates prices and quantities against exchange-defined
// tick/step sizes and bounds, the way a real venue's instrument filters do.
package filters

import (
	"github.com/shopspring/decimal"

	"isolex/internal/common"
	"isolex/internal/currency"
)

// PriceFilter bounds a price to [MinPrice, MaxPrice], requires it to be a
// multiple of TickSize, and (for limit orders) bounds its deviation from
// the current mid price to a multiplier band.
type PriceFilter struct {
	MinPrice       currency.QuoteAmount
	MaxPrice       currency.QuoteAmount
	TickSize       currency.QuoteAmount
	MultiplierUp   decimal.Decimal
	MultiplierDown decimal.Decimal
}

// ValidatePrice checks bounds and tick size only; used for market update
// prices (trades, bba quotes) which have no mid-price band to respect.
func (f PriceFilter) ValidatePrice(price currency.QuoteAmount) error {
	if price.LessThan(f.MinPrice) {
		return common.ErrPriceTooLow
	}
	if price.GreaterThan(f.MaxPrice) {
		return common.ErrPriceTooHigh
	}
	if !isMultipleOf(price.Decimal(), f.TickSize.Decimal()) {
		return common.ErrPriceNotMultipleOfTick
	}
	return nil
}

// ValidateLimitPrice additionally enforces the multiplier band around the
// mid price, when a mid price is available.
func (f PriceFilter) ValidateLimitPrice(price currency.QuoteAmount, mid currency.QuoteAmount, hasMid bool) error {
	if err := f.ValidatePrice(price); err != nil {
		return err
	}
	if !hasMid {
		return nil
	}
	upperBand := mid.Mul(f.MultiplierUp)
	lowerBand := mid.Mul(f.MultiplierDown)
	if price.GreaterThan(upperBand) || price.LessThan(lowerBand) {
		return common.ErrPriceOutOfBand
	}
	return nil
}

// QuantityFilter bounds a quantity to [MinQty, MaxQty] and requires it to
// be a multiple of StepSize.
type QuantityFilter struct {
	MinQty   currency.BaseAmount
	MaxQty   currency.BaseAmount
	StepSize currency.BaseAmount
}

func (f QuantityFilter) ValidateQuantity(qty currency.BaseAmount) error {
	if qty.LessThan(f.MinQty) {
		return common.ErrQtyTooLow
	}
	if qty.GreaterThan(f.MaxQty) {
		return common.ErrQtyTooHigh
	}
	if !isMultipleOf(qty.Decimal(), f.StepSize.Decimal()) {
		return common.ErrQtyNotMultipleOfStep
	}
	return nil
}

// isMultipleOf reports whether v is an integer multiple of step. A
// zero-or-negative step disables the check (treated as "any value
// permitted"), matching filters configured without a granularity.
func isMultipleOf(v, step decimal.Decimal) bool {
	if !step.IsPositive() {
		return true
	}
	return v.Mod(step).IsZero()
}
