package filters_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"isolex/internal/common"
	"isolex/internal/currency"
	"isolex/internal/filters"
)

func priceFilter() filters.PriceFilter {
	return filters.PriceFilter{
		MinPrice:       currency.QuoteFromFloat(1),
		MaxPrice:       currency.QuoteFromFloat(1000),
		TickSize:       currency.QuoteFromFloat(0.5),
		MultiplierUp:   decimal.NewFromFloat(1.1),
		MultiplierDown: decimal.NewFromFloat(0.9),
	}
}

func TestValidatePriceBounds(t *testing.T) {
	f := priceFilter()
	assert.ErrorIs(t, f.ValidatePrice(currency.QuoteFromFloat(0.5)), common.ErrPriceTooLow)
	assert.ErrorIs(t, f.ValidatePrice(currency.QuoteFromFloat(2000)), common.ErrPriceTooHigh)
	assert.NoError(t, f.ValidatePrice(currency.QuoteFromFloat(100)))
}

func TestValidatePriceTickSize(t *testing.T) {
	f := priceFilter()
	assert.ErrorIs(t, f.ValidatePrice(currency.QuoteFromFloat(100.25)), common.ErrPriceNotMultipleOfTick)
	assert.NoError(t, f.ValidatePrice(currency.QuoteFromFloat(100.5)))
}

func TestValidateLimitPriceBand(t *testing.T) {
	f := priceFilter()
	mid := currency.QuoteFromFloat(100)
	assert.NoError(t, f.ValidateLimitPrice(currency.QuoteFromFloat(105), mid, true))
	assert.ErrorIs(t, f.ValidateLimitPrice(currency.QuoteFromFloat(115), mid, true), common.ErrPriceOutOfBand)
	assert.ErrorIs(t, f.ValidateLimitPrice(currency.QuoteFromFloat(85), mid, true), common.ErrPriceOutOfBand)
}

func TestValidateLimitPriceNoMid(t *testing.T) {
	f := priceFilter()
	assert.NoError(t, f.ValidateLimitPrice(currency.QuoteFromFloat(999), currency.ZeroQuote, false))
}

func TestValidateQuantity(t *testing.T) {
	f := filters.QuantityFilter{
		MinQty:   currency.BaseFromFloat(1),
		MaxQty:   currency.BaseFromFloat(100),
		StepSize: currency.BaseFromFloat(0.1),
	}
	assert.ErrorIs(t, f.ValidateQuantity(currency.BaseFromFloat(0.5)), common.ErrQtyTooLow)
	assert.ErrorIs(t, f.ValidateQuantity(currency.BaseFromFloat(200)), common.ErrQtyTooHigh)
	assert.ErrorIs(t, f.ValidateQuantity(currency.BaseFromFloat(1.23)), common.ErrQtyNotMultipleOfStep)
	assert.NoError(t, f.ValidateQuantity(currency.BaseFromFloat(1.5)))
}

func TestValidateQuantityNoStepSize(t *testing.T) {
	f := filters.QuantityFilter{
		MinQty:   currency.BaseFromFloat(1),
		MaxQty:   currency.BaseFromFloat(100),
		StepSize: currency.ZeroBase,
	}
	assert.NoError(t, f.ValidateQuantity(currency.BaseFromFloat(1.23456)))
}
