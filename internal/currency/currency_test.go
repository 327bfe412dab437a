package currency_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"isolex/internal/currency"
)

func TestConvertToQuote(t *testing.T) {
	qty := currency.BaseFromFloat(2.5)
	price := currency.QuoteFromFloat(100)
	notional := currency.ConvertToQuote(qty, price)
	assert.True(t, notional.Equal(currency.QuoteFromFloat(250)))
}

func TestPricePerUnitZeroQuantity(t *testing.T) {
	got := currency.PricePerUnit(currency.QuoteFromFloat(100), currency.ZeroBase)
	assert.True(t, got.Equal(currency.ZeroQuote))
}

func TestPricePerUnit(t *testing.T) {
	notional := currency.QuoteFromFloat(300)
	qty := currency.BaseFromFloat(3)
	got := currency.PricePerUnit(notional, qty)
	assert.True(t, got.Equal(currency.QuoteFromFloat(100)))
}

func TestAvgQuote(t *testing.T) {
	got := currency.AvgQuote(currency.QuoteFromFloat(10), currency.QuoteFromFloat(20))
	assert.True(t, got.Equal(currency.QuoteFromFloat(15)))
}

func TestMinMaxHelpers(t *testing.T) {
	a := currency.BaseFromFloat(1)
	b := currency.BaseFromFloat(2)
	assert.True(t, currency.MinBase(a, b).Equal(a))

	qa := currency.QuoteFromFloat(1)
	qb := currency.QuoteFromFloat(2)
	assert.True(t, currency.MaxQuote(qa, qb).Equal(qb))
}

func TestQuoteMul(t *testing.T) {
	got := currency.QuoteFromFloat(200).Mul(decimal.NewFromFloat(0.1))
	assert.True(t, got.Equal(currency.QuoteFromFloat(20)))
}

func TestSignHelpers(t *testing.T) {
	assert.True(t, currency.ZeroQuote.IsZero())
	assert.True(t, currency.QuoteFromFloat(-1).IsNegative())
	assert.True(t, currency.QuoteFromFloat(1).IsPositive())
}
