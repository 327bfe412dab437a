package balances_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"isolex/internal/balances"
	"isolex/internal/currency"
)

func TestReserveAndFreeOrderMargin(t *testing.T) {
	b := balances.New(currency.QuoteFromFloat(1000))

	ok := b.TryReserveOrderMargin(currency.QuoteFromFloat(200))
	assert.True(t, ok)
	assert.True(t, b.Available().Equal(currency.QuoteFromFloat(800)))
	assert.True(t, b.OrderMargin().Equal(currency.QuoteFromFloat(200)))

	b.FreeOrderMargin(currency.QuoteFromFloat(200))
	assert.True(t, b.Available().Equal(currency.QuoteFromFloat(1000)))
	assert.True(t, b.OrderMargin().IsZero())
}

func TestReserveFailsWhenInsufficient(t *testing.T) {
	b := balances.New(currency.QuoteFromFloat(100))
	ok := b.TryReservePositionMargin(currency.QuoteFromFloat(200))
	assert.False(t, ok)
	assert.True(t, b.Available().Equal(currency.QuoteFromFloat(100)))
}

func TestAccountForFee(t *testing.T) {
	b := balances.New(currency.QuoteFromFloat(100))
	b.AccountForFee(currency.QuoteFromFloat(1))
	assert.True(t, b.Available().Equal(currency.QuoteFromFloat(99)))
	assert.True(t, b.FeesPaid().Equal(currency.QuoteFromFloat(1)))
}

func TestApplyRealizedPnL(t *testing.T) {
	b := balances.New(currency.QuoteFromFloat(100))
	b.ApplyRealizedPnL(currency.QuoteFromFloat(-10))
	assert.True(t, b.Available().Equal(currency.QuoteFromFloat(90)))
	assert.True(t, b.RealizedPnL().Equal(currency.QuoteFromFloat(-10)))
}

func TestWalletBalanceIsSumOfPartitions(t *testing.T) {
	b := balances.New(currency.QuoteFromFloat(1000))
	b.TryReserveOrderMargin(currency.QuoteFromFloat(100))
	b.TryReservePositionMargin(currency.QuoteFromFloat(200))
	assert.True(t, b.WalletBalance().Equal(currency.QuoteFromFloat(1000)))
}

func TestDebugAssertStatePanicsOnNegative(t *testing.T) {
	b := balances.New(currency.QuoteFromFloat(10))
	b.AccountForFee(currency.QuoteFromFloat(20))
	assert.Panics(t, func() { b.DebugAssertState() })
}
