package position_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"isolex/internal/balances"
	"isolex/internal/common"
	"isolex/internal/currency"
	"isolex/internal/position"
)

var imr = decimal.NewFromFloat(0.1)

func TestOpenFromNeutral(t *testing.T) {
	var p position.Position
	bal := balances.New(currency.QuoteFromFloat(1000))

	p.Change(currency.BaseFromFloat(2), currency.QuoteFromFloat(100), common.Buy, bal, imr)

	assert.Equal(t, position.Long, p.Side())
	assert.True(t, p.Quantity().Equal(currency.BaseFromFloat(2)))
	assert.True(t, p.EntryPrice().Equal(currency.QuoteFromFloat(100)))
	assert.True(t, bal.PositionMargin().Equal(currency.QuoteFromFloat(20)))
	assert.True(t, bal.Available().Equal(currency.QuoteFromFloat(980)))
}

func TestIncreaseSameSideAveragesEntry(t *testing.T) {
	var p position.Position
	bal := balances.New(currency.QuoteFromFloat(10000))

	p.Change(currency.BaseFromFloat(1), currency.QuoteFromFloat(100), common.Buy, bal, imr)
	p.Change(currency.BaseFromFloat(1), currency.QuoteFromFloat(200), common.Buy, bal, imr)

	assert.True(t, p.Quantity().Equal(currency.BaseFromFloat(2)))
	assert.True(t, p.EntryPrice().Equal(currency.QuoteFromFloat(150)))
}

func TestPartialReduceReleasesMarginAndRealizesPnL(t *testing.T) {
	var p position.Position
	bal := balances.New(currency.QuoteFromFloat(1000))

	p.Change(currency.BaseFromFloat(10), currency.QuoteFromFloat(100), common.Buy, bal, imr)
	// position margin reserved: 10*100*0.1 = 100, available = 900

	p.Change(currency.BaseFromFloat(4), currency.QuoteFromFloat(110), common.Sell, bal, imr)

	assert.Equal(t, position.Long, p.Side())
	assert.True(t, p.Quantity().Equal(currency.BaseFromFloat(6)))
	// released margin for closed 4 units at entry price 100: 4*100*0.1 = 40
	assert.True(t, bal.PositionMargin().Equal(currency.QuoteFromFloat(60)))
	// realized pnl: 4 * (110-100) = 40
	assert.True(t, bal.RealizedPnL().Equal(currency.QuoteFromFloat(40)))
}

func TestCrossingFlipsToOppositeSide(t *testing.T) {
	var p position.Position
	bal := balances.New(currency.QuoteFromFloat(1000))

	p.Change(currency.BaseFromFloat(5), currency.QuoteFromFloat(100), common.Buy, bal, imr)
	// Sell 8: closes 5 long, flips to 3 short at price 90.
	p.Change(currency.BaseFromFloat(8), currency.QuoteFromFloat(90), common.Sell, bal, imr)

	assert.Equal(t, position.Short, p.Side())
	assert.True(t, p.Quantity().Equal(currency.BaseFromFloat(3)))
	assert.True(t, p.EntryPrice().Equal(currency.QuoteFromFloat(90)))
}

func TestExactCloseGoesNeutral(t *testing.T) {
	var p position.Position
	bal := balances.New(currency.QuoteFromFloat(1000))

	p.Change(currency.BaseFromFloat(5), currency.QuoteFromFloat(100), common.Buy, bal, imr)
	p.Change(currency.BaseFromFloat(5), currency.QuoteFromFloat(100), common.Sell, bal, imr)

	assert.True(t, p.IsNeutral())
	assert.True(t, p.Quantity().IsZero())
	assert.True(t, bal.PositionMargin().IsZero())
}

func TestSimulateDoesNotMutate(t *testing.T) {
	var p position.Position
	bal := balances.New(currency.QuoteFromFloat(1000))
	p.Change(currency.BaseFromFloat(5), currency.QuoteFromFloat(100), common.Buy, bal, imr)

	newSide, newQty, newEntry := position.Simulate(&p, currency.BaseFromFloat(2), currency.QuoteFromFloat(110), common.Buy)

	assert.Equal(t, position.Long, p.Side())
	assert.True(t, p.Quantity().Equal(currency.BaseFromFloat(5)))
	assert.Equal(t, position.Long, newSide)
	assert.True(t, newQty.Equal(currency.BaseFromFloat(7)))
	assert.False(t, newEntry.Equal(currency.QuoteFromFloat(100)))
}
