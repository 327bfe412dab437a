package marketstate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"isolex/internal/common"
	"isolex/internal/currency"
	"isolex/internal/filters"
	"isolex/internal/marketstate"
	"isolex/internal/order"
)

func pf() filters.PriceFilter {
	return filters.PriceFilter{
		MinPrice: currency.QuoteFromFloat(0),
		MaxPrice: currency.QuoteFromFloat(100000),
		TickSize: currency.ZeroQuote,
	}
}

func TestMidPriceFromBidAsk(t *testing.T) {
	s := marketstate.New()
	require.NoError(t, s.UpdateState(&marketstate.Bba{
		BidPrice: currency.QuoteFromFloat(99), HasBid: true,
		AskPrice: currency.QuoteFromFloat(101), HasAsk: true,
	}, pf()))

	mid, ok := s.MidPrice()
	require.True(t, ok)
	assert.True(t, mid.Equal(currency.QuoteFromFloat(100)))
}

func TestMidPriceFallsBackToLastTrade(t *testing.T) {
	s := marketstate.New()
	require.NoError(t, s.UpdateState(&marketstate.Trade{
		Price: currency.QuoteFromFloat(50), Quantity: currency.BaseFromFloat(1),
	}, pf()))

	mid, ok := s.MidPrice()
	require.True(t, ok)
	assert.True(t, mid.Equal(currency.QuoteFromFloat(50)))
}

func TestMidPriceUnknownWithNoData(t *testing.T) {
	s := marketstate.New()
	_, ok := s.MidPrice()
	assert.False(t, ok)
}

func TestBbaRejectsCrossedQuote(t *testing.T) {
	s := marketstate.New()
	err := s.UpdateState(&marketstate.Bba{
		BidPrice: currency.QuoteFromFloat(101), HasBid: true,
		AskPrice: currency.QuoteFromFloat(99), HasAsk: true,
	}, pf())
	assert.ErrorIs(t, err, common.ErrPriceOutOfBand)
}

func TestBbaRejectsLockedQuote(t *testing.T) {
	s := marketstate.New()
	err := s.UpdateState(&marketstate.Bba{
		BidPrice: currency.QuoteFromFloat(100), HasBid: true,
		AskPrice: currency.QuoteFromFloat(100), HasAsk: true,
	}, pf())
	assert.ErrorIs(t, err, common.ErrPriceOutOfBand)
}

func TestTradeFillsOrder(t *testing.T) {
	buy := (&order.NewLimitOrder{Side: common.Buy, LimitPrice: currency.QuoteFromFloat(100), TotalQuantity: currency.BaseFromFloat(1)}).
		IntoPending(order.ExchangeOrderMeta{OrderID: 1})
	sell := (&order.NewLimitOrder{Side: common.Sell, LimitPrice: currency.QuoteFromFloat(100), TotalQuantity: currency.BaseFromFloat(1)}).
		IntoPending(order.ExchangeOrderMeta{OrderID: 2})

	trade := &marketstate.Trade{Price: currency.QuoteFromFloat(99), Side: common.Sell}
	assert.True(t, trade.FillsOrder(buy))
	assert.False(t, trade.FillsOrder(sell))

	trade2 := &marketstate.Trade{Price: currency.QuoteFromFloat(101), Side: common.Buy}
	assert.True(t, trade2.FillsOrder(sell))
	assert.False(t, trade2.FillsOrder(buy))

	// A same-side print, or a print that merely touches (not crosses) the
	// limit price, never fills — invariant 7.
	sameSide := &marketstate.Trade{Price: currency.QuoteFromFloat(99), Side: common.Buy}
	assert.False(t, sameSide.FillsOrder(buy))
	touching := &marketstate.Trade{Price: currency.QuoteFromFloat(100), Side: common.Sell}
	assert.False(t, touching.FillsOrder(buy))
}
