// Package marketstate tracks the exchange's view of the outside market:
// the current best bid/ask quote and the last traded price, both fed in by
// external market-update events and used by the risk engine for marking
// and by limit orders for GoodTillCrossing re-pricing checks.
package marketstate

import (
	"isolex/internal/common"
	"isolex/internal/currency"
	"isolex/internal/filters"
)

// MarketUpdate is any event that can move the tracked market: a best
// bid/ask quote, a trade print, or (supplemented beyond the distilled
// surface) a candle close.
type MarketUpdate interface {
	isMarketUpdate()
}

// MarketState is the exchange's current picture of the market it is
// quoting against. It never itself emits trades; it only absorbs updates
// and exposes a mid price derived from the most recent bid/ask.
type MarketState struct {
	bid  currency.QuoteAmount
	ask  currency.QuoteAmount
	hasBid bool
	hasAsk bool

	lastTradePrice    currency.QuoteAmount
	hasLastTradePrice bool

	currentTimestampNs common.TimestampNs
}

func New() *MarketState {
	return &MarketState{}
}

func (s *MarketState) Bid() (currency.QuoteAmount, bool) { return s.bid, s.hasBid }
func (s *MarketState) Ask() (currency.QuoteAmount, bool) { return s.ask, s.hasAsk }
func (s *MarketState) LastTradePrice() (currency.QuoteAmount, bool) {
	return s.lastTradePrice, s.hasLastTradePrice
}
func (s *MarketState) CurrentTimestampNs() common.TimestampNs { return s.currentTimestampNs }

// MidPrice is (bid+ask)/2 when both sides are known, falling back to the
// last traded price, and finally reporting false when neither is known
// yet (an exchange that has received no market data at all).
func (s *MarketState) MidPrice() (currency.QuoteAmount, bool) {
	if s.hasBid && s.hasAsk {
		return currency.AvgQuote(s.bid, s.ask), true
	}
	if s.hasLastTradePrice {
		return s.lastTradePrice, true
	}
	return currency.ZeroQuote, false
}

// MarkPrice is the price used for maintenance-margin checks: the mid price
// when available, otherwise the last traded price, matching spec §4.8.
func (s *MarketState) MarkPrice() (currency.QuoteAmount, bool) {
	return s.MidPrice()
}

// UpdateState applies a market update, validating any embedded price
// against pf first so a malformed upstream tick can never corrupt the
// tracked state.
func (s *MarketState) UpdateState(u MarketUpdate, pf filters.PriceFilter) error {
	switch v := u.(type) {
	case *Bba:
		return s.applyBba(v, pf)
	case *Trade:
		return s.applyTrade(v, pf)
	case *Candle:
		return s.applyCandle(v, pf)
	default:
		return nil
	}
}

func (s *MarketState) applyBba(b *Bba, pf filters.PriceFilter) error {
	if b.HasBid {
		if err := pf.ValidatePrice(b.BidPrice); err != nil {
			return err
		}
	}
	if b.HasAsk {
		if err := pf.ValidatePrice(b.AskPrice); err != nil {
			return err
		}
	}
	if b.HasBid && b.HasAsk && !b.BidPrice.LessThan(b.AskPrice) {
		return common.ErrPriceOutOfBand
	}
	if b.HasBid {
		s.bid, s.hasBid = b.BidPrice, true
	}
	if b.HasAsk {
		s.ask, s.hasAsk = b.AskPrice, true
	}
	s.currentTimestampNs = b.TimestampNs
	return nil
}

func (s *MarketState) applyCandle(c *Candle, pf filters.PriceFilter) error {
	if err := pf.ValidatePrice(c.Close); err != nil {
		return err
	}
	s.lastTradePrice, s.hasLastTradePrice = c.Close, true
	s.currentTimestampNs = c.TimestampNs
	return nil
}
