package marketstate

import (
	"isolex/internal/common"
	"isolex/internal/currency"
	"isolex/internal/filters"
	"isolex/internal/order"
)

// Trade is a print from the outside market: the taker Side traded
// Quantity at Price. Quantity is never decremented as the exchange sweeps
// its own resting orders against this single print — a large trade can
// fill every resting order it crosses, each for up to the full printed
// Quantity, a documented fidelity limitation relative to real book
// liquidity (spec §9), not a bug.
type Trade struct {
	Price       currency.QuoteAmount
	Quantity    currency.BaseAmount
	Side        common.Side
	TimestampNs common.TimestampNs
}

func (*Trade) isMarketUpdate() {}

func (s *MarketState) applyTrade(t *Trade, pf filters.PriceFilter) error {
	if err := pf.ValidatePrice(t.Price); err != nil {
		return err
	}
	s.lastTradePrice, s.hasLastTradePrice = t.Price, true
	s.currentTimestampNs = t.TimestampNs
	return nil
}

// CanFillBids reports whether this trade's taker side can ever cross a
// resting buy: only a Sell print hits the bid.
func (t *Trade) CanFillBids() bool { return t.Side == common.Sell }

// CanFillAsks reports whether this trade's taker side can ever cross a
// resting sell: only a Buy print lifts the offer.
func (t *Trade) CanFillAsks() bool { return t.Side == common.Buy }

// FillsOrder reports whether this trade print would fill the given resting
// order: the trade's taker side must be the opposite of the resting
// order's side (a Buy order can only be filled by a Sell print, and vice
// versa) and the print's price must have strictly crossed the order's
// limit price — the resting order is assumed to hold the worst possible
// queue position at its price level, so a print merely equal to the limit
// price is not enough. This is a direct reproduction of the original
// simulator's trade-fills-order rule: the print, not the exchange's own
// synthetic best quote, is what determines whether a resting order trades.
func (t *Trade) FillsOrder(o *order.PendingLimitOrder) bool {
	switch o.Side {
	case common.Buy:
		return t.Side == common.Sell && t.Price.LessThan(o.LimitPrice)
	default:
		return t.Side == common.Buy && t.Price.GreaterThan(o.LimitPrice)
	}
}
