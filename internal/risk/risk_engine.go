// Package risk gatekeeps every order before it reaches the book or fills:
// instrument filters, margin sufficiency, GoodTillCrossing re-pricing, and
// the maintenance-margin check that triggers liquidation.
package risk

import (
	"github.com/shopspring/decimal"

	"isolex/internal/balances"
	"isolex/internal/common"
	"isolex/internal/currency"
	"isolex/internal/filters"
	"isolex/internal/margin"
	"isolex/internal/order"
	"isolex/internal/position"
)

// RiskEngine ties the instrument's filters and margin rates to the live
// balances, position and order book it validates every action against.
type RiskEngine struct {
	PriceFilter    filters.PriceFilter
	QuantityFilter filters.QuantityFilter
	InitMarginReq  decimal.Decimal
	MaintMarginReq decimal.Decimal
	TakerFeeRate   decimal.Decimal
	MakerFeeRate   decimal.Decimal
}

// CheckMarketOrder validates a new market order's quantity and confirms
// the account can afford the position change it would cause, simulating
// the fill against the current opposite best quote without mutating
// anything. against is the best bid (for a Sell) or best ask (for a Buy);
// hasAgainst is false when that side of the book is empty, which is
// itself a rejection since a market order with nothing to trade against
// cannot fill.
func (r *RiskEngine) CheckMarketOrder(o *order.NewMarketOrder, against currency.QuoteAmount, hasAgainst bool, pos *position.Position, bal *balances.Balances) error {
	if err := r.QuantityFilter.ValidateQuantity(o.Quantity); err != nil {
		return err
	}
	if !hasAgainst {
		return common.ErrOrderNoLongerActive
	}

	fee := currency.ConvertToQuote(o.Quantity, against).Mul(r.TakerFeeRate)

	newSide, newQty, newEntryPrice := position.Simulate(pos, o.Quantity, against, o.Side)
	requiredMargin := currency.ConvertToQuote(newQty, newEntryPrice).Mul(r.InitMarginReq)

	// The portion of margin already locked in the existing position that
	// survives the simulated fill is still reserved; only the incremental
	// requirement (if any) must be covered by available balance, on top of
	// the taker fee charged on entry.
	existingMargin := currency.ConvertToQuote(pos.Quantity(), pos.EntryPrice()).Mul(r.InitMarginReq)
	var additionalMargin currency.QuoteAmount
	if newSide == position.Neutral {
		additionalMargin = currency.ZeroQuote
	} else if requiredMargin.GreaterThan(existingMargin) {
		additionalMargin = requiredMargin.Sub(existingMargin)
	}

	if bal.Available().LessThan(additionalMargin.Add(fee)) {
		return common.ErrNotEnoughAvailableBalance
	}
	return nil
}

// CheckLimitOrder validates a new limit order's price and quantity,
// rejects it under GoodTillCrossing if it would have executed immediately
// as a taker, and confirms the account can afford the additional order
// margin it would add to the book.
func (r *RiskEngine) CheckLimitOrder(o *order.NewLimitOrder, mid currency.QuoteAmount, hasMid bool, bestOpposite currency.QuoteAmount, hasBestOpposite bool, om *margin.OrderMargin, bal *balances.Balances, pos *position.Position) error {
	if err := r.PriceFilter.ValidateLimitPrice(o.LimitPrice, mid, hasMid); err != nil {
		return err
	}
	if err := r.QuantityFilter.ValidateQuantity(o.TotalQuantity); err != nil {
		return err
	}

	if o.RePricing == order.GoodTillCrossing && hasBestOpposite {
		crosses := (o.Side == common.Buy && (o.LimitPrice.GreaterThan(bestOpposite) || o.LimitPrice.Equal(bestOpposite))) ||
			(o.Side == common.Sell && (o.LimitPrice.LessThan(bestOpposite) || o.LimitPrice.Equal(bestOpposite)))
		if crosses {
			return &common.GoodTillCrossingRejected{LimitPrice: o.LimitPrice.String(), AwayQuote: bestOpposite.String()}
		}
	}

	before := om.Requirement(pos, r.InitMarginReq)
	hypothetical := &order.PendingLimitOrder{
		NewLimitOrder:     *o,
		RemainingQuantity: o.TotalQuantity,
	}
	after := om.RequirementWithExtra(hypothetical, pos, r.InitMarginReq)
	delta := after.Sub(before)
	if delta.IsPositive() && bal.Available().LessThan(delta) {
		return common.ErrNotEnoughAvailableBalance
	}
	return nil
}

// CheckMaintenanceMargin compares the position's maintenance margin
// requirement against its current margin balance at the given mark price,
// returning ErrLiquidation once the account falls below maintenance.
func (r *RiskEngine) CheckMaintenanceMargin(pos *position.Position, mark currency.QuoteAmount, bal *balances.Balances) error {
	if pos.IsNeutral() {
		return nil
	}
	var unrealizedPnL currency.QuoteAmount
	if pos.Side() == position.Long {
		unrealizedPnL = currency.ConvertToQuote(pos.Quantity(), mark.Sub(pos.EntryPrice()))
	} else {
		unrealizedPnL = currency.ConvertToQuote(pos.Quantity(), pos.EntryPrice().Sub(mark))
	}
	marginBalance := bal.PositionMargin().Add(unrealizedPnL)
	maintReq := currency.ConvertToQuote(pos.Quantity(), mark).Mul(r.MaintMarginReq)
	if marginBalance.LessThan(maintReq) {
		return common.ErrLiquidation
	}
	return nil
}
