// Package position tracks the single open position an isolated-margin
// account can hold: Neutral, or Long/Short with a quantity and a
// quantity-weighted average entry price.
package position

import (
	"github.com/shopspring/decimal"

	"isolex/internal/balances"
	"isolex/internal/common"
	"isolex/internal/currency"
)

// Side is the position's side. Unlike common.Side (Buy/Sell, an order
// intent) a position additionally has a Neutral state: no position at all.
type Side int

const (
	Neutral Side = iota
	Long
	Short
)

func (s Side) String() string {
	switch s {
	case Long:
		return "Long"
	case Short:
		return "Short"
	default:
		return "Neutral"
	}
}

// Position is Neutral, or Long/Short with qty > 0 and entry_price > 0.
type Position struct {
	side       Side
	quantity   currency.BaseAmount
	entryPrice currency.QuoteAmount
}

func (p *Position) Side() Side                        { return p.side }
func (p *Position) Quantity() currency.BaseAmount      { return p.quantity }
func (p *Position) EntryPrice() currency.QuoteAmount   { return p.entryPrice }
func (p *Position) IsNeutral() bool                    { return p.side == Neutral }

// Simulate computes the resulting position from applying a hypothetical
// fill, without mutating anything or touching balances. The risk engine
// uses this to evaluate a trade before committing to it. It follows the
// same four branches of spec §4.7 as Change, which does not call it.
func Simulate(p *Position, filledQty currency.BaseAmount, fillPrice currency.QuoteAmount, side common.Side) (newSide Side, newQty currency.BaseAmount, newEntryPrice currency.QuoteAmount) {
	if p.side == Neutral {
		sideFromBuy := Long
		if side == common.Sell {
			sideFromBuy = Short
		}
		return sideFromBuy, filledQty, fillPrice
	}

	sameSide := (p.side == Long && side == common.Buy) || (p.side == Short && side == common.Sell)
	if sameSide {
		oldNotional := currency.ConvertToQuote(p.quantity, p.entryPrice)
		addedNotional := currency.ConvertToQuote(filledQty, fillPrice)
		totalQty := p.quantity.Add(filledQty)
		avgEntry := currency.PricePerUnit(oldNotional.Add(addedNotional), totalQty)
		return p.side, totalQty, avgEntry
	}

	// Opposite side: reduces, possibly flips through Neutral.
	if filledQty.LessThan(p.quantity) || filledQty.Equal(p.quantity) {
		remaining := p.quantity.Sub(filledQty)
		if remaining.IsZero() {
			return Neutral, currency.ZeroBase, currency.ZeroQuote
		}
		return p.side, remaining, p.entryPrice
	}

	// Crossed through and flips to the opposite side with the residual.
	residual := filledQty.Sub(p.quantity)
	flippedSide := Long
	if side == common.Sell {
		flippedSide = Short
	}
	return flippedSide, residual, fillPrice
}

// Change is the sole mutator of Position. It applies a fill, reserving or
// releasing position margin and realizing PnL against bal as it goes.
// Margin is released before any new margin is reserved, so a crossing fill
// that both closes and opens the opposite side never transiently
// over-reserves (spec §4.7, "Margin release order").
func (p *Position) Change(filledQty currency.BaseAmount, fillPrice currency.QuoteAmount, side common.Side, bal *balances.Balances, imr decimal.Decimal) {
	switch {
	case p.side == Neutral:
		p.openFresh(filledQty, fillPrice, side, bal, imr)
	case (p.side == Long && side == common.Buy) || (p.side == Short && side == common.Sell):
		p.increase(filledQty, fillPrice, bal, imr)
	default:
		p.reduceOrFlip(filledQty, fillPrice, side, bal, imr)
	}
}

func (p *Position) openFresh(filledQty currency.BaseAmount, fillPrice currency.QuoteAmount, side common.Side, bal *balances.Balances, imr decimal.Decimal) {
	newSide := Long
	if side == common.Sell {
		newSide = Short
	}
	margin := currency.ConvertToQuote(filledQty, fillPrice).Mul(imr)
	if !bal.TryReservePositionMargin(margin) {
		panic("position: not enough available balance to open position; caller must risk-check before calling Change")
	}
	p.side = newSide
	p.quantity = filledQty
	p.entryPrice = fillPrice
}

func (p *Position) increase(filledQty currency.BaseAmount, fillPrice currency.QuoteAmount, bal *balances.Balances, imr decimal.Decimal) {
	additionalMargin := currency.ConvertToQuote(filledQty, fillPrice).Mul(imr)
	if !bal.TryReservePositionMargin(additionalMargin) {
		panic("position: not enough available balance to increase position; caller must risk-check before calling Change")
	}
	oldNotional := currency.ConvertToQuote(p.quantity, p.entryPrice)
	addedNotional := currency.ConvertToQuote(filledQty, fillPrice)
	totalQty := p.quantity.Add(filledQty)
	p.entryPrice = currency.PricePerUnit(oldNotional.Add(addedNotional), totalQty)
	p.quantity = totalQty
}

func (p *Position) reduceOrFlip(filledQty currency.BaseAmount, fillPrice currency.QuoteAmount, side common.Side, bal *balances.Balances, imr decimal.Decimal) {
	closedQty := currency.MinBase(filledQty, p.quantity)

	// Release margin for the closed portion, and realize its PnL, before
	// touching anything related to a potential newly-opened opposite side.
	releasedMargin := currency.ConvertToQuote(closedQty, p.entryPrice).Mul(imr)
	bal.FreePositionMargin(releasedMargin)

	var pnl currency.QuoteAmount
	if p.side == Long {
		pnl = currency.ConvertToQuote(closedQty, fillPrice.Sub(p.entryPrice))
	} else {
		pnl = currency.ConvertToQuote(closedQty, p.entryPrice.Sub(fillPrice))
	}
	bal.ApplyRealizedPnL(pnl)

	remaining := p.quantity.Sub(closedQty)
	if remaining.IsPositive() {
		p.quantity = remaining
		return
	}

	p.side = Neutral
	p.quantity = currency.ZeroBase
	p.entryPrice = currency.ZeroQuote

	residual := filledQty.Sub(closedQty)
	if !residual.IsPositive() {
		return
	}
	// Crossed through: open the opposite side with the residual quantity.
	p.openFresh(residual, fillPrice, side, bal, imr)
}
