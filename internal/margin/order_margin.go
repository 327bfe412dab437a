// Package margin computes and reserves the margin resting limit orders
// require, on top of (and netted against) whatever margin the current
// position already holds.
package margin

import (
	"sort"

	"github.com/shopspring/decimal"

	"isolex/internal/balances"
	"isolex/internal/book"
	"isolex/internal/common"
	"isolex/internal/currency"
	"isolex/internal/order"
	"isolex/internal/position"
)

// OrderMargin computes the margin requirement of the resting limit order
// book, position-aware: a resting order on the side that would merely
// offset the current position requires no margin for the offsetting
// portion, since filling it only reduces risk rather than adding to it.
type OrderMargin struct {
	book *book.ActiveLimitOrders
}

func New(b *book.ActiveLimitOrders) *OrderMargin {
	return &OrderMargin{book: b}
}

// Requirement computes the total margin the resting book requires given
// the current position and the initial margin rate. Buy-side and sell-side
// requirements are computed independently (isolated margin does not let a
// hedge on one side free up margin on the other) and the larger of the two
// dominates, since only one side's orders can ever fill against a single
// price move.
func (m *OrderMargin) Requirement(pos *position.Position, imr decimal.Decimal) currency.QuoteAmount {
	return m.requirement(nil, pos, imr)
}

// RequirementWithExtra computes what the requirement would become if
// extra were also resting on the book, without mutating the book. The
// risk engine uses this to evaluate a new order before it is ever
// inserted.
func (m *OrderMargin) RequirementWithExtra(extra *order.PendingLimitOrder, pos *position.Position, imr decimal.Decimal) currency.QuoteAmount {
	return m.requirement(extra, pos, imr)
}

func (m *OrderMargin) requirement(extra *order.PendingLimitOrder, pos *position.Position, imr decimal.Decimal) currency.QuoteAmount {
	buyReq := m.sideRequirement(common.Buy, extra, pos, imr)
	sellReq := m.sideRequirement(common.Sell, extra, pos, imr)
	return currency.MaxQuote(buyReq, sellReq)
}

// sideRequirement walks the resting orders on one side, most aggressive
// price first (best bid first for buys, best ask first for sells, ties
// broken by OrderID, matching book.ActiveLimitOrders' own ordering), and
// consumes an "offset" quantity equal to the current position's size when
// the position sits on the opposite side of this order flow: filling those
// orders would only reduce the position, so the first offsetQty worth of
// resting quantity on this side carries no margin requirement. Anything
// beyond the offset is margined at the full notional times imr. extra, if
// non-nil and on this side, is folded into the walk as a hypothetical
// resting order.
func (m *OrderMargin) sideRequirement(side common.Side, extra *order.PendingLimitOrder, pos *position.Position, imr decimal.Decimal) currency.QuoteAmount {
	var orders []*order.PendingLimitOrder
	if side == common.Buy {
		orders = m.book.Bids()
	} else {
		orders = m.book.Asks()
	}
	if extra != nil && extra.Side == side {
		orders = append(orders, extra)
	}
	if len(orders) == 0 {
		return currency.ZeroQuote
	}

	sort.SliceStable(orders, func(i, j int) bool {
		if orders[i].LimitPrice.Equal(orders[j].LimitPrice) {
			return orders[i].ID() < orders[j].ID()
		}
		if side == common.Buy {
			return orders[i].LimitPrice.GreaterThan(orders[j].LimitPrice)
		}
		return orders[i].LimitPrice.LessThan(orders[j].LimitPrice)
	})

	offset := currency.ZeroBase
	opposesPosition := (side == common.Buy && pos.Side() == position.Short) || (side == common.Sell && pos.Side() == position.Long)
	if opposesPosition {
		offset = pos.Quantity()
	}

	total := currency.ZeroQuote
	for _, o := range orders {
		qty := o.RemainingQuantity
		if offset.IsPositive() {
			consumed := currency.MinBase(offset, qty)
			offset = offset.Sub(consumed)
			qty = qty.Sub(consumed)
		}
		if qty.IsPositive() {
			total = total.Add(currency.ConvertToQuote(qty, o.LimitPrice))
		}
	}
	return total.Mul(imr)
}

// TryInsert adds a new resting order to the book and reserves the
// additional order margin it requires, rolling back the insert if the
// account's available balance cannot cover the delta.
func (m *OrderMargin) TryInsert(o *order.PendingLimitOrder, bal *balances.Balances, pos *position.Position, imr decimal.Decimal) error {
	before := m.Requirement(pos, imr)
	if err := m.book.Insert(o); err != nil {
		return err
	}
	after := m.Requirement(pos, imr)
	delta := after.Sub(before)
	if !delta.IsPositive() {
		return nil
	}
	if !bal.TryReserveOrderMargin(delta) {
		m.book.RemoveByID(o.ID())
		return common.ErrNotEnoughAvailableBalance
	}
	return nil
}

// CancelBy identifies the order to cancel, by exchange OrderID or by the
// client's own UserOrderID.
type CancelBy struct {
	OrderID     common.OrderID
	UserOrderID common.UserOrderID
	ByUserID    bool
}

// Remove cancels a resting order and frees whatever order margin its
// removal makes redundant.
func (m *OrderMargin) Remove(by CancelBy, bal *balances.Balances, pos *position.Position, imr decimal.Decimal) (*order.PendingLimitOrder, error) {
	before := m.Requirement(pos, imr)

	var removed *order.PendingLimitOrder
	var ok bool
	if by.ByUserID {
		removed, ok = m.book.RemoveByUserID(by.UserOrderID)
	} else {
		removed, ok = m.book.RemoveByID(by.OrderID)
	}
	if !ok {
		return nil, &common.OrderIDNotFound{OrderID: by.OrderID}
	}

	after := m.Requirement(pos, imr)
	delta := before.Sub(after)
	if delta.IsPositive() {
		bal.FreeOrderMargin(delta)
	}
	return removed, nil
}

// FillOrder rebalances the order-margin partition after a fill. Because
// book.ActiveLimitOrders stores pointers and order.PendingLimitOrder.Fill
// mutates the resting order in place, the resting quantity Requirement
// observes is already reduced by the time this is called; what it doesn't
// already reflect is balances.order_margin itself, which is a reserved
// amount from an earlier TryInsert/Remove, not a derived value. A fill can
// shift the requirement in either direction: shrinking it directly (less
// resting quantity) or growing it when the fill moves the position enough
// that the dominant side (§4.5) flips to one with more resting notional.
// This reserves or frees the delta against bal so the partition tracks
// Requirement exactly, matching spec §4.5's "recomputes and rebalances
// reservation".
func (m *OrderMargin) FillOrder(bal *balances.Balances, pos *position.Position, imr decimal.Decimal) {
	before := bal.OrderMargin()
	after := m.Requirement(pos, imr)
	switch {
	case after.GreaterThan(before):
		delta := after.Sub(before)
		if !bal.TryReserveOrderMargin(delta) {
			panic("margin: order margin rebalance after fill exceeded available balance")
		}
	case before.GreaterThan(after):
		bal.FreeOrderMargin(before.Sub(after))
	}
	bal.DebugAssertState()
}
