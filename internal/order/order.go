// Package order implements the type-state order lifecycle: a New order has
// no exchange identity yet; it becomes Pending once the exchange assigns it
// an OrderID and submit timestamp; limit orders then accumulate fills until
// fully filled or cancelled, market orders settle immediately into Filled.
//
// Each state is its own concrete type and the state transitions
// (`IntoPending`, `IntoFilled`) return a new value rather than mutating a
// single do-everything struct, so a caller can never submit an order twice
// or fill one that was never accepted. `Fill` is the exception: it reduces
// a pending limit order's remaining quantity in place and returns a fill
// event.
package order

import (
	"fmt"

	"isolex/internal/common"
	"isolex/internal/currency"
)

// RePricing is the policy applied when a resting limit order becomes
// marketable. GoodTillCrossing is the only policy this simulator supports:
// a marketable order is rejected outright to guarantee maker status.
type RePricing int

const (
	GoodTillCrossing RePricing = iota
)

// ExchangeOrderMeta is assigned by the exchange the moment an order is
// accepted: its id and the timestamp at which it entered the book.
type ExchangeOrderMeta struct {
	OrderID           common.OrderID
	SubmitTimestampNs common.TimestampNs
}

// NewLimitOrder is a limit order that has not yet been submitted to the
// exchange; it has no OrderID.
type NewLimitOrder struct {
	Side          common.Side
	LimitPrice    currency.QuoteAmount
	TotalQuantity currency.BaseAmount
	RePricing     RePricing
	UserOrderID   common.UserOrderID
}

// IntoPending attaches exchange-assigned metadata, producing a Pending
// order whose remaining quantity starts out equal to the total quantity.
func (o NewLimitOrder) IntoPending(meta ExchangeOrderMeta) *PendingLimitOrder {
	return &PendingLimitOrder{
		NewLimitOrder:     o,
		Meta:              meta,
		RemainingQuantity: o.TotalQuantity,
	}
}

// PendingLimitOrder is a limit order resting in (or about to enter) the
// book. RemainingQuantity decreases as LimitOrderFill events are applied.
type PendingLimitOrder struct {
	NewLimitOrder
	Meta              ExchangeOrderMeta
	RemainingQuantity currency.BaseAmount
}

func (o *PendingLimitOrder) ID() common.OrderID { return o.Meta.OrderID }

// SetRemainingQuantity is used by amend handling to carry a computed
// leaves-quantity delta onto the resubmitted order.
func (o *PendingLimitOrder) SetRemainingQuantity(q currency.BaseAmount) { o.RemainingQuantity = q }

// Clone returns a value copy, used to snapshot an order's state into a
// LimitOrderFill event without aliasing the resting order.
func (o *PendingLimitOrder) Clone() *PendingLimitOrder {
	clone := *o
	return &clone
}

func (o *PendingLimitOrder) String() string {
	return fmt.Sprintf("LimitOrder{id: %s, side: %s, price: %s, remaining: %s/%s}",
		o.ID(), o.Side, o.LimitPrice, o.RemainingQuantity, o.TotalQuantity)
}

// LimitOrderFillKind distinguishes a partial from a full fill event.
type LimitOrderFillKind int

const (
	PartiallyFilled LimitOrderFillKind = iota
	FullyFilled
)

// LimitOrderFill is the event emitted each time a resting limit order is
// filled, whether fully or partially.
type LimitOrderFill struct {
	Kind      LimitOrderFillKind
	OrderID   common.OrderID
	Side      common.Side
	FilledQty currency.BaseAmount
	Fee       currency.QuoteAmount
	// OrderAfterFill is the order's state after the fill; set only on a
	// PartiallyFilled event, nil once the order is fully filled and gone.
	OrderAfterFill *PendingLimitOrder
}

// Fill applies filledQty against the order's remaining quantity and
// returns the resulting event. The order is mutated in place: callers that
// still hold a pointer to it (e.g. the resting-order container) observe
// the reduced remaining quantity immediately.
func (o *PendingLimitOrder) Fill(filledQty currency.BaseAmount, fee currency.QuoteAmount) LimitOrderFill {
	o.RemainingQuantity = o.RemainingQuantity.Sub(filledQty)
	base := LimitOrderFill{
		OrderID:   o.ID(),
		Side:      o.Side,
		FilledQty: filledQty,
		Fee:       fee,
	}
	if !o.RemainingQuantity.IsPositive() {
		base.Kind = FullyFilled
		return base
	}
	base.Kind = PartiallyFilled
	base.OrderAfterFill = o.Clone()
	return base
}

// NewMarketOrder is a market order that has not yet been submitted.
type NewMarketOrder struct {
	Side        common.Side
	Quantity    currency.BaseAmount
	UserOrderID common.UserOrderID
}

func (o NewMarketOrder) IntoPending(meta ExchangeOrderMeta) *PendingMarketOrder {
	return &PendingMarketOrder{NewMarketOrder: o, Meta: meta}
}

// PendingMarketOrder has been accepted by the exchange but not yet
// settled against a fill price.
type PendingMarketOrder struct {
	NewMarketOrder
	Meta ExchangeOrderMeta
}

func (o *PendingMarketOrder) ID() common.OrderID { return o.Meta.OrderID }

func (o *PendingMarketOrder) IntoFilled(avgFillPrice currency.QuoteAmount, fillTimestampNs common.TimestampNs) *FilledMarketOrder {
	return &FilledMarketOrder{
		PendingMarketOrder: *o,
		AvgFillPrice:        avgFillPrice,
		FillTimestampNs:      fillTimestampNs,
	}
}

// FilledMarketOrder is a market order that has settled completely; market
// orders in this simulator always fill in full against the current best
// opposite quote.
type FilledMarketOrder struct {
	PendingMarketOrder
	AvgFillPrice    currency.QuoteAmount
	FillTimestampNs common.TimestampNs
}
