// Package book implements ActiveLimitOrders, the priority-indexed container
// of resting limit orders. It is a direct generalization of the teacher's
// engine.OrderBook: the same github.com/tidwall/btree.BTreeG ordered trees
// keyed by a Less comparator (price first, descending for bids / ascending
// for asks, then ascending OrderID to give FIFO within a price level), plus
// O(1) lookup maps the teacher's version didn't need because it grouped
// orders by price level instead of indexing each order individually.
package book

import (
	"github.com/rs/zerolog/log"
	"github.com/tidwall/btree"

	"isolex/internal/common"
	"isolex/internal/order"
)

// ActiveLimitOrders holds every Pending limit order resting on the book,
// with O(log n) best-bid/best-ask peek and O(1) lookup by OrderID or
// UserOrderID. Capacity is bounded by maxNumOpenOrders.
type ActiveLimitOrders struct {
	bids *btree.BTreeG[*order.PendingLimitOrder]
	asks *btree.BTreeG[*order.PendingLimitOrder]

	byID     map[common.OrderID]*order.PendingLimitOrder
	byUserID map[common.UserOrderID]*order.PendingLimitOrder

	maxNumOpenOrders int
}

// New constructs an empty ActiveLimitOrders bounded to maxNumOpenOrders
// resting orders. The lookup maps are pre-sized to that bound so the hot
// insert/remove path does not grow them.
func New(maxNumOpenOrders int) *ActiveLimitOrders {
	bidLess := func(a, b *order.PendingLimitOrder) bool {
		if a.LimitPrice.Equal(b.LimitPrice) {
			return a.ID() < b.ID()
		}
		// Highest price sorts first: the best bid is the max price.
		return a.LimitPrice.GreaterThan(b.LimitPrice)
	}
	askLess := func(a, b *order.PendingLimitOrder) bool {
		if a.LimitPrice.Equal(b.LimitPrice) {
			return a.ID() < b.ID()
		}
		// Lowest price sorts first: the best ask is the min price.
		return a.LimitPrice.LessThan(b.LimitPrice)
	}
	return &ActiveLimitOrders{
		bids:             btree.NewBTreeG(bidLess),
		asks:             btree.NewBTreeG(askLess),
		byID:             make(map[common.OrderID]*order.PendingLimitOrder, maxNumOpenOrders),
		byUserID:         make(map[common.UserOrderID]*order.PendingLimitOrder, maxNumOpenOrders),
		maxNumOpenOrders: maxNumOpenOrders,
	}
}

func (a *ActiveLimitOrders) treeFor(side common.Side) *btree.BTreeG[*order.PendingLimitOrder] {
	if side == common.Buy {
		return a.bids
	}
	return a.asks
}

// Insert adds a resting order to the book. Returns ErrMaxActiveOrders if
// the book is already at capacity.
func (a *ActiveLimitOrders) Insert(o *order.PendingLimitOrder) error {
	if a.NumActive() >= a.maxNumOpenOrders {
		return common.ErrMaxActiveOrders
	}
	a.treeFor(o.Side).Set(o)
	a.byID[o.ID()] = o
	if o.UserOrderID != common.NoUserOrderID {
		a.byUserID[o.UserOrderID] = o
	}
	log.Debug().Uint64("orderID", uint64(o.ID())).Str("side", o.Side.String()).Msg("order inserted into book")
	return nil
}

// RemoveByID removes and returns the order with the given id, if active.
func (a *ActiveLimitOrders) RemoveByID(oid common.OrderID) (*order.PendingLimitOrder, bool) {
	o, ok := a.byID[oid]
	if !ok {
		return nil, false
	}
	a.remove(o)
	return o, true
}

// RemoveByUserID removes and returns the order tagged with the given
// client UserOrderID, if active.
func (a *ActiveLimitOrders) RemoveByUserID(uid common.UserOrderID) (*order.PendingLimitOrder, bool) {
	o, ok := a.byUserID[uid]
	if !ok {
		return nil, false
	}
	a.remove(o)
	return o, true
}

func (a *ActiveLimitOrders) remove(o *order.PendingLimitOrder) {
	a.treeFor(o.Side).Delete(o)
	delete(a.byID, o.ID())
	if o.UserOrderID != common.NoUserOrderID {
		delete(a.byUserID, o.UserOrderID)
	}
}

// GetByID looks up an active order by id on the given side.
func (a *ActiveLimitOrders) GetByID(oid common.OrderID, side common.Side) (*order.PendingLimitOrder, bool) {
	o, ok := a.byID[oid]
	if !ok || o.Side != side {
		return nil, false
	}
	return o, true
}

// PeekBestBid returns the highest-priced resting Buy order, if any.
func (a *ActiveLimitOrders) PeekBestBid() (*order.PendingLimitOrder, bool) {
	return a.bids.Min()
}

// PeekBestAsk returns the lowest-priced resting Sell order, if any.
func (a *ActiveLimitOrders) PeekBestAsk() (*order.PendingLimitOrder, bool) {
	return a.asks.Min()
}

// NumActive returns the total number of resting orders across both sides.
func (a *ActiveLimitOrders) NumActive() int {
	return a.bids.Len() + a.asks.Len()
}

func (a *ActiveLimitOrders) IsEmpty() bool { return a.NumActive() == 0 }

// AllOrders returns every resting order across both sides, used by the
// order-margin calculation which must consider the whole resting set.
func (a *ActiveLimitOrders) AllOrders() []*order.PendingLimitOrder {
	out := make([]*order.PendingLimitOrder, 0, a.NumActive())
	a.bids.Scan(func(o *order.PendingLimitOrder) bool {
		out = append(out, o)
		return true
	})
	a.asks.Scan(func(o *order.PendingLimitOrder) bool {
		out = append(out, o)
		return true
	})
	return out
}

// Bids returns every resting Buy order, best first.
func (a *ActiveLimitOrders) Bids() []*order.PendingLimitOrder {
	out := make([]*order.PendingLimitOrder, 0, a.bids.Len())
	a.bids.Scan(func(o *order.PendingLimitOrder) bool {
		out = append(out, o)
		return true
	})
	return out
}

// Asks returns every resting Sell order, best first.
func (a *ActiveLimitOrders) Asks() []*order.PendingLimitOrder {
	out := make([]*order.PendingLimitOrder, 0, a.asks.Len())
	a.asks.Scan(func(o *order.PendingLimitOrder) bool {
		out = append(out, o)
		return true
	})
	return out
}
