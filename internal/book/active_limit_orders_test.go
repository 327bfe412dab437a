package book_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"isolex/internal/book"
	"isolex/internal/common"
	"isolex/internal/currency"
	"isolex/internal/order"
)

func limitOrder(id common.OrderID, side common.Side, price float64, qty float64) *order.PendingLimitOrder {
	n := order.NewLimitOrder{
		Side:          side,
		LimitPrice:    currency.QuoteFromFloat(price),
		TotalQuantity: currency.BaseFromFloat(qty),
	}
	return n.IntoPending(order.ExchangeOrderMeta{OrderID: id})
}

func TestBestBidAskOrdering(t *testing.T) {
	b := book.New(10)
	require.NoError(t, b.Insert(limitOrder(1, common.Buy, 100, 1)))
	require.NoError(t, b.Insert(limitOrder(2, common.Buy, 105, 1)))
	require.NoError(t, b.Insert(limitOrder(3, common.Sell, 110, 1)))
	require.NoError(t, b.Insert(limitOrder(4, common.Sell, 108, 1)))

	bestBid, ok := b.PeekBestBid()
	require.True(t, ok)
	assert.True(t, bestBid.LimitPrice.Equal(currency.QuoteFromFloat(105)))

	bestAsk, ok := b.PeekBestAsk()
	require.True(t, ok)
	assert.True(t, bestAsk.LimitPrice.Equal(currency.QuoteFromFloat(108)))
}

func TestCapacityLimit(t *testing.T) {
	b := book.New(1)
	require.NoError(t, b.Insert(limitOrder(1, common.Buy, 100, 1)))
	err := b.Insert(limitOrder(2, common.Buy, 101, 1))
	assert.ErrorIs(t, err, common.ErrMaxActiveOrders)
}

func TestRemoveByIDAndUserID(t *testing.T) {
	b := book.New(10)
	o := limitOrder(1, common.Buy, 100, 1)
	o.UserOrderID = "abc"
	require.NoError(t, b.Insert(o))

	_, ok := b.GetByID(1, common.Buy)
	assert.True(t, ok)

	removed, ok := b.RemoveByUserID("abc")
	require.True(t, ok)
	assert.Equal(t, common.OrderID(1), removed.ID())
	assert.True(t, b.IsEmpty())
}

func TestTiebreakByOrderIDFIFO(t *testing.T) {
	b := book.New(10)
	require.NoError(t, b.Insert(limitOrder(1, common.Buy, 100, 1)))
	require.NoError(t, b.Insert(limitOrder(2, common.Buy, 100, 1)))

	bids := b.Bids()
	require.Len(t, bids, 2)
	assert.Equal(t, common.OrderID(1), bids[0].ID())
	assert.Equal(t, common.OrderID(2), bids[1].ID())
}
