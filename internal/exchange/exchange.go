// Package exchange orchestrates a single simulated account against a
// single instrument: one order book, one position, one balance sheet,
// driven synchronously by market updates and order intents. There is no
// concurrency inside Exchange; callers serialize access the way the
// teacher's engine serializes access to a single instrument's book.
package exchange

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"isolex/internal/balances"
	"isolex/internal/book"
	"isolex/internal/common"
	"isolex/internal/config"
	"isolex/internal/currency"
	"isolex/internal/margin"
	"isolex/internal/marketstate"
	"isolex/internal/order"
	"isolex/internal/position"
	"isolex/internal/ratelimit"
	"isolex/internal/risk"
)

// Exchange is the deterministic, single-account, single-instrument
// exchange simulator: the composition root for every package above it.
type Exchange struct {
	risk        risk.RiskEngine
	market      *marketstate.MarketState
	book        *book.ActiveLimitOrders
	orderMargin *margin.OrderMargin
	bal         *balances.Balances
	pos         *position.Position
	rateLimiter *ratelimit.OrderRateLimiter

	nextOrderID common.OrderID

	// liquidated is sticky: it records that this account has been force-
	// liquidated at least once, for Account() observability. It does not
	// gate further activity — once a liquidation flattens the position to
	// Neutral, the account keeps trading exactly like any other Neutral
	// account, matching the original simulator's single forced-close-then-
	// resume behavior rather than a permanent halt.
	liquidated bool

	// fillEvents buffers the LimitOrderFill events produced by the most
	// recent UpdateState call. It is preallocated to MaxActiveOrders and
	// reset (not reallocated) at the start of every check_active_orders
	// pass, matching spec §5's allocation rule: the hot fill loop inside
	// UpdateState never allocates.
	fillEvents []order.LimitOrderFill
}

// New builds an Exchange from a loaded config, with an empty book, a flat
// position, and the configured starting wallet balance.
func New(cfg config.Config) *Exchange {
	b := book.New(cfg.MaxActiveOrders)
	return &Exchange{
		risk: risk.RiskEngine{
			PriceFilter:    cfg.Contract.PriceFilter,
			QuantityFilter: cfg.Contract.QuantityFilter,
			InitMarginReq:  cfg.Contract.InitMarginReq,
			MaintMarginReq: cfg.Contract.MaintMarginReq,
			TakerFeeRate:   cfg.Contract.TakerFeeRate,
			MakerFeeRate:   cfg.Contract.MakerFeeRate,
		},
		market:      marketstate.New(),
		book:        b,
		orderMargin: margin.New(b),
		bal:         balances.New(cfg.StartingWalletBalance),
		pos:         &position.Position{},
		rateLimiter: ratelimit.New(cfg.RateLimits.MaxOrderActionsPerSecond),
		fillEvents:  make([]order.LimitOrderFill, 0, cfg.MaxActiveOrders),
	}
}

// Account is a read-only snapshot of everything client code can observe
// about the simulated account at a point in time.
type Account struct {
	Balances          *balances.Balances
	Position          *position.Position
	ActiveLimitOrders *book.ActiveLimitOrders
	Liquidated        bool
}

func (e *Exchange) Account() Account {
	return Account{
		Balances:          e.bal,
		Position:          e.pos,
		ActiveLimitOrders: e.book,
		Liquidated:        e.liquidated,
	}
}

func (e *Exchange) MarketState() *marketstate.MarketState { return e.market }

func (e *Exchange) assignOrderID() common.OrderID {
	e.nextOrderID++
	return e.nextOrderID
}

// UpdateState feeds a market update into the exchange: the tracked market
// state absorbs it first, then any resting limit orders it crossed are
// filled, then the position is checked against maintenance margin and
// liquidated if it has fallen through. The returned slice is a borrow of
// the exchange's own fill-events buffer — valid until the next call to
// UpdateState, not owned by the caller.
func (e *Exchange) UpdateState(u marketstate.MarketUpdate, now common.TimestampNs) ([]order.LimitOrderFill, error) {
	e.fillEvents = e.fillEvents[:0]
	if err := e.market.UpdateState(u, e.risk.PriceFilter); err != nil {
		return e.fillEvents, err
	}
	if trade, ok := u.(*marketstate.Trade); ok {
		e.checkActiveOrders(trade, now)
	}
	return e.fillEvents, e.checkMaintenanceMargin(now)
}

// checkActiveOrders sweeps the resting book against a single trade print,
// in price-time priority, filling every order the print crosses until
// either the book runs dry of crossable orders or one order takes up the
// print's whole quantity (see sweepSide). A Sell-side print can only ever cross resting bids and
// a Buy-side print only resting asks, so only one of the two loops below
// ever does anything for a given print; this mirrors the original
// simulator's check_active_orders, which walks each side independently.
func (e *Exchange) checkActiveOrders(t *marketstate.Trade, now common.TimestampNs) {
	if t.CanFillBids() {
		e.sweepSide(t, e.book.PeekBestBid, now)
	}
	if t.CanFillAsks() {
		e.sweepSide(t, e.book.PeekBestAsk, now)
	}
}

// sweepSide repeatedly peeks the best resting order on one side and fills
// it against the trade print, each order for the smaller of its own
// remaining quantity and the print's Quantity. It stops when peek finds
// nothing left, when the best remaining order is one FillsOrder rejects, or
// right after filling an order whose remaining quantity was at least the
// print's Quantity (the print is used up on that order). The print's own
// Quantity is never decremented across these fills (spec §9): every order
// before that one is filled in full, so one trade print can over-fill
// relative to what it actually printed. This is a documented
// simulator-fidelity limitation, not a bug.
func (e *Exchange) sweepSide(t *marketstate.Trade, peek func() (*order.PendingLimitOrder, bool), now common.TimestampNs) {
	for {
		victim, ok := peek()
		if !ok || !t.FillsOrder(victim) {
			return
		}
		fillQty := currency.MinBase(victim.RemainingQuantity, t.Quantity)
		exhausted := !t.Quantity.GreaterThan(victim.RemainingQuantity)
		e.fillLimitOrder(victim, fillQty, t.Price, now)
		if exhausted {
			return
		}
	}
}

func (e *Exchange) fillLimitOrder(o *order.PendingLimitOrder, filledQty currency.BaseAmount, price currency.QuoteAmount, now common.TimestampNs) {
	fee := currency.ConvertToQuote(filledQty, price).Mul(e.risk.MakerFeeRate)
	side := o.Side

	event := o.Fill(filledQty, fee)
	if event.Kind == order.FullyFilled {
		e.book.RemoveByID(o.ID())
	}

	e.bal.AccountForFee(fee)
	e.pos.Change(filledQty, price, side, e.bal, e.risk.InitMarginReq)
	e.orderMargin.FillOrder(e.bal, e.pos, e.risk.InitMarginReq)
	e.fillEvents = append(e.fillEvents, event)

	log.Debug().
		Uint64("orderID", uint64(o.ID())).
		Str("side", side.String()).
		Str("qty", filledQty.String()).
		Str("price", price.String()).
		Msg("limit order filled")
}

// SubmitMarketOrder validates and immediately settles a market order
// against the current best opposite quote. Market orders always fill in
// full in this simulator; there is no partial market fill.
func (e *Exchange) SubmitMarketOrder(o *order.NewMarketOrder, now common.TimestampNs) (*order.FilledMarketOrder, error) {
	if err := e.rateLimiter.Acquire(now); err != nil {
		return nil, err
	}

	against, hasAgainst := e.oppositeBestQuote(o.Side)
	if err := e.risk.CheckMarketOrder(o, against, hasAgainst, e.pos, e.bal); err != nil {
		return nil, err
	}

	meta := order.ExchangeOrderMeta{OrderID: e.assignOrderID(), SubmitTimestampNs: now}
	pending := o.IntoPending(meta)

	fee := currency.ConvertToQuote(o.Quantity, against).Mul(e.risk.TakerFeeRate)
	e.bal.AccountForFee(fee)
	e.pos.Change(o.Quantity, against, o.Side, e.bal, e.risk.InitMarginReq)

	filled := pending.IntoFilled(against, now)
	log.Info().
		Uint64("orderID", uint64(filled.ID())).
		Str("side", o.Side.String()).
		Str("qty", o.Quantity.String()).
		Str("price", against.String()).
		Msg("market order filled")

	if err := e.checkMaintenanceMargin(now); err != nil {
		return filled, err
	}
	return filled, nil
}

func (e *Exchange) oppositeBestQuote(side common.Side) (currency.QuoteAmount, bool) {
	if side == common.Buy {
		a, ok := e.market.Ask()
		return a, ok
	}
	b, ok := e.market.Bid()
	return b, ok
}

// SubmitLimitOrder validates and inserts a new resting limit order.
func (e *Exchange) SubmitLimitOrder(o *order.NewLimitOrder, now common.TimestampNs) (*order.PendingLimitOrder, error) {
	if err := e.rateLimiter.Acquire(now); err != nil {
		return nil, err
	}
	return e.insertLimitOrder(o, now, nil)
}

// insertLimitOrder is the risk-check-and-insert logic shared by
// SubmitLimitOrder and the non-degenerate branch of AmendLimitOrder. It
// does not itself consult the rate limiter: callers own that decision, so
// an amend's cancel-then-resubmit can be metered as whole operations rather
// than accidentally consuming the budget twice for the insert alone.
//
// remainingOverride, when non-nil, replaces the resting order's remaining
// quantity immediately after acceptance and before order-margin
// reservation — normally it equals the order's total quantity, but an
// amend's resubmitted order rests at its computed new_leaves quantity
// instead (spec §4.9), and margin must be reserved against that, not
// against the full total quantity.
func (e *Exchange) insertLimitOrder(o *order.NewLimitOrder, now common.TimestampNs, remainingOverride *currency.BaseAmount) (*order.PendingLimitOrder, error) {
	mid, hasMid := e.market.MidPrice()
	bestOpposite, hasBestOpposite := e.oppositeBestQuote(o.Side)
	if err := e.risk.CheckLimitOrder(o, mid, hasMid, bestOpposite, hasBestOpposite, e.orderMargin, e.bal, e.pos); err != nil {
		return nil, err
	}

	meta := order.ExchangeOrderMeta{OrderID: e.assignOrderID(), SubmitTimestampNs: now}
	pending := o.IntoPending(meta)
	if remainingOverride != nil {
		pending.SetRemainingQuantity(*remainingOverride)
	}
	if err := e.orderMargin.TryInsert(pending, e.bal, e.pos, e.risk.InitMarginReq); err != nil {
		return nil, err
	}

	log.Info().
		Uint64("orderID", uint64(pending.ID())).
		Str("side", o.Side.String()).
		Str("price", o.LimitPrice.String()).
		Str("qty", pending.RemainingQuantity.String()).
		Msg("limit order accepted")
	return pending, nil
}

// AmendLimitOrder re-prices or re-sizes a resting order by cancelling it
// and resubmitting a replacement. This is not atomic: between the cancel
// and the resubmit the freed order margin is briefly visible as available
// balance, exactly mirroring the teacher's own amend-as-cancel-then-submit
// shape. When the new quantity is less than or equal to the quantity
// already filled, the amend degenerates into a plain cancel, following the
// CBOE convention of comparing the amend's delta against the leaves
// quantity rather than the original total quantity. An id that was never
// issued returns OrderIDNotFound; an id that was issued but is no longer
// resting (filled or already cancelled) returns OrderNoLongerActive.
func (e *Exchange) AmendLimitOrder(existingOID common.OrderID, replacement *order.NewLimitOrder, now common.TimestampNs) (*order.PendingLimitOrder, error) {
	if err := e.rateLimiter.Acquire(now); err != nil {
		return nil, err
	}

	existing, ok := e.book.GetByID(existingOID, replacement.Side)
	if !ok {
		// nextOrderID holds the most recently issued id (ids start at 1).
		if existingOID > 0 && existingOID <= e.nextOrderID {
			return nil, common.ErrOrderNoLongerActive
		}
		return nil, &common.OrderIDNotFound{OrderID: existingOID}
	}

	// new_leaves is the leaves quantity the amended order would carry
	// forward: its current remaining quantity plus the delta the amend
	// applies to the original total quantity, the CBOE convention of
	// applying the amend's size delta to the leaves rather than re-basing
	// leaves off the new total outright.
	newLeaves := existing.RemainingQuantity.Add(replacement.TotalQuantity.Sub(existing.TotalQuantity))
	if !newLeaves.IsPositive() {
		if _, err := e.cancelLimitOrder(margin.CancelBy{OrderID: existingOID}); err != nil {
			return nil, err
		}
		return nil, common.ErrAmendQtyAlreadyFilled
	}

	if _, err := e.cancelLimitOrder(margin.CancelBy{OrderID: existingOID}); err != nil {
		return nil, err
	}
	return e.insertLimitOrder(replacement, now, &newLeaves)
}

// CancelLimitOrder removes a resting order and frees its order margin.
func (e *Exchange) CancelLimitOrder(by margin.CancelBy, now common.TimestampNs) (*order.PendingLimitOrder, error) {
	if err := e.rateLimiter.Acquire(now); err != nil {
		return nil, err
	}
	return e.cancelLimitOrder(by)
}

// cancelLimitOrder is the shared cancel logic behind CancelLimitOrder and
// AmendLimitOrder's inner cancel-then-resubmit. It does not itself consult
// the rate limiter: AmendLimitOrder meters the whole amend as a single
// action, not the cancel half of it separately.
func (e *Exchange) cancelLimitOrder(by margin.CancelBy) (*order.PendingLimitOrder, error) {
	return e.orderMargin.Remove(by, e.bal, e.pos, e.risk.InitMarginReq)
}

func (e *Exchange) checkMaintenanceMargin(now common.TimestampNs) error {
	mark, hasMark := e.market.MarkPrice()
	if !hasMark || e.pos.IsNeutral() {
		return nil
	}
	if err := e.risk.CheckMaintenanceMargin(e.pos, mark, e.bal); err != nil {
		e.liquidate(mark, now)
		return err
	}
	return nil
}

// liquidate closes the entire position with a full-quantity market order
// on the opposite side: a Long position is closed with a Sell, a Short
// position with a Buy, matching the original simulator's liquidate. The
// fill price is the current opposite-side best quote, the same price a
// regular market order of that side would get, falling back to the mark
// price when that side of the book is empty. Liquidating a Neutral
// position is a programming error: the maintenance-margin check that
// calls this never fires without an open position.
func (e *Exchange) liquidate(mark currency.QuoteAmount, now common.TimestampNs) {
	var side common.Side
	switch e.pos.Side() {
	case position.Long:
		side = common.Sell
	case position.Short:
		side = common.Buy
	default:
		panic(fmt.Sprintf("exchange: liquidate called with no open position at %d", now))
	}

	fillPrice, ok := e.oppositeBestQuote(side)
	if !ok {
		fillPrice = mark
	}

	qty := e.pos.Quantity()
	fee := currency.ConvertToQuote(qty, fillPrice).Mul(e.risk.TakerFeeRate)
	e.bal.AccountForFee(fee)
	e.pos.Change(qty, fillPrice, side, e.bal, e.risk.InitMarginReq)
	e.liquidated = true

	log.Warn().
		Str("side", side.String()).
		Str("qty", qty.String()).
		Str("fillPrice", fillPrice.String()).
		Msg("position liquidated")
}
