// Command simulate replays a scenario file of market updates and order
// intents through a single exchange.Exchange and prints the resulting
// account snapshot. It is a thin ambient harness, not a wire protocol: the
// teacher's internal/net request/response server is not reproduced here,
// since this simulator drives itself from a scenario file rather than
// serving live clients.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"isolex/internal/common"
	"isolex/internal/config"
	"isolex/internal/currency"
	"isolex/internal/exchange"
	"isolex/internal/margin"
	"isolex/internal/marketstate"
	"isolex/internal/order"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the exchange/account config file")
	scenarioPath := flag.String("scenario", "", "path to the scenario file to replay")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if *scenarioPath == "" {
		log.Fatal().Msg("simulate: -scenario is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("simulate: loading config")
	}

	scn, err := loadScenario(*scenarioPath)
	if err != nil {
		log.Fatal().Err(err).Msg("simulate: loading scenario")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var t tomb.Tomb
	ex := exchange.New(cfg)

	t.Go(func() error {
		return replay(&t, ctx, ex, scn)
	})

	select {
	case <-ctx.Done():
		t.Kill(ctx.Err())
	case <-t.Dead():
	}

	if err := t.Wait(); err != nil && err != context.Canceled {
		log.Error().Err(err).Msg("simulate: replay ended with error")
	}

	printAccount(ex)
}

// replay drives every event in the scenario through the exchange in
// order, stopping early if the tomb starts dying (signal received).
func replay(t *tomb.Tomb, ctx context.Context, ex *exchange.Exchange, scn *scenario) error {
	for _, evt := range scn.Events {
		select {
		case <-t.Dying():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := applyEvent(ex, evt); err != nil {
			log.Warn().Err(err).Str("eventType", evt.Type).Msg("simulate: event rejected")
		}
	}
	return nil
}

func applyEvent(ex *exchange.Exchange, evt scenarioEvent) error {
	now := common.TimestampNs(evt.TimestampNs)
	switch evt.Type {
	case "bba":
		bid, hasBid := evt.BidPrice, evt.BidPrice != nil
		ask, hasAsk := evt.AskPrice, evt.AskPrice != nil
		u := &marketstate.Bba{TimestampNs: now}
		if hasBid {
			u.BidPrice, u.HasBid = currency.QuoteFromFloat(*bid), true
		}
		if hasAsk {
			u.AskPrice, u.HasAsk = currency.QuoteFromFloat(*ask), true
		}
		fills, err := ex.UpdateState(u, now)
		logFills(fills)
		return err

	case "trade":
		price := currency.QuoteFromFloat(evt.Price)
		qty := currency.BaseFromFloat(evt.Quantity)
		fills, err := ex.UpdateState(&marketstate.Trade{
			Price:       price,
			Quantity:    qty,
			Side:        parseSide(evt.Side),
			TimestampNs: now,
		}, now)
		logFills(fills)
		return err

	case "candle":
		u := &marketstate.Candle{
			Open:        currency.QuoteFromFloat(evt.Open),
			High:        currency.QuoteFromFloat(evt.High),
			Low:         currency.QuoteFromFloat(evt.Low),
			Close:       currency.QuoteFromFloat(evt.Close),
			TimestampNs: now,
		}
		fills, err := ex.UpdateState(u, now)
		logFills(fills)
		return err

	case "market_order":
		o := &order.NewMarketOrder{
			Side:        parseSide(evt.Side),
			Quantity:    currency.BaseFromFloat(evt.Quantity),
			UserOrderID: userOrderID(evt.UserOrderID),
		}
		_, err := ex.SubmitMarketOrder(o, now)
		return err

	case "limit_order":
		o := &order.NewLimitOrder{
			Side:          parseSide(evt.Side),
			LimitPrice:    currency.QuoteFromFloat(evt.Price),
			TotalQuantity: currency.BaseFromFloat(evt.Quantity),
			RePricing:     order.GoodTillCrossing,
			UserOrderID:   userOrderID(evt.UserOrderID),
		}
		_, err := ex.SubmitLimitOrder(o, now)
		return err

	case "cancel":
		_, err := ex.CancelLimitOrder(margin.CancelBy{OrderID: common.OrderID(evt.OrderID)}, now)
		return err

	default:
		return fmt.Errorf("simulate: unknown event type %q", evt.Type)
	}
}

// logFills prints each LimitOrderFill event a market update produced, the
// same way the teacher's net server logs each outbound execution report.
func logFills(fills []order.LimitOrderFill) {
	for _, f := range fills {
		log.Info().
			Uint64("orderID", uint64(f.OrderID)).
			Str("side", f.Side.String()).
			Str("qty", f.FilledQty.String()).
			Str("fee", f.Fee.String()).
			Bool("fullyFilled", f.Kind == order.FullyFilled).
			Msg("simulate: limit order fill")
	}
}

func parseSide(s string) common.Side {
	if s == "sell" {
		return common.Sell
	}
	return common.Buy
}

// userOrderID tags the event with its own id if given, otherwise mints a
// fresh one so every order submitted through this harness is traceable
// even when the scenario file doesn't bother assigning one.
func userOrderID(given string) common.UserOrderID {
	if given != "" {
		return common.UserOrderID(given)
	}
	return common.UserOrderID(uuid.NewString())
}

type scenario struct {
	Events []scenarioEvent `json:"events"`
}

type scenarioEvent struct {
	Type        string   `json:"type"`
	TimestampNs int64    `json:"timestamp_ns"`
	BidPrice    *float64 `json:"bid_price,omitempty"`
	AskPrice    *float64 `json:"ask_price,omitempty"`
	Price       float64  `json:"price,omitempty"`
	Quantity    float64  `json:"quantity,omitempty"`
	Open        float64  `json:"open,omitempty"`
	High        float64  `json:"high,omitempty"`
	Low         float64  `json:"low,omitempty"`
	Close       float64  `json:"close,omitempty"`
	Side        string   `json:"side,omitempty"`
	UserOrderID string   `json:"user_order_id,omitempty"`
	OrderID     uint64   `json:"order_id,omitempty"`
}

func loadScenario(path string) (*scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var scn scenario
	if err := json.Unmarshal(raw, &scn); err != nil {
		return nil, err
	}
	return &scn, nil
}

func printAccount(ex *exchange.Exchange) {
	acct := ex.Account()
	fmt.Printf("wallet_balance=%s available=%s position_margin=%s order_margin=%s fees_paid=%s realized_pnl=%s\n",
		acct.Balances.WalletBalance(),
		acct.Balances.Available(),
		acct.Balances.PositionMargin(),
		acct.Balances.OrderMargin(),
		acct.Balances.FeesPaid(),
		acct.Balances.RealizedPnL(),
	)
	fmt.Printf("position_side=%s quantity=%s entry_price=%s\n",
		acct.Position.Side(), acct.Position.Quantity(), acct.Position.EntryPrice())
	fmt.Printf("active_orders=%d liquidated=%v\n", acct.ActiveLimitOrders.NumActive(), acct.Liquidated)
}
