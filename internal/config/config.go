// Package config loads the exchange's instrument and account parameters
// from a TOML/YAML/JSON file via github.com/spf13/viper, the same
// configuration loader the wider example pack reaches for.
package config

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"isolex/internal/currency"
	"isolex/internal/filters"
)

// ContractSpec is the instrument's filters and margin/fee rates.
type ContractSpec struct {
	PriceFilter    filters.PriceFilter
	QuantityFilter filters.QuantityFilter
	InitMarginReq  decimal.Decimal
	MaintMarginReq decimal.Decimal
	MakerFeeRate   decimal.Decimal
	TakerFeeRate   decimal.Decimal
}

// OrderRateLimits bounds how many order actions an account may submit per
// trailing second.
type OrderRateLimits struct {
	MaxOrderActionsPerSecond int
}

// Config is everything needed to stand up an Exchange for a simulation
// run: the instrument spec, the account's starting wallet balance, rate
// limits, and the book's maximum resting-order capacity.
type Config struct {
	Contract            ContractSpec
	StartingWalletBalance currency.QuoteAmount
	RateLimits           OrderRateLimits
	MaxActiveOrders      int
}

// Load reads path (any format viper supports: toml, yaml, json) and builds
// a Config. Fields are read individually with v.GetFloat64/v.GetInt rather
// than a single Unmarshal, since currency.QuoteAmount/BaseAmount need to be
// constructed from the raw numeric values rather than decoded directly.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("max_active_orders", 200)
	v.SetDefault("rate_limits.max_order_actions_per_second", 10)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}

	cfg := Config{
		Contract: ContractSpec{
			PriceFilter: filters.PriceFilter{
				MinPrice:       currency.QuoteFromFloat(v.GetFloat64("contract.price_filter.min_price")),
				MaxPrice:       currency.QuoteFromFloat(v.GetFloat64("contract.price_filter.max_price")),
				TickSize:       currency.QuoteFromFloat(v.GetFloat64("contract.price_filter.tick_size")),
				MultiplierUp:   decimal.NewFromFloat(v.GetFloat64("contract.price_filter.multiplier_up")),
				MultiplierDown: decimal.NewFromFloat(v.GetFloat64("contract.price_filter.multiplier_down")),
			},
			QuantityFilter: filters.QuantityFilter{
				MinQty:   currency.BaseFromFloat(v.GetFloat64("contract.quantity_filter.min_qty")),
				MaxQty:   currency.BaseFromFloat(v.GetFloat64("contract.quantity_filter.max_qty")),
				StepSize: currency.BaseFromFloat(v.GetFloat64("contract.quantity_filter.step_size")),
			},
			InitMarginReq:  decimal.NewFromFloat(v.GetFloat64("contract.init_margin_req")),
			MaintMarginReq: decimal.NewFromFloat(v.GetFloat64("contract.maint_margin_req")),
			MakerFeeRate:   decimal.NewFromFloat(v.GetFloat64("contract.maker_fee_rate")),
			TakerFeeRate:   decimal.NewFromFloat(v.GetFloat64("contract.taker_fee_rate")),
		},
		StartingWalletBalance: currency.QuoteFromFloat(v.GetFloat64("account.starting_wallet_balance")),
		RateLimits: OrderRateLimits{
			MaxOrderActionsPerSecond: v.GetInt("rate_limits.max_order_actions_per_second"),
		},
		MaxActiveOrders: v.GetInt("max_active_orders"),
	}
	return cfg, nil
}
