package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"isolex/internal/config"
	"isolex/internal/currency"
)

const sampleConfig = `
contract:
  price_filter:
    min_price: 1
    max_price: 100000
    tick_size: 0.5
    multiplier_up: 1.1
    multiplier_down: 0.9
  quantity_filter:
    min_qty: 0.001
    max_qty: 1000
    step_size: 0.001
  init_margin_req: 0.1
  maint_margin_req: 0.05
  maker_fee_rate: 0.0002
  taker_fee_rate: 0.0005
account:
  starting_wallet_balance: 10000
rate_limits:
  max_order_actions_per_second: 20
max_active_orders: 50
`

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.StartingWalletBalance.Equal(currency.QuoteFromFloat(10000)))
	assert.Equal(t, 20, cfg.RateLimits.MaxOrderActionsPerSecond)
	assert.Equal(t, 50, cfg.MaxActiveOrders)
	assert.True(t, cfg.Contract.PriceFilter.TickSize.Equal(currency.QuoteFromFloat(0.5)))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
