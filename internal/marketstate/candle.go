package marketstate

import (
	"isolex/internal/common"
	"isolex/internal/currency"
)

// Candle is a supplemented market-update variant, absent from the
// distilled surface but present in the original simulator's feed handling:
// an OHLC bar closing out an interval. Only Close feeds the tracked
// last-trade price; Open/High/Low are carried for completeness and for a
// harness that wants to replay candle-based scenarios.
type Candle struct {
	Open, High, Low, Close currency.QuoteAmount
	TimestampNs            common.TimestampNs
}

func (*Candle) isMarketUpdate() {}
