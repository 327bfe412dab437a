package marketstate

import (
	"isolex/internal/common"
	"isolex/internal/currency"
)

// Bba is a best-bid/best-ask quote update. Either side may be absent (a
// one-sided book update), signalled by HasBid/HasAsk rather than a
// sentinel price.
type Bba struct {
	BidPrice currency.QuoteAmount
	HasBid   bool
	AskPrice currency.QuoteAmount
	HasAsk   bool

	TimestampNs common.TimestampNs
}

func (*Bba) isMarketUpdate() {}
