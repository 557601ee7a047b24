package connectors

import (
	"fmt"
	"time"

	"github.com/piquette/finance-go/quote"
	logger "github.com/sirupsen/logrus"

	"qppf/src/model"
)

// YahooFallback serves quotes when the primary market-data provider is
// unreachable. Yahoo carries no live bid/ask depth worth trusting, so those
// fields come back zero and downstream spread logic simply skips them.
type YahooFallback struct{}

func NewYahooFallback() *YahooFallback {
	return &YahooFallback{}
}

func (y *YahooFallback) GetQuote(symbol string) (*model.MarketData, error) {
	q, err := quote.Get(symbol)
	if err != nil {
		return nil, fmt.Errorf("%w: yahoo quote %s: %v", ErrUpstreamUnavailable, symbol, err)
	}
	if q == nil || q.RegularMarketPrice <= 0 {
		return nil, fmt.Errorf("%w: yahoo returned no price for %s", ErrNoQuote, symbol)
	}

	logger.WithField("symbol", symbol).Debug("served quote from yahoo fallback")

	return &model.MarketData{
		Symbol:    symbol,
		Price:     q.RegularMarketPrice,
		Volume:    int64(q.RegularMarketVolume),
		Bid:       q.Bid,
		Ask:       q.Ask,
		Timestamp: time.Now(),
	}, nil
}
