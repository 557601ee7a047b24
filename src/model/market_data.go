package model

import "time"

// MarketData is a single quote snapshot for the underlying, as delivered by
// the market-data connector once per scoring cycle.
type MarketData struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Volume    int64     `json:"volume"`
	Bid       float64   `json:"bid"`
	Ask       float64   `json:"ask"`
	Timestamp time.Time `json:"timestamp"`
}

// SpreadPct returns the bid/ask spread as a fraction of price, or zero when
// the quote carries no usable bid/ask.
func (m MarketData) SpreadPct() float64 {
	if m.Price <= 0 || m.Bid <= 0 || m.Ask <= 0 || m.Ask < m.Bid {
		return 0
	}
	return (m.Ask - m.Bid) / m.Price
}
