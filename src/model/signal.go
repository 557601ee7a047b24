package model

import "time"

// Direction is the scorer's trading call for the next cycle.
type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
	DirectionFlat  Direction = "FLAT"
)

// Sentiment labels for dominant options-flow positioning.
const (
	SentimentBullish = "bullish"
	SentimentBearish = "bearish"
	SentimentNeutral = "neutral"
)

// FlowSentiment summarizes the rolling options-flow alert window.
type FlowSentiment struct {
	SentimentScore    float64 `json:"sentiment_score"` // [-1, 1]
	TotalAlertCount   int     `json:"total_alert_count"`
	RecentAlertCount  int     `json:"recent_alert_count"`
	BullishCount      int     `json:"bullish_count"`
	BearishCount      int     `json:"bearish_count"`
	AvgPremium        float64 `json:"avg_premium"`
	LargeTradeCount   int     `json:"large_trade_count"`
	HasUnusualFlow    bool    `json:"has_unusual_flow"`
	DominantSentiment string  `json:"dominant_sentiment"`
}

// Signal is the composite output of one scoring cycle. Immutable once
// produced; only the latest signal is retained in process state.
type Signal struct {
	Symbol        string        `json:"symbol"`
	Direction     Direction     `json:"direction"`
	Confidence    float64       `json:"confidence"` // [0, 0.95]
	Strength      float64       `json:"strength"`   // [0, 1]
	Sentiment     string        `json:"sentiment"`
	LongReasons   []string      `json:"long_reasons"`
	ShortReasons  []string      `json:"short_reasons"`
	MarketData    MarketData    `json:"market_data"`
	FlowSentiment FlowSentiment `json:"flow_sentiment"`
	GEXProfile    *GEXProfile   `json:"gex_profile,omitempty"`
	Timestamp     time.Time     `json:"timestamp"`
}
