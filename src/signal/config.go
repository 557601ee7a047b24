package signal

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config carries every scoring threshold as a named value. Defaults match
// the tuned production values; none of them should appear inline in scoring
// code.
type Config struct {
	SentimentWindow time.Duration `envconfig:"FLOW_SENTIMENT_WINDOW" default:"2h"`
	RecentWindow    time.Duration `envconfig:"FLOW_RECENT_WINDOW" default:"30m"`

	LargeTradePremium   float64 `envconfig:"LARGE_TRADE_PREMIUM" default:"50000"`
	UnusualFlowAlerts   int     `envconfig:"UNUSUAL_FLOW_ALERTS" default:"2"`
	DominantSentimentAt float64 `envconfig:"DOMINANT_SENTIMENT_AT" default:"0.2"`

	SentimentOverride    float64 `envconfig:"SENTIMENT_OVERRIDE" default:"0.4"`
	StrongSentiment      float64 `envconfig:"STRONG_SENTIMENT" default:"0.5"`
	ModerateSentiment    float64 `envconfig:"MODERATE_SENTIMENT" default:"0.3"`
	HighVolume           int64   `envconfig:"HIGH_VOLUME" default:"30000000"`
	LowVolume            int64   `envconfig:"LOW_VOLUME" default:"1000000"`
	TightSpreadPct       float64 `envconfig:"TIGHT_SPREAD_PCT" default:"0.0001"`
	InstitutionalPremium float64 `envconfig:"INSTITUTIONAL_PREMIUM" default:"25000"`
	InstitutionalAlerts  int     `envconfig:"INSTITUTIONAL_ALERTS" default:"10"`
	ZGLDistancePct       float64 `envconfig:"ZGL_DISTANCE_PCT" default:"0.02"`
	MomentumPeriods      int     `envconfig:"MOMENTUM_PERIODS" default:"3"`

	// MarketHoursBias adds a bullish direction vote during regular trading
	// hours. The heuristic is unvalidated, so it ships off; flip it on only
	// if you have evidence for your symbol.
	MarketHoursBias bool `envconfig:"MARKET_HOURS_BIAS" default:"false"`

	MinVotes int `envconfig:"DIRECTION_MIN_VOTES" default:"2"`
}

// GetConfig loads scorer thresholds from the environment.
func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}

// DefaultConfig returns the tuned defaults without touching the environment.
func DefaultConfig() Config {
	return Config{
		SentimentWindow:      2 * time.Hour,
		RecentWindow:         30 * time.Minute,
		LargeTradePremium:    50000,
		UnusualFlowAlerts:    2,
		DominantSentimentAt:  0.2,
		SentimentOverride:    0.4,
		StrongSentiment:      0.5,
		ModerateSentiment:    0.3,
		HighVolume:           30000000,
		LowVolume:            1000000,
		TightSpreadPct:       0.0001,
		InstitutionalPremium: 25000,
		InstitutionalAlerts:  10,
		ZGLDistancePct:       0.02,
		MomentumPeriods:      3,
		MarketHoursBias:      false,
		MinVotes:             2,
	}
}
