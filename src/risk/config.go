package risk

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config is the portfolio risk policy. Every limit is configuration, not an
// inline literal in sizing code.
type Config struct {
	// MaxTradeRisk is the fraction of portfolio value put at risk by one
	// full-confidence trade.
	MaxTradeRisk float64 `envconfig:"MAX_TRADE_RISK" default:"0.02"`

	// MaxPortfolioRisk caps total position exposure as a fraction of
	// portfolio value.
	MaxPortfolioRisk float64 `envconfig:"MAX_PORTFOLIO_RISK" default:"0.5"`

	MaxPositionCount int `envconfig:"MAX_POSITION_COUNT" default:"5"`

	MinConfidence float64 `envconfig:"MIN_CONFIDENCE" default:"0.6"`
	MaxRiskScore  float64 `envconfig:"MAX_RISK_SCORE" default:"0.7"`
}

// GetConfig loads the risk policy from the environment.
func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}

// DefaultConfig returns the standard paper-trading policy.
func DefaultConfig() Config {
	return Config{
		MaxTradeRisk:     0.02,
		MaxPortfolioRisk: 0.5,
		MaxPositionCount: 5,
		MinConfidence:    0.6,
		MaxRiskScore:     0.7,
	}
}
