package executors

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Symbol        string        `envconfig:"TARGET_SYMBOL" default:"SPY"`
	LoopPeriod    time.Duration `envconfig:"LOOP_PERIOD" default:"30s"`
	RetryPeriod   time.Duration `envconfig:"RETRY_PERIOD" default:"5s"`
	SyntheticSeed int64         `envconfig:"SYNTHETIC_SEED" default:"1"`
	ExecuteTrades bool          `envconfig:"EXECUTE_TRADES" default:"true"`
	AlertMaxAge   time.Duration `envconfig:"ALERT_MAX_AGE" default:"2h"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
