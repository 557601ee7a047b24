package connectors

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	AlpacaAPIKey    string `envconfig:"ALPACA_API_KEY"`
	AlpacaAPISecret string `envconfig:"ALPACA_API_SECRET"`
	AlpacaBaseURL   string `envconfig:"ALPACA_BASE_URL" default:"https://paper-api.alpaca.markets"`
	AlpacaDataURL   string `envconfig:"ALPACA_DATA_URL" default:"https://data.alpaca.markets"`

	FlowSource     string   `envconfig:"FLOW_SOURCE" default:"websocket"` // websocket or kafka
	FlowWSURL      string   `envconfig:"FLOW_WS_URL"`
	FlowKafkaAddr  []string `envconfig:"FLOW_KAFKA_ADDR" default:"localhost:9092"`
	FlowKafkaTopic string   `envconfig:"FLOW_KAFKA_TOPIC" default:"options-flow-alerts"`
	FlowKafkaGroup string   `envconfig:"FLOW_KAFKA_GROUP" default:"qppf"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
