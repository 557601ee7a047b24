package executors

import (
	"context"
	"errors"
	"fmt"

	logger "github.com/sirupsen/logrus"

	"qppf/src/algorithm"
	"qppf/src/connectors"
	"qppf/src/controller"
	"qppf/src/gamma"
	"qppf/src/risk"
	"qppf/src/signal"
)

// BuildAlgorithm wires live connectors into a ready-to-run algorithm
// instance. The flow feed goroutine is started here; it runs until ctx is
// canceled and fills the shared alert buffer in the background.
func BuildAlgorithm(ctx context.Context, cfg Config) (*algorithm.Algorithm, error) {
	connCfg := connectors.GetConfig()

	if connCfg.AlpacaAPIKey == "" || connCfg.AlpacaAPISecret == "" {
		return nil, errors.New("ALPACA_API_KEY and ALPACA_API_SECRET must be set")
	}

	alpaca := connectors.NewAlpacaClient(
		connCfg.AlpacaAPIKey,
		connCfg.AlpacaAPISecret,
		connCfg.AlpacaBaseURL,
		connCfg.AlpacaDataURL,
	)

	buffer := connectors.NewAlertBuffer(cfg.AlertMaxAge)

	switch connCfg.FlowSource {
	case "websocket":
		if connCfg.FlowWSURL == "" {
			logger.Warn("FLOW_WS_URL not set, running without live options flow")
		} else {
			ws := connectors.NewFlowWebsocket(connCfg.FlowWSURL, cfg.Symbol, buffer)
			go ws.Run(ctx)
		}

	case "kafka":
		consumer, err := connectors.NewFlowKafka(
			connCfg.FlowKafkaAddr,
			connCfg.FlowKafkaGroup,
			connCfg.FlowKafkaTopic,
			buffer,
		)
		if err != nil {
			return nil, fmt.Errorf("kafka flow source: %w", err)
		}
		go consumer.Run(ctx)
		go func() {
			<-ctx.Done()
			if err := consumer.Close(); err != nil {
				logger.WithError(err).Warn("kafka consumer close failed")
			}
		}()

	default:
		return nil, fmt.Errorf("unknown FLOW_SOURCE %q", connCfg.FlowSource)
	}

	scorerCfg := signal.GetConfig()

	deps := algorithm.Deps{
		Estimator: gamma.NewEstimator(cfg.SyntheticSeed),
		Scorer:    signal.NewScorer(scorerCfg),
		ScorerCfg: scorerCfg,
		RiskMgr:   risk.NewManager(risk.GetConfig()),
		Market:    alpaca,
		Fallback:  connectors.NewYahooFallback(),
		Flow:      buffer,
		Account:   alpaca,
	}

	if cfg.ExecuteTrades {
		deps.Executor = controller.NewTradeController(alpaca)
	} else {
		logger.Warn("trade execution disabled, running signal-only")
	}

	return algorithm.New(cfg.Symbol, deps), nil
}

// StartLoop builds the algorithm from the environment and runs it until ctx
// is canceled.
func StartLoop(ctx context.Context) error {
	config := GetConfig()

	algo, err := BuildAlgorithm(ctx, config)
	if err != nil {
		return err
	}

	return algo.Start(ctx, config.LoopPeriod, config.RetryPeriod)
}
