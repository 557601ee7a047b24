package algorithm

import (
	"context"
	"fmt"
	"sync"
	"time"

	logger "github.com/sirupsen/logrus"

	"qppf/src/gamma"
	"qppf/src/model"
	"qppf/src/risk"
	"qppf/src/signal"
)

// Collaborator boundaries. The algorithm owns none of the I/O; everything
// arrives through these interfaces so instances for different symbols (or
// tests) can run with independent wiring and no shared globals.
type MarketDataProvider interface {
	GetQuote(ctx context.Context, symbol string) (*model.MarketData, error)
}

type QuoteFallback interface {
	GetQuote(symbol string) (*model.MarketData, error)
}

type AlertSource interface {
	Snapshot(now time.Time) []model.FlowAlert
}

type AccountProvider interface {
	GetAccount(ctx context.Context) (*model.AlpacaAccount, error)
	GetPositions(ctx context.Context) ([]model.AlpacaPosition, error)
}

type TradeExecutor interface {
	Execute(ctx context.Context, sig model.Signal, assessment model.RiskAssessment) (*model.Order, error)
}

// Algorithm is one symbol's signal-and-risk pipeline: estimator, scorer and
// risk manager wired to live collaborators, plus the owned per-symbol state.
type Algorithm struct {
	symbol string
	log    *logger.Entry

	estimator *gamma.Estimator
	scorer    *signal.Scorer
	scorerCfg signal.Config
	riskMgr   *risk.Manager

	market   MarketDataProvider
	fallback QuoteFallback
	flow     AlertSource
	account  AccountProvider
	executor TradeExecutor

	state *State
	now   func() time.Time

	mu               sync.RWMutex
	latestSignal     *model.Signal
	latestAssessment *model.RiskAssessment
}

type Deps struct {
	Estimator *gamma.Estimator
	Scorer    *signal.Scorer
	ScorerCfg signal.Config
	RiskMgr   *risk.Manager
	Market    MarketDataProvider
	Fallback  QuoteFallback
	Flow      AlertSource
	Account   AccountProvider
	Executor  TradeExecutor
}

func New(symbol string, deps Deps) *Algorithm {
	return &Algorithm{
		symbol:    symbol,
		log:       logger.WithField("symbol", symbol),
		estimator: deps.Estimator,
		scorer:    deps.Scorer,
		scorerCfg: deps.ScorerCfg,
		riskMgr:   deps.RiskMgr,
		market:    deps.Market,
		fallback:  deps.Fallback,
		flow:      deps.Flow,
		account:   deps.Account,
		executor:  deps.Executor,
		state:     NewState(symbol),
		now:       time.Now,
	}
}

// Symbol returns the instrument this instance trades.
func (a *Algorithm) Symbol() string { return a.symbol }

// State exposes the owned per-symbol state for the HTTP surface.
func (a *Algorithm) State() *State { return a.state }

// LatestSignal returns the most recent signal, nil before the first cycle.
func (a *Algorithm) LatestSignal() *model.Signal {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.latestSignal
}

// LatestAssessment returns the most recent risk assessment, nil before the
// first cycle.
func (a *Algorithm) LatestAssessment() *model.RiskAssessment {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.latestAssessment
}

// Reset clears the per-symbol state and retained outputs.
func (a *Algorithm) Reset() {
	a.state.Reset()
	a.mu.Lock()
	a.latestSignal = nil
	a.latestAssessment = nil
	a.mu.Unlock()
}

// RunCycle executes one full fetch-score-assess-execute pass. It always
// produces a signal when any price is obtainable; only a total market-data
// outage with no history returns an error, which the loop treats as a
// backoff-and-retry condition.
func (a *Algorithm) RunCycle(ctx context.Context) (*model.Signal, error) {
	now := a.now()

	md, err := a.fetchMarketData(ctx)
	if err != nil {
		return nil, err
	}

	a.state.AppendTick(md.Price, md.Volume)

	var alerts []model.FlowAlert
	if a.flow != nil {
		alerts = a.flow.Snapshot(now)
	}
	if len(alerts) == 0 {
		a.log.Debug("no flow alerts this cycle, scoring in degraded mode")
	}

	contracts := gamma.ContractsFromAlerts(alerts)
	profile := a.estimator.CalculateAt(contracts, md.Price, now)
	profile.Symbol = a.symbol

	flowSent := signal.BuildFlowSentiment(alerts, now, a.scorerCfg)
	sig := a.scorer.Score(flowSent, *md, &profile, a.state.Prices(), now)

	assessment := a.assess(ctx, sig, flowSent, md.Price)

	a.mu.Lock()
	a.latestSignal = &sig
	a.latestAssessment = &assessment
	a.mu.Unlock()

	if risk.ShouldExecuteTrade(assessment) && a.executor != nil {
		order, execErr := a.executor.Execute(ctx, sig, assessment)
		if execErr != nil {
			a.log.WithError(execErr).Error("trade execution failed")
		} else {
			a.state.RecordFill(sig.Direction, order.Quantity, md.Price, now)
			a.log.WithFields(logger.Fields{
				"direction": sig.Direction,
				"qty":       order.Quantity,
				"order_id":  order.ClientOrderID,
			}).Info("trade executed")
		}
	}

	return &sig, nil
}

// fetchMarketData tries the primary provider, the fallback provider, then
// the last known price, in that order.
func (a *Algorithm) fetchMarketData(ctx context.Context) (*model.MarketData, error) {
	md, err := a.market.GetQuote(ctx, a.symbol)
	if err == nil {
		return md, nil
	}
	a.log.WithError(err).Warn("primary market data failed, trying fallback")

	if a.fallback != nil {
		if md, fbErr := a.fallback.GetQuote(a.symbol); fbErr == nil {
			return md, nil
		} else {
			a.log.WithError(fbErr).Warn("fallback market data failed")
		}
	}

	if last := a.state.LastPrice(); last > 0 {
		a.log.WithField("price", last).Warn("serving last known price in degraded mode")
		return &model.MarketData{
			Symbol:    a.symbol,
			Price:     last,
			Timestamp: a.now(),
		}, nil
	}

	return nil, fmt.Errorf("no market data for %s: %w", a.symbol, err)
}

// assess fetches the freshest account/position snapshot and runs the risk
// manager. An unreachable broker degrades to a zero-value account, which
// the manager rejects; policy failures never abort the cycle.
func (a *Algorithm) assess(ctx context.Context, sig model.Signal, flow model.FlowSentiment, price float64) model.RiskAssessment {
	var acct model.AlpacaAccount
	var positions []model.AlpacaPosition

	if a.account != nil {
		if fetched, err := a.account.GetAccount(ctx); err != nil {
			a.log.WithError(err).Warn("account fetch failed, rejecting all trades this cycle")
		} else {
			acct = *fetched
		}

		if fetched, err := a.account.GetPositions(ctx); err != nil {
			a.log.WithError(err).Warn("positions fetch failed")
		} else {
			positions = fetched
		}
	}

	return a.riskMgr.Assess(sig, flow, acct, positions, price)
}

// Start runs the polling loop until ctx is canceled. Failed cycles retry on
// the shorter backoff period instead of the regular cadence. Stop is
// cooperative: an in-flight cycle always completes first.
func (a *Algorithm) Start(ctx context.Context, loopPeriod, retryPeriod time.Duration) error {
	a.log.WithField("loop_period", loopPeriod).Info("algorithm loop starting")

	ticker := time.NewTicker(loopPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.log.Info("algorithm loop stopped")
			return nil

		case <-ticker.C:
			if _, err := a.RunCycle(ctx); err != nil {
				a.log.WithError(err).Error("cycle failed, backing off")

				select {
				case <-ctx.Done():
					a.log.Info("algorithm loop stopped")
					return nil
				case <-time.After(retryPeriod):
				}
			}
		}
	}
}
