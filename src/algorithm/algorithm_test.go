package algorithm

import (
	"context"
	"errors"
	"testing"
	"time"

	"qppf/src/gamma"
	"qppf/src/model"
	"qppf/src/risk"
	"qppf/src/signal"
)

type stubMarket struct {
	md  *model.MarketData
	err error
}

func (s *stubMarket) GetQuote(_ context.Context, symbol string) (*model.MarketData, error) {
	if s.err != nil {
		return nil, s.err
	}
	md := *s.md
	md.Symbol = symbol
	return &md, nil
}

type stubFallback struct {
	md  *model.MarketData
	err error
}

func (s *stubFallback) GetQuote(string) (*model.MarketData, error) {
	return s.md, s.err
}

type stubFlow struct {
	alerts []model.FlowAlert
}

func (s *stubFlow) Snapshot(time.Time) []model.FlowAlert { return s.alerts }

type stubAccount struct {
	acct      *model.AlpacaAccount
	positions []model.AlpacaPosition
	err       error
}

func (s *stubAccount) GetAccount(context.Context) (*model.AlpacaAccount, error) {
	return s.acct, s.err
}

func (s *stubAccount) GetPositions(context.Context) ([]model.AlpacaPosition, error) {
	return s.positions, s.err
}

type stubExecutor struct {
	calls int
	err   error
}

func (s *stubExecutor) Execute(_ context.Context, sig model.Signal, a model.RiskAssessment) (*model.Order, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &model.Order{
		ClientOrderID: "test-order",
		Symbol:        sig.Symbol,
		Quantity:      a.PositionSize,
	}, nil
}

func bullishAlerts(now time.Time) []model.FlowAlert {
	alerts := make([]model.FlowAlert, 0, 12)
	for i := 0; i < 12; i++ {
		alerts = append(alerts, model.FlowAlert{
			Symbol:     "SPY",
			OptionType: "call",
			Strike:     450,
			Expiry:     now.AddDate(0, 0, 14),
			Premium:    80000,
			Volume:     500,
			Timestamp:  now.Add(-5 * time.Minute),
		})
	}
	return alerts
}

func newTestAlgorithm(market MarketDataProvider, deps Deps) *Algorithm {
	cfg := signal.DefaultConfig()
	if deps.Estimator == nil {
		deps.Estimator = gamma.NewEstimator(42)
	}
	if deps.Scorer == nil {
		deps.Scorer = signal.NewScorer(cfg)
	}
	deps.ScorerCfg = cfg
	if deps.RiskMgr == nil {
		deps.RiskMgr = risk.NewManager(risk.DefaultConfig())
	}
	deps.Market = market
	return New("SPY", deps)
}

func TestRunCycle_ProducesSignalAndAssessment(t *testing.T) {
	now := time.Now()
	market := &stubMarket{md: &model.MarketData{
		Price: 450, Volume: 50_000_000, Bid: 449.99, Ask: 450.01, Timestamp: now,
	}}
	acct := &stubAccount{
		acct: &model.AlpacaAccount{ID: "acct", PortfolioValue: 100000, BuyingPower: 200000},
	}

	a := newTestAlgorithm(market, Deps{
		Flow:    &stubFlow{alerts: bullishAlerts(now)},
		Account: acct,
	})

	sig, err := a.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if sig.Symbol != "SPY" {
		t.Fatalf("signal symbol = %q, want SPY", sig.Symbol)
	}
	if a.LatestSignal() == nil {
		t.Fatal("latest signal not retained")
	}
	if a.LatestAssessment() == nil {
		t.Fatal("latest assessment not retained")
	}
	if got := a.State().Snapshot().PricePoints; got != 1 {
		t.Fatalf("price history = %d points, want 1", got)
	}
}

func TestRunCycle_FallsBackWhenPrimaryFails(t *testing.T) {
	fallback := &stubFallback{md: &model.MarketData{
		Symbol: "SPY", Price: 451, Timestamp: time.Now(),
	}}

	a := newTestAlgorithm(&stubMarket{err: errors.New("alpaca down")}, Deps{
		Fallback: fallback,
		Flow:     &stubFlow{},
		Account:  &stubAccount{acct: &model.AlpacaAccount{}},
	})

	sig, err := a.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if sig.MarketData.Price != 451 {
		t.Fatalf("price = %v, want fallback 451", sig.MarketData.Price)
	}
}

func TestRunCycle_ServesLastKnownPrice(t *testing.T) {
	market := &stubMarket{md: &model.MarketData{Price: 450, Timestamp: time.Now()}}
	a := newTestAlgorithm(market, Deps{
		Flow:    &stubFlow{},
		Account: &stubAccount{acct: &model.AlpacaAccount{}},
	})

	if _, err := a.RunCycle(context.Background()); err != nil {
		t.Fatalf("warm-up cycle: %v", err)
	}

	market.err = errors.New("alpaca down")
	sig, err := a.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("degraded cycle: %v", err)
	}
	if sig.MarketData.Price != 450 {
		t.Fatalf("price = %v, want last known 450", sig.MarketData.Price)
	}
}

func TestRunCycle_NoDataNoHistoryFails(t *testing.T) {
	a := newTestAlgorithm(&stubMarket{err: errors.New("alpaca down")}, Deps{
		Flow:    &stubFlow{},
		Account: &stubAccount{acct: &model.AlpacaAccount{}},
	})

	if _, err := a.RunCycle(context.Background()); err == nil {
		t.Fatal("expected error with no market data and no history")
	}
}

func TestRunCycle_AccountFetchFailureRejectsTrade(t *testing.T) {
	now := time.Now()
	market := &stubMarket{md: &model.MarketData{
		Price: 450, Volume: 50_000_000, Bid: 449.99, Ask: 450.01, Timestamp: now,
	}}
	executor := &stubExecutor{}

	a := newTestAlgorithm(market, Deps{
		Flow:     &stubFlow{alerts: bullishAlerts(now)},
		Account:  &stubAccount{err: errors.New("broker unreachable")},
		Executor: executor,
	})

	if _, err := a.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	got := a.LatestAssessment()
	if got.Recommendation != model.RecommendationReject {
		t.Fatalf("recommendation = %s, want reject on account outage", got.Recommendation)
	}
	if executor.calls != 0 {
		t.Fatal("executor must not run when the assessment rejects")
	}
}

func TestRunCycle_ExecutesAndRecordsFill(t *testing.T) {
	now := time.Now()
	market := &stubMarket{md: &model.MarketData{
		Price: 450, Volume: 50_000_000, Bid: 449.99, Ask: 450.01, Timestamp: now,
	}}
	executor := &stubExecutor{}

	a := newTestAlgorithm(market, Deps{
		Flow: &stubFlow{alerts: bullishAlerts(now)},
		Account: &stubAccount{
			acct: &model.AlpacaAccount{ID: "acct", PortfolioValue: 100000, BuyingPower: 200000},
		},
		Executor: executor,
	})

	if _, err := a.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	assessment := a.LatestAssessment()
	if !risk.ShouldExecuteTrade(*assessment) {
		t.Skipf("scenario did not clear risk gates: %v", assessment.Reasons)
	}
	if executor.calls != 1 {
		t.Fatalf("executor calls = %d, want 1", executor.calls)
	}
	snap := a.State().Snapshot()
	if snap.TradesExecuted != 1 {
		t.Fatalf("trades executed = %d, want 1", snap.TradesExecuted)
	}
	if snap.PositionSize == 0 {
		t.Fatal("fill not applied to position")
	}
}

func TestReset_ClearsRetainedOutputs(t *testing.T) {
	now := time.Now()
	market := &stubMarket{md: &model.MarketData{Price: 450, Timestamp: now}}
	a := newTestAlgorithm(market, Deps{
		Flow:    &stubFlow{},
		Account: &stubAccount{acct: &model.AlpacaAccount{}},
	})

	if _, err := a.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	a.Reset()

	if a.LatestSignal() != nil || a.LatestAssessment() != nil {
		t.Fatal("reset must drop retained signal and assessment")
	}
	if a.State().Snapshot().PricePoints != 0 {
		t.Fatal("reset must clear price history")
	}
}

func TestStart_StopsOnContextCancel(t *testing.T) {
	market := &stubMarket{md: &model.MarketData{Price: 450, Timestamp: time.Now()}}
	a := newTestAlgorithm(market, Deps{
		Flow:    &stubFlow{},
		Account: &stubAccount{acct: &model.AlpacaAccount{}},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Start(ctx, 10*time.Millisecond, 5*time.Millisecond) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("loop did not stop after cancel")
	}

	if a.LatestSignal() == nil {
		t.Fatal("loop ran without producing a signal")
	}
}
