package risk

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"qppf/src/model"
)

// Size multipliers applied on top of the confidence-derived base size. The
// combined multiplier never exceeds multiplierCap however many boosts stack.
const (
	unusualFlowBoost  = 1.2
	largeTradeBoost   = 1.15
	conflictPenalty   = 0.8
	weakSignalPenalty = 0.9
	multiplierCap     = 1.5

	confidenceFloor = 0.1
)

// riskScore component weights.
const (
	weightConfidence    = 0.4
	weightSizeVsBudget  = 0.3
	weightConflict      = 0.15
	weightPositionCount = 0.1
	weightMarketTiming  = 0.05
)

// Manager turns a signal plus a fresh account/position snapshot into a
// bounded, validated position size and a recommendation. Stateless; every
// assessment is a pure function of its inputs and the clock.
type Manager struct {
	cfg Config
	now func() time.Time
}

func NewManager(cfg Config) *Manager {
	return &Manager{cfg: cfg, now: time.Now}
}

// Assess sizes the trade described by sig against the given account state.
// Policy violations come back as reject/reduce assessments with reasons,
// never as errors.
func (m *Manager) Assess(sig model.Signal, flow model.FlowSentiment, acct model.AlpacaAccount, positions []model.AlpacaPosition, price float64) model.RiskAssessment {
	return m.AssessAt(sig, flow, acct, positions, price, m.now())
}

// AssessAt is the deterministic variant for tests.
func (m *Manager) AssessAt(sig model.Signal, flow model.FlowSentiment, acct model.AlpacaAccount, positions []model.AlpacaPosition, price float64, now time.Time) model.RiskAssessment {
	a := model.RiskAssessment{Symbol: sig.Symbol}

	if acct.TradingBlocked {
		return m.reject(a, "trading is blocked on the account")
	}
	if acct.PortfolioValue <= 0 {
		return m.reject(a, "account has no portfolio value")
	}
	if price <= 0 {
		return m.reject(a, "no usable current price")
	}

	base := m.baseShares(acct.PortfolioValue, sig.Confidence, price)
	mult := m.multiplier(sig, flow, &a)
	sized := base.Mul(mult)
	unclamped := sized

	a.MaxPositionSize = int(sized.IntPart())

	// Clamps only ever shrink, applied in fixed order: position count,
	// buying power, portfolio risk ceiling.
	if len(positions) >= m.cfg.MaxPositionCount {
		sized = decimal.Zero
		a.Reasons = append(a.Reasons, fmt.Sprintf("maximum position count reached (%d)", m.cfg.MaxPositionCount))
	}

	priceDec := decimal.NewFromFloat(price)
	if required := sized.Mul(priceDec); required.GreaterThan(decimal.NewFromFloat(acct.BuyingPower)) {
		sized = decimal.NewFromFloat(acct.BuyingPower).Div(priceDec)
		a.Reasons = append(a.Reasons, fmt.Sprintf("size reduced to fit buying power $%.2f", acct.BuyingPower))
	}

	currentRisk := portfolioRisk(positions, acct.PortfolioValue)
	newRisk := sized.Mul(priceDec).InexactFloat64() / acct.PortfolioValue
	if currentRisk+newRisk > m.cfg.MaxPortfolioRisk {
		remaining := math.Max(0, m.cfg.MaxPortfolioRisk-currentRisk)
		sized = decimal.NewFromFloat(remaining * acct.PortfolioValue).Div(priceDec)
		a.Reasons = append(a.Reasons, fmt.Sprintf("size reduced to stay under portfolio risk ceiling %.0f%%", m.cfg.MaxPortfolioRisk*100))
	}

	shares := int(sized.IntPart())
	if shares < 0 {
		shares = 0
	}
	a.PositionSize = shares
	a.RiskAmount = float64(shares) * price

	a.RiskScore = m.riskScore(sig, flow, shares, price, acct, positions, now)

	switch {
	case sig.Confidence < m.cfg.MinConfidence:
		return m.reject(a, fmt.Sprintf("confidence %.2f below minimum %.2f", sig.Confidence, m.cfg.MinConfidence))
	case a.RiskScore > m.cfg.MaxRiskScore:
		return m.reject(a, fmt.Sprintf("risk score %.2f above maximum %.2f", a.RiskScore, m.cfg.MaxRiskScore))
	case decimal.NewFromInt(int64(shares)).LessThan(unclamped.Div(decimal.NewFromInt(2))):
		a.Recommendation = model.RecommendationReduce
		a.Reasons = append(a.Reasons, "portfolio limits cut the trade to under half its intended size")
	default:
		a.Recommendation = model.RecommendationExecute
	}

	logger.WithFields(logger.Fields{
		"symbol":         a.Symbol,
		"position_size":  a.PositionSize,
		"risk_score":     a.RiskScore,
		"recommendation": a.Recommendation,
	}).Debug("risk assessment complete")

	return a
}

// ShouldExecuteTrade is the only gate a caller may rely on before
// submitting an order.
func ShouldExecuteTrade(a model.RiskAssessment) bool {
	return a.Recommendation == model.RecommendationExecute && a.PositionSize > 0
}

func (m *Manager) reject(a model.RiskAssessment, reason string) model.RiskAssessment {
	a.PositionSize = 0
	a.RiskAmount = 0
	a.Recommendation = model.RecommendationReject
	a.Reasons = append(a.Reasons, reason)
	return a
}

// baseShares is the pre-adjustment size: portfolio value times the per-trade
// risk fraction, scaled by confidence (floored so a weak signal still sizes
// meaningfully when it passes the confidence gate).
func (m *Manager) baseShares(portfolioValue, confidence, price float64) decimal.Decimal {
	conf := math.Min(math.Max(confidence, confidenceFloor), 1.0)
	riskAmount := decimal.NewFromFloat(portfolioValue).
		Mul(decimal.NewFromFloat(m.cfg.MaxTradeRisk)).
		Mul(decimal.NewFromFloat(conf))
	return riskAmount.Div(decimal.NewFromFloat(price))
}

func (m *Manager) multiplier(sig model.Signal, flow model.FlowSentiment, a *model.RiskAssessment) decimal.Decimal {
	mult := 1.0

	if flow.HasUnusualFlow && math.Abs(flow.SentimentScore) > 0.4 {
		mult *= unusualFlowBoost
		a.Reasons = append(a.Reasons, "size boosted on unusual directional flow")
	}
	if flow.LargeTradeCount >= 3 {
		mult *= largeTradeBoost
		a.Reasons = append(a.Reasons, fmt.Sprintf("size boosted on %d large trades", flow.LargeTradeCount))
	}
	if flow.HasUnusualFlow && conflicts(sig.Direction, flow.DominantSentiment) {
		mult *= conflictPenalty
		a.Reasons = append(a.Reasons, "size cut: signal conflicts with dominant flow sentiment")
	}
	if sig.Strength < 0.6 {
		mult *= weakSignalPenalty
		a.Reasons = append(a.Reasons, fmt.Sprintf("size cut on weak signal strength %.2f", sig.Strength))
	}

	if mult > multiplierCap {
		mult = multiplierCap
	}
	return decimal.NewFromFloat(mult)
}

func conflicts(direction model.Direction, dominant string) bool {
	return (direction == model.DirectionLong && dominant == model.SentimentBearish) ||
		(direction == model.DirectionShort && dominant == model.SentimentBullish)
}

// portfolioRisk is total absolute position exposure over portfolio value.
func portfolioRisk(positions []model.AlpacaPosition, portfolioValue float64) float64 {
	if portfolioValue <= 0 {
		return 1
	}
	var exposure float64
	for _, p := range positions {
		mv := p.MarketValue
		if mv == 0 {
			mv = p.Qty * p.CurrentPrice
		}
		exposure += math.Abs(mv)
	}
	return exposure / portfolioValue
}

// riskScore is a heuristic composite in [0,1], not a calibrated measure:
// bound and monotonicity are the contract, absolute values are not.
func (m *Manager) riskScore(sig model.Signal, flow model.FlowSentiment, shares int, price float64, acct model.AlpacaAccount, positions []model.AlpacaPosition, now time.Time) float64 {
	score := (1 - sig.Confidence) * weightConfidence

	budget := acct.PortfolioValue * m.cfg.MaxTradeRisk
	if budget > 0 {
		score += math.Min(float64(shares)*price/budget, 1.0) * weightSizeVsBudget
	}

	if conflicts(sig.Direction, flow.DominantSentiment) {
		score += weightConflict
	}

	if m.cfg.MaxPositionCount > 0 {
		score += math.Min(float64(len(positions))/float64(m.cfg.MaxPositionCount), 1.0) * weightPositionCount
	}

	score += marketTimingRisk(now) * weightMarketTiming

	return math.Min(math.Max(score, 0), 1)
}
