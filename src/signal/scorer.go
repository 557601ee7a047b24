package signal

import (
	"fmt"
	"math"
	"time"

	"github.com/montanaflynn/stats"
	logger "github.com/sirupsen/logrus"

	"qppf/src/model"
	"qppf/src/utils"
)

const (
	confidenceBase = 0.5
	// ConfidenceCap keeps the scorer from ever reporting certainty.
	ConfidenceCap = 0.95
)

// Scorer combines flow sentiment, the GEX profile and recent price/volume
// history into one Signal per cycle. Pure computation over its inputs; the
// market-open check for the optional direction bias is injected so tests can
// pin the clock.
type Scorer struct {
	cfg        Config
	marketOpen func(time.Time) bool
}

func NewScorer(cfg Config) *Scorer {
	return &Scorer{cfg: cfg, marketOpen: utils.IsMarketOpen}
}

// Score produces the cycle's signal. It always returns a usable Signal; with
// no flow and no profile the result is FLAT at low confidence, never an
// error.
func (s *Scorer) Score(flow model.FlowSentiment, md model.MarketData, gex *model.GEXProfile, priceHistory []float64, now time.Time) model.Signal {
	direction, longReasons, shortReasons := s.Direction(flow, md, gex, priceHistory, now)
	confidence := s.Confidence(flow, md, gex)
	strength := s.Strength(flow, confidence)

	sig := model.Signal{
		Symbol:        md.Symbol,
		Direction:     direction,
		Confidence:    confidence,
		Strength:      strength,
		Sentiment:     flow.DominantSentiment,
		LongReasons:   longReasons,
		ShortReasons:  shortReasons,
		MarketData:    md,
		FlowSentiment: flow,
		GEXProfile:    gex,
		Timestamp:     now,
	}

	logger.WithFields(logger.Fields{
		"symbol":     sig.Symbol,
		"direction":  sig.Direction,
		"confidence": sig.Confidence,
		"strength":   sig.Strength,
	}).Debug("signal scored")

	return sig
}

// Confidence starts at 0.5, applies additive boosts for flow and GEX
// conditions, penalizes illiquid tape, and caps at 0.95.
func (s *Scorer) Confidence(flow model.FlowSentiment, md model.MarketData, gex *model.GEXProfile) float64 {
	c := confidenceBase

	if flow.HasUnusualFlow {
		c += 0.3
	}

	absSent := math.Abs(flow.SentimentScore)
	if absSent > s.cfg.StrongSentiment {
		c += 0.2
	} else if absSent > s.cfg.ModerateSentiment {
		c += 0.1
	}

	if flow.LargeTradeCount > 2 {
		c += 0.15
	}
	if flow.RecentAlertCount > 5 {
		c += 0.1
	}

	if gex.HasZeroGamma() && md.Price > 0 {
		zgl := *gex.ZeroGammaLevel
		if math.Abs(md.Price-zgl)/md.Price > s.cfg.ZGLDistancePct {
			c += 0.1
		}
		// positive GEX below ZGL (or negative above) means dealer hedging
		// pushes price back toward the zero gamma level
		if (gex.TotalGEX > 0 && md.Price < zgl) || (gex.TotalGEX < 0 && md.Price > zgl) {
			c += 0.05
		}
	}

	if md.Volume < s.cfg.LowVolume {
		c *= 0.8
	}

	return clamp(c, 0, ConfidenceCap)
}

// Direction decides LONG/SHORT/FLAT. Strong sentiment short-circuits the
// factor vote; otherwise each factor contributes one vote and a side needs
// at least MinVotes plus a strict majority. Reasons are returned in vote
// order.
func (s *Scorer) Direction(flow model.FlowSentiment, md model.MarketData, gex *model.GEXProfile, priceHistory []float64, now time.Time) (model.Direction, []string, []string) {
	var longReasons, shortReasons []string

	if flow.SentimentScore > s.cfg.SentimentOverride {
		longReasons = append(longReasons, fmt.Sprintf("strong bullish flow sentiment %.2f", flow.SentimentScore))
		return model.DirectionLong, longReasons, shortReasons
	}
	if flow.SentimentScore < -s.cfg.SentimentOverride {
		shortReasons = append(shortReasons, fmt.Sprintf("strong bearish flow sentiment %.2f", flow.SentimentScore))
		return model.DirectionShort, longReasons, shortReasons
	}

	var longVotes, shortVotes int

	if flow.BullishCount > flow.BearishCount {
		longVotes++
		longReasons = append(longReasons, fmt.Sprintf("bullish alerts outnumber bearish %d to %d", flow.BullishCount, flow.BearishCount))
	} else if flow.BearishCount > flow.BullishCount {
		shortVotes++
		shortReasons = append(shortReasons, fmt.Sprintf("bearish alerts outnumber bullish %d to %d", flow.BearishCount, flow.BullishCount))
	}

	if flow.AvgPremium > s.cfg.InstitutionalPremium && flow.TotalAlertCount > s.cfg.InstitutionalAlerts {
		if flow.SentimentScore >= 0 {
			longVotes++
			longReasons = append(longReasons, fmt.Sprintf("institutional-size premium averaging $%.0f across %d alerts", flow.AvgPremium, flow.TotalAlertCount))
		} else {
			shortVotes++
			shortReasons = append(shortReasons, fmt.Sprintf("institutional-size premium averaging $%.0f on bearish flow", flow.AvgPremium))
		}
	}

	if gex.HasZeroGamma() && md.Price > 0 {
		zgl := *gex.ZeroGammaLevel
		if md.Price < zgl {
			longVotes++
			longReasons = append(longReasons, fmt.Sprintf("price %.2f below zero gamma level %.2f", md.Price, zgl))
		} else if md.Price > zgl {
			shortVotes++
			shortReasons = append(shortReasons, fmt.Sprintf("price %.2f above zero gamma level %.2f", md.Price, zgl))
		}
	}

	if gex != nil && gex.ContractCount > 0 {
		if gex.CallGEX > math.Abs(gex.PutGEX) {
			longVotes++
			longReasons = append(longReasons, fmt.Sprintf("call gamma %.2fBn dominates put gamma %.2fBn", gex.CallGEX, gex.PutGEX))
		} else if math.Abs(gex.PutGEX) > gex.CallGEX {
			shortVotes++
			shortReasons = append(shortReasons, fmt.Sprintf("put gamma %.2fBn dominates call gamma %.2fBn", gex.PutGEX, gex.CallGEX))
		}
	}

	if md.Volume > s.cfg.HighVolume {
		longVotes++
		longReasons = append(longReasons, fmt.Sprintf("heavy volume %d suggests active participation", md.Volume))
	}

	if spread := md.SpreadPct(); spread > 0 && spread < s.cfg.TightSpreadPct {
		longVotes++
		longReasons = append(longReasons, "tight bid/ask spread indicates liquid two-sided market")
	}

	if s.cfg.MarketHoursBias && s.marketOpen != nil && s.marketOpen(now) {
		longVotes++
		longReasons = append(longReasons, "regular-session bullish bias enabled")
	}

	if m, ok := s.momentum(priceHistory); ok {
		if m > 0 {
			longVotes++
			longReasons = append(longReasons, fmt.Sprintf("positive %d-period momentum %.4f", s.cfg.MomentumPeriods, m))
		} else if m < 0 {
			shortVotes++
			shortReasons = append(shortReasons, fmt.Sprintf("negative %d-period momentum %.4f", s.cfg.MomentumPeriods, m))
		}
	}

	switch {
	case longVotes >= s.cfg.MinVotes && longVotes > shortVotes:
		return model.DirectionLong, longReasons, shortReasons
	case shortVotes >= s.cfg.MinVotes && shortVotes > longVotes:
		return model.DirectionShort, longReasons, shortReasons
	default:
		return model.DirectionFlat, longReasons, shortReasons
	}
}

// Strength blends confidence and flow intensity. The weights can sum past
// one on purpose; the cap is the bound, not renormalization.
func (s *Scorer) Strength(flow model.FlowSentiment, confidence float64) float64 {
	v := 0.5 * confidence
	if flow.HasUnusualFlow {
		v += 0.3
	}
	v += 0.2 * math.Min(float64(flow.LargeTradeCount)/5.0, 1.0)
	v += 0.3 * math.Abs(flow.SentimentScore)

	return clamp(v, 0, 1)
}

// momentum is the mean period-over-period return across the last
// MomentumPeriods price points. ok is false when history is too short.
func (s *Scorer) momentum(prices []float64) (float64, bool) {
	n := s.cfg.MomentumPeriods
	if len(prices) < n+1 {
		return 0, false
	}

	tail := prices[len(prices)-n-1:]
	returns := make([]float64, 0, n)
	for i := 1; i < len(tail); i++ {
		if tail[i-1] <= 0 {
			return 0, false
		}
		returns = append(returns, tail[i]/tail[i-1]-1)
	}

	m, err := stats.Mean(returns)
	if err != nil {
		return 0, false
	}
	return m, true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
