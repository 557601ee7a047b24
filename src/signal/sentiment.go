package signal

import (
	"time"

	"qppf/src/model"
)

// BuildFlowSentiment reduces the rolling alert window to the flow statistics
// the scorer and risk manager consume. Alerts outside cfg.SentimentWindow
// are ignored; alerts inside cfg.RecentWindow drive the unusual-flow flag.
// Missing optional fields never raise; an empty window yields a neutral
// result.
func BuildFlowSentiment(alerts []model.FlowAlert, now time.Time, cfg Config) model.FlowSentiment {
	var fs model.FlowSentiment
	fs.DominantSentiment = model.SentimentNeutral

	cutoff := now.Add(-cfg.SentimentWindow)
	recentCutoff := now.Add(-cfg.RecentWindow)

	var premiumSum float64
	for _, a := range alerts {
		if a.Timestamp.Before(cutoff) || a.Timestamp.After(now) {
			continue
		}

		fs.TotalAlertCount++
		if !a.Timestamp.Before(recentCutoff) {
			fs.RecentAlertCount++
		}

		// calls read bullish, puts bearish; coarse but consistent with the
		// alert feed's own tagging
		if a.OptionType == model.OptionTypePut {
			fs.BearishCount++
		} else {
			fs.BullishCount++
		}

		premiumSum += a.Premium
		if a.Premium > cfg.LargeTradePremium {
			fs.LargeTradeCount++
		}
	}

	if fs.TotalAlertCount > 0 {
		fs.AvgPremium = premiumSum / float64(fs.TotalAlertCount)
	}

	if directional := fs.BullishCount + fs.BearishCount; directional > 0 {
		fs.SentimentScore = float64(fs.BullishCount-fs.BearishCount) / float64(directional)
	}

	fs.HasUnusualFlow = fs.RecentAlertCount > cfg.UnusualFlowAlerts

	switch {
	case fs.SentimentScore > cfg.DominantSentimentAt:
		fs.DominantSentiment = model.SentimentBullish
	case fs.SentimentScore < -cfg.DominantSentimentAt:
		fs.DominantSentiment = model.SentimentBearish
	}

	return fs
}
