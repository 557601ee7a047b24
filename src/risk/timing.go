package risk

import (
	"time"

	"qppf/src/utils"
)

const (
	openCloseWindowMinutes = 30

	timingRiskClosed   = 1.0
	timingRiskVolatile = 0.8
	timingRiskBaseline = 0.3
)

// marketTimingRisk is the synthetic clock-of-day component of the risk
// score. The first and last half hour of the NYSE session trade wilder than
// the middle of the day, and a closed market is the riskiest time to want a
// fill at all.
func marketTimingRisk(t time.Time) float64 {
	if !utils.IsMarketOpen(t) {
		return timingRiskClosed
	}
	if utils.MinutesFromOpen(t) < openCloseWindowMinutes || utils.MinutesUntilClose(t) < openCloseWindowMinutes {
		return timingRiskVolatile
	}
	return timingRiskBaseline
}
