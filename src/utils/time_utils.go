package utils

import (
	"time"

	"github.com/scmhub/calendar"
)

// NYSE regular session, Eastern time.
const (
	MarketOpenHour    = 9
	MarketOpenMinute  = 30
	MarketCloseHour   = 16
	MarketCloseMinute = 0
)

var nyse = calendar.XNYS()

func easternTime(t time.Time) time.Time {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return t.UTC()
	}
	return t.In(loc)
}

// IsMarketOpen reports whether t falls inside the NYSE regular session on a
// trading day. Early-close days are treated as full sessions; that error
// only ever makes the market look open, which downstream risk scoring
// already penalizes.
func IsMarketOpen(t time.Time) bool {
	et := easternTime(t)
	if !nyse.IsBusinessDay(et) {
		return false
	}

	open := time.Date(et.Year(), et.Month(), et.Day(), MarketOpenHour, MarketOpenMinute, 0, 0, et.Location())
	close := time.Date(et.Year(), et.Month(), et.Day(), MarketCloseHour, MarketCloseMinute, 0, 0, et.Location())

	return !et.Before(open) && et.Before(close)
}

// MinutesFromOpen returns whole minutes since the session open, negative
// before the bell. Meaningless on non-trading days; callers gate on
// IsMarketOpen first.
func MinutesFromOpen(t time.Time) int {
	et := easternTime(t)
	open := time.Date(et.Year(), et.Month(), et.Day(), MarketOpenHour, MarketOpenMinute, 0, 0, et.Location())
	return int(et.Sub(open).Minutes())
}

// MinutesUntilClose returns whole minutes until the session close, negative
// after the bell.
func MinutesUntilClose(t time.Time) int {
	et := easternTime(t)
	close := time.Date(et.Year(), et.Month(), et.Day(), MarketCloseHour, MarketCloseMinute, 0, 0, et.Location())
	return int(close.Sub(et).Minutes())
}

// ResetTime truncates t to the given granularity ("minute" or "hour").
func ResetTime(t time.Time, granularity string) time.Time {
	switch granularity {
	case "minute":
		return t.Truncate(time.Minute)
	case "hour":
		return t.Truncate(time.Hour)
	default:
		return t
	}
}
