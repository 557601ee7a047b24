package gamma

import (
	"math"
	"sort"
	"time"

	logger "github.com/sirupsen/logrus"

	"qppf/src/model"
)

const (
	// DefaultRiskFreeRate and DefaultDividendYield feed the Black-Scholes
	// gamma when the caller does not override them.
	DefaultRiskFreeRate  = 0.05
	DefaultDividendYield = 0.02

	// DefaultImpliedVol is used when a contract carries neither an explicit
	// IV nor a premium to derive one from.
	DefaultImpliedVol = 0.3

	// ContractSize is the share multiplier per US equity option contract.
	ContractSize = 100

	// MinContracts is the data-sufficiency floor. Below it the estimator
	// tops the chain up with synthetic contracts so the profile stays
	// numerically meaningful.
	MinContracts = 10

	minIV = 0.1
	maxIV = 2.0

	spotProfileLevels = 41
	spotProfileBand   = 0.20

	tradingDaysPerYear  = 262.0
	calendarDaysPerYear = 365.0
)

// Estimator converts an options chain plus a spot price into a dealer gamma
// exposure profile. Pure computation; the only state is the seeded RNG used
// for synthetic fallback contracts.
type Estimator struct {
	RiskFreeRate  float64
	DividendYield float64

	rng *syntheticRand
}

// NewEstimator returns an estimator with default rate assumptions and a
// deterministic synthetic-contract source derived from seed.
func NewEstimator(seed int64) *Estimator {
	return &Estimator{
		RiskFreeRate:  DefaultRiskFreeRate,
		DividendYield: DefaultDividendYield,
		rng:           newSyntheticRand(seed),
	}
}

// UnitGamma is the Black-Scholes gamma for a single option:
//
//	d1    = [ln(S/K) + (r - q + sigma^2/2) T] / (sigma sqrt(T))
//	gamma = e^(-qT) phi(d1) / (S sigma sqrt(T))
//
// Degenerate inputs (non-positive time, vol, spot or strike) return 0 rather
// than an error; options chains routinely contain stale rows.
func UnitGamma(spot, strike, tteYears, iv, riskFreeRate, dividendYield float64) float64 {
	if tteYears <= 0 || iv <= 0 || spot <= 0 || strike <= 0 {
		return 0
	}

	sqrtT := math.Sqrt(tteYears)
	d1 := (math.Log(spot/strike) + (riskFreeRate-dividendYield+0.5*iv*iv)*tteYears) / (iv * sqrtT)
	phi := math.Exp(-0.5*d1*d1) / math.Sqrt(2*math.Pi)

	return math.Exp(-dividendYield*tteYears) * phi / (spot * iv * sqrtT)
}

// TimeToExpiry converts an expiry date into year fractions, floored at one
// day and scaled to trading days so decay roughly follows the trading
// calendar rather than the wall calendar.
func TimeToExpiry(expiry, now time.Time) float64 {
	days := expiry.Sub(now).Hours() / 24
	if days < 1 {
		days = 1
	}
	return days / calendarDaysPerYear * (tradingDaysPerYear / calendarDaysPerYear)
}

// ApproxImpliedVol backs a volatility estimate out of an option premium with
// the Brenner-Subrahmanyam closed form, clamped to [0.1, 2.0]. It is a crude
// ATM approximation, not a solver; it only runs for contracts that carry a
// premium but no explicit IV.
func ApproxImpliedVol(premium, spot, strike, tteYears float64, isCall bool) float64 {
	if premium <= 0 || spot <= 0 || tteYears <= 0 {
		return DefaultImpliedVol
	}

	iv := math.Sqrt(2*math.Pi/tteYears) * premium / spot

	// Away from the money the closed form undershoots badly; lean on the
	// intrinsic-stripped premium instead.
	if strike > 0 {
		var intrinsic float64
		if isCall {
			intrinsic = math.Max(spot-strike, 0)
		} else {
			intrinsic = math.Max(strike-spot, 0)
		}
		if extrinsic := premium - intrinsic; extrinsic > 0 {
			iv = math.Sqrt(2*math.Pi/tteYears) * extrinsic / spot
		}
	}

	return clamp(iv, minIV, maxIV)
}

// ContractGEX is the signed dollar gamma exposure of one chain row per 1%
// underlying move: gamma * contracts * 100 * spot^2 * 0.01. Calls contribute
// positively and puts negatively, encoding the assumption that dealers are
// net long calls and short puts. That is a positioning assumption, not a
// measured fact.
func ContractGEX(unitGamma, contracts, spot float64, isCall bool) float64 {
	gex := unitGamma * contracts * ContractSize * spot * spot * 0.01
	if !isCall {
		return -gex
	}
	return gex
}

// resolved carries the per-contract quantities that stay fixed while the
// spot profile sweeps hypothetical spot levels.
type resolved struct {
	strike float64
	tte    float64
	iv     float64
	oi     float64
	isCall bool
}

// Calculate builds the GEX profile for the chain at the current spot, using
// time.Now for expiry math.
func (e *Estimator) Calculate(contracts []model.OptionContract, spot float64) model.GEXProfile {
	return e.CalculateAt(contracts, spot, time.Now())
}

// CalculateAt is the deterministic variant for tests and replays.
func (e *Estimator) CalculateAt(contracts []model.OptionContract, spot float64, now time.Time) model.GEXProfile {
	profile := model.GEXProfile{
		Spot:      spot,
		Timestamp: now,
	}

	if spot <= 0 {
		return profile
	}

	synthetic := 0
	if len(contracts) < MinContracts {
		fill := e.syntheticContracts(spot, now, MinContracts-len(contracts))
		synthetic = len(fill)
		logger.WithFields(logger.Fields{
			"live":      len(contracts),
			"synthetic": synthetic,
		}).Debug("sparse options chain, topping up with synthetic contracts")

		merged := make([]model.OptionContract, 0, len(contracts)+synthetic)
		merged = append(merged, contracts...)
		merged = append(merged, fill...)
		contracts = merged
	}

	res := make([]resolved, 0, len(contracts))
	byStrike := map[float64]*model.StrikeGEX{}

	for _, c := range contracts {
		if c.Strike <= 0 {
			continue
		}

		tte := TimeToExpiry(c.Expiry, now)
		iv := e.resolveIV(c, spot, tte)
		isCall := c.IsCall()
		oi := float64(c.OpenInterest)
		if oi <= 0 && c.Volume != nil {
			// open interest missing upstream, fall back to traded volume
			oi = float64(*c.Volume)
		}
		if oi <= 0 {
			continue
		}

		r := resolved{strike: c.Strike, tte: tte, iv: iv, oi: oi, isCall: isCall}
		res = append(res, r)

		gamma := UnitGamma(spot, r.strike, r.tte, r.iv, e.RiskFreeRate, e.DividendYield)
		gex := ContractGEX(gamma, r.oi, spot, r.isCall)

		agg, ok := byStrike[r.strike]
		if !ok {
			agg = &model.StrikeGEX{Strike: r.strike}
			byStrike[r.strike] = agg
		}
		agg.GEX += gex / 1e9
		if r.isCall {
			agg.CallGEX += gex / 1e9
			profile.CallGEX += gex / 1e9
		} else {
			agg.PutGEX += gex / 1e9
			profile.PutGEX += gex / 1e9
		}
	}

	profile.TotalGEX = profile.CallGEX + profile.PutGEX
	profile.ContractCount = len(res)
	profile.SyntheticCount = synthetic

	profile.Strikes = make([]model.StrikeGEX, 0, len(byStrike))
	for _, agg := range byStrike {
		profile.Strikes = append(profile.Strikes, *agg)
	}
	sort.Slice(profile.Strikes, func(i, j int) bool {
		return profile.Strikes[i].Strike < profile.Strikes[j].Strike
	})

	profile.SpotProfile = spotProfile(res, spot, e.RiskFreeRate, e.DividendYield)
	profile.ZeroGammaLevel = zeroGammaLevel(profile.SpotProfile)

	return profile
}

func (e *Estimator) resolveIV(c model.OptionContract, spot, tte float64) float64 {
	if c.ImpliedVolatility != nil && *c.ImpliedVolatility > 0 {
		return *c.ImpliedVolatility
	}
	if c.Premium != nil && *c.Premium > 0 {
		return ApproxImpliedVol(*c.Premium, spot, c.Strike, tte, c.IsCall())
	}
	return DefaultImpliedVol
}

// spotProfile recomputes total GEX at 41 evenly spaced hypothetical spot
// levels across +-20% of the current spot. O(contracts x levels); the
// dominant cost of the estimator.
func spotProfile(res []resolved, spot, riskFreeRate, dividendYield float64) []model.SpotGEX {
	out := make([]model.SpotGEX, 0, spotProfileLevels)
	low := spot * (1 - spotProfileBand)
	step := spot * 2 * spotProfileBand / float64(spotProfileLevels-1)

	for i := 0; i < spotProfileLevels; i++ {
		level := low + step*float64(i)
		var total float64
		for _, r := range res {
			gamma := UnitGamma(level, r.strike, r.tte, r.iv, riskFreeRate, dividendYield)
			total += ContractGEX(gamma, r.oi, level, r.isCall)
		}
		out = append(out, model.SpotGEX{Spot: level, GEX: total / 1e9})
	}

	return out
}

// zeroGammaLevel scans the spot profile for the first adjacent pair with
// opposite-signed GEX and linearly interpolates the crossing. Nil when total
// GEX never changes sign inside the band.
func zeroGammaLevel(profile []model.SpotGEX) *float64 {
	for i := 0; i+1 < len(profile); i++ {
		g1, g2 := profile[i].GEX, profile[i+1].GEX
		if g1 == 0 {
			z := profile[i].Spot
			return &z
		}
		if g1*g2 < 0 {
			s1, s2 := profile[i].Spot, profile[i+1].Spot
			z := s1 + (0-g1)*(s2-s1)/(g2-g1)
			return &z
		}
	}
	return nil
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
