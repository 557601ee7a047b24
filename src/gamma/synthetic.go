package gamma

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"qppf/src/model"
)

// syntheticRand wraps the seeded RNG behind a mutex so a scanner running
// several symbols can share one estimator without racing the source.
type syntheticRand struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func newSyntheticRand(seed int64) *syntheticRand {
	return &syntheticRand{rng: rand.New(rand.NewSource(seed))}
}

func (s *syntheticRand) float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

func (s *syntheticRand) intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

// syntheticContracts fills a sparse chain with symmetric ATM/OTM call+put
// pairs around spot so the profile stays numerically meaningful when live
// flow is thin. The IV/premium/OI draws are bounded and come from the seeded
// source, so a fixed seed reproduces the exact same chain. This trades
// realism for stability and is flagged on the profile via SyntheticCount.
func (e *Estimator) syntheticContracts(spot float64, now time.Time, missing int) []model.OptionContract {
	if missing <= 0 {
		return nil
	}

	// one call+put pair per strike offset
	pairs := (missing + 1) / 2
	out := make([]model.OptionContract, 0, pairs*2)

	for i := 0; i < pairs; i++ {
		// strikes step away from the money in alternating directions:
		// 0%, +2%, -2%, +4%, -4%, ...
		offset := float64((i+1)/2) * 0.02
		if i%2 == 0 {
			offset = -offset
		}
		if i == 0 {
			offset = 0
		}
		strike := math.Round(spot * (1 + offset))

		expiry := now.AddDate(0, 0, 14+e.rng.intn(31))
		iv := 0.2 + e.rng.float64()*0.3
		oi := int64(500 + e.rng.intn(2000))
		premium := spot * iv * 0.04 * (1 + e.rng.float64()*0.5)

		for _, typ := range []string{model.OptionTypeCall, model.OptionTypePut} {
			p := premium
			v := iv
			out = append(out, model.OptionContract{
				Strike:            strike,
				Expiry:            expiry,
				Type:              typ,
				OpenInterest:      oi,
				ImpliedVolatility: &v,
				Premium:           &p,
				Synthetic:         true,
			})
		}
	}

	return out
}
