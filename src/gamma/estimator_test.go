package gamma

import (
	"math"
	"testing"
	"time"

	"qppf/src/model"
)

func chainDate(daysOut int) time.Time {
	return testNow().AddDate(0, 0, daysOut)
}

func testNow() time.Time {
	return time.Date(2025, time.June, 2, 10, 0, 0, 0, time.UTC)
}

func fptr(v float64) *float64 { return &v }

func TestUnitGamma_DegenerateInputs(t *testing.T) {
	tests := []struct {
		name   string
		spot   float64
		strike float64
		tte    float64
		iv     float64
	}{
		{name: "zero time to expiry", spot: 450, strike: 450, tte: 0, iv: 0.3},
		{name: "negative time to expiry", spot: 450, strike: 450, tte: -0.1, iv: 0.3},
		{name: "zero vol", spot: 450, strike: 450, tte: 0.08, iv: 0},
		{name: "negative vol", spot: 450, strike: 450, tte: 0.08, iv: -0.2},
		{name: "zero spot", spot: 0, strike: 450, tte: 0.08, iv: 0.3},
		{name: "zero strike", spot: 450, strike: 0, tte: 0.08, iv: 0.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UnitGamma(tt.spot, tt.strike, tt.tte, tt.iv, DefaultRiskFreeRate, DefaultDividendYield)
			if got != 0 {
				t.Fatalf("expected zero gamma for degenerate input, got %v", got)
			}
		})
	}
}

func TestUnitGamma_ATMPositive(t *testing.T) {
	gamma := UnitGamma(450, 450, TimeToExpiry(chainDate(30), testNow()), 0.3, DefaultRiskFreeRate, DefaultDividendYield)
	if gamma <= 0 {
		t.Fatalf("expected positive ATM gamma, got %v", gamma)
	}
}

func TestTimeToExpiry_FloorsAtOneDay(t *testing.T) {
	now := testNow()

	expired := TimeToExpiry(now.AddDate(0, 0, -5), now)
	sameDay := TimeToExpiry(now, now)
	oneDay := TimeToExpiry(now.AddDate(0, 0, 1), now)

	want := 1.0 / 365.0 * 262.0 / 365.0
	for _, got := range []float64{expired, sameDay, oneDay} {
		if math.Abs(got-want) > 1e-12 {
			t.Fatalf("expected one-day floor %v, got %v", want, got)
		}
	}
}

func TestApproxImpliedVol_Clamped(t *testing.T) {
	tte := 30.0 / 365.0

	low := ApproxImpliedVol(0.01, 450, 450, tte, true)
	if low != 0.1 {
		t.Fatalf("expected lower clamp 0.1, got %v", low)
	}

	high := ApproxImpliedVol(400, 450, 450, tte, true)
	if high != 2.0 {
		t.Fatalf("expected upper clamp 2.0, got %v", high)
	}

	missing := ApproxImpliedVol(0, 450, 450, tte, true)
	if missing != DefaultImpliedVol {
		t.Fatalf("expected default vol for missing premium, got %v", missing)
	}
}

func TestContractGEX_SignConvention(t *testing.T) {
	call := ContractGEX(0.01, 100, 450, true)
	put := ContractGEX(0.01, 100, 450, false)

	if call <= 0 {
		t.Fatalf("expected positive call GEX, got %v", call)
	}
	if put >= 0 {
		t.Fatalf("expected negative put GEX, got %v", put)
	}
	if call != -put {
		t.Fatalf("expected symmetric magnitudes, call=%v put=%v", call, put)
	}
}

func TestCalculate_SingleATMCall(t *testing.T) {
	e := NewEstimator(1)
	contracts := []model.OptionContract{{
		Strike:            450,
		Expiry:            chainDate(30),
		Type:              model.OptionTypeCall,
		OpenInterest:      1000,
		ImpliedVolatility: fptr(0.3),
	}}

	// MinContracts would top this up; pad with enough copies to keep the
	// chain purely real so the single-contract arithmetic stays checkable.
	profile := calculateWithoutFallback(e, contracts, 450)

	if profile.CallGEX <= 0 {
		t.Fatalf("expected positive call GEX, got %v", profile.CallGEX)
	}
	if profile.PutGEX != 0 {
		t.Fatalf("expected zero put GEX, got %v", profile.PutGEX)
	}
	if profile.TotalGEX != profile.CallGEX {
		t.Fatalf("total %v should equal call %v with no puts", profile.TotalGEX, profile.CallGEX)
	}
}

// calculateWithoutFallback pads the chain to MinContracts with zero-OI rows
// (which the accumulator drops) so tests exercise only real contracts.
func calculateWithoutFallback(e *Estimator, contracts []model.OptionContract, spot float64) model.GEXProfile {
	padded := make([]model.OptionContract, 0, MinContracts)
	padded = append(padded, contracts...)
	for len(padded) < MinContracts {
		padded = append(padded, model.OptionContract{
			Strike: spot,
			Expiry: chainDate(30),
			Type:   model.OptionTypeCall,
		})
	}
	return e.CalculateAt(padded, spot, testNow())
}

func TestCalculate_TotalIsCallPlusPut(t *testing.T) {
	e := NewEstimator(7)

	var contracts []model.OptionContract
	for i := 0; i < 6; i++ {
		strike := 430.0 + float64(i)*8
		contracts = append(contracts,
			model.OptionContract{Strike: strike, Expiry: chainDate(21), Type: model.OptionTypeCall, OpenInterest: 800, ImpliedVolatility: fptr(0.25)},
			model.OptionContract{Strike: strike, Expiry: chainDate(21), Type: model.OptionTypePut, OpenInterest: 900, ImpliedVolatility: fptr(0.28)},
		)
	}

	profile := e.CalculateAt(contracts, 450, testNow())

	if diff := math.Abs(profile.TotalGEX - (profile.CallGEX + profile.PutGEX)); diff > 1e-12 {
		t.Fatalf("total GEX invariant broken, diff=%v", diff)
	}
	if len(profile.SpotProfile) != spotProfileLevels {
		t.Fatalf("expected %d spot levels, got %d", spotProfileLevels, len(profile.SpotProfile))
	}
}

func TestCalculate_ZeroGammaLevelBracketed(t *testing.T) {
	e := NewEstimator(3)

	// heavy put wing below spot and call wing above forces a sign change
	var contracts []model.OptionContract
	for i := 0; i < 5; i++ {
		contracts = append(contracts,
			model.OptionContract{Strike: 470 + float64(i)*5, Expiry: chainDate(25), Type: model.OptionTypeCall, OpenInterest: 3000, ImpliedVolatility: fptr(0.22)},
			model.OptionContract{Strike: 420 - float64(i)*5, Expiry: chainDate(25), Type: model.OptionTypePut, OpenInterest: 5000, ImpliedVolatility: fptr(0.35)},
		)
	}

	profile := e.CalculateAt(contracts, 450, testNow())
	if profile.ZeroGammaLevel == nil {
		t.Skip("no sign change for this chain, nothing to bracket")
	}

	zgl := *profile.ZeroGammaLevel
	var bracketed bool
	for i := 0; i+1 < len(profile.SpotProfile); i++ {
		p1, p2 := profile.SpotProfile[i], profile.SpotProfile[i+1]
		if p1.GEX*p2.GEX < 0 {
			if zgl <= p1.Spot || zgl >= p2.Spot {
				t.Fatalf("ZGL %v not strictly inside bracketing pair [%v, %v]", zgl, p1.Spot, p2.Spot)
			}
			// linear interpolation at the crossing should give ~0
			frac := (zgl - p1.Spot) / (p2.Spot - p1.Spot)
			interp := p1.GEX + frac*(p2.GEX-p1.GEX)
			if math.Abs(interp) > 1e-9 {
				t.Fatalf("interpolated GEX at ZGL should be ~0, got %v", interp)
			}
			bracketed = true
			break
		}
	}
	if !bracketed {
		t.Fatal("ZGL returned but no bracketing pair found in spot profile")
	}
}

func TestCalculate_SyntheticFallbackDeterministic(t *testing.T) {
	a := NewEstimator(42)
	b := NewEstimator(42)

	live := []model.OptionContract{{
		Strike:            450,
		Expiry:            chainDate(30),
		Type:              model.OptionTypeCall,
		OpenInterest:      100,
		ImpliedVolatility: fptr(0.3),
	}}

	p1 := a.CalculateAt(live, 450, testNow())
	p2 := b.CalculateAt(live, 450, testNow())

	if p1.SyntheticCount == 0 {
		t.Fatal("expected synthetic fallback for a one-contract chain")
	}
	if p1.TotalGEX != p2.TotalGEX || p1.CallGEX != p2.CallGEX || p1.PutGEX != p2.PutGEX {
		t.Fatalf("same seed should reproduce the same profile, got %v vs %v", p1.TotalGEX, p2.TotalGEX)
	}
}

func TestContractsFromAlerts_TolerantFields(t *testing.T) {
	alerts := []model.FlowAlert{
		{Symbol: "SPY", Strike: 450, Expiry: chainDate(20), OptionType: model.OptionTypeCall, Premium: 60000, Volume: 12},
		{Symbol: "SPY", Strike: 445, Expiry: chainDate(20), OptionType: model.OptionTypePut, Volume: 40}, // no OI, no premium
		{Symbol: "SPY", Strike: 0, Expiry: chainDate(20), OptionType: model.OptionTypeCall},              // unusable
	}

	contracts := ContractsFromAlerts(alerts)
	if len(contracts) != 2 {
		t.Fatalf("expected 2 usable contracts, got %d", len(contracts))
	}

	if contracts[0].Premium == nil {
		t.Fatal("expected per-share premium on first contract")
	}
	want := 60000.0 / (12 * ContractSize)
	if math.Abs(*contracts[0].Premium-want) > 1e-9 {
		t.Fatalf("expected per-share premium %v, got %v", want, *contracts[0].Premium)
	}

	if contracts[1].OpenInterest != 40 {
		t.Fatalf("expected OI fallback to volume, got %d", contracts[1].OpenInterest)
	}
}
