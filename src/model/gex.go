package model

import "time"

// StrikeGEX is the aggregated gamma exposure at a single strike, in billions
// of dollars per 1% underlying move.
type StrikeGEX struct {
	Strike  float64 `json:"strike"`
	GEX     float64 `json:"gex"`
	CallGEX float64 `json:"call_gex"`
	PutGEX  float64 `json:"put_gex"`
}

// SpotGEX is total gamma exposure recomputed at a hypothetical spot level.
type SpotGEX struct {
	Spot float64 `json:"spot"`
	GEX  float64 `json:"gex"`
}

// GEXProfile is the full dealer gamma exposure picture for one underlying at
// one moment. All GEX figures are in billions of dollars of delta-hedge
// rebalancing per 1% underlying move, signed by the standard dealer
// positioning convention (long calls, short puts).
//
// TotalGEX == CallGEX + PutGEX holds by construction.
type GEXProfile struct {
	Symbol         string      `json:"symbol"`
	Spot           float64     `json:"spot"`
	TotalGEX       float64     `json:"total_gex"`
	CallGEX        float64     `json:"call_gex"`
	PutGEX         float64     `json:"put_gex"`
	ZeroGammaLevel *float64    `json:"zero_gamma_level,omitempty"`
	Strikes        []StrikeGEX `json:"strikes"`
	SpotProfile    []SpotGEX   `json:"spot_profile"`
	ContractCount  int         `json:"contract_count"`
	SyntheticCount int         `json:"synthetic_count"`
	Timestamp      time.Time   `json:"timestamp"`
}

// HasZeroGamma reports whether a zero gamma crossing was found inside the
// scanned spot band.
func (g *GEXProfile) HasZeroGamma() bool {
	return g != nil && g.ZeroGammaLevel != nil
}
