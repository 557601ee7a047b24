package model

import "time"

const (
	OptionTypeCall = "call"
	OptionTypePut  = "put"
)

// OptionContract is one options chain row used by the gamma estimator.
// Constructed per scoring cycle from flow alerts (or synthesized when live
// data is sparse) and never mutated after creation. IV, premium and volume
// are optional; nil means the upstream alert did not carry the field.
type OptionContract struct {
	Symbol            string    `json:"symbol"`
	Strike            float64   `json:"strike"`
	Expiry            time.Time `json:"expiry"`
	Type              string    `json:"type"`
	OpenInterest      int64     `json:"open_interest"`
	ImpliedVolatility *float64  `json:"implied_volatility,omitempty"`
	Premium           *float64  `json:"premium,omitempty"`
	Volume            *int64    `json:"volume,omitempty"`
	Synthetic         bool      `json:"synthetic,omitempty"`
}

// IsCall reports whether the contract is a call. Anything that is not an
// explicit put counts as a call, matching the tolerant-parse policy for
// upstream alert payloads.
func (c OptionContract) IsCall() bool {
	return c.Type != OptionTypePut
}

// FlowAlert is a raw options-flow event from the flow provider. Optional
// fields may be zero; the contract and sentiment builders must tolerate that
// without raising.
type FlowAlert struct {
	Symbol       string    `json:"symbol"`
	Strike       float64   `json:"strike"`
	Expiry       time.Time `json:"expiry"`
	OptionType   string    `json:"option_type"`
	Premium      float64   `json:"premium"`
	Volume       int64     `json:"volume"`
	OpenInterest int64     `json:"open_interest"`
	Timestamp    time.Time `json:"timestamp"`
}
