package model

// Recommendation is the risk manager's verdict on a proposed trade.
type Recommendation string

const (
	RecommendationExecute Recommendation = "execute"
	RecommendationReduce  Recommendation = "reduce"
	RecommendationReject  Recommendation = "reject"
)

// RiskAssessment is the risk manager's output for one signal against one
// account/position snapshot. Derived fresh per call; never stored.
type RiskAssessment struct {
	Symbol          string         `json:"symbol"`
	PositionSize    int            `json:"position_size"` // shares, >= 0
	RiskScore       float64        `json:"risk_score"`    // [0, 1]
	MaxPositionSize int            `json:"max_position_size"`
	RiskAmount      float64        `json:"risk_amount"` // dollars
	Recommendation  Recommendation `json:"recommendation"`
	Reasons         []string       `json:"reasons"`
}
