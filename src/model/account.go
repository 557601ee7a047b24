package model

// AlpacaAccount is the broker account snapshot consumed by the risk manager.
// Fetched fresh every assessment cycle; a blocked or unreachable account is
// a reject-all-trades condition, never a crash.
type AlpacaAccount struct {
	ID             string  `json:"id"`
	PortfolioValue float64 `json:"portfolio_value"`
	BuyingPower    float64 `json:"buying_power"`
	Cash           float64 `json:"cash"`
	DayTradeCount  int     `json:"daytrade_count"`
	TradingBlocked bool    `json:"trading_blocked"`
}

// AlpacaPosition is one open broker position.
type AlpacaPosition struct {
	Symbol       string  `json:"symbol"`
	Qty          float64 `json:"qty"`
	CurrentPrice float64 `json:"current_price"`
	MarketValue  float64 `json:"market_value"`
	UnrealizedPL float64 `json:"unrealized_pl"`
}
