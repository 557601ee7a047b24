// REST client for the Alpaca trading and market-data APIs.
// Resty only, internal retry.
package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"

	"qppf/src/model"
)

const (
	defaultRetryAttempts   = 5
	defaultRetryBaseDelay  = 500 * time.Millisecond
	defaultRetryMaxBackoff = 8 * time.Second
)

type alpacaAPIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// AlpacaClient talks to one Alpaca environment (paper by default). The data
// API lives on a separate host, hence the second resty client.
type AlpacaClient struct {
	trading *resty.Client
	data    *resty.Client
}

func isRetryableResp(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if r == nil {
		return false
	}

	code := r.StatusCode()
	if code >= 500 && code <= 599 {
		return true
	}
	if code == 429 {
		return true
	}
	if code == 408 {
		return true
	}
	return false
}

func newRestyClient(baseURL, key, secret string) *resty.Client {
	return resty.New().
		SetBaseURL(baseURL).
		SetHeader("APCA-API-KEY-ID", key).
		SetHeader("APCA-API-SECRET-KEY", secret).
		SetHeader("Accept", "application/json").
		SetRetryCount(defaultRetryAttempts - 1).
		SetRetryWaitTime(defaultRetryBaseDelay).
		SetRetryMaxWaitTime(defaultRetryMaxBackoff).
		AddRetryCondition(isRetryableResp)
}

func NewAlpacaClient(key, secret, baseURL, dataURL string) *AlpacaClient {
	if baseURL == "" {
		baseURL = "https://paper-api.alpaca.markets"
		logger.Warnf("No base URL provided, using default: %s", baseURL)
	}
	if dataURL == "" {
		dataURL = "https://data.alpaca.markets"
	}

	return &AlpacaClient{
		trading: newRestyClient(baseURL, key, secret),
		data:    newRestyClient(dataURL, key, secret),
	}
}

// Alpaca serializes most numerics as JSON strings.
func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

type alpacaAccountPayload struct {
	ID             string `json:"id"`
	PortfolioValue string `json:"portfolio_value"`
	BuyingPower    string `json:"buying_power"`
	Cash           string `json:"cash"`
	DayTradeCount  int    `json:"daytrade_count"`
	TradingBlocked bool   `json:"trading_blocked"`
}

// GetAccount fetches the current account snapshot.
func (c *AlpacaClient) GetAccount(ctx context.Context) (*model.AlpacaAccount, error) {
	var payload alpacaAccountPayload
	var apiErr alpacaAPIError

	resp, err := c.trading.R().
		SetContext(ctx).
		SetResult(&payload).
		SetError(&apiErr).
		Get("/v2/account")
	if err != nil {
		return nil, fmt.Errorf("%w: get account: %v", ErrUpstreamUnavailable, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: get account: %s", ErrUpstreamUnavailable, GetErrorMsg(apiErr.Code))
	}

	return &model.AlpacaAccount{
		ID:             payload.ID,
		PortfolioValue: parseFloat(payload.PortfolioValue),
		BuyingPower:    parseFloat(payload.BuyingPower),
		Cash:           parseFloat(payload.Cash),
		DayTradeCount:  payload.DayTradeCount,
		TradingBlocked: payload.TradingBlocked,
	}, nil
}

type alpacaPositionPayload struct {
	Symbol       string `json:"symbol"`
	Qty          string `json:"qty"`
	CurrentPrice string `json:"current_price"`
	MarketValue  string `json:"market_value"`
	UnrealizedPL string `json:"unrealized_pl"`
}

// GetPositions lists all open positions.
func (c *AlpacaClient) GetPositions(ctx context.Context) ([]model.AlpacaPosition, error) {
	var payload []alpacaPositionPayload
	var apiErr alpacaAPIError

	resp, err := c.trading.R().
		SetContext(ctx).
		SetResult(&payload).
		SetError(&apiErr).
		Get("/v2/positions")
	if err != nil {
		return nil, fmt.Errorf("%w: get positions: %v", ErrUpstreamUnavailable, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: get positions: %s", ErrUpstreamUnavailable, GetErrorMsg(apiErr.Code))
	}

	positions := make([]model.AlpacaPosition, 0, len(payload))
	for _, p := range payload {
		positions = append(positions, model.AlpacaPosition{
			Symbol:       p.Symbol,
			Qty:          parseFloat(p.Qty),
			CurrentPrice: parseFloat(p.CurrentPrice),
			MarketValue:  parseFloat(p.MarketValue),
			UnrealizedPL: parseFloat(p.UnrealizedPL),
		})
	}
	return positions, nil
}

type alpacaSnapshotPayload struct {
	LatestTrade struct {
		Price     float64   `json:"p"`
		Timestamp time.Time `json:"t"`
	} `json:"latestTrade"`
	LatestQuote struct {
		BidPrice float64 `json:"bp"`
		AskPrice float64 `json:"ap"`
	} `json:"latestQuote"`
	DailyBar struct {
		Volume int64 `json:"v"`
	} `json:"dailyBar"`
}

// GetQuote fetches the latest trade/quote/volume snapshot for a symbol.
func (c *AlpacaClient) GetQuote(ctx context.Context, symbol string) (*model.MarketData, error) {
	var payload alpacaSnapshotPayload
	var apiErr alpacaAPIError

	resp, err := c.data.R().
		SetContext(ctx).
		SetResult(&payload).
		SetError(&apiErr).
		Get(fmt.Sprintf("/v2/stocks/%s/snapshot", symbol))
	if err != nil {
		return nil, fmt.Errorf("%w: snapshot %s: %v", ErrUpstreamUnavailable, symbol, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: snapshot %s: %s", ErrUpstreamUnavailable, symbol, GetErrorMsg(apiErr.Code))
	}
	if payload.LatestTrade.Price <= 0 {
		return nil, fmt.Errorf("%w: snapshot %s carried no trade price", ErrNoQuote, symbol)
	}

	ts := payload.LatestTrade.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	return &model.MarketData{
		Symbol:    symbol,
		Price:     payload.LatestTrade.Price,
		Volume:    payload.DailyBar.Volume,
		Bid:       payload.LatestQuote.BidPrice,
		Ask:       payload.LatestQuote.AskPrice,
		Timestamp: ts,
	}, nil
}

type alpacaOrderPayload struct {
	ID            string  `json:"id"`
	ClientOrderID string  `json:"client_order_id"`
	Symbol        string  `json:"symbol"`
	Qty           string  `json:"qty"`
	Side          string  `json:"side"`
	Type          string  `json:"type"`
	Status        string  `json:"status"`
	FilledAvgPx   *string `json:"filled_avg_price"`
}

// SubmitOrder places a day market/limit order. The generated client order id
// makes retried submissions idempotent on the broker side.
func (c *AlpacaClient) SubmitOrder(ctx context.Context, symbol, side string, qty int, orderType string) (*model.Order, error) {
	clientOrderID := uuid.NewString()

	body := map[string]any{
		"symbol":          symbol,
		"qty":             strconv.Itoa(qty),
		"side":            side,
		"type":            orderType,
		"time_in_force":   "day",
		"client_order_id": clientOrderID,
	}

	var payload alpacaOrderPayload
	var apiErr alpacaAPIError

	resp, err := c.trading.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&payload).
		SetError(&apiErr).
		Post("/v2/orders")
	if err != nil {
		return nil, fmt.Errorf("%w: submit order: %v", ErrUpstreamUnavailable, err)
	}
	if resp.IsError() {
		logger.WithFields(logger.Fields{
			"symbol": symbol,
			"side":   side,
			"qty":    qty,
			"code":   apiErr.Code,
		}).Error("alpaca rejected order")
		return nil, fmt.Errorf("%w: %s: %s", ErrOrderRejected, GetErrorMsg(apiErr.Code), apiErr.Message)
	}

	order := &model.Order{
		ClientOrderID: clientOrderID,
		BrokerOrderID: payload.ID,
		Symbol:        symbol,
		Side:          side,
		OrderType:     orderType,
		Quantity:      qty,
		Status:        payload.Status,
		SubmittedAt:   time.Now(),
	}
	if payload.FilledAvgPx != nil {
		px := parseFloat(*payload.FilledAvgPx)
		order.Price = &px
	}

	logger.WithFields(logger.Fields{
		"symbol":          symbol,
		"side":            side,
		"qty":             qty,
		"client_order_id": clientOrderID,
		"broker_order_id": payload.ID,
	}).Info("order submitted to alpaca")

	return order, nil
}

// decodeOrderPayload is split out for tests.
func decodeOrderPayload(raw []byte) (*alpacaOrderPayload, error) {
	var payload alpacaOrderPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}
