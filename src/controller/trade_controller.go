package controller

import (
	"context"
	"errors"
	"fmt"

	logger "github.com/sirupsen/logrus"

	"qppf/src/model"
	"qppf/src/risk"
)

var (
	ErrNotExecutable = errors.New("assessment does not permit execution")
	ErrFlatDirection = errors.New("flat signal has no order side")
)

// OrderSubmitter is the broker boundary used by the trade controller.
type OrderSubmitter interface {
	SubmitOrder(ctx context.Context, symbol, side string, qty int, orderType string) (*model.Order, error)
}

// TradeController turns an approved signal/assessment pair into a broker
// order. It is the only component that talks to the order endpoint; the
// risk manager's verdict is re-checked here so a stale or hand-built
// assessment can never place a trade.
type TradeController struct {
	broker OrderSubmitter
	log    *logger.Entry
}

func NewTradeController(broker OrderSubmitter) *TradeController {
	return &TradeController{
		broker: broker,
		log:    logger.WithField("component", "trade_controller"),
	}
}

// Execute submits a market order sized by the assessment. Orders use day
// time-in-force market semantics; the scorer and risk manager work off
// fresh quotes each cycle, so chasing a limit price buys nothing here.
func (t *TradeController) Execute(ctx context.Context, sig model.Signal, assessment model.RiskAssessment) (*model.Order, error) {
	if !risk.ShouldExecuteTrade(assessment) {
		return nil, fmt.Errorf("%w: %s", ErrNotExecutable, assessment.Recommendation)
	}

	side, err := orderSide(sig.Direction)
	if err != nil {
		return nil, err
	}

	t.log.WithFields(logger.Fields{
		"symbol":    sig.Symbol,
		"side":      side,
		"qty":       assessment.PositionSize,
		"conf":      sig.Confidence,
		"riskScore": assessment.RiskScore,
	}).Info("submitting order")

	order, err := t.broker.SubmitOrder(ctx, sig.Symbol, side, assessment.PositionSize, model.OrderTypeMarket)
	if err != nil {
		t.log.WithError(err).Error("order submission failed")
		return nil, err
	}

	t.log.WithFields(logger.Fields{
		"client_order_id": order.ClientOrderID,
		"broker_order_id": order.BrokerOrderID,
		"status":          order.Status,
	}).Info("order accepted by broker")

	return order, nil
}

func orderSide(d model.Direction) (string, error) {
	switch d {
	case model.DirectionLong:
		return model.OrderSideBuy, nil
	case model.DirectionShort:
		return model.OrderSideSell, nil
	default:
		return "", ErrFlatDirection
	}
}
