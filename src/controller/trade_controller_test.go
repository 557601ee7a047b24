package controller

import (
	"context"
	"errors"
	"testing"

	"qppf/src/model"
)

type mockBroker struct {
	lastSymbol string
	lastSide   string
	lastQty    int
	lastType   string
	calls      int
	err        error
}

func (m *mockBroker) SubmitOrder(_ context.Context, symbol, side string, qty int, orderType string) (*model.Order, error) {
	m.calls++
	m.lastSymbol = symbol
	m.lastSide = side
	m.lastQty = qty
	m.lastType = orderType
	if m.err != nil {
		return nil, m.err
	}
	return &model.Order{
		ClientOrderID: "cid-1",
		BrokerOrderID: "bid-1",
		Symbol:        symbol,
		Side:          side,
		Quantity:      qty,
		Status:        model.OrderStatusAccepted,
	}, nil
}

func executableAssessment(size int) model.RiskAssessment {
	return model.RiskAssessment{
		Symbol:         "SPY",
		PositionSize:   size,
		Recommendation: model.RecommendationExecute,
	}
}

func TestExecute_SubmitsBuyForLong(t *testing.T) {
	broker := &mockBroker{}
	tc := NewTradeController(broker)

	sig := model.Signal{Symbol: "SPY", Direction: model.DirectionLong, Confidence: 0.8}
	order, err := tc.Execute(context.Background(), sig, executableAssessment(16))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if broker.lastSide != model.OrderSideBuy {
		t.Fatalf("side = %q, want buy", broker.lastSide)
	}
	if broker.lastQty != 16 {
		t.Fatalf("qty = %d, want 16", broker.lastQty)
	}
	if broker.lastType != model.OrderTypeMarket {
		t.Fatalf("type = %q, want market", broker.lastType)
	}
	if order.Status != model.OrderStatusAccepted {
		t.Fatalf("status = %q, want accepted", order.Status)
	}
}

func TestExecute_SubmitsSellForShort(t *testing.T) {
	broker := &mockBroker{}
	tc := NewTradeController(broker)

	sig := model.Signal{Symbol: "SPY", Direction: model.DirectionShort}
	if _, err := tc.Execute(context.Background(), sig, executableAssessment(10)); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if broker.lastSide != model.OrderSideSell {
		t.Fatalf("side = %q, want sell", broker.lastSide)
	}
}

func TestExecute_RefusesNonExecutableAssessment(t *testing.T) {
	tests := []struct {
		name       string
		assessment model.RiskAssessment
	}{
		{name: "reject", assessment: model.RiskAssessment{Recommendation: model.RecommendationReject, PositionSize: 10}},
		{name: "zero size", assessment: model.RiskAssessment{Recommendation: model.RecommendationExecute, PositionSize: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			broker := &mockBroker{}
			tc := NewTradeController(broker)

			sig := model.Signal{Symbol: "SPY", Direction: model.DirectionLong}
			_, err := tc.Execute(context.Background(), sig, tt.assessment)
			if !errors.Is(err, ErrNotExecutable) {
				t.Fatalf("err = %v, want ErrNotExecutable", err)
			}
			if broker.calls != 0 {
				t.Fatal("broker must not be called")
			}
		})
	}
}

func TestExecute_RefusesFlatSignal(t *testing.T) {
	broker := &mockBroker{}
	tc := NewTradeController(broker)

	sig := model.Signal{Symbol: "SPY", Direction: model.DirectionFlat}
	_, err := tc.Execute(context.Background(), sig, executableAssessment(10))
	if !errors.Is(err, ErrFlatDirection) {
		t.Fatalf("err = %v, want ErrFlatDirection", err)
	}
	if broker.calls != 0 {
		t.Fatal("broker must not be called for flat signals")
	}
}

func TestExecute_PropagatesBrokerError(t *testing.T) {
	broker := &mockBroker{err: errors.New("insufficient buying power")}
	tc := NewTradeController(broker)

	sig := model.Signal{Symbol: "SPY", Direction: model.DirectionLong}
	if _, err := tc.Execute(context.Background(), sig, executableAssessment(10)); err == nil {
		t.Fatal("expected broker error to propagate")
	}
}
