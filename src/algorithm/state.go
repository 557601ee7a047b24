package algorithm

import (
	"sync"
	"time"

	"qppf/src/model"
)

// historyCap bounds price/volume history; oldest entries evict first.
const historyCap = 100

// State is the mutable per-symbol algorithm state. The scoring loop is the
// single writer; the HTTP surface reads it, hence the mutex.
type State struct {
	mu sync.RWMutex

	symbol         string
	positionSize   int // signed: >0 long, <0 short
	entryPrice     float64
	entryTime      *time.Time
	priceHistory   []float64
	volumeHistory  []int64
	tradesExecuted int
	isActive       bool
}

func NewState(symbol string) *State {
	return &State{symbol: symbol, isActive: true}
}

// AppendTick records the cycle's price/volume observation.
func (s *State) AppendTick(price float64, volume int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.priceHistory = append(s.priceHistory, price)
	if len(s.priceHistory) > historyCap {
		s.priceHistory = s.priceHistory[len(s.priceHistory)-historyCap:]
	}

	s.volumeHistory = append(s.volumeHistory, volume)
	if len(s.volumeHistory) > historyCap {
		s.volumeHistory = s.volumeHistory[len(s.volumeHistory)-historyCap:]
	}
}

// Prices returns a copy of the price history.
func (s *State) Prices() []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]float64, len(s.priceHistory))
	copy(out, s.priceHistory)
	return out
}

// LastPrice returns the most recent observed price, or 0 when no history
// exists yet.
func (s *State) LastPrice() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.priceHistory) == 0 {
		return 0
	}
	return s.priceHistory[len(s.priceHistory)-1]
}

// RecordFill applies an executed trade to the position.
func (s *State) RecordFill(direction model.Direction, qty int, price float64, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	signed := qty
	if direction == model.DirectionShort {
		signed = -qty
	}

	s.positionSize = signed
	s.entryPrice = price
	t := at
	s.entryTime = &t
	s.tradesExecuted++
}

// Reset returns the state to its initial values, keeping the symbol.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.positionSize = 0
	s.entryPrice = 0
	s.entryTime = nil
	s.priceHistory = nil
	s.volumeHistory = nil
	s.tradesExecuted = 0
	s.isActive = true
}

// Snapshot is the JSON view served by the status endpoint.
type StateSnapshot struct {
	Symbol         string     `json:"symbol"`
	PositionSize   int        `json:"position_size"`
	EntryPrice     float64    `json:"entry_price,omitempty"`
	EntryTime      *time.Time `json:"entry_time,omitempty"`
	PricePoints    int        `json:"price_points"`
	TradesExecuted int        `json:"trades_executed"`
	IsActive       bool       `json:"is_active"`
}

func (s *State) Snapshot() StateSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return StateSnapshot{
		Symbol:         s.symbol,
		PositionSize:   s.positionSize,
		EntryPrice:     s.entryPrice,
		EntryTime:      s.entryTime,
		PricePoints:    len(s.priceHistory),
		TradesExecuted: s.tradesExecuted,
		IsActive:       s.isActive,
	}
}
