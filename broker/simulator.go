// Package broker simulates order execution for entries moved into trading.
// Money math runs on decimals so simulated fills and fees stay exact.
package broker

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Fee rates applied to simulated fills. Commission is charged on both
// sides, the transaction tax on sells only.
var (
	commissionRate = decimal.NewFromFloat(0.00015)
	sellTaxRate    = decimal.NewFromFloat(0.0018)
)

// Position is one open simulated position.
type Position struct {
	Ticker     string          `json:"ticker"`
	Quantity   int64           `json:"quantity"`
	EntryPrice decimal.Decimal `json:"entry_price"`
	EntryFee   decimal.Decimal `json:"entry_fee"`
	OpenedAt   time.Time       `json:"opened_at"`
}

// TradeResult is the outcome of a closed simulated position.
type TradeResult struct {
	Ticker     string          `json:"ticker"`
	Quantity   int64           `json:"quantity"`
	EntryPrice decimal.Decimal `json:"entry_price"`
	ExitPrice  decimal.Decimal `json:"exit_price"`
	Fees       decimal.Decimal `json:"fees"`
	PnL        decimal.Decimal `json:"pnl"`
	ReturnPct  decimal.Decimal `json:"return_pct"`
	HeldFor    time.Duration   `json:"held_for"`
	ClosedAt   time.Time       `json:"closed_at"`
}

// Simulator tracks simulated positions keyed by ticker.
type Simulator struct {
	mu        sync.Mutex
	budget    decimal.Decimal
	positions map[string]Position
}

// NewSimulator creates a simulator that sizes each position from the given
// per-trade budget.
func NewSimulator(budget float64) *Simulator {
	return &Simulator{
		budget:    decimal.NewFromFloat(budget),
		positions: make(map[string]Position),
	}
}

// Open fills a simulated buy at the given price, sizing the quantity to
// the per-trade budget. Re-opening an existing position is rejected.
func (s *Simulator) Open(ticker string, price float64) (Position, error) {
	if price <= 0 {
		return Position{}, fmt.Errorf("invalid price %v for %s", price, ticker)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.positions[ticker]; exists {
		return Position{}, fmt.Errorf("position already open for %s", ticker)
	}

	entryPrice := decimal.NewFromFloat(price)
	quantity := s.budget.Div(entryPrice).IntPart()
	if quantity < 1 {
		return Position{}, fmt.Errorf("budget too small for one share of %s at %v", ticker, price)
	}

	notional := entryPrice.Mul(decimal.NewFromInt(quantity))
	position := Position{
		Ticker:     ticker,
		Quantity:   quantity,
		EntryPrice: entryPrice,
		EntryFee:   notional.Mul(commissionRate).Round(2),
		OpenedAt:   time.Now(),
	}
	s.positions[ticker] = position
	return position, nil
}

// Close fills a simulated sell at the given price and returns the realized
// result net of commission and transaction tax.
func (s *Simulator) Close(ticker string, price float64) (TradeResult, error) {
	if price <= 0 {
		return TradeResult{}, fmt.Errorf("invalid price %v for %s", price, ticker)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	position, exists := s.positions[ticker]
	if !exists {
		return TradeResult{}, fmt.Errorf("no open position for %s", ticker)
	}
	delete(s.positions, ticker)

	exitPrice := decimal.NewFromFloat(price)
	quantity := decimal.NewFromInt(position.Quantity)

	entryNotional := position.EntryPrice.Mul(quantity)
	exitNotional := exitPrice.Mul(quantity)
	exitFees := exitNotional.Mul(commissionRate.Add(sellTaxRate)).Round(2)
	fees := position.EntryFee.Add(exitFees)

	pnl := exitNotional.Sub(entryNotional).Sub(fees)
	returnPct := decimal.Zero
	if !entryNotional.IsZero() {
		returnPct = pnl.Div(entryNotional).Mul(decimal.NewFromInt(100)).Round(2)
	}

	now := time.Now()
	return TradeResult{
		Ticker:     ticker,
		Quantity:   position.Quantity,
		EntryPrice: position.EntryPrice,
		ExitPrice:  exitPrice,
		Fees:       fees,
		PnL:        pnl,
		ReturnPct:  returnPct,
		HeldFor:    now.Sub(position.OpenedAt),
		ClosedAt:   now,
	}, nil
}

// OpenPositions returns a snapshot of the open positions.
func (s *Simulator) OpenPositions() []Position {
	s.mu.Lock()
	defer s.mu.Unlock()

	positions := make([]Position, 0, len(s.positions))
	for _, p := range s.positions {
		positions = append(positions, p)
	}
	return positions
}
