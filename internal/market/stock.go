package market

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jeovahfialho/stock-exchange/internal/domain"
	"github.com/jeovahfialho/stock-exchange/internal/ledger"
)

// VWPWindow is the trailing window used by VolumeWeightedPrice.
const VWPWindow = 15 * time.Minute

var maxFixedDividend = decimal.NewFromInt(100)

// StockParams carries the attributes a Stock is listed with. FixedDividend must
// be set for Preferred stocks and left invalid for Common ones.
type StockParams struct {
	Symbol        string
	Type          domain.StockType
	LastDividend  int64
	ParValue      int64
	FixedDividend decimal.NullDecimal
}

type Stock struct {
	symbol        string
	stockType     domain.StockType
	lastDividend  int64
	parValue      int64
	fixedDividend decimal.NullDecimal
	trades        *ledger.Ledger
}

func NewStock(p StockParams) (*Stock, error) {
	symbol, err := normaliseSymbol(p.Symbol)
	if err != nil {
		return nil, err
	}

	if !p.Type.Valid() {
		return nil, &domain.ValidationError{Field: "stock_type", Value: p.Type, Reason: "expected Common or Preferred"}
	}

	if p.LastDividend < 0 {
		return nil, &domain.ValidationError{Field: "last_dividend", Value: p.LastDividend, Reason: "must not be negative"}
	}

	if p.ParValue < 0 {
		return nil, &domain.ValidationError{Field: "par_value", Value: p.ParValue, Reason: "must not be negative"}
	}

	switch {
	case p.Type == domain.Preferred && !p.FixedDividend.Valid:
		return nil, &domain.ValidationError{Field: "fixed_dividend", Value: nil, Reason: "required for Preferred stock"}
	case p.Type == domain.Common && p.FixedDividend.Valid:
		return nil, &domain.ValidationError{Field: "fixed_dividend", Value: p.FixedDividend.Decimal, Reason: "only Preferred stock carries a fixed dividend"}
	case p.FixedDividend.Valid && (p.FixedDividend.Decimal.IsNegative() || p.FixedDividend.Decimal.GreaterThan(maxFixedDividend)):
		return nil, &domain.ValidationError{Field: "fixed_dividend", Value: p.FixedDividend.Decimal, Reason: "must be between 0 and 100"}
	}

	return &Stock{
		symbol:        symbol,
		stockType:     p.Type,
		lastDividend:  p.LastDividend,
		parValue:      p.ParValue,
		fixedDividend: p.FixedDividend,
		trades:        ledger.New(),
	}, nil
}

func normaliseSymbol(s string) (string, error) {
	if len(s) != 3 {
		return "", &domain.ValidationError{Field: "symbol", Value: s, Reason: "requires a 3-letter symbol"}
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z') {
			return "", &domain.ValidationError{Field: "symbol", Value: s, Reason: "requires a 3-letter symbol"}
		}
	}
	return strings.ToUpper(s), nil
}

func (s *Stock) Symbol() string                     { return s.symbol }
func (s *Stock) Type() domain.StockType             { return s.stockType }
func (s *Stock) LastDividend() int64                { return s.lastDividend }
func (s *Stock) ParValue() int64                    { return s.parValue }
func (s *Stock) FixedDividend() decimal.NullDecimal { return s.fixedDividend }
func (s *Stock) TradeCount() int                    { return s.trades.Len() }

// AddTrade records a trade in the stock's ledger. An invalid trade leaves the
// ledger untouched.
func (s *Stock) AddTrade(ts time.Time, quantity int64, side domain.Side, price decimal.Decimal) (domain.Trade, error) {
	trade, err := domain.NewTrade(ts, quantity, side, price)
	if err != nil {
		return domain.Trade{}, fmt.Errorf("%s: %w", s.symbol, err)
	}
	s.trades.Insert(trade)
	return trade, nil
}

func (s *Stock) TradesSince(cutoff time.Time) []domain.Trade {
	return s.trades.Since(cutoff)
}

func (s *Stock) TradesBetween(from, to time.Time) []domain.Trade {
	return s.trades.Between(from, to)
}

func (s *Stock) LastTrade() (domain.Trade, bool) {
	return s.trades.Last()
}

// DividendYield is last_dividend / price for Common stock and
// fixed_dividend * par_value / price for Preferred stock.
func (s *Stock) DividendYield(marketPrice decimal.Decimal) (decimal.Decimal, error) {
	if !marketPrice.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: division by non-positive price %s", domain.ErrInvalidArgument, marketPrice)
	}

	if s.stockType == domain.Common {
		return decimal.NewFromInt(s.lastDividend).Div(marketPrice), nil
	}
	return s.fixedDividend.Decimal.Mul(decimal.NewFromInt(s.parValue)).Div(marketPrice), nil
}

func (s *Stock) PERatio(marketPrice decimal.Decimal) (decimal.Decimal, error) {
	if s.stockType == domain.Common {
		if s.lastDividend == 0 {
			return decimal.Zero, fmt.Errorf("%w: last dividend was 0", domain.ErrUndefinedRatio)
		}
		return marketPrice.Div(decimal.NewFromInt(s.lastDividend)), nil
	}

	if !s.fixedDividend.Valid || s.parValue == 0 {
		return decimal.Zero, fmt.Errorf("%w: fixed dividend or par value was 0", domain.ErrUndefinedRatio)
	}
	basis := s.fixedDividend.Decimal.Mul(decimal.NewFromInt(s.parValue))
	if basis.IsZero() {
		return decimal.Zero, fmt.Errorf("%w: fixed dividend or par value was 0", domain.ErrUndefinedRatio)
	}
	return marketPrice.Div(basis), nil
}

// VolumeWeightedPrice is sum(price*quantity) / sum(quantity) over the trades in
// [now-VWPWindow, now].
func (s *Stock) VolumeWeightedPrice(now time.Time) (decimal.Decimal, error) {
	return s.VolumeWeightedPriceOver(now, VWPWindow)
}

func (s *Stock) VolumeWeightedPriceOver(now time.Time, window time.Duration) (decimal.Decimal, error) {
	return volumeWeighted(s.trades.Since(now.Add(-window)))
}

func volumeWeighted(trades []domain.Trade) (decimal.Decimal, error) {
	var quantities int64
	volume := decimal.Zero
	for _, t := range trades {
		quantities += t.Quantity
		volume = volume.Add(t.Notional())
	}

	if quantities <= 0 {
		return decimal.Zero, fmt.Errorf("%w: no trades in window to compute price", domain.ErrEmptyWindow)
	}
	return volume.Div(decimal.NewFromInt(quantities)), nil
}

func (s *Stock) Snapshot() domain.StockSnapshot {
	snap := domain.StockSnapshot{
		Symbol:       s.symbol,
		Type:         s.stockType.String(),
		LastDividend: s.lastDividend,
		ParValue:     s.parValue,
		TradeCount:   s.trades.Len(),
	}
	if s.fixedDividend.Valid {
		fd := s.fixedDividend.Decimal
		snap.FixedDividend = &fd
	}
	if last, ok := s.trades.Last(); ok {
		snap.LastTrade = &last
	}
	return snap
}

func (s *Stock) String() string {
	fixed := "-"
	if s.fixedDividend.Valid {
		fixed = s.fixedDividend.Decimal.String()
	}
	return fmt.Sprintf("%s | Type: %s | LastDiv: %d | FixedDividend: %s | ParValue: %d | Trades: %d",
		s.symbol, s.stockType, s.lastDividend, fixed, s.parValue, s.trades.Len())
}
