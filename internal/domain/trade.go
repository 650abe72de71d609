package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Side int

const (
	Buy Side = iota + 1
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return fmt.Sprintf("Side(%d)", int(s))
	}
}

func (s Side) Valid() bool {
	return s == Buy || s == Sell
}

func (s Side) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("cannot marshal %s", s)
	}
	return []byte(s.String()), nil
}

func (s *Side) UnmarshalText(b []byte) error {
	parsed, err := ParseSide(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func ParseSide(s string) (Side, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY", "B":
		return Buy, nil
	case "SELL", "S":
		return Sell, nil
	}
	return 0, &ValidationError{Field: "side", Value: s, Reason: "expected BUY or SELL"}
}

// Trade is a single execution recorded against a stock. It is never mutated
// after NewTrade returns.
type Trade struct {
	ID        uuid.UUID       `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Quantity  int64           `json:"share_quantity"`
	Side      Side            `json:"side"`
	Price     decimal.Decimal `json:"price"`
}

func NewTrade(ts time.Time, quantity int64, side Side, price decimal.Decimal) (Trade, error) {
	if ts.IsZero() {
		return Trade{}, &ValidationError{Field: "timestamp", Value: ts, Reason: "timestamp is required"}
	}
	if quantity <= 0 {
		return Trade{}, &ValidationError{Field: "share_quantity", Value: quantity, Reason: "must be a positive integer"}
	}
	if !side.Valid() {
		return Trade{}, &ValidationError{Field: "side", Value: side, Reason: "expected BUY or SELL"}
	}
	if price.IsNegative() {
		return Trade{}, &ValidationError{Field: "price", Value: price, Reason: "must not be negative"}
	}

	return Trade{
		ID:        uuid.New(),
		Timestamp: ts.UTC(),
		Quantity:  quantity,
		Side:      side,
		Price:     price,
	}, nil
}

// Notional is price times quantity.
func (t Trade) Notional() decimal.Decimal {
	return t.Price.Mul(decimal.NewFromInt(t.Quantity))
}

// CompareTrades orders trades by timestamp only. Trades sharing a timestamp
// compare equal without being the same trade.
func CompareTrades(a, b Trade) int {
	return a.Timestamp.Compare(b.Timestamp)
}

func TradeBefore(a, b Trade) bool {
	return CompareTrades(a, b) < 0
}

func (t Trade) String() string {
	return fmt.Sprintf("%s %s %d @ %s", t.Timestamp.Format(time.RFC3339), t.Side, t.Quantity, t.Price.String())
}

// TradeRecord is a trade addressed to a stock symbol, as received from a file
// or an API client before it is recorded.
type TradeRecord struct {
	Symbol    string          `json:"symbol"`
	Timestamp time.Time       `json:"timestamp"`
	Quantity  int64           `json:"share_quantity"`
	Side      Side            `json:"side"`
	Price     decimal.Decimal `json:"price"`
}
