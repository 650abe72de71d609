package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestNewTrade_Validation(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		name      string
		ts        time.Time
		qty       int64
		side      Side
		price     int64
		wantField string
	}{
		{name: "valid buy", ts: now, qty: 10, side: Buy, price: 100},
		{name: "valid sell", ts: now, qty: 1, side: Sell, price: 100},
		{name: "zero price", ts: now, qty: 1, side: Sell, price: 0},
		{name: "negative price", ts: now, qty: 1, side: Buy, price: -1, wantField: "price"},
		{name: "zero quantity", ts: now, qty: 0, side: Buy, price: 100, wantField: "share_quantity"},
		{name: "negative quantity", ts: now, qty: -5, side: Sell, price: 100, wantField: "share_quantity"},
		{name: "unknown side", ts: now, qty: 5, side: Side(7), price: 100, wantField: "side"},
		{name: "zero timestamp", ts: time.Time{}, qty: 5, side: Buy, price: 100, wantField: "timestamp"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			trade, err := NewTrade(tc.ts, tc.qty, tc.side, decimal.NewFromInt(tc.price))
			if tc.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if trade.Quantity != tc.qty || trade.Side != tc.side {
					t.Fatalf("unexpected trade %+v", trade)
				}
				return
			}

			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Field != tc.wantField {
				t.Fatalf("expected field %q, got %v", tc.wantField, err)
			}
		})
	}
}

func TestNewTrade_NormalisesToUTC(t *testing.T) {
	loc := time.FixedZone("BRT", -3*3600)
	ts := time.Date(2024, 1, 15, 7, 0, 0, 0, loc)

	trade, err := NewTrade(ts, 1, Buy, decimal.NewFromInt(1))
	if err != nil {
		t.Fatalf("NewTrade: %v", err)
	}
	if trade.Timestamp.Location() != time.UTC {
		t.Fatalf("expected UTC timestamp, got %v", trade.Timestamp.Location())
	}
	if !trade.Timestamp.Equal(ts) {
		t.Fatalf("instant changed: %v != %v", trade.Timestamp, ts)
	}
}

func TestCompareTrades(t *testing.T) {
	base := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	a, _ := NewTrade(base, 1, Buy, decimal.NewFromInt(10))
	b, _ := NewTrade(base.Add(time.Second), 1, Sell, decimal.NewFromInt(10))
	c, _ := NewTrade(base, 3, Sell, decimal.NewFromInt(99))

	if CompareTrades(a, b) >= 0 || !TradeBefore(a, b) {
		t.Fatalf("expected a before b")
	}
	if CompareTrades(b, a) <= 0 {
		t.Fatalf("expected b after a")
	}
	if CompareTrades(a, c) != 0 {
		t.Fatalf("equal timestamps should compare equal")
	}
	if a.ID == c.ID {
		t.Fatalf("trades with equal timestamps must stay distinct")
	}
}

func TestTradeNotional(t *testing.T) {
	trade, _ := NewTrade(time.Now(), 15, Buy, decimal.RequireFromString("12.5"))
	if !trade.Notional().Equal(decimal.RequireFromString("187.5")) {
		t.Fatalf("notional = %s", trade.Notional())
	}
}

func TestSideText(t *testing.T) {
	cases := []struct {
		in   string
		want Side
		ok   bool
	}{
		{"BUY", Buy, true},
		{"buy", Buy, true},
		{" s ", Sell, true},
		{"SELL", Sell, true},
		{"hold", 0, false},
	}
	for _, c := range cases {
		got, err := ParseSide(c.in)
		if c.ok && (err != nil || got != c.want) {
			t.Fatalf("ParseSide(%q) = %v, %v", c.in, got, err)
		}
		if !c.ok && err == nil {
			t.Fatalf("ParseSide(%q) expected error", c.in)
		}
	}

	b, err := json.Marshal(struct {
		Side Side `json:"side"`
	}{Sell})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"side":"SELL"}` {
		t.Fatalf("unexpected json %s", b)
	}
}

func TestParseStockType(t *testing.T) {
	if st, err := ParseStockType("Preferred"); err != nil || st != Preferred {
		t.Fatalf("got %v, %v", st, err)
	}
	if st, err := ParseStockType("common"); err != nil || st != Common {
		t.Fatalf("got %v, %v", st, err)
	}
	if _, err := ParseStockType("ordinary"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
