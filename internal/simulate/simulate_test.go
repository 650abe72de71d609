package simulate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jeovahfialho/stock-exchange/internal/domain"
	"github.com/jeovahfialho/stock-exchange/internal/market"
	"github.com/jeovahfialho/stock-exchange/internal/service"
)

var now = time.Date(2024, 1, 15, 15, 30, 0, 0, time.UTC)

func TestGenerator_Deterministic(t *testing.T) {
	a, err := NewGenerator(42, now).Stocks(20)
	if err != nil {
		t.Fatalf("Stocks: %v", err)
	}
	b, err := NewGenerator(42, now).Stocks(20)
	if err != nil {
		t.Fatalf("Stocks: %v", err)
	}

	seen := map[string]bool{}
	for i := range a {
		if a[i].String() != b[i].String() {
			t.Fatalf("stock %d differs: %s vs %s", i, a[i], b[i])
		}
		if seen[a[i].Symbol()] {
			t.Fatalf("duplicate symbol %s", a[i].Symbol())
		}
		seen[a[i].Symbol()] = true

		if a[i].Type() == domain.Preferred && !a[i].FixedDividend().Valid {
			t.Fatalf("preferred stock %s without fixed dividend", a[i].Symbol())
		}
	}
}

func TestGenerator_Trades(t *testing.T) {
	recs := NewGenerator(1, now).Trades("TEA", 30)
	if len(recs) != 30 {
		t.Fatalf("got %d trades", len(recs))
	}
	for i, r := range recs {
		if !r.Timestamp.Equal(now.Add(-time.Duration(i) * time.Minute)) {
			t.Fatalf("trade %d at %s", i, r.Timestamp)
		}
		if r.Quantity < 1 || r.Quantity >= maxQuantity {
			t.Fatalf("trade %d quantity %d", i, r.Quantity)
		}
		if !r.Price.IsPositive() || !r.Side.Valid() {
			t.Fatalf("trade %d: %+v", i, r)
		}
	}
}

func TestPopulate(t *testing.T) {
	svc := service.NewExchangeService(nil, service.WithClock(func() time.Time { return now }))
	ctx := context.Background()

	res, err := Populate(ctx, svc, NewGenerator(7, now), Config{Stocks: 5, TradesPerStock: 20, Workers: 3})
	if err != nil {
		t.Fatalf("Populate: %v", err)
	}
	if len(res.Symbols) != 5 || res.Recorded != 100 || res.Rejected != 0 {
		t.Fatalf("result = %+v", res)
	}

	summary := svc.Summary(ctx)
	if summary.Stocks != 5 || summary.TotalTrades != 100 {
		t.Fatalf("summary = %+v", summary)
	}
	if !summary.AllShareIndex.IsPositive() {
		t.Fatalf("all share index = %s", summary.AllShareIndex)
	}

	for _, sym := range res.Symbols {
		if _, err := svc.VolumeWeightedPrice(ctx, sym); err != nil {
			t.Fatalf("VolumeWeightedPrice(%s): %v", sym, err)
		}
		trades, err := svc.RecentTrades(ctx, sym, now.Add(-market.VWPWindow))
		if err != nil {
			t.Fatalf("RecentTrades: %v", err)
		}
		if len(trades) != 16 {
			t.Fatalf("%s: %d trades in window, want 16", sym, len(trades))
		}
	}
}

func TestPopulate_Invalid(t *testing.T) {
	svc := service.NewExchangeService(nil)
	_, err := Populate(context.Background(), svc, NewGenerator(1, now), Config{Stocks: -1})
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}
