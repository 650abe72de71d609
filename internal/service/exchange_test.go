package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jeovahfialho/stock-exchange/internal/domain"
	"github.com/jeovahfialho/stock-exchange/internal/listing"
	"github.com/jeovahfialho/stock-exchange/internal/market"
	"github.com/shopspring/decimal"
)

var fixedNow = time.Date(2024, 1, 15, 15, 30, 0, 0, time.UTC)

func newService(t *testing.T) *ExchangeService {
	t.Helper()
	return NewExchangeService(
		market.NewExchange(listing.Default()...),
		WithClock(func() time.Time { return fixedNow }),
	)
}

func rec(symbol string, ago time.Duration, qty int64, price string) domain.TradeRecord {
	return domain.TradeRecord{
		Symbol:    symbol,
		Timestamp: fixedNow.Add(-ago),
		Quantity:  qty,
		Side:      domain.Buy,
		Price:     decimal.RequireFromString(price),
	}
}

func TestRecordTradeAndVolumeWeightedPrice(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	if _, err := svc.RecordTrade(ctx, rec("ale", 10*time.Minute, 10, "100")); err != nil {
		t.Fatalf("RecordTrade: %v", err)
	}
	if _, err := svc.RecordTrade(ctx, rec("ALE", time.Minute, 5, "200")); err != nil {
		t.Fatalf("RecordTrade: %v", err)
	}

	got, err := svc.VolumeWeightedPrice(ctx, "ALE")
	if err != nil {
		t.Fatalf("VolumeWeightedPrice: %v", err)
	}
	if got.StringFixed(2) != "133.33" {
		t.Fatalf("vwp = %s", got)
	}

	if _, err := svc.VolumeWeightedPrice(ctx, "TEA"); !errors.Is(err, domain.ErrEmptyWindow) {
		t.Fatalf("expected ErrEmptyWindow, got %v", err)
	}
}

func TestRecordTrade_Errors(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	cases := []struct {
		name string
		rec  domain.TradeRecord
		want error
	}{
		{"unknown symbol", rec("XYZ", 0, 1, "1"), domain.ErrStockNotFound},
		{"zero quantity", rec("TEA", 0, 0, "1"), domain.ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.RecordTrade(ctx, tc.rec); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestRecordTrades_PartialBatch(t *testing.T) {
	svc := newService(t)

	n, errs := svc.RecordTrades(context.Background(), []domain.TradeRecord{
		rec("TEA", time.Minute, 1, "10"),
		rec("NOP", time.Minute, 1, "10"),
		rec("POP", time.Minute, -1, "10"),
		rec("POP", time.Minute, 3, "10"),
	})
	if n != 2 || len(errs) != 2 {
		t.Fatalf("recorded %d with %d errors, want 2 and 2", n, len(errs))
	}
	if summary := svc.Summary(context.Background()); summary.TotalTrades != 2 {
		t.Fatalf("total trades = %d", summary.TotalTrades)
	}
}

func TestCalculations(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	hundred := decimal.NewFromInt(100)

	if v, err := svc.DividendYield(ctx, "POP", hundred); err != nil || !v.Equal(decimal.RequireFromString("0.08")) {
		t.Fatalf("POP yield = %s, %v", v, err)
	}
	if v, err := svc.DividendYield(ctx, "gin", hundred); err != nil || !v.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("GIN yield = %s, %v", v, err)
	}
	if _, err := svc.PERatio(ctx, "TEA", hundred); !errors.Is(err, domain.ErrUndefinedRatio) {
		t.Fatalf("TEA P/E should be undefined, got %v", err)
	}
	if _, err := svc.DividendYield(ctx, "POP", decimal.Zero); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if _, err := svc.PERatio(ctx, "XYZ", hundred); !errors.Is(err, domain.ErrStockNotFound) {
		t.Fatalf("expected ErrStockNotFound, got %v", err)
	}
}

func TestQuote(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	q, err := svc.Quote(ctx, "TEA", decimal.NewFromInt(50))
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if q.DividendYield == nil || !q.DividendYield.IsZero() {
		t.Fatalf("TEA yield should be 0")
	}
	if q.PERatio != nil || q.VolumeWeighted != nil || len(q.Errors) != 2 {
		t.Fatalf("expected P/E and VWP errors, got %+v", q)
	}

	if _, err := svc.Quote(ctx, "XYZ", decimal.NewFromInt(50)); !errors.Is(err, domain.ErrStockNotFound) {
		t.Fatalf("expected ErrStockNotFound, got %v", err)
	}
}

func TestRecentTradesReturnsCopy(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		if _, err := svc.RecordTrade(ctx, rec("JOE", time.Duration(i)*time.Minute, int64(i), "10")); err != nil {
			t.Fatalf("RecordTrade: %v", err)
		}
	}

	trades, err := svc.RecentTrades(ctx, "JOE", fixedNow.Add(-2*time.Minute))
	if err != nil {
		t.Fatalf("RecentTrades: %v", err)
	}
	if len(trades) != 2 || trades[0].Quantity != 2 || trades[1].Quantity != 1 {
		t.Fatalf("unexpected trades %v", trades)
	}

	trades[0].Quantity = 999
	again, _ := svc.RecentTrades(ctx, "JOE", fixedNow.Add(-2*time.Minute))
	if again[0].Quantity != 2 {
		t.Fatalf("caller mutated the ledger")
	}
}

func TestListStockAndIndex(t *testing.T) {
	svc := NewExchangeService(nil)
	ctx := context.Background()

	if !svc.AllShareIndex(ctx).IsZero() {
		t.Fatalf("empty exchange index should be 0")
	}

	for _, p := range []market.StockParams{
		{Symbol: "AAA", Type: domain.Common, ParValue: 100},
		{Symbol: "BBB", Type: domain.Common, ParValue: 400},
	} {
		s, err := market.NewStock(p)
		if err != nil {
			t.Fatalf("NewStock: %v", err)
		}
		svc.ListStock(ctx, s)
	}

	if got := svc.AllShareIndex(ctx); !got.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("index = %s, want 200", got)
	}
	if stocks := svc.Stocks(ctx); len(stocks) != 2 || stocks[0].Symbol != "AAA" {
		t.Fatalf("unexpected stocks %+v", stocks)
	}
	if _, err := svc.GetStock(ctx, "ccc"); !errors.Is(err, domain.ErrStockNotFound) {
		t.Fatalf("expected ErrStockNotFound, got %v", err)
	}
}

func TestConcurrentWritersAndReaders(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				_, _ = svc.RecordTrade(ctx, rec("POP", time.Duration(i%10)*time.Minute, int64(w+1), "10"))
				_, _ = svc.VolumeWeightedPrice(ctx, "POP")
			}
		}(w)
	}
	wg.Wait()

	snap, err := svc.GetStock(ctx, "POP")
	if err != nil {
		t.Fatalf("GetStock: %v", err)
	}
	if snap.TradeCount != 800 {
		t.Fatalf("trade count = %d, want 800", snap.TradeCount)
	}
	trades, _ := svc.RecentTrades(ctx, "POP", time.Time{})
	for i := 1; i < len(trades); i++ {
		if trades[i].Timestamp.Before(trades[i-1].Timestamp) {
			t.Fatalf("ledger out of order after concurrent inserts")
		}
	}
}
