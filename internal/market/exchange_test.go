package market

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/jeovahfialho/stock-exchange/internal/domain"
)

func TestExchange_AddAndGet(t *testing.T) {
	ex := NewExchange()
	tea := mustStock(t, StockParams{Symbol: "TEA", Type: domain.Common, ParValue: 100})
	ex.AddStock(tea)

	got, err := ex.GetStock("TEA")
	if err != nil || got != tea {
		t.Fatalf("GetStock: %v, %v", got, err)
	}

	if _, err := ex.GetStock("XYZ"); !errors.Is(err, domain.ErrStockNotFound) {
		t.Fatalf("expected ErrStockNotFound, got %v", err)
	}
}

func TestExchange_AddStockOverwrites(t *testing.T) {
	first := mustStock(t, StockParams{Symbol: "POP", Type: domain.Common, LastDividend: 8, ParValue: 100})
	second := mustStock(t, StockParams{Symbol: "POP", Type: domain.Common, LastDividend: 9, ParValue: 200})

	ex := NewExchange(first)
	ex.AddStock(second)

	if ex.Len() != 1 {
		t.Fatalf("len = %d, want 1", ex.Len())
	}
	got, _ := ex.GetStock("POP")
	if got != second {
		t.Fatalf("expected replacement stock to be listed")
	}
}

func TestExchange_IndependentListings(t *testing.T) {
	a := NewExchange()
	b := NewExchange()
	a.AddStock(mustStock(t, StockParams{Symbol: "TEA", Type: domain.Common, ParValue: 100}))

	if b.Len() != 0 {
		t.Fatalf("exchanges share their listing: b has %d stocks", b.Len())
	}
	if _, err := b.GetStock("TEA"); err == nil {
		t.Fatalf("stock added to one exchange is visible in another")
	}
}

func TestExchange_AllShareIndex(t *testing.T) {
	cases := []struct {
		name   string
		params []StockParams
		want   string
	}{
		{name: "empty", want: "0"},
		{name: "single", params: []StockParams{{Symbol: "TEA", Type: domain.Common, ParValue: 100}}, want: "100"},
		{
			name: "two stocks",
			params: []StockParams{
				{Symbol: "TEA", Type: domain.Common, ParValue: 100},
				{Symbol: "JOE", Type: domain.Common, ParValue: 400},
			},
			want: "200",
		},
		{
			name: "zero par value",
			params: []StockParams{
				{Symbol: "TEA", Type: domain.Common, ParValue: 0},
				{Symbol: "JOE", Type: domain.Common, ParValue: 400},
			},
			want: "0",
		},
		{
			name: "gbce sample",
			params: []StockParams{
				{Symbol: "TEA", Type: domain.Common, ParValue: 100},
				{Symbol: "POP", Type: domain.Common, LastDividend: 8, ParValue: 100},
				{Symbol: "ALE", Type: domain.Common, LastDividend: 23, ParValue: 60},
				{Symbol: "GIN", Type: domain.Preferred, LastDividend: 8, ParValue: 100, FixedDividend: fixed("2")},
				{Symbol: "JOE", Type: domain.Common, LastDividend: 13, ParValue: 250},
			},
			want: "108.4471771197698614",
		},
		{
			name: "equal par values",
			params: []StockParams{
				{Symbol: "TEA", Type: domain.Common, ParValue: 100},
				{Symbol: "POP", Type: domain.Common, ParValue: 100},
				{Symbol: "ALE", Type: domain.Common, ParValue: 100},
			},
			want: "100",
		},
		{
			name: "equal large par values",
			params: []StockParams{
				{Symbol: "TEA", Type: domain.Common, ParValue: 1000},
				{Symbol: "POP", Type: domain.Common, ParValue: 1000},
				{Symbol: "ALE", Type: domain.Common, ParValue: 1000},
			},
			want: "1000",
		},
		{
			name: "irrational root",
			params: []StockParams{
				{Symbol: "TEA", Type: domain.Common, ParValue: 2},
				{Symbol: "POP", Type: domain.Common, ParValue: 3},
			},
			want: "2.4494897427831781",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ex := NewExchange()
			for _, p := range tc.params {
				ex.AddStock(mustStock(t, p))
			}
			got := ex.AllShareIndex()
			if !got.Equal(d(tc.want)) {
				t.Fatalf("all share index = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestExchange_Symbols(t *testing.T) {
	ex := NewExchange(
		mustStock(t, StockParams{Symbol: "POP", Type: domain.Common, ParValue: 1}),
		mustStock(t, StockParams{Symbol: "ALE", Type: domain.Common, ParValue: 1}),
		mustStock(t, StockParams{Symbol: "TEA", Type: domain.Common, ParValue: 1}),
	)
	got := ex.Symbols()
	want := []string{"ALE", "POP", "TEA"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("symbols = %v, want %v", got, want)
		}
	}
}

func TestExchange_AllShareIndexManyStocks(t *testing.T) {
	ex := NewExchange()
	for i := 0; i < maxExactIndexStocks+6; i++ {
		sym := string(rune('A'+i/26%26)) + string(rune('A'+i%26))
		ex.AddStock(mustStock(t, StockParams{Symbol: "X" + sym, Type: domain.Common, ParValue: 100}))
	}

	got := ex.AllShareIndex()
	if got.Sub(decimal.NewFromInt(100)).Abs().GreaterThan(decimal.New(1, -10)) {
		t.Fatalf("all share index = %s, want about 100", got)
	}
}

func TestNthRoot(t *testing.T) {
	// 7^3 from an estimate that does not round to the root.
	if got := nthRoot(decimal.NewFromInt(343), 3, 6.4); !got.Equal(decimal.NewFromInt(7)) {
		t.Fatalf("cube root of 343 = %s, want 7", got)
	}
	if got := powInt(decimal.RequireFromString("1.5"), 3); !got.Equal(decimal.RequireFromString("3.375")) {
		t.Fatalf("1.5^3 = %s", got)
	}
}
