// Package simulate builds a random exchange: stocks with random attributes and
// a run of random trades one minute apart, ending at a given instant.
package simulate

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/jeovahfialho/stock-exchange/internal/domain"
	"github.com/jeovahfialho/stock-exchange/internal/market"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	maxLastDividend  = 100
	maxFixedDividend = 100
	maxParValue      = 1000
	maxQuantity      = 100
	maxPrice         = 1000
	symbolLetters    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// Generator is not safe for concurrent use.
type Generator struct {
	rng *rand.Rand
	now time.Time
}

func NewGenerator(seed int64, now time.Time) *Generator {
	return &Generator{
		rng: rand.New(rand.NewSource(seed)),
		now: now.UTC(),
	}
}

func (g *Generator) Symbol() string {
	b := make([]byte, 3)
	for i := range b {
		b[i] = symbolLetters[g.rng.Intn(len(symbolLetters))]
	}
	return string(b)
}

func (g *Generator) Stock(symbol string) (*market.Stock, error) {
	p := market.StockParams{
		Symbol:       symbol,
		Type:         domain.Common,
		LastDividend: int64(g.rng.Intn(maxLastDividend)),
		ParValue:     int64(1 + g.rng.Intn(maxParValue-1)),
	}
	if g.rng.Intn(2) == 1 {
		p.Type = domain.Preferred
		fixed := decimal.NewFromInt(int64(1 + g.rng.Intn(maxFixedDividend-1)))
		p.FixedDividend = decimal.NullDecimal{Decimal: fixed, Valid: true}
	}
	return market.NewStock(p)
}

// Stocks returns n stocks with distinct symbols. n is capped at the number of
// possible symbols.
func (g *Generator) Stocks(n int) ([]*market.Stock, error) {
	if limit := len(symbolLetters) * len(symbolLetters) * len(symbolLetters); n > limit {
		n = limit
	}

	seen := make(map[string]struct{}, n)
	stocks := make([]*market.Stock, 0, n)
	for len(stocks) < n {
		sym := g.Symbol()
		if _, dup := seen[sym]; dup {
			continue
		}
		seen[sym] = struct{}{}

		s, err := g.Stock(sym)
		if err != nil {
			return nil, err
		}
		stocks = append(stocks, s)
	}
	return stocks, nil
}

// Trades returns n trades for symbol, the i-th one i minutes before now.
func (g *Generator) Trades(symbol string, n int) []domain.TradeRecord {
	recs := make([]domain.TradeRecord, n)
	for i := range recs {
		side := domain.Buy
		if g.rng.Intn(2) == 1 {
			side = domain.Sell
		}
		recs[i] = domain.TradeRecord{
			Symbol:    symbol,
			Timestamp: g.now.Add(-time.Duration(i) * time.Minute),
			Quantity:  int64(1 + g.rng.Intn(maxQuantity-1)),
			Side:      side,
			Price:     decimal.NewFromInt(int64(1 + g.rng.Intn(maxPrice-1))),
		}
	}
	return recs
}

// Exchange is what Populate writes into. service.ExchangeService implements it.
type Exchange interface {
	ListStock(ctx context.Context, stock *market.Stock)
	RecordTrades(ctx context.Context, recs []domain.TradeRecord) (int, []error)
}

type Config struct {
	Stocks         int
	TradesPerStock int
	Workers        int
}

type Result struct {
	Symbols  []string
	Recorded int
	Rejected int
}

// Populate lists cfg.Stocks random stocks on ex and records cfg.TradesPerStock
// trades against each, with up to cfg.Workers stocks loading at once. Random
// values are drawn before the fan-out so a seed always yields the same
// exchange.
func Populate(ctx context.Context, ex Exchange, g *Generator, cfg Config) (Result, error) {
	if cfg.Stocks < 0 || cfg.TradesPerStock < 0 {
		return Result{}, fmt.Errorf("%w: counts must not be negative", domain.ErrInvalidArgument)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}

	stocks, err := g.Stocks(cfg.Stocks)
	if err != nil {
		return Result{}, fmt.Errorf("generate stocks: %w", err)
	}

	batches := make([][]domain.TradeRecord, len(stocks))
	res := Result{Symbols: make([]string, len(stocks))}
	for i, s := range stocks {
		ex.ListStock(ctx, s)
		res.Symbols[i] = s.Symbol()
		batches[i] = g.Trades(s.Symbol(), cfg.TradesPerStock)
	}

	recorded := make([]int, len(stocks))
	rejected := make([]int, len(stocks))

	grp, ctx := errgroup.WithContext(ctx)
	grp.SetLimit(cfg.Workers)
	for i := range batches {
		i := i
		grp.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			n, errs := ex.RecordTrades(ctx, batches[i])
			recorded[i], rejected[i] = n, len(errs)
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return res, err
	}

	for i := range stocks {
		res.Recorded += recorded[i]
		res.Rejected += rejected[i]
	}
	return res, nil
}
