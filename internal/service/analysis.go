package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jeovahfialho/stock-exchange/internal/domain"
	"github.com/shopspring/decimal"
)

// AnalysisService answers questions about recent trading that span more than
// one ledger query. It reads through the ExchangeService, never around it.
type AnalysisService struct {
	exchange *ExchangeService
}

func NewAnalysisService(exchange *ExchangeService) *AnalysisService {
	return &AnalysisService{exchange: exchange}
}

// GetPriceRange reports the lowest and highest traded price of symbol over the
// window ending now. RangePercent is relative to the minimum price.
func (s *AnalysisService) GetPriceRange(ctx context.Context, symbol string, window time.Duration) (*domain.PriceRange, error) {
	if window <= 0 {
		return nil, fmt.Errorf("%w: window must be positive, got %s", domain.ErrInvalidArgument, window)
	}

	to := s.exchange.Now().UTC()
	from := to.Add(-window)

	trades, err := s.exchange.RecentTrades(ctx, symbol, from)
	if err != nil {
		return nil, err
	}
	if len(trades) == 0 {
		return nil, fmt.Errorf("%s: %w", normalise(symbol), domain.ErrEmptyWindow)
	}

	result := &domain.PriceRange{
		Symbol:     normalise(symbol),
		MinPrice:   trades[0].Price,
		MaxPrice:   trades[0].Price,
		TradeCount: len(trades),
		From:       from,
		To:         to,
	}
	for _, t := range trades[1:] {
		if t.Price.LessThan(result.MinPrice) {
			result.MinPrice = t.Price
		}
		if t.Price.GreaterThan(result.MaxPrice) {
			result.MaxPrice = t.Price
		}
	}

	result.Range = result.MaxPrice.Sub(result.MinPrice)
	if result.MinPrice.IsPositive() {
		result.RangePercent = result.Range.Div(result.MinPrice).Mul(decimal.NewFromInt(100))
	}
	return result, nil
}

// GetTopVolumeStocks ranks listed stocks by shares traded over the window
// ending now. Stocks with no trades in the window are left out.
func (s *AnalysisService) GetTopVolumeStocks(ctx context.Context, limit int, window time.Duration) ([]domain.VolumeRank, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", domain.ErrInvalidArgument, limit)
	}
	if window <= 0 {
		return nil, fmt.Errorf("%w: window must be positive, got %s", domain.ErrInvalidArgument, window)
	}

	from := s.exchange.Now().Add(-window)

	var ranks []domain.VolumeRank
	for _, st := range s.exchange.Stocks(ctx) {
		trades, err := s.exchange.RecentTrades(ctx, st.Symbol, from)
		if err != nil {
			return nil, err
		}
		if len(trades) == 0 {
			continue
		}

		r := domain.VolumeRank{Symbol: st.Symbol, TradeCount: len(trades)}
		for _, t := range trades {
			r.TotalVolume += t.Quantity
			r.Notional = r.Notional.Add(t.Notional())
		}
		ranks = append(ranks, r)
	}

	sort.SliceStable(ranks, func(i, j int) bool {
		return ranks[i].TotalVolume > ranks[j].TotalVolume
	})
	if len(ranks) > limit {
		ranks = ranks[:limit]
	}
	return ranks, nil
}
