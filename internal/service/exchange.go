package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jeovahfialho/stock-exchange/internal/domain"
	"github.com/jeovahfialho/stock-exchange/internal/market"
	"github.com/jeovahfialho/stock-exchange/pkg/logger"
	"github.com/jeovahfialho/stock-exchange/pkg/metrics"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ExchangeService serialises access to a market.Exchange: one writer or any
// number of readers at a time. Slices it returns are copies.
type ExchangeService struct {
	mu       sync.RWMutex
	exchange *market.Exchange
	window   time.Duration
	now      func() time.Time
}

type Option func(*ExchangeService)

func WithClock(now func() time.Time) Option {
	return func(s *ExchangeService) { s.now = now }
}

func WithWindow(window time.Duration) Option {
	return func(s *ExchangeService) {
		if window > 0 {
			s.window = window
		}
	}
}

func NewExchangeService(exchange *market.Exchange, opts ...Option) *ExchangeService {
	if exchange == nil {
		exchange = market.NewExchange()
	}
	s := &ExchangeService{
		exchange: exchange,
		window:   market.VWPWindow,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	metrics.ListedStocks.Set(float64(exchange.Len()))
	return s
}

func (s *ExchangeService) Window() time.Duration {
	return s.window
}

// Now reads the service clock.
func (s *ExchangeService) Now() time.Time {
	return s.now()
}

func (s *ExchangeService) ListStock(ctx context.Context, stock *market.Stock) {
	s.mu.Lock()
	_, err := s.exchange.GetStock(stock.Symbol())
	s.exchange.AddStock(stock)
	listed := s.exchange.Len()
	s.mu.Unlock()

	metrics.ListedStocks.Set(float64(listed))
	if err == nil {
		logger.WithContext(ctx).Warn("stock relisted, previous ledger discarded", zap.String("symbol", stock.Symbol()))
		return
	}
	logger.WithContext(ctx).Info("stock listed", zap.String("symbol", stock.Symbol()), zap.String("type", stock.Type().String()))
}

func (s *ExchangeService) Stocks(ctx context.Context) []domain.StockSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	symbols := s.exchange.Symbols()
	out := make([]domain.StockSnapshot, 0, len(symbols))
	for _, sym := range symbols {
		stock, _ := s.exchange.GetStock(sym)
		out = append(out, stock.Snapshot())
	}
	return out
}

func (s *ExchangeService) GetStock(ctx context.Context, symbol string) (domain.StockSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stock, err := s.exchange.GetStock(normalise(symbol))
	if err != nil {
		return domain.StockSnapshot{}, err
	}
	return stock.Snapshot(), nil
}

func (s *ExchangeService) RecordTrade(ctx context.Context, rec domain.TradeRecord) (domain.Trade, error) {
	s.mu.Lock()
	trade, err := s.recordLocked(rec)
	s.mu.Unlock()

	if err != nil {
		metrics.RecordTrade(rec.Side.String(), "rejected")
		logger.WithContext(ctx).Debug("trade rejected", zap.String("symbol", rec.Symbol), zap.Error(err))
		return domain.Trade{}, err
	}

	metrics.RecordTrade(trade.Side.String(), "recorded")
	logger.WithContext(ctx).Debug("trade recorded",
		zap.String("symbol", normalise(rec.Symbol)),
		zap.Stringer("id", trade.ID),
		zap.Time("timestamp", trade.Timestamp),
		zap.Int64("quantity", trade.Quantity),
		zap.String("price", trade.Price.String()))
	return trade, nil
}

// RecordTrades records a batch under a single write lock. Invalid records are
// skipped and reported; the rest are kept.
func (s *ExchangeService) RecordTrades(ctx context.Context, recs []domain.TradeRecord) (int, []error) {
	var errs []error
	recorded := 0

	s.mu.Lock()
	for i, rec := range recs {
		trade, err := s.recordLocked(rec)
		if err != nil {
			metrics.RecordTrade(rec.Side.String(), "rejected")
			errs = append(errs, fmt.Errorf("record %d: %w", i, err))
			continue
		}
		metrics.RecordTrade(trade.Side.String(), "recorded")
		recorded++
	}
	s.mu.Unlock()

	logger.WithContext(ctx).Info("trade batch recorded",
		zap.Int("recorded", recorded),
		zap.Int("rejected", len(errs)))
	return recorded, errs
}

func (s *ExchangeService) recordLocked(rec domain.TradeRecord) (domain.Trade, error) {
	stock, err := s.exchange.GetStock(normalise(rec.Symbol))
	if err != nil {
		return domain.Trade{}, err
	}
	return stock.AddTrade(rec.Timestamp, rec.Quantity, rec.Side, rec.Price)
}

func (s *ExchangeService) DividendYield(ctx context.Context, symbol string, price decimal.Decimal) (decimal.Decimal, error) {
	return s.calculate(ctx, "dividend_yield", symbol, func(st *market.Stock) (decimal.Decimal, error) {
		return st.DividendYield(price)
	})
}

func (s *ExchangeService) PERatio(ctx context.Context, symbol string, price decimal.Decimal) (decimal.Decimal, error) {
	return s.calculate(ctx, "pe_ratio", symbol, func(st *market.Stock) (decimal.Decimal, error) {
		return st.PERatio(price)
	})
}

// VolumeWeightedPrice uses the trailing window ending at the service clock.
func (s *ExchangeService) VolumeWeightedPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	now := s.now()
	return s.calculate(ctx, "volume_weighted_price", symbol, func(st *market.Stock) (decimal.Decimal, error) {
		metrics.TradesInWindow.Observe(float64(len(st.TradesSince(now.Add(-s.window)))))
		return st.VolumeWeightedPriceOver(now, s.window)
	})
}

func (s *ExchangeService) calculate(ctx context.Context, op, symbol string, fn func(*market.Stock) (decimal.Decimal, error)) (decimal.Decimal, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.LedgerQueryDuration.WithLabelValues(op))

	s.mu.RLock()
	defer s.mu.RUnlock()

	stock, err := s.exchange.GetStock(normalise(symbol))
	if err != nil {
		metrics.RecordCalculationError(op, reason(err))
		return decimal.Zero, err
	}

	v, err := fn(stock)
	if err != nil {
		metrics.RecordCalculationError(op, reason(err))
		logger.WithContext(ctx).Debug("calculation unavailable",
			zap.String("operation", op),
			zap.String("symbol", stock.Symbol()),
			zap.Error(err))
		return decimal.Zero, err
	}
	return v, nil
}

// Quote gathers every price metric for a symbol. Metrics that cannot be
// computed are reported in Quote.Errors instead of failing the whole quote.
func (s *ExchangeService) Quote(ctx context.Context, symbol string, price decimal.Decimal) (domain.Quote, error) {
	if _, err := s.GetStock(ctx, symbol); err != nil {
		return domain.Quote{}, err
	}

	q := domain.Quote{
		Symbol:      normalise(symbol),
		MarketPrice: price,
		QuotedAt:    s.now().UTC(),
	}

	if v, err := s.DividendYield(ctx, symbol, price); err == nil {
		q.DividendYield = &v
	} else {
		q.Errors = append(q.Errors, err.Error())
	}
	if v, err := s.PERatio(ctx, symbol, price); err == nil {
		q.PERatio = &v
	} else {
		q.Errors = append(q.Errors, err.Error())
	}
	if v, err := s.VolumeWeightedPrice(ctx, symbol); err == nil {
		q.VolumeWeighted = &v
	} else {
		q.Errors = append(q.Errors, err.Error())
	}
	return q, nil
}

// RecentTrades returns the trades at or after since, oldest first.
func (s *ExchangeService) RecentTrades(ctx context.Context, symbol string, since time.Time) ([]domain.Trade, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.LedgerQueryDuration.WithLabelValues("recent_trades"))

	s.mu.RLock()
	defer s.mu.RUnlock()

	stock, err := s.exchange.GetStock(normalise(symbol))
	if err != nil {
		return nil, err
	}
	view := stock.TradesSince(since)
	out := make([]domain.Trade, len(view))
	copy(out, view)
	return out, nil
}

func (s *ExchangeService) AllShareIndex(ctx context.Context) decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.exchange.AllShareIndex()
}

func (s *ExchangeService) Summary(ctx context.Context) domain.ExchangeSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := domain.ExchangeSummary{
		Stocks:        s.exchange.Len(),
		AllShareIndex: s.exchange.AllShareIndex(),
		UpdatedAt:     s.now().UTC(),
	}
	for _, sym := range s.exchange.Symbols() {
		stock, _ := s.exchange.GetStock(sym)
		summary.TotalTrades += stock.TradeCount()
	}
	return summary
}

func normalise(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func reason(err error) string {
	switch {
	case errors.Is(err, domain.ErrStockNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, domain.ErrUndefinedRatio):
		return "undefined_ratio"
	case errors.Is(err, domain.ErrEmptyWindow):
		return "empty_window"
	default:
		return "other"
	}
}
