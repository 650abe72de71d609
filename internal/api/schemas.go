package api

import (
	"time"

	"github.com/jeovahfialho/stock-exchange/internal/domain"
	"github.com/shopspring/decimal"
)

type HealthResponse struct {
	Status    string                   `json:"status"`
	Version   string                   `json:"version"`
	Timestamp time.Time                `json:"timestamp"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

type ServiceHealth struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}

type ErrorResponse struct {
	Error     string    `json:"error"`
	Code      int       `json:"code"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type ListStockRequest struct {
	Symbol        string           `json:"symbol"`
	Type          string           `json:"type"`
	LastDividend  int64            `json:"last_dividend"`
	FixedDividend *decimal.Decimal `json:"fixed_dividend,omitempty"`
	ParValue      int64            `json:"par_value"`
}

// RecordTradeRequest is the body of a trade submission. A missing timestamp
// means now.
type RecordTradeRequest struct {
	Timestamp *time.Time      `json:"timestamp,omitempty"`
	Quantity  int64           `json:"share_quantity"`
	Side      domain.Side     `json:"side"`
	Price     decimal.Decimal `json:"price"`
}

type StocksResponse struct {
	Stocks []domain.StockSnapshot `json:"stocks"`
	Count  int                    `json:"count"`
}

type TradesResponse struct {
	Symbol string         `json:"symbol"`
	Since  time.Time      `json:"since"`
	Trades []domain.Trade `json:"trades"`
	Count  int            `json:"count"`
}

type MetricResponse struct {
	Symbol      string           `json:"symbol"`
	Metric      string           `json:"metric"`
	Value       decimal.Decimal  `json:"value"`
	MarketPrice *decimal.Decimal `json:"market_price,omitempty"`
	Window      string           `json:"window,omitempty"`
	ComputedAt  time.Time        `json:"computed_at"`
}

type IndexResponse struct {
	AllShareIndex decimal.Decimal `json:"all_share_index"`
	Stocks        int             `json:"stocks"`
	ComputedAt    time.Time       `json:"computed_at"`
}

type TopVolumeResponse struct {
	Data   []domain.VolumeRank `json:"data"`
	Count  int                 `json:"count"`
	Window string              `json:"window"`
}

type SystemStatsResponse struct {
	Exchange domain.ExchangeSummary `json:"exchange"`
	API      APIStats               `json:"api"`
}

type APIStats struct {
	Uptime           string `json:"uptime"`
	MemoryUsed       string `json:"memory_used"`
	ActiveGoroutines int    `json:"active_goroutines"`
}

type LoadDataRequest struct {
	FilePaths []string `json:"file_paths"`
	URLs      []string `json:"urls"`
	Async     bool     `json:"async"`
}

type LoadDataResponse struct {
	JobID        string   `json:"job_id,omitempty"`
	Files        int      `json:"files,omitempty"`
	RecordsCount int64    `json:"records_count,omitempty"`
	Rejected     int      `json:"rejected,omitempty"`
	Errors       []string `json:"errors,omitempty"`
	Status       string   `json:"status"`
	Message      string   `json:"message"`
}
