package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type StockSnapshot struct {
	Symbol        string           `json:"symbol"`
	Type          string           `json:"type"`
	LastDividend  int64            `json:"last_dividend"`
	FixedDividend *decimal.Decimal `json:"fixed_dividend,omitempty"`
	ParValue      int64            `json:"par_value"`
	TradeCount    int              `json:"trade_count"`
	LastTrade     *Trade           `json:"last_trade,omitempty"`
}

type Quote struct {
	Symbol         string           `json:"symbol"`
	MarketPrice    decimal.Decimal  `json:"market_price"`
	DividendYield  *decimal.Decimal `json:"dividend_yield,omitempty"`
	PERatio        *decimal.Decimal `json:"pe_ratio,omitempty"`
	VolumeWeighted *decimal.Decimal `json:"volume_weighted_price,omitempty"`
	Errors         []string         `json:"errors,omitempty"`
	QuotedAt       time.Time        `json:"quoted_at"`
}

type ExchangeSummary struct {
	Stocks        int             `json:"stocks"`
	TotalTrades   int             `json:"total_trades"`
	AllShareIndex decimal.Decimal `json:"all_share_index"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type PriceRange struct {
	Symbol       string          `json:"symbol"`
	MinPrice     decimal.Decimal `json:"min_price"`
	MaxPrice     decimal.Decimal `json:"max_price"`
	Range        decimal.Decimal `json:"range"`
	RangePercent decimal.Decimal `json:"range_percent"`
	TradeCount   int             `json:"trade_count"`
	From         time.Time       `json:"from"`
	To           time.Time       `json:"to"`
}

type VolumeRank struct {
	Symbol      string          `json:"symbol"`
	TotalVolume int64           `json:"total_volume"`
	Notional    decimal.Decimal `json:"notional"`
	TradeCount  int             `json:"trade_count"`
}
