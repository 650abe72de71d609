package api

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jeovahfialho/stock-exchange/internal/domain"
	"github.com/jeovahfialho/stock-exchange/internal/market"
	"github.com/jeovahfialho/stock-exchange/internal/service"
	"github.com/jeovahfialho/stock-exchange/pkg/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const Version = "1.0.0"

type Handler struct {
	exchangeService  *service.ExchangeService
	analysisService  *service.AnalysisService
	ingestionService *service.IngestionService
	downloadDir      string
	startedAt        time.Time
}

func NewHandler(
	exchangeService *service.ExchangeService,
	analysisService *service.AnalysisService,
	ingestionService *service.IngestionService,
	downloadDir string,
) *Handler {
	return &Handler{
		exchangeService:  exchangeService,
		analysisService:  analysisService,
		ingestionService: ingestionService,
		downloadDir:      downloadDir,
		startedAt:        time.Now(),
	}
}

func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:    "healthy",
		Version:   Version,
		Timestamp: time.Now().UTC(),
	})
}

// ReadinessCheck reports ready once at least one stock is listed.
func (h *Handler) ReadinessCheck(c *fiber.Ctx) error {
	start := time.Now()
	summary := h.exchangeService.Summary(c.UserContext())

	exchange := ServiceHealth{
		Status:  "healthy",
		Latency: time.Since(start).String(),
	}
	status := "ready"
	if summary.Stocks == 0 {
		exchange = ServiceHealth{Status: "unhealthy", Error: "no stocks listed"}
		status = "not_ready"
	}

	response := HealthResponse{
		Status:    status,
		Version:   Version,
		Timestamp: time.Now().UTC(),
		Services:  map[string]ServiceHealth{"exchange": exchange},
	}

	if status != "ready" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(response)
	}
	return c.JSON(response)
}

func (h *Handler) ListStocks(c *fiber.Ctx) error {
	stocks := h.exchangeService.Stocks(c.UserContext())
	return c.JSON(StocksResponse{Stocks: stocks, Count: len(stocks)})
}

func (h *Handler) GetStock(c *fiber.Ctx) error {
	snapshot, err := h.exchangeService.GetStock(c.UserContext(), c.Params("symbol"))
	if err != nil {
		return err
	}
	return c.JSON(snapshot)
}

// CreateStock lists a stock. Listing an existing symbol replaces it along
// with its trades.
func (h *Handler) CreateStock(c *fiber.Ctx) error {
	var req ListStockRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	stockType, err := domain.ParseStockType(req.Type)
	if err != nil {
		return err
	}

	params := market.StockParams{
		Symbol:       req.Symbol,
		Type:         stockType,
		LastDividend: req.LastDividend,
		ParValue:     req.ParValue,
	}
	if req.FixedDividend != nil {
		params.FixedDividend = decimal.NullDecimal{Decimal: *req.FixedDividend, Valid: true}
	}

	stock, err := market.NewStock(params)
	if err != nil {
		return err
	}
	h.exchangeService.ListStock(c.UserContext(), stock)

	return c.Status(fiber.StatusCreated).JSON(stock.Snapshot())
}

func (h *Handler) RecordTrade(c *fiber.Ctx) error {
	var req RecordTradeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	ts := h.exchangeService.Now()
	if req.Timestamp != nil {
		ts = *req.Timestamp
	}

	trade, err := h.exchangeService.RecordTrade(c.UserContext(), domain.TradeRecord{
		Symbol:    c.Params("symbol"),
		Timestamp: ts,
		Quantity:  req.Quantity,
		Side:      req.Side,
		Price:     req.Price,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(trade)
}

// GetTrades lists trades at or after ?since= (RFC3339). Without it the
// volume-weighted price window is used.
func (h *Handler) GetTrades(c *fiber.Ctx) error {
	since := h.exchangeService.Now().Add(-h.exchangeService.Window())
	if raw := c.Query("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid since, use RFC3339")
		}
		since = parsed
	}

	trades, err := h.exchangeService.RecentTrades(c.UserContext(), c.Params("symbol"), since)
	if err != nil {
		return err
	}

	return c.JSON(TradesResponse{
		Symbol: strings.ToUpper(c.Params("symbol")),
		Since:  since.UTC(),
		Trades: trades,
		Count:  len(trades),
	})
}

func (h *Handler) GetDividendYield(c *fiber.Ctx) error {
	price, err := queryPrice(c)
	if err != nil {
		return err
	}

	value, err := h.exchangeService.DividendYield(c.UserContext(), c.Params("symbol"), price)
	if err != nil {
		return err
	}

	return c.JSON(MetricResponse{
		Symbol:      strings.ToUpper(c.Params("symbol")),
		Metric:      "dividend_yield",
		Value:       value,
		MarketPrice: &price,
		ComputedAt:  time.Now().UTC(),
	})
}

func (h *Handler) GetPERatio(c *fiber.Ctx) error {
	price, err := queryPrice(c)
	if err != nil {
		return err
	}

	value, err := h.exchangeService.PERatio(c.UserContext(), c.Params("symbol"), price)
	if err != nil {
		return err
	}

	return c.JSON(MetricResponse{
		Symbol:      strings.ToUpper(c.Params("symbol")),
		Metric:      "pe_ratio",
		Value:       value,
		MarketPrice: &price,
		ComputedAt:  time.Now().UTC(),
	})
}

func (h *Handler) GetVolumeWeightedPrice(c *fiber.Ctx) error {
	value, err := h.exchangeService.VolumeWeightedPrice(c.UserContext(), c.Params("symbol"))
	if err != nil {
		return err
	}

	return c.JSON(MetricResponse{
		Symbol:     strings.ToUpper(c.Params("symbol")),
		Metric:     "volume_weighted_price",
		Value:      value,
		Window:     h.exchangeService.Window().String(),
		ComputedAt: h.exchangeService.Now().UTC(),
	})
}

func (h *Handler) GetQuote(c *fiber.Ctx) error {
	price, err := queryPrice(c)
	if err != nil {
		return err
	}

	quote, err := h.exchangeService.Quote(c.UserContext(), c.Params("symbol"), price)
	if err != nil {
		return err
	}
	return c.JSON(quote)
}

func (h *Handler) GetAllShareIndex(c *fiber.Ctx) error {
	summary := h.exchangeService.Summary(c.UserContext())
	return c.JSON(IndexResponse{
		AllShareIndex: summary.AllShareIndex,
		Stocks:        summary.Stocks,
		ComputedAt:    summary.UpdatedAt,
	})
}

func (h *Handler) GetSummary(c *fiber.Ctx) error {
	return c.JSON(h.exchangeService.Summary(c.UserContext()))
}

func (h *Handler) GetTopVolume(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 10)
	window, err := queryWindow(c, h.exchangeService.Window())
	if err != nil {
		return err
	}

	result, err := h.analysisService.GetTopVolumeStocks(c.UserContext(), limit, window)
	if err != nil {
		return err
	}

	return c.JSON(TopVolumeResponse{
		Data:   result,
		Count:  len(result),
		Window: window.String(),
	})
}

func (h *Handler) GetPriceRange(c *fiber.Ctx) error {
	symbol := c.Query("symbol")
	if symbol == "" {
		return fiber.NewError(fiber.StatusBadRequest, "symbol is required")
	}
	window, err := queryWindow(c, h.exchangeService.Window())
	if err != nil {
		return err
	}

	result, err := h.analysisService.GetPriceRange(c.UserContext(), symbol, window)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

func (h *Handler) GetSystemStats(c *fiber.Ctx) error {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return c.JSON(SystemStatsResponse{
		Exchange: h.exchangeService.Summary(c.UserContext()),
		API: APIStats{
			Uptime:           time.Since(h.startedAt).Round(time.Second).String(),
			MemoryUsed:       fmt.Sprintf("%d MB", m.Alloc/1024/1024),
			ActiveGoroutines: runtime.NumGoroutine(),
		},
	})
}

// LoadData ingests trade files from the server's disk or from URLs. With
// async set the load runs in the background and only a job id is returned.
func (h *Handler) LoadData(c *fiber.Ctx) error {
	var req LoadDataRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if len(req.FilePaths) == 0 && len(req.URLs) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "file_paths or urls is required")
	}

	if req.Async {
		jobID := uuid.NewString()
		ctx := context.WithValue(context.Background(), logger.RequestIDKey, getRequestID(c))

		go func() {
			resp, err := h.load(ctx, req)
			if err != nil {
				logger.WithContext(ctx).Error("trade load failed",
					zap.String("job_id", jobID),
					zap.Error(err))
				return
			}
			logger.WithContext(ctx).Info("trade load finished",
				zap.String("job_id", jobID),
				zap.Int64("records", resp.RecordsCount),
				zap.Int("rejected", resp.Rejected))
		}()

		return c.Status(fiber.StatusAccepted).JSON(LoadDataResponse{
			JobID:   jobID,
			Status:  "processing",
			Message: "load started",
		})
	}

	resp, err := h.load(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

func (h *Handler) load(ctx context.Context, req LoadDataRequest) (LoadDataResponse, error) {
	var results []service.ProcessFileResult

	if len(req.FilePaths) > 0 {
		r, err := h.ingestionService.ProcessFiles(ctx, req.FilePaths)
		if err != nil {
			return LoadDataResponse{}, err
		}
		results = append(results, r...)
	}
	if len(req.URLs) > 0 {
		r, err := h.ingestionService.ProcessURLs(ctx, req.URLs, h.downloadDir)
		if err != nil {
			return LoadDataResponse{}, err
		}
		results = append(results, r...)
	}

	resp := LoadDataResponse{
		Files:   len(results),
		Status:  "completed",
		Message: "trades loaded",
	}
	for _, r := range results {
		resp.RecordsCount += r.RecordsCount
		resp.Rejected += len(r.Errors)
		for _, e := range r.Errors {
			resp.Errors = append(resp.Errors, fmt.Sprintf("%s: %v", r.FilePath, e))
		}
	}
	return resp, nil
}

func queryPrice(c *fiber.Ctx) (decimal.Decimal, error) {
	raw := c.Query("price")
	if raw == "" {
		return decimal.Zero, fiber.NewError(fiber.StatusBadRequest, "price is required")
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fiber.NewError(fiber.StatusBadRequest, "invalid price")
	}
	return price, nil
}

func queryWindow(c *fiber.Ctx, fallback time.Duration) (time.Duration, error) {
	raw := c.Query("window")
	if raw == "" {
		return fallback, nil
	}
	window, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid window, use a duration such as 15m")
	}
	return window, nil
}
