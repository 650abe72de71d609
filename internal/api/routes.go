package api

import (
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/jeovahfialho/stock-exchange/internal/config"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(app *fiber.App, handler *Handler, cfg *config.Config) {
	// Global middlewares
	app.Use(RequestID())
	app.Use(ErrorHandler())

	// Health checks, no rate limiting
	app.Get("/health", handler.HealthCheck)
	app.Get("/ready", handler.ReadinessCheck)

	if cfg.MetricsEnabled {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	}

	app.Get("/swagger/*", swagger.HandlerDefault)

	v1 := app.Group("/api/v1")
	v1.Use(RateLimiter(cfg.RateLimitMax))
	v1.Use(PrometheusMiddleware())

	stocks := v1.Group("/stocks")
	stocks.Get("/", handler.ListStocks)
	stocks.Post("/", handler.CreateStock)
	stocks.Get("/:symbol", handler.GetStock)
	stocks.Post("/:symbol/trades", handler.RecordTrade)
	stocks.Get("/:symbol/trades", handler.GetTrades)
	stocks.Get("/:symbol/dividend-yield", handler.GetDividendYield)
	stocks.Get("/:symbol/pe-ratio", handler.GetPERatio)
	stocks.Get("/:symbol/vwp", handler.GetVolumeWeightedPrice)
	stocks.Get("/:symbol/quote", handler.GetQuote)

	v1.Get("/index/all-share", handler.GetAllShareIndex)
	v1.Get("/summary", handler.GetSummary)

	analysis := v1.Group("/analysis")
	analysis.Get("/top-volume", handler.GetTopVolume)
	analysis.Get("/price-range", handler.GetPriceRange)

	// Admin routes are only mounted when a password is configured.
	if cfg.AdminPassword != "" {
		admin := v1.Group("/admin")
		admin.Use(BasicAuth(cfg.AdminUser, cfg.AdminPassword))
		admin.Get("/stats", handler.GetSystemStats)
		admin.Post("/load", handler.LoadData)
	}
}
