package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/jeovahfialho/stock-exchange/internal/api"
	"github.com/jeovahfialho/stock-exchange/internal/config"
	"github.com/jeovahfialho/stock-exchange/internal/listing"
	"github.com/jeovahfialho/stock-exchange/internal/market"
	"github.com/jeovahfialho/stock-exchange/internal/service"
	"github.com/jeovahfialho/stock-exchange/pkg/logger"
)

// @title Super Simple Stocks API
// @version 1.0
// @description In-memory stock exchange: trades, dividend yield, P/E ratio,
// @description volume weighted price and the GBCE all share index.

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8000
// @BasePath /api/v1
// @schemes http https
func main() {
	cfg, err := config.LoadE()
	if err != nil {
		log.Fatal("config: ", err)
	}

	if err := logger.Init(cfg.LogLevel, cfg.LogFormat, cfg.Development()); err != nil {
		log.Fatal("logger: ", err)
	}
	defer logger.Close()

	stocks, err := listing.LoadOrDefault(cfg.ListingFile)
	if err != nil {
		logger.Fatal("failed to load listing", zap.String("file", cfg.ListingFile), zap.Error(err))
	}

	// Services
	exchangeService := service.NewExchangeService(
		market.NewExchange(stocks...),
		service.WithWindow(cfg.VWPWindow),
	)
	analysisService := service.NewAnalysisService(exchangeService)
	ingestionService := service.NewIngestionService(exchangeService, cfg.BatchSize, cfg.Workers)

	handler := api.NewHandler(exchangeService, analysisService, ingestionService, cfg.DownloadDir)

	app := fiber.New(fiber.Config{
		Prefork:                 false,
		ServerHeader:            "Stock-Exchange",
		AppName:                 "Super Simple Stocks v" + api.Version,
		ReadTimeout:             cfg.APIReadTimeout,
		WriteTimeout:            cfg.APIWriteTimeout,
		IdleTimeout:             120 * time.Second,
		ReadBufferSize:          8192,
		WriteBufferSize:         8192,
		ProxyHeader:             "X-Forwarded-For",
		EnableTrustedProxyCheck: true,
		BodyLimit:               1 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-Request-ID",
	}))

	api.SetupRoutes(app, handler, cfg)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down server")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Error("server shutdown error", zap.Error(err))
		}
	}()

	addr := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	logger.Info("starting server",
		zap.String("addr", addr),
		zap.Int("stocks", len(stocks)),
		zap.Duration("vwp_window", cfg.VWPWindow))

	if err := app.Listen(addr); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
