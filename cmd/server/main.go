package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andresuchdata/fulfillment-efficiency/backend-go/internal/api"
	"github.com/andresuchdata/fulfillment-efficiency/backend-go/internal/cache"
	"github.com/andresuchdata/fulfillment-efficiency/backend-go/internal/config"
	"github.com/andresuchdata/fulfillment-efficiency/backend-go/internal/efficiency"
	"github.com/andresuchdata/fulfillment-efficiency/backend-go/internal/metrics"
	"github.com/andresuchdata/fulfillment-efficiency/backend-go/internal/repository/postgres"
	"github.com/andresuchdata/fulfillment-efficiency/backend-go/internal/service"
	"github.com/andresuchdata/fulfillment-efficiency/backend-go/pkg/logger"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()

	logger.Init(cfg.Server.Mode, cfg.Server.LogLevel)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	invoiceRepo := postgres.NewInvoiceRepository(db)
	orderRepo := postgres.NewOrderRepository(db)
	catalogRepo := postgres.NewCatalogRepository(db)

	engineCfg := efficiency.ConfigFromSettings(cfg.Efficiency)
	loader := efficiency.NewLoader(invoiceRepo, orderRepo, catalogRepo, engineCfg)

	var (
		engineOpts []efficiency.EngineOption
		m          *metrics.Metrics
	)
	if cfg.Metrics.Enabled {
		m = metrics.New(nil)
		engineOpts = append(engineOpts, efficiency.WithObserver(m))
	}
	engine := efficiency.NewEngine(loader, engineCfg, engineOpts...)

	suggestionsCache, err := cache.NewClientSuggestionsCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Client suggestions cache unavailable, continuing without it")
		suggestionsCache = cache.NewNoopClientSuggestionsCache()
	}

	efficiencyService := service.NewEfficiencyService(
		engine,
		invoiceRepo,
		suggestionsCache,
		time.Duration(cfg.Efficiency.RequestTimeoutSeconds)*time.Second,
	)

	// suggestions cached by a previous deployment may name renamed clients
	flushCtx, cancelFlush := context.WithTimeout(context.Background(), 5*time.Second)
	if err := efficiencyService.FlushClientSuggestions(flushCtx); err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to flush client suggestions cache")
	}
	cancelFlush()

	router := api.NewRouter(&api.Services{EfficiencyService: efficiencyService}, api.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Metrics:        m,
		MetricsPath:    cfg.Metrics.Path,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	// in-flight requests get 5 seconds to finish
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
