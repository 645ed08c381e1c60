package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/finchoice/backend/internal/config"
	"github.com/finchoice/backend/internal/handler"
	applog "github.com/finchoice/backend/internal/logger"
	"github.com/finchoice/backend/internal/repository"
	"github.com/finchoice/backend/internal/scheduler"
	"github.com/finchoice/backend/internal/scraper"
	"github.com/finchoice/backend/internal/service"
	"github.com/finchoice/backend/pkg/currency"
)

// @title FinChoice API
// @version 1.0
// @description Financial product comparison and matching API covering banks, product catalogs, weighted matching, and market-driven re-evaluation.

// @contact.name API Support
// @contact.email support@finchoice.io

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api

func main() {
	// Load configuration
	cfg := config.Load()

	// Structured logger, JSON in production
	logger := applog.New(cfg.Env)

	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = db.Close() }()

	// Initialize repositories
	productRepo := repository.NewProductRepository(db)
	bankRepo := repository.NewBankRepository(db)
	comparisonRepo := repository.NewComparisonRepository(db)

	displayCurrency := currency.Currency(cfg.DisplayCurrency)
	if !currency.IsValid(cfg.DisplayCurrency) {
		logger.Warn("unsupported display currency, using default",
			slog.String("currency", cfg.DisplayCurrency))
		displayCurrency = currency.DefaultCurrency
	}

	// Initialize services
	comparisonService := service.NewComparisonService(productRepo, comparisonRepo, displayCurrency)
	matchingService := service.NewMatchingService(productRepo, comparisonService)
	marketService := service.NewMarketService(matchingService)
	marketData := service.NewMarketDataService()
	productService := service.NewProductService(productRepo, bankRepo, comparisonService)

	// Initialize handlers
	productHandler := handler.NewProductHandler(productService)
	comparisonHandler := handler.NewComparisonHandler(comparisonService)
	matchingHandler := handler.NewMatchingHandler(matchingService, marketService, marketData)

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := applog.WithRequestID(req.Context(), middleware.GetReqID(req.Context()))
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	// CORS - allow frontend origin from env or default
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Banks
	r.Get("/api/banks", productHandler.ListBanks)
	r.Get("/api/banks/{id}", productHandler.GetBank)

	// Product catalog
	r.Get("/api/products", productHandler.List)
	r.Get("/api/products/featured", productHandler.Featured)
	r.Post("/api/products", productHandler.Create)
	r.Get("/api/products/{id}", productHandler.Get)
	r.Put("/api/products/{id}", productHandler.Update)
	r.Delete("/api/products/{id}", productHandler.Deactivate)

	// Comparisons
	r.Post("/api/comparisons", comparisonHandler.Compare)
	r.Post("/api/comparisons/detailed", comparisonHandler.CompareDetailed)
	r.Post("/api/comparisons/saved", comparisonHandler.Save)
	r.Get("/api/comparisons/saved", comparisonHandler.ListSaved)
	r.Get("/api/comparisons/saved/{id}", comparisonHandler.GetSaved)
	r.Delete("/api/comparisons/saved/{id}", comparisonHandler.DeleteSaved)

	// Matching
	r.Post("/api/matching", matchingHandler.Match)
	r.Post("/api/matching/combinations", matchingHandler.Combinations)
	r.Post("/api/matching/refresh", matchingHandler.Refresh)
	r.Get("/api/market/conditions", matchingHandler.MarketConditions)

	// Initialize and start scheduler for market indicator refresh
	var refreshScheduler *scheduler.Scheduler
	if cfg.MarketRefreshEnabled {
		indicatorsScraper := scraper.NewIndicatorsScraper(cfg.IndicatorsURL, cfg.ScraperTimeout, logger)
		schedCfg := scheduler.Config{
			Schedule: cfg.MarketRefreshSchedule,
			Timeout:  cfg.ScraperTimeout,
			Enabled:  cfg.MarketRefreshEnabled,
		}
		refreshScheduler = scheduler.New(schedCfg, indicatorsScraper, marketData, logger)
		if err := refreshScheduler.Start(); err != nil {
			logger.Error("Failed to start market refresh scheduler", slog.String("error", err.Error()))
		} else {
			logger.Info("Market refresh scheduler started",
				slog.String("schedule", cfg.MarketRefreshSchedule),
				slog.Duration("timeout", cfg.ScraperTimeout),
			)
			// Prime the cache so the first matching request sees conditions
			refreshScheduler.RunNow()
		}
	}

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	// Create server
	server := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down server...")

		// Stop scheduler first
		if refreshScheduler != nil {
			ctx := refreshScheduler.Stop()
			<-ctx.Done()
			logger.Info("Scheduler stopped")
		}

		// Shutdown HTTP server
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("Server shutdown error", slog.String("error", err.Error()))
		}
	}()

	log.Printf("Server starting on port %s", port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Printf("Server failed: %v", err)
	}
}
