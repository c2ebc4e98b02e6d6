package main

import (
	"context"
	"encoding/json"
	stdlog "log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/username/tradefolio/backend/src/config"
	"github.com/username/tradefolio/backend/src/database"
	"github.com/username/tradefolio/backend/src/handlers"
	"github.com/username/tradefolio/backend/src/logger"
	"github.com/username/tradefolio/backend/src/security"
	"github.com/username/tradefolio/backend/src/services"
	"github.com/username/tradefolio/backend/src/storage"
	syncpkg "github.com/username/tradefolio/backend/src/sync"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded", "path", r.URL.Path)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	allowedOrigins := make(map[string]bool)
	for _, origin := range config.Cfg.AllowedOrigins {
		allowedOrigins[origin] = true
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Requested-With")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	logger.L.Info("Tradefolio backend server starting...")

	if len(config.Cfg.JWTSecret) < 32 {
		stdlog.Fatal("JWT_SECRET configuration invalid: must be at least 32 characters.")
	}

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	database.RunMigrations(config.Cfg.DatabasePath, config.Cfg.MigrationsPath)

	localBackend, err := storage.NewSQLiteBackend(database.DB)
	if err != nil {
		stdlog.Fatalf("Failed to initialize local ledger storage: %v", err)
	}

	var remoteBackend storage.Backend
	if config.Cfg.MongoURI != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		mongoBackend, err := storage.NewMongoBackend(ctx, config.Cfg.MongoURI, config.Cfg.MongoDatabase)
		cancel()
		if err != nil {
			stdlog.Fatalf("Failed to connect to remote document store: %v", err)
		}
		remoteBackend = mongoBackend
		logger.L.Info("Remote document store connected", "database", config.Cfg.MongoDatabase)
	} else {
		logger.L.Info("No MONGO_URI configured; cloud sync disabled, running local-only.")
	}

	coordinator := syncpkg.NewCoordinator(localBackend, remoteBackend)

	reportCache := cache.New(services.DefaultCacheExpiration, services.CacheCleanupInterval)
	reportService := services.NewReportService(coordinator, reportCache)

	authService := security.NewAuthService(config.Cfg.JWTSecret)

	accountHandler := handlers.NewAccountHandler(coordinator, reportService)
	tradeHandler := handlers.NewTradeHandler(coordinator, reportService)
	metricsHandler := handlers.NewMetricsHandler(coordinator, reportService)
	syncHandler := handlers.NewSyncHandler(coordinator, reportService)

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(handlers.ContextualLoggerMiddleware)
	r.Use(enableCORS)
	r.Use(rateLimitMiddleware)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "Tradefolio Backend is running"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(handlers.AuthMiddleware(authService))

		r.Get("/accounts", accountHandler.HandleListAccounts)
		r.Post("/accounts", accountHandler.HandleCreateAccount)
		r.Get("/accounts/active", accountHandler.HandleGetActiveAccount)
		r.Post("/accounts/{id}/switch", accountHandler.HandleSwitchAccount)

		r.Post("/balance/deposit", accountHandler.HandleDeposit)
		r.Post("/balance/withdraw", accountHandler.HandleWithdraw)
		r.Post("/balance/set", accountHandler.HandleSetBalance)
		r.Post("/balance/initial", accountHandler.HandleSetInitialBalance)

		r.Get("/trades", tradeHandler.HandleListTrades)
		r.Post("/trades", tradeHandler.HandleAddTrade)
		r.Post("/trades/import", tradeHandler.HandleImportTrades)
		r.Post("/trades/bulk-delete", tradeHandler.HandleBulkDeleteTrades)
		r.Put("/trades/{id}", tradeHandler.HandleEditTrade)
		r.Delete("/trades/{id}", tradeHandler.HandleDeleteTrade)

		r.Get("/metrics/daily", metricsHandler.HandleGetDailyStats)
		r.Get("/metrics/summary", metricsHandler.HandleGetSummary)
		r.Get("/metrics/tracker", metricsHandler.HandleGetTracker)
		r.Get("/metrics/heatmap", metricsHandler.HandleGetHeatmap)

		r.Post("/session/signin", syncHandler.HandleSignIn)
		r.Post("/session/signout", syncHandler.HandleSignOut)
		r.Post("/session/sync", syncHandler.HandleSyncToCloud)
	})

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		stdlog.Fatalf("Failed to start server: %v", err)
	}
}
