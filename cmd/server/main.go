package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/artisanhub/backend/docs"
	"github.com/artisanhub/backend/internal/clock"
	"github.com/artisanhub/backend/internal/config"
	"github.com/artisanhub/backend/internal/database"
	"github.com/artisanhub/backend/internal/handlers"
	mW "github.com/artisanhub/backend/internal/middleware"
	"github.com/artisanhub/backend/internal/repository"
	"github.com/artisanhub/backend/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"
)

// @title Artisan Marketplace Ledger API
// @version 1.0
// @description Transaction ledger for marketplace payments, escrow and fees
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	config.Init()
	ledgerCfg := config.LoadLedgerConfig()
	port := config.ServerPort()

	docs.SwaggerInfo.Host = "localhost:" + port

	db := database.InitDatabase()
	defer db.Close()

	redisClient := database.InitRedis()
	if redisClient != nil {
		defer redisClient.Close()
	}

	clk := clock.System()
	opts := []services.LedgerOption{
		services.WithClock(clk),
		services.WithTransitionPolicy(services.TransitionPolicy{Strict: ledgerCfg.EnforceTransitions}),
		services.WithUpdateRetries(ledgerCfg.UpdateRetries),
	}
	if redisClient != nil {
		opts = append(opts,
			services.WithCache(repository.NewTransactionCache(redisClient, ledgerCfg.CacheTTL)),
			services.WithEventPublisher(services.NewRedisEventPublisher(redisClient, ledgerCfg.EventQueue)),
		)
	}
	if ledgerCfg.VerifyReferences {
		opts = append(opts, services.WithDirectory(repository.NewDirectory(db)))
	}

	ledgerService := services.NewLedgerService(repository.NewTransactionStore(db), opts...)
	ledgerHandler := handlers.NewLedgerHandler(
		ledgerService,
		services.NewReceiptService(ledgerCfg.ReceiptBaseURL, ledgerCfg.SolanaCluster),
		services.NewSettlementService(clk),
	)

	log.Printf("[LEDGER] transitions enforced=%t, references verified=%t, update retries=%d",
		ledgerCfg.EnforceTransitions, ledgerCfg.VerifyReferences, ledgerCfg.UpdateRetries)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	limiter := mW.NewIPRateLimiter(rate.Limit(ledgerCfg.RateLimit), ledgerCfg.RateBurst)
	go limiter.RunCleanup(ctx, time.Minute, 3*time.Minute)

	r := chi.NewRouter()

	r.Use(mW.SecurityHeaders)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(limiter.Middleware)
			r.Use(mW.AuthMiddleware)
			ledgerHandler.Routes(r)
		})
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server stopped")
}
