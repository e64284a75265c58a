package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	_ "github.com/mattn/go-sqlite3"

	"votepay-gateway/internal/config"
	"votepay-gateway/internal/gateway"
	"votepay-gateway/internal/handler"
	"votepay-gateway/internal/middleware"
	"votepay-gateway/internal/notify"
	"votepay-gateway/internal/service"
	"votepay-gateway/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLogger := logger.New(cfg.LogLevel)
	appLogger.Info("Starting votepay gateway service")

	// Initialize payment gateway client
	gatewayClient := gateway.NewClient(&cfg.Platform, appLogger)

	// Initialize settlement notifier
	notifier := notify.New(&cfg.Notify, appLogger)

	// Initialize purchase service
	purchaseService, err := service.NewPurchaseService(gatewayClient, &cfg.Polling, &cfg.Receipts, notifier, appLogger)
	if err != nil {
		appLogger.Error("Failed to initialize purchase service", "error", err)
		log.Fatalf("Failed to initialize purchase service: %v", err)
	}
	defer purchaseService.Close()

	// Initialize handlers
	voteHandler := handler.NewVoteHandler(purchaseService, appLogger)
	callbackHandler := handler.NewCallbackHandler(purchaseService, appLogger)
	statusHandler := handler.NewStatusHandler(purchaseService, appLogger)
	healthHandler := handler.NewHealthHandler(purchaseService, cfg, appLogger)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.Security.APIKey, appLogger)

	// Setup HTTP routes
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)

	// Public routes: liveness and the payment provider's redirect return
	r.Get("/health", healthHandler.CheckHealth)
	r.Get("/payment/callback", callbackHandler.ResolvePayment)

	// Protected routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)
		r.Post("/votes/nominees/{nomineeID}", voteHandler.BeginPurchase)
		r.Get("/payments/{reference}", statusHandler.GetPayment)
		r.Delete("/payments/{reference}", voteHandler.CancelPurchase)
		r.Get("/receipts", statusHandler.ListReceipts)
	})

	// Create HTTP server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		appLogger.Info("HTTP server starting", "address", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("HTTP server error", "error", err)
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	appLogger.Info("Votepay gateway started successfully",
		"address", addr,
		"platform_api", cfg.Platform.BaseURL,
		"notifications", notifier.Enabled(),
	)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", "error", err)
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	appLogger.Info("Server stopped gracefully")
}
