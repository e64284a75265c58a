package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"votepay-gateway/internal/config"
	"votepay-gateway/internal/service"
	"votepay-gateway/pkg/logger"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	purchaseService *service.PurchaseService
	config          *config.Config
	logger          *logger.Logger
	startTime       time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(purchaseService *service.PurchaseService, cfg *config.Config, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		purchaseService: purchaseService,
		config:          cfg,
		logger:          log,
		startTime:       time.Now(),
	}
}

// CheckHealth handles GET /health
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	receiptsOK := h.purchaseService.Receipts().Ping() == nil
	uptime := time.Since(h.startTime)

	response := map[string]interface{}{
		"status": "healthy",
		"platform_api": map[string]interface{}{
			"configured": h.config.Platform.BaseURL != "",
			"base_url":   h.config.Platform.BaseURL,
		},
		"receipts_db":  receiptsOK,
		"active_polls": h.purchaseService.ActivePolls(),
		"uptime":       uptime.String(),
		"timestamp":    time.Now().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}
