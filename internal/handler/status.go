package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"votepay-gateway/internal/model"
	"votepay-gateway/internal/service"
	"votepay-gateway/pkg/logger"
)

// StatusHandler serves payment attempt status and settlement receipts
type StatusHandler struct {
	purchaseService *service.PurchaseService
	logger          *logger.Logger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(purchaseService *service.PurchaseService, log *logger.Logger) *StatusHandler {
	return &StatusHandler{
		purchaseService: purchaseService,
		logger:          log,
	}
}

// GetPayment handles GET /api/v1/payments/{reference}. In-flight attempts
// come from the in-memory store; settled ones that were already swept are
// answered from the receipt log.
func (s *StatusHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")

	if attempt, ok := s.purchaseService.Attempt(reference); ok {
		s.respond(w, http.StatusOK, model.APIResponse{
			Status:  "success",
			Message: "Payment attempt found",
			Data:    attempt,
		})
		return
	}

	receipt, err := s.purchaseService.Receipts().GetByReference(reference)
	if err != nil {
		s.logger.WithReference(reference).WithError(err).Error("Failed to look up receipt")
		s.respond(w, http.StatusInternalServerError, model.APIResponse{
			Status:  "error",
			Message: "Failed to look up payment",
			Error:   &model.APIError{Code: "ERR_INTERNAL", Message: "Failed to look up payment"},
		})
		return
	}
	if receipt == nil {
		s.respond(w, http.StatusNotFound, model.APIResponse{
			Status:  "error",
			Message: "Unknown payment reference",
			Error:   &model.APIError{Code: "ERR_NOT_FOUND", Message: "Unknown payment reference"},
		})
		return
	}

	s.respond(w, http.StatusOK, model.APIResponse{
		Status:  "success",
		Message: "Payment settled",
		Data:    receipt,
	})
}

// ListReceipts handles GET /api/v1/receipts?limit=N
func (s *StatusHandler) ListReceipts(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}

	receipts, err := s.purchaseService.Receipts().ListRecent(limit)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list receipts")
		s.respond(w, http.StatusInternalServerError, model.APIResponse{
			Status:  "error",
			Message: "Failed to list receipts",
			Error:   &model.APIError{Code: "ERR_INTERNAL", Message: "Failed to list receipts"},
		})
		return
	}

	s.respond(w, http.StatusOK, model.APIResponse{
		Status:  "success",
		Message: "Receipts retrieved successfully",
		Data:    receipts,
	})
}

func (s *StatusHandler) respond(w http.ResponseWriter, statusCode int, response model.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response)
}
