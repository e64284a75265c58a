package handler

import (
	"encoding/json"
	"net/http"

	"votepay-gateway/internal/model"
	"votepay-gateway/internal/service"
	"votepay-gateway/pkg/logger"
)

// CallbackHandler handles the redirect-return leg of checkout payments.
// The external payment provider sends the payer back to this endpoint with
// an opaque token query parameter once the checkout completes.
type CallbackHandler struct {
	purchaseService *service.PurchaseService
	logger          *logger.Logger
}

// NewCallbackHandler creates a new callback handler
func NewCallbackHandler(purchaseService *service.PurchaseService, log *logger.Logger) *CallbackHandler {
	return &CallbackHandler{
		purchaseService: purchaseService,
		logger:          log,
	}
}

// ResolvePayment handles GET /payment/callback?token=...
func (h *CallbackHandler) ResolvePayment(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")

	result := h.purchaseService.ResolveCallback(r.Context(), token)

	status := http.StatusOK
	message := "Payment confirmed, votes recorded"
	if result.Outcome == model.OutcomeFailure {
		status = http.StatusPaymentRequired
		message = result.Message
	}

	h.logger.Info("Payment callback resolved",
		"outcome", string(result.Outcome),
		"has_token", token != "",
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(model.APIResponse{
		Status:  statusWord(result.Outcome),
		Message: message,
		Data:    result,
	})
}

func statusWord(outcome model.Outcome) string {
	if outcome == model.OutcomeSuccess {
		return "success"
	}
	return "error"
}
