package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"votepay-gateway/internal/model"
	"votepay-gateway/internal/service"
	"votepay-gateway/pkg/logger"
)

// VoteHandler handles vote purchase requests
type VoteHandler struct {
	purchaseService *service.PurchaseService
	logger          *logger.Logger
}

// NewVoteHandler creates a new vote handler
func NewVoteHandler(purchaseService *service.PurchaseService, log *logger.Logger) *VoteHandler {
	return &VoteHandler{
		purchaseService: purchaseService,
		logger:          log,
	}
}

// BeginPurchase handles POST /api/v1/votes/nominees/{nomineeID}
func (h *VoteHandler) BeginPurchase(w http.ResponseWriter, r *http.Request) {
	nomineeID := chi.URLParam(r, "nomineeID")
	if nomineeID == "" {
		h.sendErrorResponse(w, "ERR_MISSING_PARAMETER", "nominee id is required", http.StatusBadRequest)
		return
	}

	var req model.VotePurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendErrorResponse(w, "ERR_INVALID_BODY", "Invalid JSON body", http.StatusBadRequest)
		return
	}
	req.NomineeID = nomineeID

	initiation, err := h.purchaseService.BeginPurchase(r.Context(), &req)
	if err != nil {
		// Rejected before any network call; the voter fixes the form and resubmits
		h.sendErrorResponse(w, h.mapErrorCode(err), err.Error(), http.StatusBadRequest)
		return
	}

	switch initiation.Kind {
	case model.InitiationRedirect:
		h.sendSuccessResponse(w, "Redirect to checkout to complete payment", map[string]any{
			"checkout_url": initiation.CheckoutURL,
		})
	case model.InitiationPollable:
		h.sendSuccessResponse(w, "Authorization prompt sent, confirm on your phone", map[string]any{
			"reference": initiation.Reference,
			"is_direct": true,
		})
	default:
		h.sendErrorResponse(w, "ERR_INITIATION_FAILED", initiation.Message, http.StatusBadGateway)
	}
}

// CancelPurchase handles DELETE /api/v1/payments/{reference}, tearing down
// the settlement polling loop when the voter abandons the purchase
func (h *VoteHandler) CancelPurchase(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")
	if reference == "" {
		h.sendErrorResponse(w, "ERR_MISSING_PARAMETER", "reference is required", http.StatusBadRequest)
		return
	}

	h.purchaseService.CancelPurchase(reference)
	h.sendSuccessResponse(w, "Settlement polling cancelled", nil)
}

// sendSuccessResponse sends success response
func (h *VoteHandler) sendSuccessResponse(w http.ResponseWriter, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	response := model.APIResponse{
		Status:  "success",
		Message: message,
		Data:    data,
	}

	json.NewEncoder(w).Encode(response)
}

// sendErrorResponse sends error response
func (h *VoteHandler) sendErrorResponse(w http.ResponseWriter, code, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := model.APIResponse{
		Status:  "error",
		Message: message,
		Error: &model.APIError{
			Code:    code,
			Message: message,
		},
	}

	json.NewEncoder(w).Encode(response)
}

// mapErrorCode maps a validation error to a stable error code
func (h *VoteHandler) mapErrorCode(err error) string {
	errMsg := err.Error()

	switch {
	case strings.Contains(errMsg, "nominee_id"):
		return "ERR_MISSING_PARAMETER"
	case strings.Contains(errMsg, "number_of_votes"):
		return "ERR_INVALID_QUANTITY"
	case strings.Contains(errMsg, "voter_phone"):
		return "ERR_MISSING_PHONE"
	case strings.Contains(errMsg, "channel"):
		return "ERR_UNKNOWN_CHANNEL"
	default:
		return "ERR_VALIDATION"
	}
}
