package service

import (
	"context"
	"fmt"
	"time"

	"votepay-gateway/internal/config"
	"votepay-gateway/internal/gateway"
	"votepay-gateway/internal/model"
	"votepay-gateway/internal/notify"
	"votepay-gateway/internal/poller"
	"votepay-gateway/internal/repository"
	"votepay-gateway/internal/store"
	"votepay-gateway/pkg/logger"
)

// Gateway is the slice of the payment API client the purchase flow needs
type Gateway interface {
	Initiate(ctx context.Context, req *model.VotePurchaseRequest) (model.Initiation, error)
	Confirm(ctx context.Context, query gateway.ConfirmQuery) (*gateway.Confirmation, error)
}

// PurchaseService owns the vote payment flow: initiate a charge, then
// either hand the payer a checkout redirect or poll the confirm endpoint
// until settlement, and resolve redirect returns by callback token.
type PurchaseService struct {
	gateway  Gateway
	attempts *store.AttemptStore
	gate     *store.TokenGate
	poller   *poller.Poller
	receipts *repository.ReceiptRepository
	notifier *notify.Notifier
	logger   *logger.Logger
}

// NewPurchaseService creates the purchase service and its receipt
// repository, and starts the attempt sweeper.
func NewPurchaseService(gw Gateway, pollCfg *config.PollingConfig, receiptCfg *config.ReceiptsConfig, notifier *notify.Notifier, log *logger.Logger) (*PurchaseService, error) {
	receipts, err := repository.NewReceiptRepository(receiptCfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize receipt repository: %w", err)
	}

	s := &PurchaseService{
		gateway:  gw,
		attempts: store.NewAttemptStore(receiptCfg.AttemptTTL),
		gate:     store.NewTokenGate(),
		receipts: receipts,
		notifier: notifier,
		logger:   log,
	}
	s.poller = poller.New(s.confirmByReference, pollCfg, log)

	s.attempts.StartSweeper(10 * time.Minute)

	return s, nil
}

// Close stops all polling loops and closes the receipt database
func (s *PurchaseService) Close() error {
	s.poller.CancelAll()
	return s.receipts.Close()
}

// Receipts returns the settlement receipt repository
func (s *PurchaseService) Receipts() *repository.ReceiptRepository {
	return s.receipts
}

// Attempt returns the tracked attempt for reference, if still in memory
func (s *PurchaseService) Attempt(reference string) (model.PaymentAttempt, bool) {
	return s.attempts.Get(reference)
}

// ActivePolls returns the number of settlement loops currently running
func (s *PurchaseService) ActivePolls() int {
	return s.poller.ActiveCount()
}

// BeginPurchase validates the request and initiates the charge. Card
// payments come back as a checkout redirect and never start a polling
// loop; mobile-money payments come back as a pollable charge and never
// redirect. A failed initiation leaves no attempt behind, so the voter can
// simply resubmit.
func (s *PurchaseService) BeginPurchase(ctx context.Context, req *model.VotePurchaseRequest) (model.Initiation, error) {
	// Validation errors are rejected before any network call
	if err := req.Validate(); err != nil {
		return model.Initiation{}, err
	}

	log := s.logger.WithChannel(string(req.Channel))

	initiation, err := s.gateway.Initiate(ctx, req)
	if err != nil {
		log.WithError(err).Error("Payment initiation failed", "nominee_id", req.NomineeID)
		return model.InitiationFailed("Payment could not be initiated, please try again"), nil
	}

	switch initiation.Kind {
	case model.InitiationRedirect:
		// Control leaves for the external checkout page; settlement comes
		// back through the callback token.
		log.Info("Checkout redirect issued", "nominee_id", req.NomineeID)

	case model.InitiationPollable:
		attempt := model.PaymentAttempt{
			Reference: initiation.Reference,
			Status:    model.StatusInitiated,
			Flow:      model.FlowPolling,
			Channel:   req.Channel,
			NomineeID: req.NomineeID,
			Quantity:  req.Quantity,
			CreatedAt: time.Now(),
		}
		s.attempts.Put(attempt)
		s.poller.Start(initiation.Reference, func(result poller.Result) {
			s.settlePolled(initiation.Reference, result)
		})
		log.WithReference(initiation.Reference).Info("Direct charge initiated, polling for settlement",
			"nominee_id", req.NomineeID,
			"votes", req.Quantity,
		)

	case model.InitiationFailure:
		log.Warn("Payment initiation rejected", "nominee_id", req.NomineeID, "message", initiation.Message)
	}

	return initiation, nil
}

// CancelPurchase tears down the polling loop for reference, mirroring the
// payer navigating away. The attempt stays pending until the sweeper
// evicts it; the remote service still settles on its own.
func (s *PurchaseService) CancelPurchase(reference string) {
	s.poller.Cancel(reference)
	s.logger.WithReference(reference).Info("Settlement polling cancelled")
}

// ResolveCallback handles the redirect-return leg: a single verification
// call for the opaque token the payment provider appended to the callback
// URL. A missing token fails immediately without any network call, and the
// token gate guarantees one verification call per token no matter how many
// times the provider or the payer's browser re-invokes the callback.
func (s *PurchaseService) ResolveCallback(ctx context.Context, token string) *model.ConfirmationResult {
	if token == "" {
		return &model.ConfirmationResult{
			Outcome: model.OutcomeFailure,
			Message: "Invalid payment token",
		}
	}

	cached, resolve := s.gate.Begin(token)
	if !resolve {
		return cached
	}

	result := s.verifyToken(ctx, token)
	s.gate.Complete(token, result)
	return result
}

// verifyToken performs the one confirm call for a callback token and
// records the outcome
func (s *PurchaseService) verifyToken(ctx context.Context, token string) *model.ConfirmationResult {
	confirmation, err := s.gateway.Confirm(ctx, gateway.ConfirmQuery{Token: token})
	if err != nil {
		s.logger.WithError(err).Error("Callback verification failed")
		return &model.ConfirmationResult{
			Outcome: model.OutcomeFailure,
			Message: "Payment could not be verified",
		}
	}

	var result *model.ConfirmationResult
	if confirmation.Status == model.StatusPaid {
		result = &model.ConfirmationResult{
			Outcome:     model.OutcomeSuccess,
			VoteDetails: confirmation.Details,
		}
	} else {
		result = &model.ConfirmationResult{
			Outcome: model.OutcomeFailure,
			Message: "Payment failed",
		}
	}

	s.recordReceipt(token, token, "", result)
	s.notifier.Settlement(token, result)
	return result
}

// settlePolled finalizes a direct-charge attempt once its polling loop
// reports a terminal result
func (s *PurchaseService) settlePolled(reference string, pollResult poller.Result) {
	log := s.logger.WithReference(reference)

	attempt, tracked := s.attempts.Get(reference)
	if tracked {
		if err := s.attempts.Settle(reference, pollResult.Status); err != nil {
			log.WithError(err).Warn("Could not update settled attempt")
		}
	}

	var result *model.ConfirmationResult
	switch pollResult.Status {
	case model.StatusPaid:
		result = &model.ConfirmationResult{
			Outcome:     model.OutcomeSuccess,
			VoteDetails: pollResult.Details,
		}
		log.Info("Payment settled", "ticks", pollResult.Ticks)
	case model.StatusTimedOut:
		result = &model.ConfirmationResult{
			Outcome: model.OutcomeFailure,
			Message: "Payment status could not be confirmed in time",
		}
		log.Warn("Payment settlement timed out", "ticks", pollResult.Ticks)
	default:
		result = &model.ConfirmationResult{
			Outcome: model.OutcomeFailure,
			Message: "Payment failed",
		}
		log.Info("Payment failed", "ticks", pollResult.Ticks)
	}

	s.recordReceipt(reference, "", string(attempt.Channel), result)
	s.notifier.Settlement(reference, result)
}

// recordReceipt appends the terminal outcome to the audit log. The message
// was already delivered to the payer, so a write failure is logged, not
// propagated.
func (s *PurchaseService) recordReceipt(reference, token, channel string, result *model.ConfirmationResult) {
	record := &repository.ReceiptRecord{
		Reference: reference,
		Token:     token,
		Outcome:   string(result.Outcome),
		Channel:   channel,
		SettledAt: time.Now(),
	}
	if result.VoteDetails != nil {
		record.Nominee = result.VoteDetails.Nominee
		record.Category = result.VoteDetails.Category
		record.Award = result.VoteDetails.Award
		record.NumberOfVotes = result.VoteDetails.NumberOfVotes
	}

	if err := s.receipts.Save(record); err != nil {
		s.logger.WithReference(reference).WithError(err).Error("Failed to save settlement receipt")
		return
	}

	if count, err := s.receipts.Count(); err == nil {
		s.logger.WithReference(reference).Debug("Settlement receipt recorded", "receipt_count", count)
	}
}

// confirmByReference adapts the gateway confirm call for the poller
func (s *PurchaseService) confirmByReference(ctx context.Context, reference string) (*gateway.Confirmation, error) {
	return s.gateway.Confirm(ctx, gateway.ConfirmQuery{Reference: reference})
}
