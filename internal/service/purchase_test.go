package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"votepay-gateway/internal/config"
	"votepay-gateway/internal/gateway"
	"votepay-gateway/internal/model"
	"votepay-gateway/internal/notify"
	"votepay-gateway/pkg/logger"
)

// fakeGateway scripts the remote platform API without a network
type fakeGateway struct {
	mu            sync.Mutex
	initiation    model.Initiation
	initErr       error
	initiateCalls int
	confirmScript []model.AttemptStatus
	confirmCalls  int
	lastQuery     gateway.ConfirmQuery
}

func (f *fakeGateway) Initiate(ctx context.Context, req *model.VotePurchaseRequest) (model.Initiation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initiateCalls++
	if f.initErr != nil {
		return model.Initiation{}, f.initErr
	}
	return f.initiation, nil
}

func (f *fakeGateway) Confirm(ctx context.Context, query gateway.ConfirmQuery) (*gateway.Confirmation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQuery = query
	idx := f.confirmCalls
	f.confirmCalls++
	if idx >= len(f.confirmScript) {
		idx = len(f.confirmScript) - 1
	}
	status := f.confirmScript[idx]
	confirmation := &gateway.Confirmation{Status: status}
	if status == model.StatusPaid {
		confirmation.Details = &model.VoteDetails{
			Nominee:       "Kofi Mensah",
			Category:      "Artist of the Year",
			Award:         "Ghana Music Awards",
			NumberOfVotes: 5,
		}
	}
	return confirmation, nil
}

func (f *fakeGateway) calls() (initiate, confirm int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.initiateCalls, f.confirmCalls
}

func newTestService(t *testing.T, gw Gateway) *PurchaseService {
	t.Helper()

	log := logger.New("ERROR")
	pollCfg := &config.PollingConfig{
		Interval: 5 * time.Millisecond,
		MaxWait:  time.Second,
	}
	receiptCfg := &config.ReceiptsConfig{
		DBPath:     filepath.Join(t.TempDir(), "receipts.db"),
		AttemptTTL: time.Hour,
	}

	s, err := NewPurchaseService(gw, pollCfg, receiptCfg, notify.New(&config.NotifyConfig{}, log), log)
	if err != nil {
		t.Fatalf("failed to build purchase service: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func mtnRequest() *model.VotePurchaseRequest {
	return &model.VotePurchaseRequest{
		NomineeID:  "42",
		Quantity:   5,
		VoterPhone: "0551234567",
		Channel:    model.ChannelMTN,
	}
}

// waitFor polls the condition until it holds or the deadline passes
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestBeginPurchase_ValidationErrorMakesNoNetworkCall(t *testing.T) {
	gw := &fakeGateway{}
	s := newTestService(t, gw)

	req := mtnRequest()
	req.Quantity = 0

	if _, err := s.BeginPurchase(context.Background(), req); err == nil {
		t.Fatal("expected a validation error")
	}

	if initiate, _ := gw.calls(); initiate != 0 {
		t.Errorf("validation must reject before any network call, saw %d", initiate)
	}
}

func TestBeginPurchase_CardNeverStartsPolling(t *testing.T) {
	gw := &fakeGateway{initiation: model.Redirect("https://pay.example/abc")}
	s := newTestService(t, gw)

	req := &model.VotePurchaseRequest{NomineeID: "42", Quantity: 5, Channel: model.ChannelCard}
	initiation, err := s.BeginPurchase(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if initiation.Kind != model.InitiationRedirect {
		t.Fatalf("expected redirect, got %s", initiation.Kind)
	}
	if initiation.CheckoutURL != "https://pay.example/abc" {
		t.Errorf("unexpected checkout url %q", initiation.CheckoutURL)
	}
	if s.ActivePolls() != 0 {
		t.Error("a redirect flow must not start a polling loop")
	}

	time.Sleep(25 * time.Millisecond)
	if _, confirm := gw.calls(); confirm != 0 {
		t.Errorf("expected zero confirm calls for a redirect flow, got %d", confirm)
	}
}

func TestBeginPurchase_MobileMoneyPollsToSettlement(t *testing.T) {
	gw := &fakeGateway{
		initiation: model.PollableCharge("ref-1"),
		confirmScript: []model.AttemptStatus{
			model.StatusPendingAuthorization,
			model.StatusPendingAuthorization,
			model.StatusPaid,
		},
	}
	s := newTestService(t, gw)

	initiation, err := s.BeginPurchase(context.Background(), mtnRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if initiation.Kind != model.InitiationPollable {
		t.Fatalf("expected pollable charge, got %s", initiation.Kind)
	}

	// The receipt is written last, so its presence means the whole
	// settlement path has run.
	waitFor(t, time.Second, func() bool {
		receipt, _ := s.Receipts().GetByReference("ref-1")
		return receipt != nil
	})

	if _, confirm := gw.calls(); confirm != 3 {
		t.Errorf("expected exactly 3 confirm calls, got %d", confirm)
	}

	attempt, ok := s.Attempt("ref-1")
	if !ok || attempt.Status != model.StatusPaid {
		t.Errorf("expected the attempt to settle as paid, got %+v", attempt)
	}

	receipt, err := s.Receipts().GetByReference("ref-1")
	if err != nil {
		t.Fatalf("receipt lookup failed: %v", err)
	}
	if receipt.Outcome != string(model.OutcomeSuccess) || receipt.NumberOfVotes != 5 {
		t.Errorf("unexpected receipt: %+v", receipt)
	}
}

func TestBeginPurchase_FailedSettlementIsTerminal(t *testing.T) {
	gw := &fakeGateway{
		initiation:    model.PollableCharge("ref-1"),
		confirmScript: []model.AttemptStatus{model.StatusFailed},
	}
	s := newTestService(t, gw)

	if _, err := s.BeginPurchase(context.Background(), mtnRequest()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	waitFor(t, time.Second, func() bool {
		receipt, _ := s.Receipts().GetByReference("ref-1")
		return receipt != nil
	})

	if _, confirm := gw.calls(); confirm != 1 {
		t.Errorf("expected exactly 1 confirm call, got %d", confirm)
	}

	attempt, ok := s.Attempt("ref-1")
	if !ok || attempt.Status != model.StatusFailed {
		t.Errorf("expected the attempt to settle as failed, got %+v", attempt)
	}

	receipt, err := s.Receipts().GetByReference("ref-1")
	if err != nil {
		t.Fatalf("receipt lookup failed: %v", err)
	}
	if receipt.Outcome != string(model.OutcomeFailure) {
		t.Errorf("expected a failure receipt, got %+v", receipt)
	}
}

func TestBeginPurchase_TransportErrorReturnsFailure(t *testing.T) {
	// The initiate call owns exactly one network attempt; retry is a fresh
	// submission by the voter, so transport problems surface as a failure
	// initiation rather than an error.
	gw := &fakeGateway{initErr: errors.New("connection refused")}
	s := newTestService(t, gw)

	initiation, err := s.BeginPurchase(context.Background(), mtnRequest())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if initiation.Kind != model.InitiationFailure {
		t.Errorf("expected failure, got %s", initiation.Kind)
	}
	if s.ActivePolls() != 0 {
		t.Error("a failed initiation must not start polling")
	}
}

func TestCancelPurchase_StopsThePollingLoop(t *testing.T) {
	gw := &fakeGateway{
		initiation:    model.PollableCharge("ref-1"),
		confirmScript: []model.AttemptStatus{model.StatusPendingAuthorization},
	}
	s := newTestService(t, gw)

	if _, err := s.BeginPurchase(context.Background(), mtnRequest()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.CancelPurchase("ref-1")

	waitFor(t, time.Second, func() bool { return s.ActivePolls() == 0 })

	// The attempt stays pending; the remote service still owns settlement.
	attempt, ok := s.Attempt("ref-1")
	if !ok {
		t.Fatal("expected the attempt to remain tracked")
	}
	if attempt.Status.IsTerminal() {
		t.Errorf("cancellation must not settle the attempt, got %s", attempt.Status)
	}
}

func TestResolveCallback_MissingTokenFailsWithoutNetworkCall(t *testing.T) {
	gw := &fakeGateway{confirmScript: []model.AttemptStatus{model.StatusPaid}}
	s := newTestService(t, gw)

	result := s.ResolveCallback(context.Background(), "")

	if result.Outcome != model.OutcomeFailure {
		t.Fatalf("expected failure, got %s", result.Outcome)
	}
	if result.Message != "Invalid payment token" {
		t.Errorf("unexpected message %q", result.Message)
	}
	if _, confirm := gw.calls(); confirm != 0 {
		t.Errorf("a missing token must make zero network calls, got %d", confirm)
	}
}

func TestResolveCallback_IsIdempotentWithinTheProcess(t *testing.T) {
	// The browser may re-invoke the callback with the same token; only the
	// first invocation may hit the confirm endpoint, and every invocation
	// must see the same terminal result.
	gw := &fakeGateway{confirmScript: []model.AttemptStatus{model.StatusPaid}}
	s := newTestService(t, gw)

	first := s.ResolveCallback(context.Background(), "tok-abc")
	second := s.ResolveCallback(context.Background(), "tok-abc")

	if first.Outcome != model.OutcomeSuccess {
		t.Fatalf("expected success, got %s", first.Outcome)
	}
	if second != first {
		t.Error("duplicate resolution must replay the recorded result")
	}
	if _, confirm := gw.calls(); confirm != 1 {
		t.Errorf("expected exactly 1 confirm call, got %d", confirm)
	}

	gw.mu.Lock()
	token := gw.lastQuery.Token
	gw.mu.Unlock()
	if token != "tok-abc" {
		t.Errorf("expected confirmation by token, got query %+v", gw.lastQuery)
	}
}

func TestResolveCallback_FailedPaymentYieldsFailureResult(t *testing.T) {
	gw := &fakeGateway{confirmScript: []model.AttemptStatus{model.StatusFailed}}
	s := newTestService(t, gw)

	result := s.ResolveCallback(context.Background(), "tok-abc")

	if result.Outcome != model.OutcomeFailure {
		t.Fatalf("expected failure, got %s", result.Outcome)
	}
	if result.VoteDetails != nil {
		t.Error("a failed payment must not carry vote details")
	}
}
