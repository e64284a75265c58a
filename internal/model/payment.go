package model

import "time"

// AttemptStatus is the settlement status of a payment attempt
type AttemptStatus string

const (
	StatusInitiated            AttemptStatus = "initiated"
	StatusPendingAuthorization AttemptStatus = "pending_authorization"
	StatusPaid                 AttemptStatus = "paid"
	StatusFailed               AttemptStatus = "failed"
	StatusTimedOut             AttemptStatus = "timed_out"
)

// IsTerminal reports whether the attempt can no longer change status
func (s AttemptStatus) IsTerminal() bool {
	switch s {
	case StatusPaid, StatusFailed, StatusTimedOut:
		return true
	default:
		return false
	}
}

// PaymentAttempt tracks a single purchase attempt. The remote service is
// the system of record; this is the in-memory view for the flow's lifetime.
type PaymentAttempt struct {
	Reference string        `json:"reference"`
	Status    AttemptStatus `json:"status"`
	Flow      FlowState     `json:"flow_state"`
	Channel   Channel       `json:"channel"`
	NomineeID string        `json:"nominee_id"`
	Quantity  int           `json:"number_of_votes"`
	CreatedAt time.Time     `json:"created_at"`
}

// InitiationKind discriminates the possible outcomes of an initiate call
type InitiationKind string

const (
	InitiationRedirect InitiationKind = "redirect"
	InitiationPollable InitiationKind = "pollable"
	InitiationFailure  InitiationKind = "failure"
)

// Initiation is the outcome of a payment initiation. Exactly one branch is
// populated: CheckoutURL for redirect flows, Reference for direct charges,
// Message for failures.
type Initiation struct {
	Kind        InitiationKind `json:"kind"`
	CheckoutURL string         `json:"checkout_url,omitempty"`
	Reference   string         `json:"reference,omitempty"`
	Message     string         `json:"message,omitempty"`
}

// Redirect builds an initiation that sends the payer to an external checkout
func Redirect(checkoutURL string) Initiation {
	return Initiation{Kind: InitiationRedirect, CheckoutURL: checkoutURL}
}

// PollableCharge builds an initiation whose settlement must be polled
func PollableCharge(reference string) Initiation {
	return Initiation{Kind: InitiationPollable, Reference: reference}
}

// InitiationFailed builds a failed initiation with a user-facing message
func InitiationFailed(message string) Initiation {
	return Initiation{Kind: InitiationFailure, Message: message}
}

// FlowState is a state of the vote payment flow
type FlowState string

const (
	FlowIdle        FlowState = "idle"
	FlowInitiating  FlowState = "initiating"
	FlowRedirecting FlowState = "redirecting"
	FlowPolling     FlowState = "polling"
	FlowConfirming  FlowState = "confirming"
	FlowSucceeded   FlowState = "succeeded"
	FlowFailed      FlowState = "failed"
)

// flowTransitions lists the legal successors of each state. Terminal states
// have none: a new purchase starts over from idle.
var flowTransitions = map[FlowState][]FlowState{
	FlowIdle:        {FlowInitiating},
	FlowInitiating:  {FlowRedirecting, FlowPolling, FlowIdle},
	FlowRedirecting: {FlowConfirming},
	FlowPolling:     {FlowSucceeded, FlowFailed},
	FlowConfirming:  {FlowSucceeded, FlowFailed},
	FlowSucceeded:   {},
	FlowFailed:      {},
}

// CanTransition reports whether moving from s to next is a legal flow step
func (s FlowState) CanTransition(next FlowState) bool {
	for _, t := range flowTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the flow has reached a final state
func (s FlowState) IsTerminal() bool {
	return s == FlowSucceeded || s == FlowFailed
}
