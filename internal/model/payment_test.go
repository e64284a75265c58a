package model

import "testing"

func TestFlowTransitions_HappyPaths(t *testing.T) {
	// The two legal routes to settlement: direct charge via polling and
	// checkout redirect via callback confirmation.
	pollingPath := []FlowState{FlowIdle, FlowInitiating, FlowPolling, FlowSucceeded}
	redirectPath := []FlowState{FlowIdle, FlowInitiating, FlowRedirecting, FlowConfirming, FlowFailed}

	for _, path := range [][]FlowState{pollingPath, redirectPath} {
		for i := 0; i < len(path)-1; i++ {
			if !path[i].CanTransition(path[i+1]) {
				t.Errorf("expected %s -> %s to be legal", path[i], path[i+1])
			}
		}
	}
}

func TestFlowTransitions_NothingSkipsInitiating(t *testing.T) {
	for _, next := range []FlowState{FlowRedirecting, FlowPolling, FlowConfirming, FlowSucceeded, FlowFailed} {
		if FlowIdle.CanTransition(next) {
			t.Errorf("idle must not jump straight to %s", next)
		}
	}
}

func TestFlowTransitions_TerminalStatesAreFinal(t *testing.T) {
	// Only a fresh purchase request leaves a terminal state, never a transition.
	all := []FlowState{FlowIdle, FlowInitiating, FlowRedirecting, FlowPolling, FlowConfirming, FlowSucceeded, FlowFailed}

	for _, terminal := range []FlowState{FlowSucceeded, FlowFailed} {
		for _, next := range all {
			if terminal.CanTransition(next) {
				t.Errorf("terminal state %s must not transition to %s", terminal, next)
			}
		}
	}
}

func TestFlowTransitions_FailedInitiationReturnsToIdle(t *testing.T) {
	// A failed initiate call leaves no attempt behind; the voter resubmits.
	if !FlowInitiating.CanTransition(FlowIdle) {
		t.Error("expected initiating -> idle for failed initiations")
	}
}

func TestAttemptStatus_IsTerminal(t *testing.T) {
	cases := map[AttemptStatus]bool{
		StatusInitiated:            false,
		StatusPendingAuthorization: false,
		StatusPaid:                 true,
		StatusFailed:               true,
		StatusTimedOut:             true,
	}

	for status, want := range cases {
		if got := status.IsTerminal(); got != want {
			t.Errorf("%s.IsTerminal() = %v, want %v", status, got, want)
		}
	}
}
