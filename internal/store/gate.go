package store

import (
	"sync"

	"votepay-gateway/internal/model"
)

type gateEntry struct {
	result *model.ConfirmationResult // nil while the first caller is resolving
}

// TokenGate guarantees exactly one verification call per callback token
// within this process. The browser may re-invoke the callback page with the
// same token (refresh, rendering re-entrancy); the first caller performs
// the call, concurrent duplicates park until it completes, and every later
// caller replays the stored result.
type TokenGate struct {
	mu      sync.Mutex
	cond    *sync.Cond
	entries map[string]*gateEntry
}

// NewTokenGate creates an empty token gate
func NewTokenGate() *TokenGate {
	g := &TokenGate{
		entries: make(map[string]*gateEntry),
	}
	g.cond = sync.NewCond(&g.mu)
	return g
}

// Begin claims the token. When resolve is true the caller owns the single
// verification call and must finish with Complete. Otherwise the returned
// result is the one recorded by the first caller; if that caller is still
// in flight, Begin blocks until it completes.
func (g *TokenGate) Begin(token string) (result *model.ConfirmationResult, resolve bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for {
		entry, exists := g.entries[token]
		if !exists {
			g.entries[token] = &gateEntry{}
			return nil, true
		}
		if entry.result != nil {
			return entry.result, false
		}
		// Loop because spurious wakeups are a thing with condition variables
		g.cond.Wait()
	}
}

// Complete records the terminal result for the token and wakes every caller
// parked in Begin
func (g *TokenGate) Complete(token string, result *model.ConfirmationResult) {
	g.mu.Lock()
	defer g.mu.Unlock()

	entry, exists := g.entries[token]
	if !exists {
		entry = &gateEntry{}
		g.entries[token] = entry
	}
	entry.result = result
	g.cond.Broadcast()
}
