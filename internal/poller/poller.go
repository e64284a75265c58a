package poller

import (
	"context"
	"sync"
	"time"

	"votepay-gateway/internal/config"
	"votepay-gateway/internal/gateway"
	"votepay-gateway/internal/model"
	"votepay-gateway/pkg/logger"
)

// ConfirmFunc checks whether the attempt behind reference has settled
type ConfirmFunc func(ctx context.Context, reference string) (*gateway.Confirmation, error)

// Result is the outcome of a polling loop. Status is one of paid, failed or
// timed_out unless Cancelled is set, in which case the loop was torn down
// before settlement was observed and the result must be discarded.
type Result struct {
	Status    model.AttemptStatus
	Details   *model.VoteDetails
	Ticks     int
	Cancelled bool
}

type loop struct {
	cancel context.CancelFunc
}

// Poller drives settlement confirmation for direct-charge payments. Ticks
// are chained: the next one is scheduled only after the current response is
// processed, so a slow confirm call can never overlap the next tick.
type Poller struct {
	confirm  ConfirmFunc
	interval time.Duration
	maxWait  time.Duration
	logger   *logger.Logger

	mu     sync.Mutex
	active map[string]*loop
}

// New creates a poller with the configured tick interval and wait bound
func New(confirm ConfirmFunc, cfg *config.PollingConfig, log *logger.Logger) *Poller {
	return &Poller{
		confirm:  confirm,
		interval: cfg.Interval,
		maxWait:  cfg.MaxWait,
		logger:   log,
		active:   make(map[string]*loop),
	}
}

// Run polls until a terminal state, the wait bound, or cancellation. The
// first tick fires one interval after the call, so cancelling early means
// no verification call is ever made.
func (p *Poller) Run(ctx context.Context, reference string) Result {
	deadline := time.Now().Add(p.maxWait)
	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	ticks := 0
	for {
		select {
		case <-ctx.Done():
			return Result{Status: model.StatusPendingAuthorization, Ticks: ticks, Cancelled: true}
		case <-timer.C:
		}
		// The timer and cancellation can fire together; cancellation wins
		if ctx.Err() != nil {
			return Result{Status: model.StatusPendingAuthorization, Ticks: ticks, Cancelled: true}
		}

		if time.Now().After(deadline) {
			p.logger.WithReference(reference).Warn("Settlement polling exceeded wait bound",
				"ticks", ticks,
				"max_wait", p.maxWait.String(),
			)
			return Result{Status: model.StatusTimedOut, Ticks: ticks}
		}

		ticks++
		confirmation, err := p.confirm(ctx, reference)
		if err != nil {
			// A transient verification error must not fail an otherwise
			// succeeding payment; the tick counts as still pending.
			if ctx.Err() != nil {
				return Result{Status: model.StatusPendingAuthorization, Ticks: ticks, Cancelled: true}
			}
			p.logger.WithReference(reference).WithError(err).Warn("Settlement check failed, will retry",
				"tick", ticks,
			)
		} else {
			// A response that arrives after cancellation is a stale tick
			// and must not be acted on.
			if ctx.Err() != nil {
				return Result{Status: model.StatusPendingAuthorization, Ticks: ticks, Cancelled: true}
			}
			switch confirmation.Status {
			case model.StatusPaid:
				return Result{Status: model.StatusPaid, Details: confirmation.Details, Ticks: ticks}
			case model.StatusFailed:
				return Result{Status: model.StatusFailed, Ticks: ticks}
			}
		}

		timer.Reset(p.interval)
	}
}

// Start launches a polling loop for reference in its own goroutine and
// reports the terminal result through done. At most one loop runs per
// reference; an existing loop for the same reference is cancelled first.
// Cancelled loops never invoke done.
func (p *Poller) Start(reference string, done func(Result)) {
	ctx, cancel := context.WithCancel(context.Background())
	l := &loop{cancel: cancel}

	p.mu.Lock()
	if prev, ok := p.active[reference]; ok {
		prev.cancel()
	}
	p.active[reference] = l
	p.mu.Unlock()

	go func() {
		result := p.Run(ctx, reference)

		p.mu.Lock()
		if p.active[reference] == l {
			delete(p.active, reference)
		}
		p.mu.Unlock()

		if !result.Cancelled {
			done(result)
		}
	}()
}

// Cancel stops an active loop for reference, if any
func (p *Poller) Cancel(reference string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if l, ok := p.active[reference]; ok {
		l.cancel()
		delete(p.active, reference)
	}
}

// CancelAll stops every active loop; used on shutdown
func (p *Poller) CancelAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for reference, l := range p.active {
		l.cancel()
		delete(p.active, reference)
	}
}

// ActiveCount returns the number of polling loops currently running
func (p *Poller) ActiveCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.active)
}
