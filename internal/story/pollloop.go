package story

import (
	"sync"
	"sync/atomic"
	"time"
)

// DefaultPollInterval is the cadence at which job status is polled.
const DefaultPollInterval = 3 * time.Second

// PollLoop runs an action on a fixed period. Invocations never overlap: when
// the action outlasts the period, the tick that fired meanwhile is dropped
// rather than queued, so a slow backend never piles up concurrent polls.
type PollLoop struct {
	mu         sync.Mutex
	active     bool
	suppressed atomic.Bool
	stopCh     chan struct{}
}

// NewPollLoop creates an inactive loop.
func NewPollLoop() *PollLoop {
	return &PollLoop{}
}

// Start begins invoking action every period. Starting while active restarts
// the schedule with the new period and action.
func (p *PollLoop) Start(period time.Duration, action func()) {
	if period <= 0 {
		period = DefaultPollInterval
	}
	if action == nil {
		return
	}
	p.mu.Lock()
	if p.active {
		close(p.stopCh)
	}
	p.active = true
	p.suppressed.Store(false)
	p.stopCh = make(chan struct{})
	go p.run(p.stopCh, period, action)
	p.mu.Unlock()
}

// Suppress freezes tick handling without cancelling the schedule. It exists
// so the completion path can shut out further polls before it starts applying
// a terminal result, without racing a cancel against an in-flight tick.
func (p *PollLoop) Suppress() {
	p.suppressed.Store(true)
}

// Resume re-enables tick handling after Suppress.
func (p *PollLoop) Resume() {
	p.suppressed.Store(false)
}

// Stop cancels the schedule. It is idempotent, safe on a loop that never
// started, and safe to call from within the action itself: it only signals
// the loop goroutine, it never waits for it.
func (p *PollLoop) Stop() {
	p.mu.Lock()
	if !p.active {
		p.mu.Unlock()
		return
	}
	p.active = false
	close(p.stopCh)
	p.stopCh = nil
	p.mu.Unlock()
}

// Active reports whether the schedule is running.
func (p *PollLoop) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

func (p *PollLoop) run(stopCh chan struct{}, period time.Duration, action func()) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			// A stop racing a ready tick must win.
			select {
			case <-stopCh:
				return
			default:
			}
			if p.suppressed.Load() {
				continue
			}
			action()
			// Drop the tick that may have fired while action ran, so a
			// long call skips polls instead of queueing them.
			select {
			case <-ticker.C:
			default:
			}
		}
	}
}
