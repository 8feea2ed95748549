package story

import (
	"sync"
	"time"

	"storygen/internal/domain"
)

// DefaultFactInterval is the cadence at which the displayed fact advances
// while a job is in flight.
const DefaultFactInterval = 5500 * time.Millisecond

// FactRotator owns a finite fact list and a cyclic index that advances on a
// fixed period while active. It is display-only: nothing about the job
// outcome depends on it.
type FactRotator struct {
	mu       sync.Mutex
	facts    []domain.Fact
	index    int
	active   bool
	stopCh   chan struct{}
	interval time.Duration
	onChange func()
}

// NewFactRotator creates an inactive rotator. onChange fires after every
// index advance and may be nil; it is invoked without internal locks held.
func NewFactRotator(interval time.Duration, onChange func()) *FactRotator {
	if interval <= 0 {
		interval = DefaultFactInterval
	}
	return &FactRotator{interval: interval, onChange: onChange}
}

// Start loads the facts at index zero and begins rotating. An empty list is
// a no-op. Starting while active replaces the facts and restarts the schedule.
func (r *FactRotator) Start(facts []domain.Fact) {
	if len(facts) == 0 {
		return
	}
	r.mu.Lock()
	if r.active {
		close(r.stopCh)
	}
	r.facts = append([]domain.Fact(nil), facts...)
	r.index = 0
	r.active = true
	r.stopCh = make(chan struct{})
	go r.run(r.stopCh)
	r.mu.Unlock()
}

// Stop cancels the schedule and drops the loaded facts so a later job never
// sees them. It is idempotent and safe to call on a rotator that never
// started, including while holding locks in the caller: it only signals, it
// never waits for the rotation goroutine.
func (r *FactRotator) Stop() {
	r.mu.Lock()
	if !r.active {
		r.mu.Unlock()
		return
	}
	r.active = false
	close(r.stopCh)
	r.stopCh = nil
	r.facts = nil
	r.index = 0
	r.mu.Unlock()
}

// Active reports whether the rotation schedule is running.
func (r *FactRotator) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Current returns the loaded facts and the rotation index.
func (r *FactRotator) Current() ([]domain.Fact, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.facts, r.index
}

func (r *FactRotator) run(stopCh chan struct{}) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			r.tick(stopCh)
		}
	}
}

func (r *FactRotator) tick(stopCh chan struct{}) {
	r.mu.Lock()
	// A tick racing a Stop or restart must not advance the old list.
	if !r.active || r.stopCh != stopCh {
		r.mu.Unlock()
		return
	}
	r.index = (r.index + 1) % len(r.facts)
	cb := r.onChange
	r.mu.Unlock()
	if cb != nil {
		cb()
	}
}
