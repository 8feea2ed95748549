package story

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"storygen/internal/domain"
	"storygen/internal/infra"
)

// JobClient performs the remote operations the controller orchestrates. It is
// pure request/response; *api.Client satisfies it.
type JobClient interface {
	SubmitStory(ctx context.Context, req domain.StoryRequest) (domain.SubmitReceipt, error)
	StoryStatus(ctx context.Context, jobID int64) (domain.StoryStatus, error)
	StoryFacts(ctx context.Context, prompt string) ([]domain.Fact, error)
}

// Options configures a Controller.
type Options struct {
	Client       JobClient
	PollInterval time.Duration
	FactInterval time.Duration
	// Observer is invoked exactly once per successful job, after both
	// background loops stopped and before the controller leaves the
	// completion critical section. It should return promptly: while it
	// runs, Reset and Start are refused. The controller ignores whatever
	// it does.
	Observer func(domain.StoryResult)
	// OnChange receives every externally visible state change. It may be
	// invoked from multiple goroutines and must be safe for concurrent use.
	OnChange func(Snapshot)
	Logger   *infra.Logger
}

// Controller drives at most one story generation job at a time through
// submit, poll and completion. All state mutation is serialized under one
// mutex; network calls run outside it, and every response is checked against
// the current generation and job id before it is applied, so responses that
// outlive a Reset or a finished job are dropped.
type Controller struct {
	client   JobClient
	observer func(domain.StoryResult)
	onChange func(Snapshot)
	logger   *infra.Logger

	pollInterval time.Duration
	factInterval time.Duration

	poll    *PollLoop
	rotator *FactRotator

	mu           sync.Mutex
	phase        Phase
	gen          uint64
	jobID        int64
	pendingFacts []domain.Fact
	result       *domain.StoryResult
	message      string
	cancel       context.CancelFunc
}

// NewController constructs an idle controller.
func NewController(opts Options) (*Controller, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("story: job client is required")
	}
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	factInterval := opts.FactInterval
	if factInterval <= 0 {
		factInterval = DefaultFactInterval
	}
	logger := opts.Logger
	if logger == nil {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}

	c := &Controller{
		client:       opts.Client,
		observer:     opts.Observer,
		onChange:     opts.OnChange,
		logger:       logger,
		pollInterval: pollInterval,
		factInterval: factInterval,
		phase:        PhaseIdle,
	}
	c.poll = NewPollLoop()
	c.rotator = NewFactRotator(factInterval, c.notifyChange)
	return c, nil
}

// Start submits a new generation job. It returns domain.ErrJobInFlight when a
// job already occupies the controller, leaving it untouched, and a validation
// error for an unusable request. The submit and fact-fetch calls proceed in
// the background after Start returns.
func (c *Controller) Start(ctx context.Context, req domain.StoryRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	if c.phase.InFlight() {
		c.mu.Unlock()
		return domain.ErrJobInFlight
	}
	c.gen++
	gen := c.gen
	c.phase = PhaseSubmitting
	c.jobID = 0
	c.result = nil
	c.message = ""
	c.pendingFacts = nil
	jobCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	c.logger.Info().Uint64("generation", gen).Msg("story: starting job")
	c.notifyChange()

	go c.fetchFacts(jobCtx, gen, req.Prompt)
	go c.submit(jobCtx, gen, req)
	return nil
}

// Reset returns the controller to idle, stopping both background schedules
// before it returns. While a completion is being applied it refuses with
// domain.ErrBusy instead of queueing; callers retry after the terminal state
// lands. Resetting an idle controller is a no-op.
func (c *Controller) Reset() error {
	c.mu.Lock()
	if c.phase == PhaseCompleting {
		c.mu.Unlock()
		return domain.ErrBusy
	}
	if c.phase == PhaseIdle {
		c.mu.Unlock()
		return nil
	}
	c.gen++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.poll.Stop()
	c.rotator.Stop()
	c.phase = PhaseIdle
	c.jobID = 0
	c.result = nil
	c.message = ""
	c.pendingFacts = nil
	c.mu.Unlock()

	c.logger.Debug().Msg("story: controller reset")
	c.notifyChange()
	return nil
}

// State returns the externally observable state.
func (c *Controller) State() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{Phase: c.phase, Message: c.message}
	switch c.phase {
	case PhaseAwaitingCompletion:
		snap.JobID = c.jobID
		facts, idx := c.rotator.Current()
		if len(facts) > 0 {
			snap.Facts = append([]domain.Fact(nil), facts...)
			snap.FactIndex = idx
		}
	case PhaseCompleted:
		if c.result != nil {
			r := *c.result
			r.Images = append([]string(nil), c.result.Images...)
			snap.Result = &r
		}
	}
	return snap
}

func (c *Controller) submit(ctx context.Context, gen uint64, req domain.StoryRequest) {
	receipt, err := c.client.SubmitStory(ctx, req)

	c.mu.Lock()
	if c.gen != gen || c.phase != PhaseSubmitting {
		c.mu.Unlock()
		return
	}
	if err != nil {
		c.failLocked(err.Error())
		c.mu.Unlock()
		c.notifyChange()
		return
	}
	if receipt.Status != domain.JobStatusPending || receipt.JobID <= 0 {
		c.failLocked(fmt.Sprintf("%s: id=%d, status=%s", domain.ErrInvalidJob, receipt.JobID, receipt.Status))
		c.mu.Unlock()
		c.notifyChange()
		return
	}

	jobID := receipt.JobID
	c.jobID = jobID
	c.phase = PhaseAwaitingCompletion
	if len(c.pendingFacts) > 0 {
		c.rotator.Start(c.pendingFacts)
		c.pendingFacts = nil
	}
	c.poll.Start(c.pollInterval, func() { c.pollOnce(ctx, gen, jobID) })
	c.mu.Unlock()

	c.logger.Info().Int64("job_id", jobID).Msg("story: job accepted, awaiting completion")
	c.notifyChange()
}

func (c *Controller) fetchFacts(ctx context.Context, gen uint64, prompt string) {
	facts, err := c.client.StoryFacts(ctx, prompt)
	if err != nil {
		// Cosmetic content never blocks or fails the job.
		c.logger.Debug().Err(err).Msg("story: fact fetch failed, continuing without facts")
		return
	}
	if len(facts) == 0 {
		return
	}

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return
	}
	visible := false
	switch c.phase {
	case PhaseSubmitting:
		// The job is not accepted yet; rotation begins once it is.
		c.pendingFacts = facts
	case PhaseAwaitingCompletion:
		c.rotator.Start(facts)
		visible = true
	default:
		// The job already finished or was reset.
	}
	c.mu.Unlock()

	if visible {
		c.notifyChange()
	}
}

func (c *Controller) pollOnce(ctx context.Context, gen uint64, jobID int64) {
	c.mu.Lock()
	if c.gen != gen || c.phase != PhaseAwaitingCompletion || c.jobID != jobID {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	st, err := c.client.StoryStatus(ctx, jobID)

	c.mu.Lock()
	if c.gen != gen || c.phase != PhaseAwaitingCompletion || c.jobID != jobID {
		c.mu.Unlock()
		return
	}
	if err != nil {
		c.failLocked(err.Error())
		c.mu.Unlock()
		c.notifyChange()
		return
	}

	switch st.Status {
	case domain.JobStatusPending:
		c.mu.Unlock()
	case domain.JobStatusDone:
		c.complete(gen, jobID, st.Result)
	case domain.JobStatusFailed:
		msg := st.Error
		if msg == "" {
			msg = "story generation failed"
		}
		c.failLocked(msg)
		c.mu.Unlock()
		c.notifyChange()
	default:
		c.failLocked("job reported an unrecognized status")
		c.mu.Unlock()
		c.notifyChange()
	}
}

// complete applies a terminal done status. It is entered with c.mu held and
// releases it around the observer call. Polling is frozen before anything
// else so no tick dispatched in parallel can observe AwaitingCompletion
// again, then PhaseCompleting shuts out Reset and Start until the observer
// has returned.
func (c *Controller) complete(gen uint64, jobID int64, res *domain.StoryResult) {
	c.poll.Suppress()
	c.phase = PhaseCompleting
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	result := domain.StoryResult{}
	if res != nil {
		result = *res
	}
	c.mu.Unlock()
	c.notifyChange()

	c.poll.Stop()
	c.rotator.Stop()
	if c.observer != nil {
		c.observer(result)
	}

	c.mu.Lock()
	c.phase = PhaseCompleted
	c.result = &result
	c.jobID = 0
	c.mu.Unlock()

	c.logger.Info().Uint64("generation", gen).Int64("job_id", jobID).Str("title", result.Title).Msg("story: job completed")
	c.notifyChange()
}

// failLocked records a terminal failure. Callers hold c.mu and have already
// validated generation and phase.
func (c *Controller) failLocked(msg string) {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.poll.Stop()
	c.rotator.Stop()
	c.phase = PhaseFailed
	c.jobID = 0
	c.result = nil
	c.message = msg
	c.logger.Warn().Str("reason", msg).Msg("story: job failed")
}

func (c *Controller) notifyChange() {
	if c.onChange == nil {
		return
	}
	c.onChange(c.State())
}
