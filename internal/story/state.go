package story

import "storygen/internal/domain"

// Phase enumerates the lifecycle states of one story generation job.
type Phase int

const (
	// PhaseIdle means no job has been started or the controller was reset.
	PhaseIdle Phase = iota
	// PhaseSubmitting covers the window between Start and the submit response.
	PhaseSubmitting
	// PhaseAwaitingCompletion means the job was accepted and is being polled.
	PhaseAwaitingCompletion
	// PhaseCompleting is the completion critical section: a terminal poll
	// response is being applied and Reset/Start are refused until it ends.
	PhaseCompleting
	// PhaseCompleted means the job finished and the result is available.
	PhaseCompleted
	// PhaseFailed means the job failed and Message explains why.
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSubmitting:
		return "submitting"
	case PhaseAwaitingCompletion:
		return "awaiting_completion"
	case PhaseCompleting:
		return "completing"
	case PhaseCompleted:
		return "completed"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// InFlight reports whether a job currently occupies the controller.
func (p Phase) InFlight() bool {
	return p == PhaseSubmitting || p == PhaseAwaitingCompletion || p == PhaseCompleting
}

// Terminal reports whether the phase is a final outcome.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseFailed
}

// Snapshot is the externally observable state of the controller at one point
// in time. Fields beyond Phase are populated only where they apply: JobID and
// the fact fields while a job is in flight, Result once completed, Message
// once failed. Result fields never appear partially.
type Snapshot struct {
	Phase     Phase
	JobID     int64
	Facts     []domain.Fact
	FactIndex int
	Result    *domain.StoryResult
	Message   string
}

// CurrentFact returns the fact under the rotation index, or false when no
// facts are loaded.
func (s Snapshot) CurrentFact() (domain.Fact, bool) {
	if len(s.Facts) == 0 {
		return domain.Fact{}, false
	}
	return s.Facts[s.FactIndex%len(s.Facts)], true
}
