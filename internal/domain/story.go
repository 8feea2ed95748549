package domain

import "strings"

// JobStatus is the client-side view of a generation job's lifecycle state.
type JobStatus string

const (
	JobStatusPending JobStatus = "pending"
	JobStatusDone    JobStatus = "done"
	JobStatusFailed  JobStatus = "failed"
	JobStatusUnknown JobStatus = "unknown"
)

// Wire status vocabulary reported by the story API.
const (
	WireStatusQueued    = "QUEUED"
	WireStatusRunning   = "RUNNING"
	WireStatusSucceeded = "SUCCEEDED"
	WireStatusFailed    = "FAILED"
)

// StatusFromWire maps an API status string onto the JobStatus enum. Anything
// outside the documented vocabulary maps to JobStatusUnknown.
func StatusFromWire(s string) JobStatus {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case WireStatusQueued, WireStatusRunning:
		return JobStatusPending
	case WireStatusSucceeded:
		return JobStatusDone
	case WireStatusFailed:
		return JobStatusFailed
	default:
		return JobStatusUnknown
	}
}

// StoryRequest is the immutable input to a generation job: a free-text prompt
// plus the set of requested output formats.
type StoryRequest struct {
	Prompt  string   `json:"prompt"`
	Formats []string `json:"formats"`
}

// Normalize trims the prompt and deduplicates formats preserving their order.
func (r *StoryRequest) Normalize() {
	if r == nil {
		return
	}
	r.Prompt = strings.TrimSpace(r.Prompt)
	seen := make(map[string]struct{}, len(r.Formats))
	formats := make([]string, 0, len(r.Formats))
	for _, f := range r.Formats {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		formats = append(formats, f)
	}
	r.Formats = formats
}

// Validate reports whether the request can be submitted. It normalizes first.
func (r *StoryRequest) Validate() error {
	r.Normalize()
	if r.Prompt == "" {
		return ErrInvalidPrompt
	}
	if len(r.Formats) == 0 {
		return ErrNoFormats
	}
	return nil
}

// SubmitReceipt is what a successful submit call returns: the job handle and
// the status the backend reported at enqueue time. A usable receipt has a
// positive JobID and JobStatusPending.
type SubmitReceipt struct {
	JobID  int64
	Status JobStatus
}

// StoryResult is the payload of a finished job. Images are URLs in the order
// the backend produced them. The three fields are only ever observed together.
type StoryResult struct {
	Title  string   `json:"title"`
	Body   string   `json:"body"`
	Images []string `json:"images"`
}

// StoryStatus is one poll observation: the current status plus, when the job
// is done, the result, or, when it failed, the backend's message.
type StoryStatus struct {
	Status JobStatus
	Result *StoryResult
	Error  string
}

// Fact is one piece of the cosmetic "did you know" content shown while a job
// is in flight.
type Fact struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}
