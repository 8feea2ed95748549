package domain

import "time"

// StoryJob is the server-side record of one generation job. Status carries the
// wire vocabulary (QUEUED, RUNNING, SUCCEEDED, FAILED) exactly as reported to
// polling clients.
type StoryJob struct {
	ID           int64
	Prompt       string
	Formats      []string
	Locale       string
	Status       string
	Title        string
	Body         string
	Images       []string
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Terminal reports whether the job has reached a final status.
func (j *StoryJob) Terminal() bool {
	return j.Status == WireStatusSucceeded || j.Status == WireStatusFailed
}
