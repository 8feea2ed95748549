package domain

import "context"

// JobStore defines persistence for story generation jobs.
type JobStore interface {
	// Enqueue stores a new job with status QUEUED and assigns its ID.
	Enqueue(ctx context.Context, job *StoryJob) error
	// Get returns the job by ID or ErrNotFound.
	Get(ctx context.Context, id int64) (*StoryJob, error)
	// Claim atomically picks the oldest QUEUED job, flips it to RUNNING and
	// returns it. It returns ErrNotFound when nothing is queued.
	Claim(ctx context.Context) (*StoryJob, error)
	// MarkSucceeded records the finished result for a job.
	MarkSucceeded(ctx context.Context, id int64, result StoryResult) error
	// MarkFailed records a failure message for a job.
	MarkFailed(ctx context.Context, id int64, msg string) error
}
