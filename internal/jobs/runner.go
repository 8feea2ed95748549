package jobs

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"storygen/internal/domain"
	"storygen/internal/generator"
	"storygen/internal/infra"
	"storygen/internal/storage"

	"github.com/rs/zerolog"
)

const defaultClaimInterval = 500 * time.Millisecond

// Generator produces the synthetic story for a claimed job.
type Generator interface {
	Generate(req generator.Request) (generator.Story, error)
}

// RunnerOptions configures the in-process worker pool.
type RunnerOptions struct {
	Store domain.JobStore
	Gen   Generator
	Files *storage.FileStore

	// Events receives one entry per lifecycle transition; optional.
	Events *EventBus

	// AssetBaseURL prefixes stored image keys to form public URLs.
	AssetBaseURL string

	// Workers is the number of concurrent claim loops, minimum one.
	Workers int

	// ClaimInterval is how long an idle worker waits before looking for
	// queued work again.
	ClaimInterval time.Duration

	// GenerationDelay keeps a claimed job RUNNING for a while before it
	// finishes, so polling clients observe the in-flight status.
	GenerationDelay time.Duration

	Logger *infra.Logger
}

// Runner drains the job queue: claim, wait out the generation delay,
// synthesize, persist images, mark terminal.
type Runner struct {
	store         domain.JobStore
	gen           Generator
	files         *storage.FileStore
	events        *EventBus
	assetBase     string
	workers       int
	claimInterval time.Duration
	delay         time.Duration
	log           infra.Logger
	wg            sync.WaitGroup
}

func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Store == nil {
		return nil, errors.New("jobs: store is required")
	}
	if opts.Gen == nil {
		return nil, errors.New("jobs: generator is required")
	}
	if opts.Files == nil {
		return nil, errors.New("jobs: file store is required")
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	claimInterval := opts.ClaimInterval
	if claimInterval <= 0 {
		claimInterval = defaultClaimInterval
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	return &Runner{
		store:         opts.Store,
		gen:           opts.Gen,
		files:         opts.Files,
		events:        opts.Events,
		assetBase:     strings.TrimRight(opts.AssetBaseURL, "/"),
		workers:       workers,
		claimInterval: claimInterval,
		delay:         opts.GenerationDelay,
		log:           log,
	}, nil
}

// Start launches the worker goroutines. They run until ctx is canceled.
func (r *Runner) Start(ctx context.Context) {
	for i := 1; i <= r.workers; i++ {
		r.wg.Add(1)
		go r.worker(ctx, i)
	}
	r.log.Info().Int("workers", r.workers).Msg("jobs: runner started")
}

// Wait blocks until every worker has drained after cancellation.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) worker(ctx context.Context, id int) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			r.log.Info().Int("worker", id).Msg("jobs: worker stopped")
			return
		default:
		}

		job, err := r.store.Claim(ctx)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) && ctx.Err() == nil {
				r.log.Error().Err(err).Int("worker", id).Msg("jobs: claim failed")
			}
			r.sleep(ctx, r.claimInterval)
			continue
		}
		r.handle(ctx, job)
	}
}

func (r *Runner) handle(ctx context.Context, job *domain.StoryJob) {
	r.log.Info().Int64("job_id", job.ID).Msg("jobs: picked job")
	r.publish(job.ID, job.Status, "")

	if r.delay > 0 {
		r.sleep(ctx, r.delay)
	}
	if ctx.Err() != nil {
		// Shutdown mid-delay leaves the job RUNNING.
		return
	}

	story, err := r.gen.Generate(generator.Request{
		JobID:   job.ID,
		Prompt:  job.Prompt,
		Formats: job.Formats,
		Locale:  job.Locale,
	})
	if err != nil {
		r.fail(ctx, job.ID, err)
		return
	}

	images := make([]string, 0, len(story.Images))
	for _, img := range story.Images {
		key, err := r.files.Write(ctx, img.StorageKey, img.Data)
		if err != nil {
			r.log.Warn().Err(err).Int64("job_id", job.ID).Msg("jobs: persist image failed")
			continue
		}
		images = append(images, r.assetURL(key))
	}

	result := domain.StoryResult{Title: story.Title, Body: story.Body, Images: images}
	if err := r.store.MarkSucceeded(ctx, job.ID, result); err != nil {
		r.log.Error().Err(err).Int64("job_id", job.ID).Msg("jobs: update status failed")
		return
	}
	r.log.Info().Int64("job_id", job.ID).Int("images", len(images)).Msg("jobs: job succeeded")
	r.publish(job.ID, domain.WireStatusSucceeded, "")
}

func (r *Runner) fail(ctx context.Context, id int64, genErr error) {
	r.log.Error().Err(genErr).Int64("job_id", id).Msg("jobs: generation failed")
	if err := r.store.MarkFailed(ctx, id, genErr.Error()); err != nil {
		r.log.Error().Err(err).Int64("job_id", id).Msg("jobs: update status failed")
		return
	}
	r.publish(id, domain.WireStatusFailed, genErr.Error())
}

func (r *Runner) publish(jobID int64, status, message string) {
	if r.events == nil {
		return
	}
	r.events.Publish(Event{JobID: jobID, Status: status, Message: message})
}

func (r *Runner) assetURL(key string) string {
	if r.assetBase == "" {
		return key
	}
	return r.assetBase + "/" + key
}

func (r *Runner) sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
