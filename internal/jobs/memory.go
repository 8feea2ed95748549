package jobs

import (
	"context"
	"sync"
	"time"

	"storygen/internal/domain"
)

// MemoryStore keeps jobs in process memory. It is the default store for the
// dev server when DATABASE_URL is not set; contents vanish on restart.
type MemoryStore struct {
	mu     sync.Mutex
	nextID int64
	jobs   map[int64]*domain.StoryJob
	queue  []int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[int64]*domain.StoryJob)}
}

func (s *MemoryStore) Enqueue(ctx context.Context, job *domain.StoryJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	now := time.Now().UTC()
	job.ID = s.nextID
	job.Status = domain.WireStatusQueued
	job.CreatedAt = now
	job.UpdatedAt = now

	s.jobs[job.ID] = cloneJob(job)
	s.queue = append(s.queue, job.ID)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id int64) (*domain.StoryJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneJob(job), nil
}

func (s *MemoryStore) Claim(ctx context.Context) (*domain.StoryJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for len(s.queue) > 0 {
		id := s.queue[0]
		job, ok := s.jobs[id]
		if !ok || job.Status != domain.WireStatusQueued {
			s.queue = s.queue[1:]
			continue
		}
		s.queue = s.queue[1:]
		job.Status = domain.WireStatusRunning
		job.UpdatedAt = time.Now().UTC()
		return cloneJob(job), nil
	}
	return nil, domain.ErrNotFound
}

func (s *MemoryStore) MarkSucceeded(ctx context.Context, id int64, result domain.StoryResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return domain.ErrNotFound
	}
	job.Status = domain.WireStatusSucceeded
	job.Title = result.Title
	job.Body = result.Body
	job.Images = append([]string(nil), result.Images...)
	job.ErrorMessage = ""
	job.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryStore) MarkFailed(ctx context.Context, id int64, msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return domain.ErrNotFound
	}
	job.Status = domain.WireStatusFailed
	job.ErrorMessage = msg
	job.UpdatedAt = time.Now().UTC()
	return nil
}

// cloneJob copies a job so callers never alias store-owned slices.
func cloneJob(j *domain.StoryJob) *domain.StoryJob {
	c := *j
	c.Formats = append([]string(nil), j.Formats...)
	c.Images = append([]string(nil), j.Images...)
	return &c
}

var _ domain.JobStore = (*MemoryStore)(nil)
