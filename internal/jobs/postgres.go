package jobs

import (
	"context"
	"fmt"

	"storygen/internal/domain"
	"storygen/internal/infra"
	"storygen/internal/sqlinline"

	"github.com/jackc/pgx/v5"
)

// PostgresStore persists jobs through the marker-tagged SQL runner. It is
// selected when DATABASE_URL is configured and shares its schema with nobody:
// Bootstrap creates the story_jobs table on startup.
type PostgresStore struct {
	runner infra.SQLExecutor
}

func NewPostgresStore(runner infra.SQLExecutor) *PostgresStore {
	return &PostgresStore{runner: runner}
}

// Bootstrap creates the backing table and index if they do not exist yet.
func (s *PostgresStore) Bootstrap(ctx context.Context) error {
	if _, err := s.runner.Exec(ctx, sqlinline.QCreateStoryJobsTable); err != nil {
		return fmt.Errorf("jobs: create table: %w", err)
	}
	if _, err := s.runner.Exec(ctx, sqlinline.QCreateStoryJobsStatusIndex); err != nil {
		return fmt.Errorf("jobs: create index: %w", err)
	}
	return nil
}

func (s *PostgresStore) Enqueue(ctx context.Context, job *domain.StoryJob) error {
	row := s.runner.QueryRow(ctx, sqlinline.QEnqueueStoryJob, job.Prompt, job.Formats, job.Locale)
	if err := row.Scan(&job.ID, &job.CreatedAt, &job.UpdatedAt); err != nil {
		return fmt.Errorf("jobs: enqueue: %w", err)
	}
	job.Status = domain.WireStatusQueued
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id int64) (*domain.StoryJob, error) {
	job, err := scanJob(s.runner.QueryRow(ctx, sqlinline.QGetStoryJob, id))
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("jobs: get: %w", err)
	}
	return job, nil
}

func (s *PostgresStore) Claim(ctx context.Context) (*domain.StoryJob, error) {
	job, err := scanJob(s.runner.QueryRow(ctx, sqlinline.QClaimStoryJob))
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("jobs: claim: %w", err)
	}
	return job, nil
}

func (s *PostgresStore) MarkSucceeded(ctx context.Context, id int64, result domain.StoryResult) error {
	images := result.Images
	if images == nil {
		images = []string{}
	}
	tag, err := s.runner.Exec(ctx, sqlinline.QMarkStoryJobSucceeded, id, result.Title, result.Body, images)
	if err != nil {
		return fmt.Errorf("jobs: mark succeeded: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) MarkFailed(ctx context.Context, id int64, msg string) error {
	tag, err := s.runner.Exec(ctx, sqlinline.QMarkStoryJobFailed, id, msg)
	if err != nil {
		return fmt.Errorf("jobs: mark failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanJob(row pgx.Row) (*domain.StoryJob, error) {
	var job domain.StoryJob
	err := row.Scan(
		&job.ID,
		&job.Prompt,
		&job.Formats,
		&job.Locale,
		&job.Status,
		&job.Title,
		&job.Body,
		&job.Images,
		&job.ErrorMessage,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &job, nil
}

var _ domain.JobStore = (*PostgresStore)(nil)
