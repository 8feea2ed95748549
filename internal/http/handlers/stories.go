package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"storygen/internal/domain"
	"storygen/internal/jobs"
	"storygen/internal/middleware"
	"storygen/pkg/zip"
)

type submitStoryResponse struct {
	JobID  int64  `json:"job_id"`
	Status string `json:"status"`
}

type storyStatusResponse struct {
	JobID     int64     `json:"job_id"`
	Status    string    `json:"status"`
	Title     string    `json:"title,omitempty"`
	Body      string    `json:"body,omitempty"`
	Images    []string  `json:"images,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SubmitStory validates the request, queues a generation job and answers 202
// with the receipt the client polls on.
func (a *App) SubmitStory(w http.ResponseWriter, r *http.Request) {
	var req domain.StoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if err := req.Validate(); err != nil {
		a.error(w, http.StatusUnprocessableEntity, "invalid_request", err.Error())
		return
	}

	job := &domain.StoryJob{
		Prompt:  req.Prompt,
		Formats: req.Formats,
		Locale:  middleware.LocaleFromContext(r.Context()),
	}
	if err := a.Store.Enqueue(r.Context(), job); err != nil {
		a.Log.Error().Err(err).Msg("handlers: enqueue story failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to queue job")
		return
	}

	a.Events.Publish(jobs.Event{JobID: job.ID, Status: job.Status})
	a.Log.Info().Int64("job_id", job.ID).Str("locale", job.Locale).Msg("handlers: story queued")
	a.json(w, http.StatusAccepted, submitStoryResponse{JobID: job.ID, Status: job.Status})
}

// StoryStatus reports the current state of a job. Result fields appear only
// once the job has SUCCEEDED, so a polling client never observes a partial
// story; failed jobs carry the worker's message instead.
func (a *App) StoryStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := a.jobIDParam(w, r)
	if !ok {
		return
	}
	job, err := a.Store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "job not found")
			return
		}
		a.Log.Error().Err(err).Int64("job_id", id).Msg("handlers: load story failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load job")
		return
	}

	resp := storyStatusResponse{
		JobID:     job.ID,
		Status:    job.Status,
		CreatedAt: job.CreatedAt,
		UpdatedAt: job.UpdatedAt,
	}
	switch job.Status {
	case domain.WireStatusSucceeded:
		resp.Title = job.Title
		resp.Body = job.Body
		resp.Images = job.Images
		if resp.Images == nil {
			resp.Images = []string{}
		}
	case domain.WireStatusFailed:
		resp.Error = job.ErrorMessage
	}
	a.json(w, http.StatusOK, resp)
}

// StoryArchive streams a finished story as a zip bundle: story.json plus
// every generated image still present in the local file store. Images whose
// URLs do not resolve to a stored asset are skipped, not fatal.
func (a *App) StoryArchive(w http.ResponseWriter, r *http.Request) {
	id, ok := a.jobIDParam(w, r)
	if !ok {
		return
	}
	job, err := a.Store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "job not found")
			return
		}
		a.Log.Error().Err(err).Int64("job_id", id).Msg("handlers: load story failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load job")
		return
	}
	if job.Status != domain.WireStatusSucceeded {
		a.error(w, http.StatusConflict, "not_ready", "story is not finished")
		return
	}

	storyJSON, err := json.MarshalIndent(domain.StoryResult{
		Title:  job.Title,
		Body:   job.Body,
		Images: job.Images,
	}, "", "  ")
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to encode story")
		return
	}
	entries := []zip.Entry{{Name: "story.json", Data: storyJSON}}
	for i, imageURL := range job.Images {
		data := a.loadStoredAsset(r, imageURL)
		if len(data) == 0 {
			continue
		}
		entries = append(entries, zip.Entry{Name: fmt.Sprintf("image-%02d.png", i+1), Data: data})
	}

	archive, err := zip.Archive(entries)
	if err != nil {
		a.Log.Error().Err(err).Int64("job_id", id).Msg("handlers: build archive failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to build archive")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=story-%d.zip", job.ID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

// loadStoredAsset maps a public asset URL back to its file store key and
// reads the bytes. The runner publishes images under <base>/static/<key>, so
// the key is whatever follows the /static/ segment.
func (a *App) loadStoredAsset(r *http.Request, assetURL string) []byte {
	if a.Files == nil {
		return nil
	}
	parsed, err := url.Parse(strings.TrimSpace(assetURL))
	if err != nil {
		return nil
	}
	const marker = "/static/"
	idx := strings.Index(parsed.Path, marker)
	if idx < 0 {
		return nil
	}
	key := parsed.Path[idx+len(marker):]
	data, err := a.Files.Read(r.Context(), key)
	if err != nil {
		a.Log.Debug().Err(err).Str("key", key).Msg("handlers: archive asset unavailable")
		return nil
	}
	return data
}

func (a *App) jobIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "job_id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "job_id must be a positive integer")
		return 0, false
	}
	return id, true
}
