package handlers_test

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"storygen/internal/domain"
	"storygen/internal/http/handlers"
	"storygen/internal/http/httpapi"
	"storygen/internal/jobs"
	"storygen/internal/storage"
)

type testServer struct {
	app    *handlers.App
	store  *jobs.MemoryStore
	files  *storage.FileStore
	router http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	files, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	store := jobs.NewMemoryStore()
	app := handlers.NewApp(store, nil, jobs.NewEventBus(0), files, zerolog.Nop())
	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:    zerolog.Nop(),
		StaticDir: files.BasePath(),
	})
	return &testServer{app: app, store: store, files: files, router: router}
}

func (s *testServer) do(t *testing.T, method, path string, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestSubmitStoryQueuesJob(t *testing.T) {
	srv := newTestServer(t)

	rr := srv.do(t, "POST", "/v1/stories", `{"prompt":"  dragons  ","formats":["Text Story","Text Story"]}`, map[string]string{"X-Locale": "id"})
	if rr.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202 (body %s)", rr.Code, rr.Body.String())
	}

	var resp struct {
		JobID  int64  `json:"job_id"`
		Status string `json:"status"`
	}
	decodeJSON(t, rr, &resp)
	if resp.JobID <= 0 {
		t.Fatalf("job_id = %d, want positive", resp.JobID)
	}
	if resp.Status != domain.WireStatusQueued {
		t.Fatalf("status = %q, want QUEUED", resp.Status)
	}

	job, err := srv.store.Get(context.Background(), resp.JobID)
	if err != nil {
		t.Fatalf("stored job: %v", err)
	}
	if job.Prompt != "dragons" {
		t.Fatalf("stored prompt = %q, want trimmed", job.Prompt)
	}
	if len(job.Formats) != 1 {
		t.Fatalf("stored formats = %v, want deduplicated", job.Formats)
	}
	if job.Locale != "id" {
		t.Fatalf("stored locale = %q, want id from X-Locale", job.Locale)
	}

	events := srv.app.Events.Since(0)
	if len(events) != 1 || events[0].JobID != resp.JobID {
		t.Fatalf("events = %#v, want one enqueue event", events)
	}
}

func TestSubmitStoryRejectsBadPayloads(t *testing.T) {
	srv := newTestServer(t)

	cases := []struct {
		name string
		body string
		code int
	}{
		{"malformed json", `{"prompt":`, http.StatusBadRequest},
		{"blank prompt", `{"prompt":"   ","formats":["Text Story"]}`, http.StatusUnprocessableEntity},
		{"no formats", `{"prompt":"dragons","formats":[]}`, http.StatusUnprocessableEntity},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rr := srv.do(t, "POST", "/v1/stories", c.body, nil)
			if rr.Code != c.code {
				t.Fatalf("status = %d, want %d", rr.Code, c.code)
			}
			var errResp struct {
				Code  string `json:"code"`
				Error string `json:"error"`
			}
			decodeJSON(t, rr, &errResp)
			if errResp.Error == "" {
				t.Fatalf("expected an error message")
			}
		})
	}

	if events := srv.app.Events.Since(0); len(events) != 0 {
		t.Fatalf("rejected submissions published %d events", len(events))
	}
}

func TestStoryStatusLifecycle(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	job := &domain.StoryJob{Prompt: "dragons", Formats: []string{"Text Story"}, Locale: "en"}
	if err := srv.store.Enqueue(ctx, job); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	rr := srv.do(t, "GET", fmt.Sprintf("/v1/stories/%d", job.ID), "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var queued struct {
		Status string  `json:"status"`
		Title  *string `json:"title"`
	}
	decodeJSON(t, rr, &queued)
	if queued.Status != domain.WireStatusQueued {
		t.Fatalf("status = %q, want QUEUED", queued.Status)
	}
	if queued.Title != nil {
		t.Fatalf("queued job exposes a title, result fields must appear only when done")
	}

	result := domain.StoryResult{Title: "The Dragon", Body: "Once.", Images: []string{"http://x/static/stories/1/a.png"}}
	if err := srv.store.MarkSucceeded(ctx, job.ID, result); err != nil {
		t.Fatalf("mark succeeded: %v", err)
	}

	rr = srv.do(t, "GET", fmt.Sprintf("/v1/stories/%d", job.ID), "", nil)
	var done struct {
		Status string   `json:"status"`
		Title  string   `json:"title"`
		Body   string   `json:"body"`
		Images []string `json:"images"`
	}
	decodeJSON(t, rr, &done)
	if done.Status != domain.WireStatusSucceeded || done.Title != "The Dragon" || len(done.Images) != 1 {
		t.Fatalf("done response = %#v, want full result", done)
	}
}

func TestStoryStatusFailedCarriesMessage(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	job := &domain.StoryJob{Prompt: "p", Formats: []string{"f"}}
	if err := srv.store.Enqueue(ctx, job); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := srv.store.MarkFailed(ctx, job.ID, "synthesis exploded"); err != nil {
		t.Fatalf("mark failed: %v", err)
	}

	rr := srv.do(t, "GET", fmt.Sprintf("/v1/stories/%d", job.ID), "", nil)
	var resp struct {
		Status string `json:"status"`
		Error  string `json:"error"`
	}
	decodeJSON(t, rr, &resp)
	if resp.Status != domain.WireStatusFailed {
		t.Fatalf("status = %q, want FAILED", resp.Status)
	}
	if resp.Error != "synthesis exploded" {
		t.Fatalf("error = %q, want the worker message", resp.Error)
	}
}

func TestStoryStatusUnknownAndBadIDs(t *testing.T) {
	srv := newTestServer(t)

	rr := srv.do(t, "GET", "/v1/stories/999", "", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown id status = %d, want 404", rr.Code)
	}
	rr = srv.do(t, "GET", "/v1/stories/abc", "", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("non-numeric id status = %d, want 400", rr.Code)
	}
	rr = srv.do(t, "GET", "/v1/stories/-4", "", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("negative id status = %d, want 400", rr.Code)
	}
}

func TestStoryArchiveBundlesStoryAndAssets(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	job := &domain.StoryJob{Prompt: "dragons", Formats: []string{"Comic Book"}}
	if err := srv.store.Enqueue(ctx, job); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	key := fmt.Sprintf("stories/%d/feedc0de-01.png", job.ID)
	if _, err := srv.files.Write(ctx, key, []byte("png-bytes")); err != nil {
		t.Fatalf("write asset: %v", err)
	}
	result := domain.StoryResult{
		Title: "The Dragon",
		Body:  "Once.",
		Images: []string{
			"http://localhost:8080/static/" + key,
			"http://elsewhere.example/not-local.png",
		},
	}
	if err := srv.store.MarkSucceeded(ctx, job.ID, result); err != nil {
		t.Fatalf("mark succeeded: %v", err)
	}

	rr := srv.do(t, "GET", fmt.Sprintf("/v1/stories/%d/archive", job.ID), "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/zip" {
		t.Fatalf("content type = %q, want application/zip", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, fmt.Sprintf("story-%d.zip", job.ID)) {
		t.Fatalf("content disposition = %q", cd)
	}

	raw := rr.Body.Bytes()
	reader, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	names := make([]string, 0, len(reader.File))
	for _, f := range reader.File {
		names = append(names, f.Name)
	}
	// story.json plus the one locally stored image; the foreign URL is skipped.
	if len(names) != 2 || names[0] != "story.json" {
		t.Fatalf("archive entries = %v", names)
	}
}

func TestStoryArchiveRefusesUnfinishedJob(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	job := &domain.StoryJob{Prompt: "p", Formats: []string{"f"}}
	if err := srv.store.Enqueue(ctx, job); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	rr := srv.do(t, "GET", fmt.Sprintf("/v1/stories/%d/archive", job.ID), "", nil)
	if rr.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rr.Code)
	}

	rr = srv.do(t, "GET", "/v1/stories/999/archive", "", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown job status = %d, want 404", rr.Code)
	}
}

func TestHealthReportsStoreKind(t *testing.T) {
	srv := newTestServer(t)
	srv.app.StoreKind = "postgres"

	rr := srv.do(t, "GET", "/v1/healthz", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var resp map[string]string
	decodeJSON(t, rr, &resp)
	if resp["status"] != "ok" || resp["store"] != "postgres" {
		t.Fatalf("health = %v", resp)
	}
}
