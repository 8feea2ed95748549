package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"storygen/internal/domain"
	"storygen/internal/infra"
)

// Options configures the story service client.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *infra.Logger
	// Locale, when set, is sent as the X-Locale header so the service
	// localizes facts and story content.
	Locale         string
	RequestTimeout time.Duration
}

// Client performs HTTP calls to the story generation service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *infra.Logger
	locale     string
}

type submitRequest struct {
	Prompt  string   `json:"prompt"`
	Formats []string `json:"formats"`
}

type submitResponse struct {
	JobID  int64  `json:"job_id"`
	Status string `json:"status"`
}

type statusResponse struct {
	JobID  int64    `json:"job_id"`
	Status string   `json:"status"`
	Title  string   `json:"title,omitempty"`
	Body   string   `json:"body,omitempty"`
	Images []string `json:"images,omitempty"`
	Error  string   `json:"error,omitempty"`
}

type factsResponse struct {
	Facts []domain.Fact `json:"facts"`
}

type errorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, ErrMissingBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
		locale:     strings.TrimSpace(opts.Locale),
	}, nil
}

// BaseURL returns the configured service address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SubmitStory enqueues a generation job and returns the receipt the server
// issued for it.
func (c *Client) SubmitStory(ctx context.Context, req domain.StoryRequest) (domain.SubmitReceipt, error) {
	if err := req.Validate(); err != nil {
		return domain.SubmitReceipt{}, fmt.Errorf("api: submit story: %w", err)
	}
	payload := submitRequest{Prompt: req.Prompt, Formats: req.Formats}

	var decoded submitResponse
	if err := c.postJSON(ctx, "submit story", "/v1/stories", payload, &decoded); err != nil {
		return domain.SubmitReceipt{}, err
	}

	receipt := domain.SubmitReceipt{
		JobID:  decoded.JobID,
		Status: domain.StatusFromWire(decoded.Status),
	}
	c.logger.Debug().
		Int64("job_id", receipt.JobID).
		Str("status", string(receipt.Status)).
		Msg("api: story submitted")
	return receipt, nil
}

// StoryStatus fetches the current state of a job. For finished jobs the
// returned status carries the result, for failed ones the server's message.
func (c *Client) StoryStatus(ctx context.Context, jobID int64) (domain.StoryStatus, error) {
	var decoded statusResponse
	path := fmt.Sprintf("/v1/stories/%d", jobID)
	if err := c.getJSON(ctx, "story status", path, &decoded); err != nil {
		return domain.StoryStatus{}, err
	}

	st := domain.StoryStatus{
		Status: domain.StatusFromWire(decoded.Status),
		Error:  decoded.Error,
	}
	if st.Status == domain.JobStatusDone {
		st.Result = &domain.StoryResult{
			Title:  decoded.Title,
			Body:   decoded.Body,
			Images: decoded.Images,
		}
	}
	return st, nil
}

// StoryFacts fetches the trivia shown while a story for the given prompt is
// being generated. The list may be empty.
func (c *Client) StoryFacts(ctx context.Context, prompt string) ([]domain.Fact, error) {
	path := "/v1/facts"
	if p := strings.TrimSpace(prompt); p != "" {
		path += "?prompt=" + url.QueryEscape(p)
	}
	var decoded factsResponse
	if err := c.getJSON(ctx, "story facts", path, &decoded); err != nil {
		return nil, err
	}
	return decoded.Facts, nil
}

// Download fetches a generated asset by its absolute URL and returns the raw
// bytes together with the content type.
func (c *Client) Download(ctx context.Context, assetURL string) ([]byte, string, error) {
	parsed, err := url.Parse(strings.TrimSpace(assetURL))
	if err != nil || parsed.Scheme == "" {
		return nil, "", fmt.Errorf("api: invalid asset url: %s", assetURL)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return nil, "", fmt.Errorf("api: build download request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", &TransportError{Op: "download asset", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, "", &ServerError{StatusCode: resp.StatusCode}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", &TransportError{Op: "download asset", Err: err}
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return data, contentType, nil
}

func (c *Client) postJSON(ctx context.Context, op, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("api: %s: encode request: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("api: %s: build request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(op, req, out)
}

func (c *Client) getJSON(ctx context.Context, op, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("api: %s: build request: %w", op, err)
	}
	return c.do(op, req, out)
}

func (c *Client) do(op string, req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	if c.locale != "" {
		req.Header.Set("X-Locale", c.locale)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}

	if resp.StatusCode >= 300 {
		serr := &ServerError{StatusCode: resp.StatusCode}
		var detail errorResponse
		if err := json.Unmarshal(raw, &detail); err == nil && detail.Error != "" {
			serr.Code = detail.Code
			serr.Message = detail.Error
		} else {
			serr.Message = strings.TrimSpace(string(raw))
		}
		c.logger.Debug().Int("status", resp.StatusCode).Str("op", op).Msg("api: server rejected request")
		return serr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &DecodeError{Op: op, Err: err}
	}
	return nil
}
