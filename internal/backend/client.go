// Package backend is the REST client for the analysis backend.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/dyike/manbo/internal/logger"
)

const (
	DefaultTimeout  = 30 * time.Second
	RequestIDHeader = "X-Request-ID"
)

// Client talks to the analysis backend. Requests are never retried.
type Client struct {
	http *resty.Client
	log  *logger.Logger
}

// Option configures the client
type Option func(*Client)

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.SetTimeout(d)
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) {
		c.log = logger.OrSilent(l).Component("backend")
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.http.SetHeader("User-Agent", ua)
	}
}

// New creates a client for the backend at baseURL.
func New(baseURL string, opts ...Option) *Client {
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(DefaultTimeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "manbo-cli")

	c := &Client{
		http: httpClient,
		log:  logger.NewSilent(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.http.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		if r.Header.Get(RequestIDHeader) == "" {
			r.SetHeader(RequestIDHeader, uuid.NewString())
		}
		return nil
	})
	return c
}

// BaseURL returns the configured backend root.
func (c *Client) BaseURL() string { return c.http.BaseURL }

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if _, err := c.do(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateAnalysis calls POST /analysis. The backend answers 202 with the job id.
func (c *Client) CreateAnalysis(ctx context.Context, req CreateAnalysisRequest) (*CreateAnalysisResponse, error) {
	var out CreateAnalysisResponse
	if _, err := c.do(ctx, http.MethodPost, "/analysis", req, &out); err != nil {
		return nil, err
	}
	if out.AnalysisID == "" {
		return nil, fmt.Errorf("backend POST /analysis: response missing analysis_id")
	}
	return &out, nil
}

// AnalysisStatus calls GET /analysis/{id}/status.
func (c *Client) AnalysisStatus(ctx context.Context, id string) (*StatusResponse, error) {
	var out StatusResponse
	if _, err := c.do(ctx, http.MethodGet, "/analysis/"+url.PathEscape(id)+"/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AnalysisResult calls GET /analysis/{id}. A 202 answer yields ErrResultNotReady
// together with the decoded body.
func (c *Client) AnalysisResult(ctx context.Context, id string) (*ResultResponse, error) {
	var out ResultResponse
	status, err := c.do(ctx, http.MethodGet, "/analysis/"+url.PathEscape(id), nil, &out)
	if err != nil {
		return nil, err
	}
	if status == http.StatusAccepted {
		return &out, ErrResultNotReady
	}
	return &out, nil
}

// do sends one request and decodes a 2xx JSON body into out. Non-2xx answers
// become *APIError carrying the backend's error message when present.
func (c *Client) do(ctx context.Context, method, path string, body, out any) (int, error) {
	endpoint := method + " " + path
	req := c.http.R().SetContext(ctx)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	start := time.Now()
	resp, err := req.Execute(method, path)
	if err != nil {
		c.log.Debug().Err(err).Str("endpoint", endpoint).Msg("request failed")
		return 0, fmt.Errorf("backend %s: %w", endpoint, err)
	}
	c.log.Debug().
		Str("endpoint", endpoint).
		Int("status", resp.StatusCode()).
		Dur("took", time.Since(start)).
		Str("request_id", resp.Request.Header.Get(RequestIDHeader)).
		Msg("backend call")

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		apiErr := &APIError{
			StatusCode: resp.StatusCode(),
			Endpoint:   endpoint,
			Body:       strings.TrimSpace(resp.String()),
		}
		var eb errorBody
		if json.Unmarshal(resp.Body(), &eb) == nil {
			apiErr.Message = strings.TrimSpace(eb.Error)
		}
		return resp.StatusCode(), apiErr
	}

	if out != nil {
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return resp.StatusCode(), fmt.Errorf("backend %s: decode response: %w", endpoint, err)
		}
	}
	return resp.StatusCode(), nil
}
