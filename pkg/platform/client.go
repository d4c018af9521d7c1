// Package platform is the single choke point for calls to the social
// platform. Every call is budget-gated and every response is inspected for
// verification challenges.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/UhthredB/tsaheylu-sub000/pkg/audit"
	"github.com/UhthredB/tsaheylu-sub000/pkg/budget"
	"github.com/UhthredB/tsaheylu-sub000/pkg/challenge"
	"github.com/UhthredB/tsaheylu-sub000/pkg/metrics"
)

const (
	DefaultBaseURL    = "https://www.moltbook.com/api/v1"
	DefaultVerifyPath = "/agents/verify"
	DefaultTimeout    = 30 * time.Second

	// defaultRetryAfter applies when a 429 carries no usable hint.
	defaultRetryAfter = 60 * time.Second
	maxResponseBody   = 4 << 20
)

// Config holds the connection settings for one agent identity.
type Config struct {
	BaseURL      string
	APIKey       string
	AgentName    string
	PlatformName string
	VerifyPath   string
	Timeout      time.Duration
}

// Response is a successful platform response.
type Response struct {
	StatusCode int
	Body       []byte
	// Data is the decoded JSON body, nil when the body was empty.
	Data interface{}
}

// Decode unmarshals the raw body into v.
func (r *Response) Decode(v interface{}) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	return json.Unmarshal(r.Body, v)
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithSolver sets the challenge solver.
func WithSolver(s *challenge.Solver) Option {
	return func(c *Client) { c.solver = s }
}

// WithDetector sets the challenge detector.
func WithDetector(d *challenge.Detector) Option {
	return func(c *Client) { c.detector = d }
}

// WithRecorder sets the audit recorder.
func WithRecorder(r audit.Recorder) Option {
	return func(c *Client) { c.audit = r }
}

// Client talks to the platform on behalf of exactly one agent identity and
// owns that identity's Budget.
type Client struct {
	cfg      Config
	http     *http.Client
	budget   *budget.Budget
	detector *challenge.Detector
	solver   *challenge.Solver
	audit    audit.Recorder
}

// New creates a Client.
func New(cfg Config, b *budget.Budget, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.VerifyPath == "" {
		cfg.VerifyPath = DefaultVerifyPath
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	c := &Client{
		cfg:      cfg,
		http:     &http.Client{Timeout: cfg.Timeout},
		budget:   b,
		detector: challenge.NewDetector(challenge.DefaultFields()),
		solver:   challenge.NewSolver(cfg.AgentName, cfg.PlatformName, nil),
		audit:    audit.Nop{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Budget returns the budget owned by this client.
func (c *Client) Budget() *budget.Budget {
	return c.budget
}

// AgentName returns the identity this client acts for.
func (c *Client) AgentName() string {
	return c.cfg.AgentName
}

// Suspended reports whether the account is suspended and for how much longer.
func (c *Client) Suspended(ctx context.Context) (bool, time.Duration) {
	return c.budget.Suspended(ctx)
}

type rawResponse struct {
	status int
	header http.Header
	body   []byte
}

// Request performs one budget-gated call. It fails fast with
// *budget.SuspendedError or *budget.RateLimitedError without touching the
// network, returns *budget.RateLimitedError on 429, *budget.SuspendedError on
// a suspension notice and *APIError on any other non-2xx. Challenges found in
// any response body are solved and submitted before Request returns.
func (c *Client) Request(ctx context.Context, method, path string, body interface{}) (*Response, error) {
	if err := c.budget.CheckRequest(ctx); err != nil {
		if errors.Is(err, budget.ErrRateLimited) {
			metrics.RateLimitedTotal.WithLabelValues("local").Inc()
		}
		return nil, err
	}

	raw, err := c.send(ctx, method, c.resolve(path), body)
	if err != nil {
		return nil, err
	}

	switch {
	case raw.status == http.StatusTooManyRequests:
		return nil, c.rateLimited(ctx, path, raw)

	case raw.status == http.StatusUnauthorized || raw.status == http.StatusForbidden:
		if budget.IsSuspensionText(string(raw.body)) {
			return nil, c.suspend(ctx, raw.body)
		}
		c.inspect(ctx, decodeLoose(raw.body))
		return nil, newAPIError(raw.status, raw.body)

	case raw.status < 200 || raw.status >= 300:
		c.inspect(ctx, decodeLoose(raw.body))
		return nil, newAPIError(raw.status, raw.body)
	}

	resp := &Response{StatusCode: raw.status, Body: raw.body}
	if len(bytes.TrimSpace(raw.body)) > 0 {
		if err := json.Unmarshal(raw.body, &resp.Data); err != nil {
			return nil, fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
		}
	}
	c.inspect(ctx, resp.Data)

	return resp, nil
}

// send performs the HTTP exchange. The call is counted against the window as
// soon as it is handed to the transport, whatever the outcome.
func (c *Client) send(ctx context.Context, method, url string, body interface{}) (*rawResponse, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.budget.RecordRequest()
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveRequest(method, 0)
		return nil, fmt.Errorf("%s %s failed: %w", method, url, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	metrics.ObserveRequest(method, resp.StatusCode)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	logrus.Debugf("%s %s -> %d in %v", method, url, resp.StatusCode, time.Since(start))

	return &rawResponse{status: resp.StatusCode, header: resp.Header, body: data}, nil
}

func (c *Client) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.cfg.BaseURL + path
}

func (c *Client) rateLimited(ctx context.Context, path string, raw *rawResponse) error {
	wait := RetryAfter(raw.body, raw.header)
	c.budget.NoteRetryAfter(wait)

	metrics.RateLimitedTotal.WithLabelValues("platform").Inc()
	c.audit.Record(ctx, audit.Event{Type: audit.RateLimited, StatusCode: raw.status, RetryAfter: wait, Source: path})
	logrus.Warnf("platform rate limit on %s, retry after %v", path, wait)

	return &budget.RateLimitedError{RetryAfter: wait}
}

func (c *Client) suspend(ctx context.Context, body []byte) error {
	reason := errorMessage(body)
	d := budget.ParseSuspensionDuration(string(body), 0)

	suspended, err := c.budget.Suspend(ctx, d, reason)
	if err != nil {
		logrus.Errorf("failed to persist suspension: %v", err)
	}

	metrics.SuspensionsTotal.Inc()
	metrics.SetSuspended(true)
	c.audit.Record(ctx, audit.Event{Type: audit.SuspensionEntered, ResumeAt: suspended.ResumeAt, Detail: reason})

	return suspended
}

// RetryAfter reads the wait hint of a 429 response: retry_after_minutes,
// retry_after_seconds or retry_after in the body, then the Retry-After header.
func RetryAfter(body []byte, header http.Header) time.Duration {
	var hint struct {
		Minutes *float64 `json:"retry_after_minutes"`
		Seconds *float64 `json:"retry_after_seconds"`
		Generic *float64 `json:"retry_after"`
	}
	if err := json.Unmarshal(body, &hint); err == nil {
		switch {
		case hint.Minutes != nil && *hint.Minutes > 0:
			return time.Duration(*hint.Minutes * float64(time.Minute))
		case hint.Seconds != nil && *hint.Seconds > 0:
			return time.Duration(*hint.Seconds * float64(time.Second))
		case hint.Generic != nil && *hint.Generic > 0:
			return time.Duration(*hint.Generic * float64(time.Second))
		}
	}

	if v := strings.TrimSpace(header.Get("Retry-After")); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
		if at, err := http.ParseTime(v); err == nil {
			if d := time.Until(at); d > 0 {
				return d
			}
		}
	}

	return defaultRetryAfter
}

// errorMessage pulls a readable message out of an error body.
func errorMessage(body []byte) string {
	var msg struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Hint    string `json:"hint"`
	}
	if err := json.Unmarshal(body, &msg); err == nil {
		parts := make([]string, 0, 3)
		for _, p := range []string{msg.Error, msg.Message, msg.Hint} {
			if p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, ": ")
		}
	}
	text := strings.TrimSpace(string(body))
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody]
	}
	return text
}

// decodeLoose decodes an error body for challenge scanning; non-JSON yields nil.
func decodeLoose(body []byte) interface{} {
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return nil
	}
	return v
}
