package reportapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// API defines the report service operations used by the UI and the headless
// watcher. It is implemented by *Client and can be faked in tests.
type API interface {
	ListServers(ctx context.Context) ([]Server, error)
	ListLogs(ctx context.Context, server string) ([]LogEntry, error)
	ListReports(ctx context.Context, server string) ([]ReportEntry, error)
	StartJob(ctx context.Context, server, logName string) (string, error)
	PollJob(ctx context.Context, server, report string) (JobStatus, error)
	StopJob(ctx context.Context, server, report string) error
	ReportURL(server, report string) string
}

// Ensure Client implements API at compile time.
var _ API = (*Client)(nil)

// Client talks to the report service HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	timeout   time.Duration
	userAgent string
}

const (
	DefaultBaseURL   = "http://127.0.0.1:8080"
	defaultUserAgent = "logdeck/0.1"
	requestTimeout   = 5 * time.Second
	maxErrorBody     = 4 << 10
)

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. hc itself is never
// modified.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds every request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewClient builds a Client for the service at baseURL (scheme optional).
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL:   base,
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	switch {
	case c.http == nil:
		timeout := c.timeout
		if timeout == 0 {
			timeout = requestTimeout
		}
		c.http = &http.Client{Timeout: timeout}
	case c.timeout > 0:
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}
	return c, nil
}

// BaseURL returns the normalized service URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// ListServers retrieves the servers known to the service.
func (c *Client) ListServers(ctx context.Context) ([]Server, error) {
	var payload []Server
	if err := c.do(ctx, "list servers", http.MethodGet, endpoint("api", "servers"), nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// ListLogs retrieves the log files of server in backend order.
func (c *Client) ListLogs(ctx context.Context, server string) ([]LogEntry, error) {
	var payload []LogEntry
	if err := c.do(ctx, "list logs", http.MethodGet, endpoint("api", "logs", server), nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// ListReports retrieves the reports of server, including in-flight ones.
func (c *Client) ListReports(ctx context.Context, server string) ([]ReportEntry, error) {
	var payload []ReportEntry
	if err := c.do(ctx, "list reports", http.MethodGet, endpoint("api", "reports", server), nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// StartJob asks the service to generate a report from logName and returns the
// report name. A duplicate request fails with KindConflict.
func (c *Client) StartJob(ctx context.Context, server, logName string) (string, error) {
	const op = "start report"
	if strings.TrimSpace(logName) == "" {
		return "", &Error{Op: op, Kind: KindBackend, Message: "log file not specified"}
	}
	form := url.Values{}
	form.Set("logFile", logName)
	var payload startResponse
	if err := c.do(ctx, op, http.MethodPost, endpoint("api", "report", server), form, &payload); err != nil {
		return "", err
	}
	if payload.Error != "" {
		return "", &Error{Op: op, Kind: KindBackend, Message: payload.Error}
	}
	if payload.Report == "" {
		return "", &Error{Op: op, Kind: KindBackend, Message: "response did not name a report"}
	}
	return payload.Report, nil
}

// PollJob fetches the job status of report. A job the service no longer knows
// about is reported as a JobError status rather than an error, so callers stop
// polling instead of retrying.
func (c *Client) PollJob(ctx context.Context, server, report string) (JobStatus, error) {
	const op = "report status"
	var payload statusResponse
	err := c.do(ctx, op, http.MethodGet, endpoint("api", "report-status", server, report), nil, &payload)
	if err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			msg := apiErr.Message
			if msg == "" {
				msg = "report not found"
			}
			return JobStatus{State: JobError, Message: msg}, nil
		}
		return JobStatus{}, err
	}
	if payload.Error != "" {
		return JobStatus{}, &Error{Op: op, Kind: KindBackend, Message: payload.Error}
	}
	return payload.jobStatus(), nil
}

// StopJob cancels a running job. Stopping a job that is not running fails
// with KindNotRunning.
func (c *Client) StopJob(ctx context.Context, server, report string) error {
	const op = "stop report"
	var payload messageResponse
	err := c.do(ctx, op, http.MethodPost, endpoint("api", "stop-report", server, report), nil, &payload)
	if err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			apiErr.Kind = KindNotRunning
		}
		return err
	}
	if payload.Error != "" {
		return &Error{Op: op, Kind: KindBackend, Message: payload.Error}
	}
	return nil
}

// ReportURL returns the address of a rendered report document.
func (c *Client) ReportURL(server, report string) string {
	return c.baseURL.ResolveReference(endpoint("report", server, report)).String()
}

// endpoint joins path segments, escaping each one so names containing
// slashes or spaces stay a single segment.
func endpoint(segments ...string) *url.URL {
	escaped := make([]string, len(segments))
	for i, seg := range segments {
		escaped[i] = url.PathEscape(seg)
	}
	return &url.URL{
		Path:    "/" + strings.Join(segments, "/"),
		RawPath: "/" + strings.Join(escaped, "/"),
	}
}

func (c *Client) do(ctx context.Context, op, method string, rel *url.URL, form url.Values, dest any) error {
	reqURL := c.baseURL.ResolveReference(rel)

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), body)
	if err != nil {
		return &Error{Op: op, Kind: KindTransport, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Op: op, Kind: KindTransport, Err: fmt.Errorf("execute request: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return statusError(op, resp)
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return &Error{Op: op, Kind: KindTransport, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func statusError(op string, resp *http.Response) *Error {
	apiErr := &Error{Op: op, Kind: KindBackend, Status: resp.StatusCode}
	if resp.StatusCode == http.StatusConflict {
		apiErr.Kind = KindConflict
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var payload messageResponse
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Error != "" {
		apiErr.Message = payload.Error
	} else if text := strings.TrimSpace(string(raw)); text != "" && !strings.HasPrefix(text, "{") {
		apiErr.Message = text
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = DefaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api url %q: missing host", raw)
	}
	u.Path = ""
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
