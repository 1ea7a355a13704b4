// Package api is the HTTP client for the ftrack backend. Every failure is
// returned as a coded error: NETWORK_ERROR when no response arrived,
// BACKEND_ERROR for non-2xx answers (carrying the backend's message), and
// MALFORMED_RESPONSE when a 2xx body is missing what the caller needs.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/grovetools/ftrack/errors"
	"github.com/grovetools/ftrack/logging"
	"github.com/grovetools/ftrack/version"
	"github.com/sirupsen/logrus"
)

const maxErrorBody = 1 << 20

// TokenSource returns the current access token, or "" when logged out.
type TokenSource func() string

// Client talks to the REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	logger     *logrus.Entry
	userAgent  string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithTokenSource sets where bearer tokens come from.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithLogger sets the logger.
func WithLogger(l *logrus.Entry) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client for baseURL (e.g. http://localhost:5000/api).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		tokens:     func() string { return "" },
		userAgent:  version.GetInfo().UserAgent(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logging.NewLogger("api")
	}
	return c
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type request struct {
	method string
	path   string
	query  url.Values
	body   interface{}
	auth   bool
}

// do performs the request and decodes a 2xx body into out (when non-nil).
func (c *Client) do(ctx context.Context, req request, out interface{}) error {
	target := c.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		data, err := json.Marshal(req.body)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "failed to encode request")
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to create request")
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("X-Request-ID", requestID)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.auth {
		token := c.tokens()
		if token == "" {
			return errors.NotAuthenticated()
		}
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	log := c.logger.WithFields(logrus.Fields{
		"method":     req.method,
		"path":       req.path,
		"request_id": requestID,
	})

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		log.WithError(err).Debug("Request failed")
		return errors.Network(err).WithDetail("path", req.path)
	}
	defer resp.Body.Close()

	log = log.WithFields(logrus.Fields{
		"status":   resp.StatusCode,
		"duration": time.Since(start).Round(time.Millisecond),
	})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Debug("Backend returned error")
		return backendError(resp, req.path)
	}
	log.Debug("Request completed")

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if err == io.EOF {
			return errors.MalformedResponse("empty body").WithDetail("path", req.path)
		}
		return errors.Wrap(err, errors.ErrCodeMalformedResponse, "malformed response: invalid JSON").
			WithDetail("path", req.path)
	}
	return nil
}

func backendError(resp *http.Response, path string) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var parsed struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	message := ""
	if json.Unmarshal(data, &parsed) == nil {
		message = parsed.Message
		if message == "" {
			message = parsed.Error
		}
	}
	return errors.Backend(resp.StatusCode, message).WithDetail("path", path)
}

func escape(id string) string {
	return url.PathEscape(id)
}
