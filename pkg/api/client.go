// Package api is the client for the profile and résumé adaptation server.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/xrsl/cvago/pkg/doc"
	"github.com/xrsl/cvago/pkg/log"
	"github.com/xrsl/cvago/pkg/retry"
)

// RequestIDHeader carries a per-call id so server logs can be matched.
const RequestIDHeader = "X-Request-ID"

// Client talks to the server over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	retry      retry.Config
	userAgent  string
	timeout    time.Duration
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithTimeout caps profile fetches and downloads, retries included. Other
// calls run until their context ends. Zero disables the cap.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithRetry(cfg retry.Config) Option {
	return func(c *Client) { c.retry = cfg }
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		retry:      retry.DefaultConfig(),
		userAgent:  "cvago",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// bounded applies the client timeout to ctx.
func (c *Client) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

// BaseURL returns the server root the client calls.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(RequestIDHeader, uuid.NewString())
	return req, nil
}

func (c *Client) send(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	id := req.Header.Get(RequestIDHeader)
	if err != nil {
		if errors.Is(req.Context().Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
			log.Debug("request timed out", "method", req.Method, "path", req.URL.Path, "request_id", id)
			return nil, ErrTimeout
		}
		if req.Context().Err() != nil {
			return nil, req.Context().Err()
		}
		return nil, fmt.Errorf("%w at %s: %w", ErrUnreachable, c.baseURL, err)
	}
	log.Debug("request",
		"method", req.Method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
		"request_id", id,
	)
	return resp, nil
}

// call sends a JSON request and decodes the JSON reply into a Node. Any
// reply that is not JSON is ErrMalformedResponse, whatever its status.
// Non-success statuses become *Error with message(detail).
func (c *Client) call(ctx context.Context, method, path string, in any, message func(detail doc.Node) string) (doc.Node, error) {
	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return doc.Node{}, fmt.Errorf("marshalling request: %w", err)
		}
	}
	var reader io.Reader
	contentType := ""
	if body != nil {
		reader = bytes.NewReader(body)
		contentType = "application/json"
	}
	req, err := c.newRequest(ctx, method, path, reader, contentType)
	if err != nil {
		return doc.Node{}, err
	}
	resp, err := c.send(req)
	if err != nil {
		return doc.Node{}, err
	}
	return decode(resp, message)
}

func decode(resp *http.Response, message func(detail doc.Node) string) (doc.Node, error) {
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return doc.Node{}, ErrTimeout
		}
		return doc.Node{}, fmt.Errorf("reading response: %w", err)
	}
	payload, err := doc.ParseJSON(data)
	if err != nil {
		log.Debug("response is not JSON", "status", resp.StatusCode, "error", err)
		if resp.StatusCode >= 400 {
			return doc.Node{}, fmt.Errorf("%w (status %d)", ErrMalformedResponse, resp.StatusCode)
		}
		return doc.Node{}, ErrMalformedResponse
	}
	if resp.StatusCode >= 400 {
		detail, _ := payload.Field("detail")
		return doc.Node{}, newError(resp.StatusCode, detail, message(detail))
	}
	return payload, nil
}

func joined(fallback string) func(doc.Node) string {
	return func(detail doc.Node) string { return DetailMessage(detail, fallback) }
}

func verbatim(fallback string) func(doc.Node) string {
	return func(detail doc.Node) string { return DetailVerbatim(detail, fallback) }
}

// retryable marks transport failures and gateway statuses for retry.
func retryable(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrUnreachable) || retry.RetryableStatus(StatusOf(err)) {
		return retry.Retryable(err)
	}
	return err
}
