// Package client implements the BioReport API client: a JSON request
// core with cookie-based session credentials, typed errors, and a
// single-flight refresh-and-retry protocol for expired sessions.
//
// The session credential lives entirely in httpOnly cookies managed by
// the http.Client's jar; this package never attaches an Authorization
// header and never sees a raw token.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"os"
	"strings"

	"github.com/google/uuid"
)

const (
	defaultBaseURL   = "http://localhost:8080/api"
	maxErrorBodySize = 1 << 20
)

// Client issues requests against the BioReport API. A zero Client is
// not usable; construct with New. Clients are safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
	refresh *refreshCoordinator
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client. If it has no cookie
// jar, one is installed, since the session cookie is the only
// credential this client carries.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// WithLogger sets the structured logger for request/refresh events.
// If not set, a default JSON logger writing to stderr is used.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a Client rooted at baseURL (e.g. "https://api.example.com/api").
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		refresh: newRefreshCoordinator(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.http.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("creating cookie jar: %w", err)
		}
		c.http.Jar = jar
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	return c, nil
}

// Request performs an API call and decodes the JSON response into out
// (which may be nil to discard the body). On a 401 it runs the refresh
// protocol and retries the original request at most once; every other
// non-2xx outcome returns a *Error.
func (c *Client) Request(ctx context.Context, method, path string, body, out any) error {
	payload, err := marshalBody(body)
	if err != nil {
		return err
	}

	resp, err := c.send(ctx, method, path, payload)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		drain(resp)
		if err := c.refresh.await(ctx, c); err != nil {
			return err
		}
		c.logger.DebugContext(ctx, "session refreshed, retrying request",
			slog.String("method", method),
			slog.String("path", path))
		resp, err = c.send(ctx, method, path, payload)
		if err != nil {
			return err
		}
		// A 401 on the retried request is terminal: it falls through
		// to the ordinary error path below instead of re-entering the
		// refresh protocol.
	}

	return decodeResponse(resp, out)
}

// Get issues a GET request and decodes the response into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Request(ctx, http.MethodGet, path, nil, out)
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Request(ctx, http.MethodPost, path, body, out)
}

// Patch issues a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.Request(ctx, http.MethodPatch, path, body, out)
}

// Delete issues a DELETE request. body may be nil; the delete-account
// endpoint uses it to carry the re-authentication password.
func (c *Client) Delete(ctx context.Context, path string, body, out any) error {
	return c.Request(ctx, http.MethodDelete, path, body, out)
}

// send performs a single HTTP round trip. payload is pre-marshaled so
// the same request can be re-issued after a session refresh.
func (c *Client) send(ctx context.Context, method, path string, payload []byte) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("building %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	c.logger.DebugContext(ctx, "api request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode))
	return resp, nil
}

func marshalBody(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding request body: %w", err)
	}
	return payload, nil
}

// decodeResponse consumes resp. A 204 or empty body decodes to nothing
// and never errors; any non-2xx status becomes a *Error.
func decodeResponse(resp *http.Response, out any) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseError(resp)
	}
	if resp.StatusCode == http.StatusNoContent || resp.ContentLength == 0 || out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding response body: %w", err)
	}
	return nil
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
