package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultAPIBase    = "https://api.github.com"
	defaultUploadBase = "https://uploads.github.com"
	defaultTimeout    = 5 * time.Minute
)

// Client is an authenticated GitHub API client scoped to the releases API.
type Client struct {
	token      string
	apiBase    string
	uploadBase string
	relay      Relay
	http       *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithUploadBase overrides the host used for asset uploads.
func WithUploadBase(base string) Option {
	return func(c *Client) {
		if base != "" {
			c.uploadBase = strings.TrimRight(base, "/")
		}
	}
}

// WithRelay routes asset downloads and uploads through r.
func WithRelay(r Relay) Option {
	return func(c *Client) {
		if r != nil {
			c.relay = r
		}
	}
}

// WithTimeout sets the overall HTTP timeout. Zero keeps the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client (tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// New creates a Client with the given token and API base URL.
// If apiBase is empty, the public GitHub API is used.
func New(token, apiBase string, opts ...Option) *Client {
	if apiBase == "" {
		apiBase = defaultAPIBase
	}
	apiBase = strings.TrimRight(apiBase, "/")

	c := &Client{
		token:      token,
		apiBase:    apiBase,
		uploadBase: deriveUploadBase(apiBase),
		relay:      DirectRelay{},
		http: &http.Client{
			Timeout:       defaultTimeout,
			CheckRedirect: stripAuthOffGitHub,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// deriveUploadBase maps api.github.com to uploads.github.com. Enterprise and
// test servers keep the same host.
func deriveUploadBase(apiBase string) string {
	if apiBase == defaultAPIBase {
		return defaultUploadBase
	}
	return apiBase
}

// do executes the request with standard GitHub headers.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/vnd.github+json")
	}
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if req.Header.Get("Content-Type") == "" && req.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.http.Do(req)
}

// doJSON sends a request and decodes the JSON response into out.
func (c *Client) doJSON(ctx context.Context, method, url string, body, out interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return err
	}
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if err := checkStatus(resp); err != nil {
		return err
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// url builds an API URL from path segments.
func (c *Client) url(parts ...string) string {
	return c.apiBase + "/" + strings.Join(parts, "/")
}

// checkStatus returns a *StatusError for non-2xx responses. Well-known
// statuses unwrap to the package sentinels.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	se := &StatusError{
		Code:   resp.StatusCode,
		Reason: http.StatusText(resp.StatusCode),
	}
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		se.kind = ErrUnauthorized
	case http.StatusForbidden:
		se.kind = ErrForbidden
	case http.StatusNotFound:
		se.kind = ErrNotFound
	case http.StatusConflict, http.StatusUnprocessableEntity:
		se.kind = ErrConflict
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		se.Body = strings.TrimSpace(string(body))
	}
	return se
}

// stripAuthOffGitHub drops the Authorization header when a redirect leaves
// github.com (asset downloads bounce to object storage).
func stripAuthOffGitHub(req *http.Request, via []*http.Request) error {
	if !strings.HasSuffix(req.URL.Hostname(), "github.com") {
		req.Header.Del("Authorization")
	}
	if len(via) >= 10 {
		return fmt.Errorf("too many redirects")
	}
	return nil
}

func jsonDecode(r io.Reader, out interface{}) error {
	return json.NewDecoder(r).Decode(out)
}
