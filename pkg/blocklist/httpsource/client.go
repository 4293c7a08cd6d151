// Package httpsource provides a blocklist.Source that downloads the list
// over HTTP(S).
package httpsource

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"geosite/pkg/blocklist"
	"geosite/pkg/serrors"
)

// DefaultTimeout bounds a single download, including reading the body.
const DefaultTimeout = 60 * time.Second

// maxErrorBody caps how much of a failed response body ends up in the error.
const maxErrorBody = 256

// Client fetches one fixed URL. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client // httpClient performs the GET request
	url        string       // url of the dnsmasq list
	userAgent  string       // userAgent is sent with every request when set
	timeout    time.Duration
}

// Options configure a Client.
type Options struct {
	// URL of the list. Defaults to blocklist.DefaultURL.
	URL string
	// Timeout for the whole download. Defaults to DefaultTimeout.
	Timeout time.Duration
	// UserAgent header value, omitted when empty.
	UserAgent string
}

// New constructs a Client that uses httpClient for requests.
func New(httpClient *http.Client, opts Options) *Client {
	if opts.URL == "" {
		opts.URL = blocklist.DefaultURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	return &Client{
		httpClient: httpClient,
		url:        opts.URL,
		userAgent:  opts.UserAgent,
		timeout:    opts.Timeout,
	}
}

// Location returns the URL the client downloads.
func (c *Client) Location() string { return c.url }

// Fetch downloads the list. A non-2xx status aborts with ErrFetch, an
// exceeded deadline with ErrTimeout.
func (c *Client) Fetch(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrFetch, err, "could not create request")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classify(err, "could not send request")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

		return nil, serrors.With(serrors.ErrFetch, "fetch %s failed: %s: %s",
			c.url, resp.Status, strings.TrimSpace(string(b)))
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classify(err, "could not read response body")
	}

	return b, nil
}

func classify(err error, msg string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return serrors.Wrap(serrors.ErrTimeout, err, "%s", msg)
	}

	return serrors.Wrap(serrors.ErrFetch, err, "%s", msg)
}

// Ensure Client conforms to the blocklist.Source interface at compile time.
var _ blocklist.Source = (*Client)(nil)
