package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/robert-malhotra/fmi-stac-sync/pkg/stac"
)

// ErrNotFound is returned when a document does not exist (HTTP 404).
var ErrNotFound = errors.New("not found")

// Middleware manipulates an outgoing *http.Request before it is executed.
// The context is provided for cancellation and to support auth implementations
// that may need to perform async operations (e.g., token refresh).
type Middleware func(context.Context, *http.Request) error

// ClientOption configures the Client.
type ClientOption func(*Client)

// Client reads STAC documents: the paginated endpoints of a STAC API
// (collections, items) and the individual JSON files of a static catalog.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	middleware []Middleware
}

// -----------------------------------------------------------------------------
// Client options
// -----------------------------------------------------------------------------

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = client }
}

// WithTimeout sets the HTTP timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithMiddleware registers one or more request-middleware functions.
func WithMiddleware(mw ...Middleware) ClientOption {
	return func(c *Client) { c.middleware = append(c.middleware, mw...) }
}

// UserAgent returns a middleware that sets the User-Agent header.
func UserAgent(ua string) Middleware {
	return func(_ context.Context, req *http.Request) error {
		req.Header.Set("User-Agent", ua)
		return nil
	}
}

// NewClient creates a new STAC client. Relative paths and hrefs are resolved
// against baseURL, which may be empty when only absolute hrefs are fetched.
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	if u.Path != "" && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	if u.RawPath != "" && !strings.HasSuffix(u.RawPath, "/") {
		u.RawPath += "/"
	}
	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// BaseURL returns the URL relative references are resolved against.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// DefaultNextHandler looks for the first link with rel="next" and returns its
// Href parsed as a URL. The returned URL may be relative or absolute,
// as specified in the link's Href.
func DefaultNextHandler(links []*stac.Link) (*url.URL, error) {
	nl := stac.FindLink(links, stac.RelNext)
	if nl == nil {
		return nil, nil // No "next" link found
	}

	if nl.Href == "" {
		return nil, fmt.Errorf("found 'next' link with empty Href")
	}

	parsedNextURL, err := url.Parse(nl.Href)
	if err != nil {
		return nil, fmt.Errorf("invalid 'next' link URL '%s': %w", nl.Href, err)
	}
	return parsedNextURL, nil
}

// -----------------------------------------------------------------------------
// iteratePages: generic STAC pagination driver
// -----------------------------------------------------------------------------
//
//   - startPath – relative OR absolute URL for page 1.
//   - decoder   – turns the HTTP body into `(slice-of-T, links)`.

func iteratePages[T any](
	ctx context.Context,
	cli *Client,
	startPath string,
	decoder func(io.Reader) ([]*T, []*stac.Link, error),
) iter.Seq2[*T, error] {

	return func(yield func(*T, error) bool) {
		startURL, err := url.Parse(startPath)
		if err != nil {
			yield(nil, fmt.Errorf("invalid start path %q: %w", startPath, err))
			return
		}

		current := cli.baseURL.ResolveReference(startURL)

		for {
			// --------------------------- HTTP round-trip -------------------
			resp, err := cli.doRequest(ctx, http.MethodGet, current.String(), nil)
			if err != nil {
				yield(nil, err)
				return
			}
			if resp.StatusCode != http.StatusOK {
				resp.Body.Close()
				yield(nil, statusError(resp.StatusCode, current.String()))
				return
			}

			// --------------------------- Decode body ----------------------
			items, links, err := decoder(resp.Body)
			resp.Body.Close()
			if err != nil {
				yield(nil, fmt.Errorf("error decoding response from %s: %w", current, err))
				return
			}

			for _, v := range items {
				if !yield(v, nil) {
					return // consumer stopped
				}
			}

			// --------------------------- Follow "next" --------------------
			var next *url.URL
			if len(links) > 0 {
				next, err = DefaultNextHandler(links)
				if err != nil {
					yield(nil, fmt.Errorf("error determining next page from %s: %w", current, err))
					return
				}
			}

			if next == nil {
				return // done
			}
			next = current.ResolveReference(next)
			if next.String() == current.String() {
				return
			}
			current = next
		}
	}
}

// -----------------------------------------------------------------------------
// doRequest: one place to build a request, run middleware, and execute it.
// -----------------------------------------------------------------------------
func (c *Client) doRequest(ctx context.Context, method, rawURL string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("error creating request for %s: %w", rawURL, err)
	}
	req.Header.Set("Accept", "application/json")

	// Apply all registered middleware in order.
	for _, mw := range c.middleware {
		if err := mw(ctx, req); err != nil {
			return nil, fmt.Errorf("error applying middleware for %s: %w", rawURL, err)
		}
	}

	return c.httpClient.Do(req)
}

// getJSON fetches rawURL and decodes the body into out.
func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	resp, err := c.doRequest(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp.StatusCode, rawURL)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("error decoding response from %s: %w", rawURL, err)
	}
	return nil
}

// resolve turns a relative or absolute href into an absolute URL string.
func (c *Client) resolve(href string) (string, error) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("invalid href %q: %w", href, err)
	}
	u := c.baseURL.ResolveReference(ref)
	if !u.IsAbs() {
		return "", fmt.Errorf("href %q does not resolve to an absolute URL", href)
	}
	return u.String(), nil
}

func statusError(code int, rawURL string) error {
	if code == http.StatusNotFound {
		return fmt.Errorf("%s: %w", rawURL, ErrNotFound)
	}
	return fmt.Errorf("unexpected status code %d for %s", code, rawURL)
}
