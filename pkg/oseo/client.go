package oseo

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
)

// ClientOption configures a Client during construction.
type ClientOption func(*Client) error

// Client performs create and update calls against
// <host>/geoserver/rest/oseo/.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	username   string
	password   string
}

// WithHTTPClient injects a custom http.Client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) error {
		if httpClient == nil {
			return ErrNilHTTPClient
		}
		c.httpClient = httpClient
		return nil
	}
}

// WithTimeout sets a per-request timeout on the underlying http.Client.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) error {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
		return nil
	}
}

// WithBasicAuth sets the credentials sent with every request.
func WithBasicAuth(username, password string) ClientOption {
	return func(c *Client) error {
		c.username = username
		c.password = password
		return nil
	}
}

// NewClient constructs a Client for the OSEO REST root, e.g.
// "https://example.com/geoserver/rest/oseo/".
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("oseo: invalid base URL %q: %w", baseURL, err)
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("oseo: base URL %q is not absolute", baseURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{},
		username:   DefaultUser,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	base := c.httpClient.Transport
	c.httpClient = &http.Client{
		Timeout:       c.httpClient.Timeout,
		CheckRedirect: c.httpClient.CheckRedirect,
		Jar:           c.httpClient.Jar,
		Transport:     &BasicAuthTransport{Username: c.username, Password: c.password, Base: base},
	}
	return c, nil
}

// CreateCollection registers a new collection.
func (c *Client) CreateCollection(ctx context.Context, f *Feature) error {
	return c.send(ctx, http.MethodPost, c.baseURL.JoinPath("collections").String()+"/", f)
}

// UpdateCollection replaces an existing collection.
func (c *Client) UpdateCollection(ctx context.Context, collectionID string, f *Feature) error {
	if collectionID == "" {
		return fmt.Errorf("collection ID cannot be empty")
	}
	return c.send(ctx, http.MethodPut, c.baseURL.JoinPath("collections", collectionID).String(), f)
}

// CreateProduct registers a new product in a collection.
func (c *Client) CreateProduct(ctx context.Context, collectionID string, f *Feature) error {
	if collectionID == "" {
		return fmt.Errorf("collection ID cannot be empty")
	}
	return c.send(ctx, http.MethodPost, c.baseURL.JoinPath("collections", collectionID, "products").String(), f)
}

// UpdateProduct replaces an existing product.
func (c *Client) UpdateProduct(ctx context.Context, collectionID, productID string, f *Feature) error {
	if collectionID == "" {
		return fmt.Errorf("collection ID cannot be empty")
	}
	if productID == "" {
		return fmt.Errorf("product ID cannot be empty")
	}
	u := c.baseURL.JoinPath("collections", collectionID, "products", productID)
	return c.send(ctx, http.MethodPut, u.String(), f)
}

func (c *Client) send(ctx context.Context, method, rawURL string, body any) error {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(body); err != nil {
		return fmt.Errorf("oseo: encode %s %s: %w", method, rawURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, buf)
	if err != nil {
		return fmt.Errorf("oseo: create request %s %s: %w", method, rawURL, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("oseo: %s %s: %w", method, rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	return &APIError{
		Method: method,
		URL:    rawURL,
		Status: resp.StatusCode,
		Body:   strings.TrimSpace(string(data)),
	}
}
