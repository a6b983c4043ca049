// Package httpclient is the outbound side of the storefront client: a bearer
// token RoundTripper with one-shot refresh-and-retry on 401, and a small JSON
// client bound to one backend base URL.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"storefront-client/pkg/logger"

	"github.com/google/uuid"
)

const maxErrorBody = 64 << 10

// Client issues JSON requests against a single backend service.
type Client struct {
	base *url.URL
	http *http.Client
}

// New binds a client to baseURL. hc decides the transport chain: pass a client
// whose Transport is a *Transport for authorized services, or a plain client
// for the bare refresh path.
func New(baseURL string, hc *http.Client) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("httpclient: parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("httpclient: base url must be absolute, got %q", baseURL)
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{base: u, http: hc}, nil
}

// BaseURL returns the service base URL.
func (c *Client) BaseURL() string { return c.base.String() }

// URL resolves path against the base URL.
func (c *Client) URL(path string, query url.Values) string {
	u := *c.base
	u.Path = c.base.Path + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	return c.Do(ctx, http.MethodPost, path, nil, in, out)
}

func (c *Client) Put(ctx context.Context, path string, query url.Values, in, out any) error {
	return c.Do(ctx, http.MethodPut, path, query, in, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, out)
}

// Do sends one JSON request. A nil in sends no body; a nil out discards the
// response body. Non-2xx responses become *StatusError.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("httpclient: encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}

	target := c.URL(path, query)
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("httpclient: build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rid := logger.RequestID(ctx)
	if rid == "" {
		rid = uuid.NewString()
	}
	req.Header.Set(logger.HeaderRequestID, rid)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Method:  method,
			URL:     c.base.Path + "/" + strings.TrimLeft(path, "/"),
			Status:  resp.StatusCode,
			Message: serverMessage(b),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if s, ok := out.(*string); ok {
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("httpclient: read %s %s: %w", method, path, err)
		}
		*s = string(b)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("httpclient: decode %s %s: %w", method, path, err)
	}
	return nil
}
