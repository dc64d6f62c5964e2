// Package fetcher performs HTTP GET requests against rate-limited JSON and
// feed endpoints. It follows redirects itself, downgrades to an
// unauthenticated request once on an auth failure, and classifies every
// non-200 outcome into a typed error. The fetcher never logs; callers decide
// what a failure means for them.
package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	defaultUserAgent = "ethwatch/1.0"
	defaultAccept    = "application/vnd.github+json"

	// maxRedirects bounds the redirect recursion so a redirect loop
	// cannot hang a poll run.
	maxRedirects = 5

	// finePATPrefix marks fine-grained personal access tokens, which use
	// the Bearer scheme instead of the classic token scheme.
	finePATPrefix = "github_pat_"

	// errorBodyLimit caps how much of an unexpected response body is
	// kept for the error message.
	errorBodyLimit = 4096
)

// Client fetches URLs with a fixed identity and an optional credential.
// The credential is injected at construction, never read from the
// environment here.
type Client struct {
	http      *http.Client
	token     string
	userAgent string
	accept    string
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Redirect handling
// stays with the fetcher regardless of the client's own policy.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithAccept overrides the Accept header, e.g. for feed endpoints that
// serve XML instead of the versioned JSON media type.
func WithAccept(accept string) Option {
	return func(c *Client) {
		c.accept = accept
	}
}

// New creates a Client. An empty token means all requests go out
// unauthenticated, which is a fully supported configuration.
func New(token string, opts ...Option) *Client {
	c := &Client{
		http:      &http.Client{},
		token:     token,
		userAgent: defaultUserAgent,
		accept:    defaultAccept,
	}
	for _, opt := range opts {
		opt(c)
	}

	// The fetcher follows redirects itself so it can bound the chain and
	// keep the credential decision per hop. Copy the client so a shared
	// *http.Client passed by the caller is left untouched.
	hc := *c.http
	hc.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	c.http = &hc

	return c
}

// Fetch performs one logical GET and returns the body of the final 200
// response. 404 maps to ErrNotFound, 401 triggers a single unauthenticated
// retry before ErrAuthFailed, 403 maps to ErrRateLimited, and any other
// status becomes a *StatusError. Transport failures are returned wrapped.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	return c.fetch(ctx, url, 0, true)
}

// FetchJSON fetches url and decodes the body into out. A decode failure of
// a 200 body is reported as *MalformedResponseError.
func (c *Client) FetchJSON(ctx context.Context, url string, out any) error {
	body, err := c.Fetch(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &MalformedResponseError{URL: url, Err: err}
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, url string, redirects int, useCredential bool) ([]byte, error) {
	if redirects > maxRedirects {
		return nil, ErrTooManyRedirects
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", c.accept)
	if useCredential && c.token != "" {
		req.Header.Set("Authorization", authorizationValue(c.token))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", url, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read response from %s: %w", url, err)
		}
		return body, nil

	case http.StatusMovedPermanently, http.StatusFound,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		if loc := resp.Header.Get("Location"); loc != "" {
			// Location may be relative; resolve it against the URL
			// that was just requested.
			next, err := resp.Request.URL.Parse(loc)
			if err != nil {
				return nil, fmt.Errorf("resolve redirect target %q from %s: %w", loc, url, err)
			}
			return c.fetch(ctx, next.String(), redirects+1, useCredential)
		}
		// Redirect status without a Location header; treated as an
		// unexpected status below.

	case http.StatusNotFound:
		return nil, ErrNotFound

	case http.StatusUnauthorized:
		if useCredential && c.token != "" {
			// One-shot downgrade at the same redirect depth. The
			// retried call runs with useCredential=false, so a
			// second 401 lands in the branch below.
			return c.fetch(ctx, url, redirects, false)
		}
		return nil, ErrAuthFailed

	case http.StatusForbidden:
		return nil, ErrRateLimited
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
	return nil, &StatusError{Code: resp.StatusCode, Body: string(body)}
}

func authorizationValue(token string) string {
	if strings.HasPrefix(token, finePATPrefix) {
		return "Bearer " + token
	}
	return "token " + token
}
