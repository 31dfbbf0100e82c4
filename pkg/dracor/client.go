package dracor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/OFFIS-RIT/dracor-mcp/pkg/logger"
)

// Format is the body format an endpoint is declared to return.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXML  Format = "xml"
	FormatText Format = "text"
)

func (f Format) accept() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatCSV:
		return "text/csv"
	case FormatXML:
		return "application/xml"
	default:
		return "text/plain"
	}
}

const (
	DefaultBaseURL      = "https://dracor.org/api/v1"
	DefaultTimeout      = 30 * time.Second
	DefaultMaxBodyBytes = 64 << 20

	errorBodyLimit = 512
)

// RawResponse is an unparsed upstream body tagged with its declared format.
type RawResponse struct {
	Path   string
	Format Format
	Status int
	Body   []byte
}

// Text returns the body as a string.
func (r RawResponse) Text() string {
	return string(r.Body)
}

// Client performs bounded GET requests against the DraCor API. A Client
// holds only immutable configuration and is safe for concurrent use.
type Client struct {
	baseURL      string
	timeout      time.Duration
	maxBodyBytes int64
	httpClient   *http.Client
}

// NewClientParams configures a Client. Zero values fall back to the
// package defaults.
type NewClientParams struct {
	BaseURL      string
	Timeout      time.Duration
	MaxBodyBytes int64
	HTTPClient   *http.Client
}

// NewClient creates a DraCor API client.
//
// Example:
//
//	client, err := dracor.NewClient(dracor.NewClientParams{
//		BaseURL: "https://dracor.org/api/v1",
//		Timeout: 30 * time.Second,
//	})
func NewClient(params NewClientParams) (*Client, error) {
	baseURL := params.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http or https, got %q", baseURL)
	}

	timeout := params.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	maxBody := params.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	httpClient := params.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		timeout:      timeout,
		maxBodyBytes: maxBody,
		httpClient:   httpClient,
	}, nil
}

// Fetch issues one GET for the given path segments. Every segment must
// already be validated; the path is never interpreted further. Failures
// are returned as *UpstreamError, except cancellation of ctx itself which
// is returned unchanged.
func (c *Client) Fetch(ctx context.Context, path Path, format Format, params url.Values) (RawResponse, error) {
	p := path.String()
	endpoint, err := url.JoinPath(c.baseURL, path.segments()...)
	if err != nil {
		return RawResponse{}, fmt.Errorf("failed to build url for %s: %w", p, err)
	}
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return RawResponse{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", format.accept())

	start := time.Now()
	logger.Debug("[Fetch] GET", "path", p, "format", format)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return RawResponse{}, c.translate(ctx, p, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes+1))
	if err != nil {
		return RawResponse{}, c.translate(ctx, p, err)
	}
	tooLarge := int64(len(body)) > c.maxBodyBytes
	if tooLarge {
		body = body[:c.maxBodyBytes]
	}

	logger.Debug("[Fetch] done", "path", p, "status", resp.StatusCode, "bytes", len(body), "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return RawResponse{}, &UpstreamError{
			Kind:   UpstreamHTTP,
			Path:   p,
			Status: resp.StatusCode,
			Body:   truncate(string(body), errorBodyLimit),
		}
	}

	if tooLarge {
		logger.Warn("[Fetch] body exceeds limit", "path", p, "limit", c.maxBodyBytes)
		return RawResponse{}, &ParseError{
			Format: format,
			Err:    fmt.Errorf("%w: %s exceeds %d bytes", ErrBodyTooLarge, p, c.maxBodyBytes),
		}
	}

	return RawResponse{
		Path:   p,
		Format: format,
		Status: resp.StatusCode,
		Body:   body,
	}, nil
}

func (c *Client) translate(parent context.Context, path string, err error) error {
	if parent.Err() != nil {
		return parent.Err()
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		logger.Warn("[Fetch] timeout", "path", path, "timeout", c.timeout)
		return &UpstreamError{Kind: UpstreamTimeout, Path: path, Err: err}
	}

	logger.Warn("[Fetch] upstream unavailable", "path", path, "err", err)
	return &UpstreamError{Kind: UpstreamUnavailable, Path: path, Err: err}
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
