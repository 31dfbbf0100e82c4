package dracor

import (
	"context"
	"errors"
	"fmt"
)

// Kind values reported to callers in structured error payloads.
const (
	KindValidation          = "validation"
	KindUpstreamTimeout     = "upstream_timeout"
	KindUpstreamUnavailable = "upstream_unavailable"
	KindUpstreamHTTP        = "upstream_http"
	KindParse               = "parse"
	KindCanceled            = "canceled"
	KindInternal            = "internal"
)

// ErrBodyTooLarge is wrapped by the ParseError returned for a response body
// larger than the client's MaxBodyBytes.
var ErrBodyTooLarge = errors.New("response body too large")

// ValidationError reports an identifier that must not be embedded in an
// upstream path. No upstream call is made once it is returned.
type ValidationError struct {
	Param  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Param, e.Value, e.Reason)
}

// UpstreamKind classifies failures of a single upstream call.
type UpstreamKind int

const (
	UpstreamTimeout UpstreamKind = iota
	UpstreamUnavailable
	UpstreamHTTP
)

func (k UpstreamKind) String() string {
	switch k {
	case UpstreamTimeout:
		return KindUpstreamTimeout
	case UpstreamUnavailable:
		return KindUpstreamUnavailable
	case UpstreamHTTP:
		return KindUpstreamHTTP
	default:
		return KindInternal
	}
}

// UpstreamError is the only error type the fetcher returns for transport
// problems. Status and Body are set for UpstreamHTTP only.
type UpstreamError struct {
	Kind   UpstreamKind
	Path   string
	Status int
	Body   string
	Err    error
}

func (e *UpstreamError) Error() string {
	switch e.Kind {
	case UpstreamTimeout:
		return fmt.Sprintf("upstream request %s timed out", e.Path)
	case UpstreamHTTP:
		return fmt.Sprintf("upstream request %s failed with status %d", e.Path, e.Status)
	default:
		if e.Err != nil {
			return fmt.Sprintf("upstream request %s failed: %v", e.Path, e.Err)
		}
		return fmt.Sprintf("upstream request %s failed", e.Path)
	}
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// ParseError reports a response body that could not be decoded in the
// format the endpoint declares.
type ParseError struct {
	Format Format
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s body: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// KindOf maps an error to the kind string used in structured failures.
func KindOf(err error) string {
	if err == nil {
		return ""
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return KindValidation
	}
	var uErr *UpstreamError
	if errors.As(err, &uErr) {
		return uErr.Kind.String()
	}
	var pErr *ParseError
	if errors.As(err, &pErr) {
		return KindParse
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCanceled
	}

	return KindInternal
}

// IsTerminal reports whether err means the caller gave up. Such errors are
// never folded into partial results.
func IsTerminal(err error) bool {
	if err == nil {
		return false
	}
	var uErr *UpstreamError
	if errors.As(err, &uErr) {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
