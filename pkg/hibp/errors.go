// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package hibp

import (
	"errors"
	"fmt"
	"time"
)

// ErrTimeout matches any TransportError caused by a deadline or client timeout.
var ErrTimeout = errors.New("hibp: request timed out")

// ValidationError is returned for bad input, always before any request is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// RateLimitedError is returned when the API answers 429. RetryAfter is zero if the
// response did not carry a usable Retry-After header.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited by the HIBP API, retry after %v", e.RetryAfter)
	}
	return "rate limited by the HIBP API"
}

// UpstreamError is any other non-success status. Body is the raw response text and must
// be escaped before being rendered.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream responded with status %d: %s", e.StatusCode, e.Body)
}

type TransportError struct {
	Err     error
	timeout bool
}

func (e *TransportError) Error() string {
	if e.timeout {
		return fmt.Sprintf("request timed out: %s", e.Err)
	}
	return fmt.Sprintf("request failed: %s", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTimeout && e.timeout
}

func (e *TransportError) Timeout() bool {
	return e.timeout
}

// ParseError reports a malformed upstream payload. For range responses Line is the 1-based
// line number of the first malformed line and Malformed the total of skipped lines.
type ParseError struct {
	Line      int
	Input     string
	Malformed int
	Err       error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed range response, %d bad line(s), first at line %d (%q): %s",
			e.Malformed, e.Line, e.Input, e.Err)
	}
	return fmt.Sprintf("malformed response: %s", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
