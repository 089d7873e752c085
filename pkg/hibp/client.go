// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package hibp

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog/log"
)

const (
	DefaultAPIURL    = "https://haveibeenpwned.com/api/v3"
	DefaultRangeURL  = "https://api.pwnedpasswords.com/range"
	DefaultUserAgent = "Breach-A-Mail Checker"
	DefaultTimeout   = 10 * time.Second

	// The full breach catalog is a bit over 1MiB, this leaves plenty of room.
	maxBodySize = 16 << 20
)

type Config struct {
	APIKey    string
	APIURL    string
	RangeURL  string
	UserAgent string
	Timeout   time.Duration
}

// Client talks to the HIBP API. Every call makes exactly one request, there are no retries.
type Client struct {
	cfg     Config
	http    *retryablehttp.Client
	maxBody int64
}

func NewClient(cfg Config) *Client {
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.RangeURL == "" {
		cfg.RangeURL = DefaultRangeURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	cfg.RangeURL = strings.TrimRight(cfg.RangeURL, "/")

	return &Client{cfg: cfg, http: initHttpClient(cfg.Timeout), maxBody: maxBodySize}
}

func initHttpClient(timeout time.Duration) *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.Logger = nil

	// A single attempt per call. 429 and 5xx are classified by the caller, not retried.
	client.RetryMax = 0
	client.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		return false, nil
	}

	client.HTTPClient = &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			DialContext: (&net.Dialer{
				Timeout:   timeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          10,
			IdleConnTimeout:       30 * time.Second,
			TLSHandshakeTimeout:   timeout,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}

	return client
}

func (c *Client) newRequest(ctx context.Context, endpoint string, authenticated bool) (*retryablehttp.Request, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", c.cfg.UserAgent)
	if authenticated && c.cfg.APIKey != "" {
		req.Header.Set("hibp-api-key", c.cfg.APIKey)
	}
	return req, nil
}

// get issues the request and returns the status with the (size limited) body. The body is
// always closed before returning.
func (c *Client) get(ctx context.Context, endpoint string, authenticated bool) (*http.Response, []byte, error) {
	req, err := c.newRequest(ctx, endpoint, authenticated)
	if err != nil {
		return nil, nil, err
	}

	timer := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		return nil, nil, transportError(err)
	}

	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing response body")
		}
	}(res.Body)

	// One byte over the limit tells a truncated body apart from one that fits exactly
	body, err := io.ReadAll(io.LimitReader(res.Body, c.maxBody+1))
	if err != nil {
		return nil, nil, transportError(err)
	}
	if int64(len(body)) > c.maxBody {
		return nil, nil, &ParseError{Err: fmt.Errorf("response body is larger than %d bytes", c.maxBody)}
	}

	log.Debug().
		Int("status", res.StatusCode).
		Int64("millis", time.Since(timer).Milliseconds()).
		Msgf("HIBP request %s", req.URL.Path)

	return res, body, nil
}

func transportError(err error) error {
	var netErr net.Error
	timeout := errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout())
	return &TransportError{Err: err, timeout: timeout}
}

// statusError maps the non-success statuses shared by every endpoint.
func statusError(res *http.Response, body []byte) error {
	if res.StatusCode == http.StatusTooManyRequests {
		return &RateLimitedError{RetryAfter: retryAfter(res.Header.Get("Retry-After"))}
	}
	return &UpstreamError{StatusCode: res.StatusCode, Body: string(body)}
}

func retryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return d.Round(time.Second)
		}
	}
	return 0
}

// CheckPassword runs the k-anonymity range check for password. The range endpoint is public
// and gets no API key.
func (c *Client) CheckPassword(ctx context.Context, password string) (PasswordCheck, error) {
	hr, err := NewHashRange(password)
	if err != nil {
		return PasswordCheck{}, err
	}
	return c.CheckRange(ctx, hr)
}

// CheckHash is CheckPassword for a SHA1 hex digest computed by the caller.
func (c *Client) CheckHash(ctx context.Context, digest string) (PasswordCheck, error) {
	hr, err := ParseHashRange(digest)
	if err != nil {
		return PasswordCheck{}, err
	}
	return c.CheckRange(ctx, hr)
}

// CheckRange sends the prefix of hr to the range endpoint and matches the suffix locally.
func (c *Client) CheckRange(ctx context.Context, hr HashRange) (PasswordCheck, error) {
	res, body, err := c.get(ctx, fmt.Sprintf("%s/%s", c.cfg.RangeURL, hr.Prefix), false)
	if err != nil {
		return PasswordCheck{}, err
	}

	if res.StatusCode != http.StatusOK {
		return PasswordCheck{}, statusError(res, body)
	}

	return MatchRange(hr.Suffix, bytes.NewReader(body))
}
