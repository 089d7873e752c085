// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package hibp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeAPI struct {
	srv      *httptest.Server
	requests int64
	mu       sync.Mutex
	last     *http.Request
}

// newFakeAPI serves handler for both the API and the range endpoints and counts requests.
func newFakeAPI(t *testing.T, handler http.HandlerFunc) (*fakeAPI, *Client) {
	t.Helper()

	f := &fakeAPI{}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&f.requests, 1)
		f.mu.Lock()
		f.last = r.Clone(context.Background())
		f.mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(f.srv.Close)

	client := NewClient(Config{
		APIKey:    "test-key",
		APIURL:    f.srv.URL + "/api/v3",
		RangeURL:  f.srv.URL + "/range",
		UserAgent: "breach-checker-test",
		Timeout:   2 * time.Second,
	})
	return f, client
}

func (f *fakeAPI) count() int64 {
	return atomic.LoadInt64(&f.requests)
}

func (f *fakeAPI) lastRequest() *http.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

func TestCheckPassword(t *testing.T) {
	f, client := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/range/5BAA6" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("1D2DA4053E34E76F6576ED1DA63134B5E2A:2\r\n1E4C9B93F3F0682250B6CF8331B7EE68FD8:9545824\r\n"))
	})

	res, err := client.CheckPassword(context.Background(), "password")
	if err != nil {
		t.Fatalf("Should not fail checking password: %s", err)
	}
	if !res.Breached || res.Count != 9545824 {
		t.Errorf("CheckPassword: %+v, want breached 9545824 times", res)
	}

	last := f.lastRequest()
	if last.Header.Get("hibp-api-key") != "" {
		t.Errorf("The range endpoint should not receive the API key")
	}
	if ua := last.Header.Get("User-Agent"); ua != "breach-checker-test" {
		t.Errorf("User-Agent: %q, want breach-checker-test", ua)
	}
	if f.count() != 1 {
		t.Errorf("Should make exactly 1 request, made %d", f.count())
	}
}

func TestCheckHash(t *testing.T) {
	f, client := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("1E4C9B93F3F0682250B6CF8331B7EE68FD8:9545824\r\n"))
	})

	res, err := client.CheckHash(context.Background(), "5baa61e4c9b93f3f0682250b6cf8331b7ee68fd8")
	if err != nil {
		t.Fatalf("Should not fail checking hash: %s", err)
	}
	if !res.Breached || res.Count != 9545824 {
		t.Errorf("CheckHash: %+v", res)
	}
	if p := f.lastRequest().URL.Path; p != "/range/5BAA6" {
		t.Errorf("Only the uppercase prefix should be sent, path %s", p)
	}

	if _, err = client.CheckHash(context.Background(), "nothex"); err == nil {
		t.Errorf("An invalid hash should fail")
	}
	if f.count() != 1 {
		t.Errorf("An invalid hash should not reach the API, made %d requests", f.count())
	}
}

func TestCheckPassword_Empty(t *testing.T) {
	f, client := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := client.CheckPassword(context.Background(), "")
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("Empty password should be a ValidationError, got %v", err)
	}
	if f.count() != 0 {
		t.Errorf("Should not make any request, made %d", f.count())
	}
}

func TestCheckPassword_UpstreamFailure(t *testing.T) {
	f, client := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("maintenance"))
	})

	_, err := client.CheckPassword(context.Background(), "password")
	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("503 should be an UpstreamError, got %v", err)
	}
	if ue.StatusCode != http.StatusServiceUnavailable || ue.Body != "maintenance" {
		t.Errorf("UpstreamError: %+v", ue)
	}
	if f.count() != 1 {
		t.Errorf("5xx should not be retried, made %d requests", f.count())
	}
}

func TestCheckPassword_OversizedBody(t *testing.T) {
	body := "0018A45C4D1DEF81644B54AB7F969B88D65:1\r\n" +
		"1E4C9B93F3F0682250B6CF8331B7EE68FD8:9545824\r\n"
	_, client := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	})

	// The first line fits, the matching one is cut off
	client.maxBody = 40
	_, err := client.CheckPassword(context.Background(), "password")
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("A truncated body should be a ParseError, got %v", err)
	}

	client.maxBody = int64(len(body))
	res, err := client.CheckPassword(context.Background(), "password")
	if err != nil {
		t.Fatalf("A body of exactly the limit should be read: %s", err)
	}
	if !res.Breached || res.Count != 9545824 {
		t.Errorf("CheckPassword: %+v", res)
	}
}

func TestClient_Timeout(t *testing.T) {
	done := make(chan struct{})
	_, client := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
		}
	})
	defer close(done)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := client.BreachedAccount(ctx, "someone@example.com")
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("A stalled request should be a TransportError, got %v", err)
	}
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("A stalled request should match ErrTimeout: %s", err)
	}
}

func TestClient_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	client := NewClient(Config{APIKey: "k", APIURL: srv.URL})
	_, err := client.Breaches(context.Background())

	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("A closed server should be a TransportError, got %v", err)
	}
	if te.Timeout() {
		t.Errorf("Connection refused is not a timeout")
	}
}

func TestRetryAfter(t *testing.T) {
	if d := retryAfter("2"); d != 2*time.Second {
		t.Errorf("retryAfter(2): %v", d)
	}
	if d := retryAfter(""); d != 0 {
		t.Errorf("retryAfter(empty): %v", d)
	}
	if d := retryAfter("soon"); d != 0 {
		t.Errorf("retryAfter(soon): %v", d)
	}
}
