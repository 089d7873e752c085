// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package cli

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/alvinbaena/breach-checker/pkg/hibp"
)

const adobeJSON = `{"Name":"Adobe","Title":"Adobe","Domain":"adobe.com","BreachDate":"2013-10-04","PwnCount":152445165,"Description":"In October 2013, 153 million Adobe accounts were breached.","DataClasses":["Email addresses","Passwords"]}`

const breachesJSON = `[
  ` + adobeJSON + `,
  {"Name":"LinkedIn","Title":"LinkedIn","Domain":"linkedin.com","BreachDate":"2012-05-05","PwnCount":164611595,"Description":"In May 2016, LinkedIn had 164 million email addresses and passwords exposed.","DataClasses":["Email addresses","Passwords"]},
  {"Name":"Canva","Title":"Canva","Domain":"canva.com","BreachDate":"2019-05-24","PwnCount":137272116,"Description":"In May 2019, Canva suffered a data breach.","DataClasses":["Email addresses","Names"]}
]`

type fakeHIBP struct {
	mu   sync.Mutex
	keys []string
}

func (f *fakeHIBP) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.keys = append(f.keys, r.Header.Get("hibp-api-key"))
	f.mu.Unlock()

	switch {
	case r.URL.Path == "/range/5BAA6":
		_, _ = io.WriteString(w, "1E4C9B93F3F0682250B6CF8331B7EE68FD8:9545824\r\n003D68EB55068C33ACE09247EE4C639306B:3\r\n")
	case strings.HasPrefix(r.URL.Path, "/range/"):
		_, _ = io.WriteString(w, "0018A45C4D1DEF81644B54AB7F969B88D65:1\r\n")
	case r.URL.Path == "/api/v3/breachedaccount/pwned@example.com":
		_, _ = io.WriteString(w, breachesJSON)
	case strings.HasPrefix(r.URL.Path, "/api/v3/breachedaccount/"):
		w.WriteHeader(http.StatusNotFound)
	case r.URL.Path == "/api/v3/breach/Adobe":
		_, _ = io.WriteString(w, adobeJSON)
	case r.URL.Path == "/api/v3/breaches":
		_, _ = io.WriteString(w, breachesJSON)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func setupFakeHIBP(t *testing.T, apiKey string) *fakeHIBP {
	t.Helper()

	f := &fakeHIBP{}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	t.Setenv("HIBP_API_KEY", apiKey)
	t.Setenv("HIBP_API_URL", srv.URL+"/api/v3")
	t.Setenv("HIBP_RANGE_URL", srv.URL+"/range")
	return f
}

func run(args ...string) (string, error) {
	interactive, hashed = false, false
	threads, rps, limit = 0, 0, hibp.LatestLimit

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestPasswordCommand(t *testing.T) {
	f := setupFakeHIBP(t, "")

	out, err := run("password", "password")
	if err != nil {
		t.Fatalf("Should not fail: %s", err)
	}
	if !strings.Contains(out, "Password is present. It has appeared 9,545,824 times") {
		t.Errorf("Unexpected output: %q", out)
	}

	out, err = run("password", "a very unlikely passphrase")
	if err != nil {
		t.Fatalf("Should not fail: %s", err)
	}
	if !strings.Contains(out, "Password is not present") {
		t.Errorf("Unexpected output: %q", out)
	}

	for _, k := range f.keys {
		if k != "" {
			t.Errorf("Range requests should never carry the API key")
		}
	}
}

func TestPasswordCommand_Hashed(t *testing.T) {
	setupFakeHIBP(t, "")

	out, err := run("password", "--hashed", "5baa61e4c9b93f3f0682250b6cf8331b7ee68fd8")
	if err != nil {
		t.Fatalf("Should not fail: %s", err)
	}
	if !strings.Contains(out, "9,545,824") {
		t.Errorf("Unexpected output: %q", out)
	}

	if _, err = run("password", "--hashed", "not-a-hash"); err == nil {
		t.Errorf("An invalid hash should fail")
	}
}

func TestPasswordCommand_RequiresArgument(t *testing.T) {
	setupFakeHIBP(t, "")

	if _, err := run("password"); err == nil {
		t.Errorf("Should require a password when not interactive")
	}
}

func TestAccountCommand(t *testing.T) {
	f := setupFakeHIBP(t, "secret")

	out, err := run("account", "--threads", "2", "pwned@example.com", "clean@example.com")
	if err != nil {
		t.Fatalf("Should not fail: %s", err)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 5 {
		t.Fatalf("Unexpected output: %q", out)
	}
	if lines[0] != "pwned@example.com: found in 3 breaches" || lines[4] != "clean@example.com: no breach found" {
		t.Errorf("Results should keep the order of the arguments: %q", out)
	}
	if !strings.Contains(lines[1], "Adobe (2013-10-04), 152,445,165 accounts") {
		t.Errorf("Unexpected breach line: %q", lines[1])
	}

	for _, k := range f.keys {
		if k != "secret" {
			t.Errorf("Account lookups should carry the API key, got %q", k)
		}
	}
}

func TestAccountCommand_Failures(t *testing.T) {
	setupFakeHIBP(t, "")
	if _, err := run("account", "pwned@example.com"); err == nil || !strings.Contains(err.Error(), "HIBP_API_KEY") {
		t.Errorf("Should require an API key, got %v", err)
	}

	setupFakeHIBP(t, "secret")
	out, err := run("account", "pwned@example.com", "not-an-email")
	if err == nil || !strings.Contains(err.Error(), "1 of 2 account checks failed") {
		t.Errorf("Should report the failed check, got %v", err)
	}
	if !strings.Contains(out, "not-an-email: ") {
		t.Errorf("Failed accounts should be listed: %q", out)
	}
}

func TestBreachCommand(t *testing.T) {
	setupFakeHIBP(t, "")

	out, err := run("breach", "Adobe")
	if err != nil {
		t.Fatalf("Should not fail: %s", err)
	}
	if !strings.HasPrefix(out, "Adobe (adobe.com)\n") || !strings.Contains(out, "Accounts affected: 152,445,165") {
		t.Errorf("Unexpected summary: %q", out)
	}

	out, err = run("breach", "Nope")
	if err != nil {
		t.Fatalf("An unknown breach is not an error: %s", err)
	}
	if strings.TrimSpace(out) != hibp.NotFoundMessage("Nope") {
		t.Errorf("Unexpected output: %q", out)
	}
}

func TestLatestCommand(t *testing.T) {
	setupFakeHIBP(t, "")

	out, err := run("latest", "--limit", "2")
	if err != nil {
		t.Fatalf("Should not fail: %s", err)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("Should list 2 breaches: %q", out)
	}
	if !strings.Contains(lines[0], "Canva (2019-05-24)") || !strings.Contains(lines[1], "Adobe (2013-10-04)") {
		t.Errorf("Breaches should be sorted by date, newest first: %q", out)
	}
}
