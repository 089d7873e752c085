// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package hibp

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestBreach_Summary(t *testing.T) {
	var b Breach
	if err := json.Unmarshal([]byte(adobeJSON), &b); err != nil {
		t.Fatalf("Should not fail decoding: %s", err)
	}

	summary := b.Summary()
	for _, want := range []string{
		"Adobe (adobe.com)",
		"Breach date: 2013-10-04",
		"Accounts affected: 152,445,165",
		"Compromised data: Email addresses, Password hints, Passwords, Usernames",
		"In October 2013, 153 million Adobe accounts were breached.",
	} {
		if !strings.Contains(summary, want) {
			t.Errorf("Summary should contain %q, got:\n%s", want, summary)
		}
	}

	if strings.Contains(summary, "<a") {
		t.Errorf("Summary should not contain markup:\n%s", summary)
	}
}

func TestHTMLToText(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"a <em>b</em> &amp; c", "a b & c"},
		{"line<br/>break", "line break"},
		{"", ""},
	}

	for _, tc := range cases {
		if got := HTMLToText(tc.in); got != tc.want {
			t.Errorf("HTMLToText(%q): %q, want: %q", tc.in, got, tc.want)
		}
	}
}

func TestNotFoundMessage(t *testing.T) {
	if got := NotFoundMessage("Nope"); got != `No breach named "Nope" was found.` {
		t.Errorf("NotFoundMessage: %s", got)
	}
}
