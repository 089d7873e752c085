// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package util

import "testing"

func TestToScreamingSnakeCase(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Port", "PORT"},
		{"TLSCert", "TLS_CERT"},
		{"SelfTLS", "SELF_TLS"},
		{"RateLimitMax", "RATE_LIMIT_MAX"},
		{"TLSCert TLSKey", "TLS_CERT TLS_KEY"},
		{"", ""},
	}

	for _, tc := range cases {
		if got := ToScreamingSnakeCase(tc.in); got != tc.want {
			t.Errorf("ToScreamingSnakeCase(%q): %q, want: %q", tc.in, got, tc.want)
		}
	}
}
