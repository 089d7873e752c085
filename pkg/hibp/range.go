// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package hibp

import (
	"bufio"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"io"
	"regexp"
	"strconv"
	"strings"
)

const (
	prefixLen = 5
	suffixLen = 35
)

// HashRange is the k-anonymity split of a SHA1 hash. Only Prefix ever leaves the process.
type HashRange struct {
	Prefix string
	Suffix string
}

// PasswordCheck is the outcome of a range lookup.
type PasswordCheck struct {
	Breached bool  `json:"breached"`
	Count    int64 `json:"count"`
}

// NewHashRange hashes the secret and splits the uppercase hex digest in the 5 char prefix
// sent to the range API and the 35 char suffix matched locally.
func NewHashRange(secret string) (HashRange, error) {
	if secret == "" {
		return HashRange{}, &ValidationError{Field: "password", Reason: "must not be empty"}
	}

	h := sha1.New()
	h.Write([]byte(secret))
	// The range API works with uppercase hashes
	digest := strings.ToUpper(hex.EncodeToString(h.Sum(nil)))

	return HashRange{Prefix: digest[:prefixLen], Suffix: digest[prefixLen:]}, nil
}

var sha1HexRegex = regexp.MustCompile(`^[a-fA-F\d]{40}$`)

// ParseHashRange splits an already computed SHA1 hex digest, for callers that never handle
// the plain text password.
func ParseHashRange(digest string) (HashRange, error) {
	digest = strings.TrimSpace(digest)
	if !sha1HexRegex.MatchString(digest) {
		return HashRange{}, &ValidationError{Field: "hash", Reason: "is not a valid SHA1 hexadecimal hash"}
	}

	digest = strings.ToUpper(digest)
	return HashRange{Prefix: digest[:prefixLen], Suffix: digest[prefixLen:]}, nil
}

func (r HashRange) Hash() string {
	return r.Prefix + r.Suffix
}

// String keeps the suffix out of logs and error messages.
func (r HashRange) String() string {
	return r.Prefix + strings.Repeat("*", len(r.Suffix))
}

var (
	errMissingColon = errors.New("missing colon separator")
	errBadCount     = errors.New("count is not a non-negative integer")
)

// MatchRange scans a range response body for suffix. Malformed lines are skipped, but when
// nothing matches and any line was malformed the whole check fails with a *ParseError, as a
// broken response can't prove the password is absent.
func MatchRange(suffix string, body io.Reader) (PasswordCheck, error) {
	target := strings.ToUpper(strings.TrimSpace(suffix))

	var parseErr *ParseError
	scanner := bufio.NewScanner(body)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		candidate, rawCount, found := strings.Cut(text, ":")
		var err error
		var count int64
		if !found {
			err = errMissingColon
		} else if count, err = strconv.ParseInt(strings.TrimSpace(rawCount), 10, 64); err != nil || count < 0 {
			err = errBadCount
		}

		if err != nil {
			if parseErr == nil {
				parseErr = &ParseError{Line: line, Input: text, Err: err}
			}
			parseErr.Malformed++
			continue
		}

		if strings.ToUpper(strings.TrimSpace(candidate)) == target {
			return PasswordCheck{Breached: true, Count: count}, nil
		}
	}

	if err := scanner.Err(); err != nil {
		return PasswordCheck{}, &ParseError{Err: err}
	}

	if parseErr != nil {
		return PasswordCheck{}, parseErr
	}

	return PasswordCheck{}, nil
}
