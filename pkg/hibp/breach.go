// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package hibp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

// Breach is a breach as returned by the API, decoded verbatim.
type Breach struct {
	Name         string   `json:"Name"`
	Title        string   `json:"Title"`
	Domain       string   `json:"Domain"`
	BreachDate   string   `json:"BreachDate"`
	AddedDate    string   `json:"AddedDate"`
	ModifiedDate string   `json:"ModifiedDate"`
	PwnCount     int64    `json:"PwnCount"`
	Description  string   `json:"Description"`
	LogoPath     string   `json:"LogoPath"`
	DataClasses  []string `json:"DataClasses"`
	IsVerified   bool     `json:"IsVerified"`
	IsFabricated bool     `json:"IsFabricated"`
	IsSensitive  bool     `json:"IsSensitive"`
	IsRetired    bool     `json:"IsRetired"`
	IsSpamList   bool     `json:"IsSpamList"`
	IsMalware    bool     `json:"IsMalware"`
}

// Record is the simplified breach shape handed out to callers.
type Record struct {
	Name        string   `json:"name"`
	Date        string   `json:"date"`
	PwnCount    int64    `json:"pwn_count"`
	DataClasses []string `json:"data_classes"`
	Description string   `json:"description"`
}

func (b Breach) Record() Record {
	dataClasses := b.DataClasses
	if dataClasses == nil {
		dataClasses = []string{}
	}

	return Record{
		Name:        b.Name,
		Date:        b.BreachDate,
		PwnCount:    b.PwnCount,
		DataClasses: dataClasses,
		Description: b.Description,
	}
}

// AccountResult is the outcome of an account lookup. Breached is false when the API has
// nothing on file for the account.
type AccountResult struct {
	Account  string
	Breached bool
	Breaches []Record
}

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateAccount checks the basic local@domain.tld shape of an email address.
func ValidateAccount(account string) error {
	if account == "" {
		return &ValidationError{Field: "email", Reason: "must not be empty"}
	}
	if !emailRegex.MatchString(account) {
		return &ValidationError{Field: "email", Reason: "is not a valid email address"}
	}
	return nil
}

// BreachedAccount returns every breach the account appears in.
func (c *Client) BreachedAccount(ctx context.Context, account string) (AccountResult, error) {
	account = strings.TrimSpace(account)
	if err := ValidateAccount(account); err != nil {
		return AccountResult{}, err
	}

	endpoint := fmt.Sprintf("%s/breachedaccount/%s?truncateResponse=false", c.cfg.APIURL, url.PathEscape(account))
	res, body, err := c.get(ctx, endpoint, true)
	if err != nil {
		return AccountResult{}, err
	}

	switch res.StatusCode {
	case http.StatusOK:
		var breaches []Breach
		if err = json.Unmarshal(body, &breaches); err != nil {
			return AccountResult{}, &ParseError{Err: err}
		}

		records := make([]Record, 0, len(breaches))
		for _, b := range breaches {
			records = append(records, b.Record())
		}
		return AccountResult{Account: account, Breached: true, Breaches: records}, nil
	case http.StatusNotFound:
		return AccountResult{Account: account, Breaches: []Record{}}, nil
	default:
		return AccountResult{}, statusError(res, body)
	}
}

// Breach looks up a single breach by name. An unknown name yields a nil breach and no error.
func (c *Client) Breach(ctx context.Context, name string) (*Breach, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Field: "name", Reason: "must not be empty"}
	}

	res, body, err := c.get(ctx, fmt.Sprintf("%s/breach/%s", c.cfg.APIURL, url.PathEscape(name)), true)
	if err != nil {
		return nil, err
	}

	switch res.StatusCode {
	case http.StatusOK:
		var breach Breach
		if err = json.Unmarshal(body, &breach); err != nil {
			return nil, &ParseError{Err: err}
		}
		return &breach, nil
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, statusError(res, body)
	}
}

// Breaches fetches the whole breach catalog in one request.
func (c *Client) Breaches(ctx context.Context) ([]Breach, error) {
	res, body, err := c.get(ctx, fmt.Sprintf("%s/breaches", c.cfg.APIURL), true)
	if err != nil {
		return nil, err
	}

	if res.StatusCode != http.StatusOK {
		return nil, statusError(res, body)
	}

	var breaches []Breach
	if err = json.Unmarshal(body, &breaches); err != nil {
		return nil, &ParseError{Err: err}
	}
	return breaches, nil
}
