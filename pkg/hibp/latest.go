// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package hibp

import (
	"context"

	"github.com/jfcg/sorty/v2"
)

// LatestLimit is the number of breaches returned by LatestBreaches.
const LatestLimit = 10

type positioned struct {
	breach Breach
	pos    int
}

// Latest sorts breaches by breach date, newest first, and projects the first n. Breaches with
// the same (or no) date keep their input order, a missing date sorts last.
func Latest(breaches []Breach, n int) []Record {
	if n <= 0 {
		n = LatestLimit
	}

	items := make([]positioned, len(breaches))
	for i, b := range breaches {
		items[i] = positioned{breach: b, pos: i}
	}

	// sorty is not stable, the input position breaks ties so the order is total.
	sorty.Sort(len(items), func(i, k, r, s int) bool {
		di, dk := items[i].breach.BreachDate, items[k].breach.BreachDate
		if di > dk || (di == dk && items[i].pos < items[k].pos) {
			if r != s {
				items[r], items[s] = items[s], items[r]
			}
			return true
		}
		return false
	})

	if len(items) > n {
		items = items[:n]
	}

	records := make([]Record, 0, len(items))
	for _, item := range items {
		records = append(records, item.breach.Record())
	}
	return records
}

// LatestBreaches fetches the catalog and returns the n most recent breaches. A failed
// fetch returns no partial results.
func (c *Client) LatestBreaches(ctx context.Context, n int) ([]Record, error) {
	breaches, err := c.Breaches(ctx)
	if err != nil {
		return nil, err
	}
	return Latest(breaches, n), nil
}
