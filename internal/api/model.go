// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package api

import "github.com/alvinbaena/breach-checker/pkg/hibp"

type passwordRequest struct {
	Password string `json:"password" form:"password" binding:"required"`
}

type hashRequest struct {
	Hash string `json:"hash" binding:"required"`
}

type accountRequest struct {
	Email string `json:"email" form:"email" binding:"required"`
}

type passwordStrength struct {
	Score            int     `json:"score"`
	CrackTime        float64 `json:"crack_time"`
	CrackTimeDisplay string  `json:"crack_time_display"`
}

type passwordResponse struct {
	Breached bool              `json:"breached"`
	Count    int64             `json:"count"`
	Strength *passwordStrength `json:"strength,omitempty"`
}

type accountResponse struct {
	Account  string        `json:"account"`
	Breached bool          `json:"breached"`
	Breaches []hibp.Record `json:"breaches"`
	Message  string        `json:"message,omitempty"`
}

type latestResponse struct {
	LatestBreaches []hibp.Record `json:"latest_breaches"`
}

type breachResponse struct {
	Name    string `json:"name"`
	Summary string `json:"summary"`
}
