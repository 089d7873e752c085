// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/alvinbaena/breach-checker/pkg/hibp"
	"github.com/gin-gonic/gin"
	"github.com/nbutton23/zxcvbn-go"
	"github.com/rs/zerolog/log"
)

// Checker is the part of the HIBP client used by the HTTP layer.
type Checker interface {
	CheckPassword(ctx context.Context, password string) (hibp.PasswordCheck, error)
	CheckHash(ctx context.Context, digest string) (hibp.PasswordCheck, error)
	BreachedAccount(ctx context.Context, account string) (hibp.AccountResult, error)
	Breach(ctx context.Context, name string) (*hibp.Breach, error)
	LatestBreaches(ctx context.Context, n int) ([]hibp.Record, error)
}

type checkApi struct {
	checker Checker
}

func strength(password string) *passwordStrength {
	entropy := zxcvbn.PasswordStrength(password, nil)
	return &passwordStrength{
		CrackTime:        entropy.CrackTime,
		CrackTimeDisplay: entropy.CrackTimeDisplay,
		Score:            entropy.Score,
	}
}

func (q *checkApi) checkPassword(c *gin.Context) {
	var req passwordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password is required"})
		return
	}

	res, err := q.checker.CheckPassword(c.Request.Context(), req.Password)
	if err != nil {
		abortRangeError(c, err)
		return
	}

	c.JSON(http.StatusOK, passwordResponse{
		Breached: res.Breached,
		Count:    res.Count,
		Strength: strength(req.Password),
	})
}

func (q *checkApi) checkHash(c *gin.Context) {
	var req hashRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "hash is required"})
		return
	}

	res, err := q.checker.CheckHash(c.Request.Context(), req.Hash)
	if err != nil {
		abortRangeError(c, err)
		return
	}

	c.JSON(http.StatusOK, passwordResponse{Breached: res.Breached, Count: res.Count})
}

// abortRangeError reports every upstream failure of a range check as a bad gateway.
func abortRangeError(c *gin.Context, err error) {
	status := gatewayStatus(err)
	if status != http.StatusBadRequest {
		log.Warn().Err(err).Msg("error checking password range")
	}
	abortWithError(c, status, err)
}

func (q *checkApi) checkAccount(c *gin.Context) {
	var req accountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
		return
	}

	res, err := q.checker.BreachedAccount(c.Request.Context(), req.Email)
	if err != nil {
		var ve *hibp.ValidationError
		if !errors.As(err, &ve) {
			log.Warn().Err(err).Msg("error checking account")
		}
		abortWithError(c, statusFor(err), err)
		return
	}

	resp := accountResponse{Account: res.Account, Breached: res.Breached, Breaches: res.Breaches}
	if !res.Breached {
		resp.Message = noBreachMessage
	}
	c.JSON(http.StatusOK, resp)
}

func RegisterCheckApi(group *gin.RouterGroup, checker Checker, handlers ...gin.HandlerFunc) {
	q := &checkApi{checker: checker}

	group.Use(handlers...)
	group.POST("/password", q.checkPassword)
	group.POST("/hash", q.checkHash)
	group.POST("/account", q.checkAccount)
}
