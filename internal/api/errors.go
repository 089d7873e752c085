// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package api

import (
	"errors"
	"fmt"
	"math"
	"net/http"

	"github.com/alvinbaena/breach-checker/pkg/hibp"
	"github.com/gin-gonic/gin"
)

const noBreachMessage = "🎉 Good news! No breach found for this email."

// statusFor maps the hibp error kinds to the status returned to our own clients.
func statusFor(err error) int {
	var (
		ve *hibp.ValidationError
		rl *hibp.RateLimitedError
		ue *hibp.UpstreamError
		te *hibp.TransportError
		pe *hibp.ParseError
	)

	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.As(err, &rl):
		return http.StatusTooManyRequests
	case errors.Is(err, hibp.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.As(err, &ue), errors.As(err, &te), errors.As(err, &pe):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// gatewayStatus is statusFor with every upstream failure (rate limit and timeout included)
// reported as a bad gateway.
func gatewayStatus(err error) int {
	switch status := statusFor(err); status {
	case http.StatusBadRequest, http.StatusInternalServerError:
		return status
	default:
		return http.StatusBadGateway
	}
}

// errorMessage is the user facing text for err. Upstream bodies are passed through as is,
// the HTML templates escape them.
func errorMessage(err error) string {
	var (
		ve *hibp.ValidationError
		rl *hibp.RateLimitedError
		ue *hibp.UpstreamError
	)

	switch {
	case errors.As(err, &ve):
		return ve.Error()
	case errors.As(err, &rl):
		if rl.RetryAfter > 0 {
			return fmt.Sprintf("The breach API is rate limiting requests, try again in %v.", rl.RetryAfter)
		}
		return "The breach API is rate limiting requests, try again later."
	case errors.As(err, &ue):
		return fmt.Sprintf("Error checking breach: %d - %s", ue.StatusCode, ue.Body)
	case errors.Is(err, hibp.ErrTimeout):
		return "The breach API took too long to answer."
	default:
		return fmt.Sprintf("Error checking breach: %s", err)
	}
}

func abortWithError(c *gin.Context, status int, err error) {
	body := gin.H{"error": errorMessage(err)}

	var (
		rl *hibp.RateLimitedError
		ue *hibp.UpstreamError
	)
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		body["retry_after"] = int(math.Ceil(rl.RetryAfter.Seconds()))
	}
	if errors.As(err, &ue) {
		body["status"] = ue.StatusCode
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}
