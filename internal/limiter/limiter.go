// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package limiter

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	DefaultWindow      = time.Minute
	DefaultMaxRequests = 5
)

// Store keeps one counter per key. Increment returns the number of hits in the current
// window, including this one, and starts a new window when the previous one expired.
type Store interface {
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)
}

// Limiter is a fixed window limiter, at most MaxRequests per Window for every client.
type Limiter struct {
	store       Store
	window      time.Duration
	maxRequests int64
}

func New(store Store, window time.Duration, maxRequests int) *Limiter {
	if window <= 0 {
		window = DefaultWindow
	}
	if maxRequests <= 0 {
		maxRequests = DefaultMaxRequests
	}

	return &Limiter{store: store, window: window, maxRequests: int64(maxRequests)}
}

// Allow records a hit for key and reports whether it is still within the limit.
func (l *Limiter) Allow(ctx context.Context, key string) (allowed bool, remaining int64, err error) {
	count, err := l.store.Increment(ctx, key, l.window)
	if err != nil {
		return true, l.maxRequests, err
	}

	remaining = l.maxRequests - count
	if remaining < 0 {
		remaining = 0
	}
	return count <= l.maxRequests, remaining, nil
}

// Middleware gates the next handlers per client IP. A failing store lets requests through.
func (l *Limiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("ratelimit:%s", c.ClientIP())

		allowed, remaining, err := l.Allow(c.Request.Context(), key)
		if err != nil {
			log.Error().Err(err).Msg("error checking rate limit, letting request through")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(l.maxRequests, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if !allowed {
			log.Debug().Msgf("rate limit exceeded for %s", c.ClientIP())
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(l.window.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": fmt.Sprintf("too many requests, the limit is %d per %v", l.maxRequests, l.window),
			})
			return
		}

		c.Next()
	}
}
