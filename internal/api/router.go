// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package api

import (
	"net/http"
	"time"

	"github.com/alvinbaena/breach-checker/internal/limiter"
	"github.com/alvinbaena/breach-checker/internal/util"
	"github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// NewRouter builds the gin engine with the pages, the JSON API and the health check. The
// limiter gates every route that ends up calling the HIBP API on behalf of a user.
// Forwarded headers are only honored from trustedProxies, by default the client IP is the
// remote address of the connection.
func NewRouter(checker Checker, lim *limiter.Limiter, trustedProxies ...string) *gin.Engine {
	router := gin.New()
	if err := router.SetTrustedProxies(trustedProxies); err != nil {
		log.Error().Err(err).Msg("invalid trusted proxies, forwarded headers will be ignored")
		_ = router.SetTrustedProxies(nil)
	}
	router.Use(gin.Recovery())
	router.Use(logger.SetLogger(logger.WithLogger(func(c *gin.Context, z zerolog.Logger) zerolog.Logger {
		return zerolog.New(gin.DefaultWriter).With().Timestamp().Logger()
	})))

	started := time.Now()
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":              "ok",
			"uptime":              time.Since(started).Round(time.Second).String(),
			"memory_used_percent": util.MemoryUsedPercent(),
		})
	})

	var gate []gin.HandlerFunc
	if lim != nil {
		gate = append(gate, lim.Middleware())
	}

	RegisterPages(router, checker, gate...)

	v1 := router.Group("/v1")
	RegisterCheckApi(v1.Group("/check"), checker, gate...)
	RegisterBreachApi(v1, checker)

	return router
}
