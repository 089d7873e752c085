// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package api

import (
	"net/http"

	"github.com/alvinbaena/breach-checker/pkg/hibp"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type breachApi struct {
	checker Checker
}

func (b *breachApi) latest(c *gin.Context) {
	records, err := b.checker.LatestBreaches(c.Request.Context(), hibp.LatestLimit)
	if err != nil {
		log.Error().Err(err).Msg("error fetching latest breaches")
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": errorMessage(err)})
		return
	}

	c.JSON(http.StatusOK, latestResponse{LatestBreaches: records})
}

func (b *breachApi) breach(c *gin.Context) {
	name := c.Param("name")
	breach, err := b.checker.Breach(c.Request.Context(), name)
	if err != nil {
		log.Warn().Err(err).Msgf("error fetching breach %s", name)
		abortWithError(c, gatewayStatus(err), err)
		return
	}

	if breach == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": hibp.NotFoundMessage(name)})
		return
	}

	c.JSON(http.StatusOK, breachResponse{Name: breach.Name, Summary: breach.Summary()})
}

func RegisterBreachApi(group *gin.RouterGroup, checker Checker) {
	b := &breachApi{checker: checker}

	group.GET("/breaches/latest", b.latest)
	group.GET("/breach/:name", b.breach)
}
