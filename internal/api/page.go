// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package api

import (
	"embed"
	"html/template"
	"net/http"
	"strings"

	"github.com/alvinbaena/breach-checker/pkg/hibp"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

const indexTemplate = "index.tmpl"

func loadTemplates() *template.Template {
	funcs := template.FuncMap{
		"count": func(n int64) string { return message.NewPrinter(language.English).Sprintf("%d", n) },
		"join":  strings.Join,
		"text":  hibp.HTMLToText,
	}

	return template.Must(template.New("").Funcs(funcs).ParseFS(templatesFS, "templates/*.tmpl"))
}

// view fills in the keys the template prints unconditionally.
func view(data gin.H) gin.H {
	if _, ok := data["Email"]; !ok {
		data["Email"] = ""
	}
	return data
}

type page struct {
	checker Checker
}

func (p *page) index(c *gin.Context) {
	c.HTML(http.StatusOK, indexTemplate, view(gin.H{}))
}

func (p *page) checkEmail(c *gin.Context) {
	var req accountRequest
	if err := c.ShouldBind(&req); err != nil {
		c.HTML(http.StatusBadRequest, indexTemplate, view(gin.H{"Error": "Please enter an email address."}))
		return
	}

	res, err := p.checker.BreachedAccount(c.Request.Context(), req.Email)
	if err != nil {
		log.Debug().Err(err).Msg("error checking account from page")
		c.HTML(statusFor(err), indexTemplate, view(gin.H{"Error": errorMessage(err), "Email": req.Email}))
		return
	}

	if !res.Breached {
		c.HTML(http.StatusOK, indexTemplate, view(gin.H{"Message": noBreachMessage, "Email": req.Email}))
		return
	}

	c.HTML(http.StatusOK, indexTemplate, view(gin.H{"Breaches": res.Breaches, "Email": req.Email}))
}

func (p *page) checkPassword(c *gin.Context) {
	var req passwordRequest
	if err := c.ShouldBind(&req); err != nil {
		c.HTML(http.StatusBadRequest, indexTemplate, view(gin.H{"Error": "Please enter a password."}))
		return
	}

	res, err := p.checker.CheckPassword(c.Request.Context(), req.Password)
	if err != nil {
		log.Debug().Err(err).Msg("error checking password from page")
		c.HTML(statusFor(err), indexTemplate, view(gin.H{"Error": errorMessage(err)}))
		return
	}

	msg := "Good news! This password was not found in any known breach."
	if res.Breached {
		msg = message.NewPrinter(language.English).Sprintf("This password has appeared %d times in known breaches. Please don't use it.", res.Count)
	}
	c.HTML(http.StatusOK, indexTemplate, view(gin.H{"Message": msg}))
}

// RegisterPages sets up the HTML form flow. Results are rendered in place, there are no
// redirects or session messages.
func RegisterPages(router *gin.Engine, checker Checker, handlers ...gin.HandlerFunc) {
	p := &page{checker: checker}

	router.SetHTMLTemplate(loadTemplates())
	router.GET("/", p.index)

	checks := router.Group("/", handlers...)
	checks.POST("/check", p.checkEmail)
	checks.POST("/check-password", p.checkPassword)
}
