// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package hibp

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Summary renders the breach as plain text for terminals and text responses.
func (b Breach) Summary() string {
	p := message.NewPrinter(language.English)

	var sb strings.Builder
	title := b.Title
	if title == "" {
		title = b.Name
	}
	sb.WriteString(title)
	if b.Domain != "" {
		sb.WriteString(fmt.Sprintf(" (%s)", b.Domain))
	}
	sb.WriteString("\n")

	date := b.BreachDate
	if date == "" {
		date = "unknown"
	}
	sb.WriteString(fmt.Sprintf("Breach date: %s\n", date))
	sb.WriteString(p.Sprintf("Accounts affected: %d\n", b.PwnCount))
	if len(b.DataClasses) > 0 {
		sb.WriteString(fmt.Sprintf("Compromised data: %s\n", strings.Join(b.DataClasses, ", ")))
	}
	if text := HTMLToText(b.Description); text != "" {
		sb.WriteString("\n")
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	return sb.String()
}

// NotFoundMessage is the text shown for an unknown breach name.
func NotFoundMessage(name string) string {
	return fmt.Sprintf("No breach named %q was found.", name)
}

// HTMLToText drops the markup the API embeds in breach descriptions and keeps the text.
func HTMLToText(s string) string {
	z := html.NewTokenizer(strings.NewReader(s))

	var sb strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF or a broken document, either way the text so far is all there is
			return strings.Join(strings.Fields(sb.String()), " ")
		case html.TextToken:
			sb.Write(z.Text())
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			if string(name) == "br" || string(name) == "p" {
				sb.WriteString(" ")
			}
		}
	}
}
