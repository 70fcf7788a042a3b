// Package web holds the HTML templates and static assets served by the UI.
package web

import "embed"

// TemplatesFS embeds the page templates. Each page is parsed together with layout.html.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS embeds the stylesheet.
//
//go:embed static/*
var StaticFS embed.FS
