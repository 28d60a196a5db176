// Package web embeds the HTML templates and static assets.
package web

import "embed"

//go:embed all:templates
var Templates embed.FS
