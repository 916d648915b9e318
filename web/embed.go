// Package web embeds the HTML templates and static assets served by the back office.
package web

import "embed"

// Templates holds every page template under templates/.
//
//go:embed templates/*.html
var Templates embed.FS

// Static holds CSS and JavaScript under static/.
//
//go:embed static
var Static embed.FS
