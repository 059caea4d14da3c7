// Package web embeds the HTML templates for the movie list pages.
package web

import (
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var files embed.FS

// Funcs are the helpers available to every page template.
var Funcs = template.FuncMap{
	"rating": func(v *float64) string {
		if v == nil {
			return "-"
		}
		return fmt.Sprintf("%.1f", *v)
	},
	"rank": func(v *int) string {
		if v == nil {
			return ""
		}
		return fmt.Sprintf("%d", *v)
	},
	"deref": func(v *string) string {
		if v == nil {
			return ""
		}
		return *v
	},
}

// Templates parses all page templates. Each page is addressable by its file
// name, e.g. "index.html".
func Templates() (*template.Template, error) {
	return template.New("").Funcs(Funcs).ParseFS(files, "templates/*.html")
}
