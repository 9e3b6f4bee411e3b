// Package templates embeds the site's HTML templates.
package templates

import (
	"embed"
	"html/template"
	"time"
)

//go:embed html/*.html
var files embed.FS

// Load parses every template. funcs must provide "media", which turns a
// stored image key into its public URL.
func Load(funcs template.FuncMap) (*template.Template, error) {
	t := template.New("").Funcs(template.FuncMap{
		"date": func(t time.Time) string {
			return t.Format("2 January 2006")
		},
	})
	t = t.Funcs(funcs)
	return t.ParseFS(files, "html/*.html")
}
