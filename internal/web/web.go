// Package web holds the embedded page templates and static assets.
package web

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/flosch/pongo2/v6"
)

//go:embed templates/*.html
var templateFiles embed.FS

//go:embed static
var staticFiles embed.FS

// Pages lists every template that can be rendered directly.
var Pages = []string{
	"settings_encryption.html",
	"login.html",
	"submit.html",
	"submitted.html",
	"error.html",
}

// Renderer renders the embedded pongo2 templates. Autoescaping is on.
type Renderer struct {
	pages map[string]*pongo2.Template
}

// NewRenderer parses every page up front so template errors surface at
// startup.
func NewRenderer() (*Renderer, error) {
	sub, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		return nil, fmt.Errorf("templates fs: %w", err)
	}
	set := pongo2.NewSet("hushline", pongo2.NewFSLoader(sub))

	r := &Renderer{pages: make(map[string]*pongo2.Template, len(Pages))}
	for _, name := range Pages {
		tpl, err := set.FromFile(name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.pages[name] = tpl
	}
	return r, nil
}

// Render executes the named page into a buffer.
func (r *Renderer) Render(name string, data map[string]any) ([]byte, error) {
	tpl, ok := r.pages[name]
	if !ok {
		return nil, fmt.Errorf("unknown template %q", name)
	}
	out, err := tpl.ExecuteBytes(pongo2.Context(data))
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return out, nil
}

// Static serves the embedded stylesheet and scripts.
func Static() http.Handler {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}
