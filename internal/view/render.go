// Package view renders the server-side HTML pages and the fragments swapped in
// by "Load More" and row expansion.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed assets
var assetFS embed.FS

// Assets serves the embedded stylesheet and script.
func Assets() http.Handler {
	sub, _ := fs.Sub(assetFS, "assets")
	return http.FileServer(http.FS(sub))
}

// Page is the data handed to every template.
type Page struct {
	Title    string
	Nav      string
	Fmt      *Formatter
	Warnings []string
	Data     any
}

// With returns a copy of p carrying data, for handing a sub-view to a fragment
// template from inside a page.
func (p Page) With(data any) Page {
	p.Data = data
	return p
}

var pageNames = []string{"search", "entity", "person", "bills", "exports", "scrapers", "error"}

type Renderer struct {
	pages     map[string]*template.Template
	fragments *template.Template
}

func NewRenderer() (*Renderer, error) {
	funcs := template.FuncMap{
		"lower": strings.ToLower,
		"add":   func(a, b int) int { return a + b },
	}
	fragments, err := template.New("fragments").Funcs(funcs).ParseFS(templateFS, "templates/fragments.html")
	if err != nil {
		return nil, fmt.Errorf("parse fragments: %w", err)
	}
	r := &Renderer{pages: make(map[string]*template.Template, len(pageNames)), fragments: fragments}
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html", "templates/fragments.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse page %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Page renders a full page inside the layout.
func (r *Renderer) Page(w http.ResponseWriter, status int, name string, p Page) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	return write(w, status, t, "layout", p)
}

// Fragment renders one named fragment without the layout.
func (r *Renderer) Fragment(w http.ResponseWriter, status int, name string, p Page) error {
	return write(w, status, r.fragments, name, p)
}

// write renders into a buffer so a failed template never sends a partial body.
func write(w http.ResponseWriter, status int, t *template.Template, name string, data any) error {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
