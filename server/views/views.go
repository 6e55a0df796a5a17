// Package views renders the HTML page.
package views

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/nomis52/activitytodo/activity"
)

//go:embed templates/*.html
var templateFiles embed.FS

// PageData is everything the index page shows.
type PageData struct {
	Draft  activity.Draft
	Errors activity.FieldErrors
	Tasks  []activity.Entry
	Types  []activity.Type
	// Message is shown above the form, e.g. when saving failed.
	Message string
}

// Renderer executes the parsed templates.
type Renderer struct {
	tpl *template.Template
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	funcs := template.FuncMap{
		"label":         func(t activity.Type) string { return t.Label() },
		"price":         activity.FormatPrice,
		"accessibility": activity.FormatAccessibility,
		"yesno": func(b bool) string {
			if b {
				return "Yes"
			}
			return "No"
		},
	}
	tpl, err := template.New("views").Funcs(funcs).ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return &Renderer{tpl: tpl}, nil
}

// Index writes the index page.
func (r *Renderer) Index(w io.Writer, data PageData) error {
	if data.Types == nil {
		data.Types = activity.Types()
	}
	if err := r.tpl.ExecuteTemplate(w, "index.html", data); err != nil {
		return fmt.Errorf("rendering index: %w", err)
	}
	return nil
}
