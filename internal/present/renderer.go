package present

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	texttemplate "text/template"
)

//go:embed templates/*.html templates/*.txt
var templateFS embed.FS

// Renderer draws a View with the embedded templates.
type Renderer struct {
	page   *template.Template
	report *texttemplate.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	page, err := template.ParseFS(templateFS, "templates/page.html")
	if err != nil {
		return nil, fmt.Errorf("renderer: failed to parse page.html: %w", err)
	}
	report, err := texttemplate.ParseFS(templateFS, "templates/report.txt")
	if err != nil {
		return nil, fmt.Errorf("renderer: failed to parse report.txt: %w", err)
	}
	return &Renderer{page: page, report: report}, nil
}

// RenderHTML writes the full page.
func (r *Renderer) RenderHTML(w io.Writer, v View) error {
	if err := r.page.ExecuteTemplate(w, "page.html", v); err != nil {
		return fmt.Errorf("renderer: page: %w", err)
	}
	return nil
}

// RenderText writes the plain-text report used by the CLI.
func (r *Renderer) RenderText(w io.Writer, v View) error {
	if err := r.report.ExecuteTemplate(w, "report.txt", v); err != nil {
		return fmt.Errorf("renderer: report: %w", err)
	}
	return nil
}
