package app

import (
	"fmt"
	"html/template"
	"io"
	"path/filepath"

	"github.com/labstack/echo/v4"
)

// renderer is the Echo template renderer backed by html/template. Every
// page is a {{define}} block in web/templates, parsed once at startup.
type renderer struct {
	templates *template.Template
}

// newRenderer parses every template under dir.
func newRenderer(dir string) (*renderer, error) {
	t, err := template.New("").Funcs(template.FuncMap{
		// Calendar and holiday fragments are built server-side and
		// escaped at the builder level, not re-escaped at render time.
		"raw": func(s string) template.HTML { return template.HTML(s) },
	}).ParseGlob(filepath.Join(dir, "*.html"))
	if err != nil {
		return nil, fmt.Errorf("parsing templates in %s: %w", dir, err)
	}
	return &renderer{templates: t}, nil
}

// Render implements echo.Renderer.
func (r *renderer) Render(w io.Writer, name string, data any, c echo.Context) error {
	return r.templates.ExecuteTemplate(w, name, data)
}
