// Package web renders the server-side pages and maps application errors to
// HTTP responses.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ehr/wardadmin/internal/platform/auth"
)

//go:embed templates
var templateFS embed.FS

// CSRFContextKey is where echo's CSRF middleware stores the token.
const CSRFContextKey = "csrf"

// View is what every page template receives. Page data is under .Data.
type View struct {
	Data any
	User auth.Identity
	CSRF string
}

// Renderer holds one template set per page, each parsed together with the
// shared layout.
type Renderer struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"join": strings.Join,
	// deref renders an optional room reference.
	"deref": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
}

// NewRenderer parses every page under templates/ with templates/layout.html.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template)}
	err := fs.WalkDir(templateFS, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || path == "templates/layout.html" || !strings.HasSuffix(path, ".html") {
			return err
		}
		name := strings.TrimSuffix(strings.TrimPrefix(path, "templates/"), ".html")
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", path)
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		r.pages[name] = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Render implements echo.Renderer. name is the page path without extension,
// e.g. "patients/index".
func (r *Renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	v := View{Data: data}
	if c != nil {
		v.User = auth.IdentityFromContext(c.Request().Context())
		v.CSRF, _ = c.Get(CSRFContextKey).(string)
	}
	return t.ExecuteTemplate(w, "layout.html", v)
}

// Has reports whether a page template exists.
func (r *Renderer) Has(name string) bool {
	_, ok := r.pages[name]
	return ok
}
