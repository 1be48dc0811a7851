package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/stewardhq/steward/internal/http/response"
)

//go:embed templates/*.html static/*
var assetFS embed.FS

const layoutTemplate = "base.html"

// pageAliases map action template names onto a shared page file. Create and
// edit render the same form.
var pageAliases = map[string]string{
	"admin/create": "admin/form",
	"admin/edit":   "admin/form",
}

// Renderer executes the admin console pages. Every page under templates/ is
// parsed together with the shared layout at startup and cached under the
// name handlers request ("admin/list", "admin/form", ...). Per-admin
// overrides loaded from disk shadow the shared pages.
type Renderer struct {
	cache  map[string]*template.Template
	logger *slog.Logger
	debug  bool
}

// New parses the embedded template set. In debug mode template execution
// errors are echoed to the client instead of a generic 500.
func New(logger *slog.Logger, debug bool) (*Renderer, error) {
	rd := &Renderer{
		cache:  make(map[string]*template.Template),
		logger: logger,
		debug:  debug,
	}
	pages, err := fs.Glob(assetFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("globbing embedded templates: %w", err)
	}
	for _, page := range pages {
		if page == "templates/"+layoutTemplate {
			continue
		}
		name := strings.TrimSuffix(path.Base(page), ".html")
		ts, err := template.ParseFS(assetFS, "templates/"+layoutTemplate, page)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}
		rd.cache["admin/"+name] = ts
	}
	for alias, target := range pageAliases {
		ts, ok := rd.cache[target]
		if !ok {
			return nil, fmt.Errorf("template alias %s points at missing page %s", alias, target)
		}
		rd.cache[alias] = ts
	}
	return rd, nil
}

// LoadOverrides parses on-disk per-admin template overrides. The directory
// holds one subdirectory per admin code with <action>.html files inside;
// each is parsed against the shared layout and cached as "<code>/<action>".
func (rd *Renderer) LoadOverrides(dir string) error {
	if dir == "" {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading template override dir %s: %w", dir, err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		code := entry.Name()
		pages, err := filepath.Glob(filepath.Join(dir, code, "*.html"))
		if err != nil {
			return err
		}
		for _, page := range pages {
			action := strings.TrimSuffix(filepath.Base(page), ".html")
			ts, err := template.ParseFS(assetFS, "templates/"+layoutTemplate)
			if err != nil {
				return err
			}
			if ts, err = ts.ParseFiles(page); err != nil {
				return fmt.Errorf("parsing template override %s: %w", page, err)
			}
			rd.cache[code+"/"+action] = ts
		}
	}
	return nil
}

// Render executes the named page against the shared layout. Pending flash
// messages are drained into the page data unless the caller already set
// them. Per-admin names without an override fall back to the shared
// "admin/<action>" page.
func (rd *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) {
	ts, ok := rd.lookup(name)
	if !ok {
		rd.logger.Error("template not found in cache", "template", name)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if data == nil {
		data = map[string]any{}
	}
	if _, ok := data["Flashes"]; !ok {
		data["Flashes"] = response.TakeFlashes(w, r)
	}

	var buf bytes.Buffer
	if err := ts.ExecuteTemplate(&buf, layoutTemplate, data); err != nil {
		rd.logger.Error("template execution failed", "template", name, "error", err)
		if rd.debug {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// Has reports whether a name resolves to a cached page, including the
// shared-page fallback.
func (rd *Renderer) Has(name string) bool {
	_, ok := rd.lookup(name)
	return ok
}

func (rd *Renderer) lookup(name string) (*template.Template, bool) {
	if ts, ok := rd.cache[name]; ok {
		return ts, true
	}
	if i := strings.LastIndex(name, "/"); i >= 0 {
		ts, ok := rd.cache["admin/"+name[i+1:]]
		return ts, ok
	}
	return nil, false
}

// StaticHandler serves the embedded console assets. The router mounts it
// under /static/.
func StaticHandler() http.Handler {
	sub, err := fs.Sub(assetFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}
