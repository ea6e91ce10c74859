// internal/view/render.go
//
// View engine: shared layout, per-component page templates, func-map
// injection, and an LRU of parsed *template.Template* sets.
//
// Public helpers
// --------------
//   - Render         – write a rendered page to an http.ResponseWriter.
//   - RenderToString – return template.HTML (fragments, tests).
//
// Lookup
// ------
// Components embed their own `templates/*.html` and pass that fs.FS in.
// A set is the shared `layout.html` plus the one page file, so every page
// defines a "content" block and the layout wraps it:
//
//	{{ define "content" }} … {{ end }}
//
// Pages that only render a fragment (no layout) define a template named
// after the file and set Page.Bare.
//
// Style
// -----
// • Oxford commas, two spaces after periods.

package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"

	"github.com/orvsd/central/internal/routing"
)

//go:embed templates/*.html
var layoutFS embed.FS

// Parsed template sets; tweak capacity when perf-testing.
const cacheSize = 128

// Engine renders pages.  It is safe for concurrent use.
type Engine struct {
	cache *lru.Cache
	funcs template.FuncMap
	log   *zap.SugaredLogger

	// NoCache re-parses on every render.  Useful while editing templates.
	NoCache bool
}

// New returns an Engine with the standard func map.
func New(log *zap.SugaredLogger) *Engine {
	if log == nil {
		log = zap.S()
	}
	c, _ := lru.New(cacheSize) // only fails for size <= 0
	return &Engine{cache: c, funcs: funcMap(), log: log.Named("view")}
}

// Render executes page `name` from comp's fsys and streams it to w.
// Output is buffered so a template error never leaves a half-written
// page; the caller gets the error and w is untouched.
func (e *Engine) Render(w http.ResponseWriter, comp string, fsys fs.FS, name string, p *Page) error {
	html, err := e.RenderToString(comp, fsys, name, p)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if p.Status != 0 {
		w.WriteHeader(p.Status)
	}
	_, err = w.Write([]byte(html))
	return err
}

// RenderToString mirrors Render, but returns the HTML.
func (e *Engine) RenderToString(comp string, fsys fs.FS, name string, p *Page) (template.HTML, error) {
	t, err := e.load(comp, fsys, name)
	if err != nil {
		return "", err
	}
	root := "layout"
	if p.Bare {
		root = name
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, root, p); err != nil {
		return "", fmt.Errorf("view %s/%s: %w", comp, name, err)
	}
	return template.HTML(buf.String()), nil
}

// load returns the parsed set for comp/name, from cache when possible.
func (e *Engine) load(comp string, fsys fs.FS, name string) (*template.Template, error) {
	key := comp + "::" + name
	if !e.NoCache {
		if v, ok := e.cache.Get(key); ok {
			return v.(*template.Template), nil
		}
	}

	t, err := template.New(name).Funcs(e.funcs).ParseFS(layoutFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	if t, err = t.ParseFS(fsys, "templates/"+name+".html"); err != nil {
		return nil, fmt.Errorf("parse %s/%s: %w", comp, name, err)
	}

	if !e.NoCache {
		e.cache.Add(key, t)
	}
	e.log.Debugw("template parsed", "component", comp, "name", name)
	return t, nil
}

//
// func-map
//

func funcMap() template.FuncMap {
	return template.FuncMap{
		"dict":   dict,
		"anchor": routing.Anchor,
		"join":   strings.Join,
		"comma":  comma,
		"ago":    ago,
		"date":   date,
	}
}

// dict builds a map in templates: {{ dict "k" 1 "k2" "v" }}.
func dict(kv ...any) map[string]any {
	m := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		m[key] = kv[i+1]
	}
	return m
}

// comma formats any integer with thousands separators.
func comma(v any) string {
	switch n := v.(type) {
	case int:
		return humanize.Comma(int64(n))
	case int32:
		return humanize.Comma(int64(n))
	case int64:
		return humanize.Comma(n)
	case uint64:
		return humanize.Comma(int64(n))
	default:
		return fmt.Sprint(v)
	}
}

// ago renders "3 days ago"; the zero time renders "never".
func ago(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}

func date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04")
}
