// Package render draws cards as a server-rendered HTML grid of flip cards.
package render

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"

	"github.com/starford/cardgrid/internal/models"
)

//go:embed templates/grid.html
var gridHTML string

//go:embed static/app.js
var appJS []byte

//go:embed static/style.css
var styleCSS []byte

// Input modes shown on the page.
const (
	ModeJSON     = "json"
	ModePage     = "page"
	ModeAnalysis = "analysis"
)

// View is everything the grid page shows.
type View struct {
	Mode       string
	Status     string
	JSONInput  string
	URLInput   string
	Identifier string
	Raw        string
	Cards      []models.Card
}

// Renderer renders the grid page.
type Renderer struct {
	tmpl   *template.Template
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	r := &Renderer{
		md:     goldmark.New(),
		policy: bluemonday.UGCPolicy(),
	}
	tmpl, err := template.New("grid").Funcs(template.FuncMap{
		"markdown":   r.Markdown,
		"styleClass": styleClass,
		"stars":      stars,
		"checked":    checked,
	}).Parse(gridHTML)
	if err != nil {
		return nil, fmt.Errorf("render: parse templates: %w", err)
	}
	r.tmpl = tmpl
	return r, nil
}

// Page writes the full grid page for v.
func (r *Renderer) Page(w io.Writer, v View) error {
	if v.Mode == "" {
		v.Mode = ModeJSON
	}
	if err := r.tmpl.Execute(w, v); err != nil {
		return fmt.Errorf("render: execute: %w", err)
	}
	return nil
}

// Markdown converts Markdown to sanitized HTML. On conversion failure the
// source is shown escaped.
func (r *Renderer) Markdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		slog.Debug("markdown conversion failed", slog.String("error", err.Error()))
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(r.policy.SanitizeBytes(buf.Bytes()))
}

// Static serves the embedded script and stylesheet under /static/.
func Static() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/static/app.js", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		_, _ = w.Write(appJS)
	})
	mux.HandleFunc("/static/style.css", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/css; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		_, _ = w.Write(styleCSS)
	})
	return mux
}

func styleClass(s models.StyleHint) string {
	switch s {
	case models.StylePositive:
		return "card-pro"
	case models.StyleNegative:
		return "card-con"
	default:
		return ""
	}
}

// stars lists the selectable rating values.
func stars() []int {
	out := make([]int, 0, models.MaxRating)
	for n := models.MinRating; n <= models.MaxRating; n++ {
		out = append(out, n)
	}
	return out
}

func checked(rating *int, n int) bool {
	return rating != nil && *rating == n
}
