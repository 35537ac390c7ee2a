package api

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/cardgrid/internal/pipeline"
	"github.com/starford/cardgrid/internal/render"
)

// ViewHandler serves the HTML card grid.
type ViewHandler struct {
	svc      *pipeline.Service
	renderer *render.Renderer
}

// NewViewRouter creates the routes for the HTML grid and its forms.
func NewViewRouter(svc *pipeline.Service, renderer *render.Renderer) chi.Router {
	v := &ViewHandler{svc: svc, renderer: renderer}

	r := chi.NewRouter()
	r.Get("/", v.Index)
	r.Post("/view/json", v.ProjectJSON)
	r.Get("/view/page", v.SummarizePage)
	r.Post("/view/page", v.SummarizePage)
	r.Get("/view/analysis", v.Analyze)
	r.Post("/view/analysis", v.Analyze)
	r.Post("/view/annotations", v.Annotate)
	r.Handle("/static/*", render.Static())
	return r
}

// Index renders the empty grid with the input forms.
func (v *ViewHandler) Index(w http.ResponseWriter, _ *http.Request) {
	v.page(w, http.StatusOK, render.View{})
}

// ProjectJSON renders the cards for the submitted JSON text.
func (v *ViewHandler) ProjectJSON(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	raw := r.PostFormValue("json")
	res := v.svc.ProjectJSON(r.Context(), raw)
	v.page(w, statusFor(res.Err), render.View{
		Mode:      render.ModeJSON,
		Status:    res.Status,
		JSONInput: raw,
		Cards:     res.Cards,
	})
}

// SummarizePage renders the summary cards for the submitted URL.
func (v *ViewHandler) SummarizePage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	raw := r.FormValue("url")
	res := v.svc.SummarizePage(r.Context(), raw)
	v.page(w, statusFor(res.Err), render.View{
		Mode:       render.ModePage,
		Status:     res.Status,
		URLInput:   raw,
		Identifier: res.Identifier,
		Cards:      res.Cards,
	})
}

// Analyze renders the analysis output for the submitted URL.
func (v *ViewHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	raw := r.FormValue("url")
	res := v.svc.Analyze(r.Context(), raw)
	v.page(w, statusFor(res.Err), render.View{
		Mode:       render.ModeAnalysis,
		Status:     res.Status,
		URLInput:   raw,
		Identifier: res.Identifier,
		Raw:        res.Raw,
		Cards:      res.Cards,
	})
}

// Annotate applies a rating or feedback form submission and redirects back
// to the grid the form came from.
func (v *ViewHandler) Annotate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	id := r.PostFormValue("id")

	var (
		view pipeline.AnnotationView
		err  error
	)
	if rating := r.PostFormValue("rating"); rating != "" {
		n, convErr := strconv.Atoi(rating)
		if convErr != nil {
			http.Error(w, "rating must be a number", http.StatusBadRequest)
			return
		}
		view, err = v.svc.Rate(r.Context(), id, n)
	} else {
		view, err = v.svc.SetFeedback(r.Context(), id, r.PostFormValue("feedback"))
	}
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	http.Redirect(w, r, returnPath(r.PostFormValue("return"), view.ID), http.StatusSeeOther)
}

func returnPath(mode, id string) string {
	mode = strings.TrimSpace(mode)
	switch mode {
	case render.ModePage, render.ModeAnalysis:
		return "/view/" + mode + "?url=" + url.QueryEscape(id)
	default:
		return "/"
	}
}

func (v *ViewHandler) page(w http.ResponseWriter, status int, view render.View) {
	var buf bytes.Buffer
	if err := v.renderer.Page(&buf, view); err != nil {
		slog.Error("render page failed", slog.String("error", err.Error()))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
