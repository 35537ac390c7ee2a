package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/starford/cardgrid/internal/pipeline"
)

// Handler holds API route handlers.
type Handler struct {
	svc *pipeline.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *pipeline.Service) *Handler {
	return &Handler{svc: svc}
}

// ProjectJSON handles POST /api/cards/json.
//
//	@Summary		Project a JSON value into cards
//	@Tags			cards
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ProjectJSONRequest	true	"Raw JSON text"
//	@Success		200		{object}	CardsResponse
//	@Failure		400		{object}	errResponse
//	@Failure		422		{object}	CardsResponse
//	@Security		BearerAuth
//	@Router			/cards/json [post]
func (h *Handler) ProjectJSON(w http.ResponseWriter, r *http.Request) {
	var req ProjectJSONRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	res := h.svc.ProjectJSON(r.Context(), req.JSON)
	writeJSON(w, statusFor(res.Err), res)
}

// SummarizePage handles POST /api/cards/page.
//
//	@Summary		Fetch a page and summarize it into cards
//	@Tags			cards
//	@Accept			json
//	@Produce		json
//	@Param			body	body		URLRequest	true	"Page URL"
//	@Success		200		{object}	CardsResponse
//	@Failure		400		{object}	errResponse
//	@Failure		429		{object}	CardsResponse
//	@Failure		502		{object}	CardsResponse
//	@Security		BearerAuth
//	@Router			/cards/page [post]
func (h *Handler) SummarizePage(w http.ResponseWriter, r *http.Request) {
	var req URLRequest
	if !h.decodeURL(w, r, &req) {
		return
	}
	res := h.svc.SummarizePage(r.Context(), req.URL)
	writeJSON(w, statusFor(res.Err), res)
}

// Analyze handles POST /api/analysis.
//
//	@Summary		Submit a URL to the analysis API
//	@Tags			cards
//	@Accept			json
//	@Produce		json
//	@Param			body	body		URLRequest	true	"Product URL"
//	@Success		200		{object}	CardsResponse
//	@Failure		400		{object}	errResponse
//	@Failure		429		{object}	CardsResponse
//	@Failure		502		{object}	CardsResponse
//	@Security		BearerAuth
//	@Router			/analysis [post]
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req URLRequest
	if !h.decodeURL(w, r, &req) {
		return
	}
	res := h.svc.Analyze(r.Context(), req.URL)
	writeJSON(w, statusFor(res.Err), res)
}

func (h *Handler) decodeURL(w http.ResponseWriter, r *http.Request, req *URLRequest) bool {
	if err := decodeJSON(w, r, req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return false
	}
	return true
}

// GetAnnotation handles GET /api/annotations.
//
//	@Summary		Get the rating and feedback for an identifier
//	@Tags			annotations
//	@Produce		json
//	@Param			id	query		string	true	"Identifier"
//	@Success		200	{object}	AnnotationResponse
//	@Failure		400	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/annotations [get]
func (h *Handler) GetAnnotation(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if strings.TrimSpace(id) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("id is required"))
		return
	}
	view, err := h.svc.Annotation(r.Context(), id)
	if err != nil {
		writeJSON(w, statusFor(err), errorBody(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Rate handles PUT /api/annotations/rating.
//
//	@Summary		Rate an identifier from 1 to 5
//	@Tags			annotations
//	@Accept			json
//	@Produce		json
//	@Param			body	body		RatingRequest	true	"Rating"
//	@Success		200		{object}	AnnotationResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/annotations/rating [put]
func (h *Handler) Rate(w http.ResponseWriter, r *http.Request) {
	var req RatingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	view, err := h.svc.Rate(r.Context(), req.ID, req.Rating)
	if err != nil {
		slog.Info("rate rejected", slog.String("id", req.ID), slog.String("error", err.Error()))
		writeJSON(w, statusFor(err), errorBody(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// SaveFeedback handles PUT /api/annotations/feedback.
//
//	@Summary		Save free-text feedback for an identifier
//	@Tags			annotations
//	@Accept			json
//	@Produce		json
//	@Param			body	body		FeedbackRequest	true	"Feedback"
//	@Success		200		{object}	AnnotationResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/annotations/feedback [put]
func (h *Handler) SaveFeedback(w http.ResponseWriter, r *http.Request) {
	var req FeedbackRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	view, err := h.svc.SetFeedback(r.Context(), req.ID, req.Feedback)
	if err != nil {
		slog.Info("feedback rejected", slog.String("id", req.ID), slog.String("error", err.Error()))
		writeJSON(w, statusFor(err), errorBody(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, view)
}
