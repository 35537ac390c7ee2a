package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/cardgrid/internal/pipeline"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *pipeline.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Projections.
	r.Post("/cards/json", h.ProjectJSON)
	r.Post("/cards/page", h.SummarizePage)
	r.Post("/analysis", h.Analyze)

	// Annotations.
	r.Get("/annotations", h.GetAnnotation)
	r.Put("/annotations/rating", h.Rate)
	r.Put("/annotations/feedback", h.SaveFeedback)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
