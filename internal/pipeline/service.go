// Package pipeline routes one input through exactly one projector or
// extractor and appends the annotation cards for its identifier.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/semaphore"

	"github.com/starford/cardgrid/internal/annotation"
	"github.com/starford/cardgrid/internal/apperr"
	"github.com/starford/cardgrid/internal/card"
	"github.com/starford/cardgrid/internal/extractor"
	"github.com/starford/cardgrid/internal/fetch"
	"github.com/starford/cardgrid/internal/models"
	"github.com/starford/cardgrid/internal/projector"
)

// Status lines reported with every result.
const (
	StatusLoaded = "Loaded"
	StatusBusy   = "Busy: a request is already in progress"
)

// Remediation is appended to fetch failures.
const Remediation = "Check the URL and try again."

// Annotation event kinds passed to the notifier.
const (
	EventRated    = "annotation.rated"
	EventFeedback = "annotation.feedback"
	EventChanged  = "annotation.changed"
)

// PageFetcher retrieves a page as Markdown-like text.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*fetch.Page, error)
}

// Analyzer submits a source to the analysis API.
type Analyzer interface {
	Analyze(ctx context.Context, source string) (string, error)
}

// Notifier receives annotation change events.
type Notifier func(kind, identifier string)

// Result is the outcome of one pipeline run. On failure Cards holds exactly
// one error card (or none when the request was refused as busy) and Err is set.
type Result struct {
	Cards      []models.Card `json:"cards"`
	Status     string        `json:"status"`
	Identifier string        `json:"identifier,omitempty"`
	Raw        string        `json:"raw,omitempty"`
	Err        error         `json:"-"`
}

// Service coordinates fetching, extraction and annotations.
type Service struct {
	fetcher     PageFetcher
	analyzer    Analyzer
	annotations *annotation.Store
	gate        *semaphore.Weighted
	notify      Notifier
	logger      *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithMaxInFlight sets how many fetch-type runs may be in progress at once.
func WithMaxInFlight(n int64) Option {
	return func(s *Service) {
		if n > 0 {
			s.gate = semaphore.NewWeighted(n)
		}
	}
}

// WithNotifier registers a callback for annotation changes.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notify = n
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates a new pipeline service.
func NewService(fetcher PageFetcher, analyzer Analyzer, annotations *annotation.Store, opts ...Option) *Service {
	s := &Service{
		fetcher:     fetcher,
		analyzer:    analyzer,
		annotations: annotations,
		gate:        semaphore.NewWeighted(1),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProjectJSON projects raw JSON text into cards.
func (s *Service) ProjectJSON(_ context.Context, raw string) Result {
	cards, err := projector.ProjectJSON([]byte(raw))
	if err != nil {
		s.logger.Info("json projection rejected", slog.String("error", err.Error()))
		return failure(err, err.Error())
	}
	return Result{Cards: nonNil(cards), Status: StatusLoaded}
}

// SummarizePage fetches rawURL, extracts its summary cards and appends the
// annotation cards for the normalized URL.
func (s *Service) SummarizePage(ctx context.Context, rawURL string) Result {
	if !s.gate.TryAcquire(1) {
		return busy()
	}
	defer s.gate.Release(1)

	id, err := NormalizeIdentifier(rawURL)
	if err != nil {
		return fetchFailure(&apperr.FetchError{URL: rawURL, Err: err})
	}

	page, err := s.fetcher.Fetch(ctx, id)
	if err != nil {
		s.logger.Warn("page fetch failed", slog.String("url", id), slog.String("error", err.Error()))
		return fetchFailure(err)
	}

	cards := extractor.Extract(page.Markdown)
	cards = append(cards, s.annotations.Cards(id)...)
	s.logger.Info("page summarized",
		slog.String("url", id),
		slog.String("checksum", page.Checksum),
		slog.Int("cards", len(cards)))
	return Result{Cards: nonNil(cards), Status: StatusLoaded, Identifier: id}
}

// Analyze submits rawURL to the analysis API. The response is returned
// verbatim in Raw; Cards holds only the annotation cards for the URL.
func (s *Service) Analyze(ctx context.Context, rawURL string) Result {
	if !s.gate.TryAcquire(1) {
		return busy()
	}
	defer s.gate.Release(1)

	id, err := NormalizeIdentifier(rawURL)
	if err != nil {
		return fetchFailure(&apperr.FetchError{URL: rawURL, Err: err})
	}

	out, err := s.analyzer.Analyze(ctx, id)
	if err != nil {
		s.logger.Warn("analysis failed", slog.String("url", id), slog.String("error", err.Error()))
		return fetchFailure(err)
	}
	return Result{
		Cards:      nonNil(s.annotations.Cards(id)),
		Status:     StatusLoaded,
		Identifier: id,
		Raw:        out,
	}
}

// AnnotationView is the annotation stored under one normalized identifier,
// with the cards that present it.
type AnnotationView struct {
	ID       string        `json:"id" example:"https://example.com/fund"`
	Rating   *int          `json:"rating" example:"4"`
	Feedback string        `json:"feedback" example:"Fees look fine."`
	Cards    []models.Card `json:"cards"`
}

// Annotation returns the stored annotation for id.
func (s *Service) Annotation(_ context.Context, id string) (AnnotationView, error) {
	key, err := annotationID(id)
	if err != nil {
		return AnnotationView{}, err
	}
	return s.view(key, s.annotations.Load(key)), nil
}

// AnnotationCards returns the rating and feedback cards for id.
func (s *Service) AnnotationCards(_ context.Context, id string) ([]models.Card, error) {
	key, err := annotationID(id)
	if err != nil {
		return nil, err
	}
	return nonNil(s.annotations.Cards(key)), nil
}

// Rate stores a rating for id.
func (s *Service) Rate(_ context.Context, id string, rating int) (AnnotationView, error) {
	key, err := annotationID(id)
	if err != nil {
		return AnnotationView{}, err
	}
	rec, err := s.annotations.Rate(key, rating)
	if err != nil {
		return AnnotationView{}, err
	}
	s.publish(EventRated, key)
	return s.view(key, rec), nil
}

// SetFeedback stores feedback text for id.
func (s *Service) SetFeedback(_ context.Context, id, text string) (AnnotationView, error) {
	key, err := annotationID(id)
	if err != nil {
		return AnnotationView{}, err
	}
	rec, err := s.annotations.SetFeedback(key, text)
	if err != nil {
		return AnnotationView{}, err
	}
	s.publish(EventFeedback, key)
	return s.view(key, rec), nil
}

func (s *Service) view(id string, rec models.Annotation) AnnotationView {
	return AnnotationView{
		ID:       id,
		Rating:   rec.Rating,
		Feedback: rec.Feedback,
		Cards:    nonNil(s.annotations.Cards(id)),
	}
}

// annotationID normalizes a caller-supplied identifier the same way page and
// analysis runs do, so annotations land on the key their cards read.
func annotationID(id string) (string, error) {
	key, err := NormalizeIdentifier(id)
	if err != nil {
		return "", fmt.Errorf("%w: %s", apperr.ErrInvalidArgument, err.Error())
	}
	return key, nil
}

// ExternalChange handles a backend key edited outside this process.
func (s *Service) ExternalChange(kind, key string) {
	id, ok := s.annotations.Identifier(key)
	if !ok {
		return
	}
	s.annotations.Evict(id)
	s.logger.Info("annotation changed externally", slog.String("id", id), slog.String("kind", kind))
	s.publish(EventChanged, id)
}

func (s *Service) publish(kind, id string) {
	if s.notify != nil {
		s.notify(kind, id)
	}
}

func failure(err error, message string) Result {
	return Result{
		Cards:  []models.Card{card.Error(message)},
		Status: "Error: " + message,
		Err:    err,
	}
}

func fetchFailure(err error) Result {
	var fe *apperr.FetchError
	if !errors.As(err, &fe) {
		err = &apperr.FetchError{Err: err}
	}
	return failure(err, fmt.Sprintf("%s. %s", err.Error(), Remediation))
}

func busy() Result {
	return Result{Cards: []models.Card{}, Status: StatusBusy, Err: apperr.ErrBusy}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
