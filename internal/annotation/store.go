// Package annotation keeps the user's rating and feedback per content
// identifier on top of a storage.Provider.
//
// The store never surfaces persistence problems: unreadable or corrupt data
// loads as an empty annotation and failed writes are logged and dropped. The
// in-memory copy is what the running process serves either way.
package annotation

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/starford/cardgrid/internal/apperr"
	"github.com/starford/cardgrid/internal/models"
	"github.com/starford/cardgrid/internal/storage"
)

// DefaultKeyPrefix namespaces annotation keys inside a shared backend.
const DefaultKeyPrefix = "cardgrid:annotation:"

// MaxFeedbackLength bounds feedback text, in runes.
const MaxFeedbackLength = 5000

// Store maps identifiers to annotations. Identifiers are used verbatim;
// callers normalize them before Load and Save.
type Store struct {
	backend storage.Provider
	prefix  string
	logger  *slog.Logger

	mu    sync.Mutex
	cache map[string]models.Annotation
}

// Option configures a Store.
type Option func(*Store)

// WithPrefix overrides DefaultKeyPrefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithLogger sets the logger used for swallowed persistence errors.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a Store over backend.
func New(backend storage.Provider, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		prefix:  DefaultKeyPrefix,
		logger:  slog.Default(),
		cache:   make(map[string]models.Annotation),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the backend key for id.
func (s *Store) Key(id string) string {
	return s.prefix + id
}

// Identifier reverses Key. ok is false for keys outside this store's namespace.
func (s *Store) Identifier(key string) (id string, ok bool) {
	if !strings.HasPrefix(key, s.prefix) {
		return "", false
	}
	return strings.TrimPrefix(key, s.prefix), true
}

// Load returns the annotation for id, or an empty one.
func (s *Store) Load(id string) models.Annotation {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.cache[id]; ok {
		return rec.Clone()
	}
	rec := s.read(id)
	s.cache[id] = rec
	return rec.Clone()
}

func (s *Store) read(id string) models.Annotation {
	data, err := s.backend.Get(s.Key(id))
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			s.logger.Debug("annotation: read failed", slog.String("id", id), slog.String("error", err.Error()))
		}
		return models.Annotation{}
	}
	var rec models.Annotation
	if err := json.Unmarshal(data, &rec); err != nil {
		s.logger.Debug("annotation: corrupt record", slog.String("id", id), slog.String("error", err.Error()))
		return models.Annotation{}
	}
	if rec.Rating != nil && !models.ValidRating(*rec.Rating) {
		rec.Rating = nil
	}
	return rec
}

// Save records rec for id and persists it.
func (s *Store) Save(id string, rec models.Annotation) {
	rec = rec.Clone()
	s.mu.Lock()
	s.cache[id] = rec
	s.mu.Unlock()

	data, err := json.Marshal(rec)
	if err != nil {
		s.logger.Warn("annotation: encode failed", slog.String("id", id), slog.String("error", err.Error()))
		return
	}
	if err := s.backend.Set(s.Key(id), data); err != nil {
		s.logger.Warn("annotation: persist failed", slog.String("id", id), slog.String("error", err.Error()))
	}
}

// Rate sets the rating for id.
func (s *Store) Rate(id string, rating int) (models.Annotation, error) {
	if id == "" {
		return models.Annotation{}, fmt.Errorf("%w: identifier is required", apperr.ErrInvalidArgument)
	}
	if !models.ValidRating(rating) {
		return models.Annotation{}, fmt.Errorf("%w: rating must be between %d and %d",
			apperr.ErrInvalidArgument, models.MinRating, models.MaxRating)
	}
	rec := s.Load(id)
	rec.Rating = &rating
	s.Save(id, rec)
	return rec, nil
}

// SetFeedback replaces the feedback text for id. Surrounding whitespace is
// dropped; an empty text clears the feedback.
func (s *Store) SetFeedback(id, text string) (models.Annotation, error) {
	if id == "" {
		return models.Annotation{}, fmt.Errorf("%w: identifier is required", apperr.ErrInvalidArgument)
	}
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) > MaxFeedbackLength {
		return models.Annotation{}, fmt.Errorf("%w: feedback exceeds %d characters",
			apperr.ErrInvalidArgument, MaxFeedbackLength)
	}
	rec := s.Load(id)
	rec.Feedback = text
	s.Save(id, rec)
	return rec, nil
}

// Evict drops the cached record so the next Load reads the backend again.
func (s *Store) Evict(id string) {
	s.mu.Lock()
	delete(s.cache, id)
	s.mu.Unlock()
}
