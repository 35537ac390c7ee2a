package api

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/cardgrid/internal/annotation"
	"github.com/starford/cardgrid/internal/models"
	"github.com/starford/cardgrid/internal/pipeline"
)

// ProjectJSONRequest is the request body for projecting raw JSON.
type ProjectJSONRequest struct {
	JSON string `json:"json" example:"{\"pros\":[\"low fees\"]}" validate:"required"`
}

// Validate validates the request.
func (r ProjectJSONRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.JSON, validation.Required),
	)
}

// URLRequest is the request body for page summaries and analyses.
type URLRequest struct {
	URL string `json:"url" example:"https://example.com/fund" validate:"required"`
}

// Validate validates the request.
func (r URLRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.URL, validation.Required, validation.By(validURL)),
	)
}

// RatingRequest is the request body for rating an identifier.
type RatingRequest struct {
	ID     string `json:"id" example:"https://example.com/fund" validate:"required"`
	Rating int    `json:"rating" example:"4" validate:"required"`
}

// Validate validates the request.
func (r RatingRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ID, validation.Required),
		validation.Field(&r.Rating, validation.Required, validation.Min(models.MinRating), validation.Max(models.MaxRating)),
	)
}

// FeedbackRequest is the request body for saving feedback. An empty
// feedback clears it.
type FeedbackRequest struct {
	ID       string `json:"id" example:"https://example.com/fund" validate:"required"`
	Feedback string `json:"feedback" example:"Fees look fine."`
}

// Validate validates the request.
func (r FeedbackRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ID, validation.Required),
		validation.Field(&r.Feedback, validation.RuneLength(0, annotation.MaxFeedbackLength)),
	)
}

// CardsResponse is returned by every projection endpoint.
type CardsResponse = pipeline.Result

// AnnotationResponse describes the stored annotation for a normalized
// identifier.
type AnnotationResponse = pipeline.AnnotationView

func validURL(value any) error {
	s, _ := value.(string)
	if _, err := pipeline.NormalizeIdentifier(s); err != nil {
		return errors.New("must be an http or https URL")
	}
	return nil
}
