package annotation

import (
	"fmt"
	"strings"

	"github.com/starford/cardgrid/internal/card"
	"github.com/starford/cardgrid/internal/models"
)

// Cards returns the Rating and Feedback cards for id. An empty id has no
// annotation cards.
func (s *Store) Cards(id string) []models.Card {
	if id == "" {
		return nil
	}
	rec := s.Load(id)
	return []models.Card{RatingCard(id, rec), FeedbackCard(id, rec)}
}

// RatingCard renders the rating control for rec.
func RatingCard(id string, rec models.Annotation) models.Card {
	detail := "Not rated yet"
	if rec.Rating != nil {
		n := *rec.Rating
		detail = fmt.Sprintf("%s %d/%d",
			strings.Repeat("★", n)+strings.Repeat("☆", models.MaxRating-n), n, models.MaxRating)
	}
	c := card.Text(models.KindRating, "Rating", detail)
	c.Control = control(models.KindRating, id, rec)
	return c
}

// FeedbackCard renders the feedback control for rec.
func FeedbackCard(id string, rec models.Annotation) models.Card {
	detail := rec.Feedback
	if detail == "" {
		detail = "No feedback yet"
	}
	c := card.Text(models.KindFeedback, "Feedback", detail)
	c.Control = control(models.KindFeedback, id, rec)
	return c
}

func control(kind models.CardKind, id string, rec models.Annotation) *models.Control {
	rec = rec.Clone()
	return &models.Control{
		Kind:           kind,
		Identifier:     id,
		Rating:         rec.Rating,
		Feedback:       rec.Feedback,
		NonPropagating: true,
	}
}
