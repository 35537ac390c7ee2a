package models

// Rating bounds.
const (
	MinRating = 1
	MaxRating = 5
)

// Annotation is the user's persisted rating and feedback for one identifier.
// A nil Rating and an empty Feedback both mean "not annotated yet".
type Annotation struct {
	Rating   *int   `json:"rating"`
	Feedback string `json:"feedback"`
}

// ValidRating reports whether n is inside the accepted rating range.
func ValidRating(n int) bool {
	return n >= MinRating && n <= MaxRating
}

// Clone returns a copy that shares no memory with a.
func (a Annotation) Clone() Annotation {
	out := Annotation{Feedback: a.Feedback}
	if a.Rating != nil {
		r := *a.Rating
		out.Rating = &r
	}
	return out
}
