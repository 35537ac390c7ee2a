// Package models defines the domain types for cardgrid.
package models

// StyleHint tints a card based on its label.
type StyleHint string

// Style hints.
const (
	StyleNone     StyleHint = "none"
	StylePositive StyleHint = "positive"
	StyleNegative StyleHint = "negative"
)

// CardKind tells the renderer which front/back layout a card uses.
type CardKind string

// Card kinds.
const (
	KindValue    CardKind = "value"
	KindTitle    CardKind = "title"
	KindSummary  CardKind = "summary"
	KindHeadings CardKind = "headings"
	KindLink     CardKind = "link"
	KindError    CardKind = "error"
	KindRating   CardKind = "rating"
	KindFeedback CardKind = "feedback"
)

// Card is one rendered unit: a compact front face and a detailed back face.
// Cards are built once per extraction and never mutated afterwards.
type Card struct {
	Label        string    `json:"label"`
	Preview      string    `json:"preview"`
	Detail       string    `json:"detail"`
	Preformatted bool      `json:"preformatted"`
	Style        StyleHint `json:"style"`
	Kind         CardKind  `json:"kind"`
	Link         *Link     `json:"link,omitempty"`
	Control      *Control  `json:"control,omitempty"`
}

// Link is an outbound Markdown link found in a document.
type Link struct {
	Text string `json:"text"`
	URL  string `json:"url"`
	Host string `json:"host"`
}

// Control describes an interactive element nested inside a card face.
// NonPropagating controls must not flip the card they sit on.
type Control struct {
	Kind           CardKind `json:"kind"`
	Identifier     string   `json:"identifier"`
	Rating         *int     `json:"rating,omitempty"`
	Feedback       string   `json:"feedback"`
	NonPropagating bool     `json:"non_propagating"`
}
