// Package extractor summarizes Markdown-like text into a bounded set of cards:
// a title, a summary, a heading list and the outbound links.
package extractor

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/idna"

	"github.com/starford/cardgrid/internal/card"
	"github.com/starford/cardgrid/internal/models"
)

// Limits applied to the extracted sections.
const (
	MaxHeadings         = 6
	MaxLinks            = 6
	MaxSummaryParagraph = 2
	MinParagraphLength  = 80
)

var (
	titleRe     = regexp.MustCompile(`(?m)^# (.+)$`)
	headingRe   = regexp.MustCompile(`(?m)^(#{2,4}) (.+)$`)
	blankLineRe = regexp.MustCompile(`\n(?:[ \t\r]*\n)+`)
	linkRe      = regexp.MustCompile(`(!?)\[([^\]]*)\]\(\s*((?:[^()\s]|\([^()\s]*\))+)(?:\s+"[^"]*")?\s*\)`)
)

// Summary is the structured result of a document scan.
type Summary struct {
	Title    string
	Summary  string
	Headings []string
	Links    []models.Link
}

// Extract scans text and emits Title, Summary, Headings and one card per
// link, in that order. Sections that come up empty are left out.
func Extract(text string) []models.Card {
	return Summarize(text).Cards()
}

// Summarize runs every extraction step over the same input.
func Summarize(text string) Summary {
	return Summary{
		Title:    extractTitle(text),
		Summary:  extractSummary(text),
		Headings: extractHeadings(text),
		Links:    extractLinks(text),
	}
}

// Cards converts the summary to its card sequence.
func (s Summary) Cards() []models.Card {
	var out []models.Card
	if s.Title != "" {
		out = append(out, card.Text(models.KindTitle, "Title", s.Title))
	}
	if s.Summary != "" {
		out = append(out, card.Text(models.KindSummary, "Summary", s.Summary))
	}
	if len(s.Headings) > 0 {
		items := make([]string, len(s.Headings))
		for i, h := range s.Headings {
			items[i] = "- " + h
		}
		out = append(out, card.Structured(models.KindHeadings, "Headings", strings.Join(items, "\n")))
	}
	for _, l := range s.Links {
		out = append(out, linkCard(l))
	}
	return out
}

// extractTitle returns the first H1 heading, otherwise the start of the
// text. A blank H1 still counts as the heading and yields no title.
func extractTitle(text string) string {
	if m := titleRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return card.Preview(text)
}

// extractHeadings collects H2-H4 headings, deduplicated, in document order.
func extractHeadings(text string) []string {
	matches := headingRe.FindAllStringSubmatch(text, -1)
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		h := strings.TrimSpace(m[2])
		if h == "" {
			continue
		}
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
		if len(out) == MaxHeadings {
			break
		}
	}
	return out
}

// extractSummary joins the first long prose paragraphs.
func extractSummary(text string) string {
	var picked []string
	for _, p := range blankLineRe.Split(text, -1) {
		p = strings.TrimSpace(p)
		if strings.HasPrefix(p, "#") || utf8.RuneCountInString(p) < MinParagraphLength {
			continue
		}
		picked = append(picked, p)
		if len(picked) == MaxSummaryParagraph {
			break
		}
	}
	return strings.Join(picked, "\n\n")
}

// extractLinks returns absolute http(s) links deduplicated by URL. Images are
// not links. One level of balanced parentheses is allowed inside a target.
func extractLinks(text string) []models.Link {
	matches := linkRe.FindAllStringSubmatch(text, -1)
	seen := make(map[string]struct{}, len(matches))
	var out []models.Link
	for _, m := range matches {
		if m[1] == "!" {
			continue
		}
		target := m[3]
		if !strings.HasPrefix(target, "http") {
			continue
		}
		if _, ok := seen[target]; ok {
			continue
		}
		seen[target] = struct{}{}
		out = append(out, models.Link{
			Text: strings.TrimSpace(m[2]),
			URL:  target,
			Host: Hostname(target),
		})
		if len(out) == MaxLinks {
			break
		}
	}
	return out
}

// Hostname returns the display host of rawURL without a leading "www.".
// Anything that is not an absolute URL is returned as given.
func Hostname(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Hostname() == "" {
		return rawURL
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if display, err := idna.Display.ToUnicode(host); err == nil {
		host = display
	}
	return host
}

func linkCard(l models.Link) models.Card {
	suffix := fmt.Sprintf(" (%s)", l.Host)
	text := card.CollapseSpace(l.Text)

	var front string
	switch budget := card.PreviewLength - utf8.RuneCountInString(suffix); {
	case text == "":
		front = card.Truncate(l.Host, card.PreviewLength)
	case budget >= 10:
		front = card.Truncate(text, budget) + suffix
	default:
		front = card.Preview(text + suffix)
	}

	link := l
	return models.Card{
		Label:   "Link",
		Preview: front,
		Detail:  l.URL,
		Style:   models.StyleNone,
		Kind:    models.KindLink,
		Link:    &link,
	}
}
