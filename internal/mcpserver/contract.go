package mcpserver

// CardFormatContract describes the card records every projection tool
// returns, so LLM consumers can read them without guessing.
const CardFormatContract = `# cardgrid Card Format

Every projection tool returns a JSON object:

` + "```" + `json
{
  "cards": [ ... ],
  "status": "Loaded",
  "identifier": "https://example.com/fund",
  "raw": "..."
}
` + "```" + `

- ` + "`status`" + ` is "Loaded" on success and "Error: <message>" on failure.
- ` + "`identifier`" + ` is the normalized URL used for annotations (page and analysis tools only).
- ` + "`raw`" + ` carries the pretty-printed analysis response (analysis tool only).

## Card fields

| Field | Meaning |
|---|---|
| label | Short name shown on the card front |
| preview | One line, at most 80 characters, whitespace collapsed, "..." when shortened |
| detail | Full content shown on the card back |
| preformatted | true when detail is pretty-printed JSON or a "- item" list |
| style | "positive" for pro/pros labels, "negative" for con/cons, otherwise "none" |
| kind | value, title, summary, headings, link, error, rating or feedback |
| link | {text, url, host} on link cards |
| control | {kind, identifier, rating, feedback, non_propagating} on rating and feedback cards |

## Rules

1. Cards keep source order. JSON object keys are never re-sorted and duplicate keys give one card each.
2. A JSON array yields cards labelled "0", "1", ...; a scalar yields a single "value" card.
3. A page summary emits Title, Summary, Headings (at most 6) and up to 6 Link cards, skipping missing sections.
4. A failed request yields exactly one card with kind "error".
5. Ratings are whole numbers from 1 to 5. Feedback is plain text up to 5000 characters.
6. Annotation tools normalize ` + "`id`" + ` like a page URL ("Example.com/fund" and
   "https://example.com/fund" are the same item) and return {id, rating, feedback, cards}.
`
