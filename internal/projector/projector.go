// Package projector turns an arbitrary JSON value into an ordered card sequence.
package projector

import (
	"bytes"
	"errors"
	"strconv"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	"github.com/starford/cardgrid/internal/apperr"
	"github.com/starford/cardgrid/internal/card"
	"github.com/starford/cardgrid/internal/models"
)

// scalarKey labels the single card produced for a top-level scalar.
const scalarKey = "value"

var indentOptions = &pretty.Options{Indent: "  "}

// ProjectJSON validates raw and projects it. Malformed input yields an
// *apperr.InputParseError and no cards.
func ProjectJSON(raw []byte) ([]models.Card, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, &apperr.InputParseError{Err: errors.New("empty input")}
	}
	if !gjson.ValidBytes(trimmed) {
		return nil, &apperr.InputParseError{Err: errors.New("malformed JSON")}
	}
	return Project(gjson.ParseBytes(trimmed)), nil
}

// Project emits one card per entry of v. Objects keep their source key order,
// arrays are keyed by index and scalars are wrapped as {"value": v}.
func Project(v gjson.Result) []models.Card {
	var out []models.Card
	emit := func(key string, value gjson.Result) {
		out = append(out, entryCard(key, value))
	}

	switch {
	case v.IsObject():
		v.ForEach(func(key, value gjson.Result) bool {
			emit(key.String(), value)
			return true
		})
	case v.IsArray():
		i := 0
		v.ForEach(func(_, value gjson.Result) bool {
			emit(strconv.Itoa(i), value)
			i++
			return true
		})
	default:
		emit(scalarKey, v)
	}
	return out
}

func entryCard(key string, value gjson.Result) models.Card {
	if value.IsObject() || value.IsArray() {
		return card.Structured(models.KindValue, key, Indent(value.Raw))
	}
	return card.Text(models.KindValue, key, scalarText(value))
}

// scalarText renders a scalar the way it reads in the source: strings are
// unescaped, null is "null", numbers and booleans keep their literal text.
func scalarText(v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		return v.String()
	case gjson.Null:
		return "null"
	default:
		return v.Raw
	}
}

// Indent pretty-prints a JSON document with a two-space indent and no
// trailing newline.
func Indent(raw string) string {
	out := pretty.PrettyOptions([]byte(raw), indentOptions)
	return string(bytes.TrimRight(out, "\n"))
}
