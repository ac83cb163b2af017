// Package normalize turns raw headline and body text into cleaned token
// sequences for the representation pipeline.
//
// Normalization is deliberately simple: lowercase, split on non-letter runs,
// drop stopwords and fragments. Both the topic model and the encoder see the
// same token stream, so the rules here must stay stable across releases.
package normalize

import (
	"strings"
	"unicode"
)

// SpanKind identifies which part of an article a document was built from.
type SpanKind string

const (
	SpanHeadline SpanKind = "headline"
	SpanBody     SpanKind = "body"
)

// Document is an immutable normalized view of one text span.
type Document struct {
	Raw    string
	Tokens []string
	Span   SpanKind
}

// NewDocument tokenizes raw text into a Document for the given span.
// An empty or all-stopword input yields a valid Document with zero tokens.
func NewDocument(raw string, span SpanKind) Document {
	return Document{
		Raw:    raw,
		Tokens: Tokenize(raw),
		Span:   span,
	}
}

// Empty reports whether the document carries no usable tokens.
func (d Document) Empty() bool {
	return len(d.Tokens) == 0
}

// Tokenize lowercases the input, splits on non-letter runs, and drops
// stopwords and single-letter fragments.
func Tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, "'")
		if len(f) < 2 {
			continue
		}
		if _, stop := stopwords[f]; stop {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// stopwords is a small English function-word list. Intentionally short:
// over-aggressive removal starves the topic model of evidence on headlines,
// which are only a handful of tokens to begin with.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"but": {}, "by": {}, "for": {}, "from": {}, "has": {}, "had": {},
	"have": {}, "he": {}, "her": {}, "his": {}, "in": {}, "is": {}, "it": {},
	"its": {}, "of": {}, "on": {}, "or": {}, "that": {}, "the": {},
	"their": {}, "them": {}, "they": {}, "to": {}, "was": {}, "were": {},
	"will": {}, "with": {}, "she": {}, "we": {}, "you": {}, "your": {},
	"i'm": {}, "it's": {}, "not": {}, "no": {}, "so": {}, "do": {},
	"does": {}, "did": {}, "been": {}, "being": {}, "than": {}, "then": {},
	"there": {}, "who": {}, "whom": {}, "which": {}, "into": {}, "over": {},
	"after": {}, "before": {}, "about": {}, "up": {}, "down": {}, "out": {},
	"if": {}, "while": {}, "because": {}, "can": {}, "could": {},
	"would": {}, "should": {}, "may": {}, "might": {}, "also": {},
}
