// Package lexical extracts auxiliary headline features for the decision
// layer: the surface cues clickbait headlines lean on regardless of topic.
//
// Features are a fixed struct, not a map, so a typoed feature name is a
// compile error, not a silently ignored key.
package lexical

import (
	"strings"
	"unicode"
)

// Features is the fixed auxiliary feature record for one headline.
type Features struct {
	// HeadlineTokens is the normalized token count.
	HeadlineTokens float64
	// SensationalHits counts curated sensational-marker matches.
	SensationalHits float64
	// ForwardReferences counts "curiosity gap" words that point at
	// unrevealed content ("this", "what happened", "the reason").
	ForwardReferences float64
	// QuestionMarks and ExclamationMarks are raw punctuation counts.
	QuestionMarks    float64
	ExclamationMarks float64
	// AllCapsWords counts fully capitalized words of 3+ letters.
	AllCapsWords float64
}

// sensational markers, matched against lowercased raw headline text so
// multi-word phrases survive tokenization.
var sensational = []string{
	"you won't believe",
	"will blow your mind",
	"what happens next",
	"doctors hate",
	"shocking",
	"unbelievable",
	"jaw-dropping",
	"mind-blowing",
	"insane",
	"epic",
	"secret",
	"miracle",
	"must see",
	"must-see",
	"go viral",
	"number one reason",
	"one weird trick",
	"before it's too late",
	"changed everything",
	"the truth about",
}

// forwardRefs are single tokens that defer the headline's payoff.
var forwardRefs = map[string]struct{}{
	"this":   {},
	"these":  {},
	"here's": {},
	"why":    {},
	"how":    {},
	"what":   {},
	"reason": {},
	"thing":  {},
	"things": {},
}

// Extract computes the auxiliary features from the raw headline and its
// normalized tokens. Pure and deterministic.
func Extract(rawHeadline string, tokens []string) Features {
	lower := strings.ToLower(rawHeadline)

	f := Features{
		HeadlineTokens:   float64(len(tokens)),
		QuestionMarks:    float64(strings.Count(rawHeadline, "?")),
		ExclamationMarks: float64(strings.Count(rawHeadline, "!")),
	}

	for _, marker := range sensational {
		f.SensationalHits += float64(strings.Count(lower, marker))
	}

	for _, tok := range tokens {
		if _, ok := forwardRefs[tok]; ok {
			f.ForwardReferences++
		}
	}

	for _, word := range strings.Fields(rawHeadline) {
		if isAllCaps(word) {
			f.AllCapsWords++
		}
	}

	return f
}

// isAllCaps reports whether a word is 3+ letters, all uppercase.
func isAllCaps(word string) bool {
	letters := 0
	for _, r := range word {
		if !unicode.IsLetter(r) {
			continue
		}
		if !unicode.IsUpper(r) {
			return false
		}
		letters++
	}
	return letters >= 3
}
