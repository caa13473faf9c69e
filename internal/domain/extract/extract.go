// Package extract turns free-text job descriptions into required skills and
// years of experience.
package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// yearsPattern matches "N+ years", "N-M years", "N to M years" and
// "N years (of) experience". Only the leading N is captured.
var yearsPattern = regexp.MustCompile(
	`(?i)\b(\d{1,2})\s*(?:\+\s*years?|(?:-|–|to)\s*\d{1,2}\+?\s*years?|years?\s+(?:of\s+)?experience)`,
)

// Option applies a configuration option to the Extractor.
type Option func(*Extractor)

// WithVocabulary replaces the default vocabulary.
func WithVocabulary(v Vocabulary) Option {
	return func(e *Extractor) {
		e.vocab = v
	}
}

// Extractor holds the immutable configuration used for extraction.
type Extractor struct {
	vocab Vocabulary
}

// New creates an Extractor using the default vocabulary unless overridden.
func New(opts ...Option) *Extractor {
	e := &Extractor{vocab: DefaultVocabulary()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Vocabulary returns the vocabulary in use.
func (e *Extractor) Vocabulary() Vocabulary { return e.vocab }

// ExtractSkills returns the vocabulary tokens contained in text, compared
// case-insensitively as substrings, in vocabulary order. The result is never nil.
func (e *Extractor) ExtractSkills(text string) []string {
	found := make([]string, 0)
	if text == "" {
		return found
	}
	lower := strings.ToLower(text)
	for _, token := range e.vocab.tokens {
		if strings.Contains(lower, token) {
			found = append(found, token)
		}
	}
	return found
}

// ExtractYears returns the smallest experience threshold stated in text, or 0
// when none is found.
func (e *Extractor) ExtractYears(text string) int {
	minYears := -1
	for _, m := range yearsPattern.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if minYears < 0 || n < minYears {
			minYears = n
		}
	}
	if minYears < 0 {
		return 0
	}
	return minYears
}
