// Package textutil provides text processing utilities for incident reports.
package textutil

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// Token length bounds (in characters) for learning tokens.
const (
	MinTokenLength = 2
	MaxTokenLength = 20
)

// Segmenter splits text into words. Implementations must be deterministic.
type Segmenter interface {
	Cut(text string) []string
}

// SegmenterFunc adapts a function to the Segmenter interface.
type SegmenterFunc func(text string) []string

// Cut calls f(text).
func (f SegmenterFunc) Cut(text string) []string { return f(text) }

// FieldsSegmenter splits on whitespace only. Useful when no dictionary is available.
var FieldsSegmenter = SegmenterFunc(strings.Fields)

var folder = cases.Fold()

// Fold case-folds text. Keyword matching and tokenization use the same folding
// so that dictionary keys and documents agree.
func Fold(text string) string {
	return folder.String(text)
}

var (
	newlineRe    = regexp.MustCompile(`[\n\r]`)
	multiSpaceRe = regexp.MustCompile(`\s{2,}`)
)

// NormalizeWhitespaces replaces newlines and multiple whitespace with a single space.
func NormalizeWhitespaces(text string) string {
	text = newlineRe.ReplaceAllString(text, " ")
	return multiSpaceRe.ReplaceAllString(text, " ")
}

// Truncate returns at most n characters of text.
func Truncate(text string, n int) string {
	if n < 0 || utf8.RuneCountInString(text) <= n {
		return text
	}
	i := 0
	for pos := range text {
		if i == n {
			return text[:pos]
		}
		i++
	}
	return text
}

var (
	asciiWordRe   = regexp.MustCompile(`[a-z]{3,}`)
	digitPrefixRe = regexp.MustCompile(`\b\d{2,}[a-z\p{Han}]+`)
)

// Tokenizer produces learning tokens: segmenter output augmented with ASCII
// words and digit-prefixed tokens such as "588轮", minus stopwords
// and tokens outside the length bounds.
type Tokenizer struct {
	seg   Segmenter
	stops *StopWords
}

// NewTokenizer creates a Tokenizer. A nil segmenter falls back to FieldsSegmenter,
// nil stopwords to DefaultStopWords().
func NewTokenizer(seg Segmenter, stops *StopWords) *Tokenizer {
	if seg == nil {
		seg = FieldsSegmenter
	}
	if stops == nil {
		stops = DefaultStopWords()
	}
	return &Tokenizer{seg: seg, stops: stops}
}

// Tokens returns learning tokens for normalized text, in document order.
// Repeated occurrences are kept.
func (t *Tokenizer) Tokens(text string) []string {
	var tokens []string
	for _, w := range t.seg.Cut(text) {
		w = Fold(strings.TrimSpace(w))
		if w == "" || isDigits(w) || !hasWordRune(w) {
			continue
		}
		if t.keep(w) {
			tokens = append(tokens, w)
		}
	}

	folded := Fold(text)
	for _, w := range asciiWordRe.FindAllString(folded, -1) {
		if t.keep(w) {
			tokens = append(tokens, w)
		}
	}
	for _, w := range digitPrefixRe.FindAllString(folded, -1) {
		if t.keep(w) {
			tokens = append(tokens, w)
		}
	}
	return tokens
}

func (t *Tokenizer) keep(w string) bool {
	if t.stops.Contains(w) {
		return false
	}
	n := utf8.RuneCountInString(w)
	return n >= MinTokenLength && n <= MaxTokenLength
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

func hasWordRune(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			return true
		}
	}
	return false
}
