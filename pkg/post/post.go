// Package post measures and cleans generated social media posts.
//
// Lengths follow the Bluesky counting rule: every URL counts as exactly
// [URLLength] characters regardless of its real length.
package post

import (
	"regexp"
	"strings"
	"unicode/utf16"
)

const (
	// MaxLength is the largest accepted display length.
	MaxLength = 280
	// URLLength is the number of characters a single URL counts for.
	URLLength = 27
)

var (
	urlPattern      = regexp.MustCompile(`https?://\S+`)
	urlPlaceholder  = strings.Repeat("x", URLLength)
	quoteCharacters = `"'`
)

// Length returns the display length of text. URLs are replaced by a
// fixed-width placeholder, then UTF-16 code units are counted, so a
// character outside the Basic Multilingual Plane (most emoji) counts as 2.
func Length(text string) int {
	n := 0
	for _, r := range urlPattern.ReplaceAllLiteralString(text, urlPlaceholder) {
		n += utf16.RuneLen(r)
	}
	return n
}

// Fits reports whether a display length is within MaxLength.
func Fits(length int) bool {
	return length <= MaxLength
}

// Sanitize removes one wrapping quote character from each end of text and
// trims surrounding whitespace. Leading and trailing quotes are stripped
// independently. The result is a fixed point: Sanitize(Sanitize(x)) equals
// Sanitize(x).
func Sanitize(text string) string {
	for {
		cleaned := strings.TrimSpace(stripQuotes(text))
		if cleaned == text {
			return cleaned
		}
		text = cleaned
	}
}

func stripQuotes(text string) string {
	if text != "" && strings.ContainsRune(quoteCharacters, rune(text[0])) {
		text = text[1:]
	}
	if text != "" && strings.ContainsRune(quoteCharacters, rune(text[len(text)-1])) {
		text = text[:len(text)-1]
	}
	return text
}

// Candidate is one generated post awaiting acceptance.
type Candidate struct {
	Raw    string // Text as returned by the model.
	Text   string // Sanitized text.
	Length int    // Display length of Text.
}

// NewCandidate sanitizes raw and measures the sanitized text.
func NewCandidate(raw string) Candidate {
	text := Sanitize(raw)
	return Candidate{
		Raw:    raw,
		Text:   text,
		Length: Length(text),
	}
}

// Fits reports whether the candidate is short enough to publish.
func (c Candidate) Fits() bool {
	return Fits(c.Length)
}
