// Package chunk splits normalized text into utterance-sized pieces.
package chunk

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hyperifyio/webreader/internal/textnorm"
)

const (
	// DefaultLimit is used when a non-positive limit is passed to Split.
	DefaultLimit = 180
	MinLimit     = 60
	MaxLimit     = 500
)

// boundaries end a sentence. The boundary stays with the preceding sentence.
const boundaries = "。．！？!?\n"

// Clamp bounds a configured chunk size to [MinLimit, MaxLimit].
func Clamp(n int) int {
	if n < MinLimit {
		return MinLimit
	}
	if n > MaxLimit {
		return MaxLimit
	}
	return n
}

// Split normalizes text and packs its sentences greedily into chunks of at
// most limit runes. Packing counts the sentences alone; a separating space
// is added only where it fits. Order is preserved. A sentence longer than limit is emitted
// as consecutive hard slices of limit runes.
func Split(text string, limit int) []string {
	if limit <= 0 {
		limit = DefaultLimit
	}
	input := textnorm.Normalize(text)
	if input == "" {
		return nil
	}

	var chunks []string
	current := ""
	flush := func() {
		if v := textnorm.Normalize(current); v != "" {
			chunks = append(chunks, v)
		}
		current = ""
	}

	for _, sentence := range Sentences(input) {
		if textnorm.Len(sentence) > limit {
			flush()
			chunks = append(chunks, hardSlice(sentence, limit)...)
			continue
		}
		if current == "" {
			current = sentence
			continue
		}
		if textnorm.Len(current)+textnorm.Len(sentence) <= limit {
			current = join(current, sentence, limit)
			continue
		}
		flush()
		current = sentence
	}
	flush()
	return chunks
}

// Sentences cuts text after every boundary character and returns the
// normalized, non-empty pieces.
func Sentences(text string) []string {
	var out []string
	start := 0
	for i, r := range text {
		if !strings.ContainsRune(boundaries, r) {
			continue
		}
		end := i + utf8.RuneLen(r)
		if s := textnorm.Normalize(text[start:end]); s != "" {
			out = append(out, s)
		}
		start = end
	}
	if s := textnorm.Normalize(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

func hardSlice(s string, width int) []string {
	runes := []rune(s)
	out := make([]string, 0, len(runes)/width+1)
	for i := 0; i < len(runes); i += width {
		end := i + width
		if end > len(runes) {
			end = len(runes)
		}
		if piece := strings.TrimSpace(string(runes[i:end])); piece != "" {
			out = append(out, piece)
		}
	}
	return out
}

// join concatenates two sentences. They are separated by a space when both
// sides of the seam are written in a spaced script, the second one does
// not open with punctuation and the space still fits in limit.
func join(a, b string, limit int) string {
	last, _ := utf8.DecodeLastRuneInString(a)
	first, _ := utf8.DecodeRuneInString(b)
	if isUnspaced(last) || isUnspaced(first) || unicode.IsPunct(first) {
		return a + b
	}
	if textnorm.Len(a)+textnorm.Len(b) >= limit {
		return a + b
	}
	return a + " " + b
}

func isUnspaced(r rune) bool {
	if unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana) {
		return true
	}
	// CJK symbols and punctuation, fullwidth forms.
	return (r >= 0x3000 && r <= 0x303f) || (r >= 0xff00 && r <= 0xffef)
}
