// Package textnorm canonicalizes extracted text and classifies its script.
//
// Every string handed to the chunker or the player goes through Normalize
// first; downstream code assumes its output invariants.
package textnorm

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// Normalize replaces non-breaking spaces, collapses runs of spaces and tabs
// to one space, collapses three or more newlines to exactly two and trims
// both ends. It is idempotent.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	var b strings.Builder
	b.Grow(len(s))
	lastSpace := false
	newlines := 0
	for _, r := range s {
		switch r {
		case ' ', '\u00a0', '\t':
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
			newlines = 0
			continue
		case '\n':
			newlines++
			lastSpace = false
			if newlines <= 2 {
				b.WriteByte('\n')
			}
			continue
		}
		newlines = 0
		lastSpace = false
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// Len reports the length of s in runes.
func Len(s string) int {
	return utf8.RuneCountInString(s)
}

var folder = cases.Fold()

// looseDropped lists the punctuation ignored by Loose in addition to
// whitespace.
const looseDropped = "　。、．！？!?,，・「」『』（）()［］[]【】<>〈〉《》\"'`"

// Loose returns a case-folded form of s with whitespace and common
// punctuation removed. Two renderings of the same sentence that differ only
// in spacing, casing, or quoting share a Loose form.
func Loose(s string) string {
	folded := folder.String(Normalize(s))
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsSpace(r) || strings.ContainsRune(looseDropped, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
