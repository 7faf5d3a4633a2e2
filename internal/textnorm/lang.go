package textnorm

import "unicode"

// Lang is the two-way script classification used for voice selection.
type Lang int

const (
	Japanese Lang = iota
	Other
)

// JapaneseRatio is the minimum share of Hiragana, Katakana and Han letters
// for text to be read with a Japanese voice.
var JapaneseRatio = 0.3

// Tag returns the BCP 47 locale used to pick a voice.
func (l Lang) Tag() string {
	if l == Japanese {
		return "ja-JP"
	}
	return "en-US"
}

func (l Lang) String() string {
	if l == Japanese {
		return "ja"
	}
	return "other"
}

// ClassifyLanguage counts Japanese-script letters against all letters.
// Text without any letter is classified as Japanese.
func ClassifyLanguage(s string) Lang {
	jp, letters := 0, 0
	for _, r := range s {
		switch {
		case unicode.In(r, unicode.Hiragana, unicode.Katakana, unicode.Han):
			jp++
			letters++
		case unicode.IsLetter(r):
			letters++
		}
	}
	if letters == 0 {
		return Japanese
	}
	if float64(jp)/float64(letters) >= JapaneseRatio {
		return Japanese
	}
	return Other
}
