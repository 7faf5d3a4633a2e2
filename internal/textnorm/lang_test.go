package textnorm

import "testing"

func TestClassifyLanguage(t *testing.T) {
	cases := []struct {
		in   string
		want Lang
	}{
		{"", Japanese},
		{"12345 !!! ...", Japanese},
		{"hello world", Other},
		{"こんにちは世界", Japanese},
		{"カタカナ", Japanese},
		{"Go言語でテキストを読み上げる", Japanese},
		{"This sentence mentions 東京 once but is mostly English text", Other},
	}
	for _, tc := range cases {
		if got := ClassifyLanguage(tc.in); got != tc.want {
			t.Fatalf("ClassifyLanguage(%q): expected %v, got %v", tc.in, tc.want, got)
		}
	}
}

func TestClassifyLanguage_ThresholdIsInclusive(t *testing.T) {
	// 3 Japanese letters out of 10 letters.
	in := "日本語abcdefg"
	if got := ClassifyLanguage(in); got != Japanese {
		t.Fatalf("expected Japanese at exactly the threshold, got %v", got)
	}
}

func TestLangTag(t *testing.T) {
	if Japanese.Tag() != "ja-JP" || Other.Tag() != "en-US" {
		t.Fatalf("unexpected tags %q %q", Japanese.Tag(), Other.Tag())
	}
}
