package extract

import (
	"math"
	"strings"

	"github.com/hyperifyio/webreader/internal/textnorm"
)

// Composite-line thresholds. A kept line of at least CompositeMinLen runes
// is dropped when CompositeMinPieces or more earlier kept lines, each at
// least CompositePieceMinLen runes, occur in it and their lengths add up to
// CompositeCoverage of its length.
var (
	CompositeMinLen      = 80
	CompositePieceMinLen = 20
	CompositeMinPieces   = 2
	CompositeCoverage    = 0.72
)

// lineSet collects unique normalized lines in first-seen order. With loose
// set, lines that differ only in case, spacing or punctuation count as
// duplicates too.
type lineSet struct {
	lines []string
	exact map[string]struct{}
	loose map[string]struct{}
}

func newLineSet(loose bool) *lineSet {
	s := &lineSet{exact: make(map[string]struct{})}
	if loose {
		s.loose = make(map[string]struct{})
	}
	return s
}

func (s *lineSet) add(text string) bool {
	line := textnorm.Normalize(text)
	if line == "" {
		return false
	}
	if _, ok := s.exact[line]; ok {
		return false
	}
	var key string
	if s.loose != nil {
		key = textnorm.Loose(line)
		if _, ok := s.loose[key]; ok && key != "" {
			return false
		}
	}
	s.exact[line] = struct{}{}
	if key != "" {
		s.loose[key] = struct{}{}
	}
	s.lines = append(s.lines, line)
	return true
}

// RemoveCompositeDuplicates drops lines that merely restring earlier kept
// lines. Lines are normalized and empty ones removed.
func RemoveCompositeDuplicates(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, raw := range lines {
		line := textnorm.Normalize(raw)
		if line == "" {
			continue
		}
		if n := textnorm.Len(line); n >= CompositeMinLen && composite(line, n, out) {
			continue
		}
		out = append(out, line)
	}
	return out
}

func composite(line string, n int, kept []string) bool {
	covered, pieces := 0, 0
	for _, prev := range kept {
		l := textnorm.Len(prev)
		if l < CompositePieceMinLen || !strings.Contains(line, prev) {
			continue
		}
		covered += l
		pieces++
	}
	return pieces >= CompositeMinPieces && covered >= int(math.Floor(float64(n)*CompositeCoverage))
}
