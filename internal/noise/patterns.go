package noise

import (
	"fmt"
	"regexp"
)

// Patterns is the locale-specific vocabulary used to recognize promoted
// posts and recommendation areas. DefaultPatterns covers Japanese and English.
type Patterns struct {
	// Recommended matches headings and container labels of algorithmic
	// recommendation areas.
	Recommended *regexp.Regexp
	// Conversation matches headings and labels of the thread being read.
	Conversation *regexp.Regexp
	// PromotedExact and PromotedPrefix match short promotion labels.
	PromotedExact  *regexp.Regexp
	PromotedPrefix *regexp.Regexp
	// PromotedMarkers are substrings of accessibility labels that mark a
	// promoted post.
	PromotedMarkers []string
	// PlacementMarkers count only in labels inside an ad placement.
	PlacementMarkers []string
}

// DefaultPatterns returns the built-in Japanese/English pattern set.
func DefaultPatterns() Patterns {
	return Patterns{
		Recommended:      regexp.MustCompile(`(?i)もっと見つける|more to explore|xから|from x|関連|related|おすすめ|for you|discover`),
		Conversation:     regexp.MustCompile(`(?i)会話|conversation|返信|repl|スレッド|thread`),
		PromotedExact:    regexp.MustCompile(`(?i)^(?:プロモーション|promoted|promotion|広告|advertisement|sponsored|sponsor)$`),
		PromotedPrefix:   regexp.MustCompile(`(?i)^(?:promoted|promotion|sponsored|sponsor)\b`),
		PromotedMarkers:  []string{"プロモーション", "Promoted"},
		PlacementMarkers: []string{"広告"},
	}
}

// PatternConfig is the textual form of Patterns used in configuration
// files. Empty fields keep the default.
type PatternConfig struct {
	Recommended      string   `yaml:"recommended" json:"recommended"`
	Conversation     string   `yaml:"conversation" json:"conversation"`
	PromotedExact    string   `yaml:"promotedExact" json:"promotedExact"`
	PromotedPrefix   string   `yaml:"promotedPrefix" json:"promotedPrefix"`
	PromotedMarkers  []string `yaml:"promotedMarkers" json:"promotedMarkers"`
	PlacementMarkers []string `yaml:"placementMarkers" json:"placementMarkers"`
}

// IsZero reports whether no pattern is configured.
func (c PatternConfig) IsZero() bool {
	return c.Recommended == "" && c.Conversation == "" && c.PromotedExact == "" && c.PromotedPrefix == "" && len(c.PromotedMarkers) == 0 && len(c.PlacementMarkers) == 0
}

// Compile overlays the configured expressions on DefaultPatterns.
func (c PatternConfig) Compile() (Patterns, error) {
	p := DefaultPatterns()
	fields := []struct {
		name string
		expr string
		dst  **regexp.Regexp
	}{
		{"recommended", c.Recommended, &p.Recommended},
		{"conversation", c.Conversation, &p.Conversation},
		{"promotedExact", c.PromotedExact, &p.PromotedExact},
		{"promotedPrefix", c.PromotedPrefix, &p.PromotedPrefix},
	}
	for _, f := range fields {
		if f.expr == "" {
			continue
		}
		re, err := regexp.Compile(f.expr)
		if err != nil {
			return Patterns{}, fmt.Errorf("noise pattern %s: %w", f.name, err)
		}
		*f.dst = re
	}
	if len(c.PromotedMarkers) > 0 {
		p.PromotedMarkers = append([]string(nil), c.PromotedMarkers...)
	}
	if len(c.PlacementMarkers) > 0 {
		p.PlacementMarkers = append([]string(nil), c.PlacementMarkers...)
	}
	return p, nil
}
