// Package settings holds the user-tunable playback parameters and their
// persistence.
package settings

import (
	"math"
	"strconv"
	"strings"

	"github.com/hyperifyio/webreader/internal/chunk"
)

// Settings are the playback parameters. Values read from untrusted input go
// through Coerce so every field stays inside its documented range.
type Settings struct {
	Rate       float64 `yaml:"rate" json:"rate"`
	Pitch      float64 `yaml:"pitch" json:"pitch"`
	Volume     float64 `yaml:"volume" json:"volume"`
	MaxChars   int     `yaml:"maxChars" json:"maxChars"`
	ChunkChars int     `yaml:"chunkChars" json:"chunkChars"`
}

// Field bounds.
const (
	MinRate, MaxRate             = 0.5, 2.0
	MinPitch, MaxPitch           = 0.0, 2.0
	MinVolume, MaxVolume         = 0.0, 1.0
	MinMaxChars, MaxMaxChars     = 500, 40000
	MinChunkChars, MaxChunkChars = chunk.MinLimit, chunk.MaxLimit
)

// Defaults returns the built-in settings.
func Defaults() Settings {
	return Settings{Rate: 1, Pitch: 1, Volume: 1, MaxChars: 8000, ChunkChars: chunk.DefaultLimit}
}

// Clamp forces every field into range. Non-finite values take the default.
func (s Settings) Clamp() Settings {
	d := Defaults()
	return Settings{
		Rate:       clampFloat(s.Rate, d.Rate, MinRate, MaxRate),
		Pitch:      clampFloat(s.Pitch, d.Pitch, MinPitch, MaxPitch),
		Volume:     clampFloat(s.Volume, d.Volume, MinVolume, MaxVolume),
		MaxChars:   int(clampFloat(float64(s.MaxChars), float64(d.MaxChars), MinMaxChars, MaxMaxChars)),
		ChunkChars: int(clampFloat(float64(s.ChunkChars), float64(d.ChunkChars), MinChunkChars, MaxChunkChars)),
	}
}

func clampFloat(v, def, lo, hi float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = def
	}
	return math.Max(lo, math.Min(hi, v))
}

// Coerce builds Settings from a loosely typed record such as decoded JSON
// or YAML. Missing keys and values that are not numeric take the default;
// everything is then clamped. Integer fields are truncated.
func Coerce(raw map[string]any) Settings {
	d := Defaults()
	s := Settings{
		Rate:   number(raw, "rate", d.Rate),
		Pitch:  number(raw, "pitch", d.Pitch),
		Volume: number(raw, "volume", d.Volume),
	}
	s.MaxChars = int(math.Trunc(clampFloat(number(raw, "maxChars", float64(d.MaxChars)), float64(d.MaxChars), MinMaxChars, MaxMaxChars)))
	s.ChunkChars = int(math.Trunc(clampFloat(number(raw, "chunkChars", float64(d.ChunkChars)), float64(d.ChunkChars), MinChunkChars, MaxChunkChars)))
	return s.Clamp()
}

// Merge overlays the keys present in raw on s. Absent keys keep the value
// from s instead of the default.
func (s Settings) Merge(raw map[string]any) Settings {
	base := s.Map()
	for k, v := range raw {
		base[k] = v
	}
	return Coerce(base)
}

// Map returns s as a loosely typed record, the inverse of Coerce.
func (s Settings) Map() map[string]any {
	return map[string]any{
		"rate":       s.Rate,
		"pitch":      s.Pitch,
		"volume":     s.Volume,
		"maxChars":   s.MaxChars,
		"chunkChars": s.ChunkChars,
	}
}

// Keys lists the recognized setting names.
func Keys() []string {
	return []string{"rate", "pitch", "volume", "maxChars", "chunkChars"}
}

// number returns raw[key] as a float. Zero is a valid value; only absent,
// non-numeric or non-finite values fall back to def.
func number(raw map[string]any, key string, def float64) float64 {
	v, ok := raw[key]
	if !ok || v == nil {
		return def
	}
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case int32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case uint:
		f = float64(n)
	case bool:
		if n {
			f = 1
		}
	case string:
		p, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return def
		}
		f = p
	case interface{ Float64() (float64, error) }:
		p, err := n.Float64()
		if err != nil {
			return def
		}
		f = p
	default:
		return def
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	return f
}
