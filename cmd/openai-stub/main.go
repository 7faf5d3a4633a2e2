// Command openai-stub serves a minimal OpenAI-compatible speech API for
// exercising the openai speech engine without network access. Every
// request returns silent 8 kHz WAV audio whose length follows the input.
package main

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type speechRequest struct {
	Model          string  `json:"model"`
	Input          string  `json:"input"`
	Voice          string  `json:"voice"`
	ResponseFormat string  `json:"response_format"`
	Speed          float64 `json:"speed"`
}

const (
	sampleRate = 8000
	// perRune is the audio length per input character at speed 1.
	perRune = 60 * time.Millisecond
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	model := os.Getenv("MODEL_ID")
	if strings.TrimSpace(model) == "" {
		model = "tts-1"
	}
	addr := os.Getenv("ADDR")
	if strings.TrimSpace(addr) == "" {
		addr = ":8081"
	}

	log.Info().Str("addr", addr).Str("model", model).Msg("openai-stub listening")
	if err := http.ListenAndServe(addr, newMux(model)); err != nil {
		log.Fatal().Err(err).Msg("serve")
	}
}

func newMux(model string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"id": model, "object": "model"}},
		})
	})
	mux.HandleFunc("/v1/audio/speech", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var req speechRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Input) == "" {
			http.Error(w, `{"error":{"message":"input is required"}}`, http.StatusBadRequest)
			return
		}
		speed := req.Speed
		if speed <= 0 {
			speed = 1
		}
		d := time.Duration(float64(utf8.RuneCountInString(req.Input)) * float64(perRune) / speed)
		log.Debug().Str("voice", req.Voice).Str("format", req.ResponseFormat).Dur("duration", d).Msg("speech")
		w.Header().Set("Content-Type", "audio/wav")
		_, _ = w.Write(silentWAV(d))
	})
	return mux
}

// silentWAV returns 8-bit mono PCM silence of length d.
func silentWAV(d time.Duration) []byte {
	n := int(d * sampleRate / time.Second)
	var b bytes.Buffer
	b.WriteString("RIFF")
	_ = binary.Write(&b, binary.LittleEndian, uint32(36+n))
	b.WriteString("WAVEfmt ")
	_ = binary.Write(&b, binary.LittleEndian, uint32(16))
	_ = binary.Write(&b, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(&b, binary.LittleEndian, uint16(1)) // mono
	_ = binary.Write(&b, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(&b, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(&b, binary.LittleEndian, uint16(1))
	_ = binary.Write(&b, binary.LittleEndian, uint16(8))
	b.WriteString("data")
	_ = binary.Write(&b, binary.LittleEndian, uint32(n))
	b.Write(bytes.Repeat([]byte{0x80}, n))
	return b.Bytes()
}
