package speech

import (
	"context"
	"os/exec"
	"strconv"
	"strings"
)

// DefaultCommand is the synthesizer run by CommandEngine.
const DefaultCommand = "espeak-ng"

// DefaultCommandArgs read the utterance from stdin.
var DefaultCommandArgs = []string{"-v", "{voice}", "-s", "{wpm}", "-p", "{pitch}", "-a", "{amplitude}", "--stdin"}

// DefaultCommandVoices are the espeak-ng voices offered when none are
// configured.
var DefaultCommandVoices = []Voice{{Name: "ja", Lang: "ja-JP"}, {Name: "en-us", Lang: "en-US"}}

// CommandEngine speaks each utterance by running an external synthesizer
// with the text on stdin. Args may contain the placeholders {voice}, {lang},
// {wpm}, {pitch} and {amplitude}. Pause and Resume stop and continue the
// process, which needs SIGSTOP support.
type CommandEngine struct {
	Command   string
	Args      []string
	VoiceList []Voice
	// BaseWPM is the words-per-minute at rate 1. Zero means 175.
	BaseWPM int

	proc process
}

func (e *CommandEngine) Speak(ctx context.Context, u Utterance) error {
	name := e.Command
	if name == "" {
		name = DefaultCommand
	}
	tmpl := e.Args
	if len(tmpl) == 0 {
		tmpl = DefaultCommandArgs
	}
	cmd := exec.Command(name, e.expand(tmpl, u)...)
	cmd.Stdin = strings.NewReader(u.Text)
	return e.proc.run(ctx, cmd)
}

func (e *CommandEngine) expand(tmpl []string, u Utterance) []string {
	wpm := e.BaseWPM
	if wpm <= 0 {
		wpm = 175
	}
	voice := ""
	if u.Voice != nil {
		voice = u.Voice.Name
	}
	if voice == "" {
		voice = strings.ToLower(u.Lang)
		if i := strings.IndexByte(voice, '-'); i > 0 && voice[:i] == "ja" {
			voice = "ja"
		}
	}
	r := strings.NewReplacer(
		"{voice}", voice,
		"{lang}", u.Lang,
		"{wpm}", strconv.Itoa(int(float64(wpm)*orOne(u.Rate))),
		"{pitch}", strconv.Itoa(int(50*u.Pitch)),
		"{amplitude}", strconv.Itoa(int(100*u.Volume)),
	)
	out := make([]string, len(tmpl))
	for i, a := range tmpl {
		out[i] = r.Replace(a)
	}
	return out
}

func orOne(v float64) float64 {
	if v == 0 {
		return 1
	}
	return v
}

func (e *CommandEngine) Pause() error  { return e.proc.pause() }
func (e *CommandEngine) Resume() error { return e.proc.resume() }
func (e *CommandEngine) Cancel()       { e.proc.kill() }
func (e *CommandEngine) Active() bool  { return e.proc.active() }

func (e *CommandEngine) Voices() []Voice {
	if len(e.VoiceList) > 0 {
		return e.VoiceList
	}
	return DefaultCommandVoices
}
