package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// LoadEnvFiles reads KEY=VALUE pairs and populates the environment.
func TestLoadEnvFiles_LoadsKeyValues(t *testing.T) {
	t.Setenv("FOO", "")
	t.Setenv("BAR", "")
	t.Setenv("BAZ", "")

	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env.test")
	content := "\n# sample dotenv file\nFOO=alpha\nexport BAR=\"beta # kept\"\nBAZ=gamma # dropped\nmalformed\n"
	if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
		t.Fatalf("write dotenv: %v", err)
	}

	if err := LoadEnvFiles(envPath); err != nil {
		t.Fatalf("LoadEnvFiles error: %v", err)
	}

	if got := os.Getenv("FOO"); got != "alpha" {
		t.Fatalf("FOO=%q, want alpha", got)
	}
	if got := os.Getenv("BAR"); got != "beta # kept" {
		t.Fatalf("BAR=%q, want quoted value", got)
	}
	if got := os.Getenv("BAZ"); got != "gamma" {
		t.Fatalf("BAZ=%q, want gamma", got)
	}
}

// Later files override earlier ones; missing files are skipped.
func TestLoadEnvFiles_OverrideOrder(t *testing.T) {
	t.Setenv("K", "")
	dir := t.TempDir()
	a := filepath.Join(dir, ".env.a")
	b := filepath.Join(dir, ".env.b")
	if err := os.WriteFile(a, []byte("K=first\n"), 0o600); err != nil {
		t.Fatalf("write a: %v", err)
	}
	if err := os.WriteFile(b, []byte("K=second\n"), 0o600); err != nil {
		t.Fatalf("write b: %v", err)
	}

	if err := LoadEnvFiles(a, filepath.Join(dir, "missing"), b); err != nil {
		t.Fatalf("LoadEnvFiles error: %v", err)
	}
	if got := os.Getenv("K"); got != "second" {
		t.Fatalf("override order failed: got %q, want second", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("WEBREADER_ENGINE", "voicepeak")
	t.Setenv("WEBREADER_ENDPOINT", "http://10.0.0.2:18766")
	t.Setenv("WEBREADER_SPEECH_ARGS", "-v {voice} --stdin")
	t.Setenv("WEBREADER_CACHE_MAX_AGE", "2h")
	t.Setenv("WEBREADER_VERBOSE", "off")
	t.Setenv("WEBREADER_OPENAI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-fallback")

	cfg := Config{Verbose: true, Endpoint: "http://file"}
	ApplyEnvOverrides(&cfg)
	if cfg.Engine != EngineVoicepeak || cfg.Endpoint != "http://10.0.0.2:18766" {
		t.Fatalf("unexpected engine/endpoint: %q %q", cfg.Engine, cfg.Endpoint)
	}
	if len(cfg.CommandArgs) != 3 || cfg.CommandArgs[2] != "--stdin" {
		t.Fatalf("unexpected args: %v", cfg.CommandArgs)
	}
	if cfg.CacheMaxAge != 2*time.Hour {
		t.Fatalf("expected 2h, got %v", cfg.CacheMaxAge)
	}
	if cfg.Verbose {
		t.Fatalf("expected verbose switched off")
	}
	if cfg.OpenAIKey != "sk-fallback" {
		t.Fatalf("expected OPENAI_API_KEY fallback, got %q", cfg.OpenAIKey)
	}
}
