package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Expected config file to be created on first read: %v", err)
	}
	if cfg.Provider != DefaultProvider {
		t.Errorf("Expected provider %q, got %q", DefaultProvider, cfg.Provider)
	}
	if cfg.TTSVoice != DefaultTTSVoice {
		t.Errorf("Expected voice %q, got %q", DefaultTTSVoice, cfg.TTSVoice)
	}
	if cfg.TTSSpeed != DefaultTTSSpeed {
		t.Errorf("Expected speed %v, got %v", DefaultTTSSpeed, cfg.TTSSpeed)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")

	cfg := Defaults()
	cfg.Provider = "anthropic"
	cfg.AnthropicKey = "sk-test"
	cfg.TTSVoice = "bf_emma"
	cfg.TTSSpeed = 1.2
	cfg.SummonHotkey = "Ctrl+Alt+X"
	cfg.Hotkeys = map[string]string{"fix-grammar": "Ctrl+Alt+1"}
	cfg.DisabledActions = []string{"explain"}
	cfg.CustomActions = []CustomAction{{ID: "pirate", Name: "Pirate speak", Instruction: "Rewrite as a pirate"}}

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.TTSVoice != "bf_emma" {
		t.Errorf("Expected voice 'bf_emma', got %q", loaded.TTSVoice)
	}
	if loaded.TTSSpeed != 1.2 {
		t.Errorf("Expected speed 1.2, got %v", loaded.TTSSpeed)
	}
	if loaded.Provider != "anthropic" {
		t.Errorf("Expected provider 'anthropic', got %q", loaded.Provider)
	}
	if loaded.AnthropicKey != "sk-test" {
		t.Errorf("Expected API key to round-trip, got %q", loaded.AnthropicKey)
	}
	if loaded.Hotkeys["fix-grammar"] != "Ctrl+Alt+1" {
		t.Errorf("Expected hotkey override to round-trip, got %v", loaded.Hotkeys)
	}
	if len(loaded.DisabledActions) != 1 || loaded.DisabledActions[0] != "explain" {
		t.Errorf("Expected disabled actions to round-trip, got %v", loaded.DisabledActions)
	}
	if len(loaded.CustomActions) != 1 || loaded.CustomActions[0].Instruction != "Rewrite as a pirate" {
		t.Errorf("Expected custom actions to round-trip, got %v", loaded.CustomActions)
	}
}

func TestLoadIgnoresKeyOrderAndComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	content := "# PopDraft settings\nTTS_SPEED=1.2\n# voice below\nTTS_VOICE=bf_emma\nPROVIDER=ollama\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.TTSVoice != "bf_emma" || cfg.TTSSpeed != 1.2 {
		t.Errorf("Expected voice/speed from file, got %q/%v", cfg.TTSVoice, cfg.TTSSpeed)
	}
	if cfg.Provider != "ollama" {
		t.Errorf("Expected provider 'ollama', got %q", cfg.Provider)
	}
	// Absent keys fall back to defaults.
	if cfg.LocalURL != DefaultLocalURL {
		t.Errorf("Expected default local URL, got %q", cfg.LocalURL)
	}
}

func TestLoadBadSpeedFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	if err := os.WriteFile(path, []byte("TTS_SPEED=fast\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.TTSSpeed != DefaultTTSSpeed {
		t.Errorf("Expected default speed for unparseable value, got %v", cfg.TTSSpeed)
	}
}
