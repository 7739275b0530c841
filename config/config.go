package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	PathEnvVar = "POPDRAFT_CONFIG"

	DefaultProvider   = "local"
	DefaultLocalURL   = "http://127.0.0.1:8080"
	DefaultOllamaURL  = "http://127.0.0.1:11434"
	DefaultTTSURL     = "http://127.0.0.1:7865"
	DefaultTTSVoice   = "af_heart"
	DefaultTTSSpeed   = 1.0
	DefaultSummonKey  = "Ctrl+Alt+Space"
	DefaultLocalModel = "qwen3-4b-instruct"
)

// CustomAction is a user-defined transform: a display name plus an
// instruction template. IDs are assigned by the user in the settings file.
type CustomAction struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Instruction string `json:"instruction"`
}

// Config is the full persisted configuration. Multi-valued fields
// (Hotkeys, DisabledActions, CustomActions) are stored in the flat file as
// embedded JSON under a single key each.
type Config struct {
	Provider string

	LocalURL   string
	LocalModel string

	OllamaURL   string
	OllamaModel string

	OpenAIKey   string
	OpenAIModel string

	AnthropicKey   string
	AnthropicModel string

	TTSURL   string
	TTSVoice string
	TTSSpeed float64

	SummonHotkey    string
	Hotkeys         map[string]string // action ID -> combo override
	DisabledActions []string          // built-in action IDs turned off
	CustomActions   []CustomAction

	EnableFileLogging bool
}

// Path resolves the configuration file location: POPDRAFT_CONFIG if set,
// otherwise ~/.config/popdraft/config.
func Path() string {
	if p := strings.TrimSpace(os.Getenv(PathEnvVar)); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "popdraft.conf"
	}
	return filepath.Join(home, ".config", "popdraft", "config")
}

// Load reads the config file at path, creating it with defaults first if it
// does not exist. Keys absent from the file fall back to defaults.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := Defaults().Save(path); err != nil {
			return nil, fmt.Errorf("create default config: %w", err)
		}
	}

	values, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := Defaults()
	cfg.Provider = getWithDefault(values, "PROVIDER", cfg.Provider)
	cfg.LocalURL = getWithDefault(values, "LOCAL_URL", cfg.LocalURL)
	cfg.LocalModel = getWithDefault(values, "LOCAL_MODEL", cfg.LocalModel)
	cfg.OllamaURL = getWithDefault(values, "OLLAMA_URL", cfg.OllamaURL)
	cfg.OllamaModel = getWithDefault(values, "OLLAMA_MODEL", cfg.OllamaModel)
	cfg.OpenAIKey = getWithDefault(values, "OPENAI_API_KEY", cfg.OpenAIKey)
	cfg.OpenAIModel = getWithDefault(values, "OPENAI_MODEL", cfg.OpenAIModel)
	cfg.AnthropicKey = getWithDefault(values, "ANTHROPIC_API_KEY", cfg.AnthropicKey)
	cfg.AnthropicModel = getWithDefault(values, "ANTHROPIC_MODEL", cfg.AnthropicModel)
	cfg.TTSURL = getWithDefault(values, "TTS_URL", cfg.TTSURL)
	cfg.TTSVoice = getWithDefault(values, "TTS_VOICE", cfg.TTSVoice)
	cfg.SummonHotkey = getWithDefault(values, "SUMMON_HOTKEY", cfg.SummonHotkey)
	cfg.EnableFileLogging = strings.ToLower(values["ENABLE_FILE_LOGGING"]) == "true"

	if v := values["TTS_SPEED"]; v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.TTSSpeed = f
		}
	}

	if v := values["HOTKEYS"]; v != "" {
		var overrides map[string]string
		if err := json.Unmarshal([]byte(v), &overrides); err == nil {
			cfg.Hotkeys = overrides
		}
	}
	if v := values["DISABLED_ACTIONS"]; v != "" {
		var disabled []string
		if err := json.Unmarshal([]byte(v), &disabled); err == nil {
			cfg.DisabledActions = disabled
		}
	}
	if v := values["CUSTOM_ACTIONS"]; v != "" {
		var custom []CustomAction
		if err := json.Unmarshal([]byte(v), &custom); err == nil {
			cfg.CustomActions = custom
		}
	}

	return cfg, nil
}

// Save fully rewrites the config file from the struct. Writes go through a
// temp file plus rename so a crash mid-save never leaves a truncated config.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}

	values := map[string]string{
		"PROVIDER":            c.Provider,
		"LOCAL_URL":           c.LocalURL,
		"LOCAL_MODEL":         c.LocalModel,
		"OLLAMA_URL":          c.OllamaURL,
		"OLLAMA_MODEL":        c.OllamaModel,
		"OPENAI_API_KEY":      c.OpenAIKey,
		"OPENAI_MODEL":        c.OpenAIModel,
		"ANTHROPIC_API_KEY":   c.AnthropicKey,
		"ANTHROPIC_MODEL":     c.AnthropicModel,
		"TTS_URL":             c.TTSURL,
		"TTS_VOICE":           c.TTSVoice,
		"TTS_SPEED":           strconv.FormatFloat(c.TTSSpeed, 'f', -1, 64),
		"SUMMON_HOTKEY":       c.SummonHotkey,
		"ENABLE_FILE_LOGGING": strconv.FormatBool(c.EnableFileLogging),
	}

	if len(c.Hotkeys) > 0 {
		data, err := json.Marshal(c.Hotkeys)
		if err != nil {
			return fmt.Errorf("encode hotkeys: %w", err)
		}
		values["HOTKEYS"] = string(data)
	}
	if len(c.DisabledActions) > 0 {
		data, err := json.Marshal(c.DisabledActions)
		if err != nil {
			return fmt.Errorf("encode disabled actions: %w", err)
		}
		values["DISABLED_ACTIONS"] = string(data)
	}
	if len(c.CustomActions) > 0 {
		data, err := json.Marshal(c.CustomActions)
		if err != nil {
			return fmt.Errorf("encode custom actions: %w", err)
		}
		values["CUSTOM_ACTIONS"] = string(data)
	}

	tmp := path + ".tmp"
	if err := godotenv.Write(values, tmp); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return os.Rename(tmp, path)
}

// Defaults returns a Config with every key at its hardcoded default.
func Defaults() *Config {
	return &Config{
		Provider:       DefaultProvider,
		LocalURL:       DefaultLocalURL,
		LocalModel:     DefaultLocalModel,
		OllamaURL:      DefaultOllamaURL,
		OllamaModel:    "llama3.1",
		OpenAIModel:    "gpt-4o-mini",
		AnthropicModel: "claude-sonnet-4-20250514",
		TTSURL:         DefaultTTSURL,
		TTSVoice:       DefaultTTSVoice,
		TTSSpeed:       DefaultTTSSpeed,
		SummonHotkey:   DefaultSummonKey,
	}
}

func getWithDefault(values map[string]string, key, defaultValue string) string {
	if v := strings.TrimSpace(values[key]); v != "" {
		return v
	}
	return defaultValue
}
