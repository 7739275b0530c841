// Package backend models the configured text-generation providers and picks
// a live one via short-timeout health probes.
package backend

import (
	"fmt"

	"github.com/bachner/popdraft/config"
)

// Kind identifies a provider's wire protocol.
type Kind int

const (
	// KindLocal is the local OpenAI-compatible inference server. It is the
	// terminal fallback: requests failing elsewhere retry here once.
	KindLocal Kind = iota
	// KindOllama is the self-hosted generate API.
	KindOllama
	// KindOpenAI is the OpenAI-style cloud API.
	KindOpenAI
	// KindAnthropic is the Anthropic-style cloud API.
	KindAnthropic
)

func (k Kind) String() string {
	switch k {
	case KindLocal:
		return "local"
	case KindOllama:
		return "ollama"
	case KindOpenAI:
		return "openai"
	case KindAnthropic:
		return "anthropic"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Config is one configured provider entry.
type Config struct {
	Kind       Kind
	BaseURL    string // empty for cloud providers (fixed API hosts)
	APIKey     string
	Model      string
	HealthPath string // probe path; empty means "no probe, key presence gates"
}

// Cloud reports whether this provider is reached over a fixed public host
// rather than a user-configured base URL.
func (c *Config) Cloud() bool {
	return c.Kind == KindOpenAI || c.Kind == KindAnthropic
}

// FromSettings maps the persisted configuration onto provider entries and
// returns (preferred, fallback, local). The fallback is the other
// self-hostable provider; for a cloud preference the fallback is the local
// server itself, so fallback may alias local.
func FromSettings(cfg *config.Config) (preferred, fallback, local *Config) {
	local = &Config{
		Kind:       KindLocal,
		BaseURL:    cfg.LocalURL,
		Model:      cfg.LocalModel,
		HealthPath: "/health",
	}
	ollama := &Config{
		Kind:       KindOllama,
		BaseURL:    cfg.OllamaURL,
		Model:      cfg.OllamaModel,
		HealthPath: "/api/tags",
	}
	openai := &Config{Kind: KindOpenAI, APIKey: cfg.OpenAIKey, Model: cfg.OpenAIModel}
	anthropic := &Config{Kind: KindAnthropic, APIKey: cfg.AnthropicKey, Model: cfg.AnthropicModel}

	switch cfg.Provider {
	case "ollama":
		return ollama, local, local
	case "openai":
		return openai, local, local
	case "anthropic":
		return anthropic, local, local
	default:
		return local, ollama, local
	}
}
