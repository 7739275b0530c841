// Package actions defines the catalog of text transforms the popup offers.
package actions

import (
	"github.com/bachner/popdraft/config"
)

// Well-known action IDs referenced by the dispatcher and default hotkeys.
const (
	FixGrammar   = "fix-grammar"
	Professional = "professional"
	Friendly     = "friendly"
	Concise      = "concise"
	Summarize    = "summarize"
	Explain      = "explain"
	Custom       = "custom"
	Speak        = "speak"
)

// Action is one entry in the popup's list. Immutable once constructed; the
// enabled set and hotkey overrides live in config.Config, not here.
type Action struct {
	ID          string
	Name        string
	Instruction string // empty for the speech action and custom prompt entry
	Hotkey      string // default combo; "" means no default binding
	Speech      bool   // true routes through the TTS pipeline, not the LLM
}

var builtins = []Action{
	{ID: FixGrammar, Name: "Fix grammar", Hotkey: "Ctrl+Alt+G",
		Instruction: "Fix all grammar, spelling and punctuation mistakes in the following text. Keep the original tone and meaning."},
	{ID: Professional, Name: "Make professional", Hotkey: "Ctrl+Alt+P",
		Instruction: "Rewrite the following text in a clear, professional tone suitable for workplace communication."},
	{ID: Friendly, Name: "Make friendly", Hotkey: "",
		Instruction: "Rewrite the following text in a warm, friendly and approachable tone."},
	{ID: Concise, Name: "Make concise", Hotkey: "",
		Instruction: "Rewrite the following text to be as concise as possible without losing meaning."},
	{ID: Summarize, Name: "Summarize", Hotkey: "Ctrl+Alt+S",
		Instruction: "Summarize the following text in a few short sentences."},
	{ID: Explain, Name: "Explain this", Hotkey: "",
		Instruction: "Explain the following text in simple terms."},
	{ID: Custom, Name: "Custom prompt...", Hotkey: ""},
	{ID: Speak, Name: "Speak it", Hotkey: "Ctrl+Alt+K", Speech: true},
}

// Builtins returns the fixed built-in set, speech action last.
func Builtins() []Action {
	out := make([]Action, len(builtins))
	copy(out, builtins)
	return out
}

// Catalog builds the effective action list for the given configuration:
// built-ins minus the disabled set, followed by user-defined actions, with
// hotkey overrides applied. Unknown IDs in the disabled set are ignored.
func Catalog(cfg *config.Config) []Action {
	disabled := make(map[string]bool, len(cfg.DisabledActions))
	for _, id := range cfg.DisabledActions {
		disabled[id] = true
	}

	var out []Action
	for _, a := range builtins {
		if disabled[a.ID] {
			continue
		}
		if combo, ok := cfg.Hotkeys[a.ID]; ok {
			a.Hotkey = combo
		}
		out = append(out, a)
	}
	for _, ca := range cfg.CustomActions {
		if ca.ID == "" || ca.Instruction == "" {
			continue
		}
		a := Action{ID: ca.ID, Name: ca.Name, Instruction: ca.Instruction}
		if a.Name == "" {
			a.Name = ca.ID
		}
		if combo, ok := cfg.Hotkeys[a.ID]; ok {
			a.Hotkey = combo
		}
		out = append(out, a)
	}
	return out
}

// Lookup finds an action by ID within a catalog.
func Lookup(catalog []Action, id string) (Action, bool) {
	for _, a := range catalog {
		if a.ID == id {
			return a, true
		}
	}
	return Action{}, false
}
