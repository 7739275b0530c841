package actions

import (
	"testing"

	"github.com/bachner/popdraft/config"
)

func TestCatalogDefaults(t *testing.T) {
	catalog := Catalog(config.Defaults())
	if len(catalog) != len(Builtins()) {
		t.Fatalf("Expected full builtin set, got %d actions", len(catalog))
	}

	speak, ok := Lookup(catalog, Speak)
	if !ok {
		t.Fatal("Expected speak action in catalog")
	}
	if !speak.Speech {
		t.Error("Expected speak action to carry the speech flag")
	}
	if speak.Instruction != "" {
		t.Error("Expected speech action to have an empty instruction")
	}

	fix, ok := Lookup(catalog, FixGrammar)
	if !ok {
		t.Fatal("Expected fix-grammar action in catalog")
	}
	if fix.Instruction == "" {
		t.Error("Expected fix-grammar to have an instruction template")
	}
}

func TestCatalogDisablesBuiltins(t *testing.T) {
	cfg := config.Defaults()
	cfg.DisabledActions = []string{Explain, Summarize, "not-a-real-action"}

	catalog := Catalog(cfg)
	if _, ok := Lookup(catalog, Explain); ok {
		t.Error("Expected explain to be disabled")
	}
	if _, ok := Lookup(catalog, Summarize); ok {
		t.Error("Expected summarize to be disabled")
	}
	if _, ok := Lookup(catalog, FixGrammar); !ok {
		t.Error("Expected fix-grammar to remain enabled")
	}
}

func TestCatalogHotkeyOverrides(t *testing.T) {
	cfg := config.Defaults()
	cfg.Hotkeys = map[string]string{FixGrammar: "Ctrl+Shift+1"}

	catalog := Catalog(cfg)
	fix, _ := Lookup(catalog, FixGrammar)
	if fix.Hotkey != "Ctrl+Shift+1" {
		t.Errorf("Expected hotkey override, got %q", fix.Hotkey)
	}
}

func TestCatalogCustomActions(t *testing.T) {
	cfg := config.Defaults()
	cfg.CustomActions = []config.CustomAction{
		{ID: "pirate", Name: "Pirate speak", Instruction: "Rewrite as a pirate"},
		{ID: "", Name: "bad", Instruction: "missing id"},
		{ID: "empty", Name: "bad", Instruction: ""},
	}

	catalog := Catalog(cfg)
	pirate, ok := Lookup(catalog, "pirate")
	if !ok {
		t.Fatal("Expected custom action in catalog")
	}
	if pirate.Speech {
		t.Error("Custom actions are never speech actions")
	}
	if pirate.Instruction != "Rewrite as a pirate" {
		t.Errorf("Unexpected instruction %q", pirate.Instruction)
	}
	if _, ok := Lookup(catalog, "empty"); ok {
		t.Error("Expected instruction-less custom action to be dropped")
	}
}

func TestBuiltinsAreACopy(t *testing.T) {
	a := Builtins()
	a[0].Name = "mutated"
	b := Builtins()
	if b[0].Name == "mutated" {
		t.Error("Builtins must return a copy, not the shared slice")
	}
}
