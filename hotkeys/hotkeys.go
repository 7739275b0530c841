// Package hotkeys registers global key combinations with the OS and maps
// matching chords onto action IDs. One shared hook event loop serves every
// binding; dispatch never blocks the event-delivery goroutine.
package hotkeys

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"

	gohook "github.com/robotn/gohook"
)

// Binding maps a combo like "Ctrl+Alt+G" onto an action ID. The special
// action ID Summon opens the popup without dispatching an action.
type Binding struct {
	Combo  string
	Action string
}

// Summon is the reserved action ID for the popup-summon binding.
const Summon = "__summon__"

// Dispatcher receives the action ID for a detected chord. Implementations
// must not block; they are invoked from the hook event goroutine.
type Dispatcher func(actionID string)

type binding struct {
	action string
	combo  string
	keys   []keySpec
}

type keySpec struct {
	name     string
	rawcodes []uint16
}

// Manager owns the registered binding set. Bindings are rebuilt wholesale on
// every (re)registration; there is no incremental diffing.
type Manager struct {
	dispatch Dispatcher

	mu       sync.Mutex
	bindings []*binding
	pressed  map[uint16]bool
	started  bool
}

// NewManager builds a Manager that forwards detected chords to dispatch.
func NewManager(dispatch Dispatcher) *Manager {
	return &Manager{
		dispatch: dispatch,
		pressed:  make(map[uint16]bool),
	}
}

// RegisterAll replaces the entire binding set. Bindings whose key has no
// rawcode mapping are skipped with a log line, as are duplicates of an
// already-registered (modifier-set, key) pair. The hook event loop starts on
// first registration.
func (m *Manager) RegisterAll(bindings []Binding) {
	m.mu.Lock()
	m.bindings = nil
	seen := make(map[string]bool)
	for _, b := range bindings {
		parsed, err := parseBinding(b)
		if err != nil {
			log.Printf("Hotkeys: skipping %q for %s: %v", b.Combo, b.Action, err)
			continue
		}
		sig := signature(parsed.keys)
		if seen[sig] {
			log.Printf("Hotkeys: skipping %q for %s: combo already bound", b.Combo, b.Action)
			continue
		}
		seen[sig] = true
		m.bindings = append(m.bindings, parsed)
	}
	count := len(m.bindings)
	needStart := !m.started && count > 0
	if needStart {
		m.started = true
	}
	m.mu.Unlock()

	log.Printf("Hotkeys: registered %d bindings", count)
	if needStart {
		go m.run()
	}
}

// UnregisterAll drops every binding. The hook loop keeps running but matches
// nothing.
func (m *Manager) UnregisterAll() {
	m.mu.Lock()
	m.bindings = nil
	m.mu.Unlock()
	log.Printf("Hotkeys: unregistered all bindings")
}

// Reload is a full unregister/re-register cycle.
func (m *Manager) Reload(bindings []Binding) {
	m.UnregisterAll()
	m.RegisterAll(bindings)
}

func (m *Manager) run() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Hotkeys: PANIC in hook goroutine: %v", r)
		}
	}()

	evChan := gohook.Start()
	if evChan == nil {
		log.Printf("Hotkeys: hook start returned nil channel")
		return
	}

	for ev := range evChan {
		switch ev.Kind {
		case gohook.KeyDown:
			m.handleKeyDown(ev.Rawcode)
		case gohook.KeyUp:
			m.mu.Lock()
			delete(m.pressed, ev.Rawcode)
			m.mu.Unlock()
		}
	}
	log.Printf("Hotkeys: hook event channel closed")
}

func (m *Manager) handleKeyDown(rawcode uint16) {
	m.mu.Lock()
	m.pressed[rawcode] = true

	var fired string
	for _, b := range m.bindings {
		if m.chordDown(b) {
			fired = b.action
			// Require a fresh press for the next trigger.
			m.pressed = make(map[uint16]bool)
			break
		}
	}
	m.mu.Unlock()

	if fired != "" {
		log.Printf("Hotkeys: chord detected, dispatching %s", fired)
		m.dispatch(fired)
	}
}

// chordDown reports whether every key of the binding is currently held.
// Caller holds m.mu.
func (m *Manager) chordDown(b *binding) bool {
	for _, k := range b.keys {
		down := false
		for _, rc := range k.rawcodes {
			if m.pressed[rc] {
				down = true
				break
			}
		}
		if !down {
			return false
		}
	}
	return true
}

func parseBinding(b Binding) (*binding, error) {
	parts := strings.Split(b.Combo, "+")
	if len(parts) < 2 {
		return nil, fmt.Errorf("need at least one modifier plus a key")
	}

	parsed := &binding{action: b.Action, combo: b.Combo}
	for _, part := range parts {
		name := strings.ToLower(strings.TrimSpace(part))
		rawcodes := keyNameToRawcodes(name)
		if len(rawcodes) == 0 {
			return nil, fmt.Errorf("key %q has no rawcode mapping", part)
		}
		parsed.keys = append(parsed.keys, keySpec{name: name, rawcodes: rawcodes})
	}
	return parsed, nil
}

// signature produces an order-independent identity for a chord so that
// "Ctrl+Alt+G" and "Alt+Ctrl+G" collide.
func signature(keys []keySpec) string {
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.name
	}
	sort.Strings(names)
	return strings.Join(names, "+")
}
