// Package dispatch is the popup's central state machine. It receives action
// selections (from the UI or global hotkeys), drives capture, backend
// selection, generation and speech, and emits state transitions for the UI
// to render. All state lives on a single coordinator goroutine; background
// network work posts completions back through the event channel.
package dispatch

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/bachner/popdraft/actions"
	"github.com/bachner/popdraft/backend"
	"github.com/bachner/popdraft/tts"
)

// ErrNoTextSelected is the fast-fail for dispatch without a selection; no
// I/O is attempted when it fires.
var ErrNoTextSelected = errors.New("no text selected: highlight some text first")

// systemPrompt is sent with every generation request.
const systemPrompt = "You are a text transformation assistant. Apply the requested transformation " +
	"to the user's text and reply with ONLY the transformed text, no preamble, no explanations, no quotes."

// Capturer snapshots the current selection. "" means nothing selected.
type Capturer interface {
	Capture() (string, error)
}

// Selector picks a live provider, preferred first.
type Selector interface {
	Select(ctx context.Context, preferred, fallback *backend.Config) (*backend.Config, error)
}

// Generator runs one prompt against a provider, fallback policy included.
type Generator interface {
	Generate(cfg *backend.Config, prompt, system string) (string, error)
}

// Speaker controls the speech session. onState observes playback until idle.
type Speaker interface {
	Speak(text, voice string, speed float64, onState func(tts.Status)) error
	Pause() error
	Resume() error
	Stop() error
}

// TextSink receives the result text when the user copies it.
type TextSink interface {
	WriteText(text string)
}

// UI renders states and hides the window on dismissal. Both are invoked from
// the machine's coordinator goroutine; implementations must hop onto their
// own UI thread as needed.
type UI interface {
	Render(state State)
	Hide()
}

// Config supplies the per-trigger settings snapshot.
type Config struct {
	Backends func() (preferred, fallback *backend.Config)
	Catalog  func() []actions.Action
	Voice    func() (voice string, speed float64)
}

// session tracks one user-triggered dispatch. Only its token escapes the
// coordinator goroutine; completions carry it back and stale ones (token no
// longer current) are discarded without rendering.
type session struct {
	token   uint64
	action  actions.Action
	text    string
	started time.Time
}

type eventKind int

const (
	evTrigger eventKind = iota
	evSummon
	evCustomSubmit
	evBack
	evDismiss
	evTogglePause
	evStopSpeech
	evCopyResult
	evCaptured
	evGenerated
	evSpeechStarted
	evSpeechStatus
	evFailed
)

type event struct {
	kind   eventKind
	token  uint64
	action string
	text   string
	status tts.Status
	err    error
}

// Machine is the action state machine. Construct with New, then run the
// coordinator with Run; every other method just posts an event and never
// blocks, so it is safe from hotkey and UI callbacks.
type Machine struct {
	capturer Capturer
	selector Selector
	gen      Generator
	speaker  Speaker
	sink     TextSink
	ui       UI
	cfg      Config

	events chan event

	// Coordinator-goroutine state. Never touched elsewhere.
	state   State
	current session
	nextTok uint64
}

// New wires the machine's collaborators. Everything is injected; the machine
// owns no globals.
func New(capturer Capturer, selector Selector, gen Generator, speaker Speaker, sink TextSink, ui UI, cfg Config) *Machine {
	return &Machine{
		capturer: capturer,
		selector: selector,
		gen:      gen,
		speaker:  speaker,
		sink:     sink,
		ui:       ui,
		cfg:      cfg,
		events:   make(chan event, 16),
		state:    State{Kind: StateActionList},
	}
}

// AttachUI sets the renderer. Must be called before Run; it exists because
// the window and the machine reference each other at construction time.
func (m *Machine) AttachUI(ui UI) { m.ui = ui }

// Run processes events until ctx is cancelled. All transitions happen here.
func (m *Machine) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-m.events:
			m.handle(ev)
		}
	}
}

// post delivers an event without blocking the caller. A full queue drops
// the event; the queue only fills if the coordinator is wedged.
func (m *Machine) post(ev event) {
	select {
	case m.events <- ev:
	default:
		log.Printf("Machine: event queue full, dropping %d", ev.kind)
	}
}

// Trigger dispatches an action by ID. Safe to call from any goroutine.
func (m *Machine) Trigger(actionID string) { m.post(event{kind: evTrigger, action: actionID}) }

// Summon opens the popup on the action list without dispatching.
func (m *Machine) Summon() { m.post(event{kind: evSummon}) }

// SubmitCustomPrompt moves customPrompt -> processing with the given instruction.
func (m *Machine) SubmitCustomPrompt(prompt string) {
	m.post(event{kind: evCustomSubmit, text: prompt})
}

// Back returns from result/error to the action list.
func (m *Machine) Back() { m.post(event{kind: evBack}) }

// Dismiss tears the popup down; any in-flight completion becomes stale.
func (m *Machine) Dismiss() { m.post(event{kind: evDismiss}) }

// TogglePause flips pause/resume during speech.
func (m *Machine) TogglePause() { m.post(event{kind: evTogglePause}) }

// StopSpeech ends the speech session.
func (m *Machine) StopSpeech() { m.post(event{kind: evStopSpeech}) }

// CopyResult writes the displayed result to the clipboard sink.
func (m *Machine) CopyResult() { m.post(event{kind: evCopyResult}) }

func (m *Machine) handle(ev event) {
	// Completions from background work must still belong to the session the
	// popup is showing; a newer trigger supersedes them.
	switch ev.kind {
	case evCaptured, evGenerated, evSpeechStarted, evSpeechStatus, evFailed:
		if ev.token != m.current.token {
			log.Printf("Machine: dropping stale %d (token %d, current %d)", ev.kind, ev.token, m.current.token)
			return
		}
	}

	switch ev.kind {
	case evTrigger:
		m.startTrigger(ev.action)
	case evSummon:
		// Re-summoning supersedes any in-flight dispatch: its completion
		// must not land on top of the fresh action list.
		m.nextTok++
		m.current = session{token: m.nextTok}
		m.transition(State{Kind: StateActionList})
	case evCustomSubmit:
		m.startCustomGeneration(ev.text)
	case evBack:
		if m.state.Kind == StateResult || m.state.Kind == StateError || m.state.Kind == StateCustomPrompt {
			m.transition(State{Kind: StateActionList})
		}
	case evDismiss:
		m.dismiss()
	case evTogglePause:
		m.togglePause()
	case evStopSpeech:
		if m.state.Kind == StateSpeaking {
			m.stopSpeech()
		}
	case evCopyResult:
		if m.state.Kind == StateResult && m.sink != nil {
			m.sink.WriteText(m.state.Text)
		}
	case evCaptured:
		m.onCaptured(ev.text)
	case evGenerated:
		m.elapsed("generation done")
		m.transition(State{Kind: StateResult, Text: ev.text})
	case evSpeechStarted:
		m.transition(State{Kind: StateSpeaking})
	case evSpeechStatus:
		m.onSpeechStatus(ev.status)
	case evFailed:
		m.elapsed("failed")
		m.transition(State{Kind: StateError, Err: ev.err})
	}
}

func (m *Machine) transition(next State) {
	log.Printf("Machine: %s -> %s", m.state.Kind, next.Kind)
	m.state = next
	if m.ui != nil {
		m.ui.Render(next)
	}
}

func (m *Machine) elapsed(what string) {
	if !m.current.started.IsZero() {
		log.Printf("Machine: %s after %s", what, time.Since(m.current.started).Round(time.Millisecond))
	}
}

// startTrigger begins a new session: supersede the old one, capture the
// selection in the background, then route by action type.
func (m *Machine) startTrigger(actionID string) {
	action, ok := actions.Lookup(m.cfg.Catalog(), actionID)
	if !ok {
		log.Printf("Machine: unknown action %q", actionID)
		return
	}

	if m.state.Kind == StateSpeaking {
		m.stopSpeech()
	}

	m.nextTok++
	m.current = session{token: m.nextTok, action: action, started: time.Now()}
	m.transition(State{Kind: StateProcessing})

	tok := m.current.token
	go func() {
		text, err := m.capturer.Capture()
		if err != nil {
			m.post(event{kind: evFailed, token: tok, err: err})
			return
		}
		m.post(event{kind: evCaptured, token: tok, text: text})
	}()
}

// onCaptured routes the capture result. Empty text fails fast with zero
// network calls; the speech action bypasses generation entirely.
func (m *Machine) onCaptured(text string) {
	if text == "" {
		m.transition(State{Kind: StateError, Err: ErrNoTextSelected})
		return
	}
	m.current.text = text

	switch {
	case m.current.action.Speech:
		m.startSpeech()
	case m.current.action.ID == actions.Custom:
		m.transition(State{Kind: StateCustomPrompt})
	default:
		m.startGeneration(m.current.action.Instruction)
	}
}

func (m *Machine) startCustomGeneration(instruction string) {
	if m.state.Kind != StateCustomPrompt {
		return
	}
	if instruction == "" {
		return
	}
	m.startGeneration(instruction)
}

// startGeneration selects a backend and runs the request off the
// coordinator. The backend choice comes back as a value from the selector;
// its probes are internally bounded, so this goroutine finishes even when
// every server is unresponsive.
func (m *Machine) startGeneration(instruction string) {
	m.transition(State{Kind: StateProcessing})

	tok := m.current.token
	text := m.current.text
	preferred, fallback := m.cfg.Backends()
	go func() {
		chosen, err := m.selector.Select(context.Background(), preferred, fallback)
		if err != nil {
			m.post(event{kind: evFailed, token: tok, err: err})
			return
		}

		prompt := instruction + "\n\n" + text
		out, err := m.gen.Generate(chosen, prompt, systemPrompt)
		if err != nil {
			m.post(event{kind: evFailed, token: tok, err: err})
			return
		}
		m.post(event{kind: evGenerated, token: tok, text: out})
	}()
}

// startSpeech launches the TTS session. Speech has no cross-provider
// fallback; a dead server surfaces immediately.
func (m *Machine) startSpeech() {
	tok := m.current.token
	text := m.current.text
	voice, speed := m.cfg.Voice()
	go func() {
		err := m.speaker.Speak(text, voice, speed, func(status tts.Status) {
			m.post(event{kind: evSpeechStatus, token: tok, status: status})
		})
		if err != nil {
			m.post(event{kind: evFailed, token: tok, err: err})
			return
		}
		m.post(event{kind: evSpeechStarted, token: tok})
	}()
}

func (m *Machine) onSpeechStatus(status tts.Status) {
	if m.state.Kind != StateSpeaking {
		return
	}
	switch status {
	case tts.StatusIdle:
		// Natural completion or stop: back to the menu.
		m.transition(State{Kind: StateActionList})
	case tts.StatusPaused:
		m.transition(State{Kind: StateSpeaking, Paused: true})
	case tts.StatusSpeaking:
		m.transition(State{Kind: StateSpeaking, Paused: false})
	}
}

// togglePause issues pause/resume off the coordinator; the outcome comes
// back as a speech-status event, so a slow server delays only this session's
// rendering, never event processing.
func (m *Machine) togglePause() {
	if m.state.Kind != StateSpeaking {
		return
	}
	tok := m.current.token
	resume := m.state.Paused
	go func() {
		var (
			err  error
			next tts.Status
		)
		if resume {
			err = m.speaker.Resume()
			next = tts.StatusSpeaking
		} else {
			err = m.speaker.Pause()
			next = tts.StatusPaused
		}
		if err != nil {
			log.Printf("Machine: pause/resume: %v", err)
			return
		}
		m.post(event{kind: evSpeechStatus, token: tok, status: next})
	}()
}

// stopSpeech ends the session off the coordinator. The poller's final idle
// callback drives the transition back to the action list.
func (m *Machine) stopSpeech() {
	go func() {
		if err := m.speaker.Stop(); err != nil {
			log.Printf("Machine: stop speech: %v", err)
		}
	}()
}

// dismiss tears down the window. Not a state a component consumes: the
// machine resets to the action list for the next summon, in-flight requests
// keep running and their results are discarded on arrival.
func (m *Machine) dismiss() {
	if m.state.Kind == StateSpeaking {
		m.stopSpeech()
	}
	m.nextTok++
	m.current = session{token: m.nextTok}
	m.state = State{Kind: StateActionList}
	if m.ui != nil {
		m.ui.Hide()
	}
}
