package dispatch

import "fmt"

// StateKind enumerates the popup's states.
type StateKind int

const (
	// StateActionList shows the action menu. Always the initial state.
	StateActionList StateKind = iota
	// StateCustomPrompt collects a free-form instruction from the user.
	StateCustomPrompt
	// StateProcessing covers capture, backend selection and generation.
	StateProcessing
	// StateResult shows generated text.
	StateResult
	// StateError shows a human-readable failure.
	StateError
	// StateSpeaking covers an active speech session, paused or not.
	StateSpeaking
)

func (k StateKind) String() string {
	switch k {
	case StateActionList:
		return "actionList"
	case StateCustomPrompt:
		return "customPrompt"
	case StateProcessing:
		return "processing"
	case StateResult:
		return "result"
	case StateError:
		return "error"
	case StateSpeaking:
		return "speaking"
	}
	return fmt.Sprintf("state(%d)", int(k))
}

// State is the machine's current position plus its payload: result text,
// error message, or speech pause flag, depending on Kind.
type State struct {
	Kind   StateKind
	Text   string // StateResult: generated text
	Err    error  // StateError: what went wrong
	Paused bool   // StateSpeaking: playback suspended
}
