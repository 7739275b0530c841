// Package capture snapshots the user's current selection by synthesizing a
// copy keystroke and reading the clipboard, then restores the clipboard to
// its pre-capture contents on every exit path.
package capture

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// Item is one type-tagged clipboard payload.
type Item struct {
	Format Format
	Data   []byte
}

// Format tags a clipboard payload type.
type Format int

const (
	FormatText Format = iota
	FormatImage
)

// Clipboard abstracts the system clipboard. ChangeCount must increase every
// time any application writes to the clipboard; it is how "no selection" is
// told apart from stale content.
type Clipboard interface {
	Snapshot() []Item
	Restore(items []Item)
	ReadText() string
	WriteText(text string)
	ChangeCount() uint64
}

// Copier synthesizes the platform copy keystroke in the frontmost app.
type Copier interface {
	SendCopy() error
}

const defaultSettle = 300 * time.Millisecond

// Service performs serial selection captures. The clipboard is treated as an
// exclusively-owned resource for the duration of one Capture call.
type Service struct {
	mu     sync.Mutex
	clip   Clipboard
	copier Copier
	settle time.Duration
}

// New builds a Service. A settle <= 0 selects the 300ms default; copy
// propagation is not synchronously observable, so the wait is mandatory.
func New(clip Clipboard, copier Copier, settle time.Duration) *Service {
	if settle <= 0 {
		settle = defaultSettle
	}
	return &Service{clip: clip, copier: copier, settle: settle}
}

// Capture returns the currently selected text, or "" when nothing is
// selected. The pre-call clipboard contents are restored before returning,
// whether the copy succeeded, found no selection, or failed outright.
func (s *Service) Capture() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := s.clip.Snapshot()
	countBefore := s.clip.ChangeCount()
	defer s.clip.Restore(saved)

	if err := s.copier.SendCopy(); err != nil {
		return "", fmt.Errorf("send copy keystroke: %w", err)
	}

	time.Sleep(s.settle)

	if s.clip.ChangeCount() == countBefore {
		// Copy produced no clipboard write: nothing was selected.
		log.Printf("Capture: clipboard unchanged, no selection")
		return "", nil
	}

	text := s.clip.ReadText()
	log.Printf("Capture: got %d chars", len(text))
	return text, nil
}
