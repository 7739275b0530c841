package capture

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

// fakeClipboard records every mutation so tests can assert the restore
// invariant: post-Capture contents equal pre-Capture contents.
type fakeClipboard struct {
	text  string
	image []byte
	count uint64
}

func (f *fakeClipboard) Snapshot() []Item {
	var items []Item
	if f.text != "" {
		items = append(items, Item{Format: FormatText, Data: []byte(f.text)})
	}
	if len(f.image) > 0 {
		items = append(items, Item{Format: FormatImage, Data: append([]byte(nil), f.image...)})
	}
	return items
}

func (f *fakeClipboard) Restore(items []Item) {
	f.text = ""
	f.image = nil
	for _, item := range items {
		switch item.Format {
		case FormatText:
			f.text = string(item.Data)
		case FormatImage:
			f.image = append([]byte(nil), item.Data...)
		}
	}
	f.count++
}

func (f *fakeClipboard) ReadText() string { return f.text }

func (f *fakeClipboard) WriteText(text string) {
	f.text = text
	f.count++
}

func (f *fakeClipboard) ChangeCount() uint64 { return f.count }

// selectingCopier simulates a copy that lands selected text on the clipboard.
type selectingCopier struct {
	clip      *fakeClipboard
	selection string
}

func (c selectingCopier) SendCopy() error {
	c.clip.WriteText(c.selection)
	return nil
}

// noopCopier simulates a copy with nothing selected: no clipboard write.
type noopCopier struct{}

func (noopCopier) SendCopy() error { return nil }

// failingCopier simulates the copy command itself failing.
type failingCopier struct{}

func (failingCopier) SendCopy() error { return errors.New("keystroke rejected") }

func TestCaptureReturnsSelection(t *testing.T) {
	clip := &fakeClipboard{text: "previous contents", image: []byte{1, 2, 3}}
	before := clip.Snapshot()

	s := New(clip, selectingCopier{clip: clip, selection: "hello world"}, time.Millisecond)
	text, err := s.Capture()
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if text != "hello world" {
		t.Errorf("Expected 'hello world', got %q", text)
	}
	if !reflect.DeepEqual(clip.Snapshot(), before) {
		t.Errorf("Clipboard not restored: %+v", clip.Snapshot())
	}
}

func TestCaptureNoSelection(t *testing.T) {
	clip := &fakeClipboard{text: "stale clipboard content"}
	before := clip.Snapshot()

	s := New(clip, noopCopier{}, time.Millisecond)
	text, err := s.Capture()
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if text != "" {
		t.Errorf("Expected empty result when clipboard unchanged, got %q (stale content leaked)", text)
	}
	if !reflect.DeepEqual(clip.Snapshot(), before) {
		t.Errorf("Clipboard not restored: %+v", clip.Snapshot())
	}
}

func TestCaptureRestoresOnCopyFailure(t *testing.T) {
	clip := &fakeClipboard{text: "previous contents"}
	before := clip.Snapshot()

	s := New(clip, failingCopier{}, time.Millisecond)
	_, err := s.Capture()
	if err == nil {
		t.Fatal("Expected error from failing copier")
	}
	if !reflect.DeepEqual(clip.Snapshot(), before) {
		t.Errorf("Clipboard not restored after failure: %+v", clip.Snapshot())
	}
}

func TestCaptureEmptyClipboardNotPollutedBySelection(t *testing.T) {
	clip := &fakeClipboard{}

	s := New(clip, selectingCopier{clip: clip, selection: "copied selection"}, time.Millisecond)
	text, err := s.Capture()
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if text != "copied selection" {
		t.Errorf("Expected 'copied selection', got %q", text)
	}
	if len(clip.Snapshot()) != 0 {
		t.Errorf("Selection leaked onto the previously empty clipboard: %+v", clip.Snapshot())
	}
}

func TestCaptureEmptyClipboardStaysEmpty(t *testing.T) {
	clip := &fakeClipboard{}

	s := New(clip, noopCopier{}, time.Millisecond)
	text, err := s.Capture()
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if text != "" {
		t.Errorf("Expected empty result, got %q", text)
	}
	if len(clip.Snapshot()) != 0 {
		t.Errorf("Expected empty clipboard after restore, got %+v", clip.Snapshot())
	}
}
