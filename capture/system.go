package capture

import (
	"context"
	"runtime"
	"sync/atomic"

	"github.com/go-vgo/robotgo"
	"golang.design/x/clipboard"
)

// SystemClipboard backs the Clipboard interface with the real OS clipboard.
// A watch goroutine maintains the change counter, since the underlying
// library exposes change notification but not a counter directly.
type SystemClipboard struct {
	count  atomic.Uint64
	cancel context.CancelFunc
}

// NewSystemClipboard initializes clipboard access and starts the change
// watcher. Call Close when done.
func NewSystemClipboard() (*SystemClipboard, error) {
	if err := clipboard.Init(); err != nil {
		return nil, err
	}

	sc := &SystemClipboard{}
	ctx, cancel := context.WithCancel(context.Background())
	sc.cancel = cancel

	textCh := clipboard.Watch(ctx, clipboard.FmtText)
	imageCh := clipboard.Watch(ctx, clipboard.FmtImage)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-textCh:
				if !ok {
					return
				}
				sc.count.Add(1)
			case _, ok := <-imageCh:
				if !ok {
					return
				}
				sc.count.Add(1)
			}
		}
	}()

	return sc, nil
}

// Close stops the change watcher.
func (sc *SystemClipboard) Close() {
	if sc.cancel != nil {
		sc.cancel()
	}
}

func (sc *SystemClipboard) Snapshot() []Item {
	var items []Item
	if data := clipboard.Read(clipboard.FmtText); len(data) > 0 {
		items = append(items, Item{Format: FormatText, Data: append([]byte(nil), data...)})
	}
	if data := clipboard.Read(clipboard.FmtImage); len(data) > 0 {
		items = append(items, Item{Format: FormatImage, Data: append([]byte(nil), data...)})
	}
	return items
}

// Restore rewrites the clipboard to match the snapshot exactly: clear
// first, then apply the snapshot items. Restoring an empty snapshot empties
// the clipboard instead of leaving the copied selection behind.
func (sc *SystemClipboard) Restore(items []Item) {
	clipboard.Write(clipboard.FmtText, nil)
	for _, item := range items {
		switch item.Format {
		case FormatText:
			clipboard.Write(clipboard.FmtText, item.Data)
		case FormatImage:
			clipboard.Write(clipboard.FmtImage, item.Data)
		}
	}
}

func (sc *SystemClipboard) ReadText() string {
	return string(clipboard.Read(clipboard.FmtText))
}

func (sc *SystemClipboard) WriteText(text string) {
	clipboard.Write(clipboard.FmtText, []byte(text))
}

func (sc *SystemClipboard) ChangeCount() uint64 {
	return sc.count.Load()
}

// KeystrokeCopier sends the platform copy chord to the frontmost app.
type KeystrokeCopier struct{}

func (KeystrokeCopier) SendCopy() error {
	mod := "ctrl"
	if runtime.GOOS == "darwin" {
		mod = "cmd"
	}
	return robotgo.KeyTap("c", mod)
}
