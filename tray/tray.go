// Package tray puts the agent in the system tray / menu bar.
package tray

import (
	"log"

	"github.com/getlantern/systray"
)

// Handlers react to tray menu clicks.
type Handlers struct {
	OnOpen   func()
	OnReload func()
	OnQuit   func()
}

// Run starts the tray loop. Blocks until Quit; must run on the main thread
// on platforms that require it.
func Run(h Handlers) {
	systray.Run(func() { onReady(h) }, func() {
		if h.OnQuit != nil {
			h.OnQuit()
		}
	})
}

// Quit tears down the tray and unblocks Run.
func Quit() {
	systray.Quit()
}

func onReady(h Handlers) {
	systray.SetIcon(iconData)
	systray.SetTitle("PopDraft")
	systray.SetTooltip("PopDraft: select text, press your hotkey")

	mOpen := systray.AddMenuItem("Open PopDraft", "Show the action popup")
	mReload := systray.AddMenuItem("Reload hotkeys", "Re-register hotkeys from the config file")
	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Quit PopDraft")

	go func() {
		for {
			select {
			case <-mOpen.ClickedCh:
				if h.OnOpen != nil {
					h.OnOpen()
				}
			case <-mReload.ClickedCh:
				log.Printf("Tray: reload requested")
				if h.OnReload != nil {
					h.OnReload()
				}
			case <-mQuit.ClickedCh:
				systray.Quit()
				return
			}
		}
	}()
}
