// Package popup renders the dispatch machine's states in a small Fyne
// window. All mutations hop onto the Fyne thread; the machine never blocks
// on rendering.
package popup

import (
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/bachner/popdraft/actions"
	"github.com/bachner/popdraft/dispatch"
)

// Controls is the subset of the machine the window drives.
type Controls interface {
	Trigger(actionID string)
	SubmitCustomPrompt(prompt string)
	Back()
	Dismiss()
	TogglePause()
	StopSpeech()
	CopyResult()
}

// Window is the popup. It implements dispatch.UI.
type Window struct {
	app     fyne.App
	win     fyne.Window
	machine Controls
	catalog func() []actions.Action
}

// New builds the popup window against an existing Fyne app.
func New(a fyne.App, machine Controls, catalog func() []actions.Action) *Window {
	w := &Window{app: a, machine: machine, catalog: catalog}
	w.win = a.NewWindow("PopDraft")
	w.win.Resize(fyne.NewSize(420, 320))
	w.win.SetCloseIntercept(func() {
		machine.Dismiss()
	})
	return w
}

// Render displays the given state. Safe from any goroutine.
func (w *Window) Render(state dispatch.State) {
	fyne.Do(func() {
		w.win.SetContent(w.content(state))
		w.win.Show()
		w.win.RequestFocus()
	})
}

// Hide tears the window down without a state transition.
func (w *Window) Hide() {
	fyne.Do(func() {
		w.win.Hide()
	})
}

func (w *Window) content(state dispatch.State) fyne.CanvasObject {
	switch state.Kind {
	case dispatch.StateActionList:
		return w.actionList()
	case dispatch.StateCustomPrompt:
		return w.customPrompt()
	case dispatch.StateProcessing:
		return w.processing()
	case dispatch.StateResult:
		return w.result(state.Text)
	case dispatch.StateError:
		return w.errorView(state.Err)
	case dispatch.StateSpeaking:
		return w.speaking(state.Paused)
	}
	log.Printf("Popup: no view for state %v", state.Kind)
	return widget.NewLabel("")
}

func (w *Window) actionList() fyne.CanvasObject {
	items := []fyne.CanvasObject{widget.NewLabelWithStyle("Choose an action", fyne.TextAlignCenter, fyne.TextStyle{Bold: true})}
	for _, a := range w.catalog() {
		id := a.ID
		label := a.Name
		if a.Hotkey != "" {
			label += "  (" + a.Hotkey + ")"
		}
		items = append(items, widget.NewButton(label, func() {
			w.machine.Trigger(id)
		}))
	}
	return container.NewVScroll(container.NewVBox(items...))
}

func (w *Window) customPrompt() fyne.CanvasObject {
	entry := widget.NewMultiLineEntry()
	entry.SetPlaceHolder("What should I do with the selected text?")
	submit := widget.NewButton("Go", func() {
		w.machine.SubmitCustomPrompt(entry.Text)
	})
	back := widget.NewButton("Back", func() {
		w.machine.Back()
	})
	return container.NewBorder(nil, container.NewHBox(back, submit), nil, nil, entry)
}

func (w *Window) processing() fyne.CanvasObject {
	bar := widget.NewProgressBarInfinite()
	return container.NewVBox(
		widget.NewLabelWithStyle("Working...", fyne.TextAlignCenter, fyne.TextStyle{}),
		bar,
	)
}

func (w *Window) result(text string) fyne.CanvasObject {
	out := widget.NewMultiLineEntry()
	out.SetText(text)
	out.Wrapping = fyne.TextWrapWord
	copyBtn := widget.NewButton("Copy", func() {
		w.machine.CopyResult()
	})
	back := widget.NewButton("Back", func() {
		w.machine.Back()
	})
	done := widget.NewButton("Done", func() {
		w.machine.Dismiss()
	})
	return container.NewBorder(nil, container.NewHBox(back, copyBtn, done), nil, nil, out)
}

func (w *Window) errorView(err error) fyne.CanvasObject {
	msg := "Something went wrong"
	if err != nil {
		msg = err.Error()
	}
	text := widget.NewLabel(msg)
	text.Wrapping = fyne.TextWrapWord
	back := widget.NewButton("Back", func() {
		w.machine.Back()
	})
	dismiss := widget.NewButton("Dismiss", func() {
		w.machine.Dismiss()
	})
	return container.NewBorder(nil, container.NewHBox(back, dismiss), nil, nil, text)
}

func (w *Window) speaking(paused bool) fyne.CanvasObject {
	title := "Speaking..."
	pauseLabel := "Pause"
	if paused {
		title = "Paused"
		pauseLabel = "Resume"
	}
	pause := widget.NewButton(pauseLabel, func() {
		w.machine.TogglePause()
	})
	stop := widget.NewButton("Stop", func() {
		w.machine.StopSpeech()
	})
	return container.NewVBox(
		widget.NewLabelWithStyle(title, fyne.TextAlignCenter, fyne.TextStyle{Bold: true}),
		container.NewHBox(pause, stop),
	)
}
