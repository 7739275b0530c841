// PopDraft: select text anywhere, press a hotkey, get it transformed or
// spoken. This is the composition root; every component is constructed here
// and wired explicitly.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"

	"fyne.io/fyne/v2/app"

	"github.com/bachner/popdraft/actions"
	"github.com/bachner/popdraft/backend"
	"github.com/bachner/popdraft/capture"
	"github.com/bachner/popdraft/config"
	"github.com/bachner/popdraft/dispatch"
	"github.com/bachner/popdraft/hotkeys"
	"github.com/bachner/popdraft/llm"
	"github.com/bachner/popdraft/logutil"
	"github.com/bachner/popdraft/popup"
	"github.com/bachner/popdraft/tray"
	"github.com/bachner/popdraft/tts"
)

// settings guards the live configuration. Reads happen per trigger; writes
// only on explicit reload from the tray.
type settings struct {
	mu  sync.RWMutex
	cfg *config.Config
}

func (s *settings) get() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

func (s *settings) set(cfg *config.Config) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
}

func main() {
	cfgPath := config.Path()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "popdraft: %v\n", err)
		os.Exit(1)
	}
	logutil.Setup(cfg.EnableFileLogging)
	log.Printf("PopDraft starting, config at %s", cfgPath)

	live := &settings{cfg: cfg}

	clip, err := capture.NewSystemClipboard()
	if err != nil {
		fmt.Fprintf(os.Stderr, "popdraft: clipboard init: %v\n", err)
		os.Exit(1)
	}
	defer clip.Close()

	capturer := capture.New(clip, capture.KeystrokeCopier{}, 0)
	selector := backend.NewSelector(0)
	_, _, local := backend.FromSettings(cfg)
	generator := llm.New(local)
	speaker := tts.New(cfg.TTSURL, 0)

	fapp := app.New()

	catalog := func() []actions.Action { return actions.Catalog(live.get()) }
	machine := dispatch.New(
		capturer,
		selector,
		generator,
		speaker,
		clip,
		nil, // UI attached below; popup needs the machine first
		dispatch.Config{
			Backends: func() (*backend.Config, *backend.Config) {
				preferred, fallback, _ := backend.FromSettings(live.get())
				return preferred, fallback
			},
			Catalog: catalog,
			Voice: func() (string, float64) {
				c := live.get()
				return c.TTSVoice, c.TTSSpeed
			},
		},
	)
	win := popup.New(fapp, machine, catalog)
	machine.AttachUI(win)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go machine.Run(ctx)

	manager := hotkeys.NewManager(func(actionID string) {
		if actionID == hotkeys.Summon {
			machine.Summon()
			return
		}
		machine.Trigger(actionID)
	})
	manager.RegisterAll(buildBindings(live.get()))

	go tray.Run(tray.Handlers{
		OnOpen: machine.Summon,
		OnReload: func() {
			fresh, err := config.Load(cfgPath)
			if err != nil {
				log.Printf("Reload: %v", err)
				return
			}
			live.set(fresh)
			manager.Reload(buildBindings(fresh))
		},
		OnQuit: func() {
			cancel()
			fapp.Quit()
		},
	})

	// Fyne owns the main thread; everything else runs behind it.
	fapp.Run()
}

// buildBindings derives the hotkey set from configuration: the summon combo
// plus one binding per enabled action that has one.
func buildBindings(cfg *config.Config) []hotkeys.Binding {
	bindings := []hotkeys.Binding{{Combo: cfg.SummonHotkey, Action: hotkeys.Summon}}
	for _, a := range actions.Catalog(cfg) {
		if a.Hotkey == "" {
			continue
		}
		bindings = append(bindings, hotkeys.Binding{Combo: a.Hotkey, Action: a.ID})
	}
	return bindings
}
