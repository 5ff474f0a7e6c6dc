//go:build !darwin

package tray

import (
	"runtime"
	"sync"

	"github.com/getlantern/systray"

	"scope-z/src/eventloop"
	"scope-z/src/settings"
)

// Run shows the headless tray menu and blocks until Quit or Exit.
func Run(opts Options) error {
	systray.Run(func() { onReady(&opts) }, func() {
		if opts.OnExit != nil {
			opts.OnExit()
		}
	})
	return nil
}

// Quit ends Run. Safe from any goroutine.
func Quit() { systray.Quit() }

func onReady(opts *Options) {
	logger := opts.logger()
	if runtime.GOOS == "windows" {
		systray.SetIcon(IconICO())
	} else {
		systray.SetIcon(IconPNG())
	}
	systray.SetTitle(title)
	systray.SetTooltip(title)

	mStatus := systray.AddMenuItem("Stopped", "Magnifier status")
	mStatus.Disable()
	mToggle := systray.AddMenuItem(toggleTitle(false), "Start or stop the magnifier")
	systray.AddSeparator()
	mRecord := make(map[settings.Slot]*systray.MenuItem, len(settings.Slots))
	for _, slot := range settings.Slots {
		mRecord[slot] = systray.AddMenuItem(recordTitle(slot, settings.DefaultBinding(slot)), "Press the new binding anywhere; Esc cancels")
	}
	systray.AddSeparator()
	mOpen := systray.AddMenuItem("Open settings file", opts.SettingsPath)
	mQuit := systray.AddMenuItem("Exit", "Stop the magnifier and exit")

	var mu sync.Mutex
	var current eventloop.Status
	opts.Controller.Subscribe(func(st eventloop.Status) {
		mu.Lock()
		current = st
		mu.Unlock()

		systray.SetTooltip(tooltip(st))
		mStatus.SetTitle(statusLine(st))
		mToggle.SetTitle(toggleTitle(st.Running))
		for _, slot := range settings.Slots {
			mRecord[slot].SetTitle(recordTitle(slot, st.Settings.Binding(slot)))
		}
	})
	snapshot := func() eventloop.Status {
		mu.Lock()
		defer mu.Unlock()
		return current
	}

	go func() {
		for {
			select {
			case <-mToggle.ClickedCh:
				go command(opts.Controller, logger, eventloop.CmdToggle)
			case <-mRecord[settings.SlotToggle].ClickedCh:
				go record(opts, settings.SlotToggle, snapshot().Settings.Toggle)
			case <-mRecord[settings.SlotZoomIn].ClickedCh:
				go record(opts, settings.SlotZoomIn, snapshot().Settings.ZoomIn)
			case <-mRecord[settings.SlotZoomOut].ClickedCh:
				go record(opts, settings.SlotZoomOut, snapshot().Settings.ZoomOut)
			case <-mOpen.ClickedCh:
				if err := openFile(opts.SettingsPath); err != nil {
					logger.Warn("tray: cannot open settings file", "path", opts.SettingsPath, "error", err)
				}
			case <-mQuit.ClickedCh:
				systray.Quit()
				return
			}
		}
	}()
}

func statusLine(st eventloop.Status) string {
	switch {
	case st.LastError != "":
		return "Error: " + st.LastError
	case st.Running:
		return "Running"
	default:
		return "Stopped"
	}
}
