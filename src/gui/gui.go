package gui

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"scope-z/src/binding"
	"scope-z/src/eventloop"
	"scope-z/src/hotkey"
	"scope-z/src/recorder"
	"scope-z/src/settings"
	"scope-z/src/tray"
)

const (
	appID         = "app.scopez.controller"
	windowTitle   = "Scope Z"
	globalTimeout = 10 * time.Second
	commandTimeout = 5 * time.Second
)

// Controller is the part of the event loop the window drives.
type Controller interface {
	Edit(fn func(settings.Settings) settings.Settings)
	Do(ctx context.Context, cmd eventloop.Command) (eventloop.Status, error)
	Subscribe(fn eventloop.Listener)
}

type Options struct {
	Controller  Controller
	Logger      *slog.Logger
	StartHidden bool
	// OnQuit runs once when the user chooses Exit.
	OnQuit func()
}

// App is the settings window plus its tray menu.
type App struct {
	app    fyne.App
	window fyne.Window
	ctrl   Controller
	logger *slog.Logger
	hidden bool

	arbiter *recorder.Arbiter
	buttons map[settings.Slot]*bindingButton

	lensSlider  *widget.Slider
	zoomSlider  *widget.Slider
	fpsSlider   *widget.Slider
	lensValue   *widget.Label
	zoomValue   *widget.Label
	fpsValue    *widget.Label
	shapeSelect *widget.Select
	startBtn    *widget.Button
	status      *widget.Label
	notice      *widget.Label
	trayToggle  *fyne.MenuItem
	trayMenu    *fyne.Menu

	// syncing is set while a published status is copied into the widgets so that the widget
	// callbacks do not turn it back into a user edit. Only touched on the UI goroutine.
	syncing bool

	quitOnce sync.Once
	onQuit   func()
}

// New builds the window. Call Run to show it and enter the UI loop.
func New(opts Options) *App {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{
		app:     app.NewWithID(appID),
		ctrl:    opts.Controller,
		logger:  logger,
		hidden:  opts.StartHidden,
		arbiter: recorder.NewArbiter(),
		buttons: make(map[settings.Slot]*bindingButton),
		onQuit:  opts.OnQuit,
	}
	a.app.SetIcon(tray.IconResource())
	a.window = a.app.NewWindow(windowTitle)
	a.window.SetContent(a.build())
	a.window.Resize(fyne.NewSize(460, 0))
	a.window.SetFixedSize(true)
	a.window.CenterOnScreen()
	a.window.SetCloseIntercept(func() { a.window.Hide() })
	a.installTray()

	a.ctrl.Subscribe(func(st eventloop.Status) {
		fyne.Do(func() { a.apply(st) })
	})
	return a
}

// Run blocks in the UI loop until Quit.
func (a *App) Run() {
	if a.hidden {
		a.app.Run()
		return
	}
	a.window.ShowAndRun()
}

// Show brings the window to the front. Safe from any goroutine.
func (a *App) Show() {
	fyne.Do(func() {
		a.window.Show()
		a.window.RequestFocus()
	})
}

// Quit leaves the UI loop. Safe from any goroutine.
func (a *App) Quit() {
	a.quitOnce.Do(func() {
		a.arbiter.CancelAll()
		if a.onQuit != nil {
			a.onQuit()
		}
		fyne.Do(a.app.Quit)
	})
}

func (a *App) build() fyne.CanvasObject {
	bindingForm := widget.NewForm()
	for _, slot := range settings.Slots {
		btn := newBindingButton(slot.String(), settings.DefaultBinding(slot), a.arbiter, func(b binding.Binding) {
			a.logger.Info("gui: binding recorded", "slot", slot.String(), "binding", b.DisplayName())
			a.ctrl.Edit(func(s settings.Settings) settings.Settings { return s.WithBinding(slot, b) })
		})
		a.buttons[slot] = btn

		global := widget.NewButtonWithIcon("", theme.ComputerIcon(), func() { a.captureGlobal(btn) })
		bindingForm.Append(slot.Label(), container.NewBorder(nil, nil, nil, global, btn))
	}

	a.lensSlider = widget.NewSlider(settings.MinLensSize, settings.MaxLensSize)
	a.lensSlider.Step = settings.LensSizeStep
	a.lensValue = widget.NewLabel("")
	a.lensSlider.OnChanged = func(v float64) {
		if a.syncing {
			return
		}
		size := settings.SnapLensSize(int(v))
		a.lensValue.SetText(lensText(size))
		a.ctrl.Edit(func(s settings.Settings) settings.Settings {
			s.LensSize = size
			return s
		})
	}

	a.zoomSlider = widget.NewSlider(settings.MinZoom, settings.MaxZoom)
	a.zoomSlider.Step = settings.ZoomStep
	a.zoomValue = widget.NewLabel("")
	a.zoomSlider.OnChanged = func(v float64) {
		if a.syncing {
			return
		}
		zoom := settings.SnapZoom(v)
		a.zoomValue.SetText(zoomText(zoom))
		a.ctrl.Edit(func(s settings.Settings) settings.Settings {
			s.ZoomFactor = zoom
			return s
		})
	}

	a.fpsSlider = widget.NewSlider(0, float64(len(settings.FPSOptions)-1))
	a.fpsSlider.Step = 1
	a.fpsValue = widget.NewLabel("")
	a.fpsSlider.OnChanged = func(v float64) {
		if a.syncing {
			return
		}
		fps := fpsAt(v)
		a.fpsValue.SetText(fpsText(fps))
		a.ctrl.Edit(func(s settings.Settings) settings.Settings {
			s.FPS = fps
			return s
		})
	}

	a.shapeSelect = widget.NewSelect(shapeOptions(), func(v string) {
		if a.syncing {
			return
		}
		shape, ok := shapeFromLabel(v)
		if !ok {
			return
		}
		a.ctrl.Edit(func(s settings.Settings) settings.Settings {
			s.LensShape = shape
			return s
		})
	})

	a.startBtn = widget.NewButton("Start", func() { a.command(eventloop.CmdToggle) })
	a.startBtn.Importance = widget.HighImportance
	a.status = widget.NewLabel(statusText(eventloop.Status{}))
	a.status.TextStyle = fyne.TextStyle{Bold: true}
	a.notice = widget.NewLabel("")
	a.notice.Wrapping = fyne.TextWrapWord
	a.notice.Hide()

	sliderRow := func(label string, value *widget.Label, s *widget.Slider) fyne.CanvasObject {
		value.Alignment = fyne.TextAlignTrailing
		value.TextStyle = fyne.TextStyle{Bold: true}
		return container.NewVBox(container.NewBorder(nil, nil, widget.NewLabel(label), value, nil), s)
	}
	lensCard := widget.NewCard("Lens", "", container.NewVBox(
		sliderRow("Size", a.lensValue, a.lensSlider),
		sliderRow("Zoom", a.zoomValue, a.zoomSlider),
		sliderRow("Frame rate", a.fpsValue, a.fpsSlider),
		widget.NewForm(widget.NewFormItem("Shape", a.shapeSelect)),
	))
	bindingCard := widget.NewCard("Bindings", "Click a binding, then press a key, button or wheel. Esc cancels.", bindingForm)

	return container.NewPadded(container.NewVBox(
		bindingCard,
		lensCard,
		a.notice,
		container.NewBorder(nil, nil, a.status, a.startBtn),
	))
}

func (a *App) installTray() {
	desk, ok := a.app.(desktop.App)
	if !ok {
		return
	}
	a.trayToggle = fyne.NewMenuItem("Start", func() { a.command(eventloop.CmdToggle) })
	show := fyne.NewMenuItem("Show settings", func() {
		a.window.Show()
		a.window.RequestFocus()
	})
	exit := fyne.NewMenuItem("Exit", a.Quit)
	exit.IsQuit = true
	a.trayMenu = fyne.NewMenu(windowTitle, show, a.trayToggle, fyne.NewMenuItemSeparator(), exit)
	desk.SetSystemTrayMenu(a.trayMenu)
	desk.SetSystemTrayIcon(tray.IconResource())
}

func (a *App) command(cmd eventloop.Command) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		if _, err := a.ctrl.Do(ctx, cmd); err != nil {
			a.logger.Warn("gui: command failed", "command", cmd.String(), "error", err)
		}
	}()
}

func (a *App) captureGlobal(btn *bindingButton) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), globalTimeout)
		defer cancel()
		if _, err := hotkey.Capture(ctx, btn.Recorder(), a.logger); err != nil {
			a.logger.Info("gui: global capture ended", "slot", btn.Recorder().Name(), "error", err)
		}
	}()
}

// apply copies a published status into the widgets without producing edits.
func (a *App) apply(st eventloop.Status) {
	a.syncing = true
	defer func() { a.syncing = false }()

	s := st.Settings
	for _, slot := range settings.Slots {
		a.buttons[slot].SetBinding(s.Binding(slot))
	}
	a.lensSlider.SetValue(float64(s.LensSize))
	a.lensValue.SetText(lensText(s.LensSize))
	a.zoomSlider.SetValue(s.ZoomFactor)
	a.zoomValue.SetText(zoomText(s.ZoomFactor))
	a.fpsSlider.SetValue(float64(settings.FPSIndex(s.FPS)))
	a.fpsValue.SetText(fpsText(s.FPS))
	a.shapeSelect.SetSelected(shapeLabel(s.LensShape))

	a.status.SetText(statusText(st))
	a.startBtn.SetText(startLabel(st.Running))
	if a.trayToggle != nil {
		a.trayToggle.Label = startLabel(st.Running)
		a.trayMenu.Refresh()
	}
	if st.Notice != "" {
		a.notice.SetText(st.Notice)
		a.notice.Show()
	} else {
		a.notice.Hide()
	}
}

func statusText(st eventloop.Status) string {
	switch {
	case st.LastError != "":
		return "✖ " + st.LastError
	case st.Running:
		return "● Running"
	default:
		return "● Stopped"
	}
}

func startLabel(running bool) string {
	if running {
		return "Stop"
	}
	return "Start"
}

func lensText(size int) string { return fmt.Sprintf("%d px", size) }

func zoomText(zoom float64) string { return strconv.FormatFloat(zoom, 'f', -1, 64) + "x" }

func fpsText(fps int) string { return fmt.Sprintf("%d fps", fps) }

func fpsAt(v float64) int {
	i := int(v + 0.5)
	if i < 0 || i >= len(settings.FPSOptions) {
		return settings.DefaultFPS
	}
	return settings.FPSOptions[i]
}

func shapeOptions() []string {
	return []string{shapeLabel(settings.Circle), shapeLabel(settings.Rectangle)}
}

func shapeLabel(s settings.Shape) string {
	if s == settings.Rectangle {
		return "Rectangle"
	}
	return "Circle"
}

func shapeFromLabel(v string) (settings.Shape, bool) {
	s, err := settings.ParseShape(v)
	return s, err == nil
}
