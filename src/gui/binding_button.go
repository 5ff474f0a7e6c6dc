package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"scope-z/src/binding"
	"scope-z/src/recorder"
)

const recordingLabel = "Press a key…"

// bindingButton shows a binding and records a new one when tapped. While recording it takes
// keyboard focus and feeds key, button and wheel events to its recorder.
type bindingButton struct {
	widget.Button

	rec      *recorder.Recorder
	focusFn  func(fyne.Focusable)
	unfocus  func()
	onCommit func(binding.Binding)

	// consumedPress is set when a primary press was recorded. The driver follows that press with
	// MouseUp and Tapped, and the Tapped must not start a new recording.
	consumedPress bool
}

var (
	_ desktop.Mouseable = (*bindingButton)(nil)
	_ desktop.Keyable   = (*bindingButton)(nil)
	_ fyne.Scrollable   = (*bindingButton)(nil)
)

func newBindingButton(name string, initial binding.Binding, arbiter *recorder.Arbiter, onCommit func(binding.Binding)) *bindingButton {
	b := &bindingButton{onCommit: onCommit}
	b.rec = recorder.New(name, initial,
		recorder.WithArbiter(arbiter),
		recorder.OnStateChange(func(recorder.State) { fyne.Do(b.refreshLabel) }),
		recorder.OnCommit(func(nb binding.Binding) {
			if b.onCommit != nil {
				b.onCommit(nb)
			}
		}),
	)
	b.Text = initial.DisplayName()
	b.ExtendBaseWidget(b)
	return b
}

// Recorder exposes the recorder so global capture can drive the same state machine.
func (b *bindingButton) Recorder() *recorder.Recorder { return b.rec }

// SetBinding shows a binding pushed from outside. It is ignored while recording.
func (b *bindingButton) SetBinding(nb binding.Binding) {
	if b.rec.Set(nb) {
		b.refreshLabel()
	}
}

func (b *bindingButton) refreshLabel() {
	text := b.rec.Binding().DisplayName()
	if b.rec.State() != recorder.Idle {
		text = recordingLabel
	}
	if b.Text != text {
		b.SetText(text)
	}
	if b.rec.State() == recorder.Idle {
		b.Importance = widget.MediumImportance
	} else {
		b.Importance = widget.HighImportance
	}
	b.Refresh()
}

func (b *bindingButton) Tapped(*fyne.PointEvent) {
	if b.consumedPress {
		b.consumedPress = false
		return
	}
	if b.rec.State() != recorder.Idle {
		return
	}
	if !b.rec.Begin() {
		return
	}
	if b.focusFn != nil {
		b.focusFn(b)
	} else if c := fyne.CurrentApp().Driver().CanvasForObject(b); c != nil {
		c.Focus(b)
	}
}

func (b *bindingButton) feed(ev recorder.Event) {
	if _, committed := b.rec.Feed(ev); committed || b.rec.State() == recorder.Idle {
		b.release()
	}
}

func (b *bindingButton) release() {
	if b.unfocus != nil {
		b.unfocus()
		return
	}
	if c := fyne.CurrentApp().Driver().CanvasForObject(b); c != nil {
		c.Unfocus()
	}
}

func (b *bindingButton) MouseDown(ev *desktop.MouseEvent) {
	b.consumedPress = false
	if b.rec.State() == recorder.Idle {
		return
	}
	if code, ok := buttonCode(ev.Button); ok {
		b.consumedPress = ev.Button == desktop.MouseButtonPrimary
		b.feed(recorder.Event{Kind: recorder.MouseDown, Code: code, Mods: modifiersOf(ev.Modifier)})
	}
}

func (b *bindingButton) MouseUp(*desktop.MouseEvent) {}

func (b *bindingButton) KeyDown(ev *fyne.KeyEvent) {
	if code, ok := keyCode(ev.Name); ok {
		b.feed(recorder.Event{Kind: recorder.KeyDown, Code: code})
	}
}

func (b *bindingButton) KeyUp(ev *fyne.KeyEvent) {
	if code, ok := keyCode(ev.Name); ok {
		b.feed(recorder.Event{Kind: recorder.KeyUp, Code: code})
	}
}

func (b *bindingButton) Scrolled(ev *fyne.ScrollEvent) {
	if b.rec.State() == recorder.Idle {
		return
	}
	switch {
	case ev.Scrolled.DY > 0:
		b.feed(recorder.Event{Kind: recorder.Wheel, Delta: 1})
	case ev.Scrolled.DY < 0:
		b.feed(recorder.Event{Kind: recorder.Wheel, Delta: -1})
	}
}

func (b *bindingButton) FocusGained() {}

// FocusLost abandons an unfinished recording.
func (b *bindingButton) FocusLost() {
	if b.rec.State() != recorder.Idle {
		b.rec.Cancel()
	}
}

func (b *bindingButton) TypedRune(rune) {}

func (b *bindingButton) TypedKey(*fyne.KeyEvent) {}
