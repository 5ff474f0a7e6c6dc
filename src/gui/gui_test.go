package gui

import (
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scope-z/src/binding"
	"scope-z/src/eventloop"
	"scope-z/src/recorder"
	"scope-z/src/settings"
)

func newTestButton(t *testing.T, arbiter *recorder.Arbiter) (*bindingButton, *[]binding.Binding) {
	t.Helper()
	test.NewTempApp(t)
	var commits []binding.Binding
	b := newBindingButton("toggle", settings.DefaultBinding(settings.SlotToggle), arbiter, func(nb binding.Binding) {
		commits = append(commits, nb)
	})
	b.focusFn = func(fyne.Focusable) {}
	b.unfocus = func() {}
	return b, &commits
}

func TestBindingButtonRecordsCtrlF5(t *testing.T) {
	b, commits := newTestButton(t, recorder.NewArbiter())

	b.Tapped(&fyne.PointEvent{})
	require.Equal(t, recorder.Recording, b.Recorder().State())
	b.KeyDown(&fyne.KeyEvent{Name: desktop.KeyControlLeft})
	b.KeyDown(&fyne.KeyEvent{Name: fyne.KeyF5})
	b.KeyUp(&fyne.KeyEvent{Name: fyne.KeyF5})

	require.Len(t, *commits, 1)
	assert.Equal(t, "Ctrl+F5", (*commits)[0].DisplayName())
	assert.Equal(t, recorder.Idle, b.Recorder().State())
}

func TestBindingButtonRightClick(t *testing.T) {
	b, commits := newTestButton(t, recorder.NewArbiter())

	b.Tapped(&fyne.PointEvent{})
	b.MouseDown(&desktop.MouseEvent{Button: desktop.MouseButtonSecondary, Modifier: fyne.KeyModifierControl})

	require.Len(t, *commits, 1)
	assert.Equal(t, "RMB", (*commits)[0].DisplayName())
}

// primaryClick replays the driver order for a left click on the button.
func primaryClick(b *bindingButton) {
	b.MouseDown(&desktop.MouseEvent{Button: desktop.MouseButtonPrimary})
	b.MouseUp(&desktop.MouseEvent{Button: desktop.MouseButtonPrimary})
	b.Tapped(&fyne.PointEvent{})
}

func TestBindingButtonRecordsLeftClick(t *testing.T) {
	arbiter := recorder.NewArbiter()
	b, commits := newTestButton(t, arbiter)

	primaryClick(b)
	require.Equal(t, recorder.Recording, b.Recorder().State())
	primaryClick(b)

	require.Len(t, *commits, 1)
	assert.Equal(t, "LMB", (*commits)[0].DisplayName())
	assert.Equal(t, recorder.Idle, b.Recorder().State())
	assert.False(t, arbiter.Active(), "input claim released after commit")

	primaryClick(b)
	assert.Equal(t, recorder.Recording, b.Recorder().State(), "a later click starts recording again")
}

func TestBindingButtonPressReleasedElsewhereDoesNotEatNextTap(t *testing.T) {
	b, _ := newTestButton(t, recorder.NewArbiter())

	primaryClick(b)
	b.MouseDown(&desktop.MouseEvent{Button: desktop.MouseButtonPrimary})
	require.Equal(t, recorder.Idle, b.Recorder().State())

	primaryClick(b)
	assert.Equal(t, recorder.Recording, b.Recorder().State())
}

func TestBindingButtonWheelUsesHeldModifiers(t *testing.T) {
	b, commits := newTestButton(t, recorder.NewArbiter())

	b.Tapped(&fyne.PointEvent{})
	b.KeyDown(&fyne.KeyEvent{Name: desktop.KeyShiftLeft})
	b.Scrolled(&fyne.ScrollEvent{Scrolled: fyne.Delta{DY: -3}})

	require.Len(t, *commits, 1)
	assert.Equal(t, "Shift+Wheel Down", (*commits)[0].DisplayName())
}

func TestBindingButtonEscapeAndFocusLossCancel(t *testing.T) {
	b, commits := newTestButton(t, recorder.NewArbiter())

	b.Tapped(&fyne.PointEvent{})
	b.KeyDown(&fyne.KeyEvent{Name: fyne.KeyEscape})
	assert.Equal(t, recorder.Idle, b.Recorder().State())

	b.Tapped(&fyne.PointEvent{})
	b.FocusLost()
	assert.Equal(t, recorder.Idle, b.Recorder().State())

	assert.Empty(t, *commits)
	assert.Equal(t, binding.MouseX1, b.Recorder().Binding().Code())
}

func TestOnlyOneBindingButtonRecords(t *testing.T) {
	arbiter := recorder.NewArbiter()
	first, _ := newTestButton(t, arbiter)
	second, _ := newTestButton(t, arbiter)

	first.Tapped(&fyne.PointEvent{})
	second.Tapped(&fyne.PointEvent{})

	assert.Equal(t, recorder.Recording, first.Recorder().State())
	assert.Equal(t, recorder.Idle, second.Recorder().State())
}

func TestIdleButtonIgnoresInput(t *testing.T) {
	b, commits := newTestButton(t, recorder.NewArbiter())
	b.MouseDown(&desktop.MouseEvent{Button: desktop.MouseButtonPrimary})
	b.KeyDown(&fyne.KeyEvent{Name: fyne.KeyA})
	b.KeyUp(&fyne.KeyEvent{Name: fyne.KeyA})
	assert.Empty(t, *commits)
}

func TestKeyCode(t *testing.T) {
	tests := []struct {
		name fyne.KeyName
		want binding.Code
		ok   bool
	}{
		{fyne.KeyA, 'A', true},
		{fyne.Key7, '7', true},
		{fyne.KeyF12, 0x7B, true},
		{fyne.KeyEscape, 0x1B, true},
		{fyne.KeyPageDown, 0x22, true},
		{desktop.KeyAltRight, 0xA5, true},
		{fyne.KeyName("NoSuchKey"), 0, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.name), func(t *testing.T) {
			got, ok := keyCode(tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestButtonCodeAndModifiers(t *testing.T) {
	code, ok := buttonCode(desktop.MouseButtonTertiary)
	assert.True(t, ok)
	assert.Equal(t, binding.MouseMiddle, code)

	mods := modifiersOf(fyne.KeyModifierShift | fyne.KeyModifierAlt | fyne.KeyModifierSuper)
	assert.Equal(t, binding.Modifiers{Shift: true, Alt: true}, mods)
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "● Stopped", statusText(eventloop.Status{}))
	assert.Equal(t, "● Running", statusText(eventloop.Status{Running: true}))
	assert.Equal(t, "✖ engine unavailable", statusText(eventloop.Status{LastError: "engine unavailable"}))
	assert.Equal(t, "Stop", startLabel(true))
	assert.Equal(t, "4.2x", zoomText(4.2))
	assert.Equal(t, "10x", zoomText(10))
	assert.Equal(t, "300 px", lensText(300))
}

func TestFPSAndShapeMapping(t *testing.T) {
	assert.Equal(t, 30, fpsAt(0))
	assert.Equal(t, 240, fpsAt(5))
	assert.Equal(t, settings.DefaultFPS, fpsAt(9))

	for _, label := range shapeOptions() {
		shape, ok := shapeFromLabel(label)
		require.True(t, ok)
		assert.Equal(t, label, shapeLabel(shape))
	}
}
