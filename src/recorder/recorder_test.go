package recorder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scope-z/src/binding"
)

const (
	vkCtrl   binding.Code = 0x11
	vkLCtrl  binding.Code = 0xA2
	vkLShift binding.Code = 0xA0
	vkLAlt   binding.Code = 0xA4
	vkLWin   binding.Code = 0x5B
	vkF5     binding.Code = 0x74
	vkQ      binding.Code = 'Q'
	vkW      binding.Code = 'W'
	vkEsc    binding.Code = 0x1B
)

var toggleDefault = binding.MustNew(binding.MouseX1, binding.Modifiers{})

func newRecording(t *testing.T) *Recorder {
	t.Helper()
	r := New("toggle", toggleDefault)
	require.True(t, r.Begin())
	return r
}

func TestRightMouseButtonCommitsWithoutModifiers(t *testing.T) {
	r := newRecording(t)

	r.Feed(Event{Kind: KeyDown, Code: vkLCtrl})
	b, ok := r.Feed(Event{Kind: MouseDown, Code: binding.MouseRight, Mods: binding.Modifiers{Ctrl: true}})

	require.True(t, ok)
	assert.Equal(t, binding.MouseRight, b.Code())
	assert.True(t, b.Modifiers().None())
	assert.Equal(t, "RMB", b.DisplayName())
	assert.Equal(t, Idle, r.State())
	assert.True(t, r.Binding().Equal(b))
}

func TestCtrlF5CommitsOnRelease(t *testing.T) {
	r := newRecording(t)

	_, ok := r.Feed(Event{Kind: KeyDown, Code: vkCtrl})
	require.False(t, ok)
	_, ok = r.Feed(Event{Kind: KeyDown, Code: vkF5})
	require.False(t, ok)
	assert.Equal(t, Staged, r.State())

	b, ok := r.Feed(Event{Kind: KeyUp, Code: vkF5})
	require.True(t, ok)
	assert.Equal(t, vkF5, b.Code())
	assert.Equal(t, binding.Modifiers{Ctrl: true}, b.Modifiers())
	assert.Equal(t, "Ctrl+F5", b.DisplayName())
}

func TestModifierReleasedFirstStillUsesKeyDownModifiers(t *testing.T) {
	r := newRecording(t)

	r.Feed(Event{Kind: KeyDown, Code: vkLCtrl})
	r.Feed(Event{Kind: KeyDown, Code: vkLShift})
	r.Feed(Event{Kind: KeyDown, Code: vkQ})
	b, ok := r.Feed(Event{Kind: KeyUp, Code: vkLShift})

	require.True(t, ok)
	assert.Equal(t, "Ctrl+Shift+Q", b.DisplayName())
}

func TestBareModifiersNeverCommit(t *testing.T) {
	r := newRecording(t)

	for _, code := range []binding.Code{vkLCtrl, vkLShift, vkLAlt, vkLWin, 0xA3, 0xA5, 0x5C} {
		_, ok := r.Feed(Event{Kind: KeyDown, Code: code})
		assert.False(t, ok)
		_, ok = r.Feed(Event{Kind: KeyUp, Code: code})
		assert.False(t, ok)
	}
	assert.Equal(t, Recording, r.State())
	assert.True(t, r.Binding().Equal(toggleDefault))
}

func TestReleasedModifierLeavesPendingSet(t *testing.T) {
	r := newRecording(t)

	r.Feed(Event{Kind: KeyDown, Code: vkLAlt})
	r.Feed(Event{Kind: KeyUp, Code: vkLAlt})
	r.Feed(Event{Kind: KeyDown, Code: vkQ})
	b, ok := r.Feed(Event{Kind: KeyUp, Code: vkQ})

	require.True(t, ok)
	assert.Equal(t, "Q", b.DisplayName())
}

func TestLaterKeyReplacesStagedKey(t *testing.T) {
	r := newRecording(t)

	r.Feed(Event{Kind: KeyDown, Code: vkQ})
	r.Feed(Event{Kind: KeyDown, Code: vkW, Mods: binding.Modifiers{Alt: true}})
	b, ok := r.Feed(Event{Kind: KeyUp, Code: vkQ})

	require.True(t, ok)
	assert.Equal(t, "Alt+W", b.DisplayName())
}

func TestWheelCommitsWithLiveModifiers(t *testing.T) {
	tests := []struct {
		name  string
		delta int
		mods  binding.Modifiers
		want  string
	}{
		{"up with ctrl", 1, binding.Modifiers{Ctrl: true}, "Ctrl+Wheel Up"},
		{"down plain", -3, binding.Modifiers{}, "Wheel Down"},
		{"down shift alt", -1, binding.Modifiers{Shift: true, Alt: true}, "Shift+Alt+Wheel Down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRecording(t)
			b, ok := r.Feed(Event{Kind: Wheel, Delta: tt.delta, Mods: tt.mods})
			require.True(t, ok)
			assert.Equal(t, tt.want, b.DisplayName())
		})
	}
}

func TestWheelUsesPendingModifiersWhenEventHasNone(t *testing.T) {
	r := newRecording(t)

	r.Feed(Event{Kind: KeyDown, Code: vkLCtrl})
	b, ok := r.Feed(Event{Kind: Wheel, Delta: 120})

	require.True(t, ok)
	assert.Equal(t, "Ctrl+Wheel Up", b.DisplayName())
}

func TestZeroWheelAndUnknownButtonsAreIgnored(t *testing.T) {
	r := newRecording(t)

	_, ok := r.Feed(Event{Kind: Wheel, Delta: 0})
	assert.False(t, ok)
	_, ok = r.Feed(Event{Kind: MouseDown, Code: 0x03})
	assert.False(t, ok)
	assert.Equal(t, Recording, r.State())
}

func TestBeginWhileRecordingIsNoop(t *testing.T) {
	r := newRecording(t)
	r.Feed(Event{Kind: KeyDown, Code: vkLCtrl})

	assert.False(t, r.Begin())

	r.Feed(Event{Kind: KeyDown, Code: vkF5})
	b, ok := r.Feed(Event{Kind: KeyUp, Code: vkF5})
	require.True(t, ok)
	assert.Equal(t, "Ctrl+F5", b.DisplayName(), "pending modifiers must survive the ignored begin")
}

func TestEventsWhileIdleAreIgnored(t *testing.T) {
	r := New("toggle", toggleDefault)

	_, ok := r.Feed(Event{Kind: MouseDown, Code: binding.MouseLeft})
	assert.False(t, ok)
	assert.True(t, r.Binding().Equal(toggleDefault))
}

func TestEscapeCancelsAndKeepsPreviousBinding(t *testing.T) {
	var states []State
	r := New("toggle", toggleDefault, OnStateChange(func(s State) { states = append(states, s) }))
	require.True(t, r.Begin())

	_, ok := r.Feed(Event{Kind: KeyDown, Code: vkEsc})

	assert.False(t, ok)
	assert.Equal(t, Idle, r.State())
	assert.True(t, r.Binding().Equal(toggleDefault))
	assert.Equal(t, []State{Recording, Idle}, states)
}

func TestEscapeWithModifierIsBindable(t *testing.T) {
	r := newRecording(t)

	r.Feed(Event{Kind: KeyDown, Code: vkLShift})
	r.Feed(Event{Kind: KeyDown, Code: vkEsc})
	b, ok := r.Feed(Event{Kind: KeyUp, Code: vkEsc})

	require.True(t, ok)
	assert.Equal(t, "Shift+Esc", b.DisplayName())
}

func TestCancelKeepsPreviousBinding(t *testing.T) {
	r := newRecording(t)
	r.Feed(Event{Kind: KeyDown, Code: vkQ})

	r.Cancel()

	assert.Equal(t, Idle, r.State())
	assert.True(t, r.Binding().Equal(toggleDefault))
	r.Cancel()
}

func TestOnCommitReceivesBinding(t *testing.T) {
	var got binding.Binding
	r := New("zoom_in", toggleDefault, OnCommit(func(b binding.Binding) { got = b }))
	require.True(t, r.Begin())

	r.Feed(Event{Kind: MouseDown, Code: binding.MouseMiddle})

	assert.Equal(t, "MMB", got.DisplayName())
}

func TestSetIgnoredWhileRecording(t *testing.T) {
	r := newRecording(t)

	assert.False(t, r.Set(binding.MustNew(vkQ, binding.Modifiers{})))
	r.Cancel()
	assert.True(t, r.Set(binding.MustNew(vkQ, binding.Modifiers{})))
	assert.Equal(t, "Q", r.Binding().DisplayName())
}

func TestNoCommitIsEverABareModifier(t *testing.T) {
	events := []Event{
		{Kind: KeyDown, Code: vkLCtrl},
		{Kind: KeyDown, Code: vkLShift},
		{Kind: KeyUp, Code: vkLCtrl},
		{Kind: KeyDown, Code: vkLWin},
		{Kind: KeyUp, Code: vkLWin},
		{Kind: KeyDown, Code: vkQ},
		{Kind: KeyDown, Code: vkLAlt},
		{Kind: KeyUp, Code: vkLAlt},
		{Kind: MouseDown, Code: binding.MouseX2},
		{Kind: Wheel, Delta: -1},
	}

	// Every prefix of every rotation of the sequence.
	for start := range events {
		r := New("toggle", toggleDefault)
		for i := 0; i < len(events); i++ {
			if r.State() == Idle {
				require.True(t, r.Begin())
			}
			b, ok := r.Feed(events[(start+i)%len(events)])
			if ok {
				assert.False(t, binding.IsModifier(b.Code()), "committed %s", b.DisplayName())
			}
		}
	}
}
