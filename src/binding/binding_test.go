package binding

import (
	"errors"
	"testing"
)

func TestName(t *testing.T) {
	tests := []struct {
		code     Code
		expected string
	}{
		{MouseLeft, "LMB"},
		{MouseRight, "RMB"},
		{MouseMiddle, "MMB"},
		{MouseX1, "Mouse 4"},
		{MouseX2, "Mouse 5"},
		{WheelUp, "Wheel Up"},
		{WheelDown, "Wheel Down"},
		{0x74, "F5"},
		{0x70, "F1"},
		{0x87, "F24"},
		{0x1B, "Esc"},
		{0x2C, "Print Screen"},
		{'Q', "Q"},
		{'7', "7"},
		{0xBA, "Key 186"},
		{0x03, "Key 3"},
		{0x1234, "Key 4660"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := Name(tt.code); got != tt.expected {
				t.Errorf("Name(%#x) = %q, expected %q", tt.code, got, tt.expected)
			}
		})
	}
}

func TestDisplayNamePrefixesModifiersInOrder(t *testing.T) {
	b := MustNew(0x74, Modifiers{Alt: true, Ctrl: true, Shift: true})
	if got := b.DisplayName(); got != "Ctrl+Shift+Alt+F5" {
		t.Fatalf("DisplayName() = %q", got)
	}
	if got := MustNew(WheelUp, Modifiers{Ctrl: true}).DisplayName(); got != "Ctrl+Wheel Up" {
		t.Fatalf("DisplayName() = %q", got)
	}
}

func TestNewRejectsModifierOnlyCodes(t *testing.T) {
	for _, code := range []Code{0x10, 0x11, 0x12, 0x5B, 0x5C, 0xA0, 0xA1, 0xA2, 0xA3, 0xA4, 0xA5} {
		if _, err := New(code, Modifiers{}); !errors.Is(err, ErrModifierOnly) {
			t.Errorf("New(%#x) error = %v, expected ErrModifierOnly", code, err)
		}
	}
}

func TestNewRejectsOutOfRangeCodes(t *testing.T) {
	for _, code := range []Code{0, -1, 0x100, 0x202} {
		if _, err := New(code, Modifiers{}); !errors.Is(err, ErrInvalidCode) {
			t.Errorf("New(%#x) error = %v, expected ErrInvalidCode", code, err)
		}
	}
}

func TestNewClearsModifiersOnMouseButtons(t *testing.T) {
	b := MustNew(MouseRight, Modifiers{Ctrl: true})
	if !b.Modifiers().None() {
		t.Fatalf("expected no modifiers, got %+v", b.Modifiers())
	}
	if b.DisplayName() != "RMB" {
		t.Fatalf("DisplayName() = %q", b.DisplayName())
	}
}

func TestModifierOf(t *testing.T) {
	if !ModifierOf(0xA2).Ctrl || !ModifierOf(0x11).Ctrl {
		t.Error("expected Ctrl for VK_LCONTROL/VK_CONTROL")
	}
	if !ModifierOf(0xA1).Shift {
		t.Error("expected Shift for VK_RSHIFT")
	}
	if !ModifierOf(0xA5).Alt {
		t.Error("expected Alt for VK_RMENU")
	}
	if !ModifierOf(0x5B).None() {
		t.Error("expected Win to contribute no modifier")
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		code  Code
		mods  Modifiers
	}{
		{"Ctrl+F5", 0x74, Modifiers{Ctrl: true}},
		{"ctrl+shift+alt+q", 'Q', Modifiers{Ctrl: true, Shift: true, Alt: true}},
		{"Control+Wheel Up", WheelUp, Modifiers{Ctrl: true}},
		{"Ctrl+wheeldown", WheelDown, Modifiers{Ctrl: true}},
		{"Mouse 4", MouseX1, Modifiers{}},
		{"Shift+RMB", MouseRight, Modifiers{}},
		{"Esc", 0x1B, Modifiers{}},
		{"Alt+PgDn", 0x22, Modifiers{Alt: true}},
		{"Page Up", 0x21, Modifiers{}},
		{"Key 186", 0xBA, Modifiers{}},
		{"F24", 0x87, Modifiers{}},
		{"9", '9', Modifiers{}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			b, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.input, err)
			}
			if b.Code() != tt.code || b.Modifiers() != tt.mods {
				t.Errorf("Parse(%q) = %#x %+v, expected %#x %+v", tt.input, b.Code(), b.Modifiers(), tt.code, tt.mods)
			}
		})
	}
}

func TestParseRoundTripsDisplayNames(t *testing.T) {
	for code := Code(1); code <= maxKeyCode; code++ {
		for _, mods := range []Modifiers{{}, {Ctrl: true}, {Shift: true, Alt: true}} {
			b, err := New(code, mods)
			if err != nil {
				continue
			}
			got, err := Parse(b.DisplayName())
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", b.DisplayName(), err)
			}
			if !got.Equal(b) {
				t.Fatalf("Parse(%q) = %q, expected %q", b.DisplayName(), got, b)
			}
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input string
		want  error
	}{
		{"Ctrl", ErrModifierOnly},
		{"Ctrl+Shift", ErrModifierOnly},
		{"Shift+Win", ErrModifierOnly},
		{"Win", ErrModifierOnly},
		{"cmd", ErrModifierOnly},
		{"Ctrl+Super", ErrModifierOnly},
		{"", ErrUnknownKey},
		{"Ctrl+", ErrUnknownKey},
		{"Ctrl+Banana", ErrUnknownKey},
		{"Q+Ctrl", ErrUnknownKey},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if _, err := Parse(tt.input); !errors.Is(err, tt.want) {
				t.Errorf("Parse(%q) error = %v, expected %v", tt.input, err, tt.want)
			}
		})
	}
}
