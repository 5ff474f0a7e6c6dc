package binding

import (
	"errors"
	"fmt"
	"strings"
)

// Code is a gesture code: a mouse button, a wheel direction or a Windows virtual-key code.
type Code int

const (
	MouseLeft   Code = 0x01
	MouseRight  Code = 0x02
	MouseMiddle Code = 0x04
	MouseX1     Code = 0x05
	MouseX2     Code = 0x06

	WheelUp   Code = 0x200
	WheelDown Code = 0x201

	KeyEscape Code = 0x1B

	maxKeyCode Code = 0xFF
)

var (
	ErrModifierOnly = errors.New("a modifier key cannot be bound on its own")
	ErrInvalidCode  = errors.New("gesture code out of range")
	ErrUnknownKey   = errors.New("unknown key name")
)

// Modifiers is the set of held modifier keys captured with a gesture.
type Modifiers struct {
	Ctrl  bool `json:"ctrl"`
	Shift bool `json:"shift"`
	Alt   bool `json:"alt"`
}

// Union returns the modifiers held in either m or o.
func (m Modifiers) Union(o Modifiers) Modifiers {
	return Modifiers{Ctrl: m.Ctrl || o.Ctrl, Shift: m.Shift || o.Shift, Alt: m.Alt || o.Alt}
}

// Without returns m with every modifier held in o released.
func (m Modifiers) Without(o Modifiers) Modifiers {
	return Modifiers{Ctrl: m.Ctrl && !o.Ctrl, Shift: m.Shift && !o.Shift, Alt: m.Alt && !o.Alt}
}

func (m Modifiers) None() bool { return !m.Ctrl && !m.Shift && !m.Alt }

// Prefix renders the modifiers as "Ctrl+Shift+Alt+" in that fixed order.
func (m Modifiers) Prefix() string {
	var b strings.Builder
	if m.Ctrl {
		b.WriteString("Ctrl+")
	}
	if m.Shift {
		b.WriteString("Shift+")
	}
	if m.Alt {
		b.WriteString("Alt+")
	}
	return b.String()
}

// Binding is an immutable gesture assigned to an action. The zero value is not a valid binding.
type Binding struct {
	code Code
	mods Modifiers
}

// New validates code and returns the binding. Mouse-button bindings never carry modifiers.
func New(code Code, mods Modifiers) (Binding, error) {
	if err := Validate(code); err != nil {
		return Binding{}, err
	}
	if IsMouseButton(code) {
		mods = Modifiers{}
	}
	return Binding{code: code, mods: mods}, nil
}

// MustNew is New for package-level defaults; it panics on an invalid code.
func MustNew(code Code, mods Modifiers) Binding {
	b, err := New(code, mods)
	if err != nil {
		panic(fmt.Sprintf("binding: %v", err))
	}
	return b
}

func (b Binding) Code() Code           { return b.code }
func (b Binding) Modifiers() Modifiers { return b.mods }
func (b Binding) IsZero() bool         { return b.code == 0 }

// DisplayName is the human-readable form, e.g. "Ctrl+F5" or "Mouse 4".
func (b Binding) DisplayName() string {
	if b.IsZero() {
		return ""
	}
	return b.mods.Prefix() + Name(b.code)
}

func (b Binding) String() string { return b.DisplayName() }

func (b Binding) Equal(o Binding) bool { return b.code == o.code && b.mods == o.mods }

// Validate reports whether code may be used as a binding.
func Validate(code Code) error {
	if code == WheelUp || code == WheelDown {
		return nil
	}
	if code <= 0 || code > maxKeyCode {
		return fmt.Errorf("%w: %d", ErrInvalidCode, code)
	}
	if IsModifier(code) {
		return fmt.Errorf("%w: %s", ErrModifierOnly, Name(code))
	}
	return nil
}

func IsMouseButton(code Code) bool {
	switch code {
	case MouseLeft, MouseRight, MouseMiddle, MouseX1, MouseX2:
		return true
	}
	return false
}

func IsWheel(code Code) bool { return code == WheelUp || code == WheelDown }

// IsModifier reports whether code is Ctrl, Shift, Alt or Win in any of its left/right forms.
func IsModifier(code Code) bool {
	switch code {
	case 0x10, 0x11, 0x12, // VK_SHIFT, VK_CONTROL, VK_MENU
		0x5B, 0x5C, // VK_LWIN, VK_RWIN
		0xA0, 0xA1, 0xA2, 0xA3, 0xA4, 0xA5: // VK_LSHIFT..VK_RMENU
		return true
	}
	return false
}

// ModifierOf returns the modifier a bare modifier key contributes. Win keys contribute nothing
// since bindings only track Ctrl, Shift and Alt.
func ModifierOf(code Code) Modifiers {
	switch code {
	case 0x11, 0xA2, 0xA3:
		return Modifiers{Ctrl: true}
	case 0x10, 0xA0, 0xA1:
		return Modifiers{Shift: true}
	case 0x12, 0xA4, 0xA5:
		return Modifiers{Alt: true}
	}
	return Modifiers{}
}
