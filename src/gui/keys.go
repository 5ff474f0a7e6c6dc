package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"

	"scope-z/src/binding"
)

// fyneKeyCodes maps fyne key names to virtual-key codes.
var fyneKeyCodes = map[fyne.KeyName]binding.Code{
	fyne.KeyEscape:    0x1B,
	fyne.KeyReturn:    0x0D,
	fyne.KeyEnter:     0x0D,
	fyne.KeyTab:       0x09,
	fyne.KeyBackspace: 0x08,
	fyne.KeyInsert:    0x2D,
	fyne.KeyDelete:    0x2E,
	fyne.KeyRight:     0x27,
	fyne.KeyLeft:      0x25,
	fyne.KeyDown:      0x28,
	fyne.KeyUp:        0x26,
	fyne.KeyPageUp:    0x21,
	fyne.KeyPageDown:  0x22,
	fyne.KeyHome:      0x24,
	fyne.KeyEnd:       0x23,
	fyne.KeySpace:     0x20,

	fyne.KeySemicolon:    0xBA,
	fyne.KeyEqual:        0xBB,
	fyne.KeyComma:        0xBC,
	fyne.KeyMinus:        0xBD,
	fyne.KeyPeriod:       0xBE,
	fyne.KeySlash:        0xBF,
	fyne.KeyBackTick:     0xC0,
	fyne.KeyLeftBracket:  0xDB,
	fyne.KeyBackslash:    0xDC,
	fyne.KeyRightBracket: 0xDD,
	fyne.KeyApostrophe:   0xDE,

	desktop.KeyShiftLeft:    0xA0,
	desktop.KeyShiftRight:   0xA1,
	desktop.KeyControlLeft:  0xA2,
	desktop.KeyControlRight: 0xA3,
	desktop.KeyAltLeft:      0xA4,
	desktop.KeyAltRight:     0xA5,
	desktop.KeySuperLeft:    0x5B,
	desktop.KeySuperRight:   0x5C,
	desktop.KeyMenu:         0x5D,
	desktop.KeyPrintScreen:  0x2C,
	desktop.KeyCapsLock:     0x14,
}

func init() {
	fkeys := []fyne.KeyName{
		fyne.KeyF1, fyne.KeyF2, fyne.KeyF3, fyne.KeyF4, fyne.KeyF5, fyne.KeyF6,
		fyne.KeyF7, fyne.KeyF8, fyne.KeyF9, fyne.KeyF10, fyne.KeyF11, fyne.KeyF12,
	}
	for i, k := range fkeys {
		fyneKeyCodes[k] = binding.Code(0x70 + i)
	}
}

// keyCode resolves a fyne key name. Letters and digits map to their ASCII virtual-key codes.
func keyCode(name fyne.KeyName) (binding.Code, bool) {
	if code, ok := fyneKeyCodes[name]; ok {
		return code, true
	}
	if len(name) == 1 {
		c := name[0]
		switch {
		case c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			return binding.Code(c), true
		case c >= 'a' && c <= 'z':
			return binding.Code(c - 'a' + 'A'), true
		}
	}
	return 0, false
}

// buttonCode maps a fyne mouse button. Side buttons are not reported by fyne.
func buttonCode(b desktop.MouseButton) (binding.Code, bool) {
	switch b {
	case desktop.MouseButtonPrimary:
		return binding.MouseLeft, true
	case desktop.MouseButtonSecondary:
		return binding.MouseRight, true
	case desktop.MouseButtonTertiary:
		return binding.MouseMiddle, true
	default:
		return 0, false
	}
}

func modifiersOf(m fyne.KeyModifier) binding.Modifiers {
	return binding.Modifiers{
		Ctrl:  m&fyne.KeyModifierControl != 0,
		Shift: m&fyne.KeyModifierShift != 0,
		Alt:   m&fyne.KeyModifierAlt != 0,
	}
}
