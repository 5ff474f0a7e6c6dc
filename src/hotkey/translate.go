package hotkey

import (
	"strings"

	hook "github.com/robotn/gohook"

	"scope-z/src/binding"
	"scope-z/src/recorder"
)

// Modifier bits reported in hook.Event.Mask (left and right variants).
const (
	maskShiftL = 1 << 0
	maskCtrlL  = 1 << 1
	maskAltL   = 1 << 3
	maskShiftR = 1 << 4
	maskCtrlR  = 1 << 5
	maskAltR   = 1 << 7
)

// codeFunc resolves the virtual-key code of a keyboard event.
type codeFunc func(ev hook.Event) (binding.Code, bool)

// translate converts a hook event into a recorder event. Events the recorder has no use for
// (moves, drags, releases of mouse buttons, unknown keys) report false.
func translate(ev hook.Event, codeOf codeFunc) (recorder.Event, bool) {
	mods := maskModifiers(ev.Mask)
	switch ev.Kind {
	case hook.KeyDown, hook.KeyHold:
		code, ok := codeOf(ev)
		if !ok {
			return recorder.Event{}, false
		}
		return recorder.Event{Kind: recorder.KeyDown, Code: code, Mods: mods}, true
	case hook.KeyUp:
		code, ok := codeOf(ev)
		if !ok {
			return recorder.Event{}, false
		}
		return recorder.Event{Kind: recorder.KeyUp, Code: code, Mods: mods}, true
	case hook.MouseHold, hook.MouseDown:
		code, ok := buttonCode(ev.Button)
		if !ok {
			return recorder.Event{}, false
		}
		return recorder.Event{Kind: recorder.MouseDown, Code: code}, true
	case hook.MouseWheel:
		// Negative rotation is away from the user.
		switch {
		case ev.Rotation < 0:
			return recorder.Event{Kind: recorder.Wheel, Delta: 1, Mods: mods}, true
		case ev.Rotation > 0:
			return recorder.Event{Kind: recorder.Wheel, Delta: -1, Mods: mods}, true
		}
	}
	return recorder.Event{}, false
}

func buttonCode(button uint16) (binding.Code, bool) {
	switch button {
	case 1:
		return binding.MouseLeft, true
	case 2:
		return binding.MouseRight, true
	case 3:
		return binding.MouseMiddle, true
	case 4:
		return binding.MouseX1, true
	case 5:
		return binding.MouseX2, true
	default:
		return 0, false
	}
}

func maskModifiers(mask uint16) binding.Modifiers {
	return binding.Modifiers{
		Ctrl:  mask&(maskCtrlL|maskCtrlR) != 0,
		Shift: mask&(maskShiftL|maskShiftR) != 0,
		Alt:   mask&(maskAltL|maskAltR) != 0,
	}
}

// keyNameToCode maps a hook key name (as used in hook.Keycode) to its virtual-key code.
// Modifier names map to their left or right variants.
func keyNameToCode(keyName string) (binding.Code, bool) {
	keyName = strings.ToLower(strings.TrimSpace(keyName))

	switch keyName {
	case "shift", "lshift":
		return 0xA0, true // VK_LSHIFT
	case "rshift":
		return 0xA1, true
	case "ctrl", "lctrl":
		return 0xA2, true // VK_LCONTROL
	case "rctrl":
		return 0xA3, true
	case "alt", "lalt":
		return 0xA4, true // VK_LMENU
	case "ralt":
		return 0xA5, true
	case "cmd", "lcmd", "win", "super":
		return 0x5B, true // VK_LWIN
	case "rcmd":
		return 0x5C, true

	case ";":
		return 0xBA, true
	case "=":
		return 0xBB, true
	case ",":
		return 0xBC, true
	case "-":
		return 0xBD, true
	case ".":
		return 0xBE, true
	case "/":
		return 0xBF, true
	case "`":
		return 0xC0, true
	case "[":
		return 0xDB, true
	case "\\":
		return 0xDC, true
	case "]":
		return 0xDD, true
	case "'":
		return 0xDE, true
	}

	b, err := binding.Parse(keyName)
	if err != nil || binding.IsMouseButton(b.Code()) || binding.IsWheel(b.Code()) {
		return 0, false
	}
	return b.Code(), true
}
