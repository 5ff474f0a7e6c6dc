package binding

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse converts a combination string like "Ctrl+Shift+F5" or "Ctrl+Wheel Up" to a Binding.
// Matching is case-insensitive and accepts the names produced by DisplayName.
func Parse(s string) (Binding, error) {
	parts := strings.Split(s, "+")
	var mods Modifiers
	var key string

	for i, part := range parts {
		part = strings.ToLower(strings.TrimSpace(part))
		switch part {
		case "ctrl", "control":
			mods.Ctrl = true
			continue
		case "shift":
			mods.Shift = true
			continue
		case "alt":
			mods.Alt = true
			continue
		}
		if i != len(parts)-1 || part == "" {
			return Binding{}, fmt.Errorf("%w: %q", ErrUnknownKey, s)
		}
		key = part
	}

	if key == "" {
		return Binding{}, fmt.Errorf("%w: %q", ErrModifierOnly, s)
	}

	code, ok := keyNameToCode(key)
	if !ok {
		return Binding{}, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return New(code, mods)
}

// keyNameToCode maps a lower-cased key name to its gesture code.
func keyNameToCode(keyName string) (Code, bool) {
	keyName = strings.ToLower(strings.TrimSpace(keyName))

	switch keyName {
	case "lmb", "mouse1", "left click":
		return MouseLeft, true
	case "rmb", "mouse2", "right click":
		return MouseRight, true
	case "mmb", "mouse3", "middle click":
		return MouseMiddle, true
	case "mouse 4", "mouse4", "x1":
		return MouseX1, true
	case "mouse 5", "mouse5", "x2":
		return MouseX2, true
	case "wheel up", "wheelup":
		return WheelUp, true
	case "wheel down", "wheeldown":
		return WheelDown, true

	// Resolves so Parse can report ErrModifierOnly rather than ErrUnknownKey.
	case "win", "cmd", "super":
		return 0x5B, true
	case "esc", "escape":
		return 0x1B, true
	case "enter", "return":
		return 0x0D, true
	case "del":
		return 0x2E, true
	case "ins":
		return 0x2D, true
	case "pgup", "pageup":
		return 0x21, true
	case "pgdn", "pagedown":
		return 0x22, true
	case "capslock":
		return 0x14, true
	case "printscreen", "prtsc":
		return 0x2C, true
	case "numlock":
		return 0x90, true
	case "scrolllock":
		return 0x91, true
	}

	if len(keyName) == 1 {
		c := keyName[0]
		switch {
		case c >= 'a' && c <= 'z':
			return Code(c - 'a' + 'A'), true
		case c >= '0' && c <= '9':
			return Code(c), true
		}
	}

	if rest, ok := strings.CutPrefix(keyName, "key "); ok {
		n, err := strconv.Atoi(strings.TrimSpace(rest))
		if err != nil {
			return 0, false
		}
		return Code(n), true
	}

	for code, name := range codeNames {
		if strings.ToLower(name) == keyName {
			return code, true
		}
	}
	return 0, false
}
