package binding

import "strconv"

var codeNames = map[Code]string{
	MouseLeft:   "LMB",
	MouseRight:  "RMB",
	MouseMiddle: "MMB",
	MouseX1:     "Mouse 4",
	MouseX2:     "Mouse 5",
	WheelUp:     "Wheel Up",
	WheelDown:   "Wheel Down",

	0x08: "Backspace",
	0x09: "Tab",
	0x0D: "Enter",
	0x10: "Shift",
	0x11: "Ctrl",
	0x12: "Alt",
	0x13: "Pause",
	0x14: "Caps Lock",
	0x1B: "Esc",
	0x20: "Space",
	0x21: "Page Up",
	0x22: "Page Down",
	0x23: "End",
	0x24: "Home",
	0x25: "Left",
	0x26: "Up",
	0x27: "Right",
	0x28: "Down",
	0x2C: "Print Screen",
	0x2D: "Insert",
	0x2E: "Delete",
	0x5B: "Win",
	0x5D: "Menu",
	0x90: "Num Lock",
	0x91: "Scroll Lock",
}

func init() {
	// F1..F24 are VK_F1 (0x70) onwards.
	for i := 0; i < 24; i++ {
		codeNames[Code(0x70+i)] = "F" + strconv.Itoa(i+1)
	}
}

// Name resolves a code to its display name. It never fails: letters and digits map to their
// character and anything unknown maps to "Key <code>".
func Name(code Code) string {
	if name, ok := codeNames[code]; ok {
		return name
	}
	if (code >= '0' && code <= '9') || (code >= 'A' && code <= 'Z') {
		return string(rune(code))
	}
	return "Key " + strconv.Itoa(int(code))
}
