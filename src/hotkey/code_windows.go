//go:build windows

package hotkey

import (
	hook "github.com/robotn/gohook"

	"scope-z/src/binding"
)

// On Windows the hook reports the virtual-key code as the raw code.
func eventCode(ev hook.Event) (binding.Code, bool) {
	if ev.Rawcode == 0 || ev.Rawcode > 0xFF {
		return 0, false
	}
	return binding.Code(ev.Rawcode), true
}
