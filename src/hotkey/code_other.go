//go:build !windows

package hotkey

import (
	"sync"

	hook "github.com/robotn/gohook"

	"scope-z/src/binding"
)

var (
	keycodeOnce  sync.Once
	keycodeToKey map[uint16]binding.Code
)

// eventCode resolves the portable scan code through hook.Keycode, since raw codes are
// platform keysyms here.
func eventCode(ev hook.Event) (binding.Code, bool) {
	keycodeOnce.Do(func() {
		keycodeToKey = make(map[uint16]binding.Code, len(hook.Keycode))
		for name, kc := range hook.Keycode {
			if code, ok := keyNameToCode(name); ok {
				keycodeToKey[kc] = code
			}
		}
	})
	code, ok := keycodeToKey[ev.Keycode]
	return code, ok
}
