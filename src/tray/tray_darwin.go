//go:build darwin

package tray

import "errors"

// ErrUnsupported is returned on macOS, where the settings window's own tray menu is used.
var ErrUnsupported = errors.New("headless tray is not supported on macOS; run without --headless")

func Run(opts Options) error {
	if opts.OnExit != nil {
		opts.OnExit()
	}
	return ErrUnsupported
}

func Quit() {}
