package display

import (
	"errors"
	"fmt"
	"image"

	"github.com/kbinani/screenshot"
)

var ErrNoDisplay = errors.New("no active displays found")

// Primary returns the bounds of display 0.
func Primary() (image.Rectangle, error) {
	if screenshot.NumActiveDisplays() == 0 {
		return image.Rectangle{}, ErrNoDisplay
	}
	return screenshot.GetDisplayBounds(0), nil
}

// All returns the bounds of every active display in index order.
func All() []image.Rectangle {
	n := screenshot.NumActiveDisplays()
	out := make([]image.Rectangle, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, screenshot.GetDisplayBounds(i))
	}
	return out
}

// LensFits reports whether a square lens of the given size fits inside bounds.
func LensFits(lensSize int, bounds image.Rectangle) bool {
	return lensSize <= bounds.Dx() && lensSize <= bounds.Dy()
}

// Warning returns a user-facing message when the lens is larger than bounds, or "".
func Warning(lensSize int, bounds image.Rectangle) string {
	if bounds.Empty() || LensFits(lensSize, bounds) {
		return ""
	}
	return fmt.Sprintf("Lens %dpx exceeds the %dx%d display", lensSize, bounds.Dx(), bounds.Dy())
}

// Check compares lensSize with the primary display. It returns "" when no display can be queried.
func Check(lensSize int) string {
	bounds, err := Primary()
	if err != nil {
		return ""
	}
	return Warning(lensSize, bounds)
}
