//go:build !windows && !darwin && !linux

package engine

import (
	"fmt"
	"runtime"
)

// LoadLibrary always fails: no engine binding exists for this platform.
func LoadLibrary(path string) (Library, error) {
	return nil, fmt.Errorf("%w: %s: unsupported platform %s", ErrEngineUnavailable, path, runtime.GOOS)
}
