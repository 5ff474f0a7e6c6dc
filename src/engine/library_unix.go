//go:build darwin || linux

package engine

import (
	"fmt"

	"github.com/ebitengine/purego"
)

type sharedLibrary struct {
	handle uintptr

	start func(lensSize int32, zoom float32,
		toggle int32,
		zoomIn, zoomInCtrl, zoomInShift, zoomInAlt int32,
		zoomOut, zoomOutCtrl, zoomOutShift, zoomOutAlt int32,
		shape int32,
		r1, r2, r3, r4, r5 int32,
		fps int32)
	update      func(lensSize int32, zoom float32, shape, r1, r2, r3, r4, r5, fps int32)
	stop        func()
	currentZoom func() float32
}

// LoadLibrary dlopens the engine shared object and binds the four exports.
func LoadLibrary(path string) (lib Library, err error) {
	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}

	syms := make(map[string]uintptr, len(Symbols))
	for _, name := range Symbols {
		addr, err := purego.Dlsym(handle, name)
		if err != nil || addr == 0 {
			_ = purego.Dlclose(handle)
			return nil, fmt.Errorf("%w: %s: missing export %s", ErrEngineUnavailable, path, name)
		}
		syms[name] = addr
	}

	// RegisterFunc panics when the platform calling convention cannot carry a signature.
	defer func() {
		if r := recover(); r != nil {
			_ = purego.Dlclose(handle)
			lib, err = nil, fmt.Errorf("%w: %v", ErrEngineUnavailable, r)
		}
	}()

	l := &sharedLibrary{handle: handle}
	purego.RegisterFunc(&l.start, syms[SymStart])
	purego.RegisterFunc(&l.update, syms[SymUpdate])
	purego.RegisterFunc(&l.stop, syms[SymStop])
	purego.RegisterFunc(&l.currentZoom, syms[SymCurrentZoom])
	return l, nil
}

func (l *sharedLibrary) Start(p StartParams) error {
	a := p.IntArgs()
	l.start(a[0], p.Zoom, a[1], a[2], a[3], a[4], a[5], a[6], a[7], a[8], a[9], a[10], a[11], a[12], a[13], a[14], a[15], a[16])
	return nil
}

func (l *sharedLibrary) Update(p UpdateParams) error {
	a := p.IntArgs()
	l.update(a[0], p.Zoom, a[1], a[2], a[3], a[4], a[5], a[6], a[7])
	return nil
}

func (l *sharedLibrary) Stop() error {
	l.stop()
	return nil
}

func (l *sharedLibrary) CurrentZoom() (float32, error) {
	return l.currentZoom(), nil
}

func (l *sharedLibrary) Close() error {
	return purego.Dlclose(l.handle)
}
