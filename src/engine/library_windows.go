//go:build windows

package engine

import (
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sys/windows"
)

type dllLibrary struct {
	dll         *windows.DLL
	start       *windows.Proc
	update      *windows.Proc
	stop        *windows.Proc
	currentZoom *windows.Proc
}

// LoadLibrary loads the engine DLL and resolves all four exports.
//
// Float arguments and results rely on the amd64 convention: syscalls mirror the first four
// arguments into XMM0-XMM3 and return XMM0 as r2. Other architectures are rejected.
func LoadLibrary(path string) (Library, error) {
	if runtime.GOARCH != "amd64" {
		return nil, fmt.Errorf("%w: float arguments unsupported on windows/%s", ErrEngineUnavailable, runtime.GOARCH)
	}

	dll, err := windows.LoadDLL(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}

	procs := make(map[string]*windows.Proc, len(Symbols))
	for _, name := range Symbols {
		p, err := dll.FindProc(name)
		if err != nil {
			_ = dll.Release()
			return nil, fmt.Errorf("%w: %s: missing export %s", ErrEngineUnavailable, path, name)
		}
		procs[name] = p
	}

	return &dllLibrary{
		dll:         dll,
		start:       procs[SymStart],
		update:      procs[SymUpdate],
		stop:        procs[SymStop],
		currentZoom: procs[SymCurrentZoom],
	}, nil
}

// callArgs lays out ints with zoom inserted as the second argument.
func callArgs(ints []int32, zoom float32) []uintptr {
	args := make([]uintptr, 0, len(ints)+1)
	args = append(args, uintptr(ints[0]), uintptr(math.Float32bits(zoom)))
	for _, v := range ints[1:] {
		args = append(args, uintptr(v))
	}
	return args
}

func (l *dllLibrary) Start(p StartParams) error {
	_, _, _ = l.start.Call(callArgs(p.IntArgs(), p.Zoom)...)
	return nil
}

func (l *dllLibrary) Update(p UpdateParams) error {
	_, _, _ = l.update.Call(callArgs(p.IntArgs(), p.Zoom)...)
	return nil
}

func (l *dllLibrary) Stop() error {
	_, _, _ = l.stop.Call()
	return nil
}

func (l *dllLibrary) CurrentZoom() (float32, error) {
	_, r2, _ := l.currentZoom.Call()
	return math.Float32frombits(uint32(r2)), nil
}

func (l *dllLibrary) Close() error {
	return l.dll.Release()
}
