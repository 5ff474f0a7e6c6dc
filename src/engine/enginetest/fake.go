// Package enginetest provides an in-memory engine library for tests.
package enginetest

import (
	"errors"
	"sync"

	"scope-z/src/engine"
)

// Library records every call and serves a configurable zoom. It mirrors the engine's own
// behaviour of ignoring Start while already running.
type Library struct {
	mu sync.Mutex

	Running bool
	Zoom    float32

	Starts  []engine.StartParams
	Updates []engine.UpdateParams
	Stops   int
	Polls   int
	Closed  bool

	StartErr  error
	UpdateErr error
	StopErr   error
	ZoomErr   error
	PanicOn   string

	gate chan struct{}
}

// ErrInjected is a convenient error for failure injection.
var ErrInjected = errors.New("injected failure")

func (l *Library) Start(p engine.StartParams) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.maybePanic(engine.SymStart)
	if l.StartErr != nil {
		return l.StartErr
	}
	l.Starts = append(l.Starts, p)
	if !l.Running {
		l.Running = true
		l.Zoom = p.Zoom
	}
	return nil
}

func (l *Library) Update(p engine.UpdateParams) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.maybePanic(engine.SymUpdate)
	if l.UpdateErr != nil {
		return l.UpdateErr
	}
	l.Updates = append(l.Updates, p)
	l.Zoom = p.Zoom
	return nil
}

func (l *Library) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.maybePanic(engine.SymStop)
	l.Stops++
	l.Running = false
	return l.StopErr
}

func (l *Library) CurrentZoom() (float32, error) {
	l.mu.Lock()
	l.maybePanicUnlock(engine.SymCurrentZoom)
	l.Polls++
	zoom, err, gate := l.Zoom, l.ZoomErr, l.gate
	l.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return 0, err
	}
	return zoom, nil
}

// BlockPolls makes CurrentZoom wait, after it has read the zoom, until release is called.
// Polls started after release do not block.
func (l *Library) BlockPolls() (release func()) {
	gate := make(chan struct{})
	l.mu.Lock()
	l.gate = gate
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			if l.gate == gate {
				l.gate = nil
			}
			l.mu.Unlock()
			close(gate)
		})
	}
}

func (l *Library) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Closed = true
	return nil
}

// SetZoom simulates an in-engine zoom hotkey.
func (l *Library) SetZoom(z float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Zoom = z
}

// UpdateCount returns the number of successful Update calls.
func (l *Library) UpdateCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.Updates)
}

// StartCount returns the number of successful Start calls.
func (l *Library) StartCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.Starts)
}

// StopCount returns the number of Stop calls.
func (l *Library) StopCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.Stops
}

// PollCount returns the number of CurrentZoom calls.
func (l *Library) PollCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.Polls
}

// IsClosed reports whether Close was called.
func (l *Library) IsClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.Closed
}

// LastUpdate returns the most recent Update parameters.
func (l *Library) LastUpdate() (engine.UpdateParams, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.Updates) == 0 {
		return engine.UpdateParams{}, false
	}
	return l.Updates[len(l.Updates)-1], true
}

// maybePanicUnlock is maybePanic for callers that do not defer the unlock.
func (l *Library) maybePanicUnlock(sym string) {
	if l.PanicOn == sym {
		l.mu.Unlock()
		panic("enginetest: simulated crash in " + sym)
	}
}

func (l *Library) maybePanic(sym string) {
	if l.PanicOn == sym {
		panic("enginetest: simulated crash in " + sym)
	}
}

// Loader returns an engine.Loader. It serves lib once available is true and otherwise fails
// with ErrEngineUnavailable, simulating a missing engine binary.
type Loader struct {
	mu        sync.Mutex
	lib       engine.Library
	available bool
	Loads     int
}

func NewLoader(lib engine.Library, available bool) *Loader {
	return &Loader{lib: lib, available: available}
}

func (l *Loader) SetAvailable(v bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.available = v
}

func (l *Loader) Load(path string) (engine.Library, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Loads++
	if !l.available {
		return nil, engine.ErrEngineUnavailable
	}
	return l.lib, nil
}
