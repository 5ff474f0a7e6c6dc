package recorder

import (
	"log/slog"
	"sync"

	"scope-z/src/binding"
)

// State is the recorder's position in Idle -> Recording -> Staged -> Idle.
type State int

const (
	Idle State = iota
	Recording
	Staged
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Staged:
		return "staged"
	default:
		return "unknown"
	}
}

// EventKind classifies a raw input event.
type EventKind int

const (
	KeyDown EventKind = iota
	KeyUp
	MouseDown
	Wheel
)

// Event is one raw input event delivered to a recorder.
// Code is a virtual-key code for key events and a mouse code (0x01..0x06) for MouseDown.
// Mods is the live modifier state reported with the event, when the source knows it.
// Delta is the wheel direction: positive is up, negative is down.
type Event struct {
	Kind  EventKind
	Code  binding.Code
	Mods  binding.Modifiers
	Delta int
}

// Recorder captures one gesture into a binding.
type Recorder struct {
	mu      sync.Mutex
	name    string
	state   State
	pending binding.Modifiers
	staged  binding.Code
	stMods  binding.Modifiers
	current binding.Binding
	arbiter *Arbiter
	logger  *slog.Logger

	onCommit func(binding.Binding)
	onChange func(State)
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithArbiter shares input ownership with other recorders.
func WithArbiter(a *Arbiter) Option { return func(r *Recorder) { r.arbiter = a } }

func WithLogger(l *slog.Logger) Option { return func(r *Recorder) { r.logger = l } }

// OnCommit is called, outside the recorder lock, with every committed binding.
func OnCommit(fn func(binding.Binding)) Option { return func(r *Recorder) { r.onCommit = fn } }

// OnStateChange is called, outside the recorder lock, whenever the state changes.
func OnStateChange(fn func(State)) Option { return func(r *Recorder) { r.onChange = fn } }

// New creates an idle recorder holding initial. name identifies it in logs.
func New(name string, initial binding.Binding, opts ...Option) *Recorder {
	r := &Recorder{name: name, current: initial}
	for _, opt := range opts {
		opt(r)
	}
	if r.arbiter == nil {
		r.arbiter = NewArbiter()
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

func (r *Recorder) Name() string { return r.name }

func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Binding returns the last committed binding. It is unchanged while recording.
func (r *Recorder) Binding() binding.Binding {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Set replaces the held binding without recording. Ignored while recording.
func (r *Recorder) Set(b binding.Binding) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != Idle {
		return false
	}
	r.current = b
	return true
}

// Begin enters Recording and claims exclusive input. It returns false, with no effect, when this
// recorder is already recording or another recorder holds the input.
func (r *Recorder) Begin() bool {
	r.mu.Lock()
	if r.state != Idle {
		r.mu.Unlock()
		return false
	}
	if !r.arbiter.claim(r) {
		r.mu.Unlock()
		r.logger.Debug("recorder: input owned by another recorder", "recorder", r.name)
		return false
	}
	r.state = Recording
	r.pending = binding.Modifiers{}
	r.staged = 0
	r.stMods = binding.Modifiers{}
	r.mu.Unlock()

	r.logger.Debug("recorder: recording", "recorder", r.name)
	r.notify(Recording)
	return true
}

// Cancel abandons an in-progress recording and keeps the previous binding.
func (r *Recorder) Cancel() {
	r.mu.Lock()
	if r.state == Idle {
		r.mu.Unlock()
		return
	}
	r.reset()
	r.mu.Unlock()

	r.logger.Debug("recorder: cancelled", "recorder", r.name)
	r.notify(Idle)
}

// Feed processes one event. It returns the new binding and true when the event committed.
func (r *Recorder) Feed(ev Event) (binding.Binding, bool) {
	r.mu.Lock()
	if r.state == Idle {
		r.mu.Unlock()
		return binding.Binding{}, false
	}

	before := r.state
	code, mods, commit, cancel := r.step(ev)
	if cancel {
		r.reset()
		r.mu.Unlock()
		r.logger.Debug("recorder: cancelled by escape", "recorder", r.name)
		r.notify(Idle)
		return binding.Binding{}, false
	}
	if !commit {
		after := r.state
		r.mu.Unlock()
		if after != before {
			r.notify(after)
		}
		return binding.Binding{}, false
	}

	b, err := binding.New(code, mods)
	if err != nil {
		// Unreachable for well-formed events; stay in the current state and wait for another.
		r.mu.Unlock()
		r.logger.Warn("recorder: rejected gesture", "recorder", r.name, "code", int(code), "error", err)
		return binding.Binding{}, false
	}
	r.current = b
	r.reset()
	onCommit := r.onCommit
	r.mu.Unlock()

	r.logger.Info("recorder: committed", "recorder", r.name, "binding", b.DisplayName())
	r.notify(Idle)
	if onCommit != nil {
		onCommit(b)
	}
	return b, true
}

// step advances the state machine. Called with r.mu held.
func (r *Recorder) step(ev Event) (code binding.Code, mods binding.Modifiers, commit, cancel bool) {
	switch ev.Kind {
	case MouseDown:
		if !binding.IsMouseButton(ev.Code) {
			return 0, binding.Modifiers{}, false, false
		}
		return ev.Code, binding.Modifiers{}, true, false

	case Wheel:
		switch {
		case ev.Delta > 0:
			return binding.WheelUp, ev.Mods.Union(r.pending), true, false
		case ev.Delta < 0:
			return binding.WheelDown, ev.Mods.Union(r.pending), true, false
		}
		return 0, binding.Modifiers{}, false, false

	case KeyDown:
		if binding.IsModifier(ev.Code) {
			r.pending = r.pending.Union(binding.ModifierOf(ev.Code))
			return 0, binding.Modifiers{}, false, false
		}
		held := ev.Mods.Union(r.pending)
		if ev.Code == binding.KeyEscape && held.None() {
			return 0, binding.Modifiers{}, false, true
		}
		r.staged = ev.Code
		r.stMods = held
		r.state = Staged
		return 0, binding.Modifiers{}, false, false

	case KeyUp:
		if r.state == Staged {
			return r.staged, r.stMods, true, false
		}
		if binding.IsModifier(ev.Code) {
			r.pending = r.pending.Without(binding.ModifierOf(ev.Code))
		}
		return 0, binding.Modifiers{}, false, false
	}
	return 0, binding.Modifiers{}, false, false
}

// reset returns to Idle and releases the input claim. Called with r.mu held.
func (r *Recorder) reset() {
	r.state = Idle
	r.pending = binding.Modifiers{}
	r.staged = 0
	r.stMods = binding.Modifiers{}
	r.arbiter.release(r)
}

func (r *Recorder) notify(s State) {
	if r.onChange != nil {
		r.onChange(s)
	}
}
