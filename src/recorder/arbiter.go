package recorder

import (
	"sync"

	"scope-z/src/binding"
)

// Arbiter grants exclusive ownership of raw input to at most one recorder at a time.
// Input sources deliver events through Dispatch so that only the owner interprets them.
type Arbiter struct {
	mu    sync.Mutex
	owner *Recorder
}

func NewArbiter() *Arbiter { return &Arbiter{} }

func (a *Arbiter) claim(r *Recorder) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.owner != nil && a.owner != r {
		return false
	}
	a.owner = r
	return true
}

func (a *Arbiter) release(r *Recorder) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.owner == r {
		a.owner = nil
	}
}

// Owner returns the recorder currently holding input, or nil.
func (a *Arbiter) Owner() *Recorder {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.owner
}

// Active reports whether a recording session holds input.
func (a *Arbiter) Active() bool { return a.Owner() != nil }

// Dispatch routes ev to the owning recorder. handled is false when nobody is recording, in which
// case the caller may interpret the event itself.
func (a *Arbiter) Dispatch(ev Event) (b binding.Binding, committed, handled bool) {
	owner := a.Owner()
	if owner == nil {
		return binding.Binding{}, false, false
	}
	b, committed = owner.Feed(ev)
	return b, committed, true
}

// CancelAll aborts whichever recording is active.
func (a *Arbiter) CancelAll() {
	if owner := a.Owner(); owner != nil {
		owner.Cancel()
	}
}
