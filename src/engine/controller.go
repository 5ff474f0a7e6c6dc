package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"scope-z/src/settings"
)

// ZoomTolerance is the drift below which a polled zoom is treated as equal to the cached one.
const ZoomTolerance = 0.01

// DefaultDrainTimeout bounds how long Close waits for in-flight polls before giving up on
// unloading the library.
const DefaultDrainTimeout = 2 * time.Second

// Handle identifies one running engine session. The zero Handle means stopped.
type Handle struct {
	generation uint64
	started    time.Time
}

// Generation increases by one with every successful Start.
func (h Handle) Generation() uint64 { return h.generation }
func (h Handle) Started() time.Time  { return h.started }
func (h Handle) Valid() bool         { return h.generation != 0 }

// PollResult is the outcome of one zoom poll, tagged with the session it belongs to.
type PollResult struct {
	Generation uint64
	Zoom       float64
	OK         bool
}

// Controller owns the engine lifecycle. Holding a handle is the Running state; there is no
// separate flag. All methods are safe for concurrent use.
type Controller struct {
	path   string
	load   Loader
	logger *slog.Logger
	drain  time.Duration

	mu     sync.Mutex
	lib    Library
	handle Handle
	gen    uint64

	// polls counts engine calls running outside mu. Add happens under mu while a handle is held.
	polls sync.WaitGroup
}

// Option configures a Controller.
type Option func(*Controller)

// WithLoader replaces the platform loader (tests, alternative engines).
func WithLoader(l Loader) Option { return func(c *Controller) { c.load = l } }

func WithLogger(l *slog.Logger) Option { return func(c *Controller) { c.logger = l } }

// WithDrainTimeout overrides DefaultDrainTimeout.
func WithDrainTimeout(d time.Duration) Option { return func(c *Controller) { c.drain = d } }

// NewController returns a stopped controller for the engine library at path.
func NewController(path string, opts ...Option) *Controller {
	c := &Controller{path: path, load: LoadLibrary, drain: DefaultDrainTimeout}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

func (c *Controller) Path() string { return c.path }

// Running reports whether an engine session is active.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handle.Valid()
}

// Handle returns the active session handle, or the zero Handle when stopped.
func (c *Controller) Handle() Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handle
}

// Start loads the engine if needed and starts it with s. On any failure the controller stays
// stopped. The loaded library is kept for later sessions; a failed load is retried next time.
func (c *Controller) Start(s settings.Settings) (Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.handle.Valid() {
		return c.handle, ErrAlreadyRunning
	}

	lib, err := c.library()
	if err != nil {
		c.logger.Error("engine: load failed", "path", c.path, "error", err)
		return Handle{}, err
	}

	params := StartParamsFrom(s)
	if err := guard("start", func() error { return lib.Start(params) }); err != nil {
		c.logger.Error("engine: start failed", "error", err)
		return Handle{}, err
	}

	c.gen++
	c.handle = Handle{generation: c.gen, started: time.Now()}
	c.logger.Info("engine: started",
		"generation", c.gen,
		"lens_size", params.LensSize,
		"zoom", params.Zoom,
		"toggle", params.Toggle.DisplayName(),
		"zoom_in", params.ZoomIn.DisplayName(),
		"zoom_out", params.ZoomOut.DisplayName(),
		"shape", settings.Shape(params.Shape).String(),
		"fps", params.FPS)
	return c.handle, nil
}

// Update pushes the settings-only snapshot of s. A failed call leaves the engine running.
func (c *Controller) Update(s settings.Settings) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.handle.Valid() {
		return ErrNotRunning
	}
	params := UpdateParamsFrom(s)
	if err := guard("update", func() error { return c.lib.Update(params) }); err != nil {
		c.logger.Warn("engine: update failed", "error", err)
		return err
	}
	c.logger.Debug("engine: updated", "lens_size", params.LensSize, "zoom", params.Zoom, "shape", params.Shape, "fps", params.FPS)
	return nil
}

// Stop ends the session. It is a no-op when already stopped. The session is released even if
// the engine reports an error.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.handle.Valid() {
		return nil
	}
	err := guard("stop", c.lib.Stop)
	gen := c.handle.generation
	c.handle = Handle{}
	if err != nil {
		c.logger.Warn("engine: stop reported an error", "generation", gen, "error", err)
		return err
	}
	c.logger.Info("engine: stopped", "generation", gen)
	return nil
}

// PollZoom returns the engine's current zoom. ok is false when stopped or when the call fails;
// it never panics.
func (c *Controller) PollZoom() (float64, bool) {
	r := c.Poll()
	return r.Zoom, r.OK
}

// Poll is PollZoom tagged with the session generation. The engine call runs outside the
// controller lock so a slow engine does not block Stop.
func (c *Controller) Poll() PollResult {
	c.mu.Lock()
	lib, h := c.lib, c.handle
	if !h.Valid() {
		c.mu.Unlock()
		return PollResult{}
	}
	c.polls.Add(1)
	c.mu.Unlock()
	defer c.polls.Done()

	var zoom float32
	err := guard("poll", func() error {
		var err error
		zoom, err = lib.CurrentZoom()
		return err
	})
	if err != nil {
		c.logger.Debug("engine: poll failed", "generation", h.generation, "error", err)
		return PollResult{Generation: h.generation}
	}
	return PollResult{Generation: h.generation, Zoom: widen(zoom), OK: true}
}

// Close stops the engine and unloads the library. Call at process exit. A poll still stuck in
// the engine after the drain timeout keeps the library loaded.
func (c *Controller) Close() error {
	stopErr := c.Stop()

	if !c.waitPolls() {
		c.logger.Warn("engine: poll still in flight, library left loaded", "timeout", c.drain)
		return errors.Join(stopErr, fmt.Errorf("close: %w: poll did not return within %s", ErrEngineCallFailed, c.drain))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lib == nil {
		return stopErr
	}
	closeErr := c.lib.Close()
	c.lib = nil
	return errors.Join(stopErr, closeErr)
}

func (c *Controller) waitPolls() bool {
	done := make(chan struct{})
	go func() {
		c.polls.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(c.drain):
		return false
	}
}

// library returns the cached library, loading it on first use. Called with c.mu held.
func (c *Controller) library() (Library, error) {
	if c.lib != nil {
		return c.lib, nil
	}
	lib, err := c.load(c.path)
	if err != nil {
		if !errors.Is(err, ErrEngineUnavailable) {
			err = fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
		}
		return nil, err
	}
	c.lib = lib
	c.logger.Info("engine: library loaded", "path", c.path)
	return lib, nil
}

// Reconcile decides whether a polled zoom replaces the cached one. Non-finite polls are ignored
// and finite ones are clamped to the settings domain before comparing.
func Reconcile(cached, polled float64) (float64, bool) {
	if math.IsNaN(polled) || math.IsInf(polled, 0) {
		return cached, false
	}
	polled = settings.ClampZoom(polled)
	if math.Abs(polled-cached) <= ZoomTolerance {
		return cached, false
	}
	return polled, true
}

// guard runs an engine call, converting errors and panics into ErrEngineCallFailed.
func guard(op string, call func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: %w: panic: %v", op, ErrEngineCallFailed, r)
		}
	}()
	if err := call(); err != nil {
		if errors.Is(err, ErrEngineCallFailed) || errors.Is(err, ErrEngineUnavailable) {
			return fmt.Errorf("%s: %w", op, err)
		}
		return fmt.Errorf("%s: %w: %v", op, ErrEngineCallFailed, err)
	}
	return nil
}
