package eventloop

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"scope-z/src/engine"
	"scope-z/src/settings"
	"scope-z/src/worker"
)

// Provenance tags where a settings change came from. Only UserEdited changes are persisted, and
// ReconciledFromEngine changes are never pushed back to the engine.
type Provenance int

const (
	UserEdited Provenance = iota
	ReconciledFromEngine
	ReloadedFromFile
)

func (p Provenance) String() string {
	switch p {
	case UserEdited:
		return "user"
	case ReconciledFromEngine:
		return "engine"
	case ReloadedFromFile:
		return "file"
	default:
		return "unknown"
	}
}

// Command is a lifecycle request from the UI, tray, hotkey or a second instance.
type Command int

const (
	CmdStatus Command = iota
	CmdStart
	CmdStop
	CmdToggle
)

func (c Command) String() string {
	switch c {
	case CmdStatus:
		return "status"
	case CmdStart:
		return "start"
	case CmdStop:
		return "stop"
	case CmdToggle:
		return "toggle"
	default:
		return "unknown"
	}
}

const (
	bindingsDeferredNotice = "Bindings apply on next start"
	engineStalledNotice    = "Engine is not responding"
)

var ErrLoopStopped = errors.New("event loop is not running")

// Store persists user-edited settings.
type Store interface {
	Save(settings.Settings) error
}

// Engine is the controller surface the loop drives. *engine.Controller implements it.
type Engine interface {
	Start(settings.Settings) (engine.Handle, error)
	Update(settings.Settings) error
	Stop() error
	Poll() engine.PollResult
}

// Status is a snapshot published after every change.
type Status struct {
	Settings   settings.Settings
	Running    bool
	Generation uint64
	// Source is the provenance of the most recent settings change.
	Source Provenance
	// LastError is the most recent engine error shown to the user; cleared by a successful start.
	LastError string
	// Notice is informational text such as a lens-fit warning.
	Notice string
}

// Listener receives every published Status on the loop goroutine. It must not block.
type Listener func(Status)

// DisplayCheck returns a warning when a lens of the given size does not fit the screen.
type DisplayCheck func(lensSize int) string

// Loop is the single-threaded coordinator owning the current settings and the engine lifecycle.
type Loop struct {
	store        Store
	eng          Engine
	pool         *worker.Pool
	logger       *slog.Logger
	displayCheck DisplayCheck
	onEngineErr  func(error)
	pollInterval time.Duration
	pollTimeout  time.Duration

	edits    chan edit
	commands chan commandRequest
	results  chan pollOutcome
	stalls   chan uint64
	done     chan struct{}

	// Owned by the Run goroutine.
	current  settings.Settings
	running  bool
	gen      uint64
	// pushSeq counts Start and Update calls. A poll scheduled before the latest push may have
	// read a zoom the push has since replaced.
	pushSeq  uint64
	pollSeq  uint64
	polling  bool
	ticker   *time.Ticker
	lastErr  string
	notice   string
	runOnce  sync.Once
	doneOnce sync.Once

	mu        sync.Mutex
	snapshot  Status
	listeners []Listener
}

// pollOutcome is a poll result tagged with the push sequence current when it was scheduled.
type pollOutcome struct {
	result  engine.PollResult
	pushSeq uint64
	poll    uint64
}

type edit struct {
	apply func(settings.Settings) settings.Settings
	prov  Provenance
}

type commandRequest struct {
	cmd   Command
	reply chan commandReply
}

type commandReply struct {
	status Status
	err    error
}

// Option configures a Loop.
type Option func(*Loop)

func WithLogger(l *slog.Logger) Option { return func(loop *Loop) { loop.logger = l } }

// WithPollInterval sets the reconciliation cadence (default 50ms).
func WithPollInterval(d time.Duration) Option {
	return func(loop *Loop) {
		if d > 0 {
			loop.pollInterval = d
		}
	}
}

// WithPollTimeout sets how long a poll may run before it is reported as stalled (default 250ms).
// A stalled poll is not abandoned; no further poll starts until it returns.
func WithPollTimeout(d time.Duration) Option {
	return func(loop *Loop) {
		if d > 0 {
			loop.pollTimeout = d
		}
	}
}

func WithDisplayCheck(fn DisplayCheck) Option { return func(loop *Loop) { loop.displayCheck = fn } }

// OnEngineError is called on the loop goroutine when Start or Update fails.
func OnEngineError(fn func(error)) Option { return func(loop *Loop) { loop.onEngineErr = fn } }

// New creates a loop seeded with initial settings.
func New(initial settings.Settings, store Store, eng Engine, opts ...Option) *Loop {
	l := &Loop{
		store:        store,
		eng:          eng,
		pollInterval: 50 * time.Millisecond,
		pollTimeout:  250 * time.Millisecond,
		edits:        make(chan edit, 16),
		commands:     make(chan commandRequest, 4),
		results:      make(chan pollOutcome, 1),
		stalls:       make(chan uint64, 1),
		done:         make(chan struct{}),
		current:      initial.Normalize(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	l.snapshot = Status{Settings: l.current, Source: ReloadedFromFile}
	return l
}

// Subscribe registers a listener and immediately delivers the current snapshot to it.
func (l *Loop) Subscribe(fn Listener) {
	l.mu.Lock()
	l.listeners = append(l.listeners, fn)
	st := l.snapshot
	l.mu.Unlock()
	fn(st)
}

// Status returns the most recently published snapshot.
func (l *Loop) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshot
}

// Edit applies a user change. The result is persisted and, when running, pushed to the engine.
func (l *Loop) Edit(fn func(settings.Settings) settings.Settings) {
	l.post(edit{apply: fn, prov: UserEdited})
}

// Reload replaces the settings with a version read from disk. It is pushed but not re-saved.
func (l *Loop) Reload(s settings.Settings) {
	l.post(edit{apply: func(settings.Settings) settings.Settings { return s }, prov: ReloadedFromFile})
}

func (l *Loop) post(e edit) {
	select {
	case l.edits <- e:
	case <-l.done:
		l.logger.Warn("eventloop: edit dropped, loop stopped", "source", e.prov.String())
	}
}

// Do executes a command on the loop and returns the resulting status.
func (l *Loop) Do(ctx context.Context, cmd Command) (Status, error) {
	req := commandRequest{cmd: cmd, reply: make(chan commandReply, 1)}
	select {
	case l.commands <- req:
	case <-l.done:
		return l.Status(), ErrLoopStopped
	case <-ctx.Done():
		return l.Status(), ctx.Err()
	}
	select {
	case r := <-req.reply:
		return r.status, r.err
	case <-l.done:
		return l.Status(), ErrLoopStopped
	case <-ctx.Done():
		return l.Status(), ctx.Err()
	}
}

// Run processes edits, commands and poll ticks until ctx is cancelled. The engine is stopped on
// exit. Run may be called once.
func (l *Loop) Run(ctx context.Context) error {
	started := false
	l.runOnce.Do(func() { started = true })
	if !started {
		return errors.New("eventloop: Run called twice")
	}

	l.pool = worker.New(1, l.logger)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), l.pollTimeout)
		defer cancel()
		if err := l.pool.Shutdown(ctx); err != nil {
			l.logger.Warn("eventloop: engine poll still running at exit", "error", err)
		}
	}()
	defer l.doneOnce.Do(func() { close(l.done) })

	for {
		select {
		case <-ctx.Done():
			l.shutdown()
			return ctx.Err()
		case e := <-l.edits:
			l.handleEdit(e)
		case req := <-l.commands:
			err := l.handleCommand(req.cmd)
			req.reply <- commandReply{status: l.Status(), err: err}
		case <-l.tick():
			l.schedulePoll()
		case r := <-l.results:
			l.handlePoll(r)
		case poll := <-l.stalls:
			l.handleStall(poll)
		}
	}
}

func (l *Loop) tick() <-chan time.Time {
	if l.ticker == nil {
		return nil
	}
	return l.ticker.C
}

func (l *Loop) handleEdit(e edit) {
	next := e.apply(l.current).Normalize()
	if next.Equal(l.current) {
		return
	}
	bindingsChanged := !next.BindingsEqual(l.current)
	lensChanged := next.LensSize != l.current.LensSize
	l.current = next

	if e.prov == UserEdited {
		if err := l.store.Save(next); err != nil {
			l.logger.Warn("eventloop: settings not persisted", "error", err)
		}
	}

	if l.running {
		l.pushSeq++
		if err := l.eng.Update(next); err != nil {
			l.engineError(err)
		}
		if bindingsChanged {
			l.notice = bindingsDeferredNotice
		}
	}
	if lensChanged {
		l.checkDisplay()
	}

	l.logger.Debug("eventloop: settings changed", "source", e.prov.String())
	l.publish(e.prov)
}

func (l *Loop) handleCommand(cmd Command) error {
	l.logger.Info("eventloop: command", "command", cmd.String(), "running", l.running)
	switch cmd {
	case CmdStart:
		return l.start()
	case CmdStop:
		return l.stop()
	case CmdToggle:
		if l.running {
			return l.stop()
		}
		return l.start()
	default:
		return nil
	}
}

func (l *Loop) start() error {
	if l.running {
		return nil
	}
	if err := l.store.Save(l.current); err != nil {
		l.logger.Warn("eventloop: settings not persisted before start", "error", err)
	}

	l.pushSeq++
	h, err := l.eng.Start(l.current)
	if err != nil {
		l.engineError(err)
		l.publish(l.snapshotSource())
		return err
	}

	l.running = true
	l.gen = h.Generation()
	l.lastErr = ""
	l.notice = ""
	l.checkDisplay()
	l.ticker = time.NewTicker(l.pollInterval)
	l.publish(l.snapshotSource())
	return nil
}

func (l *Loop) stop() error {
	if l.ticker != nil {
		l.ticker.Stop()
		l.ticker = nil
	}
	wasRunning := l.running
	l.running = false
	l.gen = 0
	if l.notice == bindingsDeferredNotice {
		l.notice = ""
	}

	err := l.eng.Stop()
	if err != nil {
		l.logger.Warn("eventloop: engine stop reported an error", "error", err)
	}
	if wasRunning {
		l.publish(l.snapshotSource())
	}
	return err
}

func (l *Loop) shutdown() {
	if l.running {
		_ = l.stop()
	}
}

// schedulePoll runs one engine poll on the worker pool. A tick is dropped while a poll is in
// flight. The poll is never abandoned: a call that outlives the poll timeout is reported as a
// stall and the next poll waits for it to return.
func (l *Loop) schedulePoll() {
	if !l.running || l.polling {
		return
	}
	l.pollSeq++
	out := pollOutcome{result: engine.PollResult{Generation: l.gen}, pushSeq: l.pushSeq, poll: l.pollSeq}
	stall := time.AfterFunc(l.pollTimeout, func() {
		select {
		case l.stalls <- out.poll:
		default:
		}
	})
	submitted := l.pool.Submit(context.Background(), func(context.Context) (any, error) {
		return l.eng.Poll(), nil
	}, func(v any, err error) {
		stall.Stop()
		if pr, ok := v.(engine.PollResult); ok && err == nil {
			out.result = pr
		}
		select {
		case l.results <- out:
		case <-l.done:
		}
	})
	if !submitted {
		stall.Stop()
		return
	}
	l.polling = true
}

func (l *Loop) handlePoll(out pollOutcome) {
	l.polling = false
	recovered := l.notice == engineStalledNotice
	if recovered {
		l.notice = ""
		l.logger.Info("eventloop: engine poll returned after stall")
	}

	r := out.result
	if !l.running || !r.OK || r.Generation != l.gen || out.pushSeq != l.pushSeq {
		if recovered {
			l.publish(l.snapshotSource())
		}
		return
	}
	zoom, changed := engine.Reconcile(l.current.ZoomFactor, r.Zoom)
	if !changed {
		if recovered {
			l.publish(l.snapshotSource())
		}
		return
	}
	l.logger.Debug("eventloop: zoom reconciled from engine", "from", l.current.ZoomFactor, "to", zoom)
	l.current.ZoomFactor = zoom
	l.publish(ReconciledFromEngine)
}

func (l *Loop) handleStall(poll uint64) {
	if !l.polling || poll != l.pollSeq {
		return
	}
	l.logger.Warn("eventloop: engine poll stalled", "timeout", l.pollTimeout, "generation", l.gen)
	l.notice = engineStalledNotice
	l.publish(l.snapshotSource())
}

func (l *Loop) engineError(err error) {
	l.lastErr = err.Error()
	l.logger.Error("eventloop: engine error", "error", err)
	if l.onEngineErr != nil {
		l.onEngineErr(err)
	}
}

func (l *Loop) checkDisplay() {
	if l.displayCheck == nil {
		return
	}
	if warn := l.displayCheck(l.current.LensSize); warn != "" {
		l.logger.Warn("eventloop: lens does not fit the display", "detail", warn)
		l.notice = warn
	} else if l.notice != bindingsDeferredNotice {
		l.notice = ""
	}
}

func (l *Loop) snapshotSource() Provenance {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshot.Source
}

func (l *Loop) publish(source Provenance) {
	st := Status{
		Settings:   l.current,
		Running:    l.running,
		Generation: l.gen,
		Source:     source,
		LastError:  l.lastErr,
		Notice:     l.notice,
	}
	l.mu.Lock()
	l.snapshot = st
	listeners := append([]Listener(nil), l.listeners...)
	l.mu.Unlock()

	for _, fn := range listeners {
		fn(st)
	}
}
