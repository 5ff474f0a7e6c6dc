package hotkey

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	hook "github.com/robotn/gohook"

	"scope-z/src/binding"
	"scope-z/src/recorder"
)

var (
	ErrCancelled = errors.New("recording cancelled")
	ErrBusy      = errors.New("another capture is in progress")
	ErrNoHook    = errors.New("global input hook unavailable")
)

// The hook is process-global; only one capture may own it.
var captureMu sync.Mutex

// Capture records one gesture from global input into rec. It calls rec.Begin, feeds hook events
// until the recorder commits or cancels, and cancels the recorder when ctx ends.
func Capture(ctx context.Context, rec *recorder.Recorder, logger *slog.Logger) (binding.Binding, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if !captureMu.TryLock() {
		return binding.Binding{}, ErrBusy
	}
	defer captureMu.Unlock()

	if !rec.Begin() {
		return binding.Binding{}, fmt.Errorf("%w: recorder %s could not start", ErrBusy, rec.Name())
	}

	events := startHook()
	if events == nil {
		rec.Cancel()
		return binding.Binding{}, ErrNoHook
	}
	defer hook.End()

	logger.Info("hotkey: capture started", "slot", rec.Name())
	return feed(ctx, rec, events, eventCode, logger)
}

func startHook() (ch chan hook.Event) {
	defer func() {
		if r := recover(); r != nil {
			ch = nil
		}
	}()
	return hook.Start()
}

func feed(ctx context.Context, rec *recorder.Recorder, events <-chan hook.Event, codeOf codeFunc, logger *slog.Logger) (binding.Binding, error) {
	if logger == nil {
		logger = slog.Default()
	}
	for {
		select {
		case <-ctx.Done():
			rec.Cancel()
			logger.Info("hotkey: capture timed out", "slot", rec.Name())
			return binding.Binding{}, ctx.Err()
		case ev, ok := <-events:
			if !ok {
				rec.Cancel()
				return binding.Binding{}, ErrNoHook
			}
			re, ok := translate(ev, codeOf)
			if !ok {
				continue
			}
			if b, committed := rec.Feed(re); committed {
				logger.Info("hotkey: captured", "slot", rec.Name(), "binding", b.DisplayName())
				return b, nil
			}
			if rec.State() == recorder.Idle {
				return binding.Binding{}, ErrCancelled
			}
		}
	}
}
