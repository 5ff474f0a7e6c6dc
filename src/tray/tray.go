package tray

import (
	"context"
	"log/slog"
	"time"

	"scope-z/src/binding"
	"scope-z/src/eventloop"
	"scope-z/src/settings"
)

const (
	title          = "Scope Z"
	recordTimeout  = 10 * time.Second
	commandTimeout = 5 * time.Second
)

// Controller is the part of the event loop the tray menu drives.
type Controller interface {
	Edit(fn func(settings.Settings) settings.Settings)
	Do(ctx context.Context, cmd eventloop.Command) (eventloop.Status, error)
	Subscribe(fn eventloop.Listener)
}

// CaptureFunc records a new binding for slot from global input, starting from current.
type CaptureFunc func(ctx context.Context, slot settings.Slot, current binding.Binding) (binding.Binding, error)

type Options struct {
	Controller   Controller
	Capture      CaptureFunc
	SettingsPath string
	Logger       *slog.Logger
	// OnExit runs once after the menu loop ends.
	OnExit func()
}

func (o *Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

func tooltip(st eventloop.Status) string {
	switch {
	case st.LastError != "":
		return title + ": " + st.LastError
	case st.Running:
		return title + ": running"
	default:
		return title + ": stopped"
	}
}

func toggleTitle(running bool) string {
	if running {
		return "Stop magnifier"
	}
	return "Start magnifier"
}

func recordTitle(slot settings.Slot, b binding.Binding) string {
	return "Record " + slot.Label() + " (" + b.DisplayName() + ")"
}

func command(c Controller, logger *slog.Logger, cmd eventloop.Command) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	if _, err := c.Do(ctx, cmd); err != nil {
		logger.Warn("tray: command failed", "command", cmd.String(), "error", err)
	}
}

// record runs one global capture and stores the result as a user edit.
func record(opts *Options, slot settings.Slot, current binding.Binding) {
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	b, err := opts.Capture(ctx, slot, current)
	if err != nil {
		opts.logger().Info("tray: recording ended without a binding", "slot", slot.String(), "error", err)
		return
	}
	opts.Controller.Edit(func(s settings.Settings) settings.Settings { return s.WithBinding(slot, b) })
}
