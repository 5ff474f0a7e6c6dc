package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"scope-z/src/binding"
	"scope-z/src/config"
	"scope-z/src/display"
	"scope-z/src/engine"
	"scope-z/src/eventloop"
	"scope-z/src/gui"
	"scope-z/src/hotkey"
	"scope-z/src/logutil"
	"scope-z/src/notification"
	"scope-z/src/recorder"
	"scope-z/src/settings"
	"scope-z/src/singleinstance"
	"scope-z/src/store"
	"scope-z/src/tray"
)

const (
	delegateTimeout = 3 * time.Second
	commandTimeout  = 5 * time.Second
)

var errNoResident = errors.New("no running Scope Z instance found")

func loadConfig(opts *mainOptions) (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadWithOptions(config.LoadOptions{
		SettingsPathOverride: opts.settingsPath,
		EnginePathOverride:   opts.enginePath,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := logutil.Setup(logutil.Options{
		File:  cfg.EnableFileLogging,
		Dir:   cfg.LogDir,
		Level: logutil.ParseLevel(cfg.LogLevel),
	})
	return cfg, logger, nil
}

func runSend(ctx context.Context, opts *mainOptions, out io.Writer) error {
	if _, _, err := loadConfig(opts); err != nil {
		return err
	}
	cmd, err := singleinstance.ParseCommand(opts.send)
	if err != nil {
		return err
	}
	return delegate(ctx, singleinstance.NewClient(), cmd, out)
}

// delegate hands cmd to the resident instance and prints any reply text.
func delegate(ctx context.Context, client singleinstance.Client, cmd singleinstance.Command, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, delegateTimeout)
	defer cancel()

	delegated, text, err := client.Send(ctx, cmd)
	if err != nil {
		return fmt.Errorf("delegation failed: %w", err)
	}
	if !delegated {
		return errNoResident
	}
	slog.Info("main: delegated to resident", "command", string(cmd))
	if text != "" {
		fmt.Fprintln(out, text)
	}
	return nil
}

// launchCommand is what a second launch asks the resident to do.
func launchCommand(opts *mainOptions) singleinstance.Command {
	if opts.start {
		return singleinstance.CmdStart
	}
	return singleinstance.CmdShow
}

func runResident(opts *mainOptions) error {
	cfg, logger, err := loadConfig(opts)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server := singleinstance.NewServer()
	if err := server.Start(ctx); err != nil {
		logger.Info("main: resident already running, delegating", "command", string(launchCommand(opts)))
		return delegate(ctx, singleinstance.NewClient(), launchCommand(opts), os.Stdout)
	}
	defer server.Close()
	portStart, portEnd := singleinstance.PortRange()
	logger.Info("main: resident listening", "port", server.Port(), "range_start", portStart, "range_end", portEnd)

	logDisplays(logger)

	st := store.New(cfg.SettingsPath, logger)
	initial, err := st.Load()
	if err != nil {
		logger.Warn("main: settings file unusable, starting from defaults", "error", err)
	}

	ctrl := engine.NewController(cfg.EnginePath, engine.WithLogger(logger))
	defer func() {
		if err := ctrl.Close(); err != nil {
			logger.Warn("main: engine close failed", "error", err)
		}
	}()

	loop := eventloop.New(initial, st, ctrl,
		eventloop.WithLogger(logger),
		eventloop.WithPollInterval(cfg.PollInterval),
		eventloop.WithPollTimeout(cfg.PollTimeout),
		eventloop.WithDisplayCheck(display.Check),
		eventloop.OnEngineError(func(err error) { notification.ShowEngineError(err, cfg.EnginePath) }),
	)
	loopDone := make(chan error, 1)
	go func() { loopDone <- loop.Run(ctx) }()

	if cfg.WatchSettings {
		if err := st.Watch(ctx, loop.Reload); err != nil {
			logger.Warn("main: settings file watch unavailable", "error", err)
		}
	}

	if opts.start {
		go runCommand(ctx, loop, logger, eventloop.CmdStart)
	}

	var (
		window     *gui.App
		show, quit func()
	)
	if opts.headless {
		show = func() {}
		quit = tray.Quit
	} else {
		window = gui.New(gui.Options{Controller: loop, Logger: logger, OnQuit: cancel})
		show = window.Show
		quit = window.Quit
	}

	go serveDelegated(ctx, server, loop, show, logger)
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sig)
		select {
		case <-sig:
			logger.Info("main: signal received, shutting down")
			quit()
		case <-ctx.Done():
		}
	}()

	var uiErr error
	if window != nil {
		window.Run()
	} else {
		uiErr = tray.Run(tray.Options{
			Controller:   loop,
			Capture:      captureBinding(logger),
			SettingsPath: st.Path(),
			Logger:       logger,
			OnExit:       cancel,
		})
	}

	cancel()
	if err := <-loopDone; err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("main: event loop stopped", "error", err)
	}
	logger.Info("main: exited")
	return uiErr
}

// captureBinding records a binding from global input for the headless tray.
func captureBinding(logger *slog.Logger) tray.CaptureFunc {
	return func(ctx context.Context, slot settings.Slot, current binding.Binding) (binding.Binding, error) {
		rec := recorder.New(slot.String(), current, recorder.WithLogger(logger))
		return hotkey.Capture(ctx, rec, logger)
	}
}

func runCommand(ctx context.Context, ctrl residentController, logger *slog.Logger, cmd eventloop.Command) {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()
	if _, err := ctrl.Do(ctx, cmd); err != nil {
		logger.Warn("main: command failed", "command", cmd.String(), "error", err)
	}
}

func logDisplays(logger *slog.Logger) {
	screens := display.All()
	logger.Info("main: displays detected", "count", len(screens))
	for i, b := range screens {
		logger.Debug("main: display", "index", i, "x", b.Min.X, "y", b.Min.Y, "w", b.Dx(), "h", b.Dy())
	}
}
