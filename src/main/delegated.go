package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"scope-z/src/eventloop"
	"scope-z/src/singleinstance"
)

// residentController is the part of the event loop a second launch can drive.
type residentController interface {
	Do(ctx context.Context, cmd eventloop.Command) (eventloop.Status, error)
	Status() eventloop.Status
}

var loopCommands = map[singleinstance.Command]eventloop.Command{
	singleinstance.CmdToggle: eventloop.CmdToggle,
	singleinstance.CmdStart:  eventloop.CmdStart,
	singleinstance.CmdStop:   eventloop.CmdStop,
}

// serveDelegated answers commands from later launches until ctx is cancelled.
func serveDelegated(ctx context.Context, server singleinstance.Server, ctrl residentController, show func(), logger *slog.Logger) {
	for {
		conn, err := server.Next(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				logger.Debug("main: delegation server stopped", "error", err)
			}
			return
		}
		cmd := conn.Request().Command
		logger.Info("main: delegated command", "command", string(cmd))

		text, err := handleDelegated(ctx, ctrl, show, cmd)
		if err != nil {
			_ = conn.RespondError(err.Error())
		} else {
			_ = conn.RespondSuccess(text)
		}
		_ = conn.Close()
	}
}

func handleDelegated(ctx context.Context, ctrl residentController, show func(), cmd singleinstance.Command) (string, error) {
	switch cmd {
	case singleinstance.CmdShow:
		show()
		return "", nil
	case singleinstance.CmdStatus:
		return statusLine(ctrl.Status()), nil
	}

	loopCmd, ok := loopCommands[cmd]
	if !ok {
		return "", fmt.Errorf("unknown command %q", string(cmd))
	}
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()
	st, err := ctrl.Do(ctx, loopCmd)
	if err != nil {
		return "", err
	}
	return statusLine(st), nil
}

// statusLine is the one-line STATUS reply, e.g. "running lens=300 zoom=3x shape=circle fps=60".
func statusLine(st eventloop.Status) string {
	state := "stopped"
	if st.Running {
		state = "running"
	}
	s := st.Settings
	line := fmt.Sprintf("%s lens=%d zoom=%sx shape=%s fps=%d",
		state, s.LensSize, strconv.FormatFloat(s.ZoomFactor, 'f', -1, 64), s.LensShape, s.FPS)
	if st.LastError != "" {
		line += " error=" + strconv.Quote(st.LastError)
	}
	return line
}
