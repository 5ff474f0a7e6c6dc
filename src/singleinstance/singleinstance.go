package singleinstance

// This file defines the API for single-instance ownership and command delegation.

import (
	"context"
	"fmt"
	"strings"
)

// Command is a request a second launch delegates to the resident instance.
type Command string

const (
	CmdShow   Command = "SHOW"
	CmdToggle Command = "TOGGLE"
	CmdStart  Command = "START"
	CmdStop   Command = "STOP"
	CmdStatus Command = "STATUS"
)

// Commands lists every command the resident understands.
var Commands = []Command{CmdShow, CmdToggle, CmdStart, CmdStop, CmdStatus}

// ParseCommand accepts a command name in any case.
func ParseCommand(s string) (Command, error) {
	c := Command(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Commands {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown command %q", s)
}

// Server owns the TCP endpoint and answers delegated commands.
type Server interface {
	// Start begins listening on the first port of the configured range and accepting clients.
	Start(ctx context.Context) error
	// Port returns the bound TCP port, or 0 if not started.
	Port() int
	// Next returns the next accepted connection as a Conn, or ctx error.
	Next(ctx context.Context) (Conn, error)
	// Close releases ownership and stops accepting clients.
	Close() error
}

// Conn represents one client connection and exposes request + response API.
type Conn interface {
	Request() Request
	// RespondSuccess sends success with optional text (STATUS replies carry a status line).
	RespondSuccess(text string) error
	RespondError(msg string) error
	Close() error
}

// Request represents a single delegated command.
type Request struct {
	Command Command
}

// Client attempts to delegate a command to a resident server.
type Client interface {
	// Send scans the configured TCP range, performs the PING handshake, and delegates cmd.
	// If no resident is found, returns delegated=false, err=nil.
	Send(ctx context.Context, cmd Command) (delegated bool, text string, err error)
}

// NewServer returns TCP implementation.
func NewServer() Server { return newTcpServer() }

// NewClient returns TCP implementation.
func NewClient() Client { return newTcpClient() }
