package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

type mainOptions struct {
	headless     bool
	start        bool
	send         string
	settingsPath string
	enginePath   string
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// DPI awareness must be set before any window or display query.
	enableDPIAwareness()

	opts := &mainOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(normalizeLegacyArgs(os.Args)[1:])
	return cmd.Execute()
}

func newRootCmd(opts *mainOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "scope-z",
		Short:         "Scope Z magnifier controller",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.send != "" {
				return runSend(cmd.Context(), opts, cmd.OutOrStdout())
			}
			return runResident(opts)
		},
	}

	cmd.Flags().BoolVar(&opts.headless, "headless", false, "Run with the tray menu only, no settings window")
	cmd.Flags().BoolVar(&opts.start, "start", false, "Start the magnifier immediately")
	cmd.Flags().StringVar(&opts.send, "send", "", "Send show|toggle|start|stop|status to the running instance and exit")
	cmd.Flags().StringVar(&opts.settingsPath, "settings", "", "Path to the settings file (highest precedence)")
	cmd.Flags().StringVar(&opts.enginePath, "engine", "", "Path to the magnifier engine library (highest precedence)")
	return cmd
}

// normalizeLegacyArgs accepts single-dash long flags such as -headless.
func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	normalized := make([]string, len(args))
	copy(normalized, args)

	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		for _, name := range []string{"headless", "start", "send", "settings", "engine"} {
			switch {
			case arg == "-"+name:
				normalized[i] = "--" + name
			case strings.HasPrefix(arg, "-"+name+"="):
				normalized[i] = "-" + arg
			}
		}
	}

	return normalized
}
