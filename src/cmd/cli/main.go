package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"scope-z/src/binding"
	"scope-z/src/clipboard"
	"scope-z/src/config"
	"scope-z/src/hotkey"
	"scope-z/src/logutil"
	"scope-z/src/recorder"
	"scope-z/src/settings"
	"scope-z/src/singleinstance"
	"scope-z/src/store"
)

type cliOptions struct {
	settingsPath string
	verbose      bool

	// show
	jsonOutput bool
	copyOutput bool

	// set
	lensSize      int
	zoom          float64
	fps           int
	shape         string
	toggle        string
	zoomIn        string
	zoomOut       string
	fromClipboard bool

	// record
	timeout time.Duration
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return runWithArgs(normalizeLegacyArgs(os.Args), os.Stdout)
}

func runWithArgs(args []string, out io.Writer) error {
	if len(args) == 0 {
		args = []string{"scope-z-cli"}
	}

	opts := &cliOptions{}
	cmd := newRootCmd(opts)
	cmd.SetOut(out)
	cmd.SetArgs(args[1:])
	return cmd.Execute()
}

func newRootCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "scope-z-cli",
		Short:         "Inspect and edit Scope Z magnifier settings",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if opts.verbose {
				level = slog.LevelDebug
			}
			logutil.Setup(logutil.Options{Stderr: opts.verbose, Level: level})
		},
	}

	cmd.PersistentFlags().StringVar(&opts.settingsPath, "settings", "", "Path to the settings file (highest precedence)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output to stderr")

	cmd.AddCommand(
		newShowCmd(opts),
		newSetCmd(opts),
		newResetCmd(opts),
		newPathCmd(opts),
		newKeyNameCmd(),
		newRecordCmd(opts),
		newSendCmd(),
	)
	return cmd
}

func openStore(opts *cliOptions) (*store.Store, error) {
	cfg, err := config.LoadWithOptions(config.LoadOptions{SettingsPathOverride: opts.settingsPath})
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	slog.Debug("cli: settings file", "path", cfg.SettingsPath)
	return store.New(cfg.SettingsPath, slog.Default()), nil
}

// loadForEdit returns the stored settings. A corrupt file is reported and replaced by defaults.
func loadForEdit(cmd *cobra.Command, st *store.Store) settings.Settings {
	s, err := st.Load()
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v; starting from defaults\n", err)
	}
	return s
}

func newShowCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the current settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(opts)
			if err != nil {
				return err
			}
			s := loadForEdit(cmd, st)

			var text string
			if opts.jsonOutput {
				data, err := settings.Encode(s)
				if err != nil {
					return err
				}
				text = string(data)
			} else {
				text = formatSettings(s)
			}
			fmt.Fprint(cmd.OutOrStdout(), text)

			if opts.copyOutput {
				if err := clipboard.Write(text); err != nil {
					return fmt.Errorf("failed to copy to clipboard: %w", err)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output the settings file document")
	cmd.Flags().BoolVar(&opts.copyOutput, "copy", false, "Also copy the output to the clipboard")
	return cmd
}

func formatSettings(s settings.Settings) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Lens size:  %d px\n", s.LensSize)
	fmt.Fprintf(&b, "Zoom:       %sx\n", strconv.FormatFloat(s.ZoomFactor, 'f', -1, 64))
	fmt.Fprintf(&b, "Shape:      %s\n", s.LensShape)
	fmt.Fprintf(&b, "Frame rate: %d fps\n", s.FPS)
	for _, slot := range settings.Slots {
		fmt.Fprintf(&b, "%-11s %s\n", slot.Label()+":", s.Binding(slot).DisplayName())
	}
	return b.String()
}

func newSetCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change one or more settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(opts)
			if err != nil {
				return err
			}
			s := loadForEdit(cmd, st)
			if opts.fromClipboard {
				text, err := clipboard.Read()
				if err != nil {
					return fmt.Errorf("failed to read clipboard: %w", err)
				}
				if s, err = settings.Decode([]byte(text)); err != nil {
					return fmt.Errorf("clipboard does not hold settings: %w", err)
				}
			}
			s, err = applyFlags(cmd, opts, s)
			if err != nil {
				return err
			}
			if err := st.Save(s); err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatSettings(s))
			return nil
		},
	}
	cmd.Flags().IntVar(&opts.lensSize, "lens-size", settings.DefaultLensSize, "Lens size in pixels (50..1000)")
	cmd.Flags().Float64Var(&opts.zoom, "zoom", settings.DefaultZoom, "Zoom factor (1..10)")
	cmd.Flags().IntVar(&opts.fps, "fps", settings.DefaultFPS, "Frame rate cap (30, 60, 75, 120, 144, 240)")
	cmd.Flags().StringVar(&opts.shape, "shape", "", "Lens shape (circle or rectangle)")
	cmd.Flags().StringVar(&opts.toggle, "toggle", "", `Toggle binding, e.g. "Mouse 4" or "Ctrl+F5"`)
	cmd.Flags().StringVar(&opts.zoomIn, "zoom-in", "", `Zoom-in binding, e.g. "Ctrl+Wheel Up"`)
	cmd.Flags().StringVar(&opts.zoomOut, "zoom-out", "", `Zoom-out binding, e.g. "Ctrl+Wheel Down"`)
	cmd.Flags().BoolVar(&opts.fromClipboard, "from-clipboard", false, "Start from a settings document on the clipboard")
	return cmd
}

// applyFlags applies only the flags given on the command line. Out-of-range values are errors.
func applyFlags(cmd *cobra.Command, opts *cliOptions, s settings.Settings) (settings.Settings, error) {
	flags := cmd.Flags()
	if flags.Changed("lens-size") {
		if opts.lensSize < settings.MinLensSize || opts.lensSize > settings.MaxLensSize {
			return s, fmt.Errorf("lens size %d is outside %d..%d", opts.lensSize, settings.MinLensSize, settings.MaxLensSize)
		}
		s.LensSize = opts.lensSize
	}
	if flags.Changed("zoom") {
		if opts.zoom < settings.MinZoom || opts.zoom > settings.MaxZoom {
			return s, fmt.Errorf("zoom %g is outside %g..%g", opts.zoom, settings.MinZoom, settings.MaxZoom)
		}
		s.ZoomFactor = opts.zoom
	}
	if flags.Changed("fps") {
		if !settings.ValidFPS(opts.fps) {
			return s, fmt.Errorf("fps %d is not one of %v", opts.fps, settings.FPSOptions)
		}
		s.FPS = opts.fps
	}
	if flags.Changed("shape") {
		shape, err := settings.ParseShape(opts.shape)
		if err != nil {
			return s, err
		}
		s.LensShape = shape
	}
	for _, f := range []struct {
		name string
		slot settings.Slot
		val  string
	}{
		{"toggle", settings.SlotToggle, opts.toggle},
		{"zoom-in", settings.SlotZoomIn, opts.zoomIn},
		{"zoom-out", settings.SlotZoomOut, opts.zoomOut},
	} {
		if !flags.Changed(f.name) {
			continue
		}
		b, err := binding.Parse(f.val)
		if err != nil {
			return s, fmt.Errorf("--%s: %w", f.name, err)
		}
		s = s.WithBinding(f.slot, b)
	}
	return s, nil
}

func newResetCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(opts)
			if err != nil {
				return err
			}
			if err := st.Save(settings.Default()); err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatSettings(settings.Default()))
			return nil
		},
	}
}

func newPathCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the settings file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), st.Path())
			return nil
		},
	}
}

func newKeyNameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keyname <code>",
		Short: "Print the display name of a gesture code (decimal or 0x hex)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.ParseInt(args[0], 0, 32)
			if err != nil {
				return fmt.Errorf("invalid code %q: %w", args[0], err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), binding.Name(binding.Code(n)))
			return nil
		},
	}
}

func newRecordCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record <toggle|zoom_in|zoom_out>",
		Short: "Record a binding from global input and save it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			slot, err := settings.ParseSlot(args[0])
			if err != nil {
				return err
			}
			st, err := openStore(opts)
			if err != nil {
				return err
			}
			s := loadForEdit(cmd, st)

			fmt.Fprintf(cmd.ErrOrStderr(), "Press the new %s binding (Esc cancels, %s timeout)...\n", slot.Label(), opts.timeout)
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()
			rec := recorder.New(slot.String(), s.Binding(slot))
			b, err := hotkey.Capture(ctx, rec, slog.Default())
			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) {
					return fmt.Errorf("no input within %s", opts.timeout)
				}
				return err
			}

			if err := st.Save(s.WithBinding(slot, b)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", slot.Label(), b.DisplayName())
			return nil
		},
	}
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Give up after this long")
	return cmd
}

func newSendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <show|toggle|start|stop|status>",
		Short: "Send a command to the running Scope Z instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := singleinstance.ParseCommand(args[0])
			if err != nil {
				return err
			}
			start, end := singleinstance.PortRange()
			slog.Debug("cli: looking for resident", "range_start", start, "range_end", end)
			ctx, cancel := context.WithTimeout(cmd.Context(), 3*time.Second)
			defer cancel()
			delegated, text, err := singleinstance.NewClient().Send(ctx, c)
			if err != nil {
				return err
			}
			if !delegated {
				return errors.New("no running Scope Z instance found")
			}
			if text != "" {
				fmt.Fprintln(cmd.OutOrStdout(), text)
			}
			return nil
		},
	}
}

func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	normalized := make([]string, len(args))
	copy(normalized, args)

	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		switch {
		case arg == "-json":
			normalized[i] = "--json"
		case strings.HasPrefix(arg, "-json="):
			normalized[i] = "--json=" + arg[len("-json="):]
		case arg == "-verbose":
			normalized[i] = "--verbose"
		case strings.HasPrefix(arg, "-verbose="):
			normalized[i] = "--verbose=" + arg[len("-verbose="):]
		case arg == "-settings":
			normalized[i] = "--settings"
		case strings.HasPrefix(arg, "-settings="):
			normalized[i] = "--settings=" + arg[len("-settings="):]
		}
	}

	return normalized
}
