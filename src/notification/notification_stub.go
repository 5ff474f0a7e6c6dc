//go:build !windows

package notification

import "log/slog"

// ShowBlockingError logs a blocking error message on non-Windows platforms.
func ShowBlockingError(title, message string) {
	slog.Error(title, "message", message)
}
