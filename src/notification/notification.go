package notification

import (
	"errors"
	"fmt"
	"log/slog"

	"scope-z/src/engine"
)

// ShowError displays an error dialog without blocking the caller.
func ShowError(title, message string) {
	slog.Error("notification: "+title, "message", message)
	go ShowBlockingError(title, message)
}

// EngineErrorMessage builds the dialog title and text for an engine failure.
func EngineErrorMessage(err error, enginePath string) (title, message string) {
	switch {
	case errors.Is(err, engine.ErrEngineUnavailable):
		return "Engine unavailable", fmt.Sprintf("The magnifier engine could not be loaded from:\n%s\n\n%v\n\nPlace the engine library next to the application or set ENGINE_PATH.", enginePath, err)
	case errors.Is(err, engine.ErrEngineCallFailed):
		return "Engine error", fmt.Sprintf("The magnifier engine reported an error:\n%v", err)
	default:
		return "Scope Z", err.Error()
	}
}

// ShowEngineError reports an engine failure to the user.
func ShowEngineError(err error, enginePath string) {
	title, message := EngineErrorMessage(err, enginePath)
	ShowError(title, message)
}
