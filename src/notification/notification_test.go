package notification

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"scope-z/src/engine"
)

func TestEngineErrorMessage(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantTitle string
		wantText  string
	}{
		{"unavailable", fmt.Errorf("%w: missing", engine.ErrEngineUnavailable), "Engine unavailable", "scope_z.dll"},
		{"call failed", fmt.Errorf("%w: StartMagnifier", engine.ErrEngineCallFailed), "Engine error", "StartMagnifier"},
		{"other", errors.New("boom"), "Scope Z", "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, msg := EngineErrorMessage(tt.err, `C:\apps\scope_z.dll`)
			if title != tt.wantTitle {
				t.Errorf("title = %q, want %q", title, tt.wantTitle)
			}
			if !strings.Contains(msg, tt.wantText) {
				t.Errorf("message %q does not mention %q", msg, tt.wantText)
			}
		})
	}
}
