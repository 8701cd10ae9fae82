package output

import (
	"bytes"
	"strings"
	"testing"
)

func TestSetupLogger_Levels(t *testing.T) {
	tests := []struct {
		name                  string
		quiet, verbose, debug bool
		shown, hidden         []string
	}{
		{"default", false, false, false, []string{"warn", "error"}, []string{"debug", "info"}},
		{"quiet", true, false, false, []string{"error"}, []string{"debug", "info", "warn"}},
		{"verbose", false, true, false, []string{"info", "warn"}, []string{"debug"}},
		{"debug", false, false, true, []string{"debug", "info"}, nil},
		{"quiet overrides debug", true, false, true, []string{"error"}, []string{"debug", "warn"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := SetupLogger(tc.quiet, tc.verbose, tc.debug, &buf)
			logger.Debug("debug message")
			logger.Info("info message")
			logger.Warn("warn message")
			logger.Error("error message")

			out := buf.String()
			for _, lvl := range tc.shown {
				if !strings.Contains(out, lvl+" message") {
					t.Errorf("expected %s message in output:\n%s", lvl, out)
				}
			}
			for _, lvl := range tc.hidden {
				if strings.Contains(out, lvl+" message") {
					t.Errorf("unexpected %s message in output:\n%s", lvl, out)
				}
			}
		})
	}
}

func TestSetupLogger_DebugAddsSource(t *testing.T) {
	var buf bytes.Buffer
	SetupLogger(false, false, true, &buf).Debug("here")
	wantContains(t, buf.String(), "source=", "app=bailiff")
}
