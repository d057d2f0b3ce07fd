package cli

import (
	"bytes"
	"io"
	"os"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/runnerr0/browsersearch/internal/config"
)

// captureOutput captures stdout during fn execution and returns it as a string.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

// newTestSession returns a session rooted at home with Chrome and Safari
// enabled. Output is collected in the returned buffer.
func newTestSession(t *testing.T, home string, asJSON bool) (*session, *bytes.Buffer) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Browsers = map[string]bool{"chrome": true, "safari": true}
	cfg.Fetch.TempDir = t.TempDir()
	cfg.Fetch.SourceTimeout = 5 * time.Second
	cfg.Display.DateFormat = "%Y-%m-%d"

	color.NoColor = true

	var buf bytes.Buffer
	return &session{cfg: cfg, home: home, logger: zap.NewNop(), out: &buf, json: asJSON}, &buf
}
