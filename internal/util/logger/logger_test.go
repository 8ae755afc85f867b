package logger

import (
	"bytes"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetOutput_ExistingLogger(t *testing.T) {
	log := Logger("logger-test/existing")

	buf := &bytes.Buffer{}
	SetOutput(buf)
	t.Cleanup(func() { SetOutput(os.Stderr) })

	log.Info("after switch", "key", "value")

	out := buf.String()
	assert.Contains(t, out, "after switch")
	assert.Contains(t, out, "key=value")
	assert.Contains(t, out, "subsystem=logger-test/existing")
}

func TestSetLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	SetOutput(buf)
	t.Cleanup(func() { SetOutput(os.Stderr) })

	log := Logger("logger-test/level")
	SetLevel("logger-test/level", slog.LevelError)
	log.Warn("hidden")
	assert.Empty(t, buf.String())

	SetLevel("logger-test/level", slog.LevelDebug)
	log.Debug("shown")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "level=debug")
}

func TestParseConfig(t *testing.T) {
	cfg := ParseConfig("relay=debug, transport/quic=WARN ,error", "JSON", "true")

	assert.Equal(t, slog.LevelError, cfg.DefaultLevel)
	assert.Equal(t, slog.LevelDebug, cfg.LevelForSubsystem("relay"))
	assert.Equal(t, slog.LevelWarn, cfg.LevelForSubsystem("transport/quic"))
	assert.Equal(t, slog.LevelError, cfg.LevelForSubsystem("forward"))
	assert.Equal(t, FormatJSON, cfg.Format)
	assert.True(t, cfg.AddSource)
}

func TestParseConfig_Defaults(t *testing.T) {
	cfg := ParseConfig("", "", "")

	assert.Equal(t, slog.LevelInfo, cfg.DefaultLevel)
	assert.Equal(t, FormatText, cfg.Format)
	assert.False(t, cfg.AddSource)

	// 无法识别的级别被忽略
	cfg = ParseConfig("relay=loud,verbose", "", "")
	assert.Equal(t, slog.LevelInfo, cfg.DefaultLevel)
	_, ok := cfg.SubsystemLevels["relay"]
	assert.False(t, ok)
}

func TestLogger_Cached(t *testing.T) {
	a := Logger("logger-test/cached")
	b := Logger("logger-test/cached")
	require.Same(t, a, b)
}

func TestDiscard(t *testing.T) {
	log := Discard()
	assert.False(t, log.Enabled(t.Context(), slog.LevelError))
}
