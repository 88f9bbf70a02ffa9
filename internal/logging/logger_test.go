package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestOrNop(t *testing.T) {
	assert.IsType(t, NopLogger{}, OrNop(nil))

	custom := &ZapLogger{}
	assert.Same(t, custom, OrNop(custom))
}

func TestNewZap_Levels(t *testing.T) {
	l, err := NewZap("debug")
	require.NoError(t, err)
	assert.NotNil(t, l)

	l, err = NewZap("")
	require.NoError(t, err)
	assert.NotNil(t, l)

	_, err = NewZap("chatty")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid log level "chatty"`)
}

func TestNewZapTo_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "satax.log")
	l, err := NewZapTo("info", path)
	require.NoError(t, err)

	l.Infof("wizard started for %s", "2025-26")
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"wizard started for 2025-26"`)
	assert.Contains(t, string(data), `"level":"info"`)
}

func TestZapLogger_ImplementsLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	var l Logger = NewZapFromCore(core)

	l.Debugf("hidden %d", 1)
	l.Infof("saga %s started", "abc")
	l.Warnf("retrying")
	l.Errorf("failed: %v", "boom")

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, "saga abc started", entries[0].Message)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
}
