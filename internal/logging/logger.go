package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the minimal logging surface used across satax. Pure components
// (calculator, declaration builder, state machine) never log.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any) {}
func (NopLogger) Infof(string, ...any)  {}
func (NopLogger) Warnf(string, ...any)  {}
func (NopLogger) Errorf(string, ...any) {}

// OrNop returns l, or a NopLogger when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return NopLogger{}
	}
	return l
}

// ZapLogger adapts a zap.SugaredLogger to Logger.
type ZapLogger struct {
	*zap.SugaredLogger
}

// NewZap builds a JSON zap logger at the given level (debug, info, warn, error).
func NewZap(level string) (*ZapLogger, error) {
	return NewZapTo(level, "stderr")
}

// NewZapTo is NewZap writing to the given zap output paths. The TUI logs to
// a file because stderr belongs to the terminal UI.
func NewZapTo(level string, paths ...string) (*ZapLogger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = paths
	cfg.ErrorOutputPaths = paths

	if level == "" {
		level = "info"
	}
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &ZapLogger{SugaredLogger: logger.Sugar()}, nil
}

// NewZapFromCore wraps an existing zap logger; used by tests with observer cores.
func NewZapFromCore(core zapcore.Core) *ZapLogger {
	return &ZapLogger{SugaredLogger: zap.New(core).Sugar()}
}
