// Package debug builds the process logger. Log lines go to stderr so that
// stdout stays free for reports and line protocol output.
package debug

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EnvVar enables debug logging when set to any non-empty value.
const EnvVar = "BACKLOGGER_DEBUG"

// Options selects the log level. Verbose wins over Quiet.
type Options struct {
	Verbose bool
	Quiet   bool
	// Output defaults to stderr.
	Output io.Writer
}

// Enabled reports whether debug logging was requested via the environment.
func Enabled() bool {
	return os.Getenv(EnvVar) != ""
}

// Level returns the minimum level for opts.
func (o Options) Level() zapcore.Level {
	switch {
	case o.Verbose || Enabled():
		return zapcore.DebugLevel
	case o.Quiet:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}

// NewLogger returns a console logger writing to opts.Output.
func NewLogger(opts Options) *zap.SugaredLogger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(zapcore.AddSync(out)),
		zap.NewAtomicLevelAt(opts.Level()),
	)
	return zap.New(core).Sugar()
}
