// Package logging provides the single structured logger shared by every
// component. It wraps zap.SugaredLogger so call sites can use
// Warnf/Errorf/Debugf without threading a logger through every function
// signature, mirroring the original source's single global LOG_WARN/LOG_CRIT
// macros but with leveled, structured output instead of bare printf.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

var base *zap.Logger

// Init installs the process-wide logger. Call once from main before booting
// a console. Safe to call again in tests; the previous logger is discarded.
func Init(debug bool) {
	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "" // the core runs at MHz-scale internal cycles; wall-clock timestamps add noise, not signal
	encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	var encoder zapcore.Encoder
	if term.IsTerminal(int(os.Stdout.Fd())) {
		encoder = zapcore.NewConsoleEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewJSONEncoder(encCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level)
	base = zap.New(core)
}

func logger() *zap.Logger {
	if base == nil {
		base = zap.NewNop()
	}
	return base
}

// For returns a child logger tagged with the owning component's name, e.g.
// logging.For("mi") or logging.For("rdp").
func For(component string) *zap.SugaredLogger {
	return logger().Sugar().With("component", component)
}

// Sync flushes any buffered log entries. Call on clean shutdown.
func Sync() {
	if base != nil {
		_ = base.Sync()
	}
}
