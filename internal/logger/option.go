package logger

import (
	"context"
	"log"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// leveledCore overrides the level check of the wrapped core.
type leveledCore struct {
	zapcore.Core

	// level is the minimum level this core accepts.
	level zapcore.Level
}

// Enabled reports whether l passes the overridden level.
func (c *leveledCore) Enabled(l zapcore.Level) bool {
	return c.level.Enabled(l)
}

// Check adds the core to ce when the entry passes the overridden level.
//
//nolint:gocritic // AddCore requires ent to be passed by value.
func (c *leveledCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}

	return ce
}

// With keeps the overridden level on the derived core.
//
//nolint:ireturn,nolintlint // zapcore.Core is the contract.
func (c *leveledCore) With(fields []zapcore.Field) zapcore.Core {
	return &leveledCore{
		Core:  c.Core.With(fields),
		level: c.level,
	}
}

// WithLevel replaces the level of an existing logger, in either direction.
//
//nolint:ireturn,nolintlint // zap.Option is the contract.
func WithLevel(lvl zapcore.Level) zap.Option {
	return zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return &leveledCore{
			Core:  core,
			level: lvl,
		}
	})
}

// StdLog adapts the context logger for libraries that print through *log.Logger.
// Every line is written at lvl and only lines at lvl or above are kept.
func StdLog(ctx context.Context, lvl zapcore.Level) *log.Logger {
	l := FromContext(ctx).Desugar().WithOptions(WithLevel(lvl))

	std, err := zap.NewStdLogAt(l, lvl)
	if err != nil {
		return zap.NewStdLog(l)
	}

	return std
}
