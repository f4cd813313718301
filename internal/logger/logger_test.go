package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestParseLogLevel verifies mapping from strings to zapcore.Level and handling of unknown values.
func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]zapcore.Level{
		"debug": zapcore.DebugLevel,
		"info":  zapcore.InfoLevel,
		"warn":  zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
		"panic": zapcore.PanicLevel,
		"fatal": zapcore.FatalLevel,
	}
	for s, lvl := range cases {
		got, ok := ParseLogLevel(s)
		require.True(t, ok)
		require.Equal(t, lvl, got)
	}

	_, ok := ParseLogLevel("unknown")
	require.False(t, ok)
}

// TestContextHelpers checks that scoped loggers travel through the context.
func TestContextHelpers(t *testing.T) {
	t.Parallel()

	require.Same(t, Logger(), FromContext(context.Background()))

	core, logs := observer.New(zapcore.DebugLevel)
	ctx := ToContext(context.Background(), zap.New(core).Sugar())

	ctx = WithName(ctx, "controller")
	ctx = WithKV(ctx, "sensor_id", "42")
	ctx = WithFields(ctx, "arming", "ARMED_HOME")

	InfoKV(ctx, "Sensor activated", "active", true)

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, "controller", entries[0].LoggerName)
	require.Equal(t, "Sensor activated", entries[0].Message)

	fields := entries[0].ContextMap()
	require.Equal(t, "42", fields["sensor_id"])
	require.Equal(t, "ARMED_HOME", fields["arming"])
	require.Equal(t, true, fields["active"])
}

// TestWithLevel ensures the option filters entries below the requested level.
func TestWithLevel(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	l := zap.New(core, WithLevel(zapcore.WarnLevel)).Sugar()

	l.Info("dropped")
	l.Warn("kept")

	require.Equal(t, 1, logs.Len())
	require.Equal(t, "kept", logs.All()[0].Message)
}

// TestStdLog routes standard library output through the context logger.
func TestStdLog(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	ctx := ToContext(context.Background(), zap.New(core).Sugar().Named("paho"))

	StdLog(ctx, zapcore.ErrorLevel).Println("connection refused")

	require.Equal(t, 1, logs.Len())

	entry := logs.All()[0]
	require.Equal(t, zapcore.ErrorLevel, entry.Level)
	require.Equal(t, "connection refused", entry.Message)
	require.Equal(t, "paho", entry.LoggerName)
}
