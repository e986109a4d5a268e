package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLogger_LevelsAndFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapLogger(zap.New(core))
	ctx := context.Background()

	log.Debug(ctx, "dbg", "a", 1)
	log.Info(ctx, "inf", "b", "x")
	log.Warn(ctx, "wrn")
	log.Error(ctx, "err")

	entries := logs.AllUntimed()
	require.Len(t, entries, 4)
	require.Equal(t, zapcore.DebugLevel, entries[0].Level)
	require.Equal(t, "dbg", entries[0].Message)
	require.Equal(t, int64(1), entries[0].ContextMap()["a"])
	require.Equal(t, "x", entries[1].ContextMap()["b"])
	require.Equal(t, zapcore.WarnLevel, entries[2].Level)
	require.Equal(t, zapcore.ErrorLevel, entries[3].Level)
}

func TestZapLogger_With(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := NewZapLogger(zap.New(core)).With("inspection_id", "insp-9")

	log.Info(context.Background(), "updated", "status", "completed")

	entries := logs.FilterMessage("updated").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	require.Equal(t, "insp-9", fields["inspection_id"])
	require.Equal(t, "completed", fields["status"])
}

func TestNew_Backends(t *testing.T) {
	l, err := New("slog", "debug", "vistoria")
	require.NoError(t, err)
	require.IsType(t, &SlogLogger{}, l)

	l, err = New("", "", "")
	require.NoError(t, err)
	require.IsType(t, &SlogLogger{}, l)

	l, err = New("zap", "warn", "vistoria")
	require.NoError(t, err)
	require.IsType(t, &ZapLogger{}, l)

	_, err = New("logrus", "info", "")
	require.Error(t, err)
}

func TestLevelParsing(t *testing.T) {
	require.Equal(t, zapcore.DebugLevel, zapLevel("DEBUG"))
	require.Equal(t, zapcore.InfoLevel, zapLevel("verbose"))
	require.Equal(t, zapcore.ErrorLevel, zapLevel("error"))
	require.Equal(t, "WARN", slogLevel("warn").String())
	require.Equal(t, "INFO", slogLevel("").String())
}
