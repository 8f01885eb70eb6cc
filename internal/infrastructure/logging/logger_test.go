package logging

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestToZapFields_TypedConstructors(t *testing.T) {
	fields := []Field{
		String("smiles", "c1ccccc1"),
		Int("index", 3),
		Int64("cid", 241),
		Float64("r2", 0.91),
		Bool("cached", true),
		Duration("elapsed", time.Second),
		Err(errors.New("boom")),
		Err(nil),
		Any("grid", []int{1, 2}),
	}
	zf := toZapFields(fields)
	require.Len(t, zf, len(fields))
	assert.Equal(t, "smiles", zf[0].Key)
	assert.Equal(t, "error", zf[6].Key)
}

func TestObservedLogging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewLoggerFromCore(core)

	logger.Named("enumerate").With(String("run", "abc")).Info("candidates written", Int("count", 12))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "candidates written", entry.Message)
	assert.Equal(t, "enumerate", entry.LoggerName)

	ctx := entry.ContextMap()
	assert.Equal(t, "abc", ctx["run"])
	assert.EqualValues(t, 12, ctx["count"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("WARN"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("bogus"))
}

func TestNopLoggerAndDefault(t *testing.T) {
	nop := NewNopLogger()
	nop.Info("ignored")
	assert.Equal(t, nop, nop.With(Int("x", 1)).Named("y").(nopLogger))

	SetDefault(nil) // no-op
	core, logs := observer.New(zapcore.InfoLevel)
	SetDefault(NewLoggerFromCore(core))
	Default().Warn("hello")
	assert.Equal(t, 1, logs.Len())
	SetDefault(NewNopLogger())
}

func TestNewLoggerDefaults(t *testing.T) {
	logger, err := NewLogger(LogConfig{})
	require.NoError(t, err)
	logger.Debug("suppressed at info level")
}
