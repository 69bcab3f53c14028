package logging

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		input string
		want  zapcore.Level
	}{
		{"", zapcore.InfoLevel},
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{" warn ", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
	}
	for _, tc := range cases {
		got, err := ParseLevel(tc.input)
		require.NoError(t, err, tc.input)
		require.Equal(t, tc.want, got, tc.input)
	}

	_, err := ParseLevel("verbose")
	require.Error(t, err)
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	_, err := NewLogger("loud")
	require.Error(t, err)
}

func TestWithOperationAddsFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	WithOperation(logger, "usecase.analyze", "req-1").Info("done")
	WithOperation(logger, "startup", "").Info("boot")

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	require.Equal(t, "usecase.analyze", entries[0].ContextMap()["operation"])
	require.Equal(t, "req-1", entries[0].ContextMap()["request_id"])
	_, hasRequestID := entries[1].ContextMap()["request_id"]
	require.False(t, hasRequestID)
}

func TestOperationErrorUnwraps(t *testing.T) {
	base := errors.New("boom")
	err := NewOperationError("extractor.extract", "req-9", base)

	require.ErrorIs(t, err, base)
	require.Equal(t, "extractor.extract (request_id=req-9): boom", err.Error())

	var opErr *OperationError
	require.ErrorAs(t, err, &opErr)
	require.Equal(t, "extractor.extract", opErr.Operation)

	require.NoError(t, NewOperationError("noop", "", nil))
	require.Equal(t, "noop: boom", NewOperationError("noop", "", base).Error())
}

func TestOperationOfAndCauseUnwrapNestedErrors(t *testing.T) {
	base := errors.New("decoder exploded")
	inner := NewOperationError("extractor.extract", "req-1", base)
	outer := NewOperationError("usecase.analyze", "req-1", inner)

	require.Equal(t, "extractor.extract", OperationOf(outer))
	require.Equal(t, base, Cause(outer))
	require.Equal(t, "", OperationOf(base))
	require.Equal(t, base, Cause(base))
}
