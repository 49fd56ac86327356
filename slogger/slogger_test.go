package slogger

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFromString(t *testing.T) {
	assert.Equal(t, LevelDebug, LevelFromString("debug"))
	assert.Equal(t, LevelInfo, LevelFromString("INFO"))
	assert.Equal(t, LevelWarn, LevelFromString("Warn"))
	assert.Equal(t, LevelError, LevelFromString("error"))
	assert.Equal(t, DefaultLogLevel, LevelFromString("nonsense"))
}

func TestSloggerWrites(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, LevelDebug, true)
	logger.Info("execution started", "handle", "abc-123")
	out := buf.String()
	assert.Contains(t, out, "execution started")
	assert.Contains(t, out, "abc-123")
}

func TestSloggerWith(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, LevelInfo, true).With("scenario", "basic")
	logger.Info("done")
	assert.Contains(t, buf.String(), "basic")
}

func TestSloggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, LevelWarn, true)
	logger.Info("hidden")
	logger.Warn("shown")
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
}

func TestContextRoundTrip(t *testing.T) {
	logger := NewDevNullLogger()
	ctx := WithLogger(context.Background(), logger)
	got := Ctx(ctx)
	require.Same(t, logger, got)
}
