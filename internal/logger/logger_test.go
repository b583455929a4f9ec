package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoggerUsableBeforeInitialize(t *testing.T) {
	assert.NotPanics(t, func() {
		InfoCtx(context.Background(), "before init", zap.String("k", "v"))
		DebugCtx(context.Background(), "before init")
		ErrorCtx(context.Background(), errors.New("boom"))
		Warn("before init")
	})
}

func TestInitialize(t *testing.T) {
	require.NoError(t, Initialize(Config{Debug: true, Service: "sbt-test"}))
	assert.True(t, Default().Core().Enabled(zap.DebugLevel))
	assert.NotNil(t, Named("network"))

	require.NoError(t, Initialize(Config{Service: "sbt-test"}))
	assert.False(t, Default().Core().Enabled(zap.DebugLevel))

	Flush(time.Millisecond)
}
