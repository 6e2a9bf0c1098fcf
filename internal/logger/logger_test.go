package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestInitFallsBackToInfo(t *testing.T) {
	require.NoError(t, Init("not-a-level"))
	require.True(t, Logger().Core().Enabled(zapcore.InfoLevel))
	require.False(t, Logger().Core().Enabled(zapcore.DebugLevel))
}

func TestInitDebug(t *testing.T) {
	require.NoError(t, Init("debug"))
	require.True(t, WithModule("bidding").Core().Enabled(zapcore.DebugLevel))
}
