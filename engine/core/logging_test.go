package core

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewLogger(&buf, LogLevelWarn)
	require.NoError(t, err)

	l.Info("hidden %d", 1)
	assert.Empty(t, buf.String())

	l.Warn("swapchain generation %s", "abc")
	assert.Contains(t, buf.String(), "swapchain generation abc")
}

func TestNewLoggerInvalidLevel(t *testing.T) {
	_, err := NewLogger(&bytes.Buffer{}, LogLevel("loud"))
	assert.Error(t, err)
	assert.False(t, ValidLogLevel("loud"))
	assert.True(t, ValidLogLevel("INFO"))
}
