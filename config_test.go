package ryderserial

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chazkiker2/ryderserial-go/internal/logging"
)

func TestNewConfigDefaultsToMaxVerbosityWhenLogLevelUnset(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLogger(&logging.Config{Level: logging.LevelError, Output: &buf})

	newConfig(WithLogger(logger))

	logger.Debug("hello")
	assert.Contains(t, buf.String(), "hello")
}

func TestNewConfigExplicitLogLevelWins(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLogger(&logging.Config{Level: logging.LevelDebug, Output: &buf})

	c := newConfig(WithLogger(logger), WithLogLevel(logging.LevelWarn))
	assert.Equal(t, logging.LevelWarn, c.LogLevel)

	logger.Info("should be filtered")
	assert.Empty(t, buf.String())

	logger.Warn("should pass")
	assert.Contains(t, buf.String(), "should pass")
}

func TestNewConfigDebugOverridesLogLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLogger(&logging.Config{Level: logging.LevelError, Output: &buf})

	newConfig(WithLogger(logger), WithLogLevel(logging.LevelWarn), WithDebug(true))

	logger.Debug("visible because Debug wins")
	assert.Contains(t, buf.String(), "visible because Debug wins")
}
