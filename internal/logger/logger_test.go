package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	testCases := []struct {
		name        string
		level       string
		format      string
		enabled     zapcore.Level
		expectError bool
	}{
		{name: "JSON info", level: "info", format: "json", enabled: zapcore.InfoLevel},
		{name: "Console debug", level: "debug", format: "console", enabled: zapcore.DebugLevel},
		{name: "Empty level defaults to info", level: "", format: "json", enabled: zapcore.InfoLevel},
		{name: "Unknown level", level: "loud", format: "json", expectError: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			log, err := NewLogger(tc.level, tc.format)
			if tc.expectError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.True(t, log.Core().Enabled(tc.enabled))
			assert.False(t, log.Core().Enabled(tc.enabled-1))
		})
	}
}
