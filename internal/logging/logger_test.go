package logging

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), "input %q", tt.in)
	}
}

func TestNewRespectsLevel(t *testing.T) {
	logger := New(Config{Level: zerolog.WarnLevel, Format: "json"})
	assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())
}

func TestNewFromEnv(t *testing.T) {
	t.Setenv("WEBVIEW_LOG_LEVEL", "debug")
	t.Setenv("WEBVIEW_LOG_FORMAT", "json")
	logger := NewFromEnv()
	assert.Equal(t, zerolog.DebugLevel, logger.GetLevel())

	t.Setenv("WEBVIEW_LOG_FORMAT", "xml")
	logger = NewFromEnv()
	assert.Equal(t, zerolog.DebugLevel, logger.GetLevel())
}
