package webview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBackend(t *testing.T) {
	tests := []struct {
		in   string
		want Backend
	}{
		{"", BackendAuto},
		{"auto", BackendAuto},
		{"webkit", BackendWebKit},
		{"chrome", BackendChrome},
	}
	for _, tt := range tests {
		got, err := ParseBackend(tt.in)
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}

	_, err := ParseBackend("firefox")
	assert.Error(t, err)
}

func TestParseHint(t *testing.T) {
	tests := []struct {
		in   string
		want Hint
	}{
		{"", HintNone},
		{"none", HintNone},
		{"min", HintMin},
		{"max", HintMax},
		{"fixed", HintFixed},
	}
	for _, tt := range tests {
		got, err := ParseHint(tt.in)
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}

	_, err := ParseHint("huge")
	assert.Error(t, err)
}

func TestBackendString(t *testing.T) {
	assert.Equal(t, "auto", BackendAuto.String())
	assert.Equal(t, "webkit", BackendWebKit.String())
	assert.Equal(t, "chrome", BackendChrome.String())
	assert.Equal(t, "backend(9)", Backend(9).String())
}
