package webview

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Backend selects the engine variant.
type Backend int

const (
	// BackendAuto prefers WebKit when compiled in (webkit_cgo build
	// tag) and falls back to Chrome.
	BackendAuto Backend = iota
	// BackendWebKit hosts an in-process WebKitGTK view.
	BackendWebKit
	// BackendChrome drives a Chrome instance over the DevTools
	// protocol.
	BackendChrome
)

func (b Backend) String() string {
	switch b {
	case BackendAuto:
		return "auto"
	case BackendWebKit:
		return "webkit"
	case BackendChrome:
		return "chrome"
	}
	return fmt.Sprintf("backend(%d)", int(b))
}

// ParseBackend maps a configuration string onto a Backend.
func ParseBackend(s string) (Backend, error) {
	switch s {
	case "", "auto":
		return BackendAuto, nil
	case "webkit":
		return BackendWebKit, nil
	case "chrome":
		return BackendChrome, nil
	}
	return BackendAuto, fmt.Errorf("webview: unknown backend %q", s)
}

// Options configures New.
type Options struct {
	// Debug enables the engine's developer tooling (the WebKit
	// inspector, verbose DevTools event logging for chrome).
	Debug bool

	// ParentWindow optionally embeds the view into an existing native
	// window instead of creating one. Only the WebKit backend honors
	// it; the chrome backend fails construction when it is set.
	ParentWindow NativeWindow

	// Backend selects the engine variant.
	Backend Backend

	// Logger, when set, receives lifecycle and bridge diagnostics.
	// Nil disables logging.
	Logger *zerolog.Logger

	// Chrome tunes the remote-session backend.
	Chrome ChromeOptions
}

// ChromeOptions configures the chrome backend's launch and liveness
// behavior.
type ChromeOptions struct {
	// ExecPath overrides browser binary discovery.
	ExecPath string
	// Headless launches without a visible window.
	Headless bool
	// UserDataDir sets the browser profile directory.
	UserDataDir string
	// ExtraArgs are additional command-line flags, e.g.
	// "--disable-gpu" or "--lang=en".
	ExtraArgs []string
	// ProbeInterval overrides the liveness probe interval. Zero means
	// the default of one second.
	ProbeInterval time.Duration
}
