//go:build !webkit_cgo

package webview

import (
	"fmt"

	"github.com/rs/zerolog"
)

const webkitAvailable = false

// newWebKitEngine is the non-CGO stub; builds without the webkit_cgo
// tag only carry the chrome backend.
func newWebKitEngine(_ Options, _ func(string), _ zerolog.Logger) (Engine, error) {
	return nil, fmt.Errorf("built without webkit_cgo: %w", ErrUnsupported)
}
