package webview

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrClosed is returned by any operation reaching for the engine
	// after the owning Webview has released it. Handle operations
	// check for it before touching engine state, so a stale Handle is
	// always safe to call.
	ErrClosed = errors.New("webview: closed")

	// ErrUnsupported marks an operation the active backend cannot
	// perform, such as native window retrieval on the chrome backend.
	ErrUnsupported = errors.New("webview: not supported by this backend")

	// ErrInvalidName is returned by Bind when the function name is not
	// a valid script identifier.
	ErrInvalidName = errors.New("webview: invalid binding name")

	// ErrBadEncoding is returned when a string argument contains an
	// embedded NUL byte, which the engines' string conventions cannot
	// represent.
	ErrBadEncoding = errors.New("webview: argument contains NUL byte")
)

// checkArg validates a string argument against the engine string
// convention. field names the offending parameter in the error.
func checkArg(field, s string) error {
	if strings.ContainsRune(s, 0) {
		return fmt.Errorf("%s: %w", field, ErrBadEncoding)
	}
	return nil
}
