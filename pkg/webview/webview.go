// Package webview exposes a native WebKitGTK window or a
// remote-controlled Chrome session behind one handle-based API. A
// Webview is the unique owner of its engine; Handle is a cloneable,
// goroutine-safe, non-owning reference whose every operation fails
// with ErrClosed once the owner is gone instead of reaching freed
// engine state.
package webview

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Webview is the owning facade over one engine instance. It is not
// safe for concurrent use; cross-goroutine access goes through Handle
// or Dispatch.
type Webview struct {
	cell *cell

	closeOnce sync.Once
	closeErr  error
}

// New allocates the underlying engine per opts. The returned Webview
// owns it; release with Close (Run does so on exit).
func New(opts Options) (*Webview, error) {
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	c := &cell{
		id:       uuid.NewString(),
		bindings: make(map[string]BindFunc),
	}
	c.log = logger.With().Str("webview", c.id).Logger()

	backend := opts.Backend
	if backend == BackendAuto {
		if webkitAvailable {
			backend = BackendWebKit
		} else {
			backend = BackendChrome
		}
	}

	var (
		eng Engine
		err error
	)
	switch backend {
	case BackendWebKit:
		eng, err = newWebKitEngine(opts, c.handleScriptMessage, c.log)
	case BackendChrome:
		eng, err = newChromeEngine(opts, c.handleScriptMessage, c.log)
	default:
		return nil, fmt.Errorf("webview: unknown backend %q", backend)
	}
	if err != nil {
		return nil, fmt.Errorf("webview: create %s engine: %w", backend, err)
	}

	c.engine = eng
	c.log.Debug().Stringer("backend", backend).Msg("webview created")
	return &Webview{cell: c}, nil
}

// newFacade wraps an already-constructed engine. Tests use it to drive
// the lifetime contract against a recording fake.
func newFacade(eng Engine, logger zerolog.Logger) *Webview {
	c := &cell{
		id:       uuid.NewString(),
		log:      logger,
		engine:   eng,
		bindings: make(map[string]BindFunc),
	}
	return &Webview{cell: c}
}

// Run blocks the calling goroutine, driving the engine's event loop
// after navigating to the pending target, until termination is
// requested by this Webview or by any Handle. On return the engine has
// been released. Calling Run more than once is undefined; that is the
// caller's responsibility.
func (w *Webview) Run() error {
	c := w.cell
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	eng := c.engine
	url := c.pending
	c.running = true
	c.mu.Unlock()

	err := eng.Run(url)

	c.mu.Lock()
	c.running = false
	c.mu.Unlock()

	if cerr := w.Close(); err == nil {
		err = cerr
	}
	return err
}

// Close releases the engine. Safe to call any number of times and
// concurrently with a blocked Run: the loop is asked to exit first,
// and the engine is destroyed exactly once.
func (w *Webview) Close() error {
	w.closeOnce.Do(func() {
		w.closeErr = w.cell.close()
	})
	return w.closeErr
}

// Terminate requests the run loop to exit. Idempotent; a no-op once
// the owner is closed.
func (w *Webview) Terminate() {
	_ = w.cell.terminate()
}

// Handle returns a non-owning reference to this Webview. It never
// fails and does not extend the engine's lifetime.
func (w *Webview) Handle() *Handle {
	return &Handle{cell: w.cell}
}

// Navigate records url as the navigation target. If the engine's
// session is already running it is pointed at url immediately as well.
func (w *Webview) Navigate(url string) error {
	return w.cell.navigate(url)
}

// SetTitle sets the native window title.
func (w *Webview) SetTitle(title string) error {
	return w.cell.setTitle(title)
}

// SetSize applies the window geometry constraint described by hint.
// Width and height must be representable in the engine's native
// integer width; overflow is a caller error.
func (w *Webview) SetSize(width, height int, hint Hint) error {
	return w.cell.setSize(width, height, hint)
}

// Init schedules js to run in every new document before the page's own
// scripts.
func (w *Webview) Init(js string) error {
	return w.cell.initScript(js)
}

// Eval evaluates js in the current page.
func (w *Webview) Eval(js string) error {
	return w.cell.eval(js)
}

// Bind exposes a function called name to page script. Script calls
// arrive as fn(seq, req); the callback is expected to eventually call
// Return(seq, ...) to settle the page-side promise. Binding an
// already-bound name replaces the previous callback. All registrations
// are released when the owner closes.
func (w *Webview) Bind(name string, fn BindFunc) error {
	return w.cell.bind(name, fn)
}

// Unbind removes the binding for name and its page-side function.
func (w *Webview) Unbind(name string) error {
	return w.cell.unbind(name)
}

// Return completes the pending bound-function call identified by seq.
// status zero means success and resolves the promise; nonzero rejects
// it. result is injected verbatim as the settlement value, so it must
// be a valid script expression (typically JSON).
func (w *Webview) Return(seq string, status int, result string) error {
	return w.cell.ret(seq, status, result)
}

// Dispatch schedules fn to run exactly once on the engine's own
// execution context, receiving a borrowed View of this Webview. It is
// the safe way to touch the engine from a foreign goroutine.
func (w *Webview) Dispatch(fn func(*View)) error {
	return w.cell.dispatch(fn)
}

// Window returns the native window reference for embedding. The chrome
// backend returns ErrUnsupported.
func (w *Webview) Window() (NativeWindow, error) {
	return w.cell.window()
}
