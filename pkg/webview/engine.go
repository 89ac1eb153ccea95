package webview

// NativeWindow is an opaque reference to the engine's top-level native
// window, suitable for embedding into a host application's own window
// hierarchy. Backends that have no native window return ErrUnsupported
// instead.
type NativeWindow uintptr

// BindFunc handles one invocation of a script-bound function. seq is
// the opaque correlation token for a later Return; req is the raw
// argument payload exactly as the page sent it (a JSON array of the
// call arguments).
type BindFunc func(seq, req string)

// Engine is the capability set shared by both backend variants. The
// facade layer is the only caller: every method runs after the upgrade
// check, and an engine never outlives the Webview that created it.
//
// Run, Terminate and Destroy form the lifecycle: Run blocks until
// Terminate, Destroy is called exactly once after Run has returned (or
// instead of Run when the loop never started).
type Engine interface {
	// Run navigates to url and drives the engine's event loop until
	// Terminate. The empty url means the engine's blank page.
	Run(url string) error
	// Terminate requests Run to return. Idempotent; a Terminate racing
	// Run must not be lost.
	Terminate()
	// Destroy releases the underlying resource.
	Destroy() error

	// Navigate points a live session at url. Before Run it is a no-op;
	// the facade replays the pending target when the loop starts.
	Navigate(url string) error
	SetTitle(title string) error
	SetSize(width, height int, hint Hint) error
	// Init schedules js to run in every new document before its own
	// scripts.
	Init(js string) error
	Eval(js string) error
	// Bind installs the page-side shim for one bound function name.
	// Invocations come back through the engine's script-message sink.
	Bind(name string) error
	// Unbind removes the page-side shim for name. Calls already in
	// flight still reach the sink; the facade drops them.
	Unbind(name string) error
	// Return completes the pending bound-function call identified by
	// seq. status zero resolves the page-side promise, nonzero rejects
	// it; result is injected verbatim as the settlement value.
	Return(seq string, status int, result string) error
	// Dispatch schedules fn on the engine's own execution context.
	// Delivery is FIFO with respect to other dispatched closures.
	Dispatch(fn func()) error
	Window() (NativeWindow, error)
}
