package webview

// Handle is a cloneable, goroutine-safe, non-owning reference to a
// Webview. Every operation first upgrades to the live engine; once the
// owner has closed, every operation returns ErrClosed without touching
// engine state. Copying a Handle (or calling Clone) yields an
// equivalent reference to the same owner.
//
// The zero Handle is not usable; obtain one from (*Webview).Handle.
type Handle struct {
	cell *cell
}

// Clone returns an independent reference to the same owner.
func (h *Handle) Clone() *Handle {
	return &Handle{cell: h.cell}
}

// Terminate requests the owner's run loop to exit.
func (h *Handle) Terminate() error {
	return h.cell.terminate()
}

// Dispatch schedules fn to run exactly once on the engine's own
// execution context, receiving a borrowed View of the owner.
func (h *Handle) Dispatch(fn func(*View)) error {
	return h.cell.dispatch(fn)
}

// Bind exposes a function called name to page script, as
// (*Webview).Bind.
func (h *Handle) Bind(name string, fn BindFunc) error {
	return h.cell.bind(name, fn)
}

// Unbind removes a binding, as (*Webview).Unbind.
func (h *Handle) Unbind(name string) error {
	return h.cell.unbind(name)
}

// Return completes a pending bound-function call, as
// (*Webview).Return.
func (h *Handle) Return(seq string, status int, result string) error {
	return h.cell.ret(seq, status, result)
}

// Window returns the native window reference, as (*Webview).Window.
func (h *Handle) Window() (NativeWindow, error) {
	return h.cell.window()
}
